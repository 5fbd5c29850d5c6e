package handler

import (
	"bytes"
	"context"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"eegweb/internal/http/view"
	"eegweb/internal/service"
)

// NoFilesMessage is the plain-text reply to an upload without files.
const NoFilesMessage = "No files selected"

// Pinger is a dependency checked by the health endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Index renders the upload form.
func Index(views *view.Views) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var buf bytes.Buffer
		if err := views.Index(&buf); err != nil {
			return err
		}
		return c.Type("html").Send(buf.Bytes())
	}
}

// Upload stores every file of the multipart field "eegfiles" and analyses the batch with the
// default timescale.
func Upload(svc service.AnalysisService, views *view.Views, timescale float64) fiber.Handler {
	return func(c *fiber.Ctx) error {
		form, err := c.MultipartForm()
		if err != nil {
			return c.SendString(NoFilesMessage)
		}
		files := form.File["eegfiles"]
		if len(files) == 0 || files[0].Filename == "" {
			return c.SendString(NoFilesMessage)
		}

		keys := make([]string, 0, len(files))
		for _, fh := range files {
			f, err := fh.Open()
			if err != nil {
				return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
			}
			key, err := svc.Save(c.UserContext(), f, fh.Filename, fh.Size)
			f.Close()
			if err != nil {
				return writeServiceError(c, err)
			}
			keys = append(keys, key)
		}

		res, err := svc.Analyze(c.UserContext(), keys, timescale)
		if err != nil {
			return writeServiceError(c, err)
		}
		return renderResult(c, views, res)
	}
}

// Update re-analyses previously stored files with a new timescale. The form carries
// "timescale" and repeated "filepaths" fields.
func Update(svc service.AnalysisService, views *view.Views, defaultTimescale float64) fiber.Handler {
	return func(c *fiber.Ctx) error {
		timescale := defaultTimescale
		if raw := c.FormValue("timescale"); raw != "" {
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return writeError(c, fiber.StatusBadRequest, "INVALID_TIMESCALE", "timescale must be a positive number")
			}
			timescale = v
		}

		keys := formValues(c, "filepaths")
		if len(keys) == 0 {
			return c.SendString(NoFilesMessage)
		}

		res, err := svc.Analyze(c.UserContext(), keys, timescale)
		if err != nil {
			return writeServiceError(c, err)
		}
		return renderResult(c, views, res)
	}
}

// HealthCheck pings every dependency.
func HealthCheck(deps ...Pinger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		for _, d := range deps {
			if err := d.Ping(ctx); err != nil {
				return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
			}
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	}
}

// LivenessProbe always answers 200.
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}

func renderResult(c *fiber.Ctx, views *view.Views, res *service.AnalysisResult) error {
	var buf bytes.Buffer
	if err := views.Result(&buf, res); err != nil {
		return err
	}
	return c.Type("html").Send(buf.Bytes())
}

// formValues returns every value of a repeated form field, for both urlencoded and
// multipart bodies.
func formValues(c *fiber.Ctx, key string) []string {
	if form, err := c.MultipartForm(); err == nil {
		return form.Value[key]
	}
	var out []string
	for _, v := range c.Request().PostArgs().PeekMulti(key) {
		out = append(out, string(v))
	}
	return out
}
