package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"eegweb/internal/config"
	"eegweb/internal/dsp"
	"eegweb/internal/logger"
	"eegweb/internal/model"
	"eegweb/internal/plot"
	"eegweb/internal/storage"
)

var (
	ErrReaderNil        = errors.New("reader is nil")
	ErrNoFiles          = errors.New("no files to analyse")
	ErrInvalidTimescale = errors.New("timescale must be a positive number")
	ErrInvalidFilepath  = errors.New("invalid file path")
	ErrNotFound         = errors.New("recording not found")
	ErrDecode           = errors.New("recording could not be decoded")
	ErrUnsupported      = errors.New("recording not supported")
)

// Renderer draws the pipeline's images.
type Renderer interface {
	Traces(w io.Writer, t plot.Traces) error
	PSD(w io.Writer, s dsp.Spectrum) error
}

// AnalysisResult is everything the results page shows for one batch.
type AnalysisResult struct {
	RunID       string
	Summaries   []model.Summary
	Files       []string // stored keys, echoed back for re-rendering
	Timescale   float64
	AveragePlot string // empty for a single file
}

// AnalysisService defines the EEG upload and analysis use cases.
type AnalysisService interface {
	// Save stores an uploaded recording under its sanitized filename, replacing any earlier
	// file of the same name, and returns the storage key.
	Save(ctx context.Context, r io.Reader, filename string, size int64) (string, error)

	// ProcessFile runs the single-file pipeline and writes its time and PSD plots under runID.
	ProcessFile(ctx context.Context, key string, timescale float64, runID string, idx int) (*model.Summary, error)

	// ProcessAverage re-decodes every file, averages them over the shortest common length and
	// writes the grand-average plot under runID. It returns the plot URL.
	ProcessAverage(ctx context.Context, keys []string, timescale float64, runID string) (string, error)

	// Analyze runs ProcessFile for each key and ProcessAverage when there is more than one.
	Analyze(ctx context.Context, keys []string, timescale float64) (*AnalysisResult, error)
}

// analysisService is a concrete implementation of AnalysisService.
type analysisService struct {
	uploads   storage.Storage
	artifacts storage.Storage
	renderer  Renderer
	cfg       config.AnalysisConfig

	log      *zap.Logger
	metrics  *Metrics
	tracer   trace.Tracer
	now      func() time.Time
	newRunID func() string
}

// Option configures NewAnalysisService.
type Option func(*analysisService)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(s *analysisService) { s.log = l }
}

// WithMetrics enables pipeline metrics.
func WithMetrics(m *Metrics) Option {
	return func(s *analysisService) { s.metrics = m }
}

// WithClock overrides the time source used for average plot names and durations.
func WithClock(now func() time.Time) Option {
	return func(s *analysisService) { s.now = now }
}

// WithRunIDs overrides the generator of per-request artifact directories.
func WithRunIDs(next func() string) Option {
	return func(s *analysisService) { s.newRunID = next }
}

// NewAnalysisService constructs a new AnalysisService. Recordings are read from uploads and
// images are written to artifacts.
func NewAnalysisService(uploads, artifacts storage.Storage, renderer Renderer, cfg config.AnalysisConfig, opts ...Option) AnalysisService {
	s := &analysisService{
		uploads:   uploads,
		artifacts: artifacts,
		renderer:  renderer,
		cfg:       cfg,
		log:       zap.NewNop(),
		tracer:    otel.Tracer("eegweb/internal/service"),
		now:       time.Now,
		newRunID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *analysisService) Save(ctx context.Context, r io.Reader, filename string, size int64) (string, error) {
	if r == nil {
		return "", ErrReaderNil
	}
	key := storage.SanitizeFilename(filename)
	if key == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidFilepath, filename)
	}
	info, err := s.uploads.Put(ctx, key, r, storage.PutObjectOptions{Size: size, ContentType: "application/octet-stream"})
	if err != nil {
		return "", fmt.Errorf("store upload: %w", err)
	}
	logger.FromContext(ctx, s.log).Info("recording_stored",
		zap.String("key", key),
		zap.String("original_filename", filename),
		zap.String("size", humanize.Bytes(uint64(info.Size))),
	)
	return key, nil
}

func (s *analysisService) ProcessFile(ctx context.Context, key string, timescale float64, runID string, idx int) (summary *model.Summary, err error) {
	ctx, span := s.tracer.Start(ctx, "service.ProcessFile", trace.WithAttributes(
		attribute.String("eeg.key", key),
		attribute.Int("eeg.index", idx),
		attribute.String("request_id", logger.RequestIDFromContext(ctx)),
	))
	defer func() {
		endSpan(span, err)
		s.metrics.fileDone(err)
	}()

	if err := validateTimescale(timescale); err != nil {
		return nil, err
	}
	start := s.now()

	full, size, err := s.loadRecording(ctx, key)
	if err != nil {
		return nil, err
	}
	s.metrics.observe("decode", s.now().Sub(start))

	t := s.now()
	rec, err := s.filterRecording(full.Head(s.cfg.MaxChannels))
	if err != nil {
		return nil, err
	}
	s.metrics.observe("filter", s.now().Sub(t))

	timeKey := fmt.Sprintf("%s/time_%d.png", runID, idx)
	if err := s.renderTo(ctx, timeKey, func(w io.Writer) error {
		return s.renderer.Traces(w, s.traces("EEG Signal – "+rec.Filename, rec, timescale))
	}); err != nil {
		return nil, err
	}

	t = s.now()
	spec, err := dsp.Welch(dsp.ChannelMean(rec.Data), rec.SampleRate, s.cfg.WelchSegment)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrUnsupported, key, err)
	}
	bands := make([]model.BandPower, len(s.cfg.Bands))
	for i, b := range s.cfg.Bands {
		bands[i] = model.BandPower{Band: b, Power: spec.BandPower(b.Low, b.High)}
	}
	s.metrics.observe("spectrum", s.now().Sub(t))

	psdKey := fmt.Sprintf("%s/psd_%d.png", runID, idx)
	if err := s.renderTo(ctx, psdKey, func(w io.Writer) error {
		return s.renderer.PSD(w, spec)
	}); err != nil {
		return nil, err
	}

	summary = &model.Summary{
		Filename:        full.Filename,
		Channels:        len(full.Channels),
		PlottedChannels: len(rec.Channels),
		SampleRate:      full.SampleRate,
		Duration:        math.Round(full.Duration()*100) / 100,
		Size:            humanize.Bytes(uint64(size)),
		TimePlot:        s.artifacts.URL(timeKey),
		PSDPlot:         s.artifacts.URL(psdKey),
		Bands:           bands,
	}
	logger.FromContext(ctx, s.log).Info("file_processed",
		zap.String("run_id", runID),
		zap.String("key", key),
		zap.Int("channels", summary.Channels),
		zap.Float64("sfreq", summary.SampleRate),
		zap.Float64("duration_s", summary.Duration),
		zap.Duration("elapsed", s.now().Sub(start)),
	)
	return summary, nil
}

func (s *analysisService) ProcessAverage(ctx context.Context, keys []string, timescale float64, runID string) (plotURL string, err error) {
	ctx, span := s.tracer.Start(ctx, "service.ProcessAverage", trace.WithAttributes(
		attribute.Int("eeg.files", len(keys)),
		attribute.String("request_id", logger.RequestIDFromContext(ctx)),
	))
	defer func() { endSpan(span, err) }()

	if len(keys) == 0 {
		return "", ErrNoFiles
	}
	if err := validateTimescale(timescale); err != nil {
		return "", err
	}
	start := s.now()

	matrices := make([][][]float64, 0, len(keys))
	var last *model.Recording
	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		full, _, err := s.loadRecording(ctx, key)
		if err != nil {
			return "", err
		}
		rec, err := s.filterRecording(full.Head(s.cfg.MaxChannels))
		if err != nil {
			return "", err
		}
		if last != nil && rec.SampleRate != last.SampleRate {
			return "", fmt.Errorf("%w: %s is sampled at %g Hz, %s at %g Hz",
				ErrUnsupported, last.Filename, last.SampleRate, rec.Filename, rec.SampleRate)
		}
		matrices = append(matrices, rec.Data)
		last = rec
	}

	avg, err := dsp.GrandAverage(matrices)
	if err != nil {
		return "", fmt.Errorf("%w: recordings have different channel counts: %w", ErrUnsupported, err)
	}
	grand := &model.Recording{
		Filename:   "average",
		SampleRate: last.SampleRate,
		Channels:   last.Channels,
		Data:       avg,
	}

	key := fmt.Sprintf("%s/average_%d.png", runID, s.now().Unix())
	if err := s.renderTo(ctx, key, func(w io.Writer) error {
		return s.renderer.Traces(w, s.traces("Grand Average EEG Signal", grand, timescale))
	}); err != nil {
		return "", err
	}

	logger.FromContext(ctx, s.log).Info("average_processed",
		zap.String("run_id", runID),
		zap.Int("files", len(keys)),
		zap.Int("samples", grand.Samples()),
		zap.Duration("elapsed", s.now().Sub(start)),
	)
	return s.artifacts.URL(key), nil
}

func (s *analysisService) Analyze(ctx context.Context, keys []string, timescale float64) (*AnalysisResult, error) {
	if len(keys) == 0 {
		return nil, ErrNoFiles
	}
	if err := validateTimescale(timescale); err != nil {
		return nil, err
	}

	res := &AnalysisResult{
		RunID:     s.newRunID(),
		Summaries: make([]model.Summary, 0, len(keys)),
		Files:     keys,
		Timescale: timescale,
	}
	for idx, key := range keys {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		sum, err := s.ProcessFile(ctx, key, timescale, res.RunID, idx)
		if err != nil {
			logger.FromContext(ctx, s.log).Error("file_failed", zap.String("run_id", res.RunID), zap.String("key", key), zap.Error(err))
			return nil, err
		}
		res.Summaries = append(res.Summaries, *sum)
	}

	if len(keys) > 1 {
		u, err := s.ProcessAverage(ctx, keys, timescale, res.RunID)
		if err != nil {
			logger.FromContext(ctx, s.log).Error("average_failed", zap.String("run_id", res.RunID), zap.Error(err))
			return nil, err
		}
		res.AveragePlot = u
	}
	return res, nil
}

func (s *analysisService) traces(title string, rec *model.Recording, timescale float64) plot.Traces {
	return plot.Traces{
		Title:      title,
		SampleRate: rec.SampleRate,
		Labels:     rec.Channels,
		Data:       rec.Data,
		Window:     timescale,
		Spacing:    s.cfg.ChannelSpacing,
	}
}

// renderTo renders into memory and stores the PNG under key.
func (s *analysisService) renderTo(ctx context.Context, key string, render func(io.Writer) error) error {
	start := s.now()
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		return fmt.Errorf("render %s: %w", key, err)
	}
	s.metrics.observe("render", s.now().Sub(start))

	if _, err := s.artifacts.Put(ctx, key, &buf, storage.PutObjectOptions{
		Size:        int64(buf.Len()),
		ContentType: "image/png",
	}); err != nil {
		return fmt.Errorf("store %s: %w", key, err)
	}
	return nil
}

func validateTimescale(v float64) error {
	if !(v > 0) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: %g", ErrInvalidTimescale, v)
	}
	return nil
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
