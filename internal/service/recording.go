package service

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"eegweb/internal/dsp"
	"eegweb/internal/edf"
	"eegweb/internal/model"
	"eegweb/internal/storage"
)

// loadRecording decodes the stored file under key into a Recording in microvolts. Channels
// sampled slower than the fastest one are resampled to it. The stored size is returned too.
func (s *analysisService) loadRecording(ctx context.Context, key string) (*model.Recording, int64, error) {
	if !storage.ValidKey(key) {
		return nil, 0, fmt.Errorf("%w: %q", ErrInvalidFilepath, key)
	}
	rc, info, err := s.uploads.Get(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, 0, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		if errors.Is(err, storage.ErrInvalidKey) {
			return nil, 0, fmt.Errorf("%w: %q", ErrInvalidFilepath, key)
		}
		return nil, 0, fmt.Errorf("open recording %s: %w", key, err)
	}
	defer rc.Close()

	f, err := edf.DecodeSize(bufio.NewReader(rc), info.Size)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %s: %w", ErrDecode, key, err)
	}
	signals := f.DataSignals()
	if len(signals) == 0 {
		return nil, 0, fmt.Errorf("%w: %s: no data channels", ErrDecode, key)
	}

	var rate float64
	var n int
	for _, sig := range signals {
		if r := sig.SampleRate(f.Header.RecordDuration); r > rate {
			rate = r
		}
		n = max(n, len(sig.Samples))
	}

	rec := &model.Recording{
		Filename:   path.Base(key),
		SampleRate: rate,
		Channels:   make([]string, len(signals)),
		Data:       make([][]float64, len(signals)),
	}
	for i, sig := range signals {
		rec.Channels[i] = strings.TrimSpace(sig.Label)
		scale := sig.UnitScale() * 1e6
		x := sig.Samples
		if len(x) != n {
			x = dsp.ResampleLinear(x, n)
		}
		uv := make([]float64, n)
		for j, v := range x {
			uv[j] = v * scale
		}
		rec.Data[i] = uv
	}
	return rec, info.Size, nil
}

// filterRecording band-passes every channel of rec into a new Recording.
func (s *analysisService) filterRecording(rec *model.Recording) (*model.Recording, error) {
	bp, err := dsp.NewBandpass(rec.SampleRate, s.cfg.FilterLow, s.cfg.FilterHigh)
	if err != nil {
		return nil, fmt.Errorf("%w: %s at %g Hz: %w", ErrUnsupported, rec.Filename, rec.SampleRate, err)
	}
	out := &model.Recording{
		Filename:   rec.Filename,
		SampleRate: rec.SampleRate,
		Channels:   rec.Channels,
		Data:       make([][]float64, len(rec.Data)),
	}
	for i, ch := range rec.Data {
		out.Data[i] = bp.Apply(ch)
	}
	return out, nil
}
