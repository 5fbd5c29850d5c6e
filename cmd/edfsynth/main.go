// Command edfsynth writes a synthetic EEG recording in EDF format.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"eegweb/internal/logger"
	"eegweb/internal/synth"
)

func main() {
	lg := logger.New()
	defer lg.Sync()

	p := synth.DefaultParams()
	var out string
	flag.StringVar(&out, "o", "synthetic.edf", "Output file")
	flag.IntVar(&p.Seconds, "duration", p.Seconds, "Recording length in seconds")
	flag.IntVar(&p.SampleRate, "rate", p.SampleRate, "Sampling rate in Hz")
	flag.IntVar(&p.Channels, "channels", p.Channels, "Number of channels")
	flag.BoolVar(&p.Flat, "flat", false, "Write an all-zero recording")
	flag.Int64Var(&p.Seed, "seed", p.Seed, "Random seed for phases and noise")
	flag.Parse()

	if err := run(out, p); err != nil {
		lg.Error("edfsynth_failed", zap.String("path", out), zap.Error(err))
		os.Exit(1)
	}

	st, err := os.Stat(out)
	if err != nil {
		lg.Error("edfsynth_failed", zap.String("path", out), zap.Error(err))
		os.Exit(1)
	}
	lg.Info("recording_written",
		zap.String("path", out),
		zap.Int("channels", p.Channels),
		zap.Int("sfreq", p.SampleRate),
		zap.Int("duration_s", p.Seconds),
		zap.String("size", humanize.Bytes(uint64(st.Size()))),
	)
}

func run(path string, p synth.Params) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	if err := synth.Write(w, p); err != nil {
		f.Close()
		return fmt.Errorf("encode: %w", err)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
