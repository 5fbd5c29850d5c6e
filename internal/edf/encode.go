package edf

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
)

const (
	defaultDigitalMin = -32767
	defaultDigitalMax = 32767
)

// WriteFile encodes f as EDF into path, replacing any existing file.
func WriteFile(path string, f *File) error {
	fh, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Encode(fh, f); err != nil {
		fh.Close()
		return err
	}
	return fh.Close()
}

// Encode writes f as a 16-bit EDF file. The record count is derived from the samples;
// every signal must hold a whole number of records and all signals the same number.
// Zero physical or digital ranges are filled in from the samples and a symmetric int16 range.
func Encode(w io.Writer, f *File) error {
	if len(f.Signals) == 0 {
		return fmt.Errorf("edf: encode: no signals")
	}
	if f.Header.RecordDuration <= 0 {
		return fmt.Errorf("edf: encode: record duration must be positive")
	}

	signals := make([]Signal, len(f.Signals))
	copy(signals, f.Signals)

	records := -1
	for i := range signals {
		s := &signals[i]
		if s.SamplesPerRecord <= 0 {
			return fmt.Errorf("edf: encode: signal %d has no samples per record", i)
		}
		if len(s.Samples)%s.SamplesPerRecord != 0 {
			return fmt.Errorf("edf: encode: signal %d holds a partial record", i)
		}
		n := len(s.Samples) / s.SamplesPerRecord
		if records == -1 {
			records = n
		} else if n != records {
			return fmt.Errorf("edf: encode: signal %d has %d records, expected %d", i, n, records)
		}
		if s.DigitalMin == 0 && s.DigitalMax == 0 {
			s.DigitalMin, s.DigitalMax = defaultDigitalMin, defaultDigitalMax
		}
		if s.DigitalMin < math.MinInt16 || s.DigitalMax > math.MaxInt16 || s.DigitalMax <= s.DigitalMin {
			return fmt.Errorf("edf: encode: signal %d digital range [%d, %d]", i, s.DigitalMin, s.DigitalMax)
		}
		if s.PhysicalMin == s.PhysicalMax {
			s.PhysicalMin, s.PhysicalMax = autoRange(s.Samples)
		}
	}
	if records == 0 {
		return fmt.Errorf("edf: encode: no data records")
	}

	hw := &headerWriter{}
	hw.text("0", 8)
	hw.text(f.Header.Patient, 80)
	hw.text(f.Header.Recording, 80)
	start := f.Header.Start
	if start.IsZero() {
		hw.text("01.01.85", 8)
		hw.text("00.00.00", 8)
	} else {
		hw.text(start.Format("02.01.06"), 8)
		hw.text(start.Format("15.04.05"), 8)
	}
	hw.number(float64(headerSize+len(signals)*signalHeaderSize), 8)
	hw.text(f.Header.Reserved, 44)
	hw.number(float64(records), 8)
	hw.number(f.Header.RecordDuration, 8)
	hw.number(float64(len(signals)), 4)

	for _, s := range signals {
		hw.text(s.Label, 16)
	}
	for _, s := range signals {
		hw.text(s.Transducer, 80)
	}
	for _, s := range signals {
		hw.text(s.PhysicalDimension, 8)
	}
	// The physical extremes are written rounded to fit eight characters;
	// digitizing against the rounded values keeps Decode consistent.
	pmin := make([]float64, len(signals))
	pmax := make([]float64, len(signals))
	for i, s := range signals {
		pmin[i] = hw.number(s.PhysicalMin, 8)
	}
	for i, s := range signals {
		pmax[i] = hw.number(s.PhysicalMax, 8)
	}
	for _, s := range signals {
		hw.number(float64(s.DigitalMin), 8)
	}
	for _, s := range signals {
		hw.number(float64(s.DigitalMax), 8)
	}
	for _, s := range signals {
		hw.text(s.Prefiltering, 80)
	}
	for _, s := range signals {
		hw.number(float64(s.SamplesPerRecord), 8)
	}
	for range signals {
		hw.text("", 32)
	}
	if hw.err != nil {
		return hw.err
	}

	bw := bufio.NewWriter(w)
	if _, err := bw.Write(hw.buf); err != nil {
		return err
	}

	sample := make([]byte, 2)
	for r := 0; r < records; r++ {
		for i, s := range signals {
			gain := (pmax[i] - pmin[i]) / float64(s.DigitalMax-s.DigitalMin)
			base := r * s.SamplesPerRecord
			for _, v := range s.Samples[base : base+s.SamplesPerRecord] {
				d := math.Round((v-pmin[i])/gain) + float64(s.DigitalMin)
				d = math.Max(float64(s.DigitalMin), math.Min(float64(s.DigitalMax), d))
				u := uint16(int16(d))
				sample[0], sample[1] = byte(u), byte(u>>8)
				if _, err := bw.Write(sample); err != nil {
					return err
				}
			}
		}
	}
	return bw.Flush()
}

// autoRange returns a symmetric physical range covering samples, never narrower than ±1.
func autoRange(samples []float64) (float64, float64) {
	peak := 1.0
	for _, v := range samples {
		peak = math.Max(peak, math.Abs(v))
	}
	return -peak, peak
}

type headerWriter struct {
	buf []byte
	err error
}

func (h *headerWriter) text(s string, width int) {
	b := make([]byte, width)
	for i := range b {
		b[i] = ' '
	}
	copy(b, s)
	h.buf = append(h.buf, b...)
}

// number writes v into a field of width characters and returns the value as it will be read back.
func (h *headerWriter) number(v float64, width int) float64 {
	s, err := formatNumber(v, width)
	if err != nil {
		if h.err == nil {
			h.err = err
		}
		h.text("", width)
		return v
	}
	h.text(s, width)
	back, _ := strconv.ParseFloat(s, 64)
	return back
}

func formatNumber(v float64, width int) (string, error) {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if len(s) <= width {
		return s, nil
	}
	for prec := width; prec >= 0; prec-- {
		s = strconv.FormatFloat(v, 'f', prec, 64)
		if len(s) <= width {
			return s, nil
		}
	}
	return "", fmt.Errorf("edf: encode: value %g does not fit in %d characters", v, width)
}
