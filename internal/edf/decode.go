package edf

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	headerSize       = 256
	signalHeaderSize = 256

	// MaxRecordBytes bounds a single data record.
	MaxRecordBytes = 64 << 20
	// MaxDataBytes bounds the declared data section of a file.
	MaxDataBytes = 1 << 30
	// preallocSamples caps the per-signal capacity reserved up front; larger recordings
	// grow as records are actually read.
	preallocSamples = 1 << 20
)

// fieldReader walks fixed-width ASCII header fields, keeping the first parse error.
type fieldReader struct {
	buf []byte
	off int
	err error
}

func (p *fieldReader) raw(n int) []byte {
	b := p.buf[p.off : p.off+n]
	p.off += n
	return b
}

func (p *fieldReader) text(n int) string {
	return strings.TrimSpace(string(p.raw(n)))
}

func (p *fieldReader) int(n int, name string) int {
	s := p.text(n)
	v, err := strconv.Atoi(s)
	if err != nil && p.err == nil {
		p.err = fmt.Errorf("%w: %s %q is not an integer", ErrFormat, name, s)
	}
	return v
}

func (p *fieldReader) float(n int, name string) float64 {
	s := p.text(n)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil && p.err == nil {
		p.err = fmt.Errorf("%w: %s %q is not a number", ErrFormat, name, s)
	}
	return v
}

// ReadFile decodes the recording stored at path.
func ReadFile(path string) (*File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()
	return Decode(fh)
}

// Decode reads a complete EDF or BDF recording from r.
func Decode(r io.Reader) (*File, error) {
	return DecodeSize(r, -1)
}

// DecodeSize is Decode for a source known to hold size bytes. A header that claims more
// data than that is rejected before any sample memory is allocated. A negative size
// disables the check.
func DecodeSize(r io.Reader, size int64) (*File, error) {
	br := bufio.NewReaderSize(r, 64*1024)

	fixed := make([]byte, headerSize)
	if _, err := io.ReadFull(br, fixed); err != nil {
		return nil, fmt.Errorf("%w: read header: %v", ErrFormat, err)
	}

	p := &fieldReader{buf: fixed}
	f := &File{}

	version := p.raw(8)
	switch {
	case version[0] == 0xFF && strings.TrimSpace(string(version[1:])) == "BIOSEMI":
		f.Header.Format = FormatBDF
	case strings.TrimSpace(string(version)) == "0":
		f.Header.Format = FormatEDF
	default:
		return nil, fmt.Errorf("%w: unknown version %q", ErrFormat, version)
	}

	f.Header.Patient = p.text(80)
	f.Header.Recording = p.text(80)
	f.Header.Start = parseStart(p.text(8), p.text(8))
	headerBytes := p.int(8, "header size")
	f.Header.Reserved = p.text(44)
	f.Header.NumRecords = p.int(8, "record count")
	f.Header.RecordDuration = p.float(8, "record duration")
	ns := p.int(4, "signal count")
	if p.err != nil {
		return nil, p.err
	}

	if ns <= 0 {
		return nil, fmt.Errorf("%w: no signals", ErrFormat)
	}
	if want := headerSize + ns*signalHeaderSize; headerBytes != want {
		return nil, fmt.Errorf("%w: header size %d, expected %d for %d signals", ErrFormat, headerBytes, want, ns)
	}
	if f.Header.RecordDuration <= 0 {
		return nil, fmt.Errorf("%w: record duration must be positive", ErrFormat)
	}
	if f.Header.NumRecords < -1 {
		return nil, fmt.Errorf("%w: record count %d", ErrFormat, f.Header.NumRecords)
	}

	sh := make([]byte, ns*signalHeaderSize)
	if _, err := io.ReadFull(br, sh); err != nil {
		return nil, fmt.Errorf("%w: read signal headers: %v", ErrFormat, err)
	}
	signals, err := parseSignalHeaders(sh, ns)
	if err != nil {
		return nil, err
	}
	f.Signals = signals

	recordSize, err := recordBytes(f)
	if err != nil {
		return nil, err
	}
	if f.Header.NumRecords > 0 {
		if f.Header.NumRecords > MaxDataBytes/recordSize {
			return nil, fmt.Errorf("%w: %d records of %d bytes exceed the %d byte limit",
				ErrFormat, f.Header.NumRecords, recordSize, MaxDataBytes)
		}
		want := int64(headerBytes) + int64(f.Header.NumRecords)*int64(recordSize)
		if size >= 0 && size < want {
			return nil, fmt.Errorf("%w: header declares %d bytes, file has %d", ErrFormat, want, size)
		}
	}

	if err := readRecords(br, f, recordSize); err != nil {
		return nil, err
	}
	return f, nil
}

func parseSignalHeaders(buf []byte, ns int) ([]Signal, error) {
	p := &fieldReader{buf: buf}
	s := make([]Signal, ns)
	for i := range s {
		s[i].Label = p.text(16)
	}
	for i := range s {
		s[i].Transducer = p.text(80)
	}
	for i := range s {
		s[i].PhysicalDimension = p.text(8)
	}
	for i := range s {
		s[i].PhysicalMin = p.float(8, "physical minimum")
	}
	for i := range s {
		s[i].PhysicalMax = p.float(8, "physical maximum")
	}
	for i := range s {
		s[i].DigitalMin = p.int(8, "digital minimum")
	}
	for i := range s {
		s[i].DigitalMax = p.int(8, "digital maximum")
	}
	for i := range s {
		s[i].Prefiltering = p.text(80)
	}
	for i := range s {
		s[i].SamplesPerRecord = p.int(8, "samples per record")
	}
	// 32 reserved bytes per signal follow; nothing in them is used.
	if p.err != nil {
		return nil, p.err
	}

	for i, sig := range s {
		if sig.SamplesPerRecord <= 0 {
			return nil, fmt.Errorf("%w: signal %d (%s) has %d samples per record", ErrFormat, i, sig.Label, sig.SamplesPerRecord)
		}
		if sig.DigitalMax <= sig.DigitalMin {
			return nil, fmt.Errorf("%w: signal %d (%s) digital range [%d, %d]", ErrFormat, i, sig.Label, sig.DigitalMin, sig.DigitalMax)
		}
	}
	return s, nil
}

// recordBytes returns the size of one data record, refusing records over MaxRecordBytes.
func recordBytes(f *File) (int, error) {
	bps := f.Header.Format.bytesPerSample()
	limit := MaxRecordBytes / bps
	total := 0
	for i, s := range f.Signals {
		if s.SamplesPerRecord > limit-total {
			return 0, fmt.Errorf("%w: signal %d (%s) pushes the record past %d bytes",
				ErrFormat, i, s.Label, MaxRecordBytes)
		}
		total += s.SamplesPerRecord
	}
	return total * bps, nil
}

func readRecords(br *bufio.Reader, f *File, recordSize int) error {
	bps := f.Header.Format.bytesPerSample()

	gains := make([]float64, len(f.Signals))
	for i, s := range f.Signals {
		gains[i] = (s.PhysicalMax - s.PhysicalMin) / float64(s.DigitalMax-s.DigitalMin)
		if f.Header.NumRecords > 0 {
			f.Signals[i].Samples = make([]float64, 0, min(s.SamplesPerRecord*f.Header.NumRecords, preallocSamples))
		}
	}

	rec := make([]byte, recordSize)
	n := 0
	for f.Header.NumRecords == -1 || n < f.Header.NumRecords {
		if _, err := io.ReadFull(br, rec); err != nil {
			if errors.Is(err, io.EOF) && f.Header.NumRecords == -1 {
				break
			}
			return fmt.Errorf("%w: truncated data in record %d: %v", ErrFormat, n, err)
		}
		off := 0
		for i := range f.Signals {
			s := &f.Signals[i]
			for k := 0; k < s.SamplesPerRecord; k++ {
				var d int32
				if bps == 3 {
					d = int32(rec[off]) | int32(rec[off+1])<<8 | int32(int8(rec[off+2]))<<16
				} else {
					d = int32(int16(uint16(rec[off]) | uint16(rec[off+1])<<8))
				}
				off += bps
				s.Samples = append(s.Samples, (float64(d)-float64(s.DigitalMin))*gains[i]+s.PhysicalMin)
			}
		}
		n++
	}
	if n == 0 {
		return fmt.Errorf("%w: no data records", ErrFormat)
	}
	f.Header.NumRecords = n
	return nil
}

// parseStart reads the dd.mm.yy / hh.mm.ss start fields. Malformed values yield the zero time;
// many recorders write junk here and it never affects the samples.
func parseStart(date, clock string) time.Time {
	d := strings.Split(date, ".")
	c := strings.Split(clock, ".")
	if len(d) != 3 || len(c) != 3 {
		return time.Time{}
	}
	var v [6]int
	for i, s := range append(d, c...) {
		n, err := strconv.Atoi(s)
		if err != nil {
			return time.Time{}
		}
		v[i] = n
	}
	year := 1900 + v[2]
	if v[2] < 85 {
		year = 2000 + v[2]
	}
	return time.Date(year, time.Month(v[1]), v[0], v[3], v[4], v[5], 0, time.UTC)
}
