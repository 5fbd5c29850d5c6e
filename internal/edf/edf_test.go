package edf

import (
	"bytes"
	"math"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFile() *File {
	const spr = 128
	const records = 3
	ramp := make([]float64, spr*records)
	sine := make([]float64, spr*records)
	for i := range ramp {
		ramp[i] = float64(i%200) - 100
		sine[i] = 80 * math.Sin(2*math.Pi*10*float64(i)/spr)
	}
	return &File{
		Header: Header{
			Patient:        "X X X X",
			Recording:      "Startdate X X X X",
			Start:          time.Date(2021, 3, 14, 9, 26, 53, 0, time.UTC),
			Reserved:       "EDF+C",
			RecordDuration: 1,
		},
		Signals: []Signal{
			{Label: "Fp1", PhysicalDimension: "uV", PhysicalMin: -200, PhysicalMax: 200, SamplesPerRecord: spr, Samples: ramp},
			{Label: "Fp2", PhysicalDimension: "uV", SamplesPerRecord: spr, Samples: sine},
			{Label: "EDF Annotations", SamplesPerRecord: 4, Samples: make([]float64, 4*records)},
		},
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	src := testFile()

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, src))

	got, err := Decode(&buf)
	require.NoError(t, err)

	assert.Equal(t, FormatEDF, got.Header.Format)
	assert.Equal(t, "X X X X", got.Header.Patient)
	assert.Equal(t, "EDF+C", got.Header.Reserved)
	assert.Equal(t, 3, got.Header.NumRecords)
	assert.Equal(t, 1.0, got.Header.RecordDuration)
	assert.Equal(t, src.Header.Start, got.Header.Start)
	assert.Equal(t, 3.0, got.Duration())
	require.Len(t, got.Signals, 3)

	for i := 0; i < 2; i++ {
		want := src.Signals[i]
		sig := got.Signals[i]
		assert.Equal(t, want.Label, sig.Label)
		assert.Equal(t, 128.0, sig.SampleRate(got.Header.RecordDuration))
		require.Len(t, sig.Samples, len(want.Samples))
		step := (sig.PhysicalMax - sig.PhysicalMin) / float64(sig.DigitalMax-sig.DigitalMin)
		for k := range want.Samples {
			require.InDelta(t, want.Samples[k], sig.Samples[k], step, "signal %d sample %d", i, k)
		}
	}
}

func TestDataSignalsSkipsAnnotations(t *testing.T) {
	f := testFile()
	data := f.DataSignals()
	require.Len(t, data, 2)
	assert.Equal(t, "Fp1", data[0].Label)
	assert.Equal(t, "Fp2", data[1].Label)
	assert.True(t, f.Signals[2].IsAnnotation())
}

func TestUnitScale(t *testing.T) {
	tests := map[string]float64{
		"uV": 1e-6,
		"µV": 1e-6,
		"mV": 1e-3,
		"V":  1,
		"nV": 1e-9,
		"":   1,
		"%":  1,
	}
	for dim, want := range tests {
		assert.Equal(t, want, Signal{PhysicalDimension: dim}.UnitScale(), dim)
	}
}

func TestDecodeZeroIsExact(t *testing.T) {
	f := &File{
		Header:  Header{RecordDuration: 1},
		Signals: []Signal{{Label: "Cz", PhysicalDimension: "uV", SamplesPerRecord: 8, Samples: make([]float64, 16)}},
	}
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, f))
	got, err := Decode(&buf)
	require.NoError(t, err)
	for _, v := range got.Signals[0].Samples {
		assert.InDelta(t, 0, v, 1e-12)
	}
}

func TestDecodeUnknownRecordCount(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, testFile()))
	raw := buf.Bytes()
	copy(raw[236:244], []byte("-1      "))

	got, err := Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, 3, got.Header.NumRecords)
	assert.Len(t, got.Signals[0].Samples, 384)
}

func TestDecodeBDF(t *testing.T) {
	hdr := &bytes.Buffer{}
	field := func(s string, n int) { hdr.WriteString(s + strings.Repeat(" ", n-len(s))) }

	hdr.WriteByte(0xFF)
	field("BIOSEMI", 7)
	field("", 80)
	field("", 80)
	field("01.02.03", 8)
	field("04.05.06", 8)
	field("512", 8)
	field("24BIT", 44)
	field("1", 8)
	field("1", 8)
	field("1", 4)
	field("Cz", 16)
	field("", 80)
	field("uV", 8)
	field("-8388608", 8)
	field("8388607", 8)
	field("-8388608", 8)
	field("8388607", 8)
	field("", 80)
	field("2", 8)
	field("", 32)

	data := []byte{0x01, 0x00, 0x00, 0xFF, 0xFF, 0xFF}
	got, err := Decode(bytes.NewReader(append(hdr.Bytes(), data...)))
	require.NoError(t, err)
	assert.Equal(t, FormatBDF, got.Header.Format)
	assert.Equal(t, time.Date(2003, 2, 1, 4, 5, 6, 0, time.UTC), got.Header.Start)
	assert.Equal(t, []float64{1, -1}, got.Signals[0].Samples)
}

func TestDecodeErrors(t *testing.T) {
	var good bytes.Buffer
	require.NoError(t, Encode(&good, testFile()))

	corrupt := func(off int, s string) []byte {
		b := bytes.Clone(good.Bytes())
		copy(b[off:], s)
		return b
	}

	tests := []struct {
		name string
		data []byte
	}{
		{name: "empty", data: nil},
		{name: "short header", data: good.Bytes()[:100]},
		{name: "bad version", data: corrupt(0, "9       ")},
		{name: "bad signal count", data: corrupt(252, "abcd")},
		{name: "zero duration", data: corrupt(244, "0       ")},
		{name: "header size mismatch", data: corrupt(184, "512     ")},
		{name: "truncated data", data: good.Bytes()[:good.Len()-10]},
		{name: "huge record count", data: corrupt(236, "99999999")},
		{name: "huge samples per record", data: corrupt(904, "99999999")},
		{name: "huge counts", data: corrupt(904, "99999999")[:headerSize+3*signalHeaderSize]},
		{name: "record count beyond data", data: corrupt(236, "00100000")},
		{name: "not edf", data: []byte(strings.Repeat("hello world ", 40))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(bytes.NewReader(tt.data))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrFormat)
		})
	}
}

func TestDecodeHugeHeaderOnly(t *testing.T) {
	var good bytes.Buffer
	require.NoError(t, Encode(&good, testFile()))
	b := bytes.Clone(good.Bytes()[:headerSize+3*signalHeaderSize])
	copy(b[236:], "99999999")
	for off := headerSize + 3*216; off < headerSize+3*224; off += 8 {
		copy(b[off:], "99999999")
	}

	_, err := Decode(bytes.NewReader(b))
	assert.ErrorIs(t, err, ErrFormat)
	_, err = DecodeSize(bytes.NewReader(b), int64(len(b)))
	assert.ErrorIs(t, err, ErrFormat)
}

func TestDecodeSize(t *testing.T) {
	var good bytes.Buffer
	require.NoError(t, Encode(&good, testFile()))
	size := int64(good.Len())

	got, err := DecodeSize(bytes.NewReader(good.Bytes()), size)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Header.NumRecords)

	_, err = DecodeSize(bytes.NewReader(good.Bytes()), size-1)
	assert.ErrorIs(t, err, ErrFormat)

	// Trailing bytes after the last record are tolerated.
	_, err = DecodeSize(bytes.NewReader(append(bytes.Clone(good.Bytes()), 0, 0)), size+2)
	assert.NoError(t, err)
}

func TestRecordBytes(t *testing.T) {
	f := &File{Signals: []Signal{{SamplesPerRecord: 256}, {SamplesPerRecord: 4}}}
	n, err := recordBytes(f)
	require.NoError(t, err)
	assert.Equal(t, 520, n)

	f.Header.Format = FormatBDF
	n, err = recordBytes(f)
	require.NoError(t, err)
	assert.Equal(t, 780, n)

	f.Signals = append(f.Signals, Signal{SamplesPerRecord: MaxRecordBytes / 3})
	_, err = recordBytes(f)
	assert.ErrorIs(t, err, ErrFormat)
}

func TestEncodeErrors(t *testing.T) {
	assert.Error(t, Encode(&bytes.Buffer{}, &File{Header: Header{RecordDuration: 1}}))
	assert.Error(t, Encode(&bytes.Buffer{}, &File{Signals: []Signal{{SamplesPerRecord: 1, Samples: []float64{1}}}}))

	partial := &File{
		Header:  Header{RecordDuration: 1},
		Signals: []Signal{{SamplesPerRecord: 4, Samples: []float64{1, 2, 3}}},
	}
	assert.Error(t, Encode(&bytes.Buffer{}, partial))

	mismatch := &File{
		Header: Header{RecordDuration: 1},
		Signals: []Signal{
			{SamplesPerRecord: 2, Samples: []float64{1, 2, 3, 4}},
			{SamplesPerRecord: 2, Samples: []float64{1, 2}},
		},
	}
	assert.Error(t, Encode(&bytes.Buffer{}, mismatch))
}

func TestWriteReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rec.edf")
	require.NoError(t, WriteFile(path, testFile()))

	got, err := ReadFile(path)
	require.NoError(t, err)
	assert.Len(t, got.Signals, 3)

	_, err = ReadFile(filepath.Join(t.TempDir(), "missing.edf"))
	assert.Error(t, err)
}

func TestFormatNumber(t *testing.T) {
	s, err := formatNumber(-123.456789, 8)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(s), 8)
	assert.Equal(t, "-123.457", s)

	_, err = formatNumber(1e12, 8)
	assert.Error(t, err)
}
