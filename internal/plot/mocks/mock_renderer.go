package mocks

import (
	"io"

	"eegweb/internal/dsp"
	"eegweb/internal/plot"

	"github.com/stretchr/testify/mock"
)

type MockRenderer struct {
	mock.Mock
}

func (m *MockRenderer) Traces(w io.Writer, t plot.Traces) error {
	args := m.Called(w, t)
	return args.Error(0)
}

func (m *MockRenderer) PSD(w io.Writer, s dsp.Spectrum) error {
	args := m.Called(w, s)
	return args.Error(0)
}

// TracesCalls returns the Traces arguments in call order.
func (m *MockRenderer) TracesCalls() []plot.Traces {
	var out []plot.Traces
	for _, c := range m.Calls {
		if c.Method == "Traces" {
			out = append(out, c.Arguments.Get(1).(plot.Traces))
		}
	}
	return out
}
