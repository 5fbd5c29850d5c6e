package mocks

import (
	"context"
	"io"

	"eegweb/internal/model"
	"eegweb/internal/service"

	"github.com/stretchr/testify/mock"
)

type MockAnalysisService struct {
	mock.Mock
}

func (m *MockAnalysisService) Save(ctx context.Context, r io.Reader, filename string, size int64) (string, error) {
	args := m.Called(ctx, r, filename, size)
	return args.String(0), args.Error(1)
}

func (m *MockAnalysisService) ProcessFile(ctx context.Context, key string, timescale float64, runID string, idx int) (*model.Summary, error) {
	args := m.Called(ctx, key, timescale, runID, idx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Summary), args.Error(1)
}

func (m *MockAnalysisService) ProcessAverage(ctx context.Context, keys []string, timescale float64, runID string) (string, error) {
	args := m.Called(ctx, keys, timescale, runID)
	return args.String(0), args.Error(1)
}

func (m *MockAnalysisService) Analyze(ctx context.Context, keys []string, timescale float64) (*service.AnalysisResult, error) {
	args := m.Called(ctx, keys, timescale)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.AnalysisResult), args.Error(1)
}
