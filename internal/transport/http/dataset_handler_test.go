package http

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	apierrors "bitewatch/internal/errors"
	"bitewatch/internal/middleware"
	"bitewatch/internal/services"
	api "bitewatch/pkg/contracts/api/v1"
	"bitewatch/pkg/contracts/domain"
)

// MockDatasetService is a mock implementation of DatasetServiceInterface
type MockDatasetService struct {
	mock.Mock
}

func (m *MockDatasetService) Current(ctx context.Context) (*domain.Dataset, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Dataset), args.Error(1)
}

func (m *MockDatasetService) Reload(ctx context.Context, force bool) (services.ReloadOutcome, error) {
	args := m.Called(force)
	return args.Get(0).(services.ReloadOutcome), args.Error(1)
}

// MockOptionsProvider is a mock implementation of OptionsProviderInterface
type MockOptionsProvider struct {
	mock.Mock
}

func (m *MockOptionsProvider) Options(ctx context.Context, from, to *time.Time) (*api.OptionsResponse, error) {
	args := m.Called(from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*api.OptionsResponse), args.Error(1)
}

func testDataset() *domain.Dataset {
	incident := time.Date(2015, time.July, 4, 18, 15, 0, 0, time.UTC)
	return &domain.Dataset{
		Records: []domain.Incident{
			{IncidentID: "2015-001", IncidentDate: incident},
		},
		Source: domain.SourceInfo{
			Path:        "/data/Dog_Bites_2015.csv",
			Fingerprint: "feedfacefeedfacefeedfacefeedfacefeedfacefeedfacefeedfacefeedface",
			SizeBytes:   2048,
			ModTime:     incident,
		},
		LoadedAt:      time.Date(2015, time.August, 1, 0, 0, 0, 0, time.UTC),
		RawRows:       3,
		DroppedRows:   2,
		AgeMedian:     28,
		FirstIncident: incident,
		LastIncident:  incident,
	}
}

func newDatasetHandler(service DatasetServiceInterface, options OptionsProviderInterface) *DatasetHandler {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	errorHandler := apierrors.NewErrorHandler(logger, false)
	params := middleware.NewQueryParamValidator(logger, errorHandler)
	return NewDatasetHandler(service, options, params, logger, errorHandler)
}

func TestDatasetHandler_GetDataset(t *testing.T) {
	tests := []struct {
		name           string
		setupMock      func(*MockDatasetService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "loaded dataset",
			setupMock: func(m *MockDatasetService) {
				m.On("Current").Return(testDataset(), nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"fingerprint":"feedfacefeedfacefeedfacefeedfacefeedfacefeedfacefeedfacefeedface"`,
		},
		{
			name: "dataset not loaded",
			setupMock: func(m *MockDatasetService) {
				m.On("Current").Return(nil, apierrors.ErrDatasetUnloaded)
			},
			expectedStatus: http.StatusServiceUnavailable,
			expectedBody:   `"Dataset Not Loaded"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockDatasetService)
			tt.setupMock(mockService)
			handler := newDatasetHandler(mockService, new(MockOptionsProvider))

			req := httptest.NewRequest("GET", "/api/dataset", nil)
			rec := httptest.NewRecorder()

			handler.GetDataset(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.expectedBody)
			mockService.AssertExpectations(t)
		})
	}
}

func TestDatasetHandler_GetDataset_Envelope(t *testing.T) {
	mockService := new(MockDatasetService)
	mockService.On("Current").Return(testDataset(), nil)
	handler := newDatasetHandler(mockService, new(MockOptionsProvider))

	req := httptest.NewRequest("GET", "/api/dataset", nil)
	rec := httptest.NewRecorder()

	handler.GetDataset(rec, req)

	body := rec.Body.String()
	assert.Contains(t, body, `"status":"success"`)
	assert.Contains(t, body, `"records":1`)
	assert.Contains(t, body, `"dropped_rows":2`)
	assert.Contains(t, body, `"age_median":28`)
}

func TestDatasetHandler_GetOptions(t *testing.T) {
	inventory := &api.OptionsResponse{
		Options: []api.DimensionValues{
			{Dimension: "bite_severity", Values: []string{"MINOR", "SEVERE"}},
			{Dimension: "city", Values: []string{"Dallas", "Garland"}},
		},
	}

	tests := []struct {
		name           string
		target         string
		setupMock      func(*MockOptionsProvider)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:   "full inventory",
			target: "/api/dataset/options",
			setupMock: func(m *MockOptionsProvider) {
				m.On("Options", (*time.Time)(nil), (*time.Time)(nil)).Return(inventory, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"bite_severity"`,
		},
		{
			name:   "date restricted inventory",
			target: "/api/dataset/options?from=2015-07-01&to=2015-07-31",
			setupMock: func(m *MockOptionsProvider) {
				m.On("Options", mock.AnythingOfType("*time.Time"), mock.AnythingOfType("*time.Time")).Return(inventory, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"count":2`,
		},
		{
			name:           "malformed from date",
			target:         "/api/dataset/options?from=July-4th",
			setupMock:      func(m *MockOptionsProvider) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"VALIDATION_FAILED"`,
		},
		{
			name:           "reversed range",
			target:         "/api/dataset/options?from=2015-08-01&to=2015-07-01",
			setupMock:      func(m *MockOptionsProvider) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   "must not precede start",
		},
		{
			name:   "dataset not loaded",
			target: "/api/dataset/options",
			setupMock: func(m *MockOptionsProvider) {
				m.On("Options", (*time.Time)(nil), (*time.Time)(nil)).Return(nil, apierrors.ErrDatasetUnloaded)
			},
			expectedStatus: http.StatusServiceUnavailable,
			expectedBody:   `"/errors/dataset/not-loaded"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockOptions := new(MockOptionsProvider)
			tt.setupMock(mockOptions)
			handler := newDatasetHandler(new(MockDatasetService), mockOptions)

			req := httptest.NewRequest("GET", tt.target, nil)
			rec := httptest.NewRecorder()

			handler.GetOptions(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.expectedBody)
			mockOptions.AssertExpectations(t)
		})
	}
}

func TestDatasetHandler_Reload(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		setupMock      func(*MockDatasetService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "empty body defaults to unforced",
			body: "",
			setupMock: func(m *MockDatasetService) {
				m.On("Reload", false).Return(services.ReloadOutcome{Changed: true, Dataset: testDataset()}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"changed":true`,
		},
		{
			name: "forced reload",
			body: `{"force": true}`,
			setupMock: func(m *MockDatasetService) {
				m.On("Reload", true).Return(services.ReloadOutcome{Changed: false, Dataset: testDataset()}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"changed":false`,
		},
		{
			name:           "malformed body",
			body:           `{"force": "yes please"}`,
			setupMock:      func(m *MockDatasetService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"INVALID_REQUEST"`,
		},
		{
			name: "no source discovered",
			body: "",
			setupMock: func(m *MockDatasetService) {
				m.On("Reload", false).Return(services.ReloadOutcome{}, apierrors.ErrNoSourceDiscovered)
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `"SOURCE_NOT_FOUND"`,
		},
		{
			name: "configured source missing",
			body: "",
			setupMock: func(m *MockDatasetService) {
				m.On("Reload", false).Return(services.ReloadOutcome{}, apierrors.ErrSourceMissing)
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   "configured bite report source does not exist",
		},
		{
			name: "empty source rejected by validation",
			body: "",
			setupMock: func(m *MockDatasetService) {
				m.On("Reload", false).Return(services.ReloadOutcome{}, apierrors.ErrEmptySource)
			},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `"Dataset Source Unusable"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockDatasetService)
			tt.setupMock(mockService)
			handler := newDatasetHandler(mockService, new(MockOptionsProvider))

			req := httptest.NewRequest("POST", "/api/dataset/reload", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()

			handler.Reload(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.expectedBody)
			mockService.AssertExpectations(t)
		})
	}
}

func TestDatasetHandler_Reload_IgnoresTrailingGarbage(t *testing.T) {
	mockService := new(MockDatasetService)
	mockService.On("Reload", true).Return(services.ReloadOutcome{Changed: true, Dataset: testDataset()}, nil)
	handler := newDatasetHandler(mockService, new(MockOptionsProvider))

	req := httptest.NewRequest("POST", "/api/dataset/reload", strings.NewReader(`{"force":true,"unknown_field":1}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	handler.Reload(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	mockService.AssertExpectations(t)
}
