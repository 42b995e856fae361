package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/frontandrew/garage/internal/domain"
	"github.com/frontandrew/garage/internal/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockGarageService - мок для garage service
type MockGarageService struct {
	mock.Mock
}

func (m *MockGarageService) ListVehicles(ctx context.Context, ownerID uuid.UUID) ([]domain.VehicleRecord, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.VehicleRecord), args.Error(1)
}

func (m *MockGarageService) CreateVehicle(ctx context.Context, ownerID uuid.UUID, rec domain.VehicleRecord) (*domain.VehicleRecord, error) {
	args := m.Called(ctx, ownerID, rec)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.VehicleRecord), args.Error(1)
}

func (m *MockGarageService) UpdateVehicle(ctx context.Context, ownerID uuid.UUID, id string, rec domain.VehicleRecord) (*domain.VehicleRecord, error) {
	args := m.Called(ctx, ownerID, id, rec)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.VehicleRecord), args.Error(1)
}

func (m *MockGarageService) DeleteVehicle(ctx context.Context, ownerID uuid.UUID, id string) error {
	args := m.Called(ctx, ownerID, id)
	return args.Error(0)
}

// withURLParam добавляет параметр chi роутера в контекст запроса
func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// TestGarageHandler_ListVehicles тестирует получение записей аккаунта
func TestGarageHandler_ListVehicles(t *testing.T) {
	userID := uuid.New()

	tests := []struct {
		name           string
		mockSetup      func(*MockGarageService)
		expectedStatus int
		checkResponse  func(*testing.T, map[string]interface{})
	}{
		{
			name: "успешное получение",
			mockSetup: func(m *MockGarageService) {
				m.On("ListVehicles", mock.Anything, userID).Return([]domain.VehicleRecord{
					CreateTestRecord("v1", "Civic", "car"),
					CreateTestRecord("v2", "GT-R", "sport"),
				}, nil)
			},
			expectedStatus: http.StatusOK,
			checkResponse: func(t *testing.T, resp map[string]interface{}) {
				AssertSuccess(t, resp)
				if data, ok := resp["data"].([]interface{}); ok {
					assert.Len(t, data, 2)
				}
			},
		},
		{
			name: "пустой гараж",
			mockSetup: func(m *MockGarageService) {
				m.On("ListVehicles", mock.Anything, userID).Return([]domain.VehicleRecord{}, nil)
			},
			expectedStatus: http.StatusOK,
			checkResponse: func(t *testing.T, resp map[string]interface{}) {
				AssertSuccess(t, resp)
				if data, ok := resp["data"].([]interface{}); ok {
					assert.Len(t, data, 0)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockGarageService)
			tt.mockSetup(mockService)

			log := logger.NewNoop()
			handler := NewGarageHandler(mockService, log)

			req := httptest.NewRequest(http.MethodGet, "/api/v1/garage/vehicles", nil)
			req = req.WithContext(CreateAuthContext(t, userID, "test@example.com"))

			w := httptest.NewRecorder()
			handler.ListVehicles(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)

			var response map[string]interface{}
			_ = json.Unmarshal(w.Body.Bytes(), &response)
			tt.checkResponse(t, response)

			mockService.AssertExpectations(t)
		})
	}
}

// TestGarageHandler_CreateVehicle тестирует создание записи
func TestGarageHandler_CreateVehicle(t *testing.T) {
	userID := uuid.New()
	saved := CreateTestRecord("srv-1", "Civic", "car")

	tests := []struct {
		name           string
		requestBody    interface{}
		mockSetup      func(*MockGarageService)
		expectedStatus int
		checkResponse  func(*testing.T, map[string]interface{})
	}{
		{
			name:        "успешное создание",
			requestBody: CreateTestRecord("", "Civic", "car"),
			mockSetup: func(m *MockGarageService) {
				m.On("CreateVehicle", mock.Anything, userID, mock.AnythingOfType("domain.VehicleRecord")).
					Return(&saved, nil)
			},
			expectedStatus: http.StatusCreated,
			checkResponse: func(t *testing.T, resp map[string]interface{}) {
				AssertSuccess(t, resp)
				if data, ok := resp["data"].(map[string]interface{}); ok {
					assert.Equal(t, "srv-1", data["id"])
					assert.Equal(t, "Civic", data["model"])
				}
			},
		},
		{
			name:        "запись без модели",
			requestBody: CreateTestRecord("", "", "car"),
			mockSetup: func(m *MockGarageService) {
				m.On("CreateVehicle", mock.Anything, userID, mock.AnythingOfType("domain.VehicleRecord")).
					Return(nil, domain.ErrModelRequired)
			},
			expectedStatus: http.StatusBadRequest,
			checkResponse: func(t *testing.T, resp map[string]interface{}) {
				AssertError(t, resp)
			},
		},
		{
			name:           "невалидный JSON",
			requestBody:    "invalid",
			mockSetup:      func(m *MockGarageService) {},
			expectedStatus: http.StatusBadRequest,
			checkResponse: func(t *testing.T, resp map[string]interface{}) {
				AssertError(t, resp)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockGarageService)
			tt.mockSetup(mockService)

			log := logger.NewNoop()
			handler := NewGarageHandler(mockService, log)

			var body []byte
			if str, ok := tt.requestBody.(string); ok {
				body = []byte(str)
			} else {
				body, _ = json.Marshal(tt.requestBody)
			}

			req := httptest.NewRequest(http.MethodPost, "/api/v1/garage/vehicles", bytes.NewReader(body))
			req = req.WithContext(CreateAuthContext(t, userID, "test@example.com"))
			req.Header.Set("Content-Type", "application/json")

			w := httptest.NewRecorder()
			handler.CreateVehicle(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)

			var response map[string]interface{}
			_ = json.Unmarshal(w.Body.Bytes(), &response)
			tt.checkResponse(t, response)

			mockService.AssertExpectations(t)
		})
	}
}

// TestGarageHandler_UpdateVehicle тестирует замену записи
func TestGarageHandler_UpdateVehicle(t *testing.T) {
	userID := uuid.New()
	saved := CreateTestRecord("v1", "Civic Type R", "car")

	tests := []struct {
		name           string
		vehicleID      string
		mockSetup      func(*MockGarageService)
		expectedStatus int
	}{
		{
			name:      "успешная замена",
			vehicleID: "v1",
			mockSetup: func(m *MockGarageService) {
				m.On("UpdateVehicle", mock.Anything, userID, "v1", mock.AnythingOfType("domain.VehicleRecord")).
					Return(&saved, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:      "запись не найдена",
			vehicleID: "ghost",
			mockSetup: func(m *MockGarageService) {
				m.On("UpdateVehicle", mock.Anything, userID, "ghost", mock.AnythingOfType("domain.VehicleRecord")).
					Return(nil, domain.ErrVehicleNotFound)
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:      "чужая запись отвечает 401",
			vehicleID: "v1",
			mockSetup: func(m *MockGarageService) {
				m.On("UpdateVehicle", mock.Anything, userID, "v1", mock.AnythingOfType("domain.VehicleRecord")).
					Return(nil, domain.ErrForbidden)
			},
			expectedStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockGarageService)
			tt.mockSetup(mockService)

			log := logger.NewNoop()
			handler := NewGarageHandler(mockService, log)

			body, _ := json.Marshal(CreateTestRecord(tt.vehicleID, "Civic Type R", "car"))
			req := httptest.NewRequest(http.MethodPut, "/api/v1/garage/vehicles/"+tt.vehicleID, bytes.NewReader(body))
			req = req.WithContext(CreateAuthContext(t, userID, "test@example.com"))
			req = withURLParam(req, "id", tt.vehicleID)
			req.Header.Set("Content-Type", "application/json")

			w := httptest.NewRecorder()
			handler.UpdateVehicle(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			mockService.AssertExpectations(t)
		})
	}
}

// TestGarageHandler_DeleteVehicle тестирует удаление записи
func TestGarageHandler_DeleteVehicle(t *testing.T) {
	userID := uuid.New()

	tests := []struct {
		name           string
		vehicleID      string
		mockSetup      func(*MockGarageService)
		expectedStatus int
	}{
		{
			name:      "успешное удаление",
			vehicleID: "v1",
			mockSetup: func(m *MockGarageService) {
				m.On("DeleteVehicle", mock.Anything, userID, "v1").Return(nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:      "запись не найдена",
			vehicleID: "ghost",
			mockSetup: func(m *MockGarageService) {
				m.On("DeleteVehicle", mock.Anything, userID, "ghost").Return(domain.ErrVehicleNotFound)
			},
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockGarageService)
			tt.mockSetup(mockService)

			log := logger.NewNoop()
			handler := NewGarageHandler(mockService, log)

			req := httptest.NewRequest(http.MethodDelete, "/api/v1/garage/vehicles/"+tt.vehicleID, nil)
			req = req.WithContext(CreateAuthContext(t, userID, "test@example.com"))
			req = withURLParam(req, "id", tt.vehicleID)

			w := httptest.NewRecorder()
			handler.DeleteVehicle(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			mockService.AssertExpectations(t)
		})
	}
}

// TestGarageHandler_Unauthorized тестирует запросы без claims в контексте
func TestGarageHandler_Unauthorized(t *testing.T) {
	mockService := new(MockGarageService)
	handler := NewGarageHandler(mockService, logger.NewNoop())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/garage/vehicles", nil)
	w := httptest.NewRecorder()
	handler.ListVehicles(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	mockService.AssertNotCalled(t, "ListVehicles", mock.Anything, mock.Anything)
}
