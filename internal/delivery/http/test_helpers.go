package http

import (
	"context"
	"testing"

	"github.com/frontandrew/garage/internal/delivery/http/middleware"
	"github.com/frontandrew/garage/internal/domain"
	"github.com/frontandrew/garage/internal/pkg/jwt"
	"github.com/google/uuid"
)

// CreateTestUser создает тестовый аккаунт
func CreateTestUser(id uuid.UUID, email string) *domain.User {
	return &domain.User{
		ID:    id,
		Email: email,
	}
}

// CreateTestRecord создает тестовую запись автомобиля
func CreateTestRecord(id, model, variantTag string) domain.VehicleRecord {
	return domain.VehicleRecord{
		ID:                 id,
		Model:              model,
		VariantTag:         variantTag,
		MaintenanceHistory: []domain.MaintenanceEntry{},
	}
}

// CreateAuthContext создает контекст с claims аккаунта для тестирования
func CreateAuthContext(t *testing.T, userID uuid.UUID, email string) context.Context {
	t.Helper()
	claims := &jwt.Claims{
		UserID: userID,
		Email:  email,
	}
	return context.WithValue(context.Background(), middleware.UserClaimsKey, claims)
}

// AssertSuccess проверяет успешный ответ API
func AssertSuccess(t *testing.T, response map[string]interface{}) {
	t.Helper()
	success, ok := response["success"].(bool)
	if !ok || !success {
		t.Errorf("Expected success=true, got %v", response)
	}
}

// AssertError проверяет ошибочный ответ API
func AssertError(t *testing.T, response map[string]interface{}) {
	t.Helper()
	if _, hasError := response["error"]; !hasError {
		t.Errorf("Expected error response, got %v", response)
	}
}
