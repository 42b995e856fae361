package domain

import "errors"

// Доменные ошибки - используются во всех слоях приложения

// User errors
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrInvalidEmail       = errors.New("invalid email")
	ErrInvalidUserData    = errors.New("invalid user data")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Vehicle validation errors
var (
	ErrVehicleIDRequired  = errors.New("vehicle id is required")
	ErrModelRequired      = errors.New("vehicle model is required")
	ErrInvalidVehicleData = errors.New("invalid vehicle data")
	ErrVehicleNotFound    = errors.New("vehicle not found")
)

// Vehicle state errors - операция отклонена, состояние не изменилось
var (
	ErrEngineAlreadyOn    = errors.New("engine is already on")
	ErrEngineAlreadyOff   = errors.New("engine is already off")
	ErrEngineOff          = errors.New("engine is off")
	ErrStopBeforePowerOff = errors.New("stop the vehicle before powering off")
	ErrUnsupportedAction  = errors.New("action is not supported by this vehicle type")
)

// Cargo errors
var (
	ErrInvalidCargoWeight    = errors.New("cargo weight must be a positive number")
	ErrCargoCapacityExceeded = errors.New("cargo capacity exceeded")
)

// Maintenance errors
var (
	ErrInvalidMaintenance = errors.New("invalid maintenance record")
)

// Sync layer errors
var (
	ErrAuthExpired       = errors.New("authorization expired")
	ErrPersistence       = errors.New("persistence failure")
	ErrOperationInFlight = errors.New("operation already in flight")
	ErrNotConfirmed      = errors.New("deletion not confirmed")
)

// Weather errors
var (
	ErrCityNotFound       = errors.New("city not found")
	ErrWeatherUnavailable = errors.New("weather service unavailable")
)

// Authorization errors
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrTokenExpired = errors.New("token expired")
	ErrInvalidToken = errors.New("invalid token")
)
