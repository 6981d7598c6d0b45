package utils

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCategorizeError_NilError(t *testing.T) {
	assert.Equal(t, "None", CategorizeError(nil))
}

func TestCategorizeError_SentinelErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"RobotsDisallowed", ErrRobotsDisallowed, "Policy_Robots"},
		{"LookupMiss", ErrLookupMiss, "Data_LookupMiss"},
		{"MissingData", ErrMissingData, "Data_Missing"},
		{"SemaphoreTimeout", ErrSemaphoreTimeout, "Resource_SemaphoreTimeout"},
		{"RequestCreation", ErrRequestCreation, "Internal_RequestCreation"},
		{"ResponseBodyRead", ErrResponseBodyRead, "Network_BodyRead"},
		{"ConfigValidation", ErrConfigValidation, "Config_Validation"},
		{"ServerHTTPError", ErrServerHTTPError, "HTTP_5xx"},
		{"OtherHTTPError", ErrOtherHTTPError, "HTTP_OtherStatus"},
		{"Database", ErrDatabase, "Database_Other"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CategorizeError(tt.err))
		})
	}
}

func TestCategorizeError_WrappedErrors(t *testing.T) {
	assert.Equal(t, "Data_LookupMiss",
		CategorizeError(fmt.Errorf("match AMPOSTA vs DAMM: %w", ErrLookupMiss)))
	assert.Equal(t, "Policy_Robots",
		CategorizeError(fmt.Errorf("outer: %w", fmt.Errorf("inner: %w", ErrRobotsDisallowed))))
}

func TestCategorizeError_ClientHTTPCodes(t *testing.T) {
	tests := []struct {
		code     string
		expected string
	}{
		{"404", "HTTP_404"},
		{"403", "HTTP_403"},
		{"401", "HTTP_401"},
		{"429", "HTTP_429"},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := fmt.Errorf("HTTP status %s : %w", tt.code, ErrClientHTTPError)
			assert.Equal(t, tt.expected, CategorizeError(err))
		})
	}
	assert.Equal(t, "HTTP_4xx", CategorizeError(fmt.Errorf("HTTP status 400: %w", ErrClientHTTPError)))
}

func TestCategorizeError_ParsingErrors(t *testing.T) {
	assert.Equal(t, "Content_ParsingHTML", CategorizeError(fmt.Errorf("%w: HTML body", ErrParsing)))
	assert.Equal(t, "Content_ParsingURL", CategorizeError(fmt.Errorf("%w: bad URL", ErrParsing)))
	assert.Equal(t, "Content_ParsingOther", CategorizeError(ErrParsing))
}

func TestCategorizeError_RetryFailed(t *testing.T) {
	server := fmt.Errorf("%w: %w", ErrRetryFailed, fmt.Errorf("status 503: %w", ErrServerHTTPError))
	assert.Equal(t, "RetryFailed_HTTPServer", CategorizeError(server))

	refused := fmt.Errorf("%w: %w", ErrRetryFailed, errors.New("dial tcp: connection refused"))
	assert.Equal(t, "RetryFailed_ConnectionRefused", CategorizeError(refused))

	assert.Equal(t, "RetryFailed_NetworkOther", CategorizeError(ErrRetryFailed))
}

func TestCategorizeError_Fallbacks(t *testing.T) {
	assert.Equal(t, "System_ContextCanceled", CategorizeError(context.Canceled))
	assert.Equal(t, "System_ContextDeadlineExceeded", CategorizeError(context.DeadlineExceeded))
	assert.Equal(t, "Network_DNSLookup", CategorizeError(errors.New("lookup www.fcf.cat: no such host")))
	assert.Equal(t, "Unknown", CategorizeError(errors.New("something odd")))
}

func TestHashBytes(t *testing.T) {
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", HashBytes(nil))
	assert.Equal(t, HashBytes([]byte("acta")), HashBytes([]byte("acta")))
	assert.NotEqual(t, HashBytes([]byte("acta")), HashBytes([]byte("acta ")))
}
