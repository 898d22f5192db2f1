package http

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/invoicing-api/internal/domain"
)

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
		code string
	}{
		{fmt.Errorf("%w: number es obligatorio", domain.ErrInvalidInput), 400, "VALIDATION"},
		{domain.ErrNotFound, 404, "NOT_FOUND"},
		{fmt.Errorf("get: %w", domain.ErrUserNotFound), 401, "UNAUTHORIZED"},
		{domain.ErrUnauthorized, 401, "UNAUTHORIZED"},
		{domain.ErrNoTenantContext, 401, "UNAUTHORIZED"},
		{domain.ErrUnprocessableDocument, 422, "UNPROCESSABLE_DOCUMENT"},
		{fmt.Errorf("%w: groq: HTTP 500", domain.ErrUpstream), 502, "UPSTREAM"},
		{domain.ErrProviderNotConfigured, 503, "PROVIDER_UNAVAILABLE"},
		{fmt.Errorf("%w: %w", domain.ErrUpstream, context.DeadlineExceeded), 408, "TIMEOUT"},
		{domain.ErrEmailAlreadyExists, 409, "EMAIL_EXISTS"},
		{domain.ErrSubdomainTaken, 409, "SUBDOMAIN_TAKEN"},
		{domain.ErrConflict, 409, "CONFLICT"},
		{errors.New("conexión rechazada"), 500, "INTERNAL"},
	}
	for _, tt := range tests {
		status, code, msg := errorStatus(tt.err)
		assert.Equal(t, tt.want, status, tt.err.Error())
		assert.Equal(t, tt.code, code)
		assert.NotEmpty(t, msg)
	}

	_, _, msg := errorStatus(errors.New("dsn=postgres://user:secreto@db"))
	assert.NotContains(t, msg, "secreto", "los errores internos no se exponen")
}
