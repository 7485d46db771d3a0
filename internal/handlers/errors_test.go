package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/agamariel/mastercrm/internal/services"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestErrorHandler(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantBody string
	}{
		{
			name:     "http error",
			err:      echo.NewHTTPError(http.StatusNotFound, "order not found"),
			wantCode: http.StatusNotFound,
			wantBody: `{"error":"order not found"}`,
		},
		{
			name:     "plain error hidden",
			err:      errors.New("pq: connection refused"),
			wantCode: http.StatusInternalServerError,
			wantBody: `{"error":"internal server error"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEcho()
			req := httptest.NewRequest(http.MethodGet, "/api/orders/1", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			ErrorHandler(zap.NewNop())(tt.err, c)

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.JSONEq(t, tt.wantBody, rec.Body.String())
		})
	}
}

func TestValidationMessage(t *testing.T) {
	type payload struct {
		Phone  string `validate:"ru_phone"`
		Status int64  `validate:"required"`
	}

	e := newTestEcho()

	err := e.Validator.Validate(&payload{Phone: "8999", Status: 1})
	assert.Equal(t, services.ErrInvalidPhone.Error(), validationMessage(err))

	err = e.Validator.Validate(&payload{Phone: "+79991234567"})
	assert.Equal(t, "status: failed on required", validationMessage(err))
}
