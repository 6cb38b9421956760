package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/avaliaedu/portal/utils/apperror"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func performFromError(t *testing.T, err error) (*http.Response, map[string]interface{}) {
	t.Helper()

	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return FromError(c, err, "fallback message")
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp, testErr := app.Test(req, -1)
	require.NoError(t, testErr)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp, body
}

func TestFromErrorMapsKindsToStatus(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"validation", apperror.Validation("bad input"), http.StatusBadRequest, "VALIDATION_ERROR"},
		{"not found", apperror.NotFound("missing"), http.StatusNotFound, "NOT_FOUND"},
		{"conflict", apperror.Conflict("duplicate"), http.StatusConflict, "CONFLICT"},
		{"locked", apperror.AccountLocked("locked"), http.StatusForbidden, "ACCOUNT_LOCKED"},
		{"engine", apperror.AnalysisEngine("engine down", nil), http.StatusBadGateway, "ANALYSIS_ENGINE_FAILURE"},
		{"transaction", apperror.Transaction("rolled back", nil), http.StatusInternalServerError, "TRANSACTION_FAILURE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := performFromError(t, tt.err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			errDetail := body["error"].(map[string]interface{})
			assert.Equal(t, tt.wantCode, errDetail["code"])
		})
	}
}

func TestFromErrorCooldownCarriesDaysRemaining(t *testing.T) {
	resp, body := performFromError(t, apperror.CooldownActive("wait", 42))
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)

	data := body["data"].(map[string]interface{})
	assert.EqualValues(t, 42, data["days_remaining"])
}

func TestFromErrorHidesUnknownErrors(t *testing.T) {
	resp, body := performFromError(t, errors.New("pq: connection refused"))
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	errDetail := body["error"].(map[string]interface{})
	assert.Equal(t, "fallback message", errDetail["message"])
	assert.NotContains(t, errDetail["message"], "pq:")
}
