package response

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "github.com/inkwellarchive/inkwell-server/internal/errors"
)

func TestSuccess(t *testing.T) {
	rec := httptest.NewRecorder()
	Success(rec, map[string]string{"status": "ok"}, nil)

	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
	assert.Contains(t, rec.Body.String(), `"success":true`)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestError(t *testing.T) {
	rec := httptest.NewRecorder()
	TooManyRequests(rec, "slow down", nil)

	assert.Equal(t, 429, rec.Code)
	assert.Contains(t, rec.Body.String(), `"success":false`)
	assert.Contains(t, rec.Body.String(), "slow down")
}

func TestHandleError_CodedError(t *testing.T) {
	rec := httptest.NewRecorder()
	HandleError(rec, apperrors.NotFound("work not found"), nil)
	assert.Equal(t, 404, rec.Code)

	rec = httptest.NewRecorder()
	HandleError(rec, apperrors.Validation("bad range"), nil)
	assert.Equal(t, 400, rec.Code)
}

func TestHandleError_UnknownError(t *testing.T) {
	rec := httptest.NewRecorder()
	HandleError(rec, assert.AnError, nil)
	assert.Equal(t, 500, rec.Code)
}
