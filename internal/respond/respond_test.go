package respond

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSON(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	JSON(rec, http.StatusCreated, map[string]string{"hello": "world"})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "world", body["hello"])
}

func TestErrorEnvelope(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	Error(rec, http.StatusConflict, CodeConflict, "Already exists")

	assert.Equal(t, http.StatusConflict, rec.Code)

	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, map[string]string{"code": "Conflict", "message": "Already exists"}, body)
}

func TestServerErrorHidesDetail(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	ServerError(rec)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, CodeServerError, body["code"])
	assert.Equal(t, "Internal server error", body["message"])
}
