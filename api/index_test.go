package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chassi-detect/predict-service/service"
)

func TestHandlerWithoutModel(t *testing.T) {
	t.Setenv("MODEL_PATH", filepath.Join(t.TempDir(), "best.onnx"))
	t.Setenv("POOL_SIZE", "1")
	t.Setenv("DEBUG", "false")

	for _, path := range []string{"/predict", "/health"} {
		rec := httptest.NewRecorder()
		Handler(rec, httptest.NewRequest(http.MethodPost, path, strings.NewReader("x")))

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

		var resp service.ErrorResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, "model_unavailable", resp.Code)
	}
}
