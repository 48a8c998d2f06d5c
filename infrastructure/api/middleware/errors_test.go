package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/embedworks/embedd/application/service"
	"github.com/embedworks/embedd/domain/embedding"
)

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) errorDetail {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Error
}

func TestWriteError_Mapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
	}{
		{
			name:       "decode error",
			err:        NewDecodeError("request body is not valid JSON"),
			wantStatus: http.StatusBadRequest,
			wantType:   ErrorTypeInvalidRequest,
		},
		{
			name:       "empty input",
			err:        service.ErrEmptyInput,
			wantStatus: http.StatusBadRequest,
			wantType:   ErrorTypeInvalidRequest,
		},
		{
			name:       "inference failure",
			err:        service.NewInferenceError(errors.New("tensor shape mismatch")),
			wantStatus: http.StatusBadGateway,
			wantType:   ErrorTypeInference,
		},
		{
			name:       "dimension mismatch",
			err:        &embedding.DimensionError{Got: 1024, Want: 768},
			wantStatus: http.StatusInternalServerError,
			wantType:   ErrorTypeConfiguration,
		},
		{
			name:       "timeout",
			err:        service.NewInferenceError(context.DeadlineExceeded),
			wantStatus: http.StatusGatewayTimeout,
			wantType:   ErrorTypeTimeout,
		},
		{
			name:       "unknown error",
			err:        errors.New("database on fire"),
			wantStatus: http.StatusInternalServerError,
			wantType:   ErrorTypeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/v1/embeddings", nil)
			w := httptest.NewRecorder()

			WriteError(w, req, tt.err, nil)

			require.Equal(t, tt.wantStatus, w.Code)
			require.Equal(t, "application/json", w.Header().Get("Content-Type"))

			detail := decodeEnvelope(t, w)
			require.Equal(t, tt.wantType, detail.Type)
			require.NotEmpty(t, detail.Message)
		})
	}
}

func TestWriteError_NeverLeaksInternalDetail(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/v1/embeddings", nil)
	w := httptest.NewRecorder()

	WriteError(w, req, errors.New("pq: connection refused at 10.0.0.3:5432"), nil)

	require.NotContains(t, w.Body.String(), "10.0.0.3")
	detail := decodeEnvelope(t, w)
	require.Equal(t, "internal server error", detail.Message)
}

func TestWriteJSON(t *testing.T) {
	w := httptest.NewRecorder()
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})

	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}
