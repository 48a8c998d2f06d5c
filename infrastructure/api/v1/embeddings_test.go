package v1

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/embedworks/embedd/application/service"
	"github.com/embedworks/embedd/domain/embedding"
	"github.com/embedworks/embedd/infrastructure/api/v1/dto"
	"github.com/embedworks/embedd/infrastructure/provider"
)

// countingEmbedder returns short non-zero vectors and counts calls so
// tests can assert the provider was never reached.
type countingEmbedder struct {
	calls atomic.Int64
	err   error
}

func (c *countingEmbedder) Embed(ctx context.Context, req provider.EmbeddingRequest) (provider.EmbeddingResponse, error) {
	c.calls.Add(1)
	if c.err != nil {
		return provider.EmbeddingResponse{}, c.err
	}
	out := make([][]float64, len(req.Texts()))
	for i := range out {
		out[i] = []float64{0.25, -0.5}
	}
	return provider.NewEmbeddingResponse(out, provider.NewUsage(0, 0, 0)), nil
}

func (c *countingEmbedder) Close() error { return nil }

func newTestRouter(t *testing.T, emb provider.Embedder, dim int) http.Handler {
	t.Helper()
	normalizer, err := embedding.NewNormalizer(dim, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	svc, err := service.NewEmbeddings(emb, normalizer)
	require.NoError(t, err)
	return NewEmbeddingsRouter(svc, nil).Routes()
}

func postEmbeddings(t *testing.T, handler http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func TestEmbeddings_EndToEnd(t *testing.T) {
	emb := &countingEmbedder{}
	handler := newTestRouter(t, emb, 768)

	w := postEmbeddings(t, handler, `{"model":"nomic-text-embed","input":["The food was delicious and the waiter..."]}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp dto.EmbeddingsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, "list", resp.Object)
	require.Equal(t, "nomic-text-embed", resp.Model)
	require.Len(t, resp.Data, 1)
	require.Len(t, resp.Data[0].Embedding, 768)
	require.Equal(t, 0, resp.Data[0].Index)
	require.Zero(t, resp.Usage.TotalTokens)
}

func TestEmbeddings_BatchIndexesMatchPositions(t *testing.T) {
	emb := &countingEmbedder{}
	handler := newTestRouter(t, emb, 16)

	w := postEmbeddings(t, handler, `{"model":"m","input":["a","b","c","d","e"]}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp dto.EmbeddingsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 5)
	for i, entry := range resp.Data {
		require.Equal(t, i, entry.Index)
		require.Len(t, entry.Embedding, 16)
	}
	require.Equal(t, int64(1), emb.calls.Load())
}

func TestEmbeddings_SingleStringInput(t *testing.T) {
	emb := &countingEmbedder{}
	handler := newTestRouter(t, emb, 8)

	w := postEmbeddings(t, handler, `{"model":"m","input":"just one"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp dto.EmbeddingsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
}

func TestEmbeddings_MalformedJSONNeverReachesProvider(t *testing.T) {
	emb := &countingEmbedder{}
	handler := newTestRouter(t, emb, 8)

	w := postEmbeddings(t, handler, `{"model": "m", "input": [`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, int64(0), emb.calls.Load(), "provider must not be invoked")

	var body struct {
		Error struct {
			Type string `json:"type"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, "invalid_request_error", body.Error.Type)
}

func TestEmbeddings_EmptyInputNeverReachesProvider(t *testing.T) {
	emb := &countingEmbedder{}
	handler := newTestRouter(t, emb, 8)

	w := postEmbeddings(t, handler, `{"model":"m","input":[]}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, int64(0), emb.calls.Load())
}

func TestEmbeddings_WrongInputTypeIsRejected(t *testing.T) {
	emb := &countingEmbedder{}
	handler := newTestRouter(t, emb, 8)

	w := postEmbeddings(t, handler, `{"model":"m","input":12345}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, int64(0), emb.calls.Load())
}

func TestEmbeddings_InferenceFailureIs502(t *testing.T) {
	emb := &countingEmbedder{err: errors.New("onnx runtime exploded")}
	handler := newTestRouter(t, emb, 8)

	w := postEmbeddings(t, handler, `{"model":"m","input":["hello"]}`)
	require.Equal(t, http.StatusBadGateway, w.Code)
	require.NotContains(t, w.Body.String(), "onnx", "internal detail must not leak")
}

func TestEmbeddings_ModelEchoedVerbatim(t *testing.T) {
	emb := &countingEmbedder{}
	handler := newTestRouter(t, emb, 8)

	w := postEmbeddings(t, handler, `{"model":"totally-made-up-model","input":["x"]}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp dto.EmbeddingsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, "totally-made-up-model", resp.Model)
}

func TestModels_ListsConfiguredModel(t *testing.T) {
	handler := NewModelsRouter("nomic-text-embed").Routes()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp dto.ModelsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, "list", resp.Object)
	require.Len(t, resp.Data, 1)
	require.Equal(t, "nomic-text-embed", resp.Data[0].ID)
}
