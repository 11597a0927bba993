package recommend

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithoutURLIsNoop(t *testing.T) {
	ids, err := New("").Recommend(context.Background(), 1, 5)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestHTTPRecommender(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/recommendations", r.URL.Path)
		assert.Equal(t, "7", r.URL.Query().Get("user_id"))
		w.Write([]byte(`{"book_ids":[4,2,9]}`))
	}))
	defer srv.Close()

	ids, err := New(srv.URL+"/").Recommend(context.Background(), 7, 2)
	require.NoError(t, err)
	assert.Equal(t, []uint{4, 2}, ids)
}

func TestHTTPRecommenderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not trained", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := New(srv.URL).Recommend(context.Background(), 7, 5)
	assert.Error(t, err)
}
