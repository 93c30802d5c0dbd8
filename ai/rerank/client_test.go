package rerank

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/poiesic/lexgraph/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(host string) *Client {
	config := ai.DefaultConfig()
	config.RerankerHost = host
	return NewClient(config)
}

func TestClientAvailable(t *testing.T) {
	assert.False(t, testClient("").Available())
	assert.True(t, testClient("http://localhost:8080").Available())
}

func TestClientRerank(t *testing.T) {
	docs := []ai.RankedDocument{
		{Id: "a", Content: "first document"},
		{Id: "b", Content: "second document"},
		{Id: "c", Content: "third document"},
	}

	t.Run("orders by returned scores", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/rerank", r.URL.Path)

			var req rerankRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "test query", req.Query)
			assert.Len(t, req.Texts, 3)

			json.NewEncoder(w).Encode([]rerankResult{
				{Index: 2, Score: 0.9},
				{Index: 0, Score: 0.4},
				{Index: 1, Score: 0.1},
			})
		}))
		defer server.Close()

		ranked, err := testClient(server.URL).Rerank(context.Background(), "test query", docs, 10)
		require.NoError(t, err)
		require.Len(t, ranked, 3)
		assert.Equal(t, "c", ranked[0].Id)
		assert.Equal(t, 0.9, ranked[0].Score)
		assert.Equal(t, "a", ranked[1].Id)
		assert.Equal(t, "b", ranked[2].Id)
	})

	t.Run("truncates to topK", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode([]rerankResult{
				{Index: 0, Score: 0.8},
				{Index: 1, Score: 0.5},
				{Index: 2, Score: 0.2},
			})
		}))
		defer server.Close()

		ranked, err := testClient(server.URL).Rerank(context.Background(), "q", docs, 2)
		require.NoError(t, err)
		assert.Len(t, ranked, 2)
	})

	t.Run("unavailable without host", func(t *testing.T) {
		_, err := testClient("").Rerank(context.Background(), "q", docs, 2)
		assert.ErrorIs(t, err, ai.ErrRerankerUnavailable)
	})

	t.Run("empty input short-circuits", func(t *testing.T) {
		ranked, err := testClient("http://localhost:1").Rerank(context.Background(), "q", nil, 5)
		require.NoError(t, err)
		assert.Empty(t, ranked)
	})

	t.Run("retries on transient status", func(t *testing.T) {
		calls := 0
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			if calls == 1 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			json.NewEncoder(w).Encode([]rerankResult{{Index: 0, Score: 1.0}})
		}))
		defer server.Close()

		client := testClient(server.URL)
		client.baseDelay = time.Millisecond

		ranked, err := client.Rerank(context.Background(), "q", docs, 1)
		require.NoError(t, err)
		assert.Equal(t, 2, calls)
		require.Len(t, ranked, 1)
		assert.Equal(t, "a", ranked[0].Id)
	})

	t.Run("does not retry client errors", func(t *testing.T) {
		calls := 0
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			w.WriteHeader(http.StatusBadRequest)
		}))
		defer server.Close()

		client := testClient(server.URL)
		client.baseDelay = time.Millisecond

		_, err := client.Rerank(context.Background(), "q", docs, 1)
		require.Error(t, err)
		assert.Equal(t, 1, calls)
	})
}
