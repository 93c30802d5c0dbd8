// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package rerank

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/poiesic/lexgraph/ai"
)

// Client talks to a text-embeddings-inference style /rerank endpoint
// (cross-encoder models such as bge-reranker). An empty host means no
// reranker is deployed and Available reports false.
type Client struct {
	host        string
	httpClient  *http.Client
	maxAttempts int
	baseDelay   time.Duration
	logger      *slog.Logger
}

// NewClient creates a reranker client from the shared AI configuration.
func NewClient(config *ai.Config) *Client {
	return &Client{
		host:        config.RerankerHost,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		maxAttempts: config.MaxAttempts,
		baseDelay:   config.RetryBaseDelay,
		logger:      slog.Default().With("component", "reranker"),
	}
}

// Available reports whether a reranking endpoint is configured.
func (c *Client) Available() bool {
	return c.host != ""
}

type rerankRequest struct {
	Query string   `json:"query"`
	Texts []string `json:"texts"`
	TopN  int      `json:"top_n,omitempty"`
}

type rerankResult struct {
	Index int     `json:"index"`
	Score float64 `json:"score"`
}

// Rerank scores docs against query with the cross-encoder and returns up to
// topK documents ordered by relevance. The ids and contents of the returned
// documents come from the input; only Score and ordering change.
func (c *Client) Rerank(ctx context.Context, query string, docs []ai.RankedDocument, topK int) ([]ai.RankedDocument, error) {
	if !c.Available() {
		return nil, ai.ErrRerankerUnavailable
	}
	if len(docs) == 0 {
		return []ai.RankedDocument{}, nil
	}

	texts := make([]string, len(docs))
	for i, doc := range docs {
		texts[i] = doc.Content
	}

	payload, err := json.Marshal(rerankRequest{Query: query, Texts: texts, TopN: topK})
	if err != nil {
		return nil, fmt.Errorf("failed to encode rerank request: %w", err)
	}

	var results []rerankResult
	err = ai.RetryWithBackoff(ctx, func() error {
		req, reqErr := http.NewRequestWithContext(ctx, http.MethodPost, c.host+"/rerank", bytes.NewReader(payload))
		if reqErr != nil {
			return reqErr
		}
		req.Header.Set("Content-Type", "application/json")

		resp, reqErr := c.httpClient.Do(req)
		if reqErr != nil {
			return ai.MarkTransient(reqErr)
		}
		defer resp.Body.Close()

		body, reqErr := io.ReadAll(resp.Body)
		if reqErr != nil {
			return ai.MarkTransient(reqErr)
		}
		if resp.StatusCode != http.StatusOK {
			statusErr := fmt.Errorf("rerank endpoint returned status %d: %s", resp.StatusCode, body)
			if ai.TransientStatus(resp.StatusCode) {
				return ai.MarkTransient(statusErr)
			}
			return statusErr
		}

		results = results[:0]
		return json.Unmarshal(body, &results)
	}, c.maxAttempts, c.baseDelay)
	if err != nil {
		c.logger.Error("rerank request failed", "docs", len(docs), "err", err)
		return nil, err
	}

	ranked := make([]ai.RankedDocument, 0, len(results))
	for _, result := range results {
		if result.Index < 0 || result.Index >= len(docs) {
			c.logger.Warn("rerank result index out of range", "index", result.Index)
			continue
		}
		doc := docs[result.Index]
		doc.Score = result.Score
		ranked = append(ranked, doc)
	}
	if topK > 0 && len(ranked) > topK {
		ranked = ranked[:topK]
	}
	return ranked, nil
}
