// Package recommend talks to the external matrix-factorization recommender.
package recommend

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DefaultCount is how many books the shop asks for.
const DefaultCount = 5

type Recommender interface {
	// Recommend returns book ids ordered best first.
	Recommend(ctx context.Context, userID uint, n int) ([]uint, error)
}

// New returns an HTTP client for baseURL, or Noop when it is empty.
func New(baseURL string) Recommender {
	if strings.TrimSpace(baseURL) == "" {
		return Noop{}
	}
	return &HTTPRecommender{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 3 * time.Second},
	}
}

type Noop struct{}

func (Noop) Recommend(context.Context, uint, int) ([]uint, error) { return nil, nil }

type HTTPRecommender struct {
	baseURL string
	client  *http.Client
}

type recommendResponse struct {
	BookIDs []uint `json:"book_ids"`
}

func (r *HTTPRecommender) Recommend(ctx context.Context, userID uint, n int) ([]uint, error) {
	q := url.Values{}
	q.Set("user_id", strconv.FormatUint(uint64(userID), 10))
	q.Set("n", strconv.Itoa(n))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"/recommendations?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach recommender: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("recommender error (%d): %s", resp.StatusCode, string(body))
	}

	var out recommendResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to parse recommender response: %w", err)
	}
	if len(out.BookIDs) > n {
		out.BookIDs = out.BookIDs[:n]
	}
	return out.BookIDs, nil
}
