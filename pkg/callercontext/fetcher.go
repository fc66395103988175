// Package callercontext fetches an optional JSON context blob about the
// person on the call, to be folded into the agent's system prompt. Fetching
// is best-effort; the call proceeds without context on any failure.
package callercontext

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// maxBodyBytes caps how much context a remote endpoint can inject.
const maxBodyBytes = 64 * 1024

type Fetcher struct {
	client *http.Client
}

func New(timeout time.Duration) *Fetcher {
	return &Fetcher{client: &http.Client{Timeout: timeout}}
}

// Fetch GETs the context URL with the given headers and returns the JSON
// body. Non-200 responses and non-JSON bodies are errors.
func (f *Fetcher) Fetch(ctx context.Context, url string, headers map[string]string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("context request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("context fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("context fetch: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("context read: %w", err)
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("context fetch: body is not JSON")
	}
	return json.RawMessage(body), nil
}
