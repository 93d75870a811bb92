// Package llm talks to local LLM servers (Ollama and LM Studio) over HTTP.
//
// Each backend implements ports.Backend: it lists its models for discovery and
// issues one synchronous chat completion per call. Connection failures become
// *domain.LLMUnavailableError and unexpected statuses or bodies become
// *domain.LLMProtocolError. Nothing here retries.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/doeshing/promptcraft/internal/domain"
	"github.com/doeshing/promptcraft/internal/version"
)

const (
	contentTypeJSON = "application/json"
	// maxErrorBody bounds how much of a failed response is kept for diagnosis.
	maxErrorBody = 64 << 10
)

var errMalformedJSON = errors.New("response is not valid JSON")

func missingField(path string) error {
	return fmt.Errorf("response has no string field %q", path)
}

// httpTransport is shared by every backend client.
type httpTransport struct {
	// generation has no client timeout; callers bound it with a context deadline.
	generation *http.Client
	discovery  *http.Client
}

func newHTTPTransport(discoveryTimeout time.Duration) httpTransport {
	if discoveryTimeout <= 0 {
		discoveryTimeout = domain.DefaultDiscoveryTimeout
	}
	return httpTransport{
		generation: &http.Client{},
		discovery:  &http.Client{Timeout: discoveryTimeout},
	}
}

// postJSON sends payload and returns the body of a 2xx response.
func postJSON(ctx context.Context, client *http.Client, service domain.Service, url string, payload interface{}) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("create HTTP request: %w", err)
	}
	httpReq.Header.Set("Content-Type", contentTypeJSON)
	return do(client, service, httpReq)
}

// getJSON fetches url and returns the body of a 2xx response.
func getJSON(ctx context.Context, client *http.Client, service domain.Service, url string) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create HTTP request: %w", err)
	}
	return do(client, service, httpReq)
}

func do(client *http.Client, service domain.Service, httpReq *http.Request) ([]byte, error) {
	httpReq.Header.Set("Accept", contentTypeJSON)
	httpReq.Header.Set("User-Agent", version.UserAgent())

	url := httpReq.URL.String()
	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, &domain.LLMUnavailableError{Service: service, URL: url, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.LLMUnavailableError{Service: service, URL: url, Err: fmt.Errorf("read response body: %w", err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &domain.LLMProtocolError{
			Service:    service,
			URL:        url,
			StatusCode: resp.StatusCode,
			Body:       truncate(body),
			Err:        fmt.Errorf("unexpected status %s", resp.Status),
		}
	}
	return body, nil
}

func truncate(body []byte) string {
	if len(body) > maxErrorBody {
		return string(body[:maxErrorBody]) + "..."
	}
	return string(body)
}

// asDiscoveryError rewraps a listing failure for logging.
func asDiscoveryError(service domain.Service, url string, err error) error {
	if err == nil {
		return nil
	}
	return &domain.DiscoveryError{Service: service, URL: url, Err: err}
}
