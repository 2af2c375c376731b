package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// TestContext holds the state of one scenario against a running server.
type TestContext struct {
	BaseURL     string
	AccessToken string

	client     *http.Client
	lastStatus int
	lastBody   map[string]any
}

// NewTestContext targets CARDSCAN_URL, defaulting to a local server.
func NewTestContext() *TestContext {
	base := os.Getenv("CARDSCAN_URL")
	if base == "" {
		base = "http://localhost:8080"
	}
	return &TestContext{
		BaseURL:     strings.TrimRight(base, "/"),
		AccessToken: os.Getenv("CARDSCAN_TOKEN"),
		client:      &http.Client{Timeout: 10 * time.Second},
	}
}

// Reset clears the response state between scenarios.
func (tc *TestContext) Reset() {
	tc.lastStatus = 0
	tc.lastBody = nil
}

func (tc *TestContext) POST(path string, body any) error {
	return tc.do(http.MethodPost, path, body)
}

func (tc *TestContext) GET(path string) error {
	return tc.do(http.MethodGet, path, nil)
}

func (tc *TestContext) DELETE(path string) error {
	return tc.do(http.MethodDelete, path, nil)
}

func (tc *TestContext) do(method, path string, body any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(context.Background(), method, tc.BaseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tc.AccessToken != "" {
		req.Header.Set("Authorization", "Bearer "+tc.AccessToken)
	}

	resp, err := tc.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	tc.lastStatus = resp.StatusCode
	tc.lastBody = nil
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &tc.lastBody); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// GetResponseField returns a top-level field, or a nested one as "a.b".
func (tc *TestContext) GetResponseField(field string) (any, error) {
	var cur any = tc.lastBody
	for _, part := range strings.Split(field, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("field %q not found in response", field)
		}
		if cur, ok = m[part]; !ok {
			return nil, fmt.Errorf("field %q not found in response", field)
		}
	}
	return cur, nil
}

func (tc *TestContext) ResponseStatusShouldBe(status int) error {
	if tc.lastStatus != status {
		return fmt.Errorf("expected status %d, got %d (%v)", status, tc.lastStatus, tc.lastBody)
	}
	return nil
}

func (tc *TestContext) ResponseFieldShouldBe(field, want string) error {
	got, err := tc.GetResponseField(field)
	if err != nil {
		return err
	}
	if fmt.Sprint(got) != want {
		return fmt.Errorf("expected %s=%q, got %q", field, want, fmt.Sprint(got))
	}
	return nil
}
