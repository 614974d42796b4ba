// Package e2e drives the identity API through its HTTP surface with godog
// feature files. The suite runs against COMPLIANCE_E2E_BASE_URL when set and
// against an in-process stack otherwise.
package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
)

// TestContext carries one scenario's HTTP state.
type TestContext struct {
	BaseURL string
	Client  *http.Client
	// IssueToken returns a fresh operator token.
	IssueToken func() (string, error)

	token        string
	lastStatus   int
	lastBody     []byte
	lastHeaders  http.Header
	lastStatuses []int
}

// Reset clears per-scenario state.
func (tc *TestContext) Reset() {
	tc.token = ""
	tc.lastStatus = 0
	tc.lastBody = nil
	tc.lastHeaders = nil
	tc.lastStatuses = nil
}

func (tc *TestContext) SetToken(token string) { tc.token = token }

func (tc *TestContext) Authenticate() error {
	token, err := tc.IssueToken()
	if err != nil {
		return err
	}
	tc.token = token
	return nil
}

func (tc *TestContext) POST(path string, body any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	return tc.do(http.MethodPost, path, bytes.NewReader(payload))
}

func (tc *TestContext) GET(path string) error {
	return tc.do(http.MethodGet, path, nil)
}

func (tc *TestContext) do(method, path string, body io.Reader) error {
	req, err := http.NewRequest(method, tc.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if tc.token != "" {
		req.Header.Set("Authorization", "Bearer "+tc.token)
	}
	resp, err := tc.Client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	tc.lastBody, err = io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	tc.lastStatus = resp.StatusCode
	tc.lastHeaders = resp.Header
	tc.lastStatuses = append(tc.lastStatuses, resp.StatusCode)
	return nil
}

func (tc *TestContext) LastStatus() int { return tc.lastStatus }

func (tc *TestContext) LastStatuses() []int { return tc.lastStatuses }

func (tc *TestContext) LastHeader(name string) string { return tc.lastHeaders.Get(name) }

// Field resolves a dotted path such as "verifications.0.result.valid" in the
// last JSON response.
func (tc *TestContext) Field(path string) (any, error) {
	var doc any
	if err := json.Unmarshal(tc.lastBody, &doc); err != nil {
		return nil, fmt.Errorf("response is not JSON: %w: %s", err, tc.lastBody)
	}
	cur := doc
	for _, part := range strings.Split(path, ".") {
		switch node := cur.(type) {
		case map[string]any:
			next, ok := node[part]
			if !ok {
				return nil, fmt.Errorf("field %q missing in %s", path, tc.lastBody)
			}
			cur = next
		case []any:
			i, err := strconv.Atoi(part)
			if err != nil || i < 0 || i >= len(node) {
				return nil, fmt.Errorf("index %q out of range in %q", part, path)
			}
			cur = node[i]
		default:
			return nil, fmt.Errorf("cannot descend into %q of %q", part, path)
		}
	}
	return cur, nil
}
