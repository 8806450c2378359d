// Package github appends rows to the CSV tables in the data repository via
// the GitHub contents API, using the file blob SHA for optimistic
// concurrency.
package github

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// ErrConflict means the file changed between read and write; the caller
// should retry the whole append.
var ErrConflict = errors.New("file changed upstream")

// ErrUnauthorized means GitHub rejected the token.
var ErrUnauthorized = errors.New("token rejected")

// Client is a minimal GitHub contents API client scoped to one repository
// branch.
type Client struct {
	httpClient *http.Client
	baseURL    string
	owner      string
	repo       string
	branch     string
	logger     *slog.Logger
}

// NewClient creates a contents API client. baseURL "" means the public API.
func NewClient(baseURL, owner, repo, branch string, timeout time.Duration, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = "https://api.github.com"
	}
	if branch == "" {
		branch = "main"
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		owner:      owner,
		repo:       repo,
		branch:     branch,
		logger:     logger,
	}
}

// ValidateToken checks the token against the authenticated-user endpoint
// before any write is attempted.
func (c *Client) ValidateToken(ctx context.Context, token string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/user", nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	c.setAuth(req, token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("validate token: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		return nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return ErrUnauthorized
	default:
		return fmt.Errorf("validate token: status %d", resp.StatusCode)
	}
}

// fileState is a decoded contents API response for one file.
type fileState struct {
	text string
	sha  string
}

func (c *Client) contentsURL(path string) string {
	return fmt.Sprintf("%s/repos/%s/%s/contents/%s", c.baseURL, c.owner, c.repo, path)
}

// getFile fetches the current text and blob SHA of path on the branch.
func (c *Client) getFile(ctx context.Context, token, path string) (fileState, error) {
	u := c.contentsURL(path) + "?ref=" + c.branch
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fileState{}, fmt.Errorf("create request: %w", err)
	}
	c.setAuth(req, token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fileState{}, fmt.Errorf("get %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return fileState{}, ErrUnauthorized
	}
	if resp.StatusCode != http.StatusOK {
		return fileState{}, fmt.Errorf("get %s: status %d", path, resp.StatusCode)
	}

	var body struct {
		Content string `json:"content"`
		SHA     string `json:"sha"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fileState{}, fmt.Errorf("decode %s: %w", path, err)
	}

	// The API wraps base64 content in newlines.
	raw, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(body.Content, "\n", ""))
	if err != nil {
		return fileState{}, fmt.Errorf("decode %s content: %w", path, err)
	}
	return fileState{text: string(raw), sha: body.SHA}, nil
}

// putFile writes the full new text of path, asserting the previous blob SHA.
// A mismatch surfaces as ErrConflict.
func (c *Client) putFile(ctx context.Context, token, path, message, text, sha string) error {
	payload := map[string]string{
		"message": message,
		"content": base64.StdEncoding.EncodeToString([]byte(text)),
		"sha":     sha,
		"branch":  c.branch,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.contentsURL(path), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	c.setAuth(req, token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("put %s: %w", path, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
		return nil
	case http.StatusConflict, http.StatusUnprocessableEntity:
		// 409 is the documented SHA-mismatch answer; 422 shows up for the
		// same race on some repositories.
		return ErrConflict
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrUnauthorized
	default:
		return fmt.Errorf("put %s: status %d", path, resp.StatusCode)
	}
}

// AppendRow reads path, appends one encoded CSV line, and writes it back
// under the SHA read. The existing text is preserved byte for byte apart
// from a guaranteed trailing newline before the new row.
func (c *Client) AppendRow(ctx context.Context, token, path, message, encodedRow string) error {
	state, err := c.getFile(ctx, token, path)
	if err != nil {
		return err
	}

	text := state.text
	if text != "" && !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	text += encodedRow + "\n"

	if err := c.putFile(ctx, token, path, message, text, state.sha); err != nil {
		return err
	}
	c.logger.Info("row appended", "path", path, "branch", c.branch)
	return nil
}

func (c *Client) setAuth(req *http.Request, token string) {
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/vnd.github+json")
}
