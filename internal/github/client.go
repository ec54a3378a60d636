// Package github is a minimal client for the GitHub REST API covering the
// contents and commits endpoints the entry repository needs.
package github

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultBaseURL is the public GitHub API endpoint.
const DefaultBaseURL = "https://api.github.com"

// ErrFileNotFound is returned when the requested path does not exist in the
// repository (or the token cannot see it; GitHub reports both as 404).
var ErrFileNotFound = errors.New("github: file not found")

// Client calls the GitHub REST API for a single token.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
}

// Options configures a Client.
type Options struct {
	// BaseURL overrides the API endpoint, e.g. for GitHub Enterprise.
	// Defaults to DefaultBaseURL.
	BaseURL string
	// Token is sent as a bearer token. Requests are anonymous when empty.
	Token string
	// HTTPClient is used for all requests. A default client with a
	// 30 second timeout is used when nil.
	HTTPClient *http.Client
}

// NewClient builds a GitHub API client.
func NewClient(opts Options) *Client {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   opts.Token,
		client:  client,
	}
}

// File is a repository file from the contents API. Content is base64 encoded.
type File struct {
	Name    string `json:"name"`
	Path    string `json:"path"`
	SHA     string `json:"sha"`
	Content string `json:"content"`
	HTMLURL string `json:"html_url"`
}

// Decode returns the decoded file content. The contents API wraps the base64
// payload in newlines, which the decoder must ignore.
func (f *File) Decode() (string, error) {
	compact := strings.ReplaceAll(f.Content, "\n", "")
	data, err := base64.StdEncoding.DecodeString(compact)
	if err != nil {
		return "", fmt.Errorf("decode content of %s: %w", f.Path, err)
	}
	return string(data), nil
}

// Commit is one element of the commits API response.
type Commit struct {
	SHA    string       `json:"sha"`
	Commit CommitDetail `json:"commit"`
}

// CommitDetail carries the authoring metadata of a commit.
type CommitDetail struct {
	Message string       `json:"message"`
	Author  CommitAuthor `json:"author"`
}

// CommitAuthor is the author or committer identity of a commit.
type CommitAuthor struct {
	Name  string     `json:"name"`
	Email string     `json:"email,omitempty"`
	Date  *time.Time `json:"date,omitempty"`
}

// CommitResponse is returned by the mutating contents endpoints.
type CommitResponse struct {
	Content *File `json:"content"`
	Commit  struct {
		SHA string `json:"sha"`
	} `json:"commit"`
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) (int, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 && out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode response: %w", err)
		}
	}
	return resp.StatusCode, nil
}

func contentsPath(owner, repo, path string) string {
	escaped := make([]string, 0, 4)
	for _, part := range strings.Split(path, "/") {
		escaped = append(escaped, url.PathEscape(part))
	}
	return fmt.Sprintf("/repos/%s/%s/contents/%s",
		url.PathEscape(owner), url.PathEscape(repo), strings.Join(escaped, "/"))
}

// GetFile fetches one file from the repository. A 4xx status resolves to
// ErrFileNotFound; any other failure is an error the caller should not
// swallow.
func (c *Client) GetFile(ctx context.Context, owner, repo, path string) (*File, error) {
	var file File
	status, err := c.do(ctx, http.MethodGet, contentsPath(owner, repo, path), nil, &file)
	if err != nil {
		return nil, err
	}
	switch {
	case status >= 200 && status < 300:
		return &file, nil
	case status >= 400 && status < 500:
		return nil, ErrFileNotFound
	default:
		return nil, fmt.Errorf("github: get %s/%s/%s failed with status %d", owner, repo, path, status)
	}
}

// ListCommits returns the commit history touching path, newest first as the
// API orders it.
func (c *Client) ListCommits(ctx context.Context, owner, repo, path string) ([]Commit, error) {
	apiPath := fmt.Sprintf("/repos/%s/%s/commits?path=%s",
		url.PathEscape(owner), url.PathEscape(repo), url.QueryEscape(path))
	var commits []Commit
	status, err := c.do(ctx, http.MethodGet, apiPath, nil, &commits)
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		return nil, fmt.Errorf("github: list commits for %s/%s/%s failed with status %d", owner, repo, path, status)
	}
	return commits, nil
}

type contentsRequest struct {
	Message   string        `json:"message"`
	Content   string        `json:"content,omitempty"`
	SHA       string        `json:"sha,omitempty"`
	Committer *CommitAuthor `json:"committer,omitempty"`
}

// CreateFile adds a new file to the repository.
func (c *Client) CreateFile(ctx context.Context, owner, repo, path, message, content string, committer *CommitAuthor) (*CommitResponse, error) {
	return c.putContents(ctx, owner, repo, path, contentsRequest{
		Message:   message,
		Content:   base64.StdEncoding.EncodeToString([]byte(content)),
		Committer: committer,
	})
}

// UpdateFile replaces an existing file. The sha of the current blob is
// required; GitHub rejects stale writes with a 409.
func (c *Client) UpdateFile(ctx context.Context, owner, repo, path, message, content, sha string, committer *CommitAuthor) (*CommitResponse, error) {
	return c.putContents(ctx, owner, repo, path, contentsRequest{
		Message:   message,
		Content:   base64.StdEncoding.EncodeToString([]byte(content)),
		SHA:       sha,
		Committer: committer,
	})
}

func (c *Client) putContents(ctx context.Context, owner, repo, path string, req contentsRequest) (*CommitResponse, error) {
	var resp CommitResponse
	status, err := c.do(ctx, http.MethodPut, contentsPath(owner, repo, path), req, &resp)
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		return nil, fmt.Errorf("github: write %s/%s/%s failed with status %d", owner, repo, path, status)
	}
	return &resp, nil
}

// DeleteFile removes a file from the repository.
func (c *Client) DeleteFile(ctx context.Context, owner, repo, path, message, sha string, committer *CommitAuthor) error {
	req := contentsRequest{Message: message, SHA: sha, Committer: committer}
	status, err := c.do(ctx, http.MethodDelete, contentsPath(owner, repo, path), req, nil)
	if err != nil {
		return err
	}
	if status < 200 || status >= 300 {
		return fmt.Errorf("github: delete %s/%s/%s failed with status %d", owner, repo, path, status)
	}
	return nil
}
