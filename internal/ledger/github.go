// =============================================================================
// WeChat Order Ledger - GitHub File Store
// =============================================================================
//
// FileStore implementation backed by the GitHub contents API. File content
// travels base64-encoded; the blob SHA doubles as the revision token.
//
// PATH FALLBACK:
//   Ledger files have historically been committed both under the directory
//   prefix ("to csv/5月.csv") and at the repository root ("5月.csv"). Get
//   therefore tries, in order: the path as given, the bare file name, and
//   the file name under the configured prefix. Commit re-resolves the same
//   way when updating, so an append lands on the file that was actually
//   read.
//
// =============================================================================

package ledger

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
	"path"
	"strings"
	"time"

	"orderledger/internal/config"
	"orderledger/internal/types"
)

// GitHubStore talks to the GitHub contents API for a single repository.
type GitHubStore struct {
	httpClient *http.Client
	baseURL    string
	repo       string
	token      string
	dir        string
}

var _ FileStore = (*GitHubStore)(nil)

// NewGitHubStore builds a store from configuration. dir is the ledger
// directory prefix used in path fallback.
func NewGitHubStore(cfg config.GitHubConfig, dir string) (*GitHubStore, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("github: missing access token (set %s)", cfg.TokenEnv)
	}
	if cfg.Repo == "" {
		return nil, fmt.Errorf("github: missing repository (owner/name)")
	}

	return &GitHubStore{
		httpClient: &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		repo:       cfg.Repo,
		token:      cfg.Token,
		dir:        dir,
	}, nil
}

// contentsResponse is the object shape of GET /contents for a file.
type contentsResponse struct {
	Content string `json:"content"`
	SHA     string `json:"sha"`
	Type    string `json:"type"`
}

// commitResponse is the shape of PUT /contents.
type commitResponse struct {
	Commit struct {
		SHA     string `json:"sha"`
		HTMLURL string `json:"html_url"`
		Author  struct {
			Name string `json:"name"`
			Date string `json:"date"`
		} `json:"author"`
	} `json:"commit"`
}

// Get fetches a ledger file, trying the fallback paths in order. It
// returns ErrNotFound only when every candidate path came back 404; any
// transport or auth failure is returned as-is so the caller can tell "no
// file yet" apart from "could not ask".
func (s *GitHubStore) Get(ctx context.Context, filePath string) (string, string, error) {
	_, content, sha, err := s.resolve(ctx, filePath)
	if err != nil {
		return "", "", err
	}
	return content, sha, nil
}

// Commit writes content to the ledger file. With a revision it updates the
// file the fallback resolution points at; without one it creates the file
// at the given path.
func (s *GitHubStore) Commit(ctx context.Context, filePath, content, revision string) (types.CommitInfo, error) {
	target := filePath
	if revision != "" {
		resolved, _, _, err := s.resolve(ctx, filePath)
		if err == nil {
			target = resolved
		}
	}

	payload := map[string]string{
		"message": fmt.Sprintf("Add records to %s", target),
		"content": base64.StdEncoding.EncodeToString([]byte(content)),
	}
	if revision != "" {
		payload["sha"] = revision
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return types.CommitInfo{}, fmt.Errorf("github: failed to encode commit: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, s.contentsURL(target), bytes.NewReader(body))
	if err != nil {
		return types.CommitInfo{}, fmt.Errorf("github: failed to create request: %w", err)
	}
	s.setHeaders(req)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return types.CommitInfo{}, fmt.Errorf("github: commit request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return types.CommitInfo{}, fmt.Errorf("github: failed to read commit response: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
		// Fall through to decoding.
	case http.StatusConflict, http.StatusUnprocessableEntity:
		// Stale revision token: the file moved under us. Retryable.
		return types.CommitInfo{}, fmt.Errorf("%w: %s", ErrRevisionConflict, strings.TrimSpace(string(respBody)))
	default:
		return types.CommitInfo{}, fmt.Errorf("github: commit returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var commit commitResponse
	if err := json.Unmarshal(respBody, &commit); err != nil {
		return types.CommitInfo{}, fmt.Errorf("github: failed to decode commit response: %w", err)
	}

	info := types.CommitInfo{
		SHA:     commit.Commit.SHA,
		Message: payload["message"],
		Author:  commit.Commit.Author.Name,
		URL:     commit.Commit.HTMLURL,
	}
	if t, err := time.Parse(time.RFC3339, commit.Commit.Author.Date); err == nil {
		info.Date = t
	}
	return info, nil
}

// resolve tries the fallback paths in order and returns the first hit.
func (s *GitHubStore) resolve(ctx context.Context, filePath string) (resolved, content, sha string, err error) {
	name := path.Base(filePath)
	candidates := []string{filePath, name, s.dir + "/" + name}

	tried := make(map[string]bool)
	for _, candidate := range candidates {
		if tried[candidate] {
			continue
		}
		tried[candidate] = true

		content, sha, err = s.fetch(ctx, candidate)
		if err == nil {
			return candidate, content, sha, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return "", "", "", err
		}
	}

	return "", "", "", ErrNotFound
}

// fetch retrieves a single path, decoding the base64 payload.
func (s *GitHubStore) fetch(ctx context.Context, filePath string) (string, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.contentsURL(filePath), nil)
	if err != nil {
		return "", "", fmt.Errorf("github: failed to create request: %w", err)
	}
	s.setHeaders(req)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("github: fetch request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", "", fmt.Errorf("github: failed to read fetch response: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		// Fall through to decoding.
	case http.StatusNotFound:
		return "", "", ErrNotFound
	default:
		return "", "", fmt.Errorf("github: fetch returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var file contentsResponse
	if err := json.Unmarshal(body, &file); err != nil {
		return "", "", fmt.Errorf("github: failed to decode fetch response: %w", err)
	}
	if file.Type != "" && file.Type != "file" {
		return "", "", fmt.Errorf("github: %s is a %s, not a file", filePath, file.Type)
	}

	decoded, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(file.Content, "\n", ""))
	if err != nil {
		return "", "", fmt.Errorf("github: failed to decode file content: %w", err)
	}

	return string(decoded), file.SHA, nil
}

// contentsURL builds the contents-API URL with each path segment escaped;
// ledger paths contain spaces and non-ASCII month names.
func (s *GitHubStore) contentsURL(filePath string) string {
	segments := strings.Split(filePath, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return fmt.Sprintf("%s/repos/%s/contents/%s", s.baseURL, s.repo, strings.Join(segments, "/"))
}

func (s *GitHubStore) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
}
