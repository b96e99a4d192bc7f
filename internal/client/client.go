// Package client is the HTTP implementation of the remote hierarchy service.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"vfs/internal/domain/models"
	"vfs/internal/domain/services"
)

// RequestIDHeader carries the id used to correlate client and server logs.
const RequestIDHeader = "X-Request-ID"

// Client talks to the directory/file REST API. It never retries; every
// failure is returned to the caller once.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger

	mu        sync.RWMutex
	authToken string
}

// Config holds client configuration.
type Config struct {
	BaseURL   string
	Timeout   time.Duration
	AuthToken string
	Logger    *slog.Logger
}

var _ services.HierarchyAPI = (*Client)(nil)

// New creates a new client.
func New(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   10 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConns:        100,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
		logger:    cfg.Logger,
		authToken: cfg.AuthToken,
	}
}

// SetAuthToken sets the bearer token for requests.
func (c *Client) SetAuthToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.authToken = token
}

func (c *Client) applyAuth(req *http.Request) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}
}

// Ping checks that the service is reachable.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil, http.StatusOK)
}

// ListDirectories fetches the full directory collection.
func (c *Client) ListDirectories(ctx context.Context) ([]models.Directory, error) {
	var dirs []models.Directory
	if err := c.do(ctx, http.MethodGet, "/api/directories", nil, &dirs, http.StatusOK); err != nil {
		return nil, err
	}
	return dirs, nil
}

// ListFiles fetches the files owned by one directory.
func (c *Client) ListFiles(ctx context.Context, directoryID int64) ([]models.File, error) {
	q := url.Values{"directoryId": {strconv.FormatInt(directoryID, 10)}}
	var files []models.File
	if err := c.do(ctx, http.MethodGet, "/api/files?"+q.Encode(), nil, &files, http.StatusOK); err != nil {
		return nil, err
	}
	return files, nil
}

// CreateDirectory creates a directory and returns the persisted record.
func (c *Client) CreateDirectory(ctx context.Context, in models.DirectoryInput) (*models.Directory, error) {
	var dir models.Directory
	if err := c.do(ctx, http.MethodPost, "/api/directories", in, &dir, http.StatusCreated); err != nil {
		return nil, err
	}
	return &dir, nil
}

// UpdateDirectory renames and/or re-parents a directory.
func (c *Client) UpdateDirectory(ctx context.Context, id int64, in models.DirectoryInput) (*models.Directory, error) {
	var dir models.Directory
	if err := c.do(ctx, http.MethodPut, directoryPath(id), in, &dir, http.StatusOK); err != nil {
		return nil, err
	}
	return &dir, nil
}

// DeleteDirectory deletes a directory.
func (c *Client) DeleteDirectory(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, directoryPath(id), nil, nil, http.StatusNoContent)
}

// CreateFile creates a file in in.DirectoryID.
func (c *Client) CreateFile(ctx context.Context, in models.FileInput) (*models.File, error) {
	var f models.File
	if err := c.do(ctx, http.MethodPost, "/api/files", in, &f, http.StatusCreated); err != nil {
		return nil, err
	}
	return &f, nil
}

// UpdateFile renames a file.
func (c *Client) UpdateFile(ctx context.Context, id int64, in models.FileInput) (*models.File, error) {
	var f models.File
	if err := c.do(ctx, http.MethodPut, "/api/files/"+strconv.FormatInt(id, 10), in, &f, http.StatusOK); err != nil {
		return nil, err
	}
	return &f, nil
}

func directoryPath(id int64) string {
	return "/api/directories/" + strconv.FormatInt(id, 10)
}

// do sends one request. body (if any) is sent as JSON and a response with
// status want is decoded into out (if any). Any other status is turned into
// a domain error by decodeProblem.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}, want int) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	requestID := uuid.NewString()
	req.Header.Set(RequestIDHeader, requestID)
	c.applyAuth(req)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("request failed", "method", method, "path", path, "request_id", requestID, "error", err)
		return err
	}
	defer resp.Body.Close()

	c.logger.Debug("request done",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"request_id", requestID,
		"duration", time.Since(start),
	)

	if resp.StatusCode != want {
		return decodeProblem(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
