// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api provides the HTTP client for the riverchat backend.
package api

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/jeranaias/riverchat-tui/internal/model"
)

// Configuration constants for the backend API.
const (
	// DefaultBaseURL is the default backend address.
	DefaultBaseURL = "http://localhost:8006"

	// DefaultTimeout is the default timeout for non-streaming requests.
	DefaultTimeout = 60 * time.Second

	// MaxResponseSize is the maximum allowed response body size.
	MaxResponseSize = 10 * 1024 * 1024 // 10MB

	// defaultRequestsPerSecond bounds outbound request rate so a stuck UI
	// loop cannot hammer the backend.
	defaultRequestsPerSecond = 10
	defaultRequestBurst      = 20
)

var (
	// Shared HTTP client with connection pooling for all backend requests.
	sharedHTTPClient = &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
		},
		Timeout: DefaultTimeout,
	}

	// sharedStreamingClient is used for streaming requests (no timeout,
	// lifecycle controlled via context).
	sharedStreamingClient = &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
		},
	}
)

// Error variables for common backend errors.
var (
	// ErrUnauthorized indicates the backend rejected the credentials or token.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotFound indicates the requested resource does not exist.
	ErrNotFound = errors.New("not found")

	// ErrRateLimited indicates too many requests were made.
	ErrRateLimited = errors.New("rate limited")
)

// APIError represents an error response from the backend.
type APIError struct {
	Status  int
	Message string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend error (HTTP %d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("backend error (HTTP %d)", e.Status)
}

// Is maps well-known statuses onto the package sentinel errors.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	case ErrRateLimited:
		return e.Status == http.StatusTooManyRequests
	}
	return false
}

// TokenSource supplies the bearer token for outbound requests. The session
// store is the single writer; every request reads through this function so
// login/logout take effect immediately.
type TokenSource func() string

// =============================================================================
// CLIENT
// =============================================================================

// Client is the HTTP client for the riverchat backend.
type Client struct {
	baseURL    string
	token      TokenSource
	httpClient *http.Client
	streamer   *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a client for the given backend base URL.
// The token source may be nil for unauthenticated use (login only).
func NewClient(baseURL string, token TokenSource) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if token == nil {
		token = func() string { return "" }
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		token:      token,
		httpClient: sharedHTTPClient,
		streamer:   sharedStreamingClient,
		limiter:    rate.NewLimiter(rate.Limit(defaultRequestsPerSecond), defaultRequestBurst),
	}
}

// WithHTTPClient sets a custom HTTP client (used by tests).
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	c.streamer = hc
	return c
}

// WithRateLimit sets a custom outbound request rate.
func (c *Client) WithRateLimit(perSecond float64, burst int) *Client {
	c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	return c
}

// BaseURL returns the configured backend address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// =============================================================================
// WIRE TYPES
// =============================================================================

// AuthResponse is the successful login payload.
type AuthResponse struct {
	AccessToken string         `json:"access_token"`
	TokenType   string         `json:"token_type"`
	User        model.Identity `json:"user"`
}

// SendResult identifies the conversation and stored user message after a send.
type SendResult struct {
	ConversationID int64 `json:"conversation_id"`
	MessageID      int64 `json:"message_id"`
}

// RenameResult is the payload of a successful rename.
type RenameResult struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

// UploadAck acknowledges a document ingestion.
type UploadAck struct {
	Filename string `json:"filename"`
	Ingested bool   `json:"ingested"`
}

// ImageUpload carries the server-side stored path of an uploaded image.
type ImageUpload struct {
	FilePath string `json:"file_path"`
}

// wireConversation matches the backend conversation shape; timestamps are
// ISO strings without a timezone, so they need lenient parsing.
type wireConversation struct {
	ID        int64      `json:"id"`
	Title     string     `json:"title"`
	Mode      model.Mode `json:"mode"`
	CreatedAt string     `json:"created_at"`
	UpdatedAt string     `json:"updated_at"`
}

// wireMessage matches the backend message shape.
type wireMessage struct {
	ID        int64           `json:"id"`
	Role      model.Role      `json:"role"`
	Content   string          `json:"content"`
	Metadata  *model.Metadata `json:"metadata"`
	CreatedAt string          `json:"created_at"`
}

// errorResponse is the backend's error envelope.
type errorResponse struct {
	Detail json.RawMessage `json:"detail"`
}

// =============================================================================
// OPERATIONS
// =============================================================================

// Login authenticates with username and password and returns the bearer
// token plus the user identity. A 401 maps to ErrUnauthorized.
func (c *Client) Login(ctx context.Context, username, password string) (*AuthResponse, error) {
	body := map[string]string{"username": username, "password": password}

	var out AuthResponse
	if err := c.postJSON(ctx, "/auth/login", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateProviderConfig updates the upstream model provider credentials for
// the given user.
func (c *Client) UpdateProviderConfig(ctx context.Context, userID int64, baseURL, apiKey string) error {
	body := map[string]any{
		"user_id":      userID,
		"api_base_url": baseURL,
		"api_key":      apiKey,
	}
	return c.postJSON(ctx, "/auth/config", body, nil)
}

// SendMessage creates or continues a conversation with a user message and
// returns the authoritative conversation id. Mode is only honored on the
// first message of a new conversation.
func (c *Client) SendMessage(ctx context.Context, userID int64, conversationID int64, content string, mode model.Mode) (*SendResult, error) {
	body := map[string]any{
		"user_id": userID,
		"content": content,
	}
	if conversationID != 0 {
		body["conversation_id"] = conversationID
	} else if mode != "" {
		body["mode"] = string(mode)
	}

	var out SendResult
	if err := c.postJSON(ctx, "/chat/send", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListConversations returns the user's conversations in server recency order.
func (c *Client) ListConversations(ctx context.Context, userID int64) ([]model.Conversation, error) {
	path := "/chat/conversations?user_id=" + strconv.FormatInt(userID, 10)

	var wire []wireConversation
	if err := c.getJSON(ctx, path, &wire); err != nil {
		return nil, err
	}

	out := make([]model.Conversation, 0, len(wire))
	for _, w := range wire {
		out = append(out, model.Conversation{
			ID:        w.ID,
			Title:     w.Title,
			Mode:      w.Mode,
			CreatedAt: parseServerTime(w.CreatedAt),
			UpdatedAt: parseServerTime(w.UpdatedAt),
		})
	}
	return out, nil
}

// ListMessages returns a conversation's messages in server order.
func (c *Client) ListMessages(ctx context.Context, conversationID int64) ([]*model.Message, error) {
	path := "/chat/conversations/" + strconv.FormatInt(conversationID, 10) + "/messages"

	var wire []wireMessage
	if err := c.getJSON(ctx, path, &wire); err != nil {
		return nil, err
	}

	out := make([]*model.Message, 0, len(wire))
	for _, w := range wire {
		msg := &model.Message{
			ID:        strconv.FormatInt(w.ID, 10),
			Role:      w.Role,
			Content:   w.Content,
			CreatedAt: parseServerTime(w.CreatedAt),
		}
		if w.Metadata != nil {
			msg.Metadata = *w.Metadata
		}
		out = append(out, msg)
	}
	return out, nil
}

// RenameConversation updates a conversation title.
func (c *Client) RenameConversation(ctx context.Context, conversationID int64, title string) (*RenameResult, error) {
	path := "/chat/conversations/" + strconv.FormatInt(conversationID, 10)
	body := map[string]string{"title": title}

	var out RenameResult
	if err := c.doJSON(ctx, http.MethodPatch, path, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteConversation removes a conversation and its messages server-side.
func (c *Client) DeleteConversation(ctx context.Context, conversationID int64) error {
	path := "/chat/conversations/" + strconv.FormatInt(conversationID, 10)
	return c.doJSON(ctx, http.MethodDelete, path, nil, nil)
}

// UploadDocument uploads a PDF for knowledge-base ingestion.
func (c *Client) UploadDocument(ctx context.Context, userID int64, filePath string) (*UploadAck, error) {
	var out UploadAck
	if err := c.uploadFile(ctx, "/upload/pdf", userID, filePath, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UploadImage uploads an image and returns its server-side stored path.
func (c *Client) UploadImage(ctx context.Context, userID int64, filePath string) (*ImageUpload, error) {
	var out ImageUpload
	if err := c.uploadFile(ctx, "/upload/image", userID, filePath, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// =============================================================================
// REQUEST HELPERS
// =============================================================================

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	return c.doJSON(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) postJSON(ctx context.Context, path string, body, out any) error {
	return c.doJSON(ctx, http.MethodPost, path, body, out)
}

// doJSON performs a JSON request/response round-trip against the backend.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, JoinURL(c.baseURL, path), reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
		return handleErrorResponse(resp.StatusCode, payload)
	}

	if out == nil {
		io.Copy(io.Discard, io.LimitReader(resp.Body, MaxResponseSize))
		return nil
	}

	payload, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// uploadFile posts a file as multipart form data.
func (c *Client) uploadFile(ctx context.Context, path string, userID int64, filePath string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	f, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filepath.Base(filePath))
	if err != nil {
		return fmt.Errorf("failed to build form: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finish form: %w", err)
	}

	target := JoinURL(c.baseURL, path) + "?user_id=" + strconv.FormatInt(userID, 10)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, &buf)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("upload failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
		return handleErrorResponse(resp.StatusCode, payload)
	}

	if out == nil {
		return nil
	}
	payload, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// setHeaders attaches the bearer credential when a session is active.
func (c *Client) setHeaders(req *http.Request) {
	if token := c.token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("User-Agent", "riverchat-tui")
}

// handleErrorResponse converts a non-2xx response into an APIError, pulling
// the human-readable detail out of the backend's error envelope when present.
func handleErrorResponse(status int, body []byte) error {
	message := strings.TrimSpace(string(body))

	var envelope errorResponse
	if err := json.Unmarshal(body, &envelope); err == nil && len(envelope.Detail) > 0 {
		var detail string
		if err := json.Unmarshal(envelope.Detail, &detail); err == nil {
			message = detail
		} else {
			message = string(envelope.Detail)
		}
	}

	return &APIError{Status: status, Message: message}
}

// =============================================================================
// TIME PARSING
// =============================================================================

// serverTimeLayouts covers the timestamp formats the backend emits:
// RFC 3339 when a timezone is attached, bare ISO 8601 otherwise.
var serverTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
}

// parseServerTime parses a backend timestamp, returning the zero time for
// values that match no known layout.
func parseServerTime(s string) time.Time {
	for _, layout := range serverTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// JoinURL joins the backend base URL and an endpoint path, tolerating a
// trailing slash on the configured base.
func JoinURL(base, path string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base + path
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + path
	return u.String()
}
