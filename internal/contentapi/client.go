// Package contentapi is the HTTP client of the hospital content API.
package contentapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/hospitalcms/backend/internal/models"
	"github.com/hospitalcms/backend/libs/middlewares"
	"go.uber.org/zap"
)

var (
	// ErrConflict is returned when the section changed on the server since it was loaded
	ErrConflict = errors.New("section was modified by another operator")
	// ErrNotFound is returned when the section does not exist
	ErrNotFound = errors.New("section not found")
)

// APIError is a non-success response of the content API
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("content API returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("content API returned status %d: %s", e.StatusCode, e.Message)
}

// Client talks to the content API
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	logger     *zap.Logger
}

// NewClient creates a new content API client
func NewClient(baseURL, apiKey string, timeout time.Duration, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		logger:     logger,
	}
}

// GetSection fetches the content blocks of a section
func (c *Client) GetSection(ctx context.Context, sectionID int) (*models.Section, error) {
	url := fmt.Sprintf("%s/home/section/%d", c.baseURL, sectionID)
	resp, err := c.do(ctx, http.MethodGet, url, nil, "", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch section %d: %w", sectionID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, sectionID)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, readAPIError(resp)
	}

	var body models.SectionResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode section %d: %w", sectionID, err)
	}

	section := &models.Section{
		ID:      sectionID,
		Version: versionOf(resp, body.Version),
		Blocks:  body.Data,
	}
	for _, b := range body.Data {
		if b.Name != "" {
			section.Name = b.Name
			break
		}
	}
	return section, nil
}

// UpdateSection submits a partial section update. A non-empty version is sent as If-Match.
func (c *Client) UpdateSection(ctx context.Context, sectionID int, version string, update models.SectionUpdate) (*models.UpdateResult, error) {
	body, err := json.Marshal(models.SectionUpdateRequest{UpdateData: update})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal section update: %w", err)
	}

	headers := map[string]string{}
	if version != "" {
		headers["If-Match"] = version
	}

	url := fmt.Sprintf("%s/home/section/%d", c.baseURL, sectionID)
	resp, err := c.do(ctx, http.MethodPut, url, bytes.NewReader(body), "application/json", headers)
	if err != nil {
		return nil, fmt.Errorf("failed to update section %d: %w", sectionID, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusConflict || resp.StatusCode == http.StatusPreconditionFailed:
		return nil, ErrConflict
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %d", ErrNotFound, sectionID)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, readAPIError(resp)
	}

	var result models.UpdateResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode update response: %w", err)
	}
	result.Version = versionOf(resp, "")
	return &result, nil
}

// UploadFile uploads one file as multipart field "file"
func (c *Client) UploadFile(ctx context.Context, filename string, r io.Reader) (*models.UploadResult, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create multipart body: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("failed to read upload %s: %w", filename, err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to create multipart body: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPost, c.baseURL+"/media/upload", &buf, mw.FormDataContentType(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to upload %s: %w", filename, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, readAPIError(resp)
	}

	var result models.UploadResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode upload response: %w", err)
	}
	return &result, nil
}

// GetHeaderSettings fetches the site header settings
func (c *Client) GetHeaderSettings(ctx context.Context) ([]models.HeaderSetting, error) {
	resp, err := c.do(ctx, http.MethodGet, c.baseURL+"/header/settings", nil, "", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch header settings: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, readAPIError(resp)
	}

	var body models.SettingsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode header settings: %w", err)
	}
	return body.Data, nil
}

// UpdateHeaderSettings submits changed header settings
func (c *Client) UpdateHeaderSettings(ctx context.Context, update models.SettingsUpdate) (*models.UpdateResult, error) {
	body, err := json.Marshal(update)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal settings update: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPut, c.baseURL+"/header/settings", bytes.NewReader(body), "application/json", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to update header settings: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, readAPIError(resp)
	}

	var result models.UpdateResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode settings response: %w", err)
	}
	return &result, nil
}

func (c *Client) do(ctx context.Context, method, url string, body io.Reader, contentType string, headers map[string]string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}
	requestID := middlewares.GetRequestID(ctx)
	if requestID != "" {
		req.Header.Set(middlewares.RequestIDHeader, requestID)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("content API request failed",
			zap.String("method", method),
			zap.String("url", url),
			zap.String("request_id", requestID),
			zap.Error(err),
		)
		return nil, err
	}

	c.logger.Debug("content API request",
		zap.String("method", method),
		zap.String("url", url),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
		zap.String("request_id", requestID),
	)
	return resp, nil
}

// readAPIError turns an error response into an APIError, keeping the server message when present
func readAPIError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	msg := ""
	if err := json.Unmarshal(raw, &body); err == nil {
		msg = body.Message
		if msg == "" {
			msg = body.Error
		}
	} else {
		msg = strings.TrimSpace(string(raw))
	}
	return &APIError{StatusCode: resp.StatusCode, Message: msg}
}

func versionOf(resp *http.Response, fallback string) string {
	if etag := resp.Header.Get("ETag"); etag != "" {
		return etag
	}
	return fallback
}
