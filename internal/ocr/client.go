// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ocr implements the remote OCR conversion path: the multi-step
// HTTP protocol against the OCR service, the tolerant result normalizer,
// the Markdown assembler, and the conversion manager that orchestrates
// them.
package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/pdiddy/convert-engine/internal/httputil"
	"github.com/pdiddy/convert-engine/pkg/types"
)

// defaultAPIBase is the remote OCR service root. Overridable per client
// for tests and self-hosted deployments.
const defaultAPIBase = "https://api.mistral.ai"

const defaultModel = "mistral-ocr-latest"

// Client speaks the three-step remote OCR protocol: multipart upload,
// signed-URL retrieval, then the OCR call against the signed URL.
type Client struct {
	HTTP    *http.Client
	BaseURL string
	Model   string
	APIKey  string
	Config  types.OCRConfig
}

// NewClient builds a client from configuration, applying defaults for
// base URL, model, and timeout.
func NewClient(cfg types.OCRConfig, apiKey string) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultAPIBase
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	if apiKey == "" {
		apiKey = cfg.APIKey
	}
	return &Client{
		HTTP:    &http.Client{Timeout: timeout},
		BaseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		Model:   cfg.Model,
		APIKey:  apiKey,
		Config:  cfg,
	}
}

// UploadedFile is the ephemeral handle returned by the upload step.
type UploadedFile struct {
	ID string `json:"id"`
}

// SignedURL is a time-limited retrieval link for an uploaded file.
type SignedURL struct {
	URL    string `json:"url"`
	Expiry int    `json:"expiry,omitempty"`
}

// ProcessResponse is the raw OCR response. Pages are kept loosely typed
// because the service's page representation is not fixed across requests
// or document types; the normalizer turns them into canonical OCRPages.
// Some responses also carry document-level text outside the page list,
// used as salvage when every page normalizes to empty.
type ProcessResponse struct {
	Pages     []map[string]any `json:"pages"`
	Model     string           `json:"model"`
	UsageInfo map[string]any   `json:"usage_info"`
	Text      string           `json:"text"`
	FullText  string           `json:"full_text"`
}

// Upload streams the document as a multipart upload with purpose=ocr
// and returns the uploaded file handle.
func (c *Client) Upload(ctx context.Context, name string, src io.Reader) (*UploadedFile, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	if err := mw.WriteField("purpose", "ocr"); err != nil {
		return nil, fmt.Errorf("writing purpose field: %w", err)
	}
	fw, err := mw.CreateFormFile("file", name)
	if err != nil {
		return nil, fmt.Errorf("creating file part: %w", err)
	}
	if _, err := io.Copy(fw, src); err != nil {
		return nil, fmt.Errorf("writing file part: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("finalizing multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/v1/files", &body)
	if err != nil {
		return nil, fmt.Errorf("creating upload request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var uploaded UploadedFile
	if err := c.do(req, &uploaded); err != nil {
		return nil, fmt.Errorf("uploading %s: %w", name, err)
	}
	if uploaded.ID == "" {
		return nil, fmt.Errorf("upload response for %s carried no file id", name)
	}
	return &uploaded, nil
}

// GetSignedURL retrieves a time-limited download URL for an uploaded file.
func (c *Client) GetSignedURL(ctx context.Context, fileID string) (*SignedURL, error) {
	url := fmt.Sprintf("%s/v1/files/%s/url", c.BaseURL, fileID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating signed-url request: %w", err)
	}

	var signed SignedURL
	if err := c.do(req, &signed); err != nil {
		return nil, fmt.Errorf("retrieving signed URL for %s: %w", fileID, err)
	}
	if signed.URL == "" {
		return nil, fmt.Errorf("signed-url response for %s carried no url", fileID)
	}
	return &signed, nil
}

// Process runs OCR against a signed document URL and returns the raw
// page response.
func (c *Client) Process(ctx context.Context, documentURL string) (*ProcessResponse, error) {
	payload := map[string]any{
		"model": c.Model,
		"document": map[string]any{
			"type":         "document_url",
			"document_url": documentURL,
		},
	}
	if c.Config.Language != "" {
		payload["language"] = c.Config.Language
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshaling OCR request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/v1/ocr", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating OCR request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var resp ProcessResponse
	if err := c.do(req, &resp); err != nil {
		return nil, fmt.Errorf("running OCR: %w", err)
	}
	return &resp, nil
}

// do executes the request with auth headers and 429 backoff, decoding a
// 2xx JSON body into out. Non-2xx statuses become RemoteServiceError
// with a remediation hint where one applies.
func (c *Client) do(req *http.Request, out any) error {
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	if c.Config.UserAgent != "" {
		req.Header.Set("User-Agent", c.Config.UserAgent)
	}

	resp, err := httputil.DoWithRetry(req.Context(), c.HTTP, req, c.Config.MaxRetries)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := readErrorMessage(resp.Body)
		return &types.RemoteServiceError{
			StatusCode: resp.StatusCode,
			Message:    msg,
			Hint:       httputil.ClassifyStatus(resp.StatusCode),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// readErrorMessage extracts a service error message from a failed
// response body, falling back to the raw (truncated) text.
func readErrorMessage(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil || len(data) == 0 {
		return "no response body"
	}
	var envelope struct {
		Message string `json:"message"`
		Error   struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(data, &envelope) == nil {
		if envelope.Message != "" {
			return envelope.Message
		}
		if envelope.Error.Message != "" {
			return envelope.Error.Message
		}
	}
	return strings.TrimSpace(string(data))
}

// ValidateAPIKey performs the defensive pre-call check: presence and a
// minimal format sanity test. It exists to avoid a remote round trip for
// a request certain to fail.
func ValidateAPIKey(key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return &types.ValidationError{Field: "ocrApiKey", Reason: "missing"}
	}
	if len(key) < 8 {
		return &types.ValidationError{Field: "ocrApiKey", Reason: "too short to be a valid key"}
	}
	if strings.ContainsAny(key, " \t\n") {
		return &types.ValidationError{Field: "ocrApiKey", Reason: "contains whitespace"}
	}
	return nil
}
