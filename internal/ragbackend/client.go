// Package ragbackend is the HTTP client for the external RAG service that
// ingests documents, maintains the vector index and generates answers. The
// service is an opaque collaborator; this package only speaks its four-route
// contract.
package ragbackend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Chat asks the backend to answer query against the document's index.
func (c *Client) Chat(ctx context.Context, query string, documentID, userID uint) (string, error) {
	reqBody := map[string]interface{}{
		"userQuery":  query,
		"documentId": documentID,
		"userId":     userID,
	}
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal chat request failed: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat", bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("build chat request failed: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read chat response failed: %w", err)
	}
	if resp.StatusCode >= 300 {
		return "", upstreamError("chat", resp.StatusCode, raw)
	}

	var parsed struct {
		Answer string `json:"answer"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("parse chat response failed: %w", err)
	}
	if strings.TrimSpace(parsed.Answer) == "" {
		return "", fmt.Errorf("empty answer from backend")
	}
	return parsed.Answer, nil
}

// UploadPDF forwards the file bytes plus the new document id for ingestion.
// The user id travels as a query parameter, matching the backend contract.
func (c *Client) UploadPDF(ctx context.Context, documentID, userID uint, filename string, data []byte) error {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("pdf", filename)
	if err != nil {
		return fmt.Errorf("build multipart file failed: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return fmt.Errorf("write multipart file failed: %w", err)
	}
	if err := writer.WriteField("documentId", strconv.FormatUint(uint64(documentID), 10)); err != nil {
		return fmt.Errorf("write multipart field failed: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("close multipart writer failed: %w", err)
	}

	uploadURL := c.baseURL + "/upload/pdf?userId=" + url.QueryEscape(strconv.FormatUint(uint64(userID), 10))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, uploadURL, &buf)
	if err != nil {
		return fmt.Errorf("build upload request failed: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("upload request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(resp.Body)
		return upstreamError("upload", resp.StatusCode, raw)
	}
	return nil
}

// DeleteCollection drops the backend index named by collectionName.
func (c *Client) DeleteCollection(ctx context.Context, collectionName string) error {
	return c.postJSON(ctx, "/delete-collection", map[string]string{"collectionName": collectionName})
}

// DeleteFile removes the stored file at filePath on the backend side.
func (c *Client) DeleteFile(ctx context.Context, filePath string) error {
	return c.postJSON(ctx, "/delete-file", map[string]string{"filePath": filePath})
}

func (c *Client) postJSON(ctx context.Context, path string, body interface{}) error {
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request failed: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("build request failed: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(resp.Body)
		return upstreamError(path, resp.StatusCode, raw)
	}
	return nil
}

// upstreamError surfaces the backend's own message when the error body is
// JSON with a "message" field, falling back to the raw body.
func upstreamError(op string, status int, body []byte) error {
	var parsed struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Message != "" {
		return fmt.Errorf("backend %s status %d: %s", op, status, parsed.Message)
	}
	return fmt.Errorf("backend %s status %d: %s", op, status, string(body))
}
