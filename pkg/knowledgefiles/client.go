// Package knowledgefiles is a client for the remote knowledge-file API, where the documents
// behind an agent's knowledge base are uploaded, listed and deleted.
package knowledgefiles

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
)

const (
	HeaderAgentID = "X-Agent-Id"
	HeaderAPIKey  = "X-Api-Key"

	filesPath = "/files"
)

var (
	ErrNotFound     = errors.New("knowledge file not found")
	ErrUnauthorized = errors.New("knowledge file api rejected the credentials")
)

// File is the metadata the remote API keeps for an uploaded document.
type File struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type"`
	Status      string    `json:"status"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

// APIError is a non-2xx answer from the remote API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("knowledge file api error (status %d): %s", e.StatusCode, e.Message)
}

type Options struct {
	Timeout    time.Duration
	RetryCount int
}

type Client struct {
	client *resty.Client
}

func NewClient(baseURL, agentID, apiKey string, opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.RetryCount < 0 {
		opts.RetryCount = 0
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(opts.Timeout).
		SetHeader("Accept", "application/json").
		SetHeader(HeaderAgentID, agentID).
		SetHeader(HeaderAPIKey, apiKey).
		SetRetryCount(opts.RetryCount).
		SetRetryWaitTime(100 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second)

	client.AddRetryCondition(retryCondition)

	return &Client{client: client}
}

func retryCondition(r *resty.Response, err error) bool {
	if err != nil {
		return true
	}
	if r == nil {
		return false
	}
	code := r.StatusCode()
	return code >= 500 || code == http.StatusTooManyRequests || code == http.StatusRequestTimeout
}

// List returns every file of the agent. The API answers either with a bare array or with the
// array wrapped under "files" or "data".
func (c *Client) List(ctx context.Context) ([]File, error) {
	resp, err := c.client.R().SetContext(ctx).Get(filesPath)
	if err != nil {
		return nil, fmt.Errorf("list knowledge files: %w", err)
	}
	if err := checkResponse(resp); err != nil {
		return nil, err
	}

	body := gjson.ParseBytes(resp.Body())
	list := body
	if !body.IsArray() {
		list = body.Get("files")
		if !list.Exists() {
			list = body.Get("data")
		}
	}
	if !list.IsArray() {
		return nil, fmt.Errorf("list knowledge files: unexpected response shape")
	}

	files := make([]File, 0, len(list.Array()))
	for _, item := range list.Array() {
		files = append(files, fileFromJSON(item))
	}
	return files, nil
}

// Upload sends content as the multipart form field "file".
func (c *Client) Upload(ctx context.Context, filename string, content io.Reader) (*File, error) {
	if strings.TrimSpace(filename) == "" {
		return nil, errors.New("upload knowledge file: filename is required")
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetFileReader("file", filename, content).
		Post(filesPath)
	if err != nil {
		return nil, fmt.Errorf("upload knowledge file: %w", err)
	}
	if err := checkResponse(resp); err != nil {
		return nil, err
	}

	body := gjson.ParseBytes(resp.Body())
	if inner := body.Get("file"); inner.IsObject() {
		body = inner
	} else if inner := body.Get("data"); inner.IsObject() {
		body = inner
	}
	f := fileFromJSON(body)
	if f.Name == "" {
		f.Name = filename
	}
	return &f, nil
}

func (c *Client) Delete(ctx context.Context, fileID string) error {
	if strings.TrimSpace(fileID) == "" {
		return errors.New("delete knowledge file: id is required")
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetPathParam("id", fileID).
		Delete(filesPath + "/{id}")
	if err != nil {
		return fmt.Errorf("delete knowledge file: %w", err)
	}
	return checkResponse(resp)
}

func checkResponse(resp *resty.Response) error {
	if resp.IsSuccess() {
		return nil
	}

	msg := gjson.GetBytes(resp.Body(), "message").String()
	if msg == "" {
		msg = gjson.GetBytes(resp.Body(), "error").String()
	}
	if msg == "" {
		msg = strings.TrimSpace(resp.String())
	}
	apiErr := &APIError{StatusCode: resp.StatusCode(), Message: msg}

	switch resp.StatusCode() {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %v", ErrNotFound, apiErr)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %v", ErrUnauthorized, apiErr)
	}
	return apiErr
}

func fileFromJSON(r gjson.Result) File {
	f := File{
		ID:          firstString(r, "id", "file_id", "_id"),
		Name:        firstString(r, "name", "filename", "file_name"),
		Size:        r.Get("size").Int(),
		ContentType: firstString(r, "content_type", "mime_type"),
		Status:      r.Get("status").String(),
	}
	if ts := firstString(r, "uploaded_at", "created_at"); ts != "" {
		if t, err := time.Parse(time.RFC3339, ts); err == nil {
			f.UploadedAt = t
		}
	}
	return f
}

func firstString(r gjson.Result, keys ...string) string {
	for _, k := range keys {
		if v := r.Get(k); v.Exists() && v.String() != "" {
			return v.String()
		}
	}
	return ""
}
