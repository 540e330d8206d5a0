package endpoint

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"

	"devcollab/internal/httpc"
	"devcollab/internal/services/relay"
)

const (
	// maxResultBytes caps the size of a processed image we are willing to read.
	maxResultBytes = 32 << 20
	// maxErrorBody is how much of an error response ends up in the error message.
	maxErrorBody = 256
)

// StatusError is returned when the endpoint answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("endpoint returned %d", e.StatusCode)
	}
	return fmt.Sprintf("endpoint returned %d: %s", e.StatusCode, e.Body)
}

// Client submits frames to the processing endpoint's CV routes.
type Client struct {
	baseURL *url.URL
	http    *http.Client
}

// NewClient creates a client for the server at baseURL, e.g.
// "http://localhost:8000". A nil httpClient uses httpc defaults with the
// deadline left to the request context.
func NewClient(baseURL string, httpClient *http.Client) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse endpoint url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("endpoint url must be http or https, got %q", baseURL)
	}
	if httpClient == nil {
		httpClient = httpc.NewClient(0)
	}
	return &Client{baseURL: u, http: httpClient}, nil
}

// URLFor returns the route that handles the given method.
func (c *Client) URLFor(method relay.Method) string {
	return c.baseURL.JoinPath("api", "run", "cv", string(method)).String()
}

// Process implements relay.Processor.
func (c *Client) Process(ctx context.Context, req *relay.Request) ([]byte, error) {
	body, contentType, err := buildForm(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URLFor(req.Params.Method), body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("Accept", "image/*")
	if req.ID != "" {
		httpReq.Header.Set("X-Request-ID", req.ID)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("submit frame #%d: %w", req.Seq, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(excerpt))}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResultBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read result: %w", err)
	}
	if len(data) > maxResultBytes {
		return nil, fmt.Errorf("result exceeds %d bytes", maxResultBytes)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("empty result body")
	}
	return data, nil
}

func buildForm(req *relay.Request) (io.Reader, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	partType := req.ContentType
	if partType == "" {
		partType = "application/octet-stream"
	}
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="frame-%d%s"`, req.Seq, extensionFor(partType)))
	header.Set("Content-Type", partType)

	part, err := mw.CreatePart(header)
	if err != nil {
		return nil, "", fmt.Errorf("create file part: %w", err)
	}
	if _, err := part.Write(req.Payload); err != nil {
		return nil, "", fmt.Errorf("write file part: %w", err)
	}

	for name, value := range req.Params.Fields() {
		if err := mw.WriteField(name, value); err != nil {
			return nil, "", fmt.Errorf("write field %s: %w", name, err)
		}
	}

	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("close form: %w", err)
	}
	return &buf, mw.FormDataContentType(), nil
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	}
	return ""
}
