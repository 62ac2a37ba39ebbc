package studio

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/remixlab/mixctl/pkg/ratelimit"

	"context"
)

// Client talks to the remote audio generation/remix service. It never retries
// a request: every failure is terminal for that submission and requires a new
// explicit call.
type Client struct {
	client    *http.Client
	baseURL   string
	debug     bool
	ratelimit ratelimit.Lock
}

type Config struct {
	// BaseURL is the address of the studio service, e.g. http://localhost:5000.
	BaseURL string
	Wait    time.Duration
	Debug   bool
	Client  *http.Client
}

func New(cfg *Config) *Client {
	wait := cfg.Wait
	if wait == 0 {
		wait = 250 * time.Millisecond
	}
	client := cfg.Client
	if client == nil {
		client = &http.Client{
			Timeout: 2 * time.Minute,
		}
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "http://localhost:5000"
	}
	return &Client{
		client:    client,
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		debug:     cfg.Debug,
		ratelimit: ratelimit.New(wait),
	}
}

func (c *Client) log(format string, args ...interface{}) {
	if c.debug {
		format += "\n"
		log.Printf(format, args...)
	}
}

// form is a prepared multipart body passed as the "in" of do.
type form struct {
	writer *multipart.Writer
	data   *bytes.Buffer
}

func newForm(src Upload, fields map[string]string) (*form, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="audio"; filename="%s"`, src.Name))
	mime := src.MIME
	if mime == "" {
		mime = "application/octet-stream"
	}
	h.Set("Content-Type", mime)
	part, err := writer.CreatePart(h)
	if err != nil {
		return nil, fmt.Errorf("studio: couldn't create form file: %w", err)
	}
	if _, err := part.Write(src.Data); err != nil {
		return nil, fmt.Errorf("studio: couldn't write form file: %w", err)
	}
	for k, v := range fields {
		if err := writer.WriteField(k, v); err != nil {
			return nil, fmt.Errorf("studio: couldn't write form field %s: %w", k, err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("studio: couldn't close form: %w", err)
	}
	return &form{writer: writer, data: &buf}, nil
}

// errBody is the error envelope the service uses on every endpoint.
type errBody struct {
	Error          string `json:"error"`
	FFmpegRequired bool   `json:"ffmpeg_required"`
	InstallURL     string `json:"install_url"`
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var reqBody io.Reader
	var contentType string
	switch v := in.(type) {
	case nil:
	case *form:
		reqBody = v.data
		contentType = v.writer.FormDataContentType()
	default:
		body, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("studio: couldn't marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(body)
		contentType = "application/json"
	}
	u := fmt.Sprintf("%s/api/%s", c.baseURL, path)
	c.log("studio: do %s %s", method, u)

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return fmt.Errorf("studio: couldn't create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	unlock := c.ratelimit.Lock(ctx)
	defer unlock()

	resp, err := c.client.Do(req)
	if err != nil {
		return &TransportError{Err: err}
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Err: err}
	}
	c.log("studio: response %s %s %d %s", method, path, resp.StatusCode, string(respBody))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp.StatusCode, respBody)
	}
	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("studio: couldn't unmarshal response body (%T): %w", out, err)
		}
	}
	return nil
}

// decodeError maps an error response onto the client error taxonomy. A body
// carrying the ffmpeg_required marker becomes a DependencyError, anything
// else keeps its message verbatim.
func decodeError(status int, body []byte) error {
	var e errBody
	if err := json.Unmarshal(body, &e); err != nil || e.Error == "" {
		msg := strings.TrimSpace(string(body))
		if msg == "" {
			msg = http.StatusText(status)
		}
		return &ServerError{StatusCode: status, Message: msg}
	}
	if e.FFmpegRequired {
		return &DependencyError{
			Message:    e.Error,
			InstallURL: e.InstallURL,
		}
	}
	return &ServerError{StatusCode: status, Message: e.Error}
}
