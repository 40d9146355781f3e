// Package backend is the gateway client for the storefront REST backend.
// One request wrapper attaches credentials, encodes JSON or multipart
// bodies, and turns every non-2xx response into a *model.APIError.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"storefront/internal/adapter"
	"storefront/internal/model"
)

const userAgent = "Storefront-BFF/1.0"

// maxResponseBody caps how much of a response body is read.
const maxResponseBody = 8 << 20

// Credentials supplies the auth headers for a call. The credential store
// implements it; a nil Credentials means every call is anonymous.
type Credentials interface {
	BasicAuth(ctx context.Context) (string, bool)
	Token(ctx context.Context) string
}

// authMode selects which credential a call attaches.
type authMode int

const (
	authNone authMode = iota
	authBasic
	authBearer
)

// Config holds gateway client settings.
type Config struct {
	BaseURL   string
	Timeout   time.Duration
	Transport http.RoundTripper // nil uses http.DefaultTransport
	Currency  string            // ISO code applied to backend amounts
}

// Client is the backend gateway. It is safe for concurrent use; per-session
// clients share the underlying http.Client.
type Client struct {
	httpClient *http.Client
	baseURL    string
	currency   string
	creds      Credentials
}

// New creates a gateway client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("backend URL is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid backend URL: %w", err)
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	currency := cfg.Currency
	if currency == "" {
		currency = model.DefaultCurrency
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout, Transport: cfg.Transport},
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		currency:   currency,
	}, nil
}

// WithCredentials returns a client bound to one session's credentials.
func (c *Client) WithCredentials(creds Credentials) *Client {
	cp := *c
	cp.creds = creds
	return &cp
}

// request describes one backend call.
type request struct {
	method string
	path   string
	query  url.Values
	auth   authMode
	json   any
	form   *formBody
}

// formBody is a multipart payload: text fields plus file parts.
type formBody struct {
	fields [][2]string
	files  []model.Upload
}

func (f *formBody) add(name, value string) {
	f.fields = append(f.fields, [2]string{name, value})
}

// addOptional skips empty values so partial updates leave fields untouched.
func (f *formBody) addOptional(name, value string) {
	if value != "" {
		f.add(name, value)
	}
}

// do executes req and decodes a 2xx JSON body into out (if non-nil).
func (c *Client) do(ctx context.Context, req request, out any) error {
	httpReq, err := c.newRequest(ctx, req)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return model.NewUpstreamError("backend", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return parseError(resp.StatusCode, body)
	}

	if out != nil && len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("parsing %s %s response: %w", req.method, req.path, err)
		}
	}
	return nil
}

// newRequest builds the HTTP request, attaching auth and the encoded body.
func (c *Client) newRequest(ctx context.Context, req request) (*http.Request, error) {
	var (
		body        io.Reader
		contentType string
	)
	switch {
	case req.form != nil:
		buf, ct, err := encodeMultipart(req.form)
		if err != nil {
			return nil, err
		}
		body, contentType = buf, ct
	case req.json != nil:
		data, err := json.Marshal(req.json)
		if err != nil {
			return nil, fmt.Errorf("marshaling request: %w", err)
		}
		body, contentType = bytes.NewReader(data), "application/json"
	}

	target := c.baseURL + req.path
	if len(req.query) > 0 {
		target += "?" + req.query.Encode()
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.method, target, body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", userAgent)

	switch req.auth {
	case authBasic:
		header, ok := c.basic(ctx)
		if !ok {
			return nil, model.NewAuthRequiredError("continue")
		}
		httpReq.Header.Set("Authorization", header)
	case authBearer:
		token := ""
		if c.creds != nil {
			token = c.creds.Token(ctx)
		}
		if token == "" {
			return nil, model.NewAuthRequiredError("continue")
		}
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}
	return httpReq, nil
}

func (c *Client) basic(ctx context.Context) (string, bool) {
	if c.creds == nil {
		return "", false
	}
	return c.creds.BasicAuth(ctx)
}

// encodeMultipart writes fields then files.
func encodeMultipart(f *formBody) (*bytes.Buffer, string, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	for _, kv := range f.fields {
		if err := w.WriteField(kv[0], kv[1]); err != nil {
			return nil, "", fmt.Errorf("writing field %s: %w", kv[0], err)
		}
	}
	for _, file := range f.files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, file.Field, file.Filename))
		ct := file.ContentType
		if ct == "" {
			ct = http.DetectContentType(file.Data)
		}
		h.Set("Content-Type", ct)
		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", fmt.Errorf("creating file part: %w", err)
		}
		if _, err := part.Write(file.Data); err != nil {
			return nil, "", fmt.Errorf("writing file part: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf, w.FormDataContentType(), nil
}

// errorResponse covers the two error shapes the backend emits:
// {"detail": "..."} / {"detail": [{"msg": "..."}]} and {"message": "..."}.
type errorResponse struct {
	Detail  json.RawMessage `json:"detail"`
	Message string          `json:"message"`
}

// parseError converts a non-2xx response into a model.APIError.
func parseError(status int, body []byte) error {
	var parsed any
	_ = json.Unmarshal(body, &parsed) // Best effort; Body stays nil on junk

	var er errorResponse
	_ = json.Unmarshal(body, &er)

	msg := detailMessage(er.Detail)
	if msg == "" {
		msg = er.Message
	}
	return model.FromStatus(status, msg, parsed)
}

// detailMessage flattens a FastAPI-style detail field.
func detailMessage(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var list []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(raw, &list); err == nil {
		msgs := make([]string, 0, len(list))
		for _, item := range list {
			if item.Msg != "" {
				msgs = append(msgs, item.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}
	return ""
}

// IsStatus reports whether err is an APIError with the given HTTP status.
func IsStatus(err error, status int) bool {
	var apiErr *model.APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == status
}

// Verify Client implements the storefront backend surface at compile time.
var _ adapter.Backend = (*Client)(nil)
