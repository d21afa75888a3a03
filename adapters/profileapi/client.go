package profileapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/khoahotran/provenpro/internal/domain/profile"
	"github.com/khoahotran/provenpro/pkg/apperror"
	"github.com/khoahotran/provenpro/pkg/logger"
)

const maxBodyBytes = 8 << 20

type client struct {
	baseURL string
	http    *http.Client
	tokens  profile.TokenStore
	logger  logger.Logger
}

// NewClient returns a Gateway for the profile REST API rooted at baseURL.
// tokens may be nil; requests then go out without Authorization.
func NewClient(baseURL string, timeout time.Duration, tokens profile.TokenStore, log logger.Logger) profile.Gateway {
	return &client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		tokens:  tokens,
		logger:  log,
	}
}

func (c *client) Fetch(ctx context.Context, profileID string) (profile.Snapshot, error) {
	u := c.baseURL + "/profile/"
	if profileID != "" {
		u += "?" + url.Values{"profile_id": {profileID}}.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return profile.Snapshot{}, apperror.NewInternal("build fetch request", err)
	}
	body, err := c.do(req)
	if err != nil {
		return profile.Snapshot{}, err
	}
	return decodeSnapshot(body)
}

func (c *client) Update(ctx context.Context, payload profile.Payload) (profile.Snapshot, error) {
	return c.write(ctx, http.MethodPut, payload)
}

func (c *client) Create(ctx context.Context, payload profile.Payload) (profile.Snapshot, error) {
	return c.write(ctx, http.MethodPost, payload)
}

func (c *client) write(ctx context.Context, method string, payload profile.Payload) (profile.Snapshot, error) {
	body, contentType, err := encodeMultipart(payload)
	if err != nil {
		return profile.Snapshot{}, apperror.NewInternal("encode profile payload", err)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/profile/", body)
	if err != nil {
		return profile.Snapshot{}, apperror.NewInternal("build profile request", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.do(req)
	if err != nil {
		return profile.Snapshot{}, err
	}
	return decodeSnapshot(resp)
}

func (c *client) DeleteItem(ctx context.Context, kind, id string) (profile.DeleteResult, error) {
	u := fmt.Sprintf("%s/profile/%s/%s/", c.baseURL, url.PathEscape(kind), url.PathEscape(id))
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, u, nil)
	if err != nil {
		return profile.DeleteResult{}, apperror.NewInternal("build delete request", err)
	}
	body, err := c.do(req)
	if err != nil {
		return profile.DeleteResult{}, err
	}
	var res profile.DeleteResult
	if len(bytes.TrimSpace(body)) == 0 {
		return profile.DeleteResult{Success: true}, nil
	}
	if err := json.Unmarshal(body, &res); err != nil {
		return profile.DeleteResult{}, apperror.NewServer(http.StatusOK, "unreadable delete response")
	}
	return res, nil
}

// do sends req and returns the body of a 2xx response. Transport failures
// become network errors, non-2xx answers become server errors.
func (c *client) do(req *http.Request) ([]byte, error) {
	req.Header.Set("Accept", "application/json")
	c.authorize(req)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("Profile API unreachable",
			zap.String("method", req.Method), zap.String("path", req.URL.Path), zap.Error(err))
		return nil, apperror.NewNetwork(fmt.Sprintf("%s %s", req.Method, req.URL.Path), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, apperror.NewNetwork("read profile API response", err)
	}

	c.logger.Debug("Profile API call",
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("took", time.Since(start)),
	)

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, apperror.NewUnauthorized(resp.StatusCode, errorMessage(body))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apperror.NewServer(resp.StatusCode, errorMessage(body))
	}
	return body, nil
}

func (c *client) authorize(req *http.Request) {
	if c.tokens == nil {
		return
	}
	token, err := c.tokens.Get(req.Context())
	if err != nil {
		c.logger.Warn("Cannot read stored token, sending unauthenticated", zap.Error(err))
		return
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

func decodeSnapshot(body []byte) (profile.Snapshot, error) {
	s, err := profile.ParseSnapshot(body)
	if err != nil {
		return profile.Snapshot{}, apperror.NewServer(http.StatusOK, "unreadable profile response")
	}
	return s, nil
}

// errorMessage pulls the backend's human message out of an error body.
func errorMessage(body []byte) string {
	var m map[string]any
	if json.Unmarshal(body, &m) != nil {
		return ""
	}
	for _, key := range []string{"message", "detail", "error"} {
		if s, ok := m[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func encodeMultipart(payload profile.Payload) (*bytes.Buffer, string, error) {
	keys := make([]string, 0, len(payload))
	for k := range payload {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, k := range keys {
		v, err := formValue(payload[k])
		if err != nil {
			return nil, "", fmt.Errorf("field %q: %w", k, err)
		}
		if err := w.WriteField(k, v); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

func formValue(v any) (string, error) {
	switch t := v.(type) {
	case nil:
		return "", nil
	case string:
		return t, nil
	case json.RawMessage:
		if !json.Valid(t) {
			return "", errors.New("invalid JSON")
		}
		return string(t), nil
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
}
