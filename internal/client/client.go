// Package client talks to the shop REST API on behalf of an operator. Every
// response passes through one interceptor: a 401 clears the session, other
// failures come back as *HTTPError. Entities are normalized on the way in so
// callers only ever see an "id" field.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

var ErrUnauthorized = errors.New("session expired or not signed in")

type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("http %d: %s", e.Status, e.Message)
}

type Client struct {
	baseURL string
	http    *http.Client
	session *Session
}

// New returns a client for baseURL. A nil httpClient gets a 30 second
// timeout.
func New(baseURL string, session *Session, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if session == nil {
		session = NewSession("")
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		session: session,
	}
}

func (c *Client) Session() *Session {
	return c.session
}

// send performs one request. There are no retries.
func (c *Client) send(ctx context.Context, method, path string, query url.Values, contentType string, body io.Reader, out interface{}) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if tok := c.session.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s %s: read body: %w", method, path, err)
	}
	if err := c.intercept(resp.StatusCode, data); err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	return decodeNormalized(data, out)
}

// intercept is the single place response status codes are interpreted.
func (c *Client) intercept(code int, body []byte) error {
	if code == http.StatusUnauthorized {
		c.session.Clear()
		return ErrUnauthorized
	}
	if code >= 200 && code < 300 {
		return nil
	}
	return &HTTPError{Status: code, Message: errorMessage(body)}
}

// errorMessage pulls "error" or "detail" out of an error body.
func errorMessage(body []byte) string {
	var payload struct {
		Error  string `json:"error"`
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &payload) == nil {
		if payload.Error != "" {
			return payload.Error
		}
		if payload.Detail != "" {
			return payload.Detail
		}
	}
	return strings.TrimSpace(string(body))
}

func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, in, out interface{}) error {
	var body io.Reader
	contentType := ""
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
		contentType = "application/json"
	}
	return c.send(ctx, method, path, query, contentType, body, out)
}

// decodeNormalized decodes data into out after rewriting every object's
// "_id" into "id".
func decodeNormalized(data []byte, out interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw interface{}
	if err := dec.Decode(&raw); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	normalized, err := json.Marshal(normalizeIdentity(raw))
	if err != nil {
		return err
	}
	if err := json.Unmarshal(normalized, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// normalizeIdentity maps "_id" onto "id" at every depth. Numeric string ids
// become numbers.
func normalizeIdentity(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		if id, ok := t["_id"]; ok {
			if _, has := t["id"]; !has {
				t["id"] = id
			}
			delete(t, "_id")
		}
		if s, ok := t["id"].(string); ok {
			if n, err := strconv.ParseInt(s, 10, 64); err == nil {
				t["id"] = n
			}
		}
		for k, child := range t {
			t[k] = normalizeIdentity(child)
		}
		return t
	case []interface{}:
		for i, child := range t {
			t[i] = normalizeIdentity(child)
		}
		return t
	}
	return v
}
