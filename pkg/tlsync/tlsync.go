// Package tlsync is the HTTP client for the tracklog server. The server
// speaks a legacy multipart-form API; every endpoint takes form fields
// and answers JSON.
package tlsync

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/tracklog/tracklog-client/pkg/appcontext"
	"github.com/tracklog/tracklog-client/pkg/models"
)

// ErrNetworkUnavailable marks transport-level failures: the request never
// produced a server response. Local state must be preserved so the next
// cycle retries.
var ErrNetworkUnavailable = errors.New("network unavailable")

// ErrLoginFailed is returned when the server rejects the credentials.
var ErrLoginFailed = errors.New("login failed")

const (
	loginPath   = "/api/v1/login"
	addCallPath = "/api/v1/calls/add"
	historyPath = "/api/v1/calls/history"

	requestTimeout = 15 * time.Second
)

type Client struct {
	serverURL string
	http      *http.Client
}

func New(serverURL string) *Client {
	return &Client{
		serverURL: serverURL,
		http:      &http.Client{Timeout: requestTimeout},
	}
}

type loginResponse struct {
	Status string `json:"status"`
	Msg    string `json:"msg"`
	Data   struct {
		ID        int    `json:"id"`
		Name      string `json:"name"`
		Password  string `json:"password"`
		CompanyID int    `json:"company_id"`
	} `json:"data"`
}

// Login authenticates against the server and returns the session identity
// attached to subsequent uploads.
func (c *Client) Login(ctx context.Context, username, password string) (models.Session, error) {
	var out loginResponse
	err := c.postForm(ctx, loginPath, map[string]string{
		"username": username,
		"password": password,
	}, &out)
	if err != nil {
		return models.Session{}, err
	}

	if out.Status != "Success" {
		if out.Msg != "" {
			return models.Session{}, fmt.Errorf("%w: %s", ErrLoginFailed, out.Msg)
		}
		return models.Session{}, ErrLoginFailed
	}

	return models.Session{
		UserID:    out.Data.ID,
		Name:      out.Data.Name,
		Password:  out.Data.Password,
		CompanyID: out.Data.CompanyID,
	}, nil
}

type uploadResponse struct {
	Success bool   `json:"success"`
	Msg     string `json:"msg"`
}

// UploadCall sends one batch item, stamped with the session identity.
// The returned bool is the server's per-item success indicator; false
// with a nil error means the server processed and rejected the item.
func (c *Client) UploadCall(ctx context.Context, item models.SyncBatchItem, sess models.Session) (bool, error) {
	var out uploadResponse
	err := c.postForm(ctx, addCallPath, map[string]string{
		"user_id":      strconv.Itoa(sess.UserID),
		"password":     sess.Password,
		"local_db_id":  item.LocalDBID,
		"date_time":    item.DateTime,
		"duration":     strconv.Itoa(item.Duration),
		"name":         item.Name,
		"phone_number": item.PhoneNumber,
		"timestamp":    item.Timestamp,
		"call_type":    string(item.CallType),
		"company_id":   strconv.Itoa(sess.CompanyID),
	}, &out)
	if err != nil {
		return false, err
	}
	return out.Success, nil
}

type historyResponse struct {
	Status string                 `json:"status"`
	Data   []models.HistoryRecord `json:"data"`
}

// History fetches the server-side call history for the date range.
func (c *Client) History(ctx context.Context, sess models.Session, start, end time.Time) ([]models.HistoryRecord, error) {
	var out historyResponse
	err := c.postForm(ctx, historyPath, map[string]string{
		"user_id":    strconv.Itoa(sess.UserID),
		"password":   sess.Password,
		"company_id": strconv.Itoa(sess.CompanyID),
		"startDate":  start.Format(models.HistoryDateLayout),
		"endDate":    end.Format(models.HistoryDateLayout),
	}, &out)
	if err != nil {
		return nil, err
	}
	return out.Data, nil
}

// postForm sends a multipart form POST and decodes the JSON response into
// out. Transport failures map to ErrNetworkUnavailable.
func (c *Client) postForm(ctx context.Context, path string, fields map[string]string, out interface{}) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for key, value := range fields {
		if err := w.WriteField(key, value); err != nil {
			return fmt.Errorf("write form field %s: %w", key, err)
		}
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close form writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.serverURL+path, &buf)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	if attempt, ok := appcontext.GetSyncAttempt(ctx); ok {
		req.Header.Set("X-Sync-Attempt", attempt)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return ErrNetworkUnavailable
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned status: %s", resp.Status)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
