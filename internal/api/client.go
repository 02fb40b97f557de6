package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultHTTPTimeout = 10 * time.Second
	httpTimeoutEnvKey  = "SCHEDR_HTTP_TIMEOUT"
	userEnvKey         = "SCHEDR_USER"
	passwordEnvKey     = "SCHEDR_PASSWORD"
)

// Client is a small HTTP client for the schedr API.
type Client struct {
	baseURL  string
	http     *http.Client
	username string
	password string
}

// NewClient creates a client that authenticates with SCHEDR_USER and
// SCHEDR_PASSWORD when they are set.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		http:     &http.Client{Timeout: httpTimeoutFromEnv()},
		username: strings.TrimSpace(os.Getenv(userEnvKey)),
		password: os.Getenv(passwordEnvKey),
	}
}

// WithCredentials returns a copy of c using the given Basic credentials.
func (c *Client) WithCredentials(username, password string) *Client {
	clone := *c
	clone.username = strings.TrimSpace(username)
	clone.password = password
	return &clone
}

// Ping checks whether the API server is reachable.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil, nil)
}

func (c *Client) Me(ctx context.Context) (UserResponse, error) {
	var resp UserResponse
	err := c.do(ctx, http.MethodGet, "/v1/me", nil, nil, &resp)
	return resp, err
}

func (c *Client) CreateSchedule(ctx context.Context, req ScheduleCreateRequest) (ScheduleResponse, error) {
	var resp ScheduleResponse
	err := c.do(ctx, http.MethodPost, "/v1/schedules", nil, req, &resp)
	return resp, err
}

func (c *Client) GetSchedule(ctx context.Context, id int64) (ScheduleResponse, error) {
	var resp ScheduleResponse
	err := c.do(ctx, http.MethodGet, schedulePath(id), nil, nil, &resp)
	return resp, err
}

func (c *Client) ListSchedules(ctx context.Context, query url.Values) ([]ScheduleResponse, error) {
	var resp []ScheduleResponse
	err := c.do(ctx, http.MethodGet, "/v1/schedules", query, nil, &resp)
	return resp, err
}

func (c *Client) UpdateSchedule(ctx context.Context, id int64, req ScheduleUpdateRequest) (ScheduleResponse, error) {
	var resp ScheduleResponse
	err := c.do(ctx, http.MethodPatch, schedulePath(id), nil, req, &resp)
	return resp, err
}

func (c *Client) DeleteSchedule(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, schedulePath(id), nil, nil, nil)
}

func (c *Client) CompleteSchedule(ctx context.Context, id int64) (ScheduleResponse, error) {
	var resp ScheduleResponse
	err := c.do(ctx, http.MethodPost, schedulePath(id)+"/complete", nil, nil, &resp)
	return resp, err
}

func (c *Client) UpdateMemo(ctx context.Context, id int64, memo string) (ScheduleResponse, error) {
	var resp ScheduleResponse
	err := c.do(ctx, http.MethodPut, schedulePath(id)+"/memo", nil, MemoUpdateRequest{Memo: memo}, &resp)
	return resp, err
}

func (c *Client) RequestCompletion(ctx context.Context, id int64) (MessageResponse, error) {
	var resp MessageResponse
	err := c.do(ctx, http.MethodPost, schedulePath(id)+"/completion-request", nil, nil, &resp)
	return resp, err
}

func (c *Client) ListAlarms(ctx context.Context, query url.Values) ([]AlarmResponse, error) {
	var resp []AlarmResponse
	err := c.do(ctx, http.MethodGet, "/v1/alarms", query, nil, &resp)
	return resp, err
}

func (c *Client) AckAlarm(ctx context.Context, id int64) (MessageResponse, error) {
	var resp MessageResponse
	err := c.do(ctx, http.MethodPost, "/v1/alarms/"+strconv.FormatInt(id, 10)+"/ack", nil, nil, &resp)
	return resp, err
}

func (c *Client) ClearAlarms(ctx context.Context) (ClearAlarmsResponse, error) {
	var resp ClearAlarmsResponse
	err := c.do(ctx, http.MethodDelete, "/v1/alarms", nil, nil, &resp)
	return resp, err
}

func schedulePath(id int64) string {
	return "/v1/schedules/" + strconv.FormatInt(id, 10)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}
	var errResp ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && errResp.Error != "" {
		apiErr.Code = errResp.Code
		apiErr.ErrorCode = errResp.ErrorCode
		apiErr.Message = errResp.Error
		return apiErr
	}
	apiErr.Message = fmt.Sprintf("api error: %s", resp.Status)
	return apiErr
}

func httpTimeoutFromEnv() time.Duration {
	value := strings.TrimSpace(os.Getenv(httpTimeoutEnvKey))
	if value == "" {
		return defaultHTTPTimeout
	}

	if duration, err := time.ParseDuration(value); err == nil && duration > 0 {
		return duration
	}
	if seconds, err := strconv.Atoi(value); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}

	return defaultHTTPTimeout
}
