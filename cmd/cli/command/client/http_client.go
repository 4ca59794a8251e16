package client

// http_client.go = REST calls against the chat server's /api routes.

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

	"teamchat/cmd/cli/dto"
	"teamchat/pkg/models"
)

// APIError is a non-2xx reply from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request failed with status %d", e.StatusCode)
	}
	return fmt.Sprintf("request failed with status %d: %s", e.StatusCode, e.Message)
}

// IsUnauthorized reports whether err is a 401/403 from the server.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) &&
		(apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden)
}

type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
	token      string
}

// constructor for HTTP client
func NewHTTPClient(apiURL string) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(apiURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *HTTPClient) SetToken(token string) {
	c.token = token
}

// BaseURL is the server root the client talks to
func (c *HTTPClient) BaseURL() string {
	return c.baseURL
}

func (c *HTTPClient) Signup(ctx context.Context, req *dto.SignupRequest) (*dto.AuthResponse, error) {
	var out dto.AuthResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/signup", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	var out dto.AuthResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) ListChannels(ctx context.Context) ([]models.Channel, error) {
	var out dto.ChannelListResponse
	if err := c.do(ctx, http.MethodGet, "/api/channels", nil, &out); err != nil {
		return nil, err
	}
	return out.Channels, nil
}

func (c *HTTPClient) CreateChannel(ctx context.Context, name string) (*models.Channel, error) {
	var out models.Channel
	if err := c.do(ctx, http.MethodPost, "/api/channels", &dto.CreateChannelRequest{Name: name}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) JoinChannel(ctx context.Context, channelID int64) (*dto.JoinChannelResponse, error) {
	var out dto.JoinChannelResponse
	path := fmt.Sprintf("/api/channels/%d/join", channelID)
	if err := c.do(ctx, http.MethodPost, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) LeaveChannel(ctx context.Context, channelID int64) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/api/channels/%d/leave", channelID), nil, nil)
}

func (c *HTTPClient) ChannelMembers(ctx context.Context, channelID int64) ([]models.User, error) {
	var out dto.MembersResponse
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/users/channel/%d/members", channelID), nil, &out); err != nil {
		return nil, err
	}
	return out.Members, nil
}

func (c *HTTPClient) OnlineUsers(ctx context.Context) ([]models.User, error) {
	var out dto.OnlineUsersResponse
	if err := c.do(ctx, http.MethodGet, "/api/users/online", nil, &out); err != nil {
		return nil, err
	}
	return out.Users, nil
}

// History fetches one page, oldest first within the page. Page 1 is the newest.
func (c *HTTPClient) History(ctx context.Context, channelID int64, page, limit int) ([]models.MessageRecord, error) {
	q := url.Values{}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	path := fmt.Sprintf("/api/messages/%d", channelID)
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var out dto.HistoryResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Messages, nil
}

// do sends body as JSON and decodes a 2xx reply into out (if non-nil).
func (c *HTTPClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	response, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode > 299 {
		var e dto.ErrorResponse
		_ = json.NewDecoder(response.Body).Decode(&e)
		return &APIError{StatusCode: response.StatusCode, Message: e.Error}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(response.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
