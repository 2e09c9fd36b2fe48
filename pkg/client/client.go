// Package client is a typed REST client for the anatomy-game API. Every
// authenticated call takes the bearer token as an explicit argument so that
// callers, not the client, own the credential lifecycle.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const defaultTimeout = 15 * time.Second

// APIError is the normalized failure for any non-2xx response. Message
// prefers the server-supplied detail, then message, then the status text.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// Client issues requests against a versioned API root.
type Client struct {
	baseURL string
	http    *http.Client
	logger  zerolog.Logger
}

// Options configures optional client behavior.
type Options struct {
	HTTPClient *http.Client
	Logger     zerolog.Logger
}

// New creates a client for the given API root, e.g. "https://api.example.com/v1".
func New(baseURL string, opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		logger:  opts.Logger.With().Str("component", "api_client").Logger(),
	}
}

// do issues one request. A non-empty token becomes a bearer header. Bodies
// are JSON unless given as url.Values, which are sent form-encoded. A 204
// response is an empty success; non-2xx responses become *APIError.
func (c *Client) do(ctx context.Context, method, path, token string, body, out interface{}) error {
	var reader io.Reader
	contentType := ""
	switch b := body.(type) {
	case nil:
	case url.Values:
		reader = strings.NewReader(b.Encode())
		contentType = "application/x-www-form-urlencoded"
	default:
		buf, err := json.Marshal(b)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(buf)
		contentType = "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.errorFromResponse(resp)
	}
	if resp.StatusCode == http.StatusNoContent || out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) errorFromResponse(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}

	var body struct {
		Detail  string `json:"detail"`
		Message string `json:"message"`
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err == nil && json.Unmarshal(raw, &body) == nil {
		switch {
		case body.Detail != "":
			apiErr.Message = body.Detail
		case body.Message != "":
			apiErr.Message = body.Message
		}
	}

	c.logger.Debug().Int("status", apiErr.Status).Str("message", apiErr.Message).Msg("api request failed")
	return apiErr
}

// Register creates a new account.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	var user User
	if err := c.do(ctx, http.MethodPost, "/auth/register", "", req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Login exchanges credentials for a token pair.
func (c *Client) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	body := map[string]string{"email": email, "password": password}
	var pair TokenPair
	if err := c.do(ctx, http.MethodPost, "/auth/login", "", body, &pair); err != nil {
		return nil, err
	}
	return &pair, nil
}

// Refresh exchanges a refresh token for a new token pair.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	body := map[string]string{"refresh_token": refreshToken}
	var pair TokenPair
	if err := c.do(ctx, http.MethodPost, "/auth/refresh", "", body, &pair); err != nil {
		return nil, err
	}
	return &pair, nil
}

// Logout invalidates the session server-side. The server responds 204.
func (c *Client) Logout(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodPost, "/auth/logout", token, nil, nil)
}

// RequestPasswordReset asks the server to mail a reset link. Always succeeds
// for well-formed requests regardless of whether the address is known.
func (c *Client) RequestPasswordReset(ctx context.Context, email string) error {
	body := map[string]string{"email": email}
	return c.do(ctx, http.MethodPost, "/auth/forgot-password", "", body, nil)
}

// ResetPassword redeems a reset token for a new password.
func (c *Client) ResetPassword(ctx context.Context, token, newPassword string) error {
	body := map[string]string{"token": token, "new_password": newPassword}
	return c.do(ctx, http.MethodPost, "/auth/reset-password", "", body, nil)
}

// Me fetches the current user profile.
func (c *Client) Me(ctx context.Context, token string) (*User, error) {
	var user User
	if err := c.do(ctx, http.MethodGet, "/users/me", token, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// MySummary fetches the profile summary with per-system progress and missions.
func (c *Client) MySummary(ctx context.Context, token string) (*Summary, error) {
	var summary Summary
	if err := c.do(ctx, http.MethodGet, "/users/me/summary", token, nil, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

// UpdatePreferences merges the given keys into the stored preferences and
// returns the updated user.
func (c *Client) UpdatePreferences(ctx context.Context, token string, prefs map[string]interface{}) (*User, error) {
	var user User
	if err := c.do(ctx, http.MethodPost, "/users/me/preferences", token, prefs, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// DashboardSummary fetches the dashboard view.
func (c *Client) DashboardSummary(ctx context.Context, token string) (*DashboardSummary, error) {
	var summary DashboardSummary
	if err := c.do(ctx, http.MethodGet, "/dashboard/summary", token, nil, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

// Campaigns lists all campaigns with their lessons.
func (c *Client) Campaigns(ctx context.Context, token string) ([]Campaign, error) {
	var campaigns []Campaign
	if err := c.do(ctx, http.MethodGet, "/campaigns", token, nil, &campaigns); err != nil {
		return nil, err
	}
	return campaigns, nil
}

// RecordLessonProgress reports the status of one lesson.
func (c *Client) RecordLessonProgress(ctx context.Context, token string, lessonID uuid.UUID, status string, score *float64) (*LessonProgress, error) {
	body := map[string]interface{}{"status": status}
	if score != nil {
		body["score"] = *score
	}
	var progress LessonProgress
	path := "/campaigns/lessons/" + lessonID.String() + "/progress"
	if err := c.do(ctx, http.MethodPost, path, token, body, &progress); err != nil {
		return nil, err
	}
	return &progress, nil
}

// Leaderboard fetches the ranked board for a scope. referenceID narrows
// organization and classroom scopes and is ignored otherwise.
func (c *Client) Leaderboard(ctx context.Context, token, scope string, referenceID *uuid.UUID) (*Leaderboard, error) {
	q := url.Values{}
	if scope != "" {
		q.Set("scope", scope)
	}
	if referenceID != nil {
		q.Set("reference_id", referenceID.String())
	}
	path := "/leaderboard"
	if encoded := q.Encode(); encoded != "" {
		path += "?" + encoded
	}
	var board Leaderboard
	if err := c.do(ctx, http.MethodGet, path, token, nil, &board); err != nil {
		return nil, err
	}
	return &board, nil
}

// CreateQuizSession starts a new quiz session. The response embeds the
// question list without revealing answers.
func (c *Client) CreateQuizSession(ctx context.Context, token string, req CreateSessionRequest) (*Session, error) {
	var session Session
	if err := c.do(ctx, http.MethodPost, "/quizzes/sessions", token, req, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// SubmitAttempt records one answer and returns the server's verdict.
func (c *Client) SubmitAttempt(ctx context.Context, token string, sessionID, questionID, optionID uuid.UUID) (*AttemptResult, error) {
	body := map[string]string{
		"question_id": questionID.String(),
		"option_id":   optionID.String(),
	}
	var result AttemptResult
	path := "/quizzes/sessions/" + sessionID.String() + "/attempts"
	if err := c.do(ctx, http.MethodPost, path, token, body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// CompleteQuizSession finalizes a session with its elapsed duration.
func (c *Client) CompleteQuizSession(ctx context.Context, token string, sessionID uuid.UUID, durationSeconds int) (*Session, error) {
	var session Session
	path := "/quizzes/sessions/" + sessionID.String() + "/complete?duration_seconds=" + strconv.Itoa(durationSeconds)
	if err := c.do(ctx, http.MethodPost, path, token, nil, &session); err != nil {
		return nil, err
	}
	return &session, nil
}
