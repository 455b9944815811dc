// Package api implements the HTTP/JSON client for the Lairn quiz backend.
// Each call is request/response: exactly one success or one failure, with
// correctness always authoritative from the backend.
package api

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

	"lairn-cli/internal/domain"
)

// Client talks to one backend instance.
type Client struct {
	baseURL string
	http    *http.Client
}

// New builds a client for baseURL. A zero timeout leaves the http.Client
// default in place.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// CreateSession generates a new quiz session from cfg.
func (c *Client) CreateSession(ctx context.Context, cfg domain.QuizConfig) (domain.Session, error) {
	var session domain.Session
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/quiz/sessions", cfg, &session); err != nil {
		return domain.Session{}, fmt.Errorf("create session: %w", err)
	}
	return session, nil
}

// SubmitAnswer grades input for one question of one session.
func (c *Client) SubmitAnswer(ctx context.Context, sessionID, questionID string, input domain.AnswerInput) (domain.GradedAnswer, error) {
	path := fmt.Sprintf("/api/v1/quiz/sessions/%s/questions/%s/answer",
		url.PathEscape(sessionID), url.PathEscape(questionID))
	var graded domain.GradedAnswer
	if err := c.doJSON(ctx, http.MethodPost, path, input, &graded); err != nil {
		return domain.GradedAnswer{}, fmt.Errorf("submit answer: %w", err)
	}
	return graded, nil
}

// SessionSummary fetches the aggregate score for a session.
func (c *Client) SessionSummary(ctx context.Context, sessionID string) (domain.Summary, error) {
	path := "/api/v1/quiz/sessions/" + url.PathEscape(sessionID) + "/summary"
	var summary domain.Summary
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &summary); err != nil {
		return domain.Summary{}, fmt.Errorf("session summary: %w", err)
	}
	return summary, nil
}

// ListSessions pages through past sessions, newest first.
func (c *Client) ListSessions(ctx context.Context, limit, offset int) (domain.SessionPage, error) {
	path := "/api/v1/quiz/sessions?limit=" + strconv.Itoa(limit) + "&offset=" + strconv.Itoa(offset)
	var page domain.SessionPage
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &page); err != nil {
		return domain.SessionPage{}, fmt.Errorf("list sessions: %w", err)
	}
	return page, nil
}

// Health fetches the advisory backend status.
func (c *Client) Health(ctx context.Context) (domain.Health, error) {
	var health domain.Health
	if err := c.doJSON(ctx, http.MethodGet, "/health", nil, &health); err != nil {
		return domain.Health{}, fmt.Errorf("health: %w", err)
	}
	return health, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode/100 != 2 {
		return &StatusError{Code: res.StatusCode, Status: res.Status}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(res.Body).Decode(out)
}

// StatusError reports a non-2xx backend response.
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return "backend returned " + e.Status
}
