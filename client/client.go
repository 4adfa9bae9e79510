// Package client is a typed HTTP client for the therapy API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"therapy/apperrors"
	"therapy/models"
)

// Client calls the API as the holder of Token. Errors returned by the
// server are *apperrors.Error values; transport failures are not.
type Client struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

func New(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		Token:      token,
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	u := c.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rdr = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, rdr)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s %s: read body: %w", method, path, err)
	}
	if resp.StatusCode >= 400 {
		return decodeError(resp.StatusCode, data)
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, out)
}

func decodeError(status int, data []byte) error {
	var e struct {
		Message string `json:"message"`
		Code    string `json:"code"`
	}
	if err := json.Unmarshal(data, &e); err != nil || e.Code == "" {
		return fmt.Errorf("unexpected status %d: %s", status, strings.TrimSpace(string(data)))
	}
	kind := apperrors.Kind(e.Code)
	if kind == apperrors.KindInternal || status >= 500 && kind != apperrors.KindProviderUnavailable {
		return fmt.Errorf("server error %d: %s", status, e.Message)
	}
	return &apperrors.Error{Kind: kind, Message: e.Message}
}

func (c *Client) CreateSlot(ctx context.Context, date, timeRange string) (*models.Slot, error) {
	var out models.Slot
	err := c.do(ctx, http.MethodPost, "/api/slots", nil, models.CreateSlotRequest{Date: date, TimeRange: timeRange}, &out)
	return &out, err
}

func (c *Client) ListSlots(ctx context.Context, therapistID, from, to string) ([]models.Slot, error) {
	q := url.Values{}
	setIf(q, "therapistId", therapistID)
	setIf(q, "from", from)
	setIf(q, "to", to)
	var out struct{ Slots []models.Slot }
	err := c.do(ctx, http.MethodGet, "/api/slots", q, nil, &out)
	return out.Slots, err
}

func (c *Client) ListAvailable(ctx context.Context, therapistID, date string) ([]models.Slot, error) {
	q := url.Values{}
	setIf(q, "therapistId", therapistID)
	setIf(q, "date", date)
	var out struct{ Slots []models.Slot }
	err := c.do(ctx, http.MethodGet, "/api/slots/available", q, nil, &out)
	return out.Slots, err
}

func (c *Client) RemoveSlot(ctx context.Context, slotID string) error {
	return c.do(ctx, http.MethodDelete, "/api/slots/"+url.PathEscape(slotID), nil, nil, nil)
}

func (c *Client) Book(ctx context.Context, slotID string) (*models.Session, error) {
	return c.session(ctx, http.MethodPost, "/api/sessions", models.BookSessionRequest{SlotID: slotID})
}

func (c *Client) RequestSession(ctx context.Context, therapistID, date, clock string) (*models.Session, error) {
	return c.session(ctx, http.MethodPost, "/api/sessions", models.BookSessionRequest{
		TherapistID: therapistID, ScheduledDate: date, ScheduledTime: clock,
	})
}

func (c *Client) ListSessions(ctx context.Context, status models.SessionStatus) ([]models.Session, error) {
	q := url.Values{}
	setIf(q, "status", string(status))
	var out struct{ Sessions []models.Session }
	err := c.do(ctx, http.MethodGet, "/api/sessions", q, nil, &out)
	return out.Sessions, err
}

func (c *Client) GetSession(ctx context.Context, id string) (*models.Session, error) {
	return c.session(ctx, http.MethodGet, sessionPath(id, ""), nil)
}

func (c *Client) Confirm(ctx context.Context, id string) (*models.Session, error) {
	return c.session(ctx, http.MethodPost, sessionPath(id, "/confirm"), nil)
}

func (c *Client) Decline(ctx context.Context, id, reason string) (*models.Session, error) {
	return c.session(ctx, http.MethodPost, sessionPath(id, "/decline"), map[string]string{"reason": reason})
}

func (c *Client) Cancel(ctx context.Context, id, reason string) (*models.Session, error) {
	return c.session(ctx, http.MethodPost, sessionPath(id, "/cancel"), map[string]string{"reason": reason})
}

func (c *Client) Complete(ctx context.Context, id, notes string) (*models.Session, error) {
	return c.session(ctx, http.MethodPost, sessionPath(id, "/complete"), map[string]string{"notes": notes})
}

func (c *Client) AddNote(ctx context.Context, id, text string) (*models.Session, error) {
	return c.session(ctx, http.MethodPost, sessionPath(id, "/notes"), map[string]string{"text": text})
}

func (c *Client) RequestCall(ctx context.Context, id string) (*models.Session, error) {
	return c.session(ctx, http.MethodPost, sessionPath(id, "/call/request"), nil)
}

func (c *Client) RespondToCall(ctx context.Context, id string, decision models.CallDecision) (*models.Session, error) {
	return c.session(ctx, http.MethodPost, sessionPath(id, "/call/respond"), models.CallResponse{Decision: decision})
}

func (c *Client) ActivateCall(ctx context.Context, id string) (*models.Session, error) {
	return c.session(ctx, http.MethodPost, sessionPath(id, "/call/activate"), nil)
}

func (c *Client) EndCall(ctx context.Context, id string) (*models.Session, error) {
	return c.session(ctx, http.MethodPost, sessionPath(id, "/call/end"), nil)
}

func (c *Client) CallToken(ctx context.Context) (*models.CallTokenResponse, error) {
	var out models.CallTokenResponse
	err := c.do(ctx, http.MethodGet, "/api/calls/token", nil, nil, &out)
	return &out, err
}

func (c *Client) session(ctx context.Context, method, path string, body interface{}) (*models.Session, error) {
	var out models.Session
	if err := c.do(ctx, method, path, nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func sessionPath(id, suffix string) string {
	return "/api/sessions/" + url.PathEscape(id) + suffix
}

func setIf(q url.Values, key, value string) {
	if value != "" {
		q.Set(key, value)
	}
}
