package callprovider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"therapy/apperrors"
	"therapy/observability"

	"github.com/golang-jwt/jwt"
)

const (
	DefaultBaseURL = "https://api.videosdk.live"
	tokenTTL       = 24 * time.Hour
)

// VideoSDKClient provisions rooms on VideoSDK and mints participant tokens.
type VideoSDKClient struct {
	apiKey  string
	secret  string
	baseURL string
	http    *http.Client
	metrics *observability.Metrics
	now     func() time.Time
}

func NewVideoSDKClient(apiKey, secret, baseURL string, timeout time.Duration, metrics *observability.Metrics) *VideoSDKClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &VideoSDKClient{
		apiKey:  apiKey,
		secret:  secret,
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		metrics: metrics,
		now:     time.Now,
	}
}

// Token returns a signed participant token and its expiry.
func (c *VideoSDKClient) Token() (string, time.Time, error) {
	if c.apiKey == "" || c.secret == "" {
		return "", time.Time{}, apperrors.New(apperrors.KindProviderUnavailable, "video provider credentials are not configured")
	}
	now := c.now()
	exp := now.Add(tokenTTL)
	claims := jwt.MapClaims{
		"apikey":      c.apiKey,
		"permissions": []string{"allow_join", "allow_mod"},
		"version":     2,
		"iat":         now.Unix(),
		"exp":         exp.Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(c.secret))
	if err != nil {
		return "", time.Time{}, apperrors.Wrap(apperrors.KindInternal, err, "sign video token")
	}
	return signed, exp, nil
}

type createRoomResponse struct {
	RoomID string `json:"roomId"`
}

// CreateRoom provisions a room and returns its id. Every failure is a
// retryable ProviderUnavailable.
func (c *VideoSDKClient) CreateRoom(ctx context.Context) (roomID string, err error) {
	start := time.Now()
	status := "ok"
	defer func() {
		if err != nil {
			status = "error"
		}
		c.metrics.ObserveProvider("create_room", status, time.Since(start).Seconds())
	}()

	token, _, err := c.Token()
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v2/rooms", bytes.NewReader([]byte("{}")))
	if err != nil {
		return "", apperrors.Wrap(apperrors.KindInternal, err, "build room request")
	}
	req.Header.Set("Authorization", token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", apperrors.Wrap(apperrors.KindProviderUnavailable, err, "create room")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", apperrors.Wrap(apperrors.KindProviderUnavailable, err, "read room response")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", apperrors.Wrap(apperrors.KindProviderUnavailable,
			fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))), "create room")
	}

	var out createRoomResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", apperrors.Wrap(apperrors.KindProviderUnavailable, err, "decode room response")
	}
	if out.RoomID == "" {
		return "", apperrors.Wrap(apperrors.KindProviderUnavailable, errors.New("empty roomId"), "create room")
	}
	return out.RoomID, nil
}
