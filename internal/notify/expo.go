package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"
)

const (
	// ClientTimeout is the total request timeout.
	ClientTimeout = 15 * time.Second
	// DialTimeout is the connection timeout.
	DialTimeout = 5 * time.Second
	// TLSHandshakeTimeout is the TLS negotiation timeout.
	TLSHandshakeTimeout = 5 * time.Second
	// ResponseHeaderTimeout is time to wait for response headers.
	ResponseHeaderTimeout = 10 * time.Second

	maxResponseBody = 64 << 10
)

var (
	// ErrInvalidPushToken is returned for tokens that are not Expo push tokens.
	ErrInvalidPushToken = errors.New("invalid push token")
)

// PushError is a rejection reported by the push gateway.
type PushError struct {
	Code    string
	Message string
}

func (e *PushError) Error() string {
	if e.Code == "" {
		return "push rejected: " + e.Message
	}
	return fmt.Sprintf("push rejected (%s): %s", e.Code, e.Message)
}

// NewHTTPClient creates an HTTP client for the push gateway.
// Redirects are not followed.
func NewHTTPClient() *http.Client {
	return &http.Client{
		Timeout: ClientTimeout,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   DialTimeout,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout:   TLSHandshakeTimeout,
			ResponseHeaderTimeout: ResponseHeaderTimeout,
			MaxIdleConns:          20,
			MaxIdleConnsPerHost:   10,
			IdleConnTimeout:       90 * time.Second,
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

// IsExpoPushToken reports whether token looks like ExponentPushToken[...] or ExpoPushToken[...].
func IsExpoPushToken(token string) bool {
	for _, prefix := range []string{"ExponentPushToken[", "ExpoPushToken["} {
		if strings.HasPrefix(token, prefix) && strings.HasSuffix(token, "]") && len(token) > len(prefix)+1 {
			return true
		}
	}
	return false
}

// ExpoSender delivers notifications through the Expo push HTTP API.
type ExpoSender struct {
	client      *http.Client
	url         string
	accessToken string
	limiter     *rate.Limiter
}

// NewExpoSender creates an ExpoSender that sends at most rps requests per second.
func NewExpoSender(client *http.Client, url, accessToken string, rps float64) *ExpoSender {
	if client == nil {
		client = NewHTTPClient()
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	return &ExpoSender{
		client:      client,
		url:         url,
		accessToken: accessToken,
		limiter:     rate.NewLimiter(rate.Limit(rps), burst),
	}
}

type expoMessage struct {
	To    string            `json:"to"`
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
	Sound string            `json:"sound"`
}

// Send posts one message and checks the returned push ticket.
func (s *ExpoSender) Send(ctx context.Context, msg Message) error {
	if !IsExpoPushToken(msg.To) {
		return ErrInvalidPushToken
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("wait for push rate limit: %w", err)
	}

	body, err := json.Marshal([]expoMessage{{
		To:    msg.To,
		Title: msg.Title,
		Body:  msg.Body,
		Data:  msg.Data,
		Sound: "default",
	}})
	if err != nil {
		return fmt.Errorf("marshal push message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "BeanBook-Push/1.0")
	if s.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+s.accessToken)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send push request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return fmt.Errorf("read push response: %w", err)
	}

	return parseExpoResponse(resp.StatusCode, raw)
}

// parseExpoResponse turns a gateway reply into nil or a *PushError.
func parseExpoResponse(status int, raw []byte) error {
	if !gjson.ValidBytes(raw) {
		if status >= 300 {
			return &PushError{Code: fmt.Sprintf("HTTP_%d", status), Message: http.StatusText(status)}
		}
		return &PushError{Code: "INVALID_RESPONSE", Message: "push gateway returned a non-JSON body"}
	}

	doc := gjson.ParseBytes(raw)

	if reqErr := doc.Get("errors.0"); reqErr.Exists() {
		return &PushError{Code: reqErr.Get("code").String(), Message: reqErr.Get("message").String()}
	}
	if status >= 300 {
		return &PushError{Code: fmt.Sprintf("HTTP_%d", status), Message: http.StatusText(status)}
	}

	ticket := doc.Get("data.0")
	if !ticket.Exists() {
		ticket = doc.Get("data")
	}
	if ticket.Get("status").String() == "error" {
		return &PushError{
			Code:    ticket.Get("details.error").String(),
			Message: ticket.Get("message").String(),
		}
	}
	if ticket.Get("status").String() != "ok" {
		return &PushError{Code: "INVALID_RESPONSE", Message: "push ticket missing status"}
	}

	return nil
}
