package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"call_center_app_go/config"
	"call_center_app_go/models"
)

// TelephonyProvider is the call-record source and outbound dialer
type TelephonyProvider interface {
	// ListCalls returns the most recent call summaries
	ListCalls(ctx context.Context) ([]ProviderCallSummary, error)
	// GetCallDetail fetches one call and maps it onto a Call record
	GetCallDetail(ctx context.Context, sid string) (*models.Call, error)
	// ConnectCall places an outbound call to the given number
	ConnectCall(ctx context.Context, toNumber string) (*ConnectResult, error)
	// FetchRecording opens the audio stream behind a recording URL
	FetchRecording(ctx context.Context, recordingURL string) (io.ReadCloser, string, error)
}

// ProviderCallSummary is one entry of the provider's call list
type ProviderCallSummary struct {
	Sid    string `json:"Sid"`
	Status string `json:"Status"`
}

// ConnectResult carries the provider response for an outbound call
type ConnectResult struct {
	Sid string
	Raw map[string]interface{}
}

// Telephony is the global telephony provider
var Telephony TelephonyProvider

// ExotelPageSize is how many calls one sync cycle lists
const ExotelPageSize = 50

// ErrProviderNotConfigured is returned when provider credentials are missing
var ErrProviderNotConfigured = errors.New("telephony provider not configured")

// ExotelClient implements TelephonyProvider against the Exotel v1 REST API
type ExotelClient struct {
	baseURL     string
	accountSID  string
	user        string
	token       string
	number      string
	callFlowSID string
	client      *http.Client
}

// InitializeTelephony sets up the global provider from configuration
func InitializeTelephony(cfg *config.Config) {
	Telephony = NewExotelClient(cfg)
	if !cfg.ExotelConfigured() {
		log.Println("[WARNING] Exotel credentials missing; provider calls will fail until EXOTEL_SID, EXOTEL_USER and EXOTEL_TOKEN are set")
	}
}

// NewExotelClient creates a client with a 30 second timeout
func NewExotelClient(cfg *config.Config) *ExotelClient {
	return &ExotelClient{
		baseURL:     strings.TrimSuffix(cfg.ExotelBaseURL, "/"),
		accountSID:  cfg.ExotelSID,
		user:        cfg.ExotelUser,
		token:       cfg.ExotelToken,
		number:      cfg.ExotelNumber,
		callFlowSID: cfg.CallFlowSID,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (e *ExotelClient) accountURL(path string) string {
	return fmt.Sprintf("%s/v1/Accounts/%s/%s", e.baseURL, url.PathEscape(e.accountSID), path)
}

func (e *ExotelClient) newRequest(ctx context.Context, method, target string, body io.Reader) (*http.Request, error) {
	if e.accountSID == "" {
		return nil, ErrProviderNotConfigured
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.SetBasicAuth(e.user, e.token)
	return req, nil
}

func (e *ExotelClient) doJSON(req *http.Request, out interface{}) error {
	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &ProviderStatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// ProviderStatusError is a non-2xx response from the provider API
type ProviderStatusError struct {
	StatusCode int
	Body       string
}

func (e *ProviderStatusError) Error() string {
	return fmt.Sprintf("provider returned status %d: %s", e.StatusCode, e.Body)
}

// === Exotel wire structs ===

type exotelListResponse struct {
	Calls []ProviderCallSummary `json:"Calls"`
}

type exotelDetailResponse struct {
	Call exotelCall `json:"Call"`
}

type exotelCall struct {
	Sid          string        `json:"Sid"`
	From         string        `json:"From"`
	To           string        `json:"To"`
	Status       string        `json:"Status"`
	StartTime    *ProviderTime `json:"StartTime"`
	EndTime      *ProviderTime `json:"EndTime"`
	Duration     FlexString    `json:"Duration"`
	Direction    string        `json:"Direction"`
	PhoneNumber  string        `json:"PhoneNumberSid"`
	RecordingURL string        `json:"RecordingUrl"`
}

// ListCalls implements TelephonyProvider
func (e *ExotelClient) ListCalls(ctx context.Context) ([]ProviderCallSummary, error) {
	target := e.accountURL("Calls.json?PageSize=" + strconv.Itoa(ExotelPageSize))
	req, err := e.newRequest(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}

	var list exotelListResponse
	if err := e.doJSON(req, &list); err != nil {
		return nil, fmt.Errorf("list calls: %w", err)
	}
	return list.Calls, nil
}

// GetCallDetail implements TelephonyProvider
func (e *ExotelClient) GetCallDetail(ctx context.Context, sid string) (*models.Call, error) {
	target := e.accountURL("Calls/" + url.PathEscape(sid) + ".json")
	req, err := e.newRequest(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}

	var detail exotelDetailResponse
	if err := e.doJSON(req, &detail); err != nil {
		var statusErr *ProviderStatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("call detail %s: %w", sid, ErrCallNotFound)
		}
		return nil, fmt.Errorf("call detail %s: %w", sid, err)
	}
	if detail.Call.Sid == "" {
		return nil, fmt.Errorf("call detail %s: empty response: %w", sid, ErrCallNotFound)
	}
	return detail.Call.toModel(time.Now()), nil
}

func (c exotelCall) toModel(fetchedAt time.Time) *models.Call {
	call := &models.Call{
		Sid:           c.Sid,
		From:          c.From,
		To:            c.To,
		Status:        c.Status,
		StartTime:     c.StartTime.Ptr(),
		EndTime:       c.EndTime.Ptr(),
		Duration:      string(c.Duration),
		Direction:     c.Direction,
		VirtualNumber: c.PhoneNumber,
		Recordings:    models.RecordingList{},
	}
	if c.RecordingURL != "" {
		recURL := c.RecordingURL
		call.Recordings = append(call.Recordings, models.Recording{
			Sid:          c.Sid,
			RecordingURL: &recURL,
			CreatedAt:    &fetchedAt,
		})
	}
	return call
}

// ConnectCall implements TelephonyProvider
func (e *ExotelClient) ConnectCall(ctx context.Context, toNumber string) (*ConnectResult, error) {
	form := url.Values{}
	form.Set("From", e.number)
	form.Set("To", toNumber)
	form.Set("CallerId", e.number)
	form.Set("CallFlowSid", e.callFlowSID)

	req, err := e.newRequest(ctx, http.MethodPost, e.accountURL("Calls/connect.json"), strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	raw := map[string]interface{}{}
	if err := e.doJSON(req, &raw); err != nil {
		return nil, fmt.Errorf("connect call: %w", err)
	}

	result := &ConnectResult{Raw: raw}
	if call, ok := raw["Call"].(map[string]interface{}); ok {
		if sid, ok := call["Sid"].(string); ok {
			result.Sid = sid
		}
	}
	return result, nil
}

// FetchRecording implements TelephonyProvider. The caller closes the reader.
func (e *ExotelClient) FetchRecording(ctx context.Context, recordingURL string) (io.ReadCloser, string, error) {
	req, err := e.newRequest(ctx, http.MethodGet, recordingURL, nil)
	if err != nil {
		return nil, "", err
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("recording request failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, "", fmt.Errorf("recording returned status: %d", resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "audio/mpeg"
	}
	return resp.Body, contentType, nil
}

// providerLocation is the zone Exotel reports zone-less timestamps in
var providerLocation = func() *time.Location {
	loc, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		return time.FixedZone("IST", 5*3600+1800)
	}
	return loc
}()

// ProviderTime handles provider timestamps with or without a zone
type ProviderTime struct {
	time.Time
}

var providerTimeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

func (pt *ProviderTime) UnmarshalJSON(b []byte) error {
	s := string(b)
	if s == "null" || s == `""` {
		return nil
	}
	s = strings.Trim(s, `"`)

	if t, err := time.Parse(time.RFC3339, s); err == nil {
		pt.Time = t
		return nil
	}

	var lastErr error
	for _, layout := range providerTimeLayouts {
		t, err := time.ParseInLocation(layout, s, providerLocation)
		if err == nil {
			pt.Time = t
			return nil
		}
		lastErr = err
	}
	return lastErr
}

// Ptr returns the time or nil when unset
func (pt *ProviderTime) Ptr() *time.Time {
	if pt == nil || pt.IsZero() {
		return nil
	}
	t := pt.Time
	return &t
}

// FlexString accepts a JSON string or number
type FlexString string

func (f *FlexString) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*f = ""
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		*f = FlexString(str)
		return nil
	}
	*f = FlexString(s)
	return nil
}
