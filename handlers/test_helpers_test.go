package handlers

import (
	"context"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"call_center_app_go/config"
	"call_center_app_go/db"
	"call_center_app_go/models"
	"call_center_app_go/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const testJWTSecret = "handlers-test-secret-0123456789abcdef"

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	// Unique shared memory name isolates tests
	dbName := "mem_" + uuid.New().String()
	testDB, err := gorm.Open(sqlite.Open("file:"+dbName+"?mode=memory&cache=shared&_busy_timeout=5000"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := testDB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, testDB.AutoMigrate(models.All()...))

	db.DB = testDB
	services.Storage = services.NewLocalStorage(t.TempDir())
	t.Cleanup(func() {
		services.Storage = nil
		services.Telephony = nil
		services.AI = nil
	})
	return testDB
}

func testConfig() *config.Config {
	return &config.Config{
		Environment:      "test",
		JWTSecret:        testJWTSecret,
		TokenTTL:         time.Hour,
		BusinessTimezone: "Asia/Kolkata",
		EmailTestMode:    true,
	}
}

func setupEcho(method, path string, body io.Reader) (*echo.Echo, echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewRequestValidator()
	req := httptest.NewRequest(method, path, body)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	c.Set("config", testConfig())

	return e, c, rec
}

func jsonBody(s string) io.Reader {
	return strings.NewReader(s)
}

func stringToPtr(s string) *string {
	return &s
}

// fakeTelephony stands in for the provider
type fakeTelephony struct {
	mu        sync.Mutex
	summaries []services.ProviderCallSummary
	details   map[string]*models.Call
	audio     string
	connect   *services.ConnectResult
	err       error
	dialed    []string
}

func (f *fakeTelephony) ListCalls(ctx context.Context) ([]services.ProviderCallSummary, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.summaries, nil
}

func (f *fakeTelephony) GetCallDetail(ctx context.Context, sid string) (*models.Call, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	call, ok := f.details[sid]
	if !ok {
		return nil, fmt.Errorf("call detail %s: %w", sid, services.ErrCallNotFound)
	}
	copied := *call
	return &copied, nil
}

func (f *fakeTelephony) ConnectCall(ctx context.Context, toNumber string) (*services.ConnectResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.dialed = append(f.dialed, toNumber)
	return f.connect, nil
}

func (f *fakeTelephony) FetchRecording(ctx context.Context, recordingURL string) (io.ReadCloser, string, error) {
	if f.err != nil {
		return nil, "", f.err
	}
	return io.NopCloser(strings.NewReader(f.audio)), "audio/mpeg", nil
}

// fakeAI stands in for the language-model provider
type fakeAI struct {
	judgement services.LeadJudgement
	text      string
	summary   string
	err       error
}

func (f *fakeAI) ExtractLead(ctx context.Context, transcript string) (*services.LeadJudgement, error) {
	if f.err != nil {
		return nil, f.err
	}
	j := f.judgement
	return &j, nil
}

func (f *fakeAI) Transcribe(ctx context.Context, audioPath string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

func (f *fakeAI) Summarize(ctx context.Context, text string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.summary, nil
}

func recordedCall(sid string) *models.Call {
	now := time.Now()
	return &models.Call{
		Sid:        sid,
		Status:     "completed",
		StartTime:  &now,
		Recordings: models.RecordingList{{Sid: sid, RecordingURL: stringToPtr("https://recordings.example.com/" + sid + ".mp3")}},
	}
}
