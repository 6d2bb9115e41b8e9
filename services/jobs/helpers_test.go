package jobs

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"sync"
	"testing"

	"call_center_app_go/models"
	"call_center_app_go/services"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	dbName := "mem_" + uuid.New().String()
	testDB, err := gorm.Open(sqlite.Open("file:"+dbName+"?mode=memory&cache=shared&_busy_timeout=5000"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := testDB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, testDB.AutoMigrate(models.All()...))
	return testDB
}

// fakeProvider serves canned call lists and details
type fakeProvider struct {
	mu        sync.Mutex
	summaries []services.ProviderCallSummary
	details   map[string]*models.Call
	listErr   error
	audio     string
}

func (f *fakeProvider) ListCalls(ctx context.Context) ([]services.ProviderCallSummary, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.summaries, nil
}

func (f *fakeProvider) GetCallDetail(ctx context.Context, sid string) (*models.Call, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	call, ok := f.details[sid]
	if !ok {
		return nil, errors.New("provider returned status 500")
	}
	c := *call
	return &c, nil
}

func (f *fakeProvider) ConnectCall(ctx context.Context, toNumber string) (*services.ConnectResult, error) {
	return nil, errors.New("not supported")
}

func (f *fakeProvider) FetchRecording(ctx context.Context, recordingURL string) (io.ReadCloser, string, error) {
	// the URL rides along in the audio so the analyzer can tell calls apart
	return io.NopCloser(strings.NewReader(f.audio + recordingURL)), "audio/mpeg", nil
}

type fakeAnalyzer struct {
	transcripts map[string]string
	judgement   services.LeadJudgement
	failFor     string
}

func (f *fakeAnalyzer) Transcribe(ctx context.Context, audioPath string) (string, error) {
	audio, err := os.ReadFile(audioPath)
	if err != nil {
		return "", err
	}
	for sid, text := range f.transcripts {
		if strings.Contains(string(audio), "/"+sid+".mp3") {
			return text, nil
		}
	}
	return "", errors.New("unknown audio")
}

func (f *fakeAnalyzer) ExtractLead(ctx context.Context, transcript string) (*services.LeadJudgement, error) {
	if f.failFor != "" && transcript == f.failFor {
		return nil, errors.New("model unavailable")
	}
	j := f.judgement
	return &j, nil
}

type recordingBroadcaster struct {
	mu       sync.Mutex
	messages [][]byte
}

func (r *recordingBroadcaster) Broadcast(msg []byte) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, msg)
	return 1
}

func (r *recordingBroadcaster) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.messages)
}

func recordedCall(sid, status string) *models.Call {
	url := "https://recordings.example/" + sid + ".mp3"
	return &models.Call{Sid: sid, Status: status, Recordings: models.RecordingList{{Sid: sid, RecordingURL: &url}}}
}
