package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chatResponse(content string) map[string]interface{} {
	return map[string]interface{}{
		"id":     "chatcmpl-1",
		"object": "chat.completion",
		"model":  "gpt-4o-mini",
		"choices": []map[string]interface{}{
			{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]interface{}{"role": "assistant", "content": content},
			},
		},
	}
}

func newFakeOpenAI(t *testing.T, handler http.HandlerFunc) *OpenAIClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewOpenAIClient("test-key", server.URL+"/v1")
}

func TestExtractLead(t *testing.T) {
	var gotModel string
	var gotFormat string
	client := newFakeOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var body struct {
			Model          string `json:"model"`
			ResponseFormat struct {
				Type string `json:"type"`
			} `json:"response_format"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		gotModel = body.Model
		gotFormat = body.ResponseFormat.Type

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(chatResponse(`{"is_lead":true,"customer_name":"Priya","phone_number":9876543210,"product_interest":"jeans","customer_need":"","is_appointment":true,"confidence_score":0.4}`))
	})

	judgement, err := client.ExtractLead(context.Background(), "मेरा नाम प्रिया है")
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o-mini", gotModel)
	assert.Equal(t, "json_object", gotFormat)
	assert.True(t, judgement.IsLead)
	assert.Equal(t, "Priya", judgement.CustomerName)
	assert.Equal(t, "9876543210", judgement.PhoneNumber)
	assert.True(t, judgement.IsAppointment)
}

func TestExtractLeadMalformedContent(t *testing.T) {
	client := newFakeOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(chatResponse("not json"))
	})

	_, err := client.ExtractLead(context.Background(), "hello")
	assert.Error(t, err)
}

func TestExtractLeadEmptyChoices(t *testing.T) {
	client := newFakeOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"x","choices":[]}`))
	})

	_, err := client.ExtractLead(context.Background(), "hello")
	assert.ErrorIs(t, err, ErrEmptyCompletion)
}

func TestExtractLeadUpstreamError(t *testing.T) {
	client := newFakeOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limited","type":"requests"}}`))
	})

	_, err := client.ExtractLead(context.Background(), "hello")
	assert.Error(t, err)
}

func TestTranscribe(t *testing.T) {
	client := newFakeOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/audio/transcriptions", r.URL.Path)
		assert.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "whisper-1", r.FormValue("model"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"text":"namaste ji"}`))
	})

	audio := filepath.Join(t.TempDir(), "call.mp3")
	require.NoError(t, os.WriteFile(audio, []byte("ID3fake"), 0644))

	text, err := client.Transcribe(context.Background(), audio)
	require.NoError(t, err)
	assert.Equal(t, "namaste ji", text)
}

func TestSummarize(t *testing.T) {
	client := newFakeOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(chatResponse("Customer asked about jeans."))
	})

	summary, err := client.Summarize(context.Background(), "long transcript")
	require.NoError(t, err)
	assert.Equal(t, "Customer asked about jeans.", summary)
}
