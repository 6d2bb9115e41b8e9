package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"call_center_app_go/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestExotel(t *testing.T, handler http.HandlerFunc) (*ExotelClient, *httptest.Server) {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewExotelClient(&config.Config{
		ExotelBaseURL: server.URL,
		ExotelSID:     "acme",
		ExotelUser:    "apikey",
		ExotelToken:   "apitoken",
		ExotelNumber:  "08047110000",
		CallFlowSID:   "flow-1",
	})
	return client, server
}

func TestProviderTime_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		expect  time.Time
		wantErr bool
	}{
		{
			name:   "Space separated local time",
			input:  `"2024-03-01 10:15:30"`,
			expect: time.Date(2024, 3, 1, 10, 15, 30, 0, providerLocation),
		},
		{
			name:   "T separated local time",
			input:  `"2024-03-01T10:15:30"`,
			expect: time.Date(2024, 3, 1, 10, 15, 30, 0, providerLocation),
		},
		{
			name:   "RFC3339",
			input:  `"2024-03-01T04:45:30Z"`,
			expect: time.Date(2024, 3, 1, 4, 45, 30, 0, time.UTC),
		},
		{
			name:  "Null",
			input: `null`,
		},
		{
			name:    "Invalid",
			input:   `"01/03/2024"`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var pt ProviderTime
			err := json.Unmarshal([]byte(tt.input), &pt)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.expect.IsZero() {
				assert.True(t, pt.IsZero())
			} else {
				assert.True(t, tt.expect.Equal(pt.Time))
			}
		})
	}
}

func TestFlexString(t *testing.T) {
	var v struct {
		A FlexString `json:"a"`
		B FlexString `json:"b"`
		C FlexString `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":"42","b":17,"c":null}`), &v))
	assert.Equal(t, FlexString("42"), v.A)
	assert.Equal(t, FlexString("17"), v.B)
	assert.Equal(t, FlexString(""), v.C)
}

func TestExotelListCalls(t *testing.T) {
	client, _ := newTestExotel(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/Accounts/acme/Calls.json", r.URL.Path)
		assert.Equal(t, "50", r.URL.Query().Get("PageSize"))
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "apikey", user)
		assert.Equal(t, "apitoken", pass)

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"Calls":[{"Sid":"CA1","Status":"completed"},{"Sid":"CA2"}]}`)
	})

	calls, err := client.ListCalls(context.Background())
	require.NoError(t, err)
	require.Len(t, calls, 2)
	assert.Equal(t, "CA1", calls[0].Sid)
}

func TestExotelListCallsError(t *testing.T) {
	client, _ := newTestExotel(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	})

	_, err := client.ListCalls(context.Background())
	assert.ErrorContains(t, err, "502")
}

func TestExotelGetCallDetail(t *testing.T) {
	client, _ := newTestExotel(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/Accounts/acme/Calls/CA9.json", r.URL.Path)
		fmt.Fprint(w, `{"Call":{
			"Sid":"CA9","from":"09876543210","To":"08047110000","Status":"completed",
			"StartTime":"2024-03-01 10:00:00","EndTime":"2024-03-01 10:03:00",
			"Duration":180,"Direction":"inbound","RecordingUrl":"https://rec.example/CA9.mp3"
		}}`)
	})

	call, err := client.GetCallDetail(context.Background(), "CA9")
	require.NoError(t, err)
	assert.Equal(t, "CA9", call.Sid)
	assert.Equal(t, "09876543210", call.From, "lower-case keys are accepted")
	assert.Equal(t, "180", call.Duration)
	require.NotNil(t, call.StartTime)
	assert.Equal(t, 10, call.StartTime.In(providerLocation).Hour())
	require.Len(t, call.Recordings, 1)
	assert.Equal(t, "https://rec.example/CA9.mp3", *call.Recordings[0].RecordingURL)
}

func TestExotelGetCallDetailWithoutRecording(t *testing.T) {
	client, _ := newTestExotel(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"Call":{"Sid":"CA9","Status":"no-answer","StartTime":null}}`)
	})

	call, err := client.GetCallDetail(context.Background(), "CA9")
	require.NoError(t, err)
	assert.Empty(t, call.Recordings)
	assert.Nil(t, call.StartTime)
}

func TestExotelGetCallDetailUnknownCall(t *testing.T) {
	t.Run("provider 404", func(t *testing.T) {
		client, _ := newTestExotel(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"RestException":{"Status":404,"Message":"Not Found"}}`, http.StatusNotFound)
		})
		_, err := client.GetCallDetail(context.Background(), "CAunknown")
		assert.ErrorIs(t, err, ErrCallNotFound)
	})

	t.Run("empty call body", func(t *testing.T) {
		client, _ := newTestExotel(t, func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{}`)
		})
		_, err := client.GetCallDetail(context.Background(), "CAunknown")
		assert.ErrorIs(t, err, ErrCallNotFound)
	})

	t.Run("other failures are not a missing call", func(t *testing.T) {
		client, _ := newTestExotel(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		})
		_, err := client.GetCallDetail(context.Background(), "CA9")
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrCallNotFound)

		var statusErr *ProviderStatusError
		require.ErrorAs(t, err, &statusErr)
		assert.Equal(t, http.StatusBadGateway, statusErr.StatusCode)
	})
}

func TestExotelConnectCall(t *testing.T) {
	client, _ := newTestExotel(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/Accounts/acme/Calls/connect.json", r.URL.Path)
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "08047110000", r.PostForm.Get("From"))
		assert.Equal(t, "9876543210", r.PostForm.Get("To"))
		assert.Equal(t, "08047110000", r.PostForm.Get("CallerId"))
		assert.Equal(t, "flow-1", r.PostForm.Get("CallFlowSid"))
		fmt.Fprint(w, `{"Call":{"Sid":"CA-new","Status":"in-progress"}}`)
	})

	result, err := client.ConnectCall(context.Background(), "9876543210")
	require.NoError(t, err)
	assert.Equal(t, "CA-new", result.Sid)
	assert.Contains(t, result.Raw, "Call")
}

func TestExotelFetchRecording(t *testing.T) {
	client, server := newTestExotel(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "audio/wav")
		w.Write([]byte("RIFFDATA"))
	})

	body, contentType, err := client.FetchRecording(context.Background(), server.URL+"/rec.wav")
	require.NoError(t, err)
	defer body.Close()

	data, _ := io.ReadAll(body)
	assert.Equal(t, "audio/wav", contentType)
	assert.Equal(t, "RIFFDATA", string(data))
}

func TestExotelNotConfigured(t *testing.T) {
	client := NewExotelClient(&config.Config{ExotelBaseURL: "http://127.0.0.1:1"})
	_, err := client.ListCalls(context.Background())
	assert.ErrorIs(t, err, ErrProviderNotConfigured)
}
