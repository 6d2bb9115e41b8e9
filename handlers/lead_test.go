package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"call_center_app_go/models"
	"call_center_app_go/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeLeadHandler(t *testing.T) {
	testDB := setupTestDB(t)
	require.NoError(t, services.UpsertCall(testDB, &models.Call{Sid: "CAlead"}))
	services.AI = &fakeAI{judgement: services.LeadJudgement{
		IsLead:          true,
		CustomerName:    "  Priya ",
		PhoneNumber:     "+91 98765-43210",
		ProductInterest: "Inverter",
		IsAppointment:   true,
	}}

	body := `{"callSid":"CAlead","transcription":"Hi, I am Priya, call me on 98765 43210 about an inverter"}`
	_, c, rec := setupEcho(http.MethodPost, "/api/analyze-lead", jsonBody(body))
	require.NoError(t, AnalyzeLeadHandler(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var judgement services.LeadJudgement
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &judgement))
	assert.Equal(t, "Priya", judgement.CustomerName)
	assert.Equal(t, "9876543210", judgement.PhoneNumber)
	assert.Equal(t, 1.0, judgement.ConfidenceScore)
	assert.Equal(t, models.ExtractionMethodGPT4oMini, judgement.ExtractionMethod)

	call, err := services.GetCallBySid(testDB, "CAlead")
	require.NoError(t, err)
	assert.True(t, call.IsLead)
	assert.NotNil(t, call.LeadAnalysisAt)

	first, err := services.GetAppointmentByCallSid(testDB, "CAlead")
	require.NoError(t, err)

	// a second analysis keeps the first appointment
	_, c, rec = setupEcho(http.MethodPost, "/api/analyze-lead", jsonBody(body))
	require.NoError(t, AnalyzeLeadHandler(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var count int64
	require.NoError(t, testDB.Model(&models.Appointment{}).Where("call_sid = ?", "CAlead").Count(&count).Error)
	assert.Equal(t, int64(1), count)
	again, err := services.GetAppointmentByCallSid(testDB, "CAlead")
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
}

func TestAnalyzeLeadHandlerErrors(t *testing.T) {
	setupTestDB(t)

	t.Run("missing transcription", func(t *testing.T) {
		_, c, rec := setupEcho(http.MethodPost, "/api/analyze-lead", jsonBody(`{"callSid":"CA1"}`))
		require.NoError(t, AnalyzeLeadHandler(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "callSid and transcription are required")
	})

	t.Run("provider failure", func(t *testing.T) {
		services.AI = &fakeAI{err: errors.New("upstream 500")}
		_, c, rec := setupEcho(http.MethodPost, "/api/analyze-lead", jsonBody(`{"callSid":"CA1","transcription":"x"}`))
		require.NoError(t, AnalyzeLeadHandler(c))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Contains(t, rec.Body.String(), "Failed to analyze call for lead information")
	})
}
