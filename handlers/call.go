package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"call_center_app_go/db"
	"call_center_app_go/services"
	"call_center_app_go/services/jobs"

	"github.com/labstack/echo/v4"
)

type statusCallbackRequest struct {
	CallSid      string `json:"CallSid" form:"CallSid"`
	RecordingURL string `json:"RecordingUrl" form:"RecordingUrl"`
	Status       string `json:"Status" form:"Status"`
}

type outboundCallRequest struct {
	ToNumber string `json:"toNumber" validate:"required"`
}

type summarizeRequest struct {
	Text string `json:"text" validate:"required"`
}

// FetchCallsHandler runs one provider sync immediately
func FetchCallsHandler(c echo.Context) error {
	result, err := jobs.SyncProviderCalls(c.Request().Context(), db.DB, services.Telephony)
	if err != nil {
		log.Printf("[SYNC] Manual sync failed: %v", err)
		return errorJSON(c, http.StatusInternalServerError, "Failed to fetch calls")
	}
	log.Printf("[SYNC] Manual sync stored %d of %d calls", result.Upserted, result.Listed)
	return c.JSON(http.StatusOK, map[string]string{"message": "Calls fetched and saved successfully"})
}

// AnalyzeAllCallsHandler transcribes and analyzes every recorded call not yet analyzed
func AnalyzeAllCallsHandler(c echo.Context) error {
	cfg := getConfig(c)
	log.Println("[JOB] Starting batch analysis of calls for appointments")

	result, err := jobs.AnalyzePendingCalls(c.Request().Context(), db.DB, services.Telephony, services.AI,
		services.Storage, cfg.Location(), notifyAppointmentCreated(cfg))
	if err != nil {
		log.Printf("[JOB] Batch analysis failed: %v", err)
		return errorJSON(c, http.StatusInternalServerError, "Failed to perform batch analysis.")
	}

	return c.JSON(http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Successfully analyzed %d calls.", result.Pending),
	})
}

// callFilterFromQuery reads the call list filters shared by listing and export
func callFilterFromQuery(c echo.Context) (services.CallFilter, error) {
	loc := getConfig(c).Location()
	filter := services.CallFilter{
		SearchID:  c.QueryParam("searchId"),
		Status:    c.QueryParam("status"),
		Direction: c.QueryParam("direction"),
	}
	filter.Page, _ = strconv.Atoi(c.QueryParam("page"))
	filter.Limit, _ = strconv.Atoi(c.QueryParam("limit"))

	var err error
	if filter.StartDate, err = parseOptionalDateTime(c.QueryParam("startDate"), loc); err != nil {
		return filter, err
	}
	if filter.EndDate, err = parseOptionalDateTime(c.QueryParam("endDate"), loc); err != nil {
		return filter, err
	}
	return filter, nil
}

// ListCallsHandler returns stored calls, newest first
func ListCallsHandler(c echo.Context) error {
	filter, err := callFilterFromQuery(c)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "Invalid date filter")
	}

	page, err := services.ListCalls(db.DB, filter)
	if err != nil {
		log.Printf("Error fetching calls from DB: %v", err)
		return errorJSON(c, http.StatusInternalServerError, "Failed to fetch calls from DB")
	}
	return c.JSON(http.StatusOK, page)
}

// ExportCallsHandler downloads the filtered calls as a workbook
func ExportCallsHandler(c echo.Context) error {
	filter, err := callFilterFromQuery(c)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "Invalid date filter")
	}

	calls, err := services.ListAllCalls(db.DB, filter)
	if err != nil {
		log.Printf("Error exporting calls: %v", err)
		return errorJSON(c, http.StatusInternalServerError, "Failed to export calls")
	}

	loc := getConfig(c).Location()
	buf, err := services.ExportCalls(calls, loc)
	if err != nil {
		log.Printf("Error building call workbook: %v", err)
		return errorJSON(c, http.StatusInternalServerError, "Failed to export calls")
	}

	filename := fmt.Sprintf("calls_%s.xlsx", time.Now().In(loc).Format("2006-01-02"))
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return c.Blob(http.StatusOK, services.XLSXContentType, buf.Bytes())
}

// StatusCallbackHandler receives provider status pushes, as JSON or form data
func StatusCallbackHandler(c echo.Context) error {
	var req statusCallbackRequest
	if err := c.Bind(&req); err != nil {
		log.Printf("Error handling status callback: %v", err)
		return c.String(http.StatusInternalServerError, "Error")
	}

	var recordingURL *string
	if req.RecordingURL != "" {
		recordingURL = &req.RecordingURL
	}
	if err := services.ApplyStatusCallback(db.DB, req.CallSid, req.Status, recordingURL, time.Now()); err != nil {
		log.Printf("Error handling status callback: %v", err)
		return c.String(http.StatusInternalServerError, "Error")
	}

	log.Printf("Status callback received for CallSid %s", req.CallSid)
	return c.String(http.StatusOK, "OK")
}

// OutboundCallHandler places a call through the provider and stores its detail
func OutboundCallHandler(c echo.Context) error {
	var req outboundCallRequest
	if err := c.Bind(&req); err != nil || c.Validate(&req) != nil {
		return errorJSON(c, http.StatusBadRequest, "toNumber is required")
	}

	ctx := c.Request().Context()
	result, err := services.Telephony.ConnectCall(ctx, req.ToNumber)
	if err != nil {
		log.Printf("Error making outbound call: %v", err)
		return errorJSON(c, http.StatusInternalServerError, "Failed to initiate call")
	}

	if result.Sid != "" {
		detail, err := services.Telephony.GetCallDetail(ctx, result.Sid)
		if err != nil {
			log.Printf("[WARNING] Could not fetch details of new call %s: %v", result.Sid, err)
		} else if err := services.UpsertCall(db.DB, detail); err != nil {
			log.Printf("[WARNING] Could not store new call %s: %v", result.Sid, err)
		}
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "Call initiated successfully!",
		"data":    result.Raw,
	})
}

// RecordingHandler streams a call's audio
func RecordingHandler(c echo.Context) error {
	callSid := c.Param("callSid")
	reader, contentType, err := services.OpenRecording(c.Request().Context(), db.DB, services.Telephony, services.Storage, callSid)
	if err != nil {
		if errors.Is(err, services.ErrRecordingNotFound) {
			return errorJSON(c, http.StatusNotFound, "Recording not found")
		}
		log.Printf("Error streaming recording %s: %v", callSid, err)
		return errorJSON(c, http.StatusInternalServerError, "Failed to fetch recording")
	}
	defer reader.Close()

	if contentType == "" {
		contentType = "audio/mpeg"
	}
	return c.Stream(http.StatusOK, contentType, reader)
}

// TranscribeHandler returns a call's transcript, transcribing on first request
func TranscribeHandler(c echo.Context) error {
	callSid := c.Param("callSid")
	text, err := services.TranscribeCall(c.Request().Context(), db.DB, services.Telephony, services.AI, services.Storage, callSid)
	if err != nil {
		if errors.Is(err, services.ErrRecordingNotFound) {
			return errorJSON(c, http.StatusNotFound, "Recording not found for transcription")
		}
		log.Printf("[TRANSCRIBE] Error transcribing %s: %v", callSid, err)
		return errorJSON(c, http.StatusInternalServerError, "Failed to transcribe recording")
	}
	return c.JSON(http.StatusOK, map[string]string{"text": text})
}

// SummarizeHandler condenses arbitrary text
func SummarizeHandler(c echo.Context) error {
	var req summarizeRequest
	if err := c.Bind(&req); err != nil || c.Validate(&req) != nil {
		return errorJSON(c, http.StatusBadRequest, "text is required")
	}

	summary, err := services.AI.Summarize(c.Request().Context(), req.Text)
	if err != nil {
		log.Printf("Error generating summary: %v", err)
		return errorJSON(c, http.StatusInternalServerError, "Failed to generate summary")
	}
	return c.JSON(http.StatusOK, map[string]string{"summary": summary})
}
