package handlers

import (
	"log"
	"net/http"
	"time"

	"call_center_app_go/config"
	"call_center_app_go/db"
	"call_center_app_go/models"
	"call_center_app_go/services"

	"github.com/labstack/echo/v4"
)

type analyzeLeadRequest struct {
	CallSid       string `json:"callSid" validate:"required"`
	Transcription string `json:"transcription" validate:"required"`
}

// AnalyzeLeadHandler runs lead analysis on a transcript and returns the normalized result
func AnalyzeLeadHandler(c echo.Context) error {
	var req analyzeLeadRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		log.Println("[LEAD] Missing callSid or transcription")
		return errorJSON(c, http.StatusBadRequest, "callSid and transcription are required")
	}

	cfg := getConfig(c)
	log.Printf("[LEAD] Analyzing call %s for lead information", req.CallSid)

	analysis, err := services.AnalyzeCallLead(c.Request().Context(), db.DB, services.AI, req.CallSid, req.Transcription, time.Now().In(cfg.Location()))
	if err != nil {
		log.Printf("[LEAD] Error analyzing call %s: %v", req.CallSid, err)
		return errorJSON(c, http.StatusInternalServerError, "Failed to analyze call for lead information")
	}

	if analysis.AppointmentCreated {
		notifyAppointmentCreated(cfg)(analysis.Appointment)
	}

	log.Printf("[LEAD] Analysis complete for %s", req.CallSid)
	return c.JSON(http.StatusOK, analysis.Judgement)
}

// notifyAppointmentCreated mails staff about an appointment created from a call
func notifyAppointmentCreated(cfg *config.Config) func(*models.Appointment) {
	return func(apt *models.Appointment) {
		services.NotifyStaff(cfg, func(to []string) *services.Email {
			return services.BuildAppointmentCreatedEmail(to, apt, cfg.Location())
		})
	}
}
