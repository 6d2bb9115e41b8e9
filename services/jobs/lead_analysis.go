package jobs

import (
	"context"
	"log"
	"strings"
	"time"

	"call_center_app_go/models"
	"call_center_app_go/services"

	"gorm.io/gorm"
)

// CallAnalyzer is what batch analysis needs from the language-model provider
type CallAnalyzer interface {
	services.Transcriber
	services.LeadExtractor
}

// AnalysisResult summarizes one batch analysis run
type AnalysisResult struct {
	Pending      int
	Analyzed     int
	Failed       int
	Skipped      int
	Appointments int
}

// AnalyzePendingCalls transcribes and lead-analyzes every call that has a recording
// but no analysis timestamp. Calls are processed one at a time; a failure or a silent
// recording is logged and leaves the call eligible for the next run. onAppointment, when set, is called
// for each newly created appointment.
func AnalyzePendingCalls(
	ctx context.Context,
	db *gorm.DB,
	telephony services.TelephonyProvider,
	ai CallAnalyzer,
	archive services.StorageProvider,
	loc *time.Location,
	onAppointment func(*models.Appointment),
) (result *AnalysisResult, err error) {
	start := time.Now()
	defer func() { observe("lead_analysis", start, err) }()

	calls, err := services.PendingAnalysisCalls(db)
	if err != nil {
		return nil, err
	}
	result = &AnalysisResult{Pending: len(calls)}
	log.Printf("[JOB] Found %d calls awaiting lead analysis", len(calls))

	for _, call := range calls {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		transcript, err := services.TranscribeCall(ctx, db, telephony, ai, archive, call.Sid)
		if err != nil {
			log.Printf("[JOB] Transcription failed for %s: %v", call.Sid, err)
			result.Failed++
			callsAnalyzedTotal.WithLabelValues("failure").Inc()
			continue
		}

		if strings.TrimSpace(transcript) == "" {
			log.Printf("[JOB] Empty transcript for %s; skipping lead analysis", call.Sid)
			result.Skipped++
			callsAnalyzedTotal.WithLabelValues("skipped").Inc()
			continue
		}

		analysis, err := services.AnalyzeCallLead(ctx, db, ai, call.Sid, transcript, time.Now().In(loc))
		if err != nil {
			log.Printf("[JOB] Lead analysis failed for %s: %v", call.Sid, err)
			result.Failed++
			callsAnalyzedTotal.WithLabelValues("failure").Inc()
			continue
		}

		result.Analyzed++
		callsAnalyzedTotal.WithLabelValues("success").Inc()
		if analysis.AppointmentCreated {
			result.Appointments++
			if onAppointment != nil {
				onAppointment(analysis.Appointment)
			}
		}
	}

	log.Printf("[JOB] Lead analysis done: %d analyzed, %d failed, %d skipped, %d appointments",
		result.Analyzed, result.Failed, result.Skipped, result.Appointments)
	return result, nil
}
