package services

import (
	"context"
	"fmt"
	"log"
	"math"
	"strings"
	"time"
	"unicode"

	"call_center_app_go/models"

	"gorm.io/gorm"
)

// LeadJudgement is the lead analysis for one transcript
type LeadJudgement struct {
	IsLead           bool    `json:"is_lead"`
	CustomerName     string  `json:"customer_name"`
	PhoneNumber      string  `json:"phone_number"`
	ProductInterest  string  `json:"product_interest"`
	CustomerNeed     string  `json:"customer_need"`
	IsAppointment    bool    `json:"is_appointment"`
	ConfidenceScore  float64 `json:"confidence_score"`
	ExtractionMethod string  `json:"extraction_method"`
}

// LeadAnalysis is the outcome of analyzing one call
type LeadAnalysis struct {
	Judgement          *LeadJudgement
	Appointment        *models.Appointment
	AppointmentCreated bool
}

// NormalizePhone keeps the first ten digits and accepts only Indian mobile numbers
func NormalizePhone(raw string) string {
	var digits strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
			if digits.Len() == 10 {
				break
			}
		}
	}
	phone := digits.String()
	if len(phone) != 10 || phone[0] < '6' || phone[0] > '9' {
		return ""
	}
	return phone
}

// ConfidenceScore is derived only from which fields were extracted
func ConfidenceScore(hasName, hasPhone, hasProduct bool) float64 {
	score := 0.3
	if hasName {
		score += 0.4
	}
	if hasPhone {
		score += 0.4
	}
	if hasProduct {
		score += 0.2
	}
	// Rounded to hide float drift from the additions above
	return math.Min(1.0, math.Round(score*100)/100)
}

// NormalizeLeadJudgement applies the deterministic post-processing to a raw model answer
func NormalizeLeadJudgement(raw LeadJudgement) LeadJudgement {
	out := raw
	out.CustomerName = strings.TrimFunc(raw.CustomerName, unicode.IsSpace)
	out.PhoneNumber = NormalizePhone(raw.PhoneNumber)
	out.ConfidenceScore = ConfidenceScore(out.CustomerName != "", out.PhoneNumber != "", out.ProductInterest != "")
	out.ExtractionMethod = models.ExtractionMethodGPT4oMini
	return out
}

// AnalyzeCallLead asks the extractor for a judgement, stores it on the call and,
// for appointment requests with a name and phone, creates the call's appointment.
// now fixes both the analysis timestamp and the default appointment slot.
// The call update and the appointment are written in one transaction, so a failed
// appointment leaves the call unanalyzed for the next batch run.
func AnalyzeCallLead(ctx context.Context, db *gorm.DB, extractor LeadExtractor, callSid, transcript string, now time.Time) (*LeadAnalysis, error) {
	raw, err := extractor.ExtractLead(ctx, transcript)
	if err != nil {
		return nil, err
	}

	judgement := NormalizeLeadJudgement(*raw)
	log.Printf("[LEAD] Processed result for %s: lead=%t name=%q phone=%q confidence=%.2f",
		callSid, judgement.IsLead, judgement.CustomerName, judgement.PhoneNumber, judgement.ConfidenceScore)

	analyzedAt := now
	score := judgement.ConfidenceScore
	update := &models.Call{
		IsLead:           judgement.IsLead,
		IsAppointment:    judgement.IsAppointment,
		LeadAnalysisAt:   &analyzedAt,
		ConfidenceScore:  &score,
		ExtractionMethod: judgement.ExtractionMethod,
	}
	columns := []string{"is_lead", "is_appointment", "lead_analysis_at", "confidence_score", "extraction_method"}
	if judgement.IsLead {
		update.LeadDetails = &models.LeadDetails{
			CustomerName:      judgement.CustomerName,
			PhoneNumber:       judgement.PhoneNumber,
			ProductInterest:   judgement.ProductInterest,
			CustomerNeed:      judgement.CustomerNeed,
			ConfidenceScore:   judgement.ConfidenceScore,
			ExtractionMethod:  judgement.ExtractionMethod,
			AnalysisTimestamp: &analyzedAt,
		}
		columns = append(columns, "lead_details")
	}

	analysis := &LeadAnalysis{Judgement: &judgement}
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Call{}).Where("sid = ?", callSid).Select(columns).Updates(update)
		if result.Error != nil {
			return fmt.Errorf("failed to store lead analysis: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			log.Printf("[LEAD] No stored call %s; analysis returned without persisting", callSid)
		}

		if judgement.IsAppointment && judgement.CustomerName != "" && judgement.PhoneNumber != "" {
			apt, created, err := CreateAppointmentFromCall(tx, callSid, judgement, now)
			if err != nil {
				return err
			}
			analysis.Appointment = apt
			analysis.AppointmentCreated = created
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return analysis, nil
}
