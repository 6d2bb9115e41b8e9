package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Recording is a provider recording attached to a call
type Recording struct {
	Sid          string     `json:"Sid"`
	RecordingURL *string    `json:"RecordingUrl"`
	CreatedAt    *time.Time `json:"CreatedAt"`
}

// RecordingList stores a call's recordings as JSON in a text column
type RecordingList []Recording

func (r RecordingList) Value() (driver.Value, error) {
	if len(r) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (r *RecordingList) Scan(value interface{}) error {
	var raw []byte
	switch v := value.(type) {
	case nil:
		*r = RecordingList{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported type for RecordingList: %T", value)
	}
	if len(raw) == 0 {
		*r = RecordingList{}
		return nil
	}
	return json.Unmarshal(raw, r)
}

// FirstURL returns the first non-empty recording URL
func (r RecordingList) FirstURL() string {
	for _, rec := range r {
		if rec.RecordingURL != nil && *rec.RecordingURL != "" {
			return *rec.RecordingURL
		}
	}
	return ""
}

// LeadDetails is the normalized lead judgement embedded in a call
type LeadDetails struct {
	CustomerName      string     `json:"customer_name"`
	PhoneNumber       string     `json:"phone_number"`
	ProductInterest   string     `json:"product_interest"`
	CustomerNeed      string     `json:"customer_need"`
	ConfidenceScore   float64    `json:"confidence_score"`
	ExtractionMethod  string     `json:"extraction_method"`
	AnalysisTimestamp *time.Time `json:"analysis_timestamp,omitempty"`
}

// AppointmentDetails is the legacy per-call appointment shape, kept for older records
type AppointmentDetails struct {
	PatientName     string `json:"patient_name,omitempty"`
	Disease         string `json:"disease,omitempty"`
	DoctorName      string `json:"doctor_name,omitempty"`
	AppointmentDate string `json:"appointment_date,omitempty"`
	AppointmentTime string `json:"appointment_time,omitempty"`
}
