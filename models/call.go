package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Extraction method recorded for every lead judgement
const ExtractionMethodGPT4oMini = "gpt4o-mini-api"

// Call is a telephony call record synced from the provider
type Call struct {
	ID        string    `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Provider-owned fields, overwritten on every sync
	Sid           string        `gorm:"size:64;uniqueIndex;not null" json:"Sid"`
	From          string        `gorm:"column:from_number;size:32" json:"From"`
	To            string        `gorm:"column:to_number;size:32" json:"To"`
	Status        string        `gorm:"size:32;index" json:"Status"`
	StartTime     *time.Time    `gorm:"index" json:"StartTime"`
	EndTime       *time.Time    `json:"EndTime"`
	Duration      string        `gorm:"size:16" json:"Duration"`
	Direction     string        `gorm:"size:32;index" json:"Direction"`
	VirtualNumber string        `gorm:"size:32" json:"VirtualNumber,omitempty"`
	Recordings    RecordingList `gorm:"type:text" json:"recordings"`

	// First recording URL, kept in sync with Recordings
	RecordingURL string `gorm:"size:512;index" json:"-"`

	Notes         string `gorm:"type:text" json:"Notes,omitempty"`
	Transcription string `gorm:"type:text" json:"transcription,omitempty"`

	// Lead analysis
	IsLead             bool                `gorm:"not null;default:false" json:"is_lead"`
	LeadDetails        *LeadDetails        `gorm:"type:text;serializer:json" json:"lead_details,omitempty"`
	IsAppointment      bool                `gorm:"not null;default:false" json:"is_appointment"`
	AppointmentDetails *AppointmentDetails `gorm:"type:text;serializer:json" json:"appointment_details,omitempty"`
	LeadAnalysisAt     *time.Time          `gorm:"index" json:"lead_analysis_at,omitempty"`
	ConfidenceScore    *float64            `json:"confidence_score,omitempty"`
	ExtractionMethod   string              `gorm:"size:32" json:"extraction_method,omitempty"`

	// Real-time delivery
	IsProcessed    bool    `gorm:"not null;default:false;index" json:"is_processed"`
	BroadcastBatch *string `gorm:"size:36;index" json:"-"`
}

// BeforeCreate hook to generate UUID
func (c *Call) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return nil
}

// BeforeSave keeps the denormalized recording URL aligned with the recordings list
// and stores call times in UTC
func (c *Call) BeforeSave(tx *gorm.DB) error {
	if c.Recordings == nil {
		c.Recordings = RecordingList{}
	}
	c.RecordingURL = c.Recordings.FirstURL()
	if c.StartTime != nil {
		utc := c.StartTime.UTC()
		c.StartTime = &utc
	}
	if c.EndTime != nil {
		utc := c.EndTime.UTC()
		c.EndTime = &utc
	}
	return nil
}

// TableName specifies the table name for Call model
func (Call) TableName() string {
	return "calls"
}

// HasRecording reports whether the call carries a playable recording
func (c *Call) HasRecording() bool {
	return c.Recordings.FirstURL() != ""
}
