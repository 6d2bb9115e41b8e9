package models

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"gorm.io/gorm"
)

// Appointment status constants
const (
	AppointmentStatusConfirmed   = "Confirmed"
	AppointmentStatusPending     = "Pending"
	AppointmentStatusRescheduled = "Rescheduled"
	AppointmentStatusCancelled   = "Cancelled"
)

const (
	PriorityHigh             = "High Priority"
	DefaultInsurance         = "Not Specified"
	DefaultAppointmentReason = "Product Consultation"
)

// Appointment represents a customer appointment, created by staff or from a call
type Appointment struct {
	ID        string    `gorm:"primarykey;size:40" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ClientName string `gorm:"size:200;not null;index" json:"client_name"`
	Phone      string `gorm:"size:32;not null;index" json:"phone"`
	Reason     string `gorm:"type:text;not null" json:"reason"`
	Status     string `gorm:"size:20;not null;default:'Pending';index" json:"status"`

	Date time.Time `gorm:"not null;index" json:"date"`
	Time time.Time `gorm:"not null" json:"time"`

	Insurance       string  `gorm:"size:100;not null;default:'Not Specified'" json:"insurance"`
	DurationSeconds int     `gorm:"not null;default:0" json:"duration_seconds"`
	Priority        *string `gorm:"size:20;index" json:"priority"`
	Notes           string  `gorm:"type:text" json:"notes"`

	// Source call, at most one appointment per call
	CallSid *string `gorm:"size:64;uniqueIndex" json:"call_sid,omitempty"`
}

// BeforeCreate fills the application id and defaults
func (a *Appointment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = NewAppointmentID(time.Now())
	}
	if a.Status == "" {
		a.Status = AppointmentStatusPending
	}
	if a.Insurance == "" {
		a.Insurance = DefaultInsurance
	}
	return nil
}

// BeforeSave stores schedule instants in UTC so range queries compare like with like
func (a *Appointment) BeforeSave(tx *gorm.DB) error {
	a.Date = a.Date.UTC()
	a.Time = a.Time.UTC()
	return nil
}

// TableName specifies the table name for Appointment model
func (Appointment) TableName() string {
	return "appointments"
}

const base36 = "0123456789abcdefghijklmnopqrstuvwxyz"

// NewAppointmentID builds an id of the form APT_<unix-ms>_<6 base36 chars>
func NewAppointmentID(now time.Time) string {
	suffix := make([]byte, 6)
	for i := range suffix {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(base36))))
		if err != nil {
			suffix[i] = base36[now.UnixNano()%int64(len(base36))]
			continue
		}
		suffix[i] = base36[n.Int64()]
	}
	return fmt.Sprintf("APT_%d_%s", now.UnixMilli(), suffix)
}

// IsValidAppointmentStatus checks if the status is valid
func IsValidAppointmentStatus(status string) bool {
	switch status {
	case AppointmentStatusConfirmed, AppointmentStatusPending,
		AppointmentStatusRescheduled, AppointmentStatusCancelled:
		return true
	}
	return false
}

// IsValidPriority accepts the single named priority or none
func IsValidPriority(priority *string) bool {
	return priority == nil || *priority == "" || *priority == PriorityHigh
}
