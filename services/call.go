package services

import (
	"errors"
	"fmt"
	"math"
	"time"

	"call_center_app_go/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrCallNotFound      = errors.New("call not found")
	ErrRecordingNotFound = errors.New("recording not found")
)

// providerColumns are overwritten on every sync; local analysis columns are never touched
var providerColumns = []string{
	"from_number", "to_number", "status", "start_time", "end_time", "duration",
	"direction", "virtual_number", "recordings", "recording_url", "updated_at",
}

// UpsertCall inserts the call or overwrites its provider-owned fields, keyed by SID
func UpsertCall(db *gorm.DB, call *models.Call) error {
	if call.Sid == "" {
		return errors.New("call sid is required")
	}
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "sid"}},
		DoUpdates: clause.AssignmentColumns(providerColumns),
	}).Create(call).Error
	if err != nil {
		return fmt.Errorf("failed to upsert call %s: %w", call.Sid, err)
	}
	return nil
}

// GetCallBySid loads one call
func GetCallBySid(db *gorm.DB, sid string) (*models.Call, error) {
	var call models.Call
	if err := db.Where("sid = ?", sid).First(&call).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCallNotFound
		}
		return nil, err
	}
	return &call, nil
}

// ApplyStatusCallback records a provider status push: it sets the status and
// appends a recording entry, creating the call when it is not yet known.
func ApplyStatusCallback(db *gorm.DB, sid, status string, recordingURL *string, now time.Time) error {
	if sid == "" {
		return errors.New("CallSid is required")
	}
	if recordingURL != nil && *recordingURL == "" {
		recordingURL = nil
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&models.Call{Sid: sid}).Error; err != nil {
			return err
		}

		var call models.Call
		if err := tx.Where("sid = ?", sid).First(&call).Error; err != nil {
			return err
		}

		received := now
		call.Status = status
		call.Recordings = append(call.Recordings, models.Recording{
			Sid:          sid,
			RecordingURL: recordingURL,
			CreatedAt:    &received,
		})
		return tx.Save(&call).Error
	})
}

// SaveTranscription stores a transcript, creating the call if needed
func SaveTranscription(db *gorm.DB, sid, text string) error {
	call := &models.Call{Sid: sid, Transcription: text}
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "sid"}},
		DoUpdates: clause.AssignmentColumns([]string{"transcription", "updated_at"}),
	}).Create(call).Error
}

// ClaimUnprocessedCalls atomically marks every transcribed, undelivered call as
// processed and returns exactly the calls this claim marked.
func ClaimUnprocessedCalls(db *gorm.DB) ([]models.Call, error) {
	batch := uuid.New().String()

	result := db.Model(&models.Call{}).
		Where("is_processed = ? AND transcription IS NOT NULL AND transcription <> ''", false).
		Updates(map[string]interface{}{"is_processed": true, "broadcast_batch": batch})
	if result.Error != nil {
		return nil, fmt.Errorf("failed to claim calls: %w", result.Error)
	}

	calls := []models.Call{}
	if result.RowsAffected == 0 {
		return calls, nil
	}
	if err := db.Where("broadcast_batch = ?", batch).Order("start_time desc").Find(&calls).Error; err != nil {
		return nil, fmt.Errorf("failed to load claimed calls: %w", err)
	}
	return calls, nil
}

// PendingAnalysisCalls returns calls with a recording that were never lead-analyzed
func PendingAnalysisCalls(db *gorm.DB) ([]models.Call, error) {
	var calls []models.Call
	err := db.Where("recording_url <> '' AND lead_analysis_at IS NULL").Order("start_time desc").Find(&calls).Error
	return calls, err
}

// CallFilter holds the call list query parameters
type CallFilter struct {
	SearchID  string
	Status    string
	Direction string
	StartDate *time.Time
	EndDate   *time.Time
	Page      int
	Limit     int
}

// CallPage is the call list response
type CallPage struct {
	Calls      []models.Call `json:"calls"`
	Total      int64         `json:"total"`
	Page       int           `json:"page"`
	TotalPages int           `json:"totalPages"`
}

func (f *CallFilter) normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = 20
	}
}

func (f CallFilter) apply(q *gorm.DB) *gorm.DB {
	if f.SearchID != "" {
		q = q.Where("LOWER(sid) LIKE ? ESCAPE '\\'", containsPattern(f.SearchID))
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Direction != "" {
		q = q.Where("direction = ?", f.Direction)
	}
	if f.StartDate != nil {
		q = q.Where("start_time >= ?", f.StartDate.UTC())
	}
	if f.EndDate != nil {
		q = q.Where("start_time <= ?", f.EndDate.UTC())
	}
	return q
}

// ListCalls returns one page of calls, newest first
func ListCalls(db *gorm.DB, filter CallFilter) (*CallPage, error) {
	filter.normalize()

	var total int64
	if err := filter.apply(db.Model(&models.Call{})).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count calls: %w", err)
	}

	calls := []models.Call{}
	err := filter.apply(db.Model(&models.Call{})).
		Order("start_time desc").
		Offset((filter.Page - 1) * filter.Limit).
		Limit(filter.Limit).
		Find(&calls).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list calls: %w", err)
	}

	return &CallPage{
		Calls:      calls,
		Total:      total,
		Page:       filter.Page,
		TotalPages: int(math.Ceil(float64(total) / float64(filter.Limit))),
	}, nil
}

// ListAllCalls returns every call matching the filter, ignoring paging
func ListAllCalls(db *gorm.DB, filter CallFilter) ([]models.Call, error) {
	var calls []models.Call
	err := filter.apply(db.Model(&models.Call{})).Order("start_time desc").Find(&calls).Error
	return calls, err
}
