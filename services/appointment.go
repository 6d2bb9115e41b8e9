package services

import (
	"errors"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"call_center_app_go/models"

	"gorm.io/gorm"
)

var (
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrInvalidStatus       = errors.New("invalid appointment status")
	ErrInvalidPriority     = errors.New("invalid appointment priority")
)

// NextAppointmentSlot returns the default slot for an auto-created appointment:
// tomorrow at 10:00 in now's location, moved to Monday when tomorrow is a weekend day.
func NextAppointmentSlot(now time.Time) time.Time {
	day := time.Date(now.Year(), now.Month(), now.Day(), 10, 0, 0, 0, now.Location()).AddDate(0, 0, 1)
	switch day.Weekday() {
	case time.Sunday:
		day = day.AddDate(0, 0, 1)
	case time.Saturday:
		day = day.AddDate(0, 0, 2)
	}
	return day
}

// GetAppointmentByCallSid returns the appointment created from a call, if any
func GetAppointmentByCallSid(db *gorm.DB, callSid string) (*models.Appointment, error) {
	var apt models.Appointment
	err := db.Where("call_sid = ?", callSid).First(&apt).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}
	return &apt, nil
}

// CreateAppointmentFromCall creates the single appointment for a call.
// An existing appointment for the call is returned unchanged with created=false.
func CreateAppointmentFromCall(db *gorm.DB, callSid string, lead LeadJudgement, now time.Time) (*models.Appointment, bool, error) {
	existing, err := GetAppointmentByCallSid(db, callSid)
	if err == nil {
		log.Printf("[LEAD] Appointment already exists for call %s", callSid)
		return existing, false, nil
	}
	if !errors.Is(err, ErrAppointmentNotFound) {
		return nil, false, fmt.Errorf("failed to look up appointment: %w", err)
	}

	slot := NextAppointmentSlot(now)
	reason := lead.ProductInterest
	if reason == "" {
		reason = models.DefaultAppointmentReason
	}
	need := lead.CustomerNeed
	if need == "" {
		need = "Not specified"
	}

	sid := callSid
	apt := &models.Appointment{
		ID:              models.NewAppointmentID(now),
		ClientName:      lead.CustomerName,
		Phone:           lead.PhoneNumber,
		Reason:          reason,
		Status:          models.AppointmentStatusPending,
		Date:            slot,
		Time:            slot,
		Insurance:       models.DefaultInsurance,
		DurationSeconds: 0,
		Notes:           "Auto-created from call analysis. Customer need: " + need,
		CallSid:         &sid,
	}
	if lead.ConfidenceScore > 0.8 {
		priority := models.PriorityHigh
		apt.Priority = &priority
	}

	if err := db.Create(apt).Error; err != nil {
		// A concurrent analysis of the same call won the unique index
		if winner, lookupErr := GetAppointmentByCallSid(db, callSid); lookupErr == nil {
			return winner, false, nil
		}
		return nil, false, fmt.Errorf("failed to create appointment: %w", err)
	}

	log.Printf("[LEAD] Created appointment %s for call %s", apt.ID, callSid)
	return apt, true, nil
}

// CreateAppointment stores a manually entered appointment
func CreateAppointment(db *gorm.DB, apt *models.Appointment) error {
	if apt.Status != "" && !models.IsValidAppointmentStatus(apt.Status) {
		return ErrInvalidStatus
	}
	if !models.IsValidPriority(apt.Priority) {
		return ErrInvalidPriority
	}
	if apt.Priority != nil && *apt.Priority == "" {
		apt.Priority = nil
	}
	apt.Notes = SanitizeText(apt.Notes)
	return db.Create(apt).Error
}

// GetAppointmentByID fetches a single appointment
func GetAppointmentByID(db *gorm.DB, id string) (*models.Appointment, error) {
	var apt models.Appointment
	if err := db.First(&apt, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}
	return &apt, nil
}

// AppointmentUpdate is a partial update; nil fields are left untouched
type AppointmentUpdate struct {
	ClientName      *string
	Phone           *string
	Reason          *string
	Status          *string
	Date            *time.Time
	Time            *time.Time
	Insurance       *string
	DurationSeconds *int
	Priority        *string
	ClearPriority   bool
	Notes           *string
}

// UpdateAppointment applies a partial update and returns the stored result
func UpdateAppointment(db *gorm.DB, id string, upd AppointmentUpdate) (*models.Appointment, error) {
	if upd.Status != nil && !models.IsValidAppointmentStatus(*upd.Status) {
		return nil, ErrInvalidStatus
	}
	if upd.Priority != nil && !models.IsValidPriority(upd.Priority) {
		return nil, ErrInvalidPriority
	}

	changes := map[string]interface{}{}
	if upd.ClientName != nil {
		changes["client_name"] = *upd.ClientName
	}
	if upd.Phone != nil {
		changes["phone"] = *upd.Phone
	}
	if upd.Reason != nil {
		changes["reason"] = *upd.Reason
	}
	if upd.Status != nil {
		changes["status"] = *upd.Status
	}
	if upd.Date != nil {
		changes["date"] = upd.Date.UTC()
	}
	if upd.Time != nil {
		changes["time"] = upd.Time.UTC()
	}
	if upd.Insurance != nil {
		changes["insurance"] = *upd.Insurance
	}
	if upd.DurationSeconds != nil {
		changes["duration_seconds"] = *upd.DurationSeconds
	}
	if upd.ClearPriority || (upd.Priority != nil && *upd.Priority == "") {
		changes["priority"] = nil
	} else if upd.Priority != nil {
		changes["priority"] = *upd.Priority
	}
	if upd.Notes != nil {
		changes["notes"] = SanitizeText(*upd.Notes)
	}
	changes["updated_at"] = time.Now()

	err := db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Appointment{}).Where("id = ?", id).Updates(changes)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrAppointmentNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return GetAppointmentByID(db, id)
}

// DeleteAppointment removes an appointment
func DeleteAppointment(db *gorm.DB, id string) error {
	result := db.Where("id = ?", id).Delete(&models.Appointment{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrAppointmentNotFound
	}
	return nil
}

// BulkUpdateStatus sets the status of the listed appointments and returns how many
// were matched. updated_at is stamped on every matched row, including ones whose
// status was already the target.
func BulkUpdateStatus(db *gorm.DB, ids []string, status string) (int64, error) {
	if !models.IsValidAppointmentStatus(status) {
		return 0, ErrInvalidStatus
	}
	if len(ids) == 0 {
		return 0, nil
	}
	result := db.Model(&models.Appointment{}).
		Where("id IN ?", ids).
		Updates(map[string]interface{}{"status": status, "updated_at": time.Now()})
	return result.RowsAffected, result.Error
}

// AppointmentFilter holds the list query parameters
type AppointmentFilter struct {
	Status     string
	Date       *time.Time // any instant within the wanted day
	ClientName string
	Phone      string
	Page       int
	Limit      int
	SortBy     string
	SortOrder  string
}

// AppointmentStatusStats counts appointments per status
type AppointmentStatusStats struct {
	Total       int64 `json:"total"`
	Confirmed   int64 `json:"confirmed"`
	Pending     int64 `json:"pending"`
	Rescheduled int64 `json:"rescheduled"`
	Cancelled   int64 `json:"cancelled"`
}

// Pagination describes one page of results
type Pagination struct {
	CurrentPage       int   `json:"current_page"`
	TotalPages        int   `json:"total_pages"`
	TotalAppointments int64 `json:"total_appointments"`
	PerPage           int   `json:"per_page"`
}

// AppointmentPage is the list response
type AppointmentPage struct {
	Appointments []models.Appointment   `json:"appointments"`
	Pagination   Pagination             `json:"pagination"`
	Stats        AppointmentStatusStats `json:"stats"`
}

var appointmentSortColumns = map[string]string{
	"date":             "date",
	"time":             "time",
	"client_name":      "client_name",
	"phone":            "phone",
	"status":           "status",
	"reason":           "reason",
	"priority":         "priority",
	"insurance":        "insurance",
	"created_at":       "created_at",
	"updated_at":       "updated_at",
	"duration_seconds": "duration_seconds",
	"id":               "id",
}

// Normalize fills defaults for paging and sorting
func (f *AppointmentFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = 20
	}
	if _, ok := appointmentSortColumns[f.SortBy]; !ok {
		f.SortBy = "date"
	}
	if f.SortOrder != "asc" {
		f.SortOrder = "desc"
	}
}

func (f AppointmentFilter) apply(q *gorm.DB) *gorm.DB {
	if f.Status != "" && f.Status != "All" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Date != nil {
		d := *f.Date
		start := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, d.Location())
		q = q.Where("date >= ? AND date < ?", start.UTC(), start.AddDate(0, 0, 1).UTC())
	}
	if f.ClientName != "" {
		q = q.Where("LOWER(client_name) LIKE ? ESCAPE '\\'", containsPattern(f.ClientName))
	}
	if f.Phone != "" {
		q = q.Where("LOWER(phone) LIKE ? ESCAPE '\\'", containsPattern(f.Phone))
	}
	return q
}

// ListAppointments returns one page of filtered appointments with status counts.
// Status counts cover every appointment; Total is the filtered total.
func ListAppointments(db *gorm.DB, filter AppointmentFilter) (*AppointmentPage, error) {
	filter.Normalize()

	var total int64
	if err := filter.apply(db.Model(&models.Appointment{})).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count appointments: %w", err)
	}

	appointments := []models.Appointment{}
	order := fmt.Sprintf("%s %s", appointmentSortColumns[filter.SortBy], filter.SortOrder)
	err := filter.apply(db.Model(&models.Appointment{})).
		Order(order).
		Offset((filter.Page - 1) * filter.Limit).
		Limit(filter.Limit).
		Find(&appointments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}

	counts, err := countByStatus(db)
	if err != nil {
		return nil, err
	}
	counts.Total = total

	return &AppointmentPage{
		Appointments: appointments,
		Pagination: Pagination{
			CurrentPage:       filter.Page,
			TotalPages:        int(math.Ceil(float64(total) / float64(filter.Limit))),
			TotalAppointments: total,
			PerPage:           filter.Limit,
		},
		Stats: counts,
	}, nil
}

// ListAllAppointments returns every appointment matching the filter, ignoring paging
func ListAllAppointments(db *gorm.DB, filter AppointmentFilter) ([]models.Appointment, error) {
	filter.Normalize()
	var appointments []models.Appointment
	order := fmt.Sprintf("%s %s", appointmentSortColumns[filter.SortBy], filter.SortOrder)
	err := filter.apply(db.Model(&models.Appointment{})).Order(order).Find(&appointments).Error
	return appointments, err
}

type statusCount struct {
	Status string
	Count  int64
}

func countByStatus(db *gorm.DB) (AppointmentStatusStats, error) {
	var rows []statusCount
	err := db.Model(&models.Appointment{}).Select("status, COUNT(*) AS count").Group("status").Scan(&rows).Error
	if err != nil {
		return AppointmentStatusStats{}, fmt.Errorf("failed to count by status: %w", err)
	}

	var stats AppointmentStatusStats
	for _, row := range rows {
		switch row.Status {
		case models.AppointmentStatusConfirmed:
			stats.Confirmed = row.Count
		case models.AppointmentStatusPending:
			stats.Pending = row.Count
		case models.AppointmentStatusRescheduled:
			stats.Rescheduled = row.Count
		case models.AppointmentStatusCancelled:
			stats.Cancelled = row.Count
		}
		stats.Total += row.Count
	}
	return stats, nil
}

// AppointmentSummary is the dashboard summary
type AppointmentSummary struct {
	Total            int64 `json:"total"`
	Today            int64 `json:"today"`
	HighPriority     int64 `json:"high_priority"`
	Confirmed        int64 `json:"confirmed"`
	Pending          int64 `json:"pending"`
	Rescheduled      int64 `json:"rescheduled"`
	Cancelled        int64 `json:"cancelled"`
	CancellationRate int64 `json:"cancellation_rate"`
}

// GetAppointmentSummary computes the summary; "today" is now's calendar day in now's location
func GetAppointmentSummary(db *gorm.DB, now time.Time) (*AppointmentSummary, error) {
	counts, err := countByStatus(db)
	if err != nil {
		return nil, err
	}

	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	summary := &AppointmentSummary{
		Total:       counts.Total,
		Confirmed:   counts.Confirmed,
		Pending:     counts.Pending,
		Rescheduled: counts.Rescheduled,
		Cancelled:   counts.Cancelled,
	}

	if err := db.Model(&models.Appointment{}).
		Where("date >= ? AND date < ?", startOfDay.UTC(), startOfDay.AddDate(0, 0, 1).UTC()).
		Count(&summary.Today).Error; err != nil {
		return nil, fmt.Errorf("failed to count today's appointments: %w", err)
	}
	if err := db.Model(&models.Appointment{}).
		Where("priority = ?", models.PriorityHigh).
		Count(&summary.HighPriority).Error; err != nil {
		return nil, fmt.Errorf("failed to count high priority appointments: %w", err)
	}

	if summary.Total > 0 {
		summary.CancellationRate = int64(math.Round(float64(summary.Cancelled) / float64(summary.Total) * 100))
	}
	return summary, nil
}

// containsPattern builds a case-insensitive LIKE pattern with wildcards escaped
func containsPattern(s string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + replacer.Replace(strings.ToLower(s)) + "%"
}
