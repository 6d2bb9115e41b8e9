package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"call_center_app_go/db"
	"call_center_app_go/models"
	"call_center_app_go/services"

	"github.com/labstack/echo/v4"
)

type createAppointmentRequest struct {
	ClientName string  `json:"client_name" validate:"required"`
	Phone      string  `json:"phone" validate:"required"`
	Reason     string  `json:"reason" validate:"required"`
	Date       string  `json:"date" validate:"required"`
	Time       string  `json:"time" validate:"required"`
	Insurance  string  `json:"insurance"`
	Priority   *string `json:"priority"`
	Notes      string  `json:"notes"`
}

type updateAppointmentRequest struct {
	ClientName      *string `json:"client_name"`
	Phone           *string `json:"phone"`
	Reason          *string `json:"reason"`
	Status          *string `json:"status"`
	Date            *string `json:"date"`
	Time            *string `json:"time"`
	Insurance       *string `json:"insurance"`
	DurationSeconds *int    `json:"duration_seconds"`
	Priority        *string `json:"priority"`
	Notes           *string `json:"notes"`
}

type bulkStatusRequest struct {
	AppointmentIDs []string `json:"appointment_ids" validate:"required"`
	Status         string   `json:"status" validate:"required"`
}

// appointmentFilterFromQuery reads the list filters shared by listing and export
func appointmentFilterFromQuery(c echo.Context, loc *time.Location) (services.AppointmentFilter, error) {
	filter := services.AppointmentFilter{
		Status:     c.QueryParam("status"),
		ClientName: c.QueryParam("client_name"),
		Phone:      c.QueryParam("phone"),
		SortBy:     c.QueryParam("sort_by"),
		SortOrder:  c.QueryParam("sort_order"),
	}
	filter.Page, _ = strconv.Atoi(c.QueryParam("page"))
	filter.Limit, _ = strconv.Atoi(c.QueryParam("limit"))

	date, err := parseOptionalDateTime(c.QueryParam("date"), loc)
	if err != nil {
		return filter, err
	}
	if date != nil {
		local := date.In(loc)
		filter.Date = &local
	}
	return filter, nil
}

// ListAppointmentsHandler returns a filtered, paginated page of appointments
func ListAppointmentsHandler(c echo.Context) error {
	cfg := getConfig(c)
	filter, err := appointmentFilterFromQuery(c, cfg.Location())
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "Invalid date filter")
	}

	page, err := services.ListAppointments(db.DB, filter)
	if err != nil {
		log.Printf("Error fetching appointments: %v", err)
		return errorJSON(c, http.StatusInternalServerError, "Failed to fetch appointments")
	}
	return c.JSON(http.StatusOK, page)
}

// CreateAppointmentHandler stores a manually entered appointment
func CreateAppointmentHandler(c echo.Context) error {
	var req createAppointmentRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "Missing required fields: client_name, phone, reason, date, time")
	}

	loc := getConfig(c).Location()
	date, err := parseDateTime(req.Date, loc)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "Invalid date")
	}
	at, err := parseDateTime(req.Time, loc)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "Invalid time")
	}

	apt := &models.Appointment{
		ClientName: services.SanitizeText(req.ClientName),
		Phone:      services.SanitizeText(req.Phone),
		Reason:     services.SanitizeText(req.Reason),
		Date:       date,
		Time:       at,
		Insurance:  req.Insurance,
		Priority:   req.Priority,
		Notes:      req.Notes,
	}
	if err := services.CreateAppointment(db.DB, apt); err != nil {
		if errors.Is(err, services.ErrInvalidPriority) {
			return errorJSON(c, http.StatusBadRequest, fmt.Sprintf("priority must be %q or null", models.PriorityHigh))
		}
		log.Printf("Error creating appointment: %v", err)
		return errorJSON(c, http.StatusInternalServerError, "Failed to create appointment")
	}

	log.Printf("Created new appointment: %s for %s", apt.ID, apt.ClientName)
	return c.JSON(http.StatusCreated, apt)
}

// GetAppointmentHandler returns a single appointment
func GetAppointmentHandler(c echo.Context) error {
	apt, err := services.GetAppointmentByID(db.DB, c.Param("id"))
	if err != nil {
		if errors.Is(err, services.ErrAppointmentNotFound) {
			return errorJSON(c, http.StatusNotFound, "Appointment not found")
		}
		log.Printf("Error fetching appointment: %v", err)
		return errorJSON(c, http.StatusInternalServerError, "Failed to fetch appointment")
	}
	return c.JSON(http.StatusOK, apt)
}

// UpdateAppointmentHandler applies a partial update. An explicit null priority clears it.
func UpdateAppointmentHandler(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "Invalid request body")
	}
	var req updateAppointmentRequest
	var present map[string]json.RawMessage
	if err := json.Unmarshal(body, &req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := json.Unmarshal(body, &present); err != nil {
		return errorJSON(c, http.StatusBadRequest, "Invalid request body")
	}

	loc := getConfig(c).Location()
	upd := services.AppointmentUpdate{
		ClientName:      req.ClientName,
		Phone:           req.Phone,
		Reason:          req.Reason,
		Status:          req.Status,
		Insurance:       req.Insurance,
		DurationSeconds: req.DurationSeconds,
		Priority:        req.Priority,
		Notes:           req.Notes,
	}
	if raw, ok := present["priority"]; ok && string(raw) == "null" {
		upd.ClearPriority = true
	}
	if req.Date != nil {
		date, err := parseDateTime(*req.Date, loc)
		if err != nil {
			return errorJSON(c, http.StatusBadRequest, "Invalid date")
		}
		upd.Date = &date
	}
	if req.Time != nil {
		at, err := parseDateTime(*req.Time, loc)
		if err != nil {
			return errorJSON(c, http.StatusBadRequest, "Invalid time")
		}
		upd.Time = &at
	}

	apt, err := services.UpdateAppointment(db.DB, c.Param("id"), upd)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrAppointmentNotFound):
			return errorJSON(c, http.StatusNotFound, "Appointment not found")
		case errors.Is(err, services.ErrInvalidStatus):
			return errorJSON(c, http.StatusBadRequest, "status must be one of: Confirmed, Pending, Rescheduled, Cancelled")
		case errors.Is(err, services.ErrInvalidPriority):
			return errorJSON(c, http.StatusBadRequest, fmt.Sprintf("priority must be %q or null", models.PriorityHigh))
		}
		log.Printf("Error updating appointment: %v", err)
		return errorJSON(c, http.StatusInternalServerError, "Failed to update appointment")
	}

	log.Printf("Updated appointment: %s", apt.ID)
	return c.JSON(http.StatusOK, apt)
}

// DeleteAppointmentHandler removes an appointment
func DeleteAppointmentHandler(c echo.Context) error {
	id := c.Param("id")
	if err := services.DeleteAppointment(db.DB, id); err != nil {
		if errors.Is(err, services.ErrAppointmentNotFound) {
			return errorJSON(c, http.StatusNotFound, "Appointment not found")
		}
		log.Printf("Error deleting appointment: %v", err)
		return errorJSON(c, http.StatusInternalServerError, "Failed to delete appointment")
	}

	log.Printf("Deleted appointment: %s", id)
	return c.JSON(http.StatusOK, map[string]string{"message": "Appointment deleted successfully"})
}

// BulkStatusHandler sets one status on many appointments
func BulkStatusHandler(c echo.Context) error {
	var req bulkStatusRequest
	if err := c.Bind(&req); err != nil || c.Validate(&req) != nil {
		return errorJSON(c, http.StatusBadRequest, "appointment_ids (array) and status are required")
	}

	modified, err := services.BulkUpdateStatus(db.DB, req.AppointmentIDs, req.Status)
	if err != nil {
		if errors.Is(err, services.ErrInvalidStatus) {
			return errorJSON(c, http.StatusBadRequest, "status must be one of: Confirmed, Pending, Rescheduled, Cancelled")
		}
		log.Printf("Error bulk updating appointments: %v", err)
		return errorJSON(c, http.StatusInternalServerError, "Failed to update appointments")
	}

	log.Printf("Bulk updated %d appointments to status: %s", modified, req.Status)
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message":        fmt.Sprintf("Updated %d appointments", modified),
		"modified_count": modified,
	})
}

// AppointmentSummaryHandler returns dashboard counters
func AppointmentSummaryHandler(c echo.Context) error {
	cfg := getConfig(c)
	summary, err := services.GetAppointmentSummary(db.DB, time.Now().In(cfg.Location()))
	if err != nil {
		log.Printf("Error fetching appointment statistics: %v", err)
		return errorJSON(c, http.StatusInternalServerError, "Failed to fetch statistics")
	}
	return c.JSON(http.StatusOK, summary)
}

// ExportAppointmentsHandler downloads the filtered appointments as a workbook
func ExportAppointmentsHandler(c echo.Context) error {
	loc := getConfig(c).Location()
	filter, err := appointmentFilterFromQuery(c, loc)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "Invalid date filter")
	}

	appointments, err := services.ListAllAppointments(db.DB, filter)
	if err != nil {
		log.Printf("Error exporting appointments: %v", err)
		return errorJSON(c, http.StatusInternalServerError, "Failed to export appointments")
	}

	buf, err := services.ExportAppointments(appointments, loc)
	if err != nil {
		log.Printf("Error building appointment workbook: %v", err)
		return errorJSON(c, http.StatusInternalServerError, "Failed to export appointments")
	}

	filename := fmt.Sprintf("appointments_%s.xlsx", time.Now().In(loc).Format("2006-01-02"))
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return c.Blob(http.StatusOK, services.XLSXContentType, buf.Bytes())
}
