package services

import (
	"bytes"
	"fmt"
	"time"

	"call_center_app_go/models"

	"github.com/xuri/excelize/v2"
)

// XLSXContentType is the MIME type of generated workbooks
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var appointmentExportHeaders = []string{
	"ID", "Client Name", "Phone", "Reason", "Status", "Date", "Time",
	"Insurance", "Priority", "Call SID", "Notes", "Created At",
}

var callExportHeaders = []string{
	"SID", "From", "To", "Status", "Direction", "Start Time", "End Time",
	"Duration", "Virtual Number", "Recording URL", "Lead", "Appointment",
	"Customer Name", "Customer Phone", "Product Interest", "Confidence", "Transcription",
}

// ExportAppointments renders appointments as a single-sheet workbook, times in loc
func ExportAppointments(appointments []models.Appointment, loc *time.Location) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Appointments"
	f.SetSheetName("Sheet1", sheet)
	if err := writeHeader(f, sheet, appointmentExportHeaders); err != nil {
		return nil, err
	}

	for i, apt := range appointments {
		row := []interface{}{
			apt.ID,
			apt.ClientName,
			apt.Phone,
			apt.Reason,
			apt.Status,
			apt.Date.In(loc).Format("2006-01-02"),
			apt.Time.In(loc).Format("15:04"),
			apt.Insurance,
			deref(apt.Priority),
			deref(apt.CallSid),
			apt.Notes,
			apt.CreatedAt.In(loc).Format("2006-01-02 15:04"),
		}
		if err := writeRow(f, sheet, i+2, row); err != nil {
			return nil, err
		}
	}
	f.SetColWidth(sheet, "A", "L", 18)

	return finishWorkbook(f)
}

// ExportCalls renders calls as a single-sheet workbook, times in loc
func ExportCalls(calls []models.Call, loc *time.Location) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Calls"
	f.SetSheetName("Sheet1", sheet)
	if err := writeHeader(f, sheet, callExportHeaders); err != nil {
		return nil, err
	}

	for i, call := range calls {
		var name, phone, product string
		if call.LeadDetails != nil {
			name = call.LeadDetails.CustomerName
			phone = call.LeadDetails.PhoneNumber
			product = call.LeadDetails.ProductInterest
		}
		var confidence interface{}
		if call.ConfidenceScore != nil {
			confidence = *call.ConfidenceScore
		}

		row := []interface{}{
			call.Sid,
			call.From,
			call.To,
			call.Status,
			call.Direction,
			formatOptionalTime(call.StartTime, loc),
			formatOptionalTime(call.EndTime, loc),
			call.Duration,
			call.VirtualNumber,
			call.RecordingURL,
			yesNo(call.IsLead),
			yesNo(call.IsAppointment),
			name,
			phone,
			product,
			confidence,
			call.Transcription,
		}
		if err := writeRow(f, sheet, i+2, row); err != nil {
			return nil, err
		}
	}
	f.SetColWidth(sheet, "A", "P", 18)
	f.SetColWidth(sheet, "Q", "Q", 60)

	return finishWorkbook(f)
}

func writeHeader(f *excelize.File, sheet string, headers []string) error {
	row := make([]interface{}, len(headers))
	for i, h := range headers {
		row[i] = h
	}
	if err := writeRow(f, sheet, 1, row); err != nil {
		return err
	}

	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	last, _ := excelize.CoordinatesToCellName(len(headers), 1)
	return f.SetCellStyle(sheet, "A1", last, style)
}

func writeRow(f *excelize.File, sheet string, rowNum int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write row %d: %w", rowNum, err)
	}
	return nil
}

func finishWorkbook(f *excelize.File) (*bytes.Buffer, error) {
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write excel buffer: %w", err)
	}
	return buf, nil
}

func formatOptionalTime(t *time.Time, loc *time.Location) string {
	if t == nil {
		return ""
	}
	return t.In(loc).Format("2006-01-02 15:04:05")
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
