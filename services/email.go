package services

import (
	"bytes"
	"fmt"
	"html/template"
	"log"
	"strings"
	texttemplate "text/template"
	"time"

	"call_center_app_go/config"
	"call_center_app_go/models"

	"github.com/resend/resend-go/v2"
)

// Email represents an email message
type Email struct {
	To       []string
	Subject  string
	HTMLBody string
	TextBody string
}

// SendEmail sends an email using Resend API
func SendEmail(cfg *config.Config, email *Email) error {
	if len(email.To) == 0 {
		return fmt.Errorf("email has no recipients")
	}

	// Test mode logs instead of sending
	if cfg.EmailTestMode {
		logEmailToConsole(email)
		return nil
	}

	if cfg.ResendAPIKey == "" {
		return fmt.Errorf("RESEND_API_KEY not configured")
	}

	params := &resend.SendEmailRequest{
		From:    fmt.Sprintf("%s <%s>", cfg.EmailFromName, cfg.EmailFrom),
		To:      email.To,
		Subject: email.Subject,
		Html:    email.HTMLBody,
		Text:    email.TextBody,
	}
	if params.Html == "" && params.Text == "" {
		return fmt.Errorf("email must have either HTMLBody or TextBody")
	}

	sent, err := resend.NewClient(cfg.ResendAPIKey).Emails.Send(params)
	if err != nil {
		return fmt.Errorf("failed to send email via Resend: %w", err)
	}

	log.Printf("Email sent via Resend (ID: %s) to: %v", sent.Id, email.To)
	return nil
}

func logEmailToConsole(email *Email) {
	separator := strings.Repeat("=", 60)
	log.Printf("\n%s\nEMAIL (test mode - not sent)\nTo: %v\nSubject: %s\n\n%s\n%s",
		separator, email.To, email.Subject, email.TextBody, separator)
}

// SendEmailAsync sends an email in a goroutine so handlers and jobs never block on it
func SendEmailAsync(cfg *config.Config, email *Email) {
	emailCopy := &Email{
		To:       append([]string{}, email.To...),
		Subject:  email.Subject,
		HTMLBody: email.HTMLBody,
		TextBody: email.TextBody,
	}

	go func() {
		if err := SendEmail(cfg, emailCopy); err != nil {
			log.Printf("Error sending async email: %v", err)
		}
	}()
}

// NotifyStaff mails staff when NOTIFY_EMAILS is configured; builder runs only if it is
func NotifyStaff(cfg *config.Config, build func(to []string) *Email) {
	if cfg == nil || len(cfg.NotifyEmails) == 0 {
		return
	}
	SendEmailAsync(cfg, build(cfg.NotifyEmails))
}

var appointmentHTML = template.Must(template.New("appointment").Parse(`<h2>New appointment from a call</h2>
<table>
<tr><td>Client</td><td>{{.ClientName}}</td></tr>
<tr><td>Phone</td><td>{{.Phone}}</td></tr>
<tr><td>Reason</td><td>{{.Reason}}</td></tr>
<tr><td>Slot</td><td>{{.Slot}}</td></tr>
<tr><td>Priority</td><td>{{.Priority}}</td></tr>
<tr><td>Call</td><td>{{.CallSid}}</td></tr>
</table>
<p>{{.Notes}}</p>`))

var appointmentText = texttemplate.Must(texttemplate.New("appointment").Parse(`New appointment from a call

Client:   {{.ClientName}}
Phone:    {{.Phone}}
Reason:   {{.Reason}}
Slot:     {{.Slot}}
Priority: {{.Priority}}
Call:     {{.CallSid}}

{{.Notes}}
`))

type appointmentEmailData struct {
	ClientName string
	Phone      string
	Reason     string
	Slot       string
	Priority   string
	CallSid    string
	Notes      string
}

// BuildAppointmentCreatedEmail describes an appointment created from call analysis
func BuildAppointmentCreatedEmail(to []string, apt *models.Appointment, loc *time.Location) *Email {
	data := appointmentEmailData{
		ClientName: apt.ClientName,
		Phone:      apt.Phone,
		Reason:     apt.Reason,
		Slot:       apt.Date.In(loc).Format("Mon 02 Jan 2006 15:04"),
		Priority:   "Normal",
		Notes:      apt.Notes,
	}
	if apt.Priority != nil {
		data.Priority = *apt.Priority
	}
	if apt.CallSid != nil {
		data.CallSid = *apt.CallSid
	}

	return &Email{
		To:       to,
		Subject:  fmt.Sprintf("New appointment: %s", apt.ClientName),
		HTMLBody: render(appointmentHTML, data),
		TextBody: renderText(appointmentText, data),
	}
}

var contactHTML = template.Must(template.New("contact").Parse(`<h2>New contact form submission</h2>
<p><strong>{{.Name}}</strong> &lt;{{.Email}}&gt; {{.PhoneNumber}}</p>
<p>{{.Message}}</p>`))

var contactText = texttemplate.Must(texttemplate.New("contact").Parse(`New contact form submission

Name:  {{.Name}}
Email: {{.Email}}
Phone: {{.PhoneNumber}}

{{.Message}}
`))

type contactEmailData struct {
	Name        string
	Email       string
	PhoneNumber string
	Message     string
}

// BuildContactEmail forwards a contact form submission to staff
func BuildContactEmail(to []string, contact *models.Contact) *Email {
	data := contactEmailData{
		Name:        contact.Name,
		Email:       contact.Email,
		PhoneNumber: contact.PhoneNumber,
	}
	if contact.Message != nil {
		data.Message = *contact.Message
	}

	return &Email{
		To:       to,
		Subject:  fmt.Sprintf("Contact form: %s", contact.Name),
		HTMLBody: render(contactHTML, data),
		TextBody: renderText(contactText, data),
	}
}

func render(tmpl *template.Template, data interface{}) string {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		log.Printf("Error rendering %s email: %v", tmpl.Name(), err)
	}
	return buf.String()
}

func renderText(tmpl *texttemplate.Template, data interface{}) string {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		log.Printf("Error rendering %s email: %v", tmpl.Name(), err)
	}
	return buf.String()
}
