package notify

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"text/template"
)

// render compiles tmpl with strict missing-key semantics.
func render(name, tmpl string, data any) (string, error) {
	if tmpl == "" {
		return "", fmt.Errorf("notify: template text required")
	}
	t, err := template.New(name).Option("missingkey=error").Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("notify: parse %s: %w", name, err)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("notify: execute %s: %w", name, err)
	}
	return buf.String(), nil
}

// renderHTML is render with contextual escaping of patient-supplied values.
func renderHTML(name, tmpl string, data any) (string, error) {
	if tmpl == "" {
		return "", fmt.Errorf("notify: template text required")
	}
	t, err := htmltemplate.New(name).Option("missingkey=error").Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("notify: parse %s: %w", name, err)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("notify: execute %s: %w", name, err)
	}
	return buf.String(), nil
}

const confirmationSubject = "Your Appointment Confirmation - {{.Clinic}}"

const confirmationText = `APPOINTMENT CONFIRMATION - {{.Clinic}}

Dear {{.Name}},

Your appointment has been confirmed:

DOCTOR: {{.Doctor}}
DATE: {{.Date}}
TIME: {{.Time}}
DURATION: {{.Duration}} minutes ({{.PatientType}} patient)

INSURANCE INFORMATION:
- Carrier: {{.Carrier}}
- Member ID: {{.MemberID}}
- Group Number: {{.GroupNumber}}
{{if .HasForm}}
The patient intake form is attached. Please complete it before your visit.
{{end}}
Please arrive 15 minutes early for your appointment.
Bring your insurance card and photo ID.
`

const confirmationHTML = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"></head>
<body style="font-family: Arial, sans-serif; color: #333; max-width: 600px; margin: 0 auto;">
  <h1>{{.Clinic}}</h1>
  <h2>Appointment Confirmed</h2>
  <p>Dear <strong>{{.Name}}</strong>,</p>
  <p>Your appointment has been successfully scheduled.</p>
  <h3>Appointment Details</h3>
  <table>
    <tr><td><strong>Doctor:</strong></td><td>{{.Doctor}}</td></tr>
    <tr><td><strong>Date:</strong></td><td>{{.Date}}</td></tr>
    <tr><td><strong>Time:</strong></td><td>{{.Time}}</td></tr>
    <tr><td><strong>Duration:</strong></td><td>{{.Duration}} minutes ({{.PatientType}} patient)</td></tr>
  </table>
  <h3>Insurance Information</h3>
  <table>
    <tr><td><strong>Carrier:</strong></td><td>{{.Carrier}}</td></tr>
    <tr><td><strong>Member ID:</strong></td><td>{{.MemberID}}</td></tr>
    <tr><td><strong>Group Number:</strong></td><td>{{.GroupNumber}}</td></tr>
  </table>
  {{if .HasForm}}<p><strong>Important documents attached:</strong> please complete the patient intake form before your visit.</p>{{end}}
  <p>Please arrive <strong>15 minutes early</strong> for your appointment. Bring your insurance card and photo ID.</p>
</body>
</html>
`
