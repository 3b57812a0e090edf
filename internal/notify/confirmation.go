package notify

import (
	"context"
	"fmt"

	"github.com/wolfman30/clinic-intake/internal/bookings"
	"github.com/wolfman30/clinic-intake/pkg/logging"
)

const notProvided = "Not provided"

// ConfirmationNotifier emails the patient a booking confirmation with the
// intake form attached when one is available.
type ConfirmationNotifier struct {
	sender EmailSender
	form   Document
	clinic string
	logger *logging.Logger
}

// NewConfirmationNotifier builds a notifier. sender and form may be nil.
func NewConfirmationNotifier(sender EmailSender, form Document, clinicName string, logger *logging.Logger) *ConfirmationNotifier {
	if logger == nil {
		logger = logging.Default()
	}
	if clinicName == "" {
		clinicName = "Medical Clinic"
	}
	return &ConfirmationNotifier{sender: sender, form: form, clinic: clinicName, logger: logger}
}

type confirmationData struct {
	Clinic      string
	Name        string
	Doctor      string
	Date        string
	Time        string
	Duration    int
	PatientType string
	Carrier     string
	MemberID    string
	GroupNumber string
	HasForm     bool
}

// NotifyBooking sends the confirmation email for appt.
func (n *ConfirmationNotifier) NotifyBooking(ctx context.Context, appt bookings.Appointment) error {
	if n == nil || n.sender == nil {
		return ErrSenderNotConfigured
	}
	if appt.PatientEmail == "" {
		return ErrNoRecipient
	}

	var attachments []Attachment
	if n.form != nil {
		att, err := n.form.Load(ctx)
		if err != nil {
			n.logger.Warn("intake form unavailable, sending without attachment", "error", err)
		} else if att != nil {
			attachments = append(attachments, *att)
		}
	}

	msg, err := n.buildMessage(appt, len(attachments) > 0)
	if err != nil {
		return err
	}
	msg.Attachments = attachments

	if err := n.sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("notify: send confirmation: %w", err)
	}
	return nil
}

func (n *ConfirmationNotifier) buildMessage(appt bookings.Appointment, hasForm bool) (EmailMessage, error) {
	data := confirmationData{
		Clinic:      n.clinic,
		Name:        appt.PatientName,
		Doctor:      appt.Doctor,
		Date:        appt.Date,
		Time:        appt.Time,
		Duration:    appt.DurationMinutes,
		PatientType: appt.PatientType,
		Carrier:     orNotProvided(appt.InsuranceCarrier),
		MemberID:    orNotProvided(appt.MemberID),
		GroupNumber: orNotProvided(appt.GroupNumber),
		HasForm:     hasForm,
	}
	subject, err := render("subject", confirmationSubject, data)
	if err != nil {
		return EmailMessage{}, err
	}
	text, err := render("text", confirmationText, data)
	if err != nil {
		return EmailMessage{}, err
	}
	html, err := renderHTML("html", confirmationHTML, data)
	if err != nil {
		return EmailMessage{}, err
	}
	return EmailMessage{
		To:      appt.PatientEmail,
		ToName:  appt.PatientName,
		Subject: subject,
		Body:    text,
		HTML:    html,
	}, nil
}

func orNotProvided(v string) string {
	if v == "" {
		return notProvided
	}
	return v
}

var _ bookings.Notifier = (*ConfirmationNotifier)(nil)
