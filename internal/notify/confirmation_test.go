package notify

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/clinic-intake/internal/bookings"
	"github.com/wolfman30/clinic-intake/pkg/logging"
)

func confirmedAppointment() bookings.Appointment {
	return bookings.Appointment{
		PatientName:      "John <b>Smith</b>",
		PatientType:      "New",
		PatientEmail:     "john@example.com",
		Doctor:           "Dr. Smith",
		Date:             "2025-06-02",
		Time:             "9:00",
		DurationMinutes:  60,
		InsuranceCarrier: "Aetna",
		MemberID:         "M445",
		Status:           bookings.StatusConfirmed,
	}
}

func TestConfirmationNotifier_SendsWithAttachment(t *testing.T) {
	dir := t.TempDir()
	form := filepath.Join(dir, "patient_intake_form.pdf")
	require.NoError(t, os.WriteFile(form, []byte("%PDF-1.4 form"), 0o644))

	sender := NewStubEmailSender(logging.Discard())
	n := NewConfirmationNotifier(sender, FileDocument{Path: form}, "Eastside Clinic", logging.Discard())

	require.NoError(t, n.NotifyBooking(context.Background(), confirmedAppointment()))
	require.Len(t, sender.Sent, 1)
	msg := sender.Sent[0]

	assert.Equal(t, "john@example.com", msg.To)
	assert.Equal(t, "Your Appointment Confirmation - Eastside Clinic", msg.Subject)
	assert.Contains(t, msg.Body, "DOCTOR: Dr. Smith")
	assert.Contains(t, msg.Body, "DURATION: 60 minutes (New patient)")
	assert.Contains(t, msg.Body, "- Group Number: Not provided")
	assert.Contains(t, msg.Body, "intake form is attached")
	assert.Contains(t, msg.HTML, "John &lt;b&gt;Smith&lt;/b&gt;", "patient values are escaped in html")
	require.Len(t, msg.Attachments, 1)
	assert.Equal(t, "patient_intake_form.pdf", msg.Attachments[0].Filename)
	assert.Equal(t, "application/pdf", msg.Attachments[0].ContentType)
}

func TestConfirmationNotifier_MissingFormStillSends(t *testing.T) {
	sender := NewStubEmailSender(logging.Discard())
	n := NewConfirmationNotifier(sender, FileDocument{Path: filepath.Join(t.TempDir(), "nope.pdf")}, "", logging.Discard())

	require.NoError(t, n.NotifyBooking(context.Background(), confirmedAppointment()))
	require.Len(t, sender.Sent, 1)
	assert.Empty(t, sender.Sent[0].Attachments)
	assert.NotContains(t, sender.Sent[0].Body, "intake form is attached")
	assert.Contains(t, sender.Sent[0].Subject, "Medical Clinic")
}

func TestConfirmationNotifier_FailsFast(t *testing.T) {
	n := NewConfirmationNotifier(nil, nil, "", logging.Discard())
	assert.ErrorIs(t, n.NotifyBooking(context.Background(), confirmedAppointment()), ErrSenderNotConfigured)

	n = NewConfirmationNotifier(NewStubEmailSender(logging.Discard()), nil, "", logging.Discard())
	appt := confirmedAppointment()
	appt.PatientEmail = ""
	assert.ErrorIs(t, n.NotifyBooking(context.Background(), appt), ErrNoRecipient)
}

type failingSender struct{}

func (failingSender) Send(context.Context, EmailMessage) error { return errors.New("connection refused") }

func TestConfirmationNotifier_SenderError(t *testing.T) {
	n := NewConfirmationNotifier(failingSender{}, nil, "", logging.Discard())
	err := n.NotifyBooking(context.Background(), confirmedAppointment())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

type fakeS3 struct {
	bucket, key string
	body        []byte
	err         error
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.bucket = aws.ToString(in.Bucket)
	f.key = aws.ToString(in.Key)
	if f.err != nil {
		return nil, f.err
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(f.body))}, nil
}

func TestS3Document_Load(t *testing.T) {
	client := &fakeS3{body: []byte("%PDF")}
	doc := S3Document{Client: client, Bucket: "clinic-docs", Key: "forms/patient_intake_form.pdf"}

	att, err := doc.Load(context.Background())
	require.NoError(t, err)
	require.NotNil(t, att)
	assert.Equal(t, "clinic-docs", client.bucket)
	assert.Equal(t, "forms/patient_intake_form.pdf", client.key)
	assert.Equal(t, "patient_intake_form.pdf", att.Filename)
	assert.Equal(t, "application/pdf", att.ContentType)
	assert.Equal(t, []byte("%PDF"), att.Data)
}

func TestS3Document_LoadError(t *testing.T) {
	doc := S3Document{Client: &fakeS3{err: errors.New("access denied")}, Bucket: "b", Key: "k.pdf"}
	_, err := doc.Load(context.Background())
	require.Error(t, err)

	att, err := S3Document{}.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, att)
}

func TestRenderMissingKey(t *testing.T) {
	out, err := render("greet", "Hello {{.Name}}", map[string]string{"Name": "Patient"})
	require.NoError(t, err)
	assert.Equal(t, "Hello Patient", out)

	_, err = render("bad", "Hello {{.Missing}}", map[string]string{"Name": "x"})
	assert.Error(t, err)
}
