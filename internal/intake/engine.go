// Package intake runs the step-by-step booking conversation: name, date of
// birth, slot, insurance, email, confirmation.
package intake

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/clinic-intake/internal/bookings"
	"github.com/wolfman30/clinic-intake/internal/observability/metrics"
	"github.com/wolfman30/clinic-intake/internal/patients"
	"github.com/wolfman30/clinic-intake/internal/scheduling"
	"github.com/wolfman30/clinic-intake/pkg/logging"
)

var intakeTracer = otel.Tracer("clinic.internal.intake")

// ErrNoSelectionPending is returned by SelectSlot outside the slot step.
var ErrNoSelectionPending = errors.New("intake: no slot selection pending")

// BookingRecorder writes the ledger row and sends the confirmation.
type BookingRecorder interface {
	Append(ctx context.Context, appt bookings.Appointment) (bookings.Appointment, error)
	Notify(ctx context.Context, appt bookings.Appointment) error
}

// SlotDirective asks the UI to render the grouped available slots.
type SlotDirective struct {
	Doctors         []scheduling.DoctorSlots `json:"doctors"`
	DurationMinutes int                      `json:"duration_minutes"`
	Hint            string                   `json:"hint"`
}

// Reply is the engine's answer to one event.
type Reply struct {
	Message string         `json:"message"`
	State   State          `json:"state"`
	Slots   *SlotDirective `json:"slots,omitempty"`
}

// Deps are the collaborators an Engine needs.
type Deps struct {
	Slots      scheduling.Store
	Directory  patients.Directory
	Recorder   BookingRecorder
	Metrics    *metrics.IntakeMetrics
	Logger     *logging.Logger
	ClinicName string
}

// Engine holds one session's conversation state. It is not safe for
// concurrent use; Manager serialises events per session.
type Engine struct {
	slots     scheduling.Store
	directory patients.Directory
	recorder  BookingRecorder
	metrics   *metrics.IntakeMetrics
	logger    *logging.Logger
	clinic    string
	step      step
}

// NewEngine builds an engine positioned at AwaitingName.
func NewEngine(deps Deps) *Engine {
	if deps.Slots == nil {
		panic("intake: slot store required")
	}
	if deps.Directory == nil {
		panic("intake: patient directory required")
	}
	if deps.Recorder == nil {
		panic("intake: booking recorder required")
	}
	if deps.Logger == nil {
		deps.Logger = logging.Default()
	}
	if deps.ClinicName == "" {
		deps.ClinicName = "our medical clinic"
	}
	return &Engine{
		slots:     deps.Slots,
		directory: deps.Directory,
		recorder:  deps.Recorder,
		metrics:   deps.Metrics,
		logger:    deps.Logger,
		clinic:    deps.ClinicName,
		step:      awaitingName{},
	}
}

// State reports the step the engine is waiting on.
func (e *Engine) State() State {
	return e.step.state()
}

// Greeting is the opening line of every session.
func (e *Engine) Greeting() Reply {
	return Reply{Message: greetingMessage(e.clinic), State: e.State()}
}

// Process handles one free-text utterance. Malformed input never fails the
// session; it produces a re-prompt.
func (e *Engine) Process(ctx context.Context, input string) Reply {
	ctx, span := intakeTracer.Start(ctx, "intake.process")
	defer span.End()
	span.SetAttributes(attribute.String("clinic.intake.state", string(e.State())))

	if IsCancel(input) {
		e.reset()
		e.metrics.ObserveTurn(string(StateAwaitingName), "cancelled")
		return e.reply(cancelledMessage())
	}

	before := e.State()
	var r Reply
	switch s := e.step.(type) {
	case awaitingName:
		r = e.handleName(input)
	case awaitingDateOfBirth:
		r = e.handleDateOfBirth(ctx, s, input)
	case awaitingSlotSelection:
		r = e.reoffer(ctx, s.identified, selectSlotText)
	case awaitingInsurance:
		r = e.handleInsurance(s, input)
	case awaitingEmail:
		r = e.handleEmail(ctx, s, input)
	default:
		e.reset()
		r = e.reply("I'm not sure what to do next. Please start over.")
	}
	e.metrics.ObserveTurn(string(r.State), turnResult(before, r.State))
	return r
}

// SelectSlot handles a structured selection event. The returned error wraps
// scheduling.ErrInvalidSelection, scheduling.ErrSlotUnavailable or
// ErrNoSelectionPending; the Reply is always safe to show.
func (e *Engine) SelectSlot(ctx context.Context, sel scheduling.Selection) (Reply, error) {
	ctx, span := intakeTracer.Start(ctx, "intake.select_slot")
	defer span.End()
	span.SetAttributes(attribute.String("clinic.slot", sel.Key()))

	s, ok := e.step.(awaitingSlotSelection)
	if !ok {
		return e.reply("There is no time slot to choose right now. " + e.currentPrompt()), ErrNoSelectionPending
	}
	if err := sel.Validate(); err != nil {
		e.metrics.ObserveSelectionError()
		return e.reoffer(ctx, s.identified, invalidSlotText), err
	}

	duration := s.classification.DurationMinutes()
	chosen, err := e.claim(ctx, sel, duration)
	if err != nil {
		span.RecordError(err)
		e.metrics.ObserveSelectionError()
		e.logger.Info("slot selection rejected", "slot", sel.Key(), "error", err)
		return e.reoffer(ctx, s.identified, invalidSlotText), err
	}

	e.step = awaitingInsurance{booked: booked{identified: s.identified, slot: chosen, duration: duration}}
	e.metrics.ObserveTurn(string(StateAwaitingInsurance), "advanced")
	e.logger.Info("slot booked", "doctor", chosen.Doctor, "date", chosen.Date, "time", chosen.Time, "duration_minutes", duration)
	return e.reply(insurancePromptMessage(s.classification, duration)), nil
}

// SelectSlotKey parses a doctor|date|time event and selects it.
func (e *Engine) SelectSlotKey(ctx context.Context, raw string) (Reply, error) {
	sel, err := scheduling.ParseSelection(raw)
	if err != nil {
		if s, ok := e.step.(awaitingSlotSelection); ok {
			e.metrics.ObserveSelectionError()
			return e.reoffer(ctx, s.identified, invalidSlotText), err
		}
		return e.reply(invalidSlotText + " " + e.currentPrompt()), err
	}
	return e.SelectSlot(ctx, sel)
}

func (e *Engine) handleName(input string) Reply {
	name := strings.TrimSpace(input)
	if name == "" {
		return e.reply(emptyNameMessage())
	}
	e.step = awaitingDateOfBirth{name: name}
	return e.reply(askDOBMessage(name))
}

func (e *Engine) handleDateOfBirth(ctx context.Context, s awaitingDateOfBirth, input string) Reply {
	dob, ok := NormalizeDOB(input)
	if !ok {
		return e.reply(badDOBMessage())
	}
	id := identified{name: s.name, dob: dob, classification: e.classify(ctx, s.name, dob)}

	return e.reoffer(ctx, id, classifiedMessage(id.name, id.classification)+" "+selectSlotText)
}

// classify looks the patient up when the name has at least two tokens. A
// directory failure is logged and treated as a miss.
func (e *Engine) classify(ctx context.Context, name, dob string) Classification {
	first, last, ok := splitName(name)
	if !ok {
		return ClassificationNew
	}
	match, err := e.directory.FindMatch(ctx, first, last, dob)
	if err != nil {
		e.logger.Warn("patient lookup failed, treating as new", "error", err)
		return ClassificationNew
	}
	if match != nil {
		return ClassificationReturning
	}
	return ClassificationNew
}

// slotDirectiveReply moves to AwaitingSlotSelection and attaches the current
// availability. It returns the number of slots shown; zero leaves the step
// untouched so callers can decide what an empty table means.
func (e *Engine) slotDirectiveReply(ctx context.Context, id identified, message string) (Reply, int) {
	slots, err := e.slots.ListAvailable(ctx)
	if err != nil {
		e.logger.Warn("listing available slots failed", "error", err)
		slots = nil
	}
	if len(slots) == 0 {
		return e.reply(message), 0
	}
	duration := id.classification.DurationMinutes()
	e.step = awaitingSlotSelection{identified: id}
	r := e.reply(message)
	r.Slots = &SlotDirective{
		Doctors:         scheduling.Group(slots),
		DurationMinutes: duration,
		Hint:            fmt.Sprintf("(%dmin appointment)", duration),
	}
	return r, len(slots)
}

// reoffer presents the current availability. With nothing left to book the
// session resets with the no-slots apology.
func (e *Engine) reoffer(ctx context.Context, id identified, message string) Reply {
	r, available := e.slotDirectiveReply(ctx, id, message)
	if available == 0 {
		e.reset()
		return e.reply(noSlotsMessage(id.name, id.classification))
	}
	return r
}

// claim flips the chosen slot and, for long appointments, the slot 30 minutes
// later on a best-effort basis. Times are compared numerically so "09:00"
// selects a slot stored as "9:00".
func (e *Engine) claim(ctx context.Context, sel scheduling.Selection, duration int) (scheduling.Selection, error) {
	available, err := e.slots.ListAvailable(ctx)
	if err != nil {
		return sel, fmt.Errorf("intake: list slots: %w", err)
	}
	target, ok := findSlot(available, sel.Doctor, sel.Date, sel.Time)
	if !ok {
		return sel, scheduling.ErrSlotUnavailable
	}
	flipped, err := e.slots.MarkUnavailable(ctx, target.Doctor, target.Date, target.Time)
	if err != nil {
		return sel, fmt.Errorf("intake: reserve slot: %w", err)
	}
	if !flipped {
		return sel, scheduling.ErrSlotUnavailable
	}
	chosen := scheduling.Selection{Doctor: target.Doctor, Date: target.Date, Time: target.Time}

	if duration > 30 {
		nextClock, err := scheduling.AddMinutes(target.Time, 30)
		if err != nil {
			return chosen, nil
		}
		if next, ok := findSlot(available, target.Doctor, target.Date, nextClock); ok {
			if _, err := e.slots.MarkUnavailable(ctx, next.Doctor, next.Date, next.Time); err != nil {
				e.logger.Warn("follow-on slot not reserved", "slot", next.Key(), "error", err)
			}
		}
	}
	return chosen, nil
}

func findSlot(slots []scheduling.Slot, doctor, date, clock string) (scheduling.Slot, bool) {
	want, err := scheduling.ParseClock(clock)
	if err != nil {
		return scheduling.Slot{}, false
	}
	for _, s := range slots {
		if s.Doctor != doctor || s.Date != date {
			continue
		}
		if got, err := scheduling.ParseClock(s.Time); err == nil && got == want {
			return s, true
		}
	}
	return scheduling.Slot{}, false
}

func (e *Engine) handleInsurance(s awaitingInsurance, input string) Reply {
	s.insurance = s.insurance.merge(ExtractInsurance(input))
	if !s.insurance.Complete() {
		e.step = s
		return e.reply(missingInsuranceMessage(s.insurance.missing()))
	}
	e.step = awaitingEmail{booked: s.booked, insurance: s.insurance}
	return e.reply(insuranceReceivedMessage(s.insurance, s.duration))
}

func (e *Engine) handleEmail(ctx context.Context, s awaitingEmail, input string) Reply {
	email, ok := ExtractEmail(input)
	if !ok {
		return e.reply(badEmailMessage())
	}
	c := confirming{booked: s.booked, insurance: s.insurance, email: email}
	e.step = c
	return e.confirm(ctx, c)
}

// confirm records, notifies and registers new patients. Failures downgrade
// the closing message but never undo the slot reservation.
func (e *Engine) confirm(ctx context.Context, c confirming) Reply {
	ctx, span := intakeTracer.Start(ctx, "intake.confirm")
	defer span.End()
	span.SetAttributes(
		attribute.String("clinic.classification", string(c.classification)),
		attribute.Int("clinic.duration_minutes", c.duration),
	)

	appt := bookings.Appointment{
		PatientName:      c.name,
		PatientType:      string(c.classification),
		PatientEmail:     c.email,
		PatientDOB:       c.dob,
		Doctor:           c.slot.Doctor,
		Date:             c.slot.Date,
		Time:             c.slot.Time,
		DurationMinutes:  c.duration,
		InsuranceCarrier: c.insurance.Carrier,
		MemberID:         c.insurance.MemberID,
		GroupNumber:      c.insurance.GroupNumber,
		Status:           bookings.StatusConfirmed,
	}

	appt, appendErr := e.recorder.Append(ctx, appt)
	e.metrics.ObserveOutcome("ledger", appendErr == nil)
	if appendErr != nil {
		span.RecordError(appendErr)
	}
	notifyErr := e.recorder.Notify(ctx, appt)
	e.metrics.ObserveOutcome("notify", notifyErr == nil)
	if notifyErr != nil {
		span.RecordError(notifyErr)
		e.logger.Warn("confirmation email not sent", "error", notifyErr)
	}

	if c.classification == ClassificationNew {
		e.registerPatient(ctx, c)
	}

	outcome := outcomeSaveFailed
	switch {
	case notifyErr == nil:
		outcome = outcomeNotified
	case appendErr == nil:
		outcome = outcomeSavedNotNotified
	}
	e.metrics.ObserveBooking(string(c.classification))
	e.logger.Info("booking confirmed", "doctor", appt.Doctor, "date", appt.Date, "time", appt.Time, "classification", c.classification)

	message := confirmationMessage(c, outcome)
	e.reset()
	return e.reply(message)
}

// registerPatient stores a new patient as returning so the next visit matches.
func (e *Engine) registerPatient(ctx context.Context, c confirming) {
	first, last, ok := splitName(c.name)
	if !ok {
		e.logger.Info("single-token name not added to directory")
		return
	}
	err := e.directory.Append(ctx, patients.Patient{
		FirstName:        first,
		LastName:         last,
		DOB:              c.dob,
		Email:            c.email,
		IsReturning:      true,
		InsuranceCarrier: c.insurance.Carrier,
		MemberID:         c.insurance.MemberID,
		GroupNumber:      c.insurance.GroupNumber,
	})
	e.metrics.ObserveOutcome("directory", err == nil)
	if err != nil {
		e.logger.Error("adding patient to directory failed", "error", err)
	}
}

func (e *Engine) currentPrompt() string {
	switch s := e.step.(type) {
	case awaitingDateOfBirth:
		return askDOBMessage(s.name)
	case awaitingInsurance:
		return insurancePromptMessage(s.classification, s.duration)
	case awaitingEmail:
		return badEmailMessage()
	default:
		return "What is your full name?"
	}
}

func (e *Engine) reset() {
	e.step = awaitingName{}
}

func (e *Engine) reply(message string) Reply {
	return Reply{Message: message, State: e.State()}
}

func turnResult(before, after State) string {
	if before == after {
		return "reprompt"
	}
	return "advanced"
}
