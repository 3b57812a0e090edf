package intake

import "github.com/wolfman30/clinic-intake/internal/scheduling"

// State names the step a session is waiting on.
type State string

const (
	StateAwaitingName          State = "awaiting_name"
	StateAwaitingDateOfBirth   State = "awaiting_date_of_birth"
	StateAwaitingSlotSelection State = "awaiting_slot_selection"
	StateAwaitingInsurance     State = "awaiting_insurance"
	StateAwaitingEmail         State = "awaiting_email"
	StateConfirming            State = "confirming"
)

// Classification is decided once per session and drives appointment length.
type Classification string

const (
	ClassificationNew       Classification = "new"
	ClassificationReturning Classification = "returning"
)

// DurationMinutes is 60 for new patients and 30 for returning ones.
func (c Classification) DurationMinutes() int {
	if c == ClassificationReturning {
		return 30
	}
	return 60
}

// Insurance accumulates across turns; a later capture overwrites, a miss keeps.
type Insurance struct {
	Carrier     string `json:"carrier,omitempty"`
	MemberID    string `json:"member_id,omitempty"`
	GroupNumber string `json:"group_number,omitempty"`
}

// Complete reports whether the required fields are present.
func (i Insurance) Complete() bool {
	return i.Carrier != "" && i.MemberID != ""
}

// merge overlays the non-empty fields of next.
func (i Insurance) merge(next Insurance) Insurance {
	if next.Carrier != "" {
		i.Carrier = next.Carrier
	}
	if next.MemberID != "" {
		i.MemberID = next.MemberID
	}
	if next.GroupNumber != "" {
		i.GroupNumber = next.GroupNumber
	}
	return i
}

// missing lists the required fields still absent, carrier first.
func (i Insurance) missing() []string {
	var out []string
	if i.Carrier == "" {
		out = append(out, "insurance carrier")
	}
	if i.MemberID == "" {
		out = append(out, "member ID")
	}
	return out
}

// Each step type carries exactly the fields collected before it.

type step interface {
	state() State
}

type awaitingName struct{}

type awaitingDateOfBirth struct {
	name string
}

type identified struct {
	name           string
	dob            string
	classification Classification
}

type awaitingSlotSelection struct {
	identified
}

type booked struct {
	identified
	slot     scheduling.Selection
	duration int
}

type awaitingInsurance struct {
	booked
	insurance Insurance
}

type awaitingEmail struct {
	booked
	insurance Insurance
}

type confirming struct {
	booked
	insurance Insurance
	email     string
}

func (awaitingName) state() State          { return StateAwaitingName }
func (awaitingDateOfBirth) state() State   { return StateAwaitingDateOfBirth }
func (awaitingSlotSelection) state() State { return StateAwaitingSlotSelection }
func (awaitingInsurance) state() State     { return StateAwaitingInsurance }
func (awaitingEmail) state() State         { return StateAwaitingEmail }
func (confirming) state() State            { return StateConfirming }
