package intake

import (
	"fmt"
	"strings"
)

const (
	cancelHint      = "Type 'cancel' to stop."
	cancelHintLong  = "Type 'cancel' to stop the booking process."
	restartPrompt   = "How can I help you today? Type your name to start a new booking."
	selectSlotText  = "Please select an available time slot from the calendar."
	invalidSlotText = "Invalid slot selection. Please try again."
	notProvided     = "Not provided"
)

func greetingMessage(clinic string) string {
	return fmt.Sprintf("Hello! Welcome to %s. I'm here to help you schedule an appointment. What is your full name?\n\nYou can type 'cancel' at any time to stop the booking process.", clinic)
}

func cancelledMessage() string {
	return "Appointment cancelled. " + restartPrompt
}

func emptyNameMessage() string {
	return "Please provide your full name. " + cancelHint
}

func askDOBMessage(name string) string {
	return fmt.Sprintf("Nice to meet you, %s! What is your date of birth? (MM/DD/YYYY)\n\nYou can type 'cancel' at any time to stop the booking process.", name)
}

func badDOBMessage() string {
	return "Please provide your date of birth in MM/DD/YYYY format (e.g., 01/15/1990). " + cancelHintLong
}

func classifiedMessage(name string, c Classification) string {
	if c == ClassificationReturning {
		return fmt.Sprintf("Welcome back %s! I found you in our system as a returning patient.", name)
	}
	return fmt.Sprintf("Nice to meet you %s! I'll set you up as a new patient.", name)
}

func noSlotsMessage(name string, c Classification) string {
	return classifiedMessage(name, c) + " Unfortunately, there are no available slots at the moment. Please try again later."
}

func insurancePromptMessage(c Classification, duration int) string {
	return fmt.Sprintf("As a %s patient, your appointment will be %d minutes. Now let's collect your insurance information. Please provide:\n"+
		"1. Insurance Carrier (e.g., Aetna, BlueCross)\n2. Member ID\n3. Group Number (if available)\n\n%s",
		c, duration, cancelHintLong)
}

func missingInsuranceMessage(missing []string) string {
	return fmt.Sprintf("I still need your %s. Please provide the missing information. %s", strings.Join(missing, ", "), cancelHint)
}

func durationLabel(minutes int) string {
	if minutes == 60 {
		return "60 minutes (new patient)"
	}
	return "30 minutes (returning patient)"
}

func insuranceReceivedMessage(ins Insurance, duration int) string {
	var b strings.Builder
	b.WriteString("Insurance information received:\n")
	fmt.Fprintf(&b, "- Carrier: %s\n- Member ID: %s", ins.Carrier, ins.MemberID)
	if ins.GroupNumber != "" {
		fmt.Fprintf(&b, "\n- Group Number: %s", ins.GroupNumber)
	}
	fmt.Fprintf(&b, "\n\nAppointment Duration: %s", durationLabel(duration))
	b.WriteString("\n\nWhat is your email address for confirmation and patient forms? " + cancelHint)
	return b.String()
}

func badEmailMessage() string {
	return "Please provide a valid email address. " + cancelHintLong
}

// confirmationOutcome picks the closing line after the side effects ran.
type confirmationOutcome int

const (
	outcomeNotified confirmationOutcome = iota
	outcomeSavedNotNotified
	outcomeSaveFailed
)

func confirmationMessage(c confirming, outcome confirmationOutcome) string {
	var b strings.Builder
	b.WriteString("Appointment Confirmed!\n\n")
	fmt.Fprintf(&b, "Patient: %s (%s)\n", c.name, c.classification)
	fmt.Fprintf(&b, "Email: %s\n", c.email)
	fmt.Fprintf(&b, "Doctor: %s\n", c.slot.Doctor)
	fmt.Fprintf(&b, "Date: %s\n", c.slot.Date)
	fmt.Fprintf(&b, "Time: %s\n", c.slot.Time)
	fmt.Fprintf(&b, "Duration: %s\n\n", durationLabel(c.duration))
	b.WriteString("Insurance Information:\n")
	fmt.Fprintf(&b, "- Carrier: %s\n", orNotProvided(c.insurance.Carrier))
	fmt.Fprintf(&b, "- Member ID: %s\n", orNotProvided(c.insurance.MemberID))
	fmt.Fprintf(&b, "- Group Number: %s", orNotProvided(c.insurance.GroupNumber))

	switch outcome {
	case outcomeNotified:
		b.WriteString("\n\nConfirmation email with patient intake form has been sent to your email address!")
	case outcomeSavedNotNotified:
		b.WriteString("\n\nAppointment saved. Email could not be sent.")
	default:
		b.WriteString("\n\nThere was an issue saving your appointment.")
	}
	b.WriteString("\n\n" + restartPrompt)
	return b.String()
}

func orNotProvided(v string) string {
	if v == "" {
		return notProvided
	}
	return v
}
