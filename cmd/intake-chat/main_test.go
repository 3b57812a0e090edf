package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/clinic-intake/internal/intake"
	"github.com/wolfman30/clinic-intake/internal/scheduling"
)

type scriptedConversation struct {
	texts    []string
	selected []scheduling.Selection
}

func (c *scriptedConversation) Greeting() intake.Reply {
	return intake.Reply{Message: "Hello! What is your full name?", State: intake.StateAwaitingName}
}

func (c *scriptedConversation) Process(ctx context.Context, input string) intake.Reply {
	c.texts = append(c.texts, input)
	if input == "01/15/1990" {
		return intake.Reply{
			Message: "Please select a slot.",
			State:   intake.StateAwaitingSlotSelection,
			Slots: &intake.SlotDirective{
				Hint: "(60min appointment)",
				Doctors: []scheduling.DoctorSlots{
					{Doctor: "Dr. Brown", Dates: []scheduling.DateSlots{{Date: "2025-06-02", Times: []string{"14:00"}}}},
					{Doctor: "Dr. Smith", Dates: []scheduling.DateSlots{{Date: "2025-06-02", Times: []string{"9:00", "10:00"}}}},
				},
			},
		}
	}
	return intake.Reply{Message: "ok", State: intake.StateAwaitingDateOfBirth}
}

func (c *scriptedConversation) SelectSlot(ctx context.Context, sel scheduling.Selection) (intake.Reply, error) {
	c.selected = append(c.selected, sel)
	return intake.Reply{Message: "What is your insurance?", State: intake.StateAwaitingInsurance}, nil
}

func TestChatNumbersSlotsAndSelects(t *testing.T) {
	conv := &scriptedConversation{}
	in := strings.NewReader("John Smith\n01/15/1990\n7\n3\n2\n")
	var out bytes.Buffer

	require.NoError(t, chat(context.Background(), conv, in, &out))

	transcript := out.String()
	assert.Contains(t, transcript, "Agent: Hello! What is your full name?")
	assert.Contains(t, transcript, "Available slots (60min appointment):")
	assert.Contains(t, transcript, "2025-06-02  [1] 14:00")
	assert.Contains(t, transcript, "2025-06-02  [2] 9:00  [3] 10:00")
	assert.Contains(t, transcript, "Pick a number between 1 and 3.")

	require.Len(t, conv.selected, 1)
	assert.Equal(t, scheduling.Selection{Doctor: "Dr. Smith", Date: "2025-06-02", Time: "10:00"}, conv.selected[0])
	// Once the grid is gone a bare number is ordinary text again.
	assert.Equal(t, []string{"John Smith", "01/15/1990", "2"}, conv.texts)
}

func TestChatNumbersWithoutGridAreText(t *testing.T) {
	conv := &scriptedConversation{}
	require.NoError(t, chat(context.Background(), conv, strings.NewReader("42\n"), &bytes.Buffer{}))
	assert.Equal(t, []string{"42"}, conv.texts)
	assert.Empty(t, conv.selected)
}
