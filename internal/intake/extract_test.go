package intake

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeDOB(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"01/15/1990", "01/15/1990", true},
		{"01-15-1990", "01/15/1990", true},
		{"  12/31/2001 ", "12/31/2001", true},
		{"01/15-1990", "01/15/1990", true},
		{"1/15/1990", "", false},
		{"13/01/1990", "", false},
		{"00/10/1990", "", false},
		{"02/32/1990", "", false},
		{"1990-01-15", "", false},
		{"01/15/90", "", false},
		{"born 01/15/1990", "", false},
	}
	for _, tt := range tests {
		got, ok := NormalizeDOB(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestNormalizeDOB_SeparatorsAgree(t *testing.T) {
	for _, dob := range []string{"01/01/2000", "02/29/1996", "11/30/1975", "10/09/1950"} {
		slash, ok := NormalizeDOB(dob)
		assert.True(t, ok)
		dash, ok := NormalizeDOB(dob[:2] + "-" + dob[3:5] + "-" + dob[6:])
		assert.True(t, ok)
		assert.Equal(t, slash, dash)
	}
}

func TestIsCancel(t *testing.T) {
	for _, in := range []string{"cancel", "EXIT", " Quit ", "stop", "Restart"} {
		assert.True(t, IsCancel(in), in)
	}
	for _, in := range []string{"please cancel", "stopping", "", "cancel it"} {
		assert.False(t, IsCancel(in), in)
	}
}

func TestExtractInsurance(t *testing.T) {
	tests := []struct {
		in   string
		want Insurance
	}{
		{"Aetna member id: M445", Insurance{Carrier: "Aetna", MemberID: "M445"}},
		{"blue cross, member # BC-100, group number: G77", Insurance{Carrier: "BlueCross", MemberID: "BC-100", GroupNumber: "G77"}},
		{"BLUECROSS id 555", Insurance{Carrier: "Bluecross", MemberID: "555"}},
		{"United Healthcare", Insurance{Carrier: "United"}},
		{"cigna or bluecross", Insurance{Carrier: "Bluecross"}},
		{"my group is G1", Insurance{GroupNumber: "is"}},
		{"member: C-77 group number: G9", Insurance{MemberID: "C-77", GroupNumber: "G9"}},
		{"hello", Insurance{}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ExtractInsurance(tt.in), tt.in)
	}
}

func TestInsuranceMergeAndMissing(t *testing.T) {
	ins := Insurance{}.merge(Insurance{Carrier: "Cigna"})
	assert.Equal(t, []string{"member ID"}, ins.missing())
	assert.False(t, ins.Complete())

	ins = ins.merge(Insurance{MemberID: "C1"})
	assert.Equal(t, "Cigna", ins.Carrier, "a miss keeps the earlier capture")
	assert.True(t, ins.Complete())

	ins = ins.merge(Insurance{Carrier: "Aetna"})
	assert.Equal(t, "Aetna", ins.Carrier, "a later hit overwrites")
	assert.Equal(t, []string{"insurance carrier", "member ID"}, Insurance{}.missing())
}

func TestExtractEmail(t *testing.T) {
	got, ok := ExtractEmail("contact me at a.b@example.com please")
	assert.True(t, ok)
	assert.Equal(t, "a.b@example.com", got)

	got, ok = ExtractEmail("first x+y@mail.example.org then z@example.com")
	assert.True(t, ok)
	assert.Equal(t, "x+y@mail.example.org", got)

	_, ok = ExtractEmail("not-an-email@nowhere")
	assert.False(t, ok)
}

func TestSplitName(t *testing.T) {
	first, last, ok := splitName("  John   Smith Jr ")
	assert.True(t, ok)
	assert.Equal(t, "John", first)
	assert.Equal(t, "Smith", last)

	_, _, ok = splitName("Cher")
	assert.False(t, ok)
}

func TestClassificationDuration(t *testing.T) {
	assert.Equal(t, 60, ClassificationNew.DurationMinutes())
	assert.Equal(t, 30, ClassificationReturning.DurationMinutes())
}
