package scheduling

// DoctorSlots groups one doctor's available times by date.
type DoctorSlots struct {
	Doctor string      `json:"doctor"`
	Dates  []DateSlots `json:"dates"`
}

// DateSlots lists the available times for one date in ascending order.
type DateSlots struct {
	Date  string   `json:"date"`
	Times []string `json:"times"`
}

// Group arranges slots doctor → date → time. Input order does not matter.
func Group(slots []Slot) []DoctorSlots {
	sorted := make([]Slot, len(slots))
	copy(sorted, slots)
	SortSlots(sorted)

	var groups []DoctorSlots
	for _, s := range sorted {
		if len(groups) == 0 || groups[len(groups)-1].Doctor != s.Doctor {
			groups = append(groups, DoctorSlots{Doctor: s.Doctor})
		}
		doc := &groups[len(groups)-1]
		if len(doc.Dates) == 0 || doc.Dates[len(doc.Dates)-1].Date != s.Date {
			doc.Dates = append(doc.Dates, DateSlots{Date: s.Date})
		}
		day := &doc.Dates[len(doc.Dates)-1]
		day.Times = append(day.Times, s.Time)
	}
	return groups
}
