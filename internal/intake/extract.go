package intake

import (
	"regexp"
	"strings"
)

var (
	dobPattern      = regexp.MustCompile(`^(0[1-9]|1[0-2])[/-](0[1-9]|[12][0-9]|3[01])[/-]\d{4}$`)
	memberIDPattern = regexp.MustCompile(`(?i)(?:member\s*id|id|member)\s*[:#]?\s*([A-Z0-9-]+)`)
	groupPattern    = regexp.MustCompile(`(?i)(?:group\s*number|group)\s*[:#]?\s*([A-Z0-9-]+)`)
	emailPattern    = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
)

// carrierVocabulary is checked in order; the first substring hit wins.
var carrierVocabulary = []string{"aetna", "bluecross", "blue cross", "united", "cigna"}

var cancelKeywords = map[string]struct{}{
	"cancel": {}, "exit": {}, "quit": {}, "stop": {}, "restart": {},
}

// IsCancel reports whether the whole trimmed input is a cancellation keyword.
func IsCancel(input string) bool {
	_, ok := cancelKeywords[strings.ToLower(strings.TrimSpace(input))]
	return ok
}

// NormalizeDOB validates MM/DD/YYYY or MM-DD-YYYY and returns the slash form.
func NormalizeDOB(input string) (string, bool) {
	trimmed := strings.TrimSpace(input)
	if !dobPattern.MatchString(trimmed) {
		return "", false
	}
	return strings.ReplaceAll(trimmed, "-", "/"), true
}

// ExtractInsurance pulls whatever carrier, member ID and group number the text holds.
func ExtractInsurance(input string) Insurance {
	var out Insurance
	lower := strings.ToLower(input)
	for _, carrier := range carrierVocabulary {
		if strings.Contains(lower, carrier) {
			out.Carrier = normalizeCarrier(carrier)
			break
		}
	}
	if m := memberIDPattern.FindStringSubmatch(input); m != nil {
		out.MemberID = m[1]
	}
	if m := groupPattern.FindStringSubmatch(input); m != nil {
		out.GroupNumber = m[1]
	}
	return out
}

// normalizeCarrier title-cases each word and drops the spaces: "blue cross" -> "BlueCross".
func normalizeCarrier(carrier string) string {
	var b strings.Builder
	for _, word := range strings.Fields(carrier) {
		b.WriteString(strings.ToUpper(word[:1]))
		b.WriteString(word[1:])
	}
	return b.String()
}

// ExtractEmail returns the first address-shaped substring.
func ExtractEmail(input string) (string, bool) {
	email := emailPattern.FindString(input)
	return email, email != ""
}

// splitName returns the first two whitespace-separated tokens when there are at least two.
func splitName(name string) (first, last string, ok bool) {
	fields := strings.Fields(name)
	if len(fields) < 2 {
		return "", "", false
	}
	return fields[0], fields[1], true
}
