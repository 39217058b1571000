package logger

import "regexp"

// uidRegex matches a bare 12-digit sequence, the shape of an Aadhaar number.
// Aggregate exports should never carry one, but upstream CSVs are not trusted.
var uidRegex = regexp.MustCompile(`\b\d{12}\b`)

// RedactUID masks any Aadhaar-shaped number embedded in val, keeping the last
// four digits: "234512341234" -> "XXXX-XXXX-1234".
func RedactUID(val string) string {
	return uidRegex.ReplaceAllStringFunc(val, func(m string) string {
		return "XXXX-XXXX-" + m[len(m)-4:]
	})
}
