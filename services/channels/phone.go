package channels

import "strings"

// NormalizePhone returns number in E.164 form. Numbers that already start
// with "+" are returned trimmed; anything else loses its non-digits and gains
// a leading "+".
func NormalizePhone(number string) string {
	number = strings.TrimSpace(number)
	if strings.HasPrefix(number, "+") {
		return number
	}
	var b strings.Builder
	b.WriteByte('+')
	for _, r := range number {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
