package utils

import (
	"strings"
	"unicode"
)

// BeninPrefix is the international dialing prefix every registered phone must carry
const BeninPrefix = "229"

// MinPhoneDigits is the shortest accepted phone, prefix included
const MinPhoneDigits = 11

// NormalizeUserID strips the transport decorations from a sender address:
// "whatsapp:+22997000000", "22997000000@c.us" and "22997000000:3@c.us"
// all become "22997000000".
func NormalizeUserID(address string) string {
	id := strings.TrimSpace(address)
	id = strings.TrimPrefix(id, "whatsapp:")
	id = strings.TrimPrefix(id, "+")
	if i := strings.IndexByte(id, '@'); i >= 0 {
		id = id[:i]
	}
	if i := strings.IndexByte(id, ':'); i >= 0 {
		id = id[:i]
	}
	return id
}

// DigitsOnly drops every non-digit rune
func DigitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NormalizePhone reduces the input to digits and reports whether it is a
// valid 229-prefixed number of at least MinPhoneDigits digits
func NormalizePhone(input string) (string, bool) {
	phone := DigitsOnly(input)
	if !strings.HasPrefix(phone, BeninPrefix) || len(phone) < MinPhoneDigits {
		return phone, false
	}
	return phone, true
}

// IsDigits reports whether s is a non-empty run of ASCII digits
func IsDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r > unicode.MaxASCII || r < '0' || r > '9' {
			return false
		}
	}
	return true
}
