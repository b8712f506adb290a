package validate

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

var (
	reInt   = regexp.MustCompile(`^[0-9]{1,9}$`)
	reToken = regexp.MustCompile(`^[A-Za-z0-9_-]{1,128}$`)
)

// ProductID parses a positive catalog id from a form value.
func ProductID(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if !reInt.MatchString(s) {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

// Quantity accepts only whole positive numbers: "2" ok, "2.5", "-1", "0", "x" not.
func Quantity(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if !reInt.MatchString(s) {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

// Token validates a gateway payment token.
func Token(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, reToken.MatchString(s)
}

// Amount parses a minor-unit payment amount.
func Amount(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > 15 {
		return 0, false
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

const maxMessage = 200

// Message trims free text coming back from the widget and bounds it to
// maxMessage bytes without splitting a rune.
func Message(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= maxMessage {
		return s
	}
	cut := maxMessage
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

var reLocalPath = regexp.MustCompile(`^/[A-Za-z0-9_\-/]{0,64}$`)

// ReturnPath accepts only same-site paths like "/shop"; anything else, including
// "//host" style URLs, yields fallback.
func ReturnPath(s, fallback string) string {
	s = strings.TrimSpace(s)
	if !reLocalPath.MatchString(s) || strings.HasPrefix(s, "//") {
		return fallback
	}
	return s
}
