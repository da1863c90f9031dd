package password

import "strings"

const (
	// MinLength and MaxLength bound acceptable password sizes in characters.
	MinLength = 12
	MaxLength = 128

	specialSet = "!@#$%^&*()-_=+[]{};:'\",.<>/?`~|\\"

	sequenceRunLimit = 4
)

// commonSubstrings is a deliberately small denylist. Matching is
// case-insensitive and substring-based, so "MyPassword2024!" is rejected.
var commonSubstrings = []string{
	"password",
	"qwerty",
	"letmein",
	"welcome",
	"iloveyou",
	"abc123",
	"admin",
	"monkey",
	"dragon",
}

// Result is the outcome of a policy evaluation. Violations preserves rule
// order so callers can report every failed requirement at once.
type Result struct {
	Accepted   bool
	Violations []string
}

// Evaluate applies every policy rule to candidate and reports all
// violations together. An empty violation list means the password is
// acceptable.
//
// Acceptance here does not imply the password is safe in context; callers
// must also gate on [ContainsIdentifier].
func Evaluate(candidate string) Result {
	var violations []string

	runes := []rune(candidate)
	if len(runes) < MinLength {
		violations = append(violations, "must be at least 12 characters")
	}
	if len(runes) > MaxLength {
		violations = append(violations, "must be at most 128 characters")
	}

	var upper, lower, digit, special bool
	for _, r := range runes {
		switch {
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune(specialSet, r):
			special = true
		}
	}
	if !upper {
		violations = append(violations, "must contain an uppercase letter")
	}
	if !lower {
		violations = append(violations, "must contain a lowercase letter")
	}
	if !digit {
		violations = append(violations, "must contain a digit")
	}
	if !special {
		violations = append(violations, "must contain a special character")
	}

	lowered := strings.ToLower(candidate)
	for _, entry := range commonSubstrings {
		if strings.Contains(lowered, entry) {
			violations = append(violations, "must not contain a common password fragment")
			break
		}
	}

	if hasSequentialRun(runes) {
		violations = append(violations, "must not contain sequential characters such as abcd or 4321")
	}

	return Result{
		Accepted:   len(violations) == 0,
		Violations: violations,
	}
}

// ContainsIdentifier reports whether candidate contains the local part of
// email, ignoring case. An empty local part never matches.
func ContainsIdentifier(candidate, email string) bool {
	local := email
	if at := strings.IndexByte(email, '@'); at >= 0 {
		local = email[:at]
	}
	if local == "" {
		return false
	}

	return strings.Contains(strings.ToLower(candidate), strings.ToLower(local))
}

// hasSequentialRun reports whether runes contains a run of at least four
// strictly ascending or strictly descending adjacent code points.
func hasSequentialRun(runes []rune) bool {
	if len(runes) < sequenceRunLimit {
		return false
	}

	ascending, descending := 1, 1
	for i := 1; i < len(runes); i++ {
		switch runes[i] - runes[i-1] {
		case 1:
			ascending++
			descending = 1
		case -1:
			descending++
			ascending = 1
		default:
			ascending, descending = 1, 1
		}

		if ascending >= sequenceRunLimit || descending >= sequenceRunLimit {
			return true
		}
	}
	return false
}
