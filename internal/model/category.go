package model

import (
	"fmt"
	"strings"
)

// Categories is the fixed set of canonical category tokens. Inputs that
// normalize onto one of these are stored canonically; anything else is
// stored as the best-effort derived token (see NormalizeCategory).
var Categories = []string{
	"MENTAL_HEALTH",
	"HEART_DISEASE",
	"COVID19",
	"IMMUNIZATION",
}

// NormalizeCategory derives the stored category token from free-form input.
//
// The derivation is:
//  1. trim; an empty input is invalid
//  2. uppercase
//  3. strip everything that is not an uppercase letter, digit, or space
//  4. collapse whitespace runs into single underscores
//  5. exact match against Categories wins
//  6. otherwise match ignoring underscores ("mentalhealth" → MENTAL_HEALTH)
//  7. otherwise the derived token is accepted as-is
//
// Step 7 means the result can fall outside the fixed set; callers should
// treat such values as a data-quality warning, not reject them.
func NormalizeCategory(input string) (string, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return "", fmt.Errorf("model: category is empty")
	}

	upper := strings.ToUpper(trimmed)

	var b strings.Builder
	for _, r := range upper {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == ' ' {
			b.WriteRune(r)
		}
	}

	token := strings.Trim(strings.Join(strings.Fields(b.String()), "_"), "_")
	if token == "" {
		return "", fmt.Errorf("model: category %q has no usable characters", input)
	}

	for _, c := range Categories {
		if token == c {
			return c, nil
		}
	}

	// Underscore-insensitive match catches inputs that lost (or never had)
	// their word boundaries, e.g. "mentalhealth".
	bare := strings.ReplaceAll(token, "_", "")
	for _, c := range Categories {
		if bare == strings.ReplaceAll(c, "_", "") {
			return c, nil
		}
	}

	return token, nil
}
