package normalization

import (
	"strings"
)

// ParseInputString trims outer whitespace and lowercases with simple case
// folding. Prompts normalized this way form the result-cache fingerprint,
// so the rule must stay stable across releases.
func ParseInputString(input string) string {
	return strings.ToLower(strings.TrimSpace(input))
}
