package secrets

import "strings"

// Mask hides a secret for display. Values longer than four characters show
// only their last four behind "****"; shorter values are fully starred.
func Mask(value string) string {
	runes := []rune(value)
	if len(runes) <= 4 {
		return strings.Repeat("*", len(runes))
	}
	return "****" + string(runes[len(runes)-4:])
}
