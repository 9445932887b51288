package randutil

import "strings"

// MaskString hides the middle of a secret, keeping the first and last
// few characters visible for identification.
func MaskString(secret string, visibleStart, visibleEnd int) string {
	if len(secret) <= visibleStart+visibleEnd {
		return secret
	}

	start := secret[:visibleStart]
	end := secret[len(secret)-visibleEnd:]
	return start + strings.Repeat("*", len(secret)-(visibleStart+visibleEnd)) + end
}
