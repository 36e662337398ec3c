package privacy

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	emailRegex = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)

	// Matches: 555-123-4567, (555) 123-4567, 555.123.4567, +1-555-123-4567, 555-1234
	phoneRegex = regexp.MustCompile(`(\+\d{1,3}[-.\s]?)?\(?\d{3}\)?[-.\s]?\d{3}[-.\s]\d{4}|\b\d{3}[-.\s]\d{4}\b`)

	ssnRegex = regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`)

	creditCardRegex = regexp.MustCompile(`\b\d{4}[-\s]\d{4}[-\s]\d{4}[-\s]\d{4}\b`)

	medicalIDRegex = regexp.MustCompile(`(?i)\b(MRN|Medical Record|Patient ID|Insurance ID)[-:#\s]*[A-Z0-9]{6,}\b`)
)

const maxLogLength = 200

// RedactSensitiveData removes PII from text.
// SSNs and cards are replaced before phones so their digit groups are not
// mistaken for phone numbers.
func RedactSensitiveData(text string) string {
	text = emailRegex.ReplaceAllString(text, "[EMAIL]")
	text = ssnRegex.ReplaceAllString(text, "[SSN]")
	text = creditCardRegex.ReplaceAllString(text, "[CARD]")
	text = medicalIDRegex.ReplaceAllString(text, "[MEDICAL_ID]")
	text = phoneRegex.ReplaceAllString(text, "[PHONE]")
	return text
}

// SanitizeForLogging prepares text for safe logging
func SanitizeForLogging(text string) string {
	redacted := RedactSensitiveData(text)

	if utf8.RuneCountInString(redacted) > maxLogLength {
		runes := []rune(redacted)
		return string(runes[:maxLogLength-3]) + "..."
	}

	return redacted
}

// SanitizeForAPI removes PII before text is sent to an external LLM.
// Symptom scores, dates and dosages are left intact.
func SanitizeForAPI(text string) string {
	return RedactSensitiveData(text)
}

// ContainsPII checks if text contains potential PII
func ContainsPII(text string) bool {
	return emailRegex.MatchString(text) ||
		phoneRegex.MatchString(text) ||
		ssnRegex.MatchString(text) ||
		creditCardRegex.MatchString(text) ||
		medicalIDRegex.MatchString(text)
}

// MaskOwner returns a stable pseudonym for a user id, for log fields
func MaskOwner(ownerID string) string {
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return "[USER_unknown]"
	}
	sum := sha256.Sum256([]byte(ownerID))
	return "[USER_" + hex.EncodeToString(sum[:4]) + "]"
}
