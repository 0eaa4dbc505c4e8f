package service

import (
	"strings"
)

// GenericInstitution labels files whose name matches no known bank.
const GenericInstitution = "Unknown Institution"

// InstitutionGuesser and AccountTypeGuesser are pure strategy functions so
// the heuristics can be swapped without touching orchestration.
type (
	InstitutionGuesser func(fileName string) string
	AccountTypeGuesser func(fileName string) string
)

// Small known-bank lexicon keyed by filename fragment.
var institutionLexicon = []struct {
	fragment string
	name     string
}{
	{"chase", "Chase"},
	{"bofa", "Bank of America"},
	{"bankofamerica", "Bank of America"},
	{"wellsfargo", "Wells Fargo"},
	{"wells_fargo", "Wells Fargo"},
	{"citi", "Citibank"},
	{"capitalone", "Capital One"},
	{"capital_one", "Capital One"},
	{"amex", "American Express"},
	{"americanexpress", "American Express"},
	{"discover", "Discover"},
	{"usaa", "USAA"},
	{"ally", "Ally"},
	{"schwab", "Charles Schwab"},
	{"fidelity", "Fidelity"},
}

// GuessInstitution matches the file name against the bank lexicon, falling
// back to a generic label.
func GuessInstitution(fileName string) string {
	lower := strings.ToLower(fileName)
	for _, entry := range institutionLexicon {
		if strings.Contains(lower, entry.fragment) {
			return entry.name
		}
	}
	return GenericInstitution
}

// GuessAccountType infers the account type from the file name, defaulting to
// checking.
func GuessAccountType(fileName string) string {
	lower := strings.ToLower(fileName)
	switch {
	case strings.Contains(lower, "credit") || strings.Contains(lower, "card") ||
		strings.Contains(lower, "amex") || strings.Contains(lower, "discover"):
		return "credit"
	case strings.Contains(lower, "saving"):
		return "savings"
	default:
		return "checking"
	}
}
