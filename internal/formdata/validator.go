package formdata

import (
	"fmt"
	"regexp"

	"standforge/internal/spec"
)

// ValidationResult reports which required facts could not be found in a
// candidate prompt. Failure is data, never an error: a missing field is
// often legitimately absent from the specification.
type ValidationResult struct {
	IsValid             bool
	MissingRequirements []string
}

// proximity is how many characters may separate a number from its unit word
// before the match is rejected. Keeps "3 shelves" matching while "3 products
// ... on shelves" does not.
const proximity = 40

// Validate checks that each numeric requirement present in the specification
// appears in the prompt, accepting either ordering of the number and its
// unit word, case-insensitively.
//
// This is a deliberate cheap heuristic, not semantic validation: a number
// rendered in words ("three shelves") is a known false negative.
func Validate(prompt string, s spec.Specification) ValidationResult {
	res := ValidationResult{IsValid: true}

	check := func(n int, unit, label string) {
		re := regexp.MustCompile(fmt.Sprintf(
			`(?i)(\b%d\b[^.\n]{0,%d}%s|%s[^.\n]{0,%d}\b%d\b)`,
			n, proximity, unit, unit, proximity, n))
		if !re.MatchString(prompt) {
			res.IsValid = false
			res.MissingRequirements = append(res.MissingRequirements, label)
		}
	}

	if s.FrontFaceCount > 0 {
		check(s.FrontFaceCount, "front", "frontFaceCount")
	}
	if s.BackToBackCount > 0 {
		check(s.BackToBackCount, "back", "backToBackCount")
	}
	if s.ShelfCount > 0 {
		check(s.ShelfCount, "shel", "shelfCount")
	}

	return res
}
