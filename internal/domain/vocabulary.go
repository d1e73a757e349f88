package domain

import "strings"

type Difficulty string

func (d Difficulty) String() string {
	return string(d)
}

const (
	DifficultyReallyEasy Difficulty = "Really Easy"
	DifficultyVeryEasy   Difficulty = "Very Easy"
	DifficultyEasy       Difficulty = "Easy"
	DifficultyModerate   Difficulty = "Moderate"
	DifficultyHard       Difficulty = "Hard"
)

// Difficulties is the closed vocabulary used by the repair rating widget.
// Longer labels come first so "Really Easy" is never matched as "Easy".
var Difficulties = []Difficulty{
	DifficultyReallyEasy,
	DifficultyVeryEasy,
	DifficultyEasy,
	DifficultyModerate,
	DifficultyHard,
}

// ParseDifficulty maps text onto the vocabulary (case-insensitive, exact label).
func ParseDifficulty(text string) (Difficulty, bool) {
	text = strings.Join(strings.Fields(text), " ")
	for _, d := range Difficulties {
		if strings.EqualFold(text, d.String()) {
			return d, true
		}
	}
	return "", false
}

const (
	ProductTypeRefrigerator = "refrigerator"
	ProductTypeDishwasher   = "dishwasher"
)

// NormalizeProductType turns "Refrigerator." or "Dishwasher, Refrigerator" style
// labels into a lowercase canonical token.
func NormalizeProductType(text string) string {
	lower := strings.ToLower(strings.TrimSpace(text))
	switch {
	case lower == "":
		return ""
	case strings.Contains(lower, ProductTypeRefrigerator):
		return ProductTypeRefrigerator
	case strings.Contains(lower, ProductTypeDishwasher):
		return ProductTypeDishwasher
	default:
		return strings.Trim(lower, " .*")
	}
}
