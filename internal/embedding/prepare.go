package embedding

import (
	"learner-feature/internal/content"
)

// MinPreparedLength is the shortest prepared text worth embedding.
const MinPreparedLength = 20

var unitLabels = map[content.UnitType]string{
	content.UnitHeading:   "Section Header:",
	content.UnitParagraph: "Content:",
	content.UnitList:      "List Information:",
	content.UnitLink:      "Navigation Link:",
}

// Label returns the prefix placed before a unit's text.
func Label(t content.UnitType) string {
	if l, ok := unitLabels[t]; ok {
		return l
	}
	return "Website Element:"
}

// PrepareText labels a unit's text with its type and normalizes the result.
func PrepareText(u content.Unit) string {
	return Normalize(Label(u.Type) + " " + u.Text)
}
