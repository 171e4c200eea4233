// Package risk tags chat messages and conversations with a risk tier using
// fixed keyword lists.
package risk

import (
	"strings"

	"mindwell/internal/models"
)

// HighRiskKeywords mark a message as risky and make the chat gate intercept it.
var HighRiskKeywords = []string{
	"suicide",
	"kill myself",
	"self-harm",
	"self harm",
	"want to die",
	"no reason to live",
	"harm myself",
	"end my life",
	"end it all",
	"better off dead",
}

var ModerateRiskKeywords = []string{
	"anxious",
	"depressed",
	"hopeless",
	"overwhelmed",
	"stressed",
	"lonely",
	"grief",
	"worthless",
	"empty",
	"hurting",
}

// Classify returns risky when any high-risk keyword occurs in text, moderate
// when only moderate keywords occur, and normal otherwise.
func Classify(text string) models.RiskStatus {
	content := strings.ToLower(text)
	if containsAny(content, HighRiskKeywords) {
		return models.RiskRisky
	}
	if containsAny(content, ModerateRiskKeywords) {
		return models.RiskModerate
	}
	return models.RiskNormal
}

// ContainsHighRisk reports whether text contains a high-risk keyword, ignoring case.
func ContainsHighRisk(text string) bool {
	return containsAny(strings.ToLower(text), HighRiskKeywords)
}

func containsAny(text string, words []string) bool {
	for _, word := range words {
		if strings.Contains(text, word) {
			return true
		}
	}
	return false
}
