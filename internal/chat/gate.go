// Package chat runs the wellness assistant: a crisis gate in front of the
// hosted model, with persisted conversations around it.
package chat

import "mindwell/internal/risk"

// SafetyMessage replaces the model reply whenever a message contains a
// high-risk keyword.
const SafetyMessage = `I'm really sorry you're feeling this way, and I'm glad you reached out. You deserve support from a real person right now.

Please contact one of these services immediately:
- Call or text 988 (Suicide & Crisis Lifeline, US), available 24/7
- Text HOME to 741741 (Crisis Text Line)
- Call 116 123 (Samaritans, UK & Ireland)
- If you are in immediate danger, call your local emergency number (911 / 112 / 999)

If you can, reach out to someone you trust and let them know how you're feeling. You don't have to go through this alone.`

// ConnectionTroubleMessage is the assistant reply when the model cannot be reached.
const ConnectionTroubleMessage = "I had trouble connecting just now. Please try again in a moment."

// ShouldIntercept reports whether the model must be bypassed for userMessage.
func ShouldIntercept(userMessage string) bool {
	return risk.ContainsHighRisk(userMessage)
}

func SafetyResponse() string {
	return SafetyMessage
}
