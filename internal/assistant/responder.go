package assistant

import (
	"context"

	"github.com/mindconnect/chat-service/internal/domain"
)

const fallbackReply = "I'm experiencing technical difficulties. " +
	"Please contact a crisis helpline if you need immediate help: " +
	"call 988 (US) or your local emergency services."

// crisisReply replaces the generated reply whenever the gate flags a
// user message. Crisis resources must never depend on the responder.
const crisisReply = "I'm really concerned about what you're sharing. " +
	"You don't have to go through this alone. Please reach out right now: " +
	"call or text 988 (Suicide & Crisis Lifeline, US) or your local " +
	"emergency services. A therapist on MindConnect can also talk with you."

// StaticResponder is the default offline responder. It returns a
// supportive canned reply; plugging in a real model is a deployment
// concern, not a chat-core one.
type StaticResponder struct{}

func (StaticResponder) Reply(_ context.Context, _ []domain.ConversationTurn, _ string) (string, error) {
	return "Thank you for sharing that with me. I'm here to listen. " +
		"If things feel overwhelming, talking to a therapist on MindConnect " +
		"or someone you trust can help.", nil
}
