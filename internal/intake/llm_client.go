package intake

import (
	"context"
	"fmt"

	"github.com/nyayasetu/legal-intake-platform/internal/i18n"
)

const (
	ChatRoleSystem    = "system"
	ChatRoleUser      = "user"
	ChatRoleAssistant = "assistant"
)

// ChatMessage is one turn of model input.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// LLMRequest is a provider-independent completion request.
type LLMRequest struct {
	Model       string
	System      []string
	Messages    []ChatMessage
	MaxTokens   int32
	Temperature float32
	TopP        float32
}

// LLMResponse carries the generated text and the provider's stop reason.
type LLMResponse struct {
	Text       string
	StopReason string
}

// LLMClient generates free-form chat replies. Implementations must honor ctx
// cancellation; the executor applies per-call timeouts around Complete.
type LLMClient interface {
	Complete(ctx context.Context, req LLMRequest) (LLMResponse, error)
}

var localeNames = map[string]string{
	i18n.LocaleEnglish: "English",
	i18n.LocaleHindi:   "Hindi",
	i18n.LocaleMarathi: "Marathi",
}

// legalSystemPrompt is the assistant persona for NORMAL_CHAT replies. The
// answer-language instruction is appended per user locale.
func legalSystemPrompt(locale string) []string {
	name, ok := localeNames[locale]
	if !ok {
		name = "English"
	}
	return []string{
		"You are NyayaSetu, a legal information assistant for people in India. " +
			"Give short, practical answers about Indian law in plain language. " +
			"You provide general legal information, not legal advice, and you say so when the question needs a lawyer's judgment. " +
			"Never invent statutes or case names. Keep answers under 120 words.",
		fmt.Sprintf("Answer in %s.", name),
	}
}
