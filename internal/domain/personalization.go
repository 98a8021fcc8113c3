package domain

// PersonalizationResponse is the body returned to the voice-agent platform's
// conversation-initiation webhook.
type PersonalizationResponse struct {
	DynamicVariables           map[string]string          `json:"dynamic_variables"`
	ConversationConfigOverride ConversationConfigOverride `json:"conversation_config_override"`
}

// ConversationConfigOverride replaces parts of the agent's stored configuration for one call.
type ConversationConfigOverride struct {
	Agent AgentOverride `json:"agent"`
	TTS   *TTSOverride  `json:"tts,omitempty"`
}

// AgentOverride carries the per-call prompt, greeting and language.
type AgentOverride struct {
	Prompt       *PromptOverride `json:"prompt,omitempty"`
	FirstMessage string          `json:"first_message"`
	Language     string          `json:"language,omitempty"`
}

// PromptOverride wraps the system prompt text.
type PromptOverride struct {
	Prompt string `json:"prompt"`
}

// TTSOverride is reserved for per-caller voice selection.
type TTSOverride struct {
	VoiceID string `json:"voice_id,omitempty"`
}

const fallbackFirstMessage = "Hello! Welcome to our customer service line. How can I assist you today?"

// FallbackResponse is served whenever the personalization pipeline fails.
func FallbackResponse() PersonalizationResponse {
	return PersonalizationResponse{
		DynamicVariables: map[string]string{
			"customer_name":    "Guest",
			"account_status":   "standard",
			"last_interaction": "N/A",
		},
		ConversationConfigOverride: ConversationConfigOverride{
			Agent: AgentOverride{
				FirstMessage: fallbackFirstMessage,
			},
		},
	}
}
