package models

// ChatRequest is one user turn sent by the UI shell.
type ChatRequest struct {
	Message string `json:"message"`
	// Images carries optional photo attachments as base64-encoded data with
	// their MIME types. A turn with images is answered outside the running
	// conversation history.
	Images         []ImageAttachment `json:"images,omitempty"`
	InputLanguage  string            `json:"input_language,omitempty"`
	OutputLanguage string            `json:"output_language,omitempty"`
}

// ImageAttachment is a single inline photo in a chat turn.
type ImageAttachment struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"` // base64
}

// ChatResponse carries the reply text shown in the transcript. It is always
// populated: on failure it holds the localized fallback sentence.
type ChatResponse struct {
	Reply string `json:"reply"`
}

// ChatTurn is one prior exchange turn, used for follow-up suggestions.
type ChatTurn struct {
	Role    string `json:"role"` // "user" or "model"
	Content string `json:"content"`
}

// FollowupRequest asks for 1-2 open-ended follow-up questions based on the
// most recent turns.
type FollowupRequest struct {
	History  []ChatTurn `json:"history"`
	Language string     `json:"language,omitempty"`
}

// FollowupResponse lists the suggested questions, possibly empty.
type FollowupResponse struct {
	Questions []string `json:"questions"`
}

// EmotionRequest asks for an emotional analysis of a piece of diary text.
type EmotionRequest struct {
	Text     string `json:"text"`
	Language string `json:"language,omitempty"`
}

// EmotionResponse carries the prose analysis when one was produced.
type EmotionResponse struct {
	Analysis string `json:"analysis"`
}
