package llm

// PartType identifies the kind of content a Part carries.
type PartType string

const (
	PartText  PartType = "text"
	PartImage PartType = "image"
	PartAudio PartType = "audio"
)

// Part is one piece of multimodal message content. Data holds raw bytes
// for image and audio parts; providers handle the wire encoding.
type Part struct {
	Type     PartType `json:"type"`
	Text     string   `json:"text,omitempty"`
	MimeType string   `json:"mime_type,omitempty"`
	Data     []byte   `json:"data,omitempty"`
}

// TextPart builds a text content part.
func TextPart(text string) Part {
	return Part{Type: PartText, Text: text}
}

// ImagePart builds an image content part from raw bytes.
func ImagePart(mimeType string, data []byte) Part {
	return Part{Type: PartImage, MimeType: mimeType, Data: data}
}

// AudioPart builds an audio content part from raw bytes.
func AudioPart(mimeType string, data []byte) Part {
	return Part{Type: PartAudio, MimeType: mimeType, Data: data}
}

// Message represents a chat message in a conversation.
type Message struct {
	Role  string `json:"role"`
	Parts []Part `json:"parts"`
}

// UserText builds a single-part user message.
func UserText(text string) Message {
	return Message{Role: "user", Parts: []Part{TextPart(text)}}
}

// SystemText builds a single-part system message.
func SystemText(text string) Message {
	return Message{Role: "system", Parts: []Part{TextPart(text)}}
}

// ChatRequest is one completion request. Model overrides the configured
// default when set (vision calls use a different model than text calls).
type ChatRequest struct {
	Model    string    `json:"model,omitempty"`
	Messages []Message `json:"messages"`
}

// Response represents a complete response from an LLM provider.
type Response struct {
	Content string `json:"content"`
	Usage   Usage  `json:"usage"`
}

// Usage tracks token consumption for a request/response pair.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}
