package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// ImageURL is the image_url part of a multimodal message.
type ImageURL struct {
	URL string `json:"url"`
}

// ContentPart is one element of a multimodal message body.
type ContentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

// Message is a chat message. Content is either a string or []ContentPart.
type Message struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

// ChatRequest is the provider-neutral chat/completions request.
type ChatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature *float64  `json:"temperature,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

// TextMessage builds a plain user message.
func TextMessage(text string) Message {
	return Message{Role: "user", Content: text}
}

// ImageMessage builds a user message carrying text and one image data URL.
func ImageMessage(text, dataURL string) Message {
	return Message{Role: "user", Content: []ContentPart{
		{Type: "text", Text: text},
		{Type: "image_url", ImageURL: &ImageURL{URL: dataURL}},
	}}
}

// Float returns a pointer to f, for optional request fields.
func Float(f float64) *float64 { return &f }

// ChatCompleter sends one chat request with the given API key and returns the
// first choice's message content.
type ChatCompleter interface {
	Complete(ctx context.Context, apiKey string, req ChatRequest) (string, error)
}

// HTTPError is returned for non-2xx provider responses.
type HTTPError struct {
	Status int
	Body   string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("non-2xx status: %d", e.Status)
}

// IsRateLimited reports whether err is a provider 429.
func IsRateLimited(err error) bool {
	var he *HTTPError
	return errors.As(err, &he) && he.Status == http.StatusTooManyRequests
}

// IsTransient reports whether a retry of the same call could succeed.
func IsTransient(err error) bool {
	var he *HTTPError
	if errors.As(err, &he) {
		return he.Status == http.StatusTooManyRequests || he.Status >= 500
	}
	return errors.Is(err, context.DeadlineExceeded)
}
