// Package caption turns a photo of a household area into a suggested chore.
package caption

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"

	"github.com/chorsey/apiserver/types"
	"github.com/pkg/errors"
)

// Prompt is the instruction sent alongside every photo.
const Prompt = "Analyze the attached image of a household area. Identify a primary chore that needs to be done. " +
	"Suggest a concise, clear title for the chore and a brief, one-sentence description. " +
	"The tone should be neutral and direct."

// ErrUpstream is the kind of every failure caused by the captioning service.
var ErrUpstream = errors.New("captioning service failed")

// Captioner suggests a task title and description for a photo.
type Captioner interface {
	Caption(ctx context.Context, image []byte, mimeType string) (types.TaskDraft, error)
}

// Error is an upstream failure with a message that can be shown to users.
type Error struct {
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() []error {
	return []error{ErrUpstream, e.Err}
}

const (
	msgUnparseable   = "Could not parse the AI's response. Please try again."
	msgUnexpected    = "AI response was not in the expected format."
	msgAnalyzeFailed = "Could not analyze the image. Please try another one or enter the task manually."
)

var fencedJSON = regexp.MustCompile("(?s)```json\\s*\\n(.*?)\\n\\s*```")

// ParseDraft decodes the model's reply. The reply may be wrapped in a
// ```json fence.
func ParseDraft(text string) (types.TaskDraft, error) {
	text = strings.TrimSpace(text)
	if match := fencedJSON.FindStringSubmatch(text); match != nil {
		text = match[1]
	}

	var raw map[string]any
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return types.TaskDraft{}, &Error{Message: msgUnparseable, Err: errors.Wrap(err, "caption: decode reply")}
	}

	title, titleOK := raw["title"].(string)
	description, descOK := raw["description"].(string)
	if !titleOK || !descOK {
		return types.TaskDraft{}, &Error{Message: msgUnexpected, Err: errors.New("caption: reply is missing title or description")}
	}
	return types.TaskDraft{Title: title, Description: description}, nil
}
