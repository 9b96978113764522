package caption

import (
	"context"
	"strings"

	"github.com/chorsey/apiserver/types"
	"github.com/pkg/errors"
	"google.golang.org/genai"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-2.5-flash"

// Gemini captions photos with the Gemini API.
type Gemini struct {
	client *genai.Client
	model  string
}

// NewGemini constructs a Gemini captioner.
func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("caption api key is required")
	}
	if strings.TrimSpace(model) == "" {
		model = DefaultModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, errors.Wrap(err, "caption: create client")
	}

	return &Gemini{client: client, model: model}, nil
}

// Caption sends the photo and the fixed prompt and parses the JSON reply.
func (g *Gemini) Caption(ctx context.Context, image []byte, mimeType string) (types.TaskDraft, error) {
	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromBytes(image, mimeType),
			genai.NewPartFromText(Prompt),
		}, genai.RoleUser),
	}

	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"title": {
					Type:        genai.TypeString,
					Description: "A short, clear title for the chore.",
				},
				"description": {
					Type:        genai.TypeString,
					Description: "A brief, one-sentence description of what needs to be done.",
				},
			},
			Required: []string{"title", "description"},
		},
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		return types.TaskDraft{}, &Error{Message: msgAnalyzeFailed, Err: errors.Wrap(err, "caption: generate content")}
	}

	return ParseDraft(resp.Text())
}
