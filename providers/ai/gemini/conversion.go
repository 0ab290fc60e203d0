package gemini

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/google/uuid"
	"google.golang.org/genai"

	"github.com/AndersonCRodrigues/langgraph-langsmith/internal/utils"
	"github.com/AndersonCRodrigues/langgraph-langsmith/providers/ai"
)

const (
	roleUser  = "user"
	roleModel = "model"
)

// messagesToContents converts the conversation to Gemini contents. Tool
// results travel as function responses in a user turn; consecutive tool
// messages are grouped into a single turn.
func messagesToContents(messages []ai.Message) []*genai.Content {
	var contents []*genai.Content

	for _, msg := range messages {
		switch msg.Role {
		case ai.RoleSystem:
			// System prompts go through GenerateContentConfig.SystemInstruction.
			continue

		case ai.RoleTool:
			part := &genai.Part{
				FunctionResponse: &genai.FunctionResponse{
					ID:       msg.ToolCallID,
					Name:     msg.Name,
					Response: map[string]any{"result": msg.Content},
				},
			}
			if last := lastContent(contents); last != nil && last.Role == roleUser && isFunctionResponseTurn(last) {
				last.Parts = append(last.Parts, part)
				continue
			}
			contents = append(contents, &genai.Content{Role: roleUser, Parts: []*genai.Part{part}})

		case ai.RoleAssistant:
			var parts []*genai.Part
			if msg.Content != "" {
				parts = append(parts, &genai.Part{Text: msg.Content})
			}
			for _, call := range msg.ToolCalls {
				args, err := utils.ParseStringAs[map[string]any](call.Function.Arguments)
				if err != nil {
					args = map[string]any{}
				}
				parts = append(parts, &genai.Part{
					FunctionCall: &genai.FunctionCall{
						ID:   call.ID,
						Name: call.Function.Name,
						Args: args,
					},
				})
			}
			if len(parts) > 0 {
				contents = append(contents, &genai.Content{Role: roleModel, Parts: parts})
			}

		default:
			contents = append(contents, &genai.Content{
				Role:  roleUser,
				Parts: []*genai.Part{{Text: msg.Content}},
			})
		}
	}

	return contents
}

func lastContent(contents []*genai.Content) *genai.Content {
	if len(contents) == 0 {
		return nil
	}
	return contents[len(contents)-1]
}

func isFunctionResponseTurn(content *genai.Content) bool {
	for _, part := range content.Parts {
		if part.FunctionResponse == nil {
			return false
		}
	}
	return len(content.Parts) > 0
}

// buildConfig merges provider defaults with the request overrides.
func buildConfig(cfg Config, request ai.ChatRequest) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(cfg.Temperature),
		TopP:            genai.Ptr(cfg.TopP),
		MaxOutputTokens: cfg.MaxTokens,
	}

	if override := request.GenerationConfig; override != nil {
		if override.Temperature != nil {
			config.Temperature = genai.Ptr(*override.Temperature)
		}
		if override.TopP != nil {
			config.TopP = genai.Ptr(*override.TopP)
		}
		if override.MaxTokens > 0 {
			config.MaxOutputTokens = int32(override.MaxTokens)
		}
	}

	if request.SystemPrompt != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: request.SystemPrompt}},
		}
	}

	if len(request.Tools) > 0 {
		declarations := make([]*genai.FunctionDeclaration, 0, len(request.Tools))
		for _, tool := range request.Tools {
			declarations = append(declarations, &genai.FunctionDeclaration{
				Name:        tool.Name,
				Description: tool.Description,
				Parameters:  toGenaiSchema(tool.Parameters),
			})
		}
		config.Tools = []*genai.Tool{{FunctionDeclarations: declarations}}
	}

	return config
}

// toGenaiSchema converts a JSON schema to Gemini schema.
func toGenaiSchema(schema map[string]any) *genai.Schema {
	if schema == nil {
		return nil
	}

	s := &genai.Schema{}

	if t, ok := schema["type"].(string); ok {
		s.Type = genai.Type(strings.ToUpper(t))
	}
	if desc, ok := schema["description"].(string); ok {
		s.Description = desc
	}
	if props, ok := schema["properties"].(map[string]any); ok {
		s.Properties = make(map[string]*genai.Schema, len(props))
		for name, prop := range props {
			if propMap, ok := prop.(map[string]any); ok {
				s.Properties[name] = toGenaiSchema(propMap)
			}
		}
	}
	switch required := schema["required"].(type) {
	case []any:
		for _, r := range required {
			if rs, ok := r.(string); ok {
				s.Required = append(s.Required, rs)
			}
		}
	case []string:
		s.Required = append(s.Required, required...)
	}
	if items, ok := schema["items"].(map[string]any); ok {
		s.Items = toGenaiSchema(items)
	}
	if enum, ok := schema["enum"].([]any); ok {
		for _, e := range enum {
			if es, ok := e.(string); ok {
				s.Enum = append(s.Enum, es)
			}
		}
	}

	return s
}

// responseToGeneric converts the first candidate. Function calls without an
// ID get a generated one so tool messages can be linked back to them.
func responseToGeneric(model string, resp *genai.GenerateContentResponse) (*ai.ChatResponse, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil, errors.New("empty response from Gemini")
	}

	candidate := resp.Candidates[0]
	out := &ai.ChatResponse{
		ID:           resp.ResponseID,
		Model:        model,
		FinishReason: mapFinishReason(candidate.FinishReason),
	}
	if resp.ModelVersion != "" {
		out.Model = resp.ModelVersion
	}

	if candidate.Content != nil {
		var text strings.Builder
		for _, part := range candidate.Content.Parts {
			if part.Text != "" && !part.Thought {
				text.WriteString(part.Text)
			}
			if part.FunctionCall == nil {
				continue
			}

			arguments, err := json.Marshal(part.FunctionCall.Args)
			if err != nil {
				arguments = []byte("{}")
			}
			id := part.FunctionCall.ID
			if id == "" {
				id = "call_" + uuid.NewString()
			}
			out.ToolCalls = append(out.ToolCalls, ai.ToolCall{
				ID:   id,
				Type: "function",
				Function: ai.ToolCallFunction{
					Name:      part.FunctionCall.Name,
					Arguments: string(arguments),
				},
			})
		}
		out.Content = text.String()
	}

	if len(out.ToolCalls) > 0 {
		out.FinishReason = "tool_calls"
	}

	if resp.UsageMetadata != nil {
		out.Usage = &ai.Usage{
			PromptTokens:     int(resp.UsageMetadata.PromptTokenCount),
			CompletionTokens: int(resp.UsageMetadata.CandidatesTokenCount),
			TotalTokens:      int(resp.UsageMetadata.TotalTokenCount),
		}
	}

	return out, nil
}

// mapFinishReason converts Gemini finish reasons to the OpenAI-style values
// used by ai.ChatResponse.
func mapFinishReason(reason genai.FinishReason) string {
	switch reason {
	case genai.FinishReasonMaxTokens:
		return "length"
	case genai.FinishReasonSafety:
		return "content_filter"
	default:
		return "stop"
	}
}
