package llm

import (
	"testing"

	"github.com/google/generative-ai-go/genai"
)

func TestToGenaiSchema(t *testing.T) {
	in := &Schema{
		Type: TypeObject,
		Properties: map[string]*Schema{
			"title":  {Type: TypeString},
			"recipe": {Type: TypeArray, Items: &Schema{Type: TypeString}},
		},
		Required: []string{"title", "recipe"},
	}

	out := toGenaiSchema(in)
	if out.Type != genai.TypeObject {
		t.Errorf("Expected object type, got %v", out.Type)
	}
	if len(out.Required) != 2 {
		t.Errorf("Expected 2 required fields, got %v", out.Required)
	}
	recipe, ok := out.Properties["recipe"]
	if !ok {
		t.Fatal("Expected recipe property")
	}
	if recipe.Type != genai.TypeArray || recipe.Items == nil || recipe.Items.Type != genai.TypeString {
		t.Errorf("Unexpected recipe schema: %+v", recipe)
	}
	if toGenaiSchema(nil) != nil {
		t.Error("Expected nil schema to stay nil")
	}
}

func TestResponseText(t *testing.T) {
	t.Run("JoinsTextParts", func(t *testing.T) {
		resp := &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{{
				Content: &genai.Content{Parts: []genai.Part{genai.Text(`{"a":`), genai.Text(`1}`)}},
			}},
		}
		text, err := responseText(resp)
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if text != `{"a":1}` {
			t.Errorf("Unexpected text %q", text)
		}
	})

	t.Run("NoCandidates", func(t *testing.T) {
		if _, err := responseText(&genai.GenerateContentResponse{}); err == nil {
			t.Fatal("Expected an error for an empty response")
		}
	})

	t.Run("Blocked", func(t *testing.T) {
		resp := &genai.GenerateContentResponse{
			PromptFeedback: &genai.PromptFeedback{BlockReason: genai.BlockReasonSafety},
		}
		if _, err := responseText(resp); err == nil {
			t.Fatal("Expected an error for a blocked prompt")
		}
	})
}

func TestUsageFrom(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		UsageMetadata: &genai.UsageMetadata{PromptTokenCount: 10, CandidatesTokenCount: 5, TotalTokenCount: 15},
	}
	u := usageFrom(resp, "gemini-2.5-flash")
	if u.PromptTokens != 10 || u.CompletionTokens != 5 || u.TotalTokens != 15 || u.Model != "gemini-2.5-flash" {
		t.Errorf("Unexpected usage %+v", u)
	}
}
