package planner

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"strings"
	"text/template"
	"time"

	"wellness-planner/internal/llm"
	"wellness-planner/internal/mealplan"
	"wellness-planner/internal/profile"
	"wellness-planner/internal/ruleset"
	"wellness-planner/internal/shared"
)

//go:embed plan_prompt.md
var planPrompt string

const (
	agentName            = "Planner"
	defaultFoodListTitle = "Lista de Alimentos Seguros para Consumir"
)

var planTemplate = template.Must(template.New("plan").Funcs(template.FuncMap{
	"inc":   func(i int) int { return i + 1 },
	"roman": roman,
	"cell":  tableCell,
}).Parse(planPrompt))

type planPromptData struct {
	Profile       profile.Profile
	Rules         *ruleset.Ruleset
	FoodListName  string
	FoodListTitle string
}

// GenerationError is returned for every failed plan request, whatever the
// cause: transport, refusal or an unreadable response.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	if e.Err == nil {
		return "Ocurrió un error desconocido al generar el plan de comidas."
	}
	return "Falló la generación del plan de comidas desde la IA: " + e.Err.Error()
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// Planner turns a profile into a one-day meal plan with a single model call.
type Planner struct {
	structGen   llm.StructuredGenerator
	rules       *ruleset.Store
	temperature float32
}

// NewPlanner creates a new Planner instance.
func NewPlanner(structGen llm.StructuredGenerator, rules *ruleset.Store, temperature float32) *Planner {
	return &Planner{
		structGen:   structGen,
		rules:       rules,
		temperature: temperature,
	}
}

// BuildPrompt renders the user prompt for prof with the active ruleset.
func (p *Planner) BuildPrompt(prof profile.Profile) (string, error) {
	return buildPlanPrompt(prof, p.rules.Current())
}

// GeneratePlan requests a plan for prof. Any failure is a *GenerationError.
// The returned meta is filled whenever the model was reached.
func (p *Planner) GeneratePlan(ctx context.Context, prof profile.Profile) (*mealplan.Plan, shared.AgentMeta, error) {
	start := time.Now()
	meta := shared.AgentMeta{AgentName: agentName}

	rules := p.rules.Current()
	prompt, err := buildPlanPrompt(prof, rules)
	if err != nil {
		return nil, meta, &GenerationError{Err: err}
	}

	resp, err := p.structGen.GenerateStructured(ctx, llm.Request{
		SystemInstruction: rules.SystemInstruction,
		Prompt:            prompt,
		Schema:            PlanSchema,
		Temperature:       p.temperature,
	})
	meta.Usage = resp.Usage
	meta.Latency = time.Since(start)
	if err != nil {
		return nil, meta, &GenerationError{Err: err}
	}

	plan, err := ParsePlan(resp.Content)
	if err != nil {
		return nil, meta, &GenerationError{Err: err}
	}

	return plan, meta, nil
}

func buildPlanPrompt(prof profile.Profile, rules *ruleset.Ruleset) (string, error) {
	data := planPromptData{
		Profile:       prof.Normalize(),
		Rules:         rules,
		FoodListName:  rules.FoodListName,
		FoodListTitle: rules.FoodListTitle,
	}
	if data.FoodListTitle == "" {
		data.FoodListTitle = defaultFoodListTitle
	}
	if data.FoodListName == "" {
		data.FoodListName = data.FoodListTitle
	}

	var buf bytes.Buffer
	if err := planTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render plan prompt: %w", err)
	}

	return buf.String(), nil
}

// tableCell keeps free text from breaking the Markdown table it is placed in.
func tableCell(s string) string {
	s = strings.ReplaceAll(s, "|", "/")
	return strings.Join(strings.Fields(s), " ")
}

func roman(n int) string {
	numerals := []struct {
		value  int
		symbol string
	}{
		{10, "X"}, {9, "IX"}, {5, "V"}, {4, "IV"}, {1, "I"},
	}

	var sb strings.Builder
	for _, num := range numerals {
		for n >= num.value {
			sb.WriteString(num.symbol)
			n -= num.value
		}
	}
	return sb.String()
}
