package planner

import "wellness-planner/internal/llm"

func stringSchema() *llm.Schema {
	return &llm.Schema{Type: llm.TypeString}
}

func stringListSchema() *llm.Schema {
	return &llm.Schema{Type: llm.TypeArray, Items: stringSchema()}
}

func mealSchema() *llm.Schema {
	return &llm.Schema{
		Type: llm.TypeObject,
		Properties: map[string]*llm.Schema{
			"title":       stringSchema(),
			"description": stringSchema(),
			"recipe":      stringListSchema(),
		},
		Required: []string{"title", "description", "recipe"},
	}
}

func recommendationsSchema() *llm.Schema {
	return &llm.Schema{
		Type: llm.TypeObject,
		Properties: map[string]*llm.Schema{
			"title":           stringSchema(),
			"recommendations": stringListSchema(),
		},
		Required: []string{"title", "recommendations"},
	}
}

// PlanSchema is the response schema sent with every plan request.
var PlanSchema = &llm.Schema{
	Type: llm.TypeObject,
	Properties: map[string]*llm.Schema{
		"breakfast": mealSchema(),
		"lunch":     mealSchema(),
		"dinner":    mealSchema(),
		"snacks": {
			Type: llm.TypeArray,
			Items: &llm.Schema{
				Type: llm.TypeObject,
				Properties: map[string]*llm.Schema{
					"title":       stringSchema(),
					"description": stringSchema(),
				},
				Required: []string{"title", "description"},
			},
		},
		"hydration":    recommendationsSchema(),
		"healthAdvice": recommendationsSchema(),
	},
	Required: []string{"breakfast", "lunch", "dinner", "snacks", "hydration", "healthAdvice"},
}
