package planner

import (
	"strings"
	"testing"
)

func TestParsePlan(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		plan, err := ParsePlan(validPlanJSON)
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if plan.Lunch.Description != "Pechuga con arroz blanco" {
			t.Errorf("Unexpected lunch: %+v", plan.Lunch)
		}
	})

	t.Run("CodeFence", func(t *testing.T) {
		plan, err := ParsePlan("```json\n" + validPlanJSON + "\n```\n")
		if err != nil {
			t.Fatalf("Expected fenced JSON to parse, got %v", err)
		}
		if plan.Hydration.Title != "Hidratación" {
			t.Errorf("Unexpected hydration title: %q", plan.Hydration.Title)
		}
	})

	t.Run("EmptySnacks", func(t *testing.T) {
		text := strings.Replace(validPlanJSON, `[{"title": "Compota de manzana", "description": "Sin azúcar"}]`, `[]`, 1)
		plan, err := ParsePlan(text)
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if len(plan.Snacks) != 0 {
			t.Errorf("Expected no snacks, got %d", len(plan.Snacks))
		}
	})

	t.Run("MissingSections", func(t *testing.T) {
		_, err := ParsePlan(`{"breakfast": {"title": "A", "description": "B"}}`)
		if err == nil {
			t.Fatal("Expected an error for an incomplete plan")
		}
		for _, path := range []string{"breakfast.recipe", "lunch", "dinner", "snacks", "hydration", "healthAdvice"} {
			if !strings.Contains(err.Error(), path) {
				t.Errorf("Expected %q to be reported, got %q", path, err.Error())
			}
		}
	})

	t.Run("SnackWithoutTitle", func(t *testing.T) {
		text := strings.Replace(validPlanJSON, `"title": "Compota de manzana", `, ``, 1)
		_, err := ParsePlan(text)
		if err == nil || !strings.Contains(err.Error(), "snacks[0].title") {
			t.Errorf("Expected snacks[0].title to be reported, got %v", err)
		}
	})

	t.Run("NotJSON", func(t *testing.T) {
		if _, err := ParsePlan("Lo siento, no puedo ayudar."); err == nil {
			t.Error("Expected an error for non-JSON text")
		}
	})
}
