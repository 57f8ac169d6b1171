package planner

import (
	"encoding/json"
	"fmt"
	"strings"

	"wellness-planner/internal/mealplan"
)

type rawMeal struct {
	Title       *string   `json:"title"`
	Description *string   `json:"description"`
	Recipe      *[]string `json:"recipe"`
}

type rawSnack struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
}

type rawRecommendations struct {
	Title           *string   `json:"title"`
	Recommendations *[]string `json:"recommendations"`
}

type rawPlan struct {
	Breakfast    *rawMeal            `json:"breakfast"`
	Lunch        *rawMeal            `json:"lunch"`
	Dinner       *rawMeal            `json:"dinner"`
	Snacks       *[]rawSnack         `json:"snacks"`
	Hydration    *rawRecommendations `json:"hydration"`
	HealthAdvice *rawRecommendations `json:"healthAdvice"`
}

// fieldCheck collects the paths of required fields absent from a response.
type fieldCheck struct {
	missing []string
}

func (c *fieldCheck) present(path string, ok bool) {
	if !ok {
		c.missing = append(c.missing, path)
	}
}

func (c *fieldCheck) err() error {
	if len(c.missing) == 0 {
		return nil
	}
	return fmt.Errorf("response is missing required fields: %s", strings.Join(c.missing, ", "))
}

// ParsePlan decodes the model's JSON text into a Plan. The result is either
// complete or an error; required fields absent from the document are
// reported by path.
func ParsePlan(text string) (*mealplan.Plan, error) {
	text = stripCodeFence(strings.TrimSpace(text))

	var raw rawPlan
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, fmt.Errorf("failed to parse meal plan JSON: %w", err)
	}

	check := &fieldCheck{}
	plan := &mealplan.Plan{
		Breakfast: raw.Breakfast.meal(check, "breakfast"),
		Lunch:     raw.Lunch.meal(check, "lunch"),
		Dinner:    raw.Dinner.meal(check, "dinner"),
	}

	check.present("snacks", raw.Snacks != nil)
	if raw.Snacks != nil {
		plan.Snacks = make([]mealplan.Snack, 0, len(*raw.Snacks))
		for i, s := range *raw.Snacks {
			path := fmt.Sprintf("snacks[%d]", i)
			check.present(path+".title", s.Title != nil)
			check.present(path+".description", s.Description != nil)
			plan.Snacks = append(plan.Snacks, mealplan.Snack{
				Title:       deref(s.Title),
				Description: deref(s.Description),
			})
		}
	}

	title, recs := raw.Hydration.fields(check, "hydration")
	plan.Hydration = mealplan.HydrationPlan{Title: title, Recommendations: recs}

	title, recs = raw.HealthAdvice.fields(check, "healthAdvice")
	plan.HealthAdvice = mealplan.HealthAdvice{Title: title, Recommendations: recs}

	if err := check.err(); err != nil {
		return nil, err
	}
	return plan, nil
}

func (m *rawMeal) meal(check *fieldCheck, path string) mealplan.Meal {
	check.present(path, m != nil)
	if m == nil {
		return mealplan.Meal{}
	}
	check.present(path+".title", m.Title != nil)
	check.present(path+".description", m.Description != nil)
	check.present(path+".recipe", m.Recipe != nil)

	meal := mealplan.Meal{Title: deref(m.Title), Description: deref(m.Description), Recipe: []string{}}
	if m.Recipe != nil {
		meal.Recipe = *m.Recipe
	}
	return meal
}

func (r *rawRecommendations) fields(check *fieldCheck, path string) (string, []string) {
	check.present(path, r != nil)
	if r == nil {
		return "", nil
	}
	check.present(path+".title", r.Title != nil)
	check.present(path+".recommendations", r.Recommendations != nil)
	if r.Recommendations == nil {
		return deref(r.Title), nil
	}
	return deref(r.Title), *r.Recommendations
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// stripCodeFence removes a Markdown code fence wrapped around the document.
func stripCodeFence(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	if nl := strings.IndexByte(text, '\n'); nl >= 0 {
		text = text[nl+1:]
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}
