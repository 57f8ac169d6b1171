package web

import (
	"wellness-planner/internal/mealplan"
	"wellness-planner/internal/profile"
	"wellness-planner/internal/session"
)

// CardKind selects the card style.
type CardKind string

const (
	CardCourse    CardKind = "course"
	CardHydration CardKind = "hydration"
	CardAdvice    CardKind = "advice"
)

const (
	labelHydration = "Hidratación"
	labelAdvice    = "Consejos de Bienestar"
)

// Card is one display card of a plan.
type Card struct {
	Kind        CardKind
	Label       string
	Title       string
	Description string
	Steps       []string
	Items       []string
}

// Cards lays out a plan in display order: the courses, then hydration, then
// health advice. Preparation steps are shown for meals that have any.
func Cards(plan *mealplan.Plan) []Card {
	if plan == nil {
		return nil
	}

	courses := plan.Courses()
	cards := make([]Card, 0, len(courses)+2)
	for _, lc := range courses {
		card := Card{
			Kind:        CardCourse,
			Label:       lc.Label,
			Title:       lc.Course.CourseTitle(),
			Description: lc.Course.CourseDescription(),
		}
		switch c := lc.Course.(type) {
		case mealplan.Meal:
			if len(c.Recipe) > 0 {
				card.Steps = c.Recipe
			}
		case mealplan.Snack:
		}
		cards = append(cards, card)
	}

	cards = append(cards,
		Card{Kind: CardHydration, Label: labelHydration, Title: plan.Hydration.Title, Items: plan.Hydration.Recommendations},
		Card{Kind: CardAdvice, Label: labelAdvice, Title: plan.HealthAdvice.Title, Items: plan.HealthAdvice.Recommendations},
	)
	return cards
}

type pageData struct {
	Phase      session.Phase
	Profile    profile.Profile
	Genders    []profile.Gender
	Invalid    map[string]bool
	Cards      []Card
	Error      string
	DialogOpen bool
	// Dialog holds the values shown in the update dialog.
	Dialog profile.Profile
}

func newPageData(snap session.Snapshot) pageData {
	return pageData{
		Phase:      snap.Phase(),
		Profile:    snap.Profile,
		Genders:    profile.Genders(),
		Invalid:    map[string]bool{},
		Cards:      Cards(snap.Plan()),
		Error:      snap.ErrorMessage(),
		DialogOpen: snap.DialogOpen,
		Dialog:     snap.Profile,
	}
}

func invalidFields(err *profile.ValidationError) map[string]bool {
	out := make(map[string]bool, len(err.Fields))
	for _, f := range err.Fields {
		out[f] = true
	}
	return out
}
