package mealplan

import "testing"

func TestCourses(t *testing.T) {
	plan := &Plan{
		Breakfast: Meal{Title: "Papilla de sémola", Recipe: []string{"Hervir", "Servir"}},
		Lunch:     Meal{Title: "Pollo al vapor"},
		Dinner:    Meal{Title: "Merluza con puré"},
		Snacks: []Snack{
			{Title: "Plátano maduro"},
			{Title: "Gelatina sin azúcar"},
		},
	}

	courses := plan.Courses()
	if len(courses) != 5 {
		t.Fatalf("Expected 5 courses, got %d", len(courses))
	}

	wantLabels := []string{"Desayuno", "Almuerzo", "Cena", "Colación 1", "Colación 2"}
	for i, want := range wantLabels {
		if courses[i].Label != want {
			t.Errorf("Course %d: expected label %q, got %q", i, want, courses[i].Label)
		}
	}

	for i, c := range courses {
		switch c.Course.(type) {
		case Meal:
			if i > 2 {
				t.Errorf("Course %d should be a snack", i)
			}
		case Snack:
			if i < 3 {
				t.Errorf("Course %d should be a meal", i)
			}
		default:
			t.Errorf("Unexpected course variant %T", c.Course)
		}
	}

	if courses[0].Course.CourseTitle() != "Papilla de sémola" {
		t.Errorf("Unexpected breakfast title %q", courses[0].Course.CourseTitle())
	}
}

func TestCourses_MealWithoutSteps(t *testing.T) {
	// A meal with an empty recipe is still a meal.
	plan := &Plan{Breakfast: Meal{Title: "Té de manzanilla", Recipe: []string{}}}
	if _, ok := plan.Courses()[0].Course.(Meal); !ok {
		t.Error("Expected breakfast to remain a Meal variant")
	}
}
