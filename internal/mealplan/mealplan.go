// Package mealplan holds the one-day wellness plan returned by the model.
package mealplan

import "fmt"

// Course is one dish of the day. It is either a Meal or a Snack.
type Course interface {
	CourseTitle() string
	CourseDescription() string
	isCourse()
}

// Meal is a main course with preparation steps.
type Meal struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Recipe      []string `json:"recipe"`
}

// Snack is a light course without preparation steps.
type Snack struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

func (m Meal) CourseTitle() string       { return m.Title }
func (m Meal) CourseDescription() string { return m.Description }
func (Meal) isCourse()                   {}

func (s Snack) CourseTitle() string       { return s.Title }
func (s Snack) CourseDescription() string { return s.Description }
func (Snack) isCourse()                   {}

// HydrationPlan lists the drinking recommendations for the day.
type HydrationPlan struct {
	Title           string   `json:"title"`
	Recommendations []string `json:"recommendations"`
}

// HealthAdvice lists activity and lifestyle recommendations.
type HealthAdvice struct {
	Title           string   `json:"title"`
	Recommendations []string `json:"recommendations"`
}

// Plan is a complete day: three meals, the snacks, hydration and advice.
type Plan struct {
	Breakfast    Meal          `json:"breakfast"`
	Lunch        Meal          `json:"lunch"`
	Dinner       Meal          `json:"dinner"`
	Snacks       []Snack       `json:"snacks"`
	Hydration    HydrationPlan `json:"hydration"`
	HealthAdvice HealthAdvice  `json:"healthAdvice"`
}

// LabeledCourse pairs a course with the label it is shown under.
type LabeledCourse struct {
	Label  string
	Course Course
}

// Labels of the fixed courses.
const (
	LabelBreakfast = "Desayuno"
	LabelLunch     = "Almuerzo"
	LabelDinner    = "Cena"
)

// SnackLabel returns the label of the i-th snack (zero based).
func SnackLabel(i int) string {
	return fmt.Sprintf("Colación %d", i+1)
}

// Courses returns the courses in display order: breakfast, lunch, dinner,
// then every snack.
func (p *Plan) Courses() []LabeledCourse {
	courses := []LabeledCourse{
		{Label: LabelBreakfast, Course: p.Breakfast},
		{Label: LabelLunch, Course: p.Lunch},
		{Label: LabelDinner, Course: p.Dinner},
	}
	for i, s := range p.Snacks {
		courses = append(courses, LabeledCourse{Label: SnackLabel(i), Course: s})
	}
	return courses
}
