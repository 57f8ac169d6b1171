package telegram

import (
	"errors"
	"fmt"
	"strings"

	"wellness-planner/internal/mealplan"
	"wellness-planner/internal/profile"
)

var markdownEscaper = strings.NewReplacer("_", "\\_", "*", "\\*", "`", "\\`", "[", "\\[")

// escapeMarkdown protects free text inside legacy Markdown messages.
func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

// parseProfileArgs reads "Nombre; Sexo; Edad; Peso; Estatura".
func parseProfileArgs(args string) (profile.Profile, error) {
	parts := strings.Split(args, ";")
	if strings.TrimSpace(args) == "" || len(parts) != 5 {
		return profile.Profile{}, errors.New("formato inválido: se esperan 5 datos separados por ';'")
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	return profile.Profile{
		Name:   parts[0],
		Gender: parseGender(parts[1]),
		Age:    parts[2],
		Weight: strings.TrimSpace(strings.TrimSuffix(parts[3], "kg")),
		Height: strings.TrimSpace(strings.TrimSuffix(parts[4], "cm")),
	}, nil
}

func parseGender(s string) profile.Gender {
	switch strings.ToLower(s) {
	case "m", "masculino", "hombre":
		return profile.GenderMale
	case "f", "femenino", "mujer":
		return profile.GenderFemale
	}
	return profile.Gender(s)
}

func formatProfile(p profile.Profile) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("• *Nombre:* %s\n", escapeMarkdown(p.Name)))
	sb.WriteString(fmt.Sprintf("• *Sexo:* %s\n", p.Gender))
	sb.WriteString(fmt.Sprintf("• *Edad:* %s años\n", escapeMarkdown(p.Age)))
	sb.WriteString(fmt.Sprintf("• *Peso:* %s kg\n", escapeMarkdown(p.Weight)))
	sb.WriteString(fmt.Sprintf("• *Estatura:* %s cm\n", escapeMarkdown(p.Height)))
	return sb.String()
}

// formatPlanMarkdownParts renders the plan as two messages: the courses,
// then hydration and health advice.
func formatPlanMarkdownParts(name string, plan *mealplan.Plan) (string, string) {
	var pb strings.Builder
	pb.WriteString(fmt.Sprintf("📅 *Tu Menú Personalizado para Hoy, %s*\n\n", escapeMarkdown(name)))

	for _, lc := range plan.Courses() {
		pb.WriteString(fmt.Sprintf("*%s*: %s\n", lc.Label, escapeMarkdown(lc.Course.CourseTitle())))
		if d := lc.Course.CourseDescription(); d != "" {
			pb.WriteString(fmt.Sprintf("_%s_\n", escapeMarkdown(d)))
		}
		if meal, ok := lc.Course.(mealplan.Meal); ok && len(meal.Recipe) > 0 {
			pb.WriteString("Preparación:\n")
			for i, step := range meal.Recipe {
				pb.WriteString(fmt.Sprintf("%d. %s\n", i+1, escapeMarkdown(step)))
			}
		}
		pb.WriteString("\n")
	}

	var ab strings.Builder
	ab.WriteString(fmt.Sprintf("💧 *Hidratación: %s*\n", escapeMarkdown(plan.Hydration.Title)))
	for _, rec := range plan.Hydration.Recommendations {
		ab.WriteString(fmt.Sprintf("• %s\n", escapeMarkdown(rec)))
	}
	ab.WriteString(fmt.Sprintf("\n❤️ *Consejos de Bienestar: %s*\n", escapeMarkdown(plan.HealthAdvice.Title)))
	for _, rec := range plan.HealthAdvice.Recommendations {
		ab.WriteString(fmt.Sprintf("• %s\n", escapeMarkdown(rec)))
	}
	ab.WriteString("\n_Este plan es generado por IA y no sustituye el consejo médico profesional._")

	return pb.String(), ab.String()
}
