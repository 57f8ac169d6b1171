package web

import (
	"embed"
	"html/template"
	"io"

	"github.com/labstack/echo/v4"

	"wellness-planner/internal/profile"
)

//go:embed templates/*.html
var templatesFS embed.FS

// TemplateRenderer is a custom html/template renderer for Echo framework
type TemplateRenderer struct {
	templates *template.Template
}

// Render renders a template document
func (t *TemplateRenderer) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	return t.templates.ExecuteTemplate(w, name, data)
}

type fieldsData struct {
	Prefix      string
	Profile     profile.Profile
	Genders     []profile.Gender
	Invalid     map[string]bool
	Placeholder bool
}

func newRenderer() *TemplateRenderer {
	funcs := template.FuncMap{
		"fields": func(prefix string, p profile.Profile, genders []profile.Gender, invalid map[string]bool, placeholder bool) fieldsData {
			return fieldsData{Prefix: prefix, Profile: p, Genders: genders, Invalid: invalid, Placeholder: placeholder}
		},
	}
	return &TemplateRenderer{
		templates: template.Must(template.New("").Funcs(funcs).ParseFS(templatesFS, "templates/*.html")),
	}
}
