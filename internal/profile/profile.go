package profile

import (
	"fmt"
	"strings"
)

// Gender is one of the two values offered by the profile form.
type Gender string

const (
	GenderMale   Gender = "Masculino"
	GenderFemale Gender = "Femenino"
)

// Genders lists the selectable genders in form order.
func Genders() []Gender {
	return []Gender{GenderMale, GenderFemale}
}

// Profile is the biometric data a plan is generated for. Numeric fields are
// kept as entered; they are sent to the model verbatim.
type Profile struct {
	Name   string `json:"name"`
	Gender Gender `json:"gender"`
	Age    string `json:"age"`
	Weight string `json:"weight"`
	Height string `json:"height"`
}

// Field names as used by the form inputs.
const (
	FieldName   = "name"
	FieldGender = "gender"
	FieldAge    = "age"
	FieldWeight = "weight"
	FieldHeight = "height"
)

// ValidationError lists the fields that failed the required check.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing required fields: %s", strings.Join(e.Fields, ", "))
}

// Has reports whether field is among the failed ones.
func (e *ValidationError) Has(field string) bool {
	for _, f := range e.Fields {
		if f == field {
			return true
		}
	}
	return false
}

// Normalize returns a copy with surrounding whitespace removed from every field.
func (p Profile) Normalize() Profile {
	return Profile{
		Name:   strings.TrimSpace(p.Name),
		Gender: Gender(strings.TrimSpace(string(p.Gender))),
		Age:    strings.TrimSpace(p.Age),
		Weight: strings.TrimSpace(p.Weight),
		Height: strings.TrimSpace(p.Height),
	}
}

// Validate enforces that every field is present and that the gender is one
// of the offered values. Ranges are not checked.
func (p Profile) Validate() error {
	p = p.Normalize()

	var missing []string
	if p.Name == "" {
		missing = append(missing, FieldName)
	}
	if !p.Gender.Valid() {
		missing = append(missing, FieldGender)
	}
	if p.Age == "" {
		missing = append(missing, FieldAge)
	}
	if p.Weight == "" {
		missing = append(missing, FieldWeight)
	}
	if p.Height == "" {
		missing = append(missing, FieldHeight)
	}

	if len(missing) > 0 {
		return &ValidationError{Fields: missing}
	}
	return nil
}

// Valid reports whether g is one of the offered genders.
func (g Gender) Valid() bool {
	for _, v := range Genders() {
		if g == v {
			return true
		}
	}
	return false
}
