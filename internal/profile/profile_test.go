package profile

import (
	"errors"
	"testing"
)

func TestValidate(t *testing.T) {
	t.Run("Complete", func(t *testing.T) {
		p := Profile{Name: "Ana", Gender: GenderFemale, Age: "40", Weight: "70", Height: "165"}
		if err := p.Validate(); err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
	})

	t.Run("NoRangeChecks", func(t *testing.T) {
		p := Profile{Name: "X", Gender: GenderMale, Age: "-3", Weight: "abc", Height: "9999"}
		if err := p.Validate(); err != nil {
			t.Fatalf("Expected opaque numeric fields to pass, got %v", err)
		}
	})

	t.Run("MissingFields", func(t *testing.T) {
		p := Profile{Name: "  ", Gender: GenderMale, Age: "40"}
		err := p.Validate()

		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("Expected ValidationError, got %v", err)
		}
		for _, f := range []string{FieldName, FieldWeight, FieldHeight} {
			if !verr.Has(f) {
				t.Errorf("Expected %q to be reported missing", f)
			}
		}
		if verr.Has(FieldAge) || verr.Has(FieldGender) {
			t.Errorf("Unexpected fields reported: %v", verr.Fields)
		}
	})

	t.Run("UnknownGender", func(t *testing.T) {
		p := Profile{Name: "Ana", Gender: "Otro", Age: "40", Weight: "70", Height: "165"}
		var verr *ValidationError
		if !errors.As(p.Validate(), &verr) || !verr.Has(FieldGender) {
			t.Fatalf("Expected gender to be rejected")
		}
	})
}

func TestNormalize(t *testing.T) {
	p := Profile{Name: " Ana ", Gender: " Femenino", Age: "40 ", Weight: "\t70", Height: "165\n"}.Normalize()
	if p.Name != "Ana" || p.Gender != GenderFemale || p.Age != "40" || p.Weight != "70" || p.Height != "165" {
		t.Errorf("Unexpected normalized profile: %+v", p)
	}
}
