// Package ruleset holds the dietary rules sent with every plan request: the
// model's role, the patient's medical conditions and the allowed foods.
package ruleset

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sync/atomic"

	"gopkg.in/yaml.v3"
)

//go:embed default_ruleset.yaml
var defaultRuleset []byte

// Condition is a medical condition the plan must respect.
type Condition struct {
	Name     string `yaml:"name"`
	Guidance string `yaml:"guidance"`
}

// Food is one allowed food and how it may be eaten.
type Food struct {
	Name  string `yaml:"name"`
	Form  string `yaml:"form"`
	Notes string `yaml:"notes"`
}

// FoodGroup groups allowed foods under a common focus.
type FoodGroup struct {
	Name  string `yaml:"name"`
	Focus string `yaml:"focus"`
	Foods []Food `yaml:"foods"`
}

// Ruleset is the complete set of fixed prompt data.
type Ruleset struct {
	SystemInstruction string      `yaml:"system_instruction"`
	Conditions        []Condition `yaml:"conditions"`
	// FoodListName is how the prompt refers to the list in running text;
	// FoodListTitle heads the list itself.
	FoodListName  string      `yaml:"food_list_name"`
	FoodListTitle string      `yaml:"food_list_title"`
	FoodGroups    []FoodGroup `yaml:"food_groups"`
	Deliverables  []string    `yaml:"deliverables"`
}

// Default returns the ruleset compiled into the binary.
func Default() (*Ruleset, error) {
	rs, err := Parse(defaultRuleset)
	if err != nil {
		return nil, fmt.Errorf("failed to parse embedded ruleset: %w", err)
	}
	return rs, nil
}

// LoadFile reads and validates a ruleset from a YAML file.
func LoadFile(path string) (*Ruleset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read ruleset file %s: %w", path, err)
	}
	rs, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("invalid ruleset file %s: %w", path, err)
	}
	return rs, nil
}

// Parse decodes and validates a YAML ruleset.
func Parse(data []byte) (*Ruleset, error) {
	var rs Ruleset
	if err := yaml.Unmarshal(data, &rs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal ruleset: %w", err)
	}
	if err := rs.Validate(); err != nil {
		return nil, err
	}
	return &rs, nil
}

// Validate checks that the ruleset can produce a usable prompt.
func (rs *Ruleset) Validate() error {
	if rs.SystemInstruction == "" {
		return errors.New("system_instruction is required")
	}
	if len(rs.FoodGroups) == 0 {
		return errors.New("at least one food group is required")
	}
	for i, g := range rs.FoodGroups {
		if g.Name == "" {
			return fmt.Errorf("food group %d has no name", i+1)
		}
		if len(g.Foods) == 0 {
			return fmt.Errorf("food group %q has no foods", g.Name)
		}
		for j, f := range g.Foods {
			if f.Name == "" {
				return fmt.Errorf("food %d of group %q has no name", j+1, g.Name)
			}
		}
	}
	for i, c := range rs.Conditions {
		if c.Name == "" {
			return fmt.Errorf("condition %d has no name", i+1)
		}
	}
	if len(rs.Deliverables) == 0 {
		return errors.New("at least one deliverable is required")
	}
	return nil
}

// Store holds the active ruleset. Readers always see a complete ruleset.
type Store struct {
	current atomic.Pointer[Ruleset]
}

// NewStore creates a Store serving rs.
func NewStore(rs *Ruleset) *Store {
	s := &Store{}
	s.current.Store(rs)
	return s
}

// Current returns the active ruleset.
func (s *Store) Current() *Ruleset {
	return s.current.Load()
}

// Swap replaces the active ruleset.
func (s *Store) Swap(rs *Ruleset) {
	s.current.Store(rs)
}

// Open returns a Store for the file at path, or for the embedded default
// when path is empty.
func Open(path string) (*Store, error) {
	var (
		rs  *Ruleset
		err error
	)
	if path == "" {
		rs, err = Default()
	} else {
		rs, err = LoadFile(path)
	}
	if err != nil {
		return nil, err
	}
	return NewStore(rs), nil
}
