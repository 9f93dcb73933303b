package taxonomy

import (
	_ "embed"
	"os"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

//go:embed seed.yaml
var defaultSeedYAML []byte

// Seed is the category and taxonomy vocabulary written by the seed command.
type Seed struct {
	Categories []SeedCategory `yaml:"categories"`
	Types      []SeedType     `yaml:"types"`
}

// SeedCategory is a vendor category.
type SeedCategory struct {
	Slug string `yaml:"slug"`
	Name string `yaml:"name"`
	Icon string `yaml:"icon"`
}

// SeedType is a taxonomy type with its terms.
type SeedType struct {
	Name        string     `yaml:"name"`
	DisplayName string     `yaml:"display_name"`
	Terms       []SeedTerm `yaml:"terms"`
}

// SeedTerm is a taxonomy term, optionally with child terms.
type SeedTerm struct {
	Slug     string     `yaml:"slug"`
	Name     string     `yaml:"name"`
	Region   string     `yaml:"region,omitempty"`
	Children []SeedTerm `yaml:"children,omitempty"`
}

// CategoryRow is a flattened category ready for insertion.
type CategoryRow struct {
	ID        string
	Slug      string
	Name      string
	Icon      string
	SortOrder int
}

// TypeRow is a flattened taxonomy type ready for insertion.
type TypeRow struct {
	ID          string
	Name        string
	DisplayName string
	SortOrder   int
}

// TermRow is a flattened taxonomy term ready for insertion. ParentID is empty
// for top-level terms.
type TermRow struct {
	ID        string
	TypeID    string
	ParentID  string
	Slug      string
	Name      string
	Region    string
	SortOrder int
}

var seedNamespace = uuid.MustParse("6f1c3c2e-9a51-4d43-8b0e-3d2a7f0c5e11")

// StableID derives a deterministic id for a vocabulary entry so re-seeding
// keeps ids and parent links stable.
func StableID(kind, key string) string {
	return uuid.NewSHA1(seedNamespace, []byte(kind+":"+key)).String()
}

// DefaultSeed returns the vocabulary compiled into the binary.
func DefaultSeed() *Seed {
	s, err := ParseSeed(defaultSeedYAML)
	if err != nil {
		panic(err)
	}
	return s
}

// LoadSeed reads a seed YAML file. An empty path returns the built-in seed.
func LoadSeed(path string) (*Seed, error) {
	if path == "" {
		return DefaultSeed(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "taxonomy: read seed %s", path)
	}
	return ParseSeed(data)
}

// ParseSeed decodes and validates a seed document.
func ParseSeed(data []byte) (*Seed, error) {
	var s Seed
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, eris.Wrap(err, "taxonomy: parse seed")
	}

	slugs := make(map[string]bool)
	var check func(terms []SeedTerm) error
	check = func(terms []SeedTerm) error {
		for _, t := range terms {
			if t.Slug == "" {
				return eris.Errorf("taxonomy: term %q has no slug", t.Name)
			}
			if slugs[t.Slug] {
				return eris.Errorf("taxonomy: duplicate term slug %q", t.Slug)
			}
			slugs[t.Slug] = true
			if err := check(t.Children); err != nil {
				return err
			}
		}
		return nil
	}
	for _, tt := range s.Types {
		if tt.Name == "" {
			return nil, eris.New("taxonomy: taxonomy type has no name")
		}
		if err := check(tt.Terms); err != nil {
			return nil, err
		}
	}
	return &s, nil
}

// CategoryRows flattens the categories in declaration order.
func (s *Seed) CategoryRows() []CategoryRow {
	rows := make([]CategoryRow, 0, len(s.Categories))
	for i, c := range s.Categories {
		rows = append(rows, CategoryRow{
			ID:        StableID("category", c.Slug),
			Slug:      c.Slug,
			Name:      c.Name,
			Icon:      c.Icon,
			SortOrder: i + 1,
		})
	}
	return rows
}

// TypeRows flattens the taxonomy types in declaration order.
func (s *Seed) TypeRows() []TypeRow {
	rows := make([]TypeRow, 0, len(s.Types))
	for i, t := range s.Types {
		rows = append(rows, TypeRow{
			ID:          StableID("type", t.Name),
			Name:        t.Name,
			DisplayName: t.DisplayName,
			SortOrder:   i + 1,
		})
	}
	return rows
}

// TermRows flattens every term. Parents always precede their children.
func (s *Seed) TermRows() []TermRow {
	var rows []TermRow
	var walk func(typeID, parentID string, terms []SeedTerm)
	walk = func(typeID, parentID string, terms []SeedTerm) {
		for i, t := range terms {
			id := StableID("term", t.Slug)
			rows = append(rows, TermRow{
				ID:        id,
				TypeID:    typeID,
				ParentID:  parentID,
				Slug:      t.Slug,
				Name:      t.Name,
				Region:    t.Region,
				SortOrder: i + 1,
			})
			walk(typeID, id, t.Children)
		}
	}
	for _, tt := range s.Types {
		walk(StableID("type", tt.Name), "", tt.Terms)
	}
	return rows
}
