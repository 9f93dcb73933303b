// Package taxonomy maps free-text vendor signals to the controlled category
// and cultural-taxonomy vocabulary.
package taxonomy

import (
	_ "embed"
	"os"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

//go:embed dictionary.yaml
var defaultDictionaryYAML []byte

// Dictionary holds the keyword→term-slug and category-string→category-slug
// tables. It is immutable once built.
type Dictionary struct {
	keywords   map[string]string
	categories map[string]string
	// keywordOrder is the sorted key set, so matching visits keys deterministically.
	keywordOrder []string
}

type dictionaryFile struct {
	Keywords   map[string]string `yaml:"keywords"`
	Categories map[string]string `yaml:"categories"`
}

// DefaultDictionary returns the dictionary compiled into the binary.
func DefaultDictionary() *Dictionary {
	d, err := ParseDictionary(defaultDictionaryYAML)
	if err != nil {
		panic(err)
	}
	return d
}

// LoadDictionary reads a dictionary YAML file. An empty path returns the
// built-in dictionary.
func LoadDictionary(path string) (*Dictionary, error) {
	if path == "" {
		return DefaultDictionary(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "taxonomy: read dictionary %s", path)
	}
	return ParseDictionary(data)
}

// ParseDictionary builds a Dictionary from YAML.
func ParseDictionary(data []byte) (*Dictionary, error) {
	var f dictionaryFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrap(err, "taxonomy: parse dictionary")
	}
	if len(f.Keywords) == 0 && len(f.Categories) == 0 {
		return nil, eris.New("taxonomy: dictionary is empty")
	}

	d := &Dictionary{
		keywords:   make(map[string]string, len(f.Keywords)),
		categories: make(map[string]string, len(f.Categories)),
	}
	for k, v := range f.Keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" || v == "" {
			continue
		}
		d.keywords[k] = v
		d.keywordOrder = append(d.keywordOrder, k)
	}
	for k, v := range f.Categories {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" || v == "" {
			continue
		}
		d.categories[k] = v
	}
	sort.Strings(d.keywordOrder)
	return d, nil
}

// CategorySlug returns the category slug for a lower-cased category string.
func (d *Dictionary) CategorySlug(category string) (string, bool) {
	slug, ok := d.categories[strings.ToLower(strings.TrimSpace(category))]
	return slug, ok
}

// KeywordCount returns the number of keyword entries.
func (d *Dictionary) KeywordCount() int { return len(d.keywords) }

// CategoryCount returns the number of category entries.
func (d *Dictionary) CategoryCount() int { return len(d.categories) }
