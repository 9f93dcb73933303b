package taxonomy

import (
	"sort"
	"strings"
)

// Term is an active taxonomy term as loaded from the catalog.
type Term struct {
	ID       string
	Slug     string
	TypeName string
}

// Match is a resolved cultural tag for a vendor.
type Match struct {
	TermID   string `json:"term_id"`
	TermSlug string `json:"term_slug"`
	TypeName string `json:"type_name"`
}

// Vocabulary is the set of active terms and categories a run resolves
// against. It is loaded once per run.
type Vocabulary struct {
	terms      map[string]Term
	categories map[string]string
}

// NewVocabulary indexes terms by slug. categories maps category slug to id.
func NewVocabulary(terms []Term, categories map[string]string) *Vocabulary {
	v := &Vocabulary{
		terms:      make(map[string]Term, len(terms)),
		categories: make(map[string]string, len(categories)),
	}
	for _, t := range terms {
		v.terms[t.Slug] = t
	}
	for slug, id := range categories {
		v.categories[slug] = id
	}
	return v
}

// TermCount returns the number of loaded terms.
func (v *Vocabulary) TermCount() int { return len(v.terms) }

// CategoryCount returns the number of loaded categories.
func (v *Vocabulary) CategoryCount() int { return len(v.categories) }

// Mapper resolves keyword and category signals against a Vocabulary.
type Mapper struct {
	dict  *Dictionary
	vocab *Vocabulary
}

// NewMapper creates a Mapper.
func NewMapper(dict *Dictionary, vocab *Vocabulary) *Mapper {
	return &Mapper{dict: dict, vocab: vocab}
}

// MapKeywords returns the cultural tags whose dictionary keyword occurs in the
// keywords or the business name (case-insensitive substring). Slugs missing
// from the vocabulary are dropped. The result is de-duplicated and sorted by
// slug.
func (m *Mapper) MapKeywords(keywords []string, businessName string) []Match {
	parts := make([]string, 0, len(keywords)+1)
	for _, k := range keywords {
		parts = append(parts, strings.ToLower(k))
	}
	parts = append(parts, strings.ToLower(businessName))
	text := strings.Join(parts, " ")

	seen := make(map[string]bool)
	var matches []Match
	for _, kw := range m.dict.keywordOrder {
		if !strings.Contains(text, kw) {
			continue
		}
		term, ok := m.vocab.terms[m.dict.keywords[kw]]
		if !ok || seen[term.ID] {
			continue
		}
		seen[term.ID] = true
		matches = append(matches, Match{TermID: term.ID, TermSlug: term.Slug, TypeName: term.TypeName})
	}

	sort.Slice(matches, func(i, j int) bool { return matches[i].TermSlug < matches[j].TermSlug })
	return matches
}

// MapCategories resolves category strings to category ids via the dictionary.
// Unknown strings and slugs absent from the vocabulary are dropped.
func (m *Mapper) MapCategories(categories []string) []string {
	seen := make(map[string]bool)
	var ids []string
	for _, c := range categories {
		slug, ok := m.dict.CategorySlug(c)
		if !ok {
			continue
		}
		id, ok := m.vocab.categories[slug]
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// CategorySlugs resolves category strings to category slugs without
// consulting the vocabulary.
func (m *Mapper) CategorySlugs(categories []string) []string {
	seen := make(map[string]bool)
	var slugs []string
	for _, c := range categories {
		if slug, ok := m.dict.CategorySlug(c); ok && !seen[slug] {
			seen[slug] = true
			slugs = append(slugs, slug)
		}
	}
	sort.Strings(slugs)
	return slugs
}
