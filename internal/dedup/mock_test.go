package dedup

import (
	"context"
	"strings"

	"github.com/vivahvendors/vendor-crawler/internal/catalog"
	"github.com/vivahvendors/vendor-crawler/internal/model"
)

// mockFinder implements catalog.Finder over an in-memory profile list.
type mockFinder struct {
	profiles []mockProfile
	err      error

	phoneQueries []string
	nameQueries  []string
}

type mockProfile struct {
	id, name, city, phone, email, website string
}

func (m *mockFinder) FindByPhoneDigits(_ context.Context, digits string) (*catalog.ProfileRef, error) {
	m.phoneQueries = append(m.phoneQueries, digits)
	if m.err != nil {
		return nil, m.err
	}
	for _, p := range m.profiles {
		if p.phone != "" && strings.Contains(model.Digits(p.phone), digits) {
			return &catalog.ProfileRef{ID: p.id, BusinessName: p.name, City: p.city}, nil
		}
	}
	return nil, nil
}

func (m *mockFinder) FindByEmail(_ context.Context, email string) (*catalog.ProfileRef, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, p := range m.profiles {
		if p.email != "" && p.email == email {
			return &catalog.ProfileRef{ID: p.id, BusinessName: p.name, City: p.city}, nil
		}
	}
	return nil, nil
}

func (m *mockFinder) FindByWebsite(_ context.Context, website string) (*catalog.ProfileRef, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, p := range m.profiles {
		if p.website != "" && p.website == website {
			return &catalog.ProfileRef{ID: p.id, BusinessName: p.name, City: p.city}, nil
		}
	}
	return nil, nil
}

func (m *mockFinder) SearchByCityAndName(_ context.Context, city, token string, limit int) ([]catalog.ProfileRef, error) {
	m.nameQueries = append(m.nameQueries, city+"|"+token)
	if m.err != nil {
		return nil, m.err
	}
	var out []catalog.ProfileRef
	for _, p := range m.profiles {
		if strings.EqualFold(p.city, city) && strings.Contains(strings.ToLower(p.name), strings.ToLower(token)) {
			out = append(out, catalog.ProfileRef{ID: p.id, BusinessName: p.name, City: p.city})
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}
