package directory

import (
	"slices"
	"strings"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/usestring/rocketchat-mcp/pkg/client"
)

// Filter narrows a directory search. Zero fields match everything.
type Filter struct {
	// Query is free text matched as token prefixes against username,
	// display name and email. All terms must match.
	Query      string
	Status     string
	Role       string
	ActiveOnly bool
}

// Match is one search hit.
type Match struct {
	User  *client.UserRecord
	Score float64
}

// Search returns the users matching f. Without a query, hits keep listing
// order; with one, they are ranked by how closely the username matches.
func (d *Directory) Search(f Filter) []Match {
	candidates := d.planFilters(f)
	if candidates.IsEmpty() {
		return nil
	}

	terms := queryTerms(f.Query)
	matches := make([]Match, 0, candidates.GetCardinality())
	it := candidates.Iterator()
	for it.HasNext() {
		u := d.User(it.Next())
		matches = append(matches, Match{User: u, Score: score(u, terms)})
	}

	if len(terms) > 0 {
		slices.SortStableFunc(matches, func(a, b Match) int {
			switch {
			case a.Score > b.Score:
				return -1
			case a.Score < b.Score:
				return 1
			}
			return 0
		})
	}
	return matches
}

// planFilters intersects the bitmaps selected by f.
func (d *Directory) planFilters(f Filter) *roaring.Bitmap {
	result := d.all()

	if f.Status != "" {
		bm, ok := d.idxStatus[strings.ToLower(f.Status)]
		if !ok {
			return roaring.New()
		}
		result.And(bm)
	}
	if f.Role != "" {
		bm, ok := d.idxRole[strings.ToLower(f.Role)]
		if !ok {
			return roaring.New()
		}
		result.And(bm)
	}
	if f.ActiveOnly {
		result.And(d.active)
	}
	for _, term := range queryTerms(f.Query) {
		result.And(d.tokenPrefix(term))
		if result.IsEmpty() {
			break
		}
	}
	return result
}

// queryTerms tokenizes a free-text query. A query too short to produce
// tokens is used whole.
func queryTerms(q string) []string {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil
	}
	if terms := Tokenize(q); len(terms) > 0 {
		return terms
	}
	return []string{strings.ToLower(q)}
}

// score ranks a hit: exact username, then username prefix, then any match.
func score(u *client.UserRecord, terms []string) float64 {
	if len(terms) == 0 {
		return 0
	}
	username := strings.ToLower(u.Username)
	var s float64
	for _, term := range terms {
		switch {
		case username == term:
			s += 3
		case strings.HasPrefix(username, term):
			s += 2
		default:
			s++
		}
	}
	if strings.EqualFold(u.Name, strings.Join(terms, " ")) {
		s += 2
	}
	return s
}
