// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scholar

import (
	"errors"
	"net/url"
	"strconv"
	"strings"
)

// MaxPageResults is the largest page size Scholar serves.
const MaxPageResults = 10

// ErrEmptyQuery is returned when a search query carries no terms.
var ErrEmptyQuery = errors.New("search query needs more parameters")

// Query is an immutable Scholar advanced-search request. Build a fresh
// value per lookup.
type Query struct {
	Author string

	// AllWords must all appear; SomeWords at least one; NoneWords none.
	// SomeWords and NoneWords accept a comma-separated list of phrases.
	AllWords  string
	SomeWords string
	NoneWords string

	// Phrase must appear exactly.
	Phrase      string
	Publication string

	// YearFrom and YearTo bound publication years; zero leaves a side open.
	YearFrom int
	YearTo   int

	TitleOnly        bool
	IncludePatents   bool
	IncludeCitations bool

	// NumResults is the page size; zero leaves the server default.
	NumResults int

	// ClusterID switches to a cluster lookup; all other terms are ignored.
	ClusterID string
}

// ClampResults caps a requested page size at MaxPageResults.
func ClampResults(n int) int {
	if n > MaxPageResults {
		return MaxPageResults
	}
	if n < 0 {
		return 0
	}
	return n
}

// IsEmpty reports whether the query carries nothing to search for.
func (q Query) IsEmpty() bool {
	return q.ClusterID == "" && q.Author == "" && q.AllWords == "" &&
		q.SomeWords == "" && q.NoneWords == "" && q.Phrase == "" &&
		q.Publication == "" && q.YearFrom == 0 && q.YearTo == 0
}

// URL renders the query against base, e.g. "https://scholar.google.com".
func (q Query) URL(base string) (string, error) {
	if q.IsEmpty() {
		return "", ErrEmptyQuery
	}
	base = strings.TrimRight(base, "/")

	params := url.Values{}
	if n := ClampResults(q.NumResults); n > 0 {
		params.Set("num", strconv.Itoa(n))
	}

	if q.ClusterID != "" {
		params.Set("cluster", q.ClusterID)
		return base + "/scholar?" + params.Encode(), nil
	}

	scope := "any"
	if q.TitleOnly {
		scope = "title"
	}
	params.Set("as_q", q.AllWords)
	params.Set("as_epq", q.Phrase)
	params.Set("as_oq", quotePhrases(q.SomeWords))
	params.Set("as_eq", quotePhrases(q.NoneWords))
	params.Set("as_occt", scope)
	params.Set("as_sauthors", q.Author)
	params.Set("as_publication", q.Publication)
	params.Set("as_ylo", yearParam(q.YearFrom))
	params.Set("as_yhi", yearParam(q.YearTo))
	params.Set("as_vis", flag(!q.IncludeCitations))
	params.Set("as_sdt", flag(!q.IncludePatents)+",5")
	params.Set("btnG", "")
	params.Set("hl", "en")

	return base + "/scholar?" + params.Encode(), nil
}

// quotePhrases turns "machine learning, data" into `"machine learning" data`.
// Input without commas is returned unchanged.
func quotePhrases(s string) string {
	if !strings.Contains(s, ",") {
		return s
	}
	var parts []string
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if strings.Contains(p, " ") {
			p = `"` + p + `"`
		}
		parts = append(parts, p)
	}
	return strings.Join(parts, " ")
}

func yearParam(y int) string {
	if y == 0 {
		return ""
	}
	return strconv.Itoa(y)
}

func flag(exclude bool) string {
	if exclude {
		return "1"
	}
	return "0"
}
