// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scholar

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseQueryURL(t *testing.T, q Query) url.Values {
	t.Helper()
	raw, err := q.URL("https://scholar.example.com/")
	require.NoError(t, err)
	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "/scholar", u.Path)
	return u.Query()
}

func TestQueryURLVenueLookup(t *testing.T) {
	v := parseQueryURL(t, Query{
		Author:           "A. Smith",
		Phrase:           "Learning Analytics",
		YearFrom:         2013,
		YearTo:           2017,
		IncludePatents:   true,
		IncludeCitations: true,
	})

	assert.Equal(t, "A. Smith", v.Get("as_sauthors"))
	assert.Equal(t, "Learning Analytics", v.Get("as_epq"))
	assert.Equal(t, "2013", v.Get("as_ylo"))
	assert.Equal(t, "2017", v.Get("as_yhi"))
	assert.Equal(t, "any", v.Get("as_occt"))
	assert.Equal(t, "0", v.Get("as_vis"))
	assert.Equal(t, "0,5", v.Get("as_sdt"))
	assert.Equal(t, "en", v.Get("hl"))
	assert.False(t, v.Has("num"))
}

func TestQueryURLFilters(t *testing.T) {
	v := parseQueryURL(t, Query{
		Author:      "B. Jones",
		AllWords:    "dashboard",
		SomeWords:   "machine learning, data",
		NoneWords:   "survey",
		Publication: "LAK",
		TitleOnly:   true,
		NumResults:  50,
	})

	assert.Equal(t, "dashboard", v.Get("as_q"))
	assert.Equal(t, `"machine learning" data`, v.Get("as_oq"))
	assert.Equal(t, "survey", v.Get("as_eq"))
	assert.Equal(t, "LAK", v.Get("as_publication"))
	assert.Equal(t, "title", v.Get("as_occt"))
	assert.Equal(t, "1", v.Get("as_vis"))
	assert.Equal(t, "1,5", v.Get("as_sdt"))
	assert.Equal(t, "10", v.Get("num"), "page size is clamped")
	assert.Equal(t, "", v.Get("as_ylo"))
}

func TestQueryURLCluster(t *testing.T) {
	v := parseQueryURL(t, Query{Author: "ignored", ClusterID: "123456", NumResults: 5})
	assert.Equal(t, "123456", v.Get("cluster"))
	assert.Equal(t, "5", v.Get("num"))
	assert.False(t, v.Has("as_sauthors"))
}

func TestQueryURLEmpty(t *testing.T) {
	_, err := Query{IncludePatents: true}.URL(DefaultBaseURL)
	assert.ErrorIs(t, err, ErrEmptyQuery)
}

func TestClampResults(t *testing.T) {
	assert.Equal(t, 0, ClampResults(0))
	assert.Equal(t, 0, ClampResults(-3))
	assert.Equal(t, 7, ClampResults(7))
	assert.Equal(t, MaxPageResults, ClampResults(MaxPageResults))
	assert.Equal(t, MaxPageResults, ClampResults(100))
}

func TestQuotePhrases(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"foo bar baz", "foo bar baz"},
		{"a phrase, another phrase", `"a phrase" "another phrase"`},
		{"single, two words", `single "two words"`},
		{"trailing,", "trailing"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, quotePhrases(tt.in), tt.in)
	}
}
