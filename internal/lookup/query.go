// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package lookup

import (
	"github.com/pdiddy/publish-or-not/internal/scholar"
	"github.com/pdiddy/publish-or-not/pkg/types"
)

// BuildQuery returns a fresh query for one author. Queries are never
// reused across names.
func BuildQuery(cfg types.RunConfig, name string) scholar.Query {
	f := cfg.Filters
	n := scholar.ClampResults(f.MaxResults)
	if f.ClusterID != "" {
		return scholar.Query{ClusterID: f.ClusterID, NumResults: n}
	}
	return scholar.Query{
		Author:           name,
		AllWords:         f.AllWords,
		SomeWords:        f.SomeWords,
		NoneWords:        f.NoneWords,
		Phrase:           cfg.Venue,
		Publication:      f.Publication,
		YearFrom:         cfg.YearFrom,
		YearTo:           cfg.YearTo,
		TitleOnly:        f.TitleOnly,
		IncludePatents:   f.IncludePatents,
		IncludeCitations: f.IncludeCitations,
		NumResults:       n,
	}
}
