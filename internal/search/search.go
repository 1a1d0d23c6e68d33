package search

import (
	"github.com/nikbrunner/tabdeck/internal/model"
	"github.com/sahilm/fuzzy"
)

// Result represents a fuzzy search match.
type Result struct {
	Link           *model.Node
	MatchedIndexes []int
	Score          int
}

// linkTitles implements fuzzy.Source over link nodes.
type linkTitles []*model.Node

func (lt linkTitles) String(i int) string {
	return lt[i].Title
}

func (lt linkTitles) Len() int {
	return len(lt)
}

// FuzzySearchLinks searches every link across all categories and
// nesting levels by title using fuzzy matching.
// Returns results sorted by match score (best first).
func FuzzySearchLinks(data *model.AppData, query string) []Result {
	if query == "" {
		return nil
	}

	links := linkTitles(data.AllLinks())
	matches := fuzzy.FindFrom(query, links)

	results := make([]Result, len(matches))
	for i, m := range matches {
		results[i] = Result{
			Link:           links[m.Index],
			MatchedIndexes: m.MatchedIndexes,
			Score:          m.Score,
		}
	}
	return results
}
