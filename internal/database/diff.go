package database

import (
	"slices"

	"github.com/nao1215/creepycrawler/internal/linkgraph"
)

// GraphDiff lists what changed between two crawls of a site.
type GraphDiff struct {
	// AddedPages are internal URLs only the newer crawl found.
	AddedPages []string `json:"added_pages"`

	// RemovedPages are internal URLs only the older crawl found.
	RemovedPages []string `json:"removed_pages"`

	// NewlyBroken are URLs broken in the newer crawl but not in the older.
	NewlyBroken []string `json:"newly_broken"`

	// Fixed are URLs broken in the older crawl that now work or are gone.
	Fixed []string `json:"fixed"`
}

// Empty reports whether nothing changed.
func (d GraphDiff) Empty() bool {
	return len(d.AddedPages) == 0 && len(d.RemovedPages) == 0 &&
		len(d.NewlyBroken) == 0 && len(d.Fixed) == 0
}

// Diff compares two graphs of the same site. Every list is sorted.
func Diff(older, newer *linkgraph.Graph) GraphDiff {
	oldPages, oldBroken := partition(older)
	newPages, newBroken := partition(newer)

	return GraphDiff{
		AddedPages:   missingFrom(newPages, oldPages),
		RemovedPages: missingFrom(oldPages, newPages),
		NewlyBroken:  missingFrom(newBroken, oldBroken),
		Fixed:        missingFrom(oldBroken, newBroken),
	}
}

func partition(g *linkgraph.Graph) (pages, broken map[string]struct{}) {
	pages = make(map[string]struct{})
	broken = make(map[string]struct{})
	for _, n := range g.Nodes() {
		if !n.External {
			pages[n.URL] = struct{}{}
		}
		if n.Broken {
			broken[n.URL] = struct{}{}
		}
	}
	return pages, broken
}

// missingFrom returns the keys of a that are not in b, sorted.
func missingFrom(a, b map[string]struct{}) []string {
	out := make([]string, 0)
	for k := range a {
		if _, ok := b[k]; !ok {
			out = append(out, k)
		}
	}
	slices.Sort(out)
	return out
}
