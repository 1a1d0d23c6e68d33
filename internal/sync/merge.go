package sync

import "github.com/nikbrunner/tabdeck/internal/model"

// MergeSnapshots combines remote into local deterministically. Rules:
// categories are matched by ID; inside a shared category the local
// bookmark order and content win, and remote top-level nodes whose IDs
// do not exist anywhere in the local tree are appended. Remote-only
// categories come after the local ones, filtered the same way so a
// node moved across categories locally is not duplicated. The active
// category stays local. Neither input is mutated.
func MergeSnapshots(local, rem *model.AppData) *model.AppData {
	localIDs := map[string]bool{}
	for ci := range local.Categories {
		collectIDs(local.Categories[ci].Bookmarks, localIDs)
	}

	merged := &model.AppData{
		ActiveCategory: local.ActiveCategory,
		Background:     local.Background,
		UIOpacity:      local.UIOpacity,
	}

	remoteByID := map[string]*model.Category{}
	for ci := range rem.Categories {
		remoteByID[rem.Categories[ci].ID] = &rem.Categories[ci]
	}

	for _, cat := range local.Categories {
		out := model.Category{ID: cat.ID, Name: cat.Name}
		out.Bookmarks = append(out.Bookmarks, cat.Bookmarks...)
		if remCat, ok := remoteByID[cat.ID]; ok {
			for _, node := range remCat.Bookmarks {
				if !subtreeKnown(node, localIDs) {
					out.Bookmarks = append(out.Bookmarks, node)
					collectIDs([]model.Node{node}, localIDs)
				}
			}
		}
		merged.Categories = append(merged.Categories, out)
	}

	seen := map[string]bool{}
	for _, cat := range merged.Categories {
		seen[cat.ID] = true
	}
	for _, cat := range rem.Categories {
		if seen[cat.ID] {
			continue
		}
		out := model.Category{ID: cat.ID, Name: cat.Name}
		for _, node := range cat.Bookmarks {
			if !subtreeKnown(node, localIDs) {
				out.Bookmarks = append(out.Bookmarks, node)
				collectIDs([]model.Node{node}, localIDs)
			}
		}
		merged.Categories = append(merged.Categories, out)
	}

	merged.Normalize()
	return merged
}

// subtreeKnown reports whether the node or any descendant carries an ID
// already present locally. Such subtrees are skipped wholesale rather
// than partially grafted.
func subtreeKnown(node model.Node, ids map[string]bool) bool {
	if ids[node.ID] {
		return true
	}
	for _, child := range node.Children {
		if subtreeKnown(child, ids) {
			return true
		}
	}
	return false
}

func collectIDs(nodes []model.Node, into map[string]bool) {
	for _, n := range nodes {
		into[n.ID] = true
		collectIDs(n.Children, into)
	}
}
