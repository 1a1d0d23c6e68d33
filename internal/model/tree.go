package model

import "errors"

var (
	// ErrNotFound is returned when a node or category ID does not exist.
	ErrNotFound = errors.New("node not found")
	// ErrCycle is returned when a move would place a folder inside itself
	// or one of its descendants.
	ErrCycle = errors.New("move would create a cycle")
	// ErrDepth is returned when an operation would exceed MaxFolderDepth.
	ErrDepth = errors.New("folder depth limit exceeded")
	// ErrLastCategory is returned when removing the only category.
	ErrLastCategory = errors.New("cannot remove the last category")
	// ErrNotFolder is returned when a folder operation targets a link.
	ErrNotFolder = errors.New("target is not a folder")
)

// Location describes where a node lives in the tree.
type Location struct {
	Node           *Node
	Index          int
	List           *[]Node
	ParentFolderID string   // "" = directly in the category root
	CategoryID     string
	Ancestors      []string // IDs of ancestor folders, outermost first
}

// FindLocation locates a node by ID anywhere in the tree via depth-first
// search across all categories. The returned pointers are valid until
// the next structural mutation.
func (d *AppData) FindLocation(id string) (Location, bool) {
	for ci := range d.Categories {
		cat := &d.Categories[ci]
		if loc, ok := findInList(&cat.Bookmarks, id, "", nil); ok {
			loc.CategoryID = cat.ID
			return loc, true
		}
	}
	return Location{}, false
}

func findInList(list *[]Node, id, parentFolderID string, ancestors []string) (Location, bool) {
	for i := range *list {
		n := &(*list)[i]
		if n.ID == id {
			return Location{
				Node:           n,
				Index:          i,
				List:           list,
				ParentFolderID: parentFolderID,
				Ancestors:      ancestors,
			}, true
		}
		if n.IsFolder() {
			childAncestors := append(append([]string{}, ancestors...), n.ID)
			if loc, ok := findInList(&n.Children, id, n.ID, childAncestors); ok {
				return loc, true
			}
		}
	}
	return Location{}, false
}

// RemoveByID locates a node and splices it out of its containing list.
// The vacated parent folder is NOT dissolved here; callers that need the
// auto-dissolve rule apply DissolveIfNeeded afterwards.
func (d *AppData) RemoveByID(id string) (Node, bool) {
	loc, ok := d.FindLocation(id)
	if !ok {
		return Node{}, false
	}
	removed := *loc.Node
	*loc.List = append((*loc.List)[:loc.Index], (*loc.List)[loc.Index+1:]...)
	return removed, true
}

// InsertAt inserts a node into list at index, clamping index to
// [0, len(list)].
func InsertAt(list *[]Node, index int, n Node) {
	if index < 0 {
		index = 0
	}
	if index > len(*list) {
		index = len(*list)
	}
	*list = append(*list, Node{})
	copy((*list)[index+1:], (*list)[index:])
	(*list)[index] = n
}

// folderDepth returns the nesting depth of the folder with the given ID:
// 1 for a folder directly in a category root. Returns 0 and false if the
// ID does not name a folder.
func (d *AppData) folderDepth(folderID string) (int, bool) {
	loc, ok := d.FindLocation(folderID)
	if !ok || !loc.Node.IsFolder() {
		return 0, false
	}
	return len(loc.Ancestors) + 1, true
}

// MoveTo moves a node to the given category/folder at targetIndex.
// targetFolderID of "" means the category root. The index is the
// position in the target list with the moved node already absent from
// it. Cycle and depth limits are validated before anything is removed,
// so a failed move leaves the tree unchanged. The vacated source folder
// is dissolved per the auto-dissolve rule.
func (d *AppData) MoveTo(id, targetCategoryID, targetFolderID string, targetIndex int) error {
	srcLoc, ok := d.FindLocation(id)
	if !ok {
		return ErrNotFound
	}

	var folderTitle string
	if targetFolderID != "" {
		folderLoc, ok := d.FindLocation(targetFolderID)
		if !ok {
			return ErrNotFound
		}
		if !folderLoc.Node.IsFolder() {
			return ErrNotFolder
		}
		if srcLoc.Node.ContainsID(targetFolderID) {
			return ErrCycle
		}
		depth := len(folderLoc.Ancestors) + 1
		if depth+srcLoc.Node.FolderHeight() > MaxFolderDepth {
			return ErrDepth
		}
		// The folder's category is authoritative for nested targets.
		targetCategoryID = folderLoc.CategoryID
		folderTitle = folderLoc.Node.Title
	} else if d.CategoryByID(targetCategoryID) == nil {
		return ErrNotFound
	}

	sourceParent := srcLoc.ParentFolderID
	node, _ := d.RemoveByID(id)

	// Re-resolve the target list after the removal; the splice may have
	// shifted the memory the earlier lookup pointed into.
	list := d.targetList(targetCategoryID, targetFolderID)
	if targetFolderID != "" {
		node.Title = StripTitlePrefix(folderTitle, node.Title)
	}
	InsertAt(list, targetIndex, node)

	if sourceParent != "" && sourceParent != targetFolderID {
		d.DissolveIfNeeded(sourceParent)
	}
	return nil
}

// targetList resolves the insertion list for a category root or a folder
// inside that category. Returns nil when the folder cannot be found.
func (d *AppData) targetList(categoryID, folderID string) *[]Node {
	cat := d.CategoryByID(categoryID)
	if cat == nil {
		return nil
	}
	if folderID == "" {
		return &cat.Bookmarks
	}
	loc, ok := d.FindLocation(folderID)
	if !ok || !loc.Node.IsFolder() || loc.CategoryID != categoryID {
		return nil
	}
	return &loc.Node.Children
}

// CreateFolderFromPair removes firstID and secondID from their current
// locations and wraps them in a new folder inserted at firstID's former
// position. The folder takes the first node's title; child titles are
// stored with the folder-title prefix stripped. Fails without modifying
// the tree when the combined nesting would exceed MaxFolderDepth.
func (d *AppData) CreateFolderFromPair(firstID, secondID string) (string, error) {
	if firstID == secondID {
		return "", ErrCycle
	}
	firstLoc, ok := d.FindLocation(firstID)
	if !ok {
		return "", ErrNotFound
	}
	secondLoc, ok := d.FindLocation(secondID)
	if !ok {
		return "", ErrNotFound
	}
	if firstLoc.Node.ContainsID(secondID) || secondLoc.Node.ContainsID(firstID) {
		return "", ErrCycle
	}

	// The new folder lands where the first node was, one level deeper
	// than that list.
	insertDepth := len(firstLoc.Ancestors) + 1
	height := firstLoc.Node.FolderHeight()
	if h := secondLoc.Node.FolderHeight(); h > height {
		height = h
	}
	if insertDepth+height > MaxFolderDepth {
		return "", ErrDepth
	}

	insertIndex := firstLoc.Index
	sameList := firstLoc.List == secondLoc.List
	if sameList && secondLoc.Index < firstLoc.Index {
		insertIndex--
	}
	categoryID := firstLoc.CategoryID
	folderID := firstLoc.ParentFolderID
	sourceParent := secondLoc.ParentFolderID

	first, _ := d.RemoveByID(firstID)
	second, _ := d.RemoveByID(secondID)

	folder := NewFolder(first.Title, nil)
	first.Title = StripTitlePrefix(folder.Title, first.Title)
	second.Title = StripTitlePrefix(folder.Title, second.Title)
	folder.Children = []Node{first, second}

	list := d.targetList(categoryID, folderID)
	if list == nil {
		// Containing folder disappeared between lookups; fall back to
		// the category root.
		list = &d.CategoryByID(categoryID).Bookmarks
	}
	InsertAt(list, insertIndex, folder)

	if sourceParent != "" && sourceParent != folderID {
		d.DissolveIfNeeded(sourceParent)
	}
	return folder.ID, nil
}

// MoveIntoFolder appends the node to the folder's children. Rejected
// when the folder is the node itself or one of its descendants, or when
// the depth limit would be exceeded; the tree is unchanged on failure.
func (d *AppData) MoveIntoFolder(id, folderID string) error {
	loc, ok := d.FindLocation(folderID)
	if !ok {
		return ErrNotFound
	}
	if !loc.Node.IsFolder() {
		return ErrNotFolder
	}
	return d.MoveTo(id, loc.CategoryID, folderID, len(loc.Node.Children))
}

// DissolveIfNeeded applies the auto-dissolve rule to the given folder:
// an empty folder is deleted; a folder whose single remaining child is
// not itself a folder is replaced by that child at its former position.
// A folder whose sole child is a folder is deliberately preserved so a
// multi-step drag does not cascade collapses underneath the pointer.
// Returns true if the tree changed.
func (d *AppData) DissolveIfNeeded(folderID string) bool {
	loc, ok := d.FindLocation(folderID)
	if !ok || !loc.Node.IsFolder() {
		return false
	}
	switch len(loc.Node.Children) {
	case 0:
		*loc.List = append((*loc.List)[:loc.Index], (*loc.List)[loc.Index+1:]...)
		return true
	case 1:
		if loc.Node.Children[0].IsFolder() {
			return false
		}
		(*loc.List)[loc.Index] = loc.Node.Children[0]
		return true
	}
	return false
}

// AddLink appends a link to the active category's root.
func (d *AppData) AddLink(params NewLinkParams) *Node {
	cat := d.Active()
	cat.Bookmarks = append(cat.Bookmarks, NewLink(params))
	return &cat.Bookmarks[len(cat.Bookmarks)-1]
}

// RenameNode sets a node's title.
func (d *AppData) RenameNode(id, title string) error {
	loc, ok := d.FindLocation(id)
	if !ok {
		return ErrNotFound
	}
	loc.Node.Title = title
	return nil
}

// AddCategory appends a new category and returns it.
func (d *AppData) AddCategory(name string) *Category {
	d.Categories = append(d.Categories, NewCategory(name))
	return &d.Categories[len(d.Categories)-1]
}

// RemoveCategory deletes a category. At least one category must remain;
// if the active category is removed the first category becomes active.
func (d *AppData) RemoveCategory(id string) error {
	if len(d.Categories) <= 1 {
		return ErrLastCategory
	}
	for i := range d.Categories {
		if d.Categories[i].ID == id {
			d.Categories = append(d.Categories[:i], d.Categories[i+1:]...)
			d.EnsureActiveCategory()
			return nil
		}
	}
	return ErrNotFound
}

// RenameCategory sets a category's name.
func (d *AppData) RenameCategory(id, name string) error {
	cat := d.CategoryByID(id)
	if cat == nil {
		return ErrNotFound
	}
	cat.Name = name
	return nil
}

// MoveCategory reorders the category at fromIndex to toIndex. Indices
// are clamped; no merge or nesting semantics exist for categories.
func (d *AppData) MoveCategory(fromIndex, toIndex int) {
	if fromIndex < 0 || fromIndex >= len(d.Categories) {
		return
	}
	if toIndex < 0 {
		toIndex = 0
	}
	if toIndex >= len(d.Categories) {
		toIndex = len(d.Categories) - 1
	}
	if fromIndex == toIndex {
		return
	}
	cat := d.Categories[fromIndex]
	d.Categories = append(d.Categories[:fromIndex], d.Categories[fromIndex+1:]...)
	rest := append([]Category{}, d.Categories[toIndex:]...)
	d.Categories = append(d.Categories[:toIndex], cat)
	d.Categories = append(d.Categories, rest...)
}
