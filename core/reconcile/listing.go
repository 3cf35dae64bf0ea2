package reconcile

import "docsync/core/remote"

// Listing is an id-indexed snapshot of the remote tree.
type Listing struct {
	items    []remote.Item
	byID     map[string]int
	children map[string][]string
}

// NewListing indexes items. Later duplicates of an id are ignored.
func NewListing(items []remote.Item) *Listing {
	l := &Listing{
		items:    make([]remote.Item, 0, len(items)),
		byID:     make(map[string]int, len(items)),
		children: make(map[string][]string),
	}
	for _, item := range items {
		if _, dup := l.byID[item.ID]; dup {
			continue
		}
		l.byID[item.ID] = len(l.items)
		l.items = append(l.items, item)
		l.children[item.Parent] = append(l.children[item.Parent], item.ID)
	}
	return l
}

// Len returns the number of items.
func (l *Listing) Len() int { return len(l.items) }

// Items returns the items in listing order.
func (l *Listing) Items() []remote.Item {
	out := make([]remote.Item, len(l.items))
	copy(out, l.items)
	return out
}

// Get returns the item with id.
func (l *Listing) Get(id string) (remote.Item, bool) {
	ix, ok := l.byID[id]
	if !ok {
		return remote.Item{}, false
	}
	return l.items[ix], true
}

// Has reports whether id is in the listing.
func (l *Listing) Has(id string) bool {
	_, ok := l.byID[id]
	return ok
}

// FindByName returns the first item, in listing order, named name.
func (l *Listing) FindByName(name string) (remote.Item, bool) {
	for _, item := range l.items {
		if item.VisibleName == name {
			return item, true
		}
	}
	return remote.Item{}, false
}

// Descendants returns the ids of every item below root, excluding root.
// A parent cycle in the listing cannot make it loop.
func (l *Listing) Descendants(root string) map[string]struct{} {
	out := make(map[string]struct{})
	stack := []string{root}
	for len(stack) > 0 {
		parent := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, child := range l.children[parent] {
			if child == root {
				continue
			}
			if _, seen := out[child]; seen {
				continue
			}
			out[child] = struct{}{}
			stack = append(stack, child)
		}
	}
	return out
}
