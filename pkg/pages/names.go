package pages

import (
	"regexp"
	"strings"
)

// NameNode is a node of the name tree: either a *Leaf or a *Branch.
type NameNode interface {
	nameNode()
}

// Leaf holds the route for one page, e.g. "/pages/@shop/cart/page".
type Leaf struct {
	Route string
}

// Branch maps folded folder names to child nodes, in insertion order.
type Branch struct {
	keys     []string
	children map[string]NameNode
}

func (*Leaf) nameNode()   {}
func (*Branch) nameNode() {}

// NewBranch returns an empty branch.
func NewBranch() *Branch {
	return &Branch{children: make(map[string]NameNode)}
}

// Keys returns the child keys in insertion order.
func (b *Branch) Keys() []string {
	return append([]string(nil), b.keys...)
}

// Len returns the number of children.
func (b *Branch) Len() int {
	return len(b.keys)
}

// Get returns the child stored under key.
func (b *Branch) Get(key string) (NameNode, bool) {
	n, ok := b.children[key]
	return n, ok
}

// Lookup follows a key path from b. Lookup with no keys returns b itself.
func (b *Branch) Lookup(keys ...string) (NameNode, bool) {
	var node NameNode = b
	for _, key := range keys {
		branch, ok := node.(*Branch)
		if !ok {
			return nil, false
		}
		if node, ok = branch.children[key]; !ok {
			return nil, false
		}
	}
	return node, true
}

// Route returns the route at a key path, if the path ends at a leaf.
func (b *Branch) Route(keys ...string) (string, bool) {
	node, ok := b.Lookup(keys...)
	if !ok {
		return "", false
	}
	leaf, ok := node.(*Leaf)
	if !ok {
		return "", false
	}
	return leaf.Route, true
}

// set stores node under key and returns what it replaced. A replaced key keeps
// its original position.
func (b *Branch) set(key string, node NameNode) NameNode {
	prev, ok := b.children[key]
	if !ok {
		b.keys = append(b.keys, key)
	}
	b.children[key] = node
	return prev
}

// separatorRe matches a "-" or "_" followed by a lowercase ASCII letter.
var separatorRe = regexp.MustCompile(`[-_]([a-z])`)

// FoldSegment turns one folder name into a name tree key: "order_list" becomes
// "orderList", "user-profile" becomes "userProfile" and bundle markers are dropped.
// Letters not following a separator keep their case.
func FoldSegment(segment string) string {
	folded := separatorRe.ReplaceAllStringFunc(segment, func(m string) string {
		return strings.ToUpper(m[1:])
	})
	return strings.ReplaceAll(folded, BundleMarker, "")
}

// NameKeys returns the folded key path for a page, or nil when the page file
// sits directly in the pages directory and has no folder to name it by.
func NameKeys(page, dir string) []string {
	below := strings.TrimPrefix(page, dir+"/")
	folders := strings.Split(below, "/")
	folders = folders[:len(folders)-1]
	if len(folders) == 0 {
		return nil
	}

	keys := make([]string, len(folders))
	for i, folder := range folders {
		keys[i] = FoldSegment(folder)
	}
	return keys
}

// BuildNames builds the name tree for pages in order. When two pages fold to
// the same key path the later page wins; every overwrite is reported.
func BuildNames(pages []string, dir string) (*Branch, []Collision) {
	root := NewBranch()
	var collisions []Collision

	for _, page := range pages {
		keys := NameKeys(page, dir)
		if keys == nil {
			continue
		}

		node := root
		for i, key := range keys[:len(keys)-1] {
			child, ok := node.children[key]
			branch, isBranch := child.(*Branch)
			if !ok || !isBranch {
				branch = NewBranch()
				if prev := node.set(key, branch); prev != nil {
					collisions = append(collisions, Collision{
						Key:      strings.Join(keys[:i+1], "."),
						Previous: routeOf(prev),
					})
				}
			}
			node = branch
		}

		route := "/" + page
		name := keys[len(keys)-1]
		if prev := node.set(name, &Leaf{Route: route}); prev != nil {
			collisions = append(collisions, Collision{
				Key:      strings.Join(keys, "."),
				Previous: routeOf(prev),
				Route:    route,
			})
		}
	}

	return root, collisions
}

func routeOf(n NameNode) string {
	if leaf, ok := n.(*Leaf); ok {
		return leaf.Route
	}
	return ""
}
