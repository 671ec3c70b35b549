package sem

import "keb/internal/types"

type itemKind uint8

const (
	// itemNode resolves to the current type of a bound value.
	itemNode itemKind = iota
	// itemArgument resolves to the argument type of a function node.
	itemArgument
	// itemBuiltin carries a fixed type.
	itemBuiltin
)

type scopeItem struct {
	kind    itemKind
	node    Node
	typ     types.Type
	mutable bool
}

// scope is a persistent linked list: extending it never affects the parent,
// so sibling subtrees can not see each other's bindings.
type scope struct {
	parent *scope
	name   string
	item   scopeItem
}

func (s *scope) with(name string, item scopeItem) *scope {
	return &scope{parent: s, name: name, item: item}
}

func (s *scope) lookup(name string) (scopeItem, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if cur.name == name {
			return cur.item, true
		}
	}
	return scopeItem{}, false
}
