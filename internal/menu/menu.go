// Package menu holds the console navigation tree and filters it per
// principal. The tree is a configuration artifact defined at process start;
// filtering is pure and runs on every render.
package menu

import "github.com/cabildo-gob/cabildo/internal/authz"

// Node is one navigable item. A node with neither required levels nor
// required permissions is visible to everyone. When both are present, either
// check passing makes the node visible.
type Node struct {
	Label       string             `json:"label"`
	Path        string             `json:"path,omitempty"`
	Levels      []authz.Level      `json:"-"`
	Permissions []authz.Permission `json:"-"`
	Children    []Node             `json:"children,omitempty"`
}

// Filter walks the tree depth-first and returns the nodes the principal may
// see, preserving sibling order. A node failing its own requirement hides its
// whole subtree; a node with children is kept only when at least one child
// survives, so requirement-free grouping nodes disappear when emptied.
func Filter(nodes []Node, p *authz.Principal) []Node {
	var visible []Node
	for _, node := range nodes {
		if !hasAccess(node, p) {
			continue
		}
		if len(node.Children) > 0 {
			children := Filter(node.Children, p)
			if len(children) == 0 {
				continue
			}
			node.Children = children
		}
		visible = append(visible, node)
	}
	return visible
}

// hasAccess applies the node's own requirement. Level lists use exact-set
// membership of the principal's maximum level; permission lists require any
// one snapshotted grant.
func hasAccess(node Node, p *authz.Principal) bool {
	if len(node.Levels) == 0 && len(node.Permissions) == 0 {
		return true
	}
	for _, l := range node.Levels {
		if p.MaxLevel() == l {
			return true
		}
	}
	for _, perm := range node.Permissions {
		if p.HasPermission(perm) {
			return true
		}
	}
	return false
}
