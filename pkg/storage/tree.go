package storage

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
)

// Node is a "directory" in a bucket, made of key segments split by "/".
type Node struct {
	Name string

	// Direct is the number of objects directly under this node.
	Direct int

	// Total is the number of objects under this node, recursively.
	Total int

	Children map[string]*Node
}

func newNode(name string) *Node {
	return &Node{Name: name, Children: map[string]*Node{}}
}

func (n *Node) child(name string) *Node {
	c, ok := n.Children[name]
	if !ok {
		c = newNode(name)
		n.Children[name] = c
	}
	return c
}

func (n *Node) sum() int {
	total := n.Direct
	for _, c := range n.Children {
		total += c.sum()
	}
	n.Total = total
	return total
}

// Tree builds the directory tree of objects under prefix.
//
// Keys ending with "/" are folder placeholders; they create nodes but are not counted.
// The root node is named after prefix, or "/" for the whole bucket.
func Tree(ctx context.Context, b Bucket, prefix string) (*Node, error) {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	name := prefix
	if name == "" {
		name = "/"
	}
	root := newNode(name)
	err := b.List(ctx, prefix, func(obj ObjectInfo) error {
		rel, ok := strings.CutPrefix(obj.Key, prefix)
		if !ok || rel == "" {
			return nil
		}

		parts := strings.Split(rel, "/")
		dirs, last := parts[:len(parts)-1], parts[len(parts)-1]

		current := root
		for _, d := range dirs {
			current = current.child(d)
		}
		if last != "" {
			current.Direct += 1
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	root.sum()
	return root, nil
}

// Render prints the tree with box drawing connectors. Children are sorted by name.
func (n *Node) Render(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "%s (Total: %d, Direct: %d)\n", n.Name, n.Total, n.Direct); err != nil {
		return err
	}
	return n.renderChildren(w, "")
}

func (n *Node) renderChildren(w io.Writer, indent string) error {
	names := make([]string, 0, len(n.Children))
	for name := range n.Children {
		names = append(names, name)
	}
	sort.Strings(names)

	for i, name := range names {
		c := n.Children[name]
		last := i == len(names)-1

		connector, extension := "├── ", "│   "
		if last {
			connector, extension = "└── ", "    "
		}

		info := fmt.Sprintf("[Total: %d]", c.Total)
		if 0 < c.Direct {
			info += fmt.Sprintf(" (Direct: %d)", c.Direct)
		}
		if _, err := fmt.Fprintf(w, "%s%s%s/ %s\n", indent, connector, name, info); err != nil {
			return err
		}
		if err := c.renderChildren(w, indent+extension); err != nil {
			return err
		}
	}
	return nil
}
