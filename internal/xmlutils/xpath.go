package xmlutils

import (
	"fmt"
	"io"
	"strings"

	"gopkg.in/xmlpath.v2"
)

// Parse reads an XML document and returns its root node.
func Parse(r io.Reader) (*xmlpath.Node, error) {
	root, err := xmlpath.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse XML: %w", err)
	}
	return root, nil
}

// Nodes returns every node matching xpath under root.
func Nodes(root *xmlpath.Node, xpath string) ([]*xmlpath.Node, error) {
	path, err := xmlpath.Compile(xpath)
	if err != nil {
		return nil, fmt.Errorf("failed to compile XPath %q: %w", xpath, err)
	}

	var nodes []*xmlpath.Node
	iter := path.Iter(root)
	for iter.Next() {
		nodes = append(nodes, iter.Node())
	}
	return nodes, nil
}

// First returns the first non-empty value among the given paths, in order.
// Invalid paths are ignored.
func First(node *xmlpath.Node, xpaths ...string) string {
	for _, xp := range xpaths {
		path, err := xmlpath.Compile(xp)
		if err != nil {
			continue
		}
		if v, ok := path.String(node); ok {
			if v = CleanText(v); v != "" {
				return v
			}
		}
	}
	return ""
}

// Has reports whether xpath matches anything under root.
func Has(root *xmlpath.Node, xpath string) bool {
	path, err := xmlpath.Compile(xpath)
	if err != nil {
		return false
	}
	return path.Exists(root)
}

// CleanText collapses all whitespace runs, newlines included, to single spaces.
func CleanText(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
