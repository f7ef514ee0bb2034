package view

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// FragmentAttr is the attribute, besides id, that names a fragment.
const FragmentAttr = "data-fragment"

// ExtractFragment returns the outer HTML of the first element in markup whose
// id or data-fragment attribute equals id. Document order decides ties.
func ExtractFragment(markup, id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", fmt.Errorf("%w: empty fragment id", ErrFragmentNotFound)
	}

	context := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(markup), context)
	if err != nil {
		return "", fmt.Errorf("view: parse markup: %w", err)
	}

	for _, node := range nodes {
		found := findFragment(node, id)
		if found == nil {
			continue
		}
		var buf bytes.Buffer
		if err := html.Render(&buf, found); err != nil {
			return "", fmt.Errorf("view: render fragment %q: %w", id, err)
		}
		return buf.String(), nil
	}
	return "", fmt.Errorf("%w: %q", ErrFragmentNotFound, id)
}

func findFragment(node *html.Node, id string) *html.Node {
	if node == nil {
		return nil
	}
	if node.Type == html.ElementNode && matchesFragment(node, id) {
		return node
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		if found := findFragment(child, id); found != nil {
			return found
		}
	}
	return nil
}

func matchesFragment(node *html.Node, id string) bool {
	for _, attr := range node.Attr {
		if attr.Namespace != "" {
			continue
		}
		if (attr.Key == "id" || attr.Key == FragmentAttr) && attr.Val == id {
			return true
		}
	}
	return false
}
