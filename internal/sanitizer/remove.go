package sanitizer

import "golang.org/x/net/html"

// removeMatchingNodes removes every node the predicate matches, top-down.
// Children of a removed node are gone with it and are not visited.
func removeMatchingNodes(node *html.Node, matches func(*html.Node) bool) {
	// Collect first; removal mutates the sibling linked list.
	var children []*html.Node
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		children = append(children, child)
	}

	for _, child := range children {
		if matches(child) {
			node.RemoveChild(child)
			continue
		}
		removeMatchingNodes(child, matches)
	}
}

// removeEmptyNodesBottomUp performs a post-order traversal to remove empty
// nodes, so nested empty containers are fully cleaned (innermost first).
func removeEmptyNodesBottomUp(node *html.Node) {
	if node == nil {
		return
	}

	var children []*html.Node
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		children = append(children, child)
	}

	for _, child := range children {
		removeEmptyNodesBottomUp(child)
	}

	if node.Type == html.ElementNode && isEmptyNode(node) && shouldRemoveEmptyElement(node.Data) {
		if node.Parent != nil {
			node.Parent.RemoveChild(node)
		}
	}
}

// isEmptyNode reports whether the element has no children at all.
// Whitespace-only text children still count as content here; the walker
// applies its own trimming later.
func isEmptyNode(node *html.Node) bool {
	return node.FirstChild == nil
}

// shouldRemoveEmptyElement returns true if an empty element of this type
// should be removed. Void elements like <img>, <br>, <hr> are valid when
// empty.
func shouldRemoveEmptyElement(tag string) bool {
	voidElements := map[string]bool{
		"area": true, "base": true, "br": true, "col": true, "embed": true,
		"hr": true, "img": true, "input": true, "link": true, "meta": true,
		"param": true, "source": true, "track": true, "wbr": true,
	}
	if voidElements[tag] {
		return false
	}

	// Structural containers stay even when empty; a post with no body is a
	// decision for the extraction layer, not the sanitizer.
	structuralElements := map[string]bool{
		"html": true, "head": true, "body": true, "video": true,
	}
	return !structuralElements[tag]
}
