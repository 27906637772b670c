package vdom

// VKind is the node type discriminator.
type VKind uint8

const (
	KindElement  VKind = iota // <div>, <button>, etc.
	KindText                  // Plain text node
	KindFragment              // Grouping without wrapper
	KindRaw                   // Raw HTML (dangerous)
	KindStatus                // Route outcome marker, renders its children only
)

// String returns the string representation of the VKind.
func (k VKind) String() string {
	switch k {
	case KindElement:
		return "Element"
	case KindText:
		return "Text"
	case KindFragment:
		return "Fragment"
	case KindRaw:
		return "Raw"
	case KindStatus:
		return "Status"
	default:
		return "Unknown"
	}
}

// VNode is a node of the view tree.
type VNode struct {
	Kind     VKind    // Node type
	Tag      string   // Element tag name (e.g., "div")
	Props    Props    // Attributes
	Children []*VNode // Child nodes
	Key      string   // Reconciliation key
	Text     string   // For KindText and KindRaw
	Status   *Status  // For KindStatus
}

// Props holds element attributes.
type Props map[string]any

// Status is the route outcome carried by a KindStatus node.
// Location is only meaningful for redirect codes.
type Status struct {
	Code     int
	Location string
}

// Attr represents a single attribute.
type Attr struct {
	Key   string
	Value any
}

// IsEmpty returns true if this is an empty/nil attribute.
func (a Attr) IsEmpty() bool {
	return a.Key == ""
}

// WithStatus wraps children in a status marker node.
func WithStatus(code int, location string, children ...any) *VNode {
	node := Fragment(children...)
	node.Kind = KindStatus
	node.Status = &Status{Code: code, Location: location}
	return node
}

// Walk visits node and its descendants depth-first, in document order.
// The tree is fully materialized, so every status marker is reachable.
// Returning false from fn skips the node's children.
func Walk(node *VNode, fn func(*VNode) bool) {
	if node == nil {
		return
	}
	if !fn(node) {
		return
	}
	for _, child := range node.Children {
		Walk(child, fn)
	}
}
