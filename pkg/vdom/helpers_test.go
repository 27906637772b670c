package vdom

import "testing"

func TestText(t *testing.T) {
	node := Text("Hello, World!")

	if node.Kind != KindText {
		t.Errorf("Kind = %v, want KindText", node.Kind)
	}
	if node.Text != "Hello, World!" {
		t.Errorf("Text = %v, want 'Hello, World!'", node.Text)
	}
}

func TestTextf(t *testing.T) {
	node := Textf("Count: %d", 42)

	if node.Text != "Count: 42" {
		t.Errorf("Text = %v, want 'Count: 42'", node.Text)
	}
}

func TestRaw(t *testing.T) {
	node := Raw("<strong>Bold</strong>")

	if node.Kind != KindRaw {
		t.Errorf("Kind = %v, want KindRaw", node.Kind)
	}
	if node.Text != "<strong>Bold</strong>" {
		t.Errorf("Text = %v, want '<strong>Bold</strong>'", node.Text)
	}
}

func TestFragment(t *testing.T) {
	node := Fragment(Text("a"), nil, "b", []*VNode{Text("c")})

	if node.Kind != KindFragment {
		t.Errorf("Kind = %v, want KindFragment", node.Kind)
	}
	if len(node.Children) != 3 {
		t.Errorf("len(Children) = %d, want 3", len(node.Children))
	}
}

func TestAppendChildDropsUnknown(t *testing.T) {
	node := Div(nil, 42, (*VNode)(nil), []*VNode{nil, Text("x")})

	if len(node.Children) != 1 || node.Children[0].Text != "x" {
		t.Errorf("Children = %+v, want the single text node", node.Children)
	}
}

func TestRange(t *testing.T) {
	items := []string{"a", "", "c"}
	nodes := Range(items, func(s string, i int) *VNode {
		if s == "" {
			return nil
		}
		return Li(Key(s), Textf("%d:%s", i, s))
	})

	if len(nodes) != 2 {
		t.Fatalf("len = %d, want 2", len(nodes))
	}
	if nodes[1].Key != "c" || nodes[1].Children[0].Text != "2:c" {
		t.Errorf("nodes[1] = key %q text %q, want c / 2:c", nodes[1].Key, nodes[1].Children[0].Text)
	}
}
