package markup

import "strings"

// RootTag is the tag of the synthetic node returned by Parse.
const RootTag = "ROOT"

// Node is one element of a parsed markup tree.
type Node struct {
	Tag      string            // tag name as written
	Attrs    map[string]string // lowercased keys; a key whose quote never closed is absent
	Text     string            // direct text content, concatenated verbatim
	Children []*Node           // element children in document order

	// Raw is the opening tag exactly as written. It is empty only for the
	// synthetic root, which was never written at all.
	Raw string

	// Parts interleaves direct text and children in document order.
	Parts []Part
}

// Part is either a run of direct text or a child element.
type Part struct {
	Text string
	Node *Node
}

// Parse builds a tree from span. The returned root has Tag RootTag. Parse
// never fails; whatever cannot be understood is either kept as text or left
// unconsumed.
func Parse(span string) *Node {
	root := &Node{Tag: RootTag, Attrs: map[string]string{}}
	b := builder{z: NewTokenizer(span)}
	b.fill(root)
	return root
}

type builder struct {
	z *Tokenizer
}

// fill appends tokens to parent until parent's end tag or end of input.
// It reports whether the end tag was seen.
func (b *builder) fill(parent *Node) bool {
	for {
		tok := b.z.Next()
		switch tok.Type {
		case EOFToken:
			return false
		case TextToken:
			parent.appendText(tok.Data)
		case SelfClosingTagToken:
			parent.appendChild(newNode(tok))
		case StartTagToken:
			n := newNode(tok)
			parent.appendChild(n)
			b.fill(n)
		case EndTagToken:
			if strings.EqualFold(tok.Name, parent.Tag) {
				return true
			}
			// Stray or mismatched end tag: skip it.
		}
	}
}

func newNode(tok Token) *Node {
	return &Node{Tag: tok.Name, Attrs: tok.Attrs, Raw: tok.Raw}
}

func (n *Node) appendText(s string) {
	if s == "" {
		return
	}
	n.Text += s
	if k := len(n.Parts); k > 0 && n.Parts[k-1].Node == nil {
		n.Parts[k-1].Text += s
		return
	}
	n.Parts = append(n.Parts, Part{Text: s})
}

func (n *Node) appendChild(c *Node) {
	n.Children = append(n.Children, c)
	n.Parts = append(n.Parts, Part{Node: c})
}

// Is reports whether n's tag equals name, ignoring case.
func (n *Node) Is(name string) bool {
	return strings.EqualFold(n.Tag, name)
}

// Attr returns the value of the named attribute.
func (n *Node) Attr(key string) (string, bool) {
	v, ok := n.Attrs[strings.ToLower(key)]
	return v, ok
}

// Find returns the first direct child whose tag equals name.
func (n *Node) Find(name string) *Node {
	for _, c := range n.Children {
		if c.Is(name) {
			return c
		}
	}
	return nil
}

// InnerText returns the text of n and all of its descendants in document order.
func (n *Node) InnerText() string {
	var sb strings.Builder
	n.writeText(&sb)
	return sb.String()
}

func (n *Node) writeText(sb *strings.Builder) {
	for _, p := range n.Parts {
		if p.Node != nil {
			p.Node.writeText(sb)
			continue
		}
		sb.WriteString(p.Text)
	}
}
