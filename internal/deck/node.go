package deck

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// NodeType discriminates the Node variants.
type NodeType string

const (
	TypeHeading       NodeType = "heading"
	TypeParagraph     NodeType = "paragraph"
	TypeImage         NodeType = "image"
	TypeColumns       NodeType = "columns"
	TypeItemGroup     NodeType = "items"
	TypeChart         NodeType = "chart"
	TypeVisualization NodeType = "visualization"
)

// Node is a block of slide content. The set of implementations is closed:
// *Heading, *Paragraph, *Image, *Columns, *ItemGroup, *Chart, *Visualization.
type Node interface {
	Type() NodeType
	node()
}

// Heading is a level 1-6 heading.
type Heading struct {
	Level int   `json:"level"`
	Runs  []Run `json:"runs"`
}

// Paragraph is a block of inline runs.
type Paragraph struct {
	Runs []Run `json:"runs"`
}

// Image is an image embedded in slide content.
type Image struct {
	URL   string `json:"url,omitempty"`
	Query string `json:"query"`
}

// Columns lays its columns out side by side.
type Columns struct {
	Columns [][]Node `json:"columns"`
}

// GroupKind is the presentation of an ItemGroup.
type GroupKind string

const (
	GroupBullets   GroupKind = "bulleted"
	GroupIcons     GroupKind = "iconed"
	GroupCycle     GroupKind = "cyclic"
	GroupStaircase GroupKind = "staircase"
)

// Item is one member of an ItemGroup.
type Item struct {
	Content []Node `json:"content"`
	// Icon is the icon query; set only in iconed groups.
	Icon string `json:"icon,omitempty"`
}

// ItemGroup is an ordered set of items rendered as bullets, icons, a cycle or
// a staircase.
type ItemGroup struct {
	Kind  GroupKind `json:"kind"`
	Items []Item    `json:"items"`
}

// DataPoint is one labeled chart value.
type DataPoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// Chart is a chart over labeled numeric data.
type Chart struct {
	ChartType string      `json:"chartType"`
	Data      []DataPoint `json:"data"`
}

// VisualKind is the shape of a Visualization.
type VisualKind string

const (
	VisualArrows   VisualKind = "arrow"
	VisualPyramid  VisualKind = "pyramid"
	VisualTimeline VisualKind = "timeline"
)

// Visualization is a directional diagram whose items are ordered content lists.
type Visualization struct {
	Kind  VisualKind `json:"kind"`
	Items [][]Node   `json:"items"`
}

func (*Heading) Type() NodeType       { return TypeHeading }
func (*Paragraph) Type() NodeType     { return TypeParagraph }
func (*Image) Type() NodeType         { return TypeImage }
func (*Columns) Type() NodeType       { return TypeColumns }
func (*ItemGroup) Type() NodeType     { return TypeItemGroup }
func (*Chart) Type() NodeType         { return TypeChart }
func (*Visualization) Type() NodeType { return TypeVisualization }

func (*Heading) node()       {}
func (*Paragraph) node()     {}
func (*Image) node()         {}
func (*Columns) node()       {}
func (*ItemGroup) node()     {}
func (*Chart) node()         {}
func (*Visualization) node() {}

func (n *Heading) MarshalJSON() ([]byte, error) {
	type plain Heading
	return tagged(n.Type(), (*plain)(n))
}

func (n *Paragraph) MarshalJSON() ([]byte, error) {
	type plain Paragraph
	return tagged(n.Type(), (*plain)(n))
}

func (n *Image) MarshalJSON() ([]byte, error) {
	type plain Image
	return tagged(n.Type(), (*plain)(n))
}

func (n *Columns) MarshalJSON() ([]byte, error) {
	type plain Columns
	return tagged(n.Type(), (*plain)(n))
}

func (n *ItemGroup) MarshalJSON() ([]byte, error) {
	type plain ItemGroup
	return tagged(n.Type(), (*plain)(n))
}

func (n *Chart) MarshalJSON() ([]byte, error) {
	type plain Chart
	return tagged(n.Type(), (*plain)(n))
}

func (n *Visualization) MarshalJSON() ([]byte, error) {
	type plain Visualization
	return tagged(n.Type(), (*plain)(n))
}

// tagged encodes v as a JSON object with a leading "type" member.
func tagged(t NodeType, v any) ([]byte, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", t, err)
	}
	var buf bytes.Buffer
	buf.WriteString(`{"type":`)
	name, _ := json.Marshal(string(t))
	buf.Write(name)
	if len(body) > 2 {
		buf.WriteByte(',')
		buf.Write(body[1:])
	} else {
		buf.WriteByte('}')
	}
	return buf.Bytes(), nil
}

// Walk calls fn for n and every node nested inside it, depth first.
func Walk(n Node, fn func(Node)) {
	if n == nil {
		return
	}
	fn(n)
	switch v := n.(type) {
	case *Columns:
		for _, col := range v.Columns {
			walkAll(col, fn)
		}
	case *ItemGroup:
		for _, it := range v.Items {
			walkAll(it.Content, fn)
		}
	case *Visualization:
		for _, it := range v.Items {
			walkAll(it, fn)
		}
	case *Heading, *Paragraph, *Image, *Chart:
	}
}

func walkAll(nodes []Node, fn func(Node)) {
	for _, n := range nodes {
		Walk(n, fn)
	}
}

// ClearLive strips the live mark from every run in nodes.
func ClearLive(nodes []Node) {
	walkAll(nodes, func(n Node) {
		switch v := n.(type) {
		case *Heading:
			clearRuns(v.Runs)
		case *Paragraph:
			clearRuns(v.Runs)
		}
	})
}

func clearRuns(runs []Run) {
	for i := range runs {
		runs[i].Live = false
	}
}

// HasLive reports whether any run in nodes is marked live.
func HasLive(nodes []Node) bool {
	live := false
	walkAll(nodes, func(n Node) {
		var runs []Run
		switch v := n.(type) {
		case *Heading:
			runs = v.Runs
		case *Paragraph:
			runs = v.Runs
		}
		for _, r := range runs {
			if r.Live {
				live = true
			}
		}
	})
	return live
}
