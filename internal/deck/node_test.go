package deck

import (
	"encoding/json"
	"strings"
	"testing"
)

func sampleSlide() Slide {
	return Slide{
		ID:        "s1",
		Alignment: AlignCenter,
		Layout:    LayoutLeft,
		Content: []Node{
			&Heading{Level: 1, Runs: []Run{{Text: "Title"}}},
			&Columns{Columns: [][]Node{
				{&Paragraph{Runs: []Run{{Text: "left", Live: true}}}},
				{&Image{Query: "cat"}},
			}},
			&ItemGroup{Kind: GroupIcons, Items: []Item{
				{Icon: "rocket", Content: []Node{&Paragraph{Runs: []Run{{Text: "fast", Bold: true, Live: true}}}}},
			}},
			&Visualization{Kind: VisualTimeline, Items: [][]Node{
				{&Paragraph{Runs: []Run{{Text: "1999", Live: true}}}},
			}},
			&Chart{ChartType: "bar", Data: []DataPoint{{Label: "Q1", Value: 42}}},
		},
	}
}

func TestNodeJSON_TypeDiscriminator(t *testing.T) {
	s := sampleSlide()
	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := string(data)
	for _, want := range []string{
		`{"type":"heading","level":1,"runs":[{"text":"Title"}]}`,
		`{"type":"image","query":"cat"}`,
		`{"type":"chart","chartType":"bar","data":[{"label":"Q1","value":42}]}`,
		`"kind":"iconed"`,
		`"isLive":true`,
		`"layout":"left"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected JSON to contain %s, got %s", want, out)
		}
	}
	if strings.Contains(out, `"width"`) {
		t.Errorf("expected empty width to be omitted, got %s", out)
	}
}

func TestTagged_EmptyObject(t *testing.T) {
	data, err := tagged("x", struct{}{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != `{"type":"x"}` {
		t.Errorf("expected %q, got %q", `{"type":"x"}`, string(data))
	}
}

func TestClearLive_Nested(t *testing.T) {
	s := sampleSlide()
	if !HasLive(s.Content) {
		t.Fatal("expected live runs before clearing")
	}
	s.ClearLive()
	if HasLive(s.Content) {
		t.Error("expected no live runs after clearing")
	}
}

func TestSlideTitle(t *testing.T) {
	s := sampleSlide()
	if got := s.Title(); got != "Title" {
		t.Errorf("expected %q, got %q", "Title", got)
	}
	empty := Slide{}
	if got := empty.Title(); got != "" {
		t.Errorf("expected empty title, got %q", got)
	}
}

func TestText(t *testing.T) {
	runs := []Run{{Text: "a"}, {Text: "b", Bold: true}, {Text: "c"}}
	if got := Text(runs); got != "abc" {
		t.Errorf("expected %q, got %q", "abc", got)
	}
	if got := Text(nil); got != "" {
		t.Errorf("expected empty, got %q", got)
	}
}
