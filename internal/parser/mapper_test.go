package parser

import (
	"reflect"
	"strings"
	"testing"

	"github.com/dgallion1/slidestream/internal/deck"
	"github.com/dgallion1/slidestream/internal/markup"
)

func mapOne(t *testing.T, section string) deck.Slide {
	t.Helper()
	got := New().Submit(section)
	if len(got) != 1 {
		t.Fatalf("expected 1 slide, got %d", len(got))
	}
	return got[0]
}

func para(text string) deck.Node {
	return &deck.Paragraph{Runs: []deck.Run{{Text: text}}}
}

func TestLayoutDefaults(t *testing.T) {
	tests := []struct {
		attr string
		want deck.Layout
	}{
		{``, deck.LayoutNone},
		{` layout="left"`, deck.LayoutLeft},
		{` layout="RIGHT"`, deck.LayoutRight},
		{` layout="vertical"`, deck.LayoutVertical},
		{` layout="diagonal"`, deck.LayoutLeft},
		{` layout=""`, deck.LayoutLeft},
	}
	for _, tt := range tests {
		s := mapOne(t, `<SECTION`+tt.attr+`><H1>L</H1></SECTION>`)
		if s.Layout != tt.want {
			t.Errorf("attr %q: expected %q, got %q", tt.attr, tt.want, s.Layout)
		}
	}
}

func TestSlideAttributes(t *testing.T) {
	s := mapOne(t, `<SECTION align="END" background="#112233" width="m"><H1>Styled</H1></SECTION>`)
	if s.Alignment != deck.AlignEnd {
		t.Errorf("expected alignment end, got %q", s.Alignment)
	}
	if s.BackgroundColor != "#112233" {
		t.Errorf("expected background #112233, got %q", s.BackgroundColor)
	}
	if s.Width != deck.WidthM {
		t.Errorf("expected width M, got %q", s.Width)
	}

	s = mapOne(t, `<SECTION align="sideways" width="XL"><H1>Plain</H1></SECTION>`)
	if s.Alignment != deck.AlignCenter || s.Width != deck.WidthDefault {
		t.Errorf("expected center and default width, got %q and %q", s.Alignment, s.Width)
	}
}

func TestRootImage_FirstValidOnly(t *testing.T) {
	s := mapOne(t, `<SECTION><IMG query="  "/><IMG src="a.png" query="first"/><IMG query="second"/><H1>Pics</H1></SECTION>`)
	want := &deck.RootImage{Query: "first", URL: "a.png"}
	if !reflect.DeepEqual(s.RootImage, want) {
		t.Errorf("expected %+v, got %+v", want, s.RootImage)
	}
	if len(s.Content) != 1 {
		t.Errorf("expected images to stay out of content, got %d nodes", len(s.Content))
	}
}

func TestRootImage_SpacedQuery(t *testing.T) {
	s := mapOne(t, `<SECTION><IMG query = "cat" url="c.png"/><H1>Pets</H1></SECTION>`)
	want := &deck.RootImage{Query: "cat", URL: "c.png"}
	if !reflect.DeepEqual(s.RootImage, want) {
		t.Errorf("expected %+v, got %+v", want, s.RootImage)
	}
}

func TestCompleteQuery(t *testing.T) {
	tests := []struct {
		raw  string
		want string
		ok   bool
	}{
		{`<IMG query="cat"/>`, "cat", true},
		{`<IMG query = "cat"/>`, "cat", true},
		{"<IMG query=\n'cat'/>", "cat", true},
		{`<IMG QUERY="Cat"/>`, "Cat", true},
		{`<IMG query = "partial`, "", false},
		{`<IMG query=bare/>`, "", false},
		{`<IMG subquery="no"/>`, "", false},
		{`<IMG url="query" query="yes"/>`, "yes", true},
		{`<IMG query="  "/>`, "", false},
	}
	for _, tt := range tests {
		got, ok := completeQuery(tt.raw)
		if got != tt.want || ok != tt.ok {
			t.Errorf("%s: expected (%q, %v), got (%q, %v)", tt.raw, tt.want, tt.ok, got, ok)
		}
	}
}

func TestWrapperFlattenedOnce(t *testing.T) {
	s := mapOne(t, `<SECTION><DIV><H1>Wrapped</H1><IMG query="sky"/><DIV><P>inner</P></DIV></DIV></SECTION>`)
	if s.RootImage == nil || s.RootImage.Query != "sky" {
		t.Errorf("expected root image from wrapped image, got %+v", s.RootImage)
	}
	want := []deck.Node{
		&deck.Heading{Level: 1, Runs: []deck.Run{{Text: "Wrapped"}}},
		para("inner"),
	}
	if !reflect.DeepEqual(s.Content, want) {
		t.Errorf("unexpected content: %#v", s.Content)
	}
	if s.Title() != "Wrapped" {
		t.Errorf("expected title from wrapped heading, got %q", s.Title())
	}
}

func TestNestedImageStaysInContent(t *testing.T) {
	s := mapOne(t, `<SECTION><H1>Cols</H1><COLUMNS><DIV><IMG query="cat" url="c.png"/></DIV><DIV><P>right side</P></DIV><P>ignored</P></COLUMNS></SECTION>`)
	if s.RootImage != nil {
		t.Errorf("expected no root image, got %+v", s.RootImage)
	}
	cols, ok := s.Content[1].(*deck.Columns)
	if !ok {
		t.Fatalf("expected *deck.Columns, got %T", s.Content[1])
	}
	want := [][]deck.Node{
		{&deck.Image{Query: "cat", URL: "c.png"}},
		{para("right side")},
	}
	if !reflect.DeepEqual(cols.Columns, want) {
		t.Errorf("unexpected columns: %#v", cols.Columns)
	}
}

func TestIconItems(t *testing.T) {
	s := mapOne(t, `<SECTION><H1>Icons</H1><ICONS>`+
		`<DIV><ICON query="rocket"/><P>Fast</P></DIV>`+
		`<DIV><ICON query="x"/><P>Short icon</P></DIV>`+
		`<DIV><ICON query="globe"/></DIV>`+
		`<DIV></DIV>`+
		`</ICONS></SECTION>`)
	group, ok := s.Content[1].(*deck.ItemGroup)
	if !ok {
		t.Fatalf("expected *deck.ItemGroup, got %T", s.Content[1])
	}
	if group.Kind != deck.GroupIcons {
		t.Errorf("expected icons, got %q", group.Kind)
	}
	want := []deck.Item{
		{Icon: "rocket", Content: []deck.Node{para("Fast")}},
		{Content: []deck.Node{para("Short icon")}},
		{Icon: "globe", Content: []deck.Node{}},
	}
	if !reflect.DeepEqual(group.Items, want) {
		t.Errorf("unexpected items: %#v", group.Items)
	}
}

func TestSanitizeIconQuery(t *testing.T) {
	tests := map[string]string{
		"rocket":        "rocket",
		" rocket ":      "rocket",
		"rocket<DIV":    "rocket",
		"star SECTION":  "star",
		"a>b":           "a",
		"cloud</ICON":   "cloud",
		"section lower": "section lower",
		"<":             "",
		"":              "",
	}
	for in, want := range tests {
		if got := sanitizeIconQuery(in); got != want {
			t.Errorf("sanitizeIconQuery(%q): expected %q, got %q", in, want, got)
		}
	}
}

func TestItemGroupKinds(t *testing.T) {
	for tagName, kind := range map[string]deck.GroupKind{
		"BULLETS":   deck.GroupBullets,
		"CYCLE":     deck.GroupCycle,
		"STAIRCASE": deck.GroupStaircase,
	} {
		s := mapOne(t, `<SECTION><H1>Kinds</H1><`+tagName+`><DIV>step one</DIV><P>not an item</P></`+tagName+`></SECTION>`)
		group, ok := s.Content[1].(*deck.ItemGroup)
		if !ok {
			t.Fatalf("%s: expected *deck.ItemGroup, got %T", tagName, s.Content[1])
		}
		if group.Kind != kind {
			t.Errorf("%s: expected kind %q, got %q", tagName, kind, group.Kind)
		}
		if len(group.Items) != 1 || !reflect.DeepEqual(group.Items[0].Content, []deck.Node{para("step one")}) {
			t.Errorf("%s: unexpected items %#v", tagName, group.Items)
		}
	}
}

func TestVisualizations(t *testing.T) {
	s := mapOne(t, `<SECTION><H1>Viz</H1>`+
		`<ARROWS><DIV><H3>Plan</H3><P>draft it</P></DIV><DIV>Ship</DIV></ARROWS>`+
		`<PYRAMID><DIV></DIV></PYRAMID>`+
		`<TIMELINE><DIV><B>1999</B> launch</DIV></TIMELINE>`+
		`</SECTION>`)
	if len(s.Content) != 3 {
		t.Fatalf("expected heading, arrows and timeline, got %d nodes", len(s.Content))
	}

	arrows := s.Content[1].(*deck.Visualization)
	wantArrows := &deck.Visualization{Kind: deck.VisualArrows, Items: [][]deck.Node{
		{&deck.Heading{Level: 3, Runs: []deck.Run{{Text: "Plan"}}}, para("draft it")},
		{para("Ship")},
	}}
	if !reflect.DeepEqual(arrows, wantArrows) {
		t.Errorf("unexpected arrows: %#v", arrows)
	}

	timeline := s.Content[2].(*deck.Visualization)
	wantRuns := []deck.Run{{Text: "1999", Bold: true}, {Text: " launch"}}
	if timeline.Kind != deck.VisualTimeline {
		t.Errorf("expected timeline, got %q", timeline.Kind)
	}
	if got := timeline.Items[0][0].(*deck.Paragraph).Runs; !reflect.DeepEqual(got, wantRuns) {
		t.Errorf("expected runs %+v, got %+v", wantRuns, got)
	}
}

func TestChart_TableSectionsAndBadValues(t *testing.T) {
	s := mapOne(t, `<SECTION><H1>Table</H1><CHART charttype="pie"><TABLE>`+
		`<THEAD><TR><TH type="label">Quarter</TH><TH>Revenue</TH></TR></THEAD>`+
		`<TBODY>`+
		`<TR><TD type="label">Q1</TD><TD type="data">12.5</TD></TR>`+
		`<TR><TD type="label">Q2</TD><TD type="data">n/a</TD></TR>`+
		`<TR><TD>untyped</TD></TR>`+
		`</TBODY></TABLE></CHART></SECTION>`)
	chart := s.Content[1].(*deck.Chart)
	want := []deck.DataPoint{
		{Label: "Quarter"},
		{Label: "Q1", Value: 12.5},
		{Label: "Q2", Value: 0},
	}
	if !reflect.DeepEqual(chart.Data, want) {
		t.Errorf("expected %v, got %v", want, chart.Data)
	}
	if chart.ChartType != "pie" {
		t.Errorf("expected pie, got %q", chart.ChartType)
	}
}

func TestChart_EmptyDropped(t *testing.T) {
	s := mapOne(t, `<SECTION><H1>Nothing</H1><CHART><TABLE></TABLE></CHART></SECTION>`)
	if len(s.Content) != 1 {
		t.Errorf("expected the empty chart to be dropped, got %d nodes", len(s.Content))
	}
}

func TestInlineFormatting(t *testing.T) {
	s := mapOne(t, `<SECTION><P>  <STRONG>bold <EM>both</EM></STRONG><BR/><U>under</U> <S>gone</S>  </P></SECTION>`)
	want := []deck.Run{
		{Text: "bold ", Bold: true},
		{Text: "both", Bold: true, Italic: true},
		{Text: "\n"},
		{Text: "under", Underline: true},
		{Text: " "},
		{Text: "gone", Strikethrough: true},
	}
	got := s.Content[0].(*deck.Paragraph).Runs
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %+v, got %+v", want, got)
	}
}

func TestBlankHeadingDropped(t *testing.T) {
	s := mapOne(t, `<SECTION><H1>  </H1><H2>Real</H2></SECTION>`)
	want := []deck.Node{&deck.Heading{Level: 2, Runs: []deck.Run{{Text: "Real"}}}}
	if !reflect.DeepEqual(s.Content, want) {
		t.Errorf("unexpected content: %#v", s.Content)
	}
}

func TestFingerprint(t *testing.T) {
	root := func(s string) *markup.Node {
		return markup.Parse(s).Find("section")
	}

	src := `<SECTION><DIV><H1> Caf` + "é" + ` </H1></DIV></SECTION>`
	if got := fingerprint(root(src), src); got != "h1:Café" {
		t.Errorf("expected NFC h1 fingerprint, got %q", got)
	}

	src = `<SECTION b="2" a="1"><H2>x</H2><P>y</P><CHART></CHART><P>z</P></SECTION>`
	if got := fingerprint(root(src), src); got != "struct:a=1;b=2;|h2,p,chart" {
		t.Errorf("unexpected structural fingerprint %q", got)
	}

	src = `<SECTION>just text</SECTION>`
	if got := fingerprint(root(src), src); !strings.HasPrefix(got, "hash:") || len(got) != len("hash:")+64 {
		t.Errorf("unexpected hash fingerprint %q", got)
	}
}

func TestIsLive(t *testing.T) {
	tests := []struct {
		latest, text string
		want         bool
	}{
		{"<P>abc", "abc", true},
		{"<P>abc</P>", "abc", false},
		{"<P>abc  </P>", " abc ", false},
		{"<P>abc and more", "abc", true},
		{"<P>abc</P><P>abc", "abc", true},
		{"<P>abc\n", "abc", true},
		{"", "abc", false},
		{"<P>abc", "   ", false},
		{"<P>xyz", "abc", false},
	}
	for _, tt := range tests {
		if got := isLive(tt.latest, tt.text); got != tt.want {
			t.Errorf("isLive(%q, %q): expected %v, got %v", tt.latest, tt.text, tt.want, got)
		}
	}
}

func TestDrain_RecoversFromPanic(t *testing.T) {
	calls := 0
	p := New()
	p.mapper.newID = func() string {
		calls++
		panic("boom")
	}
	p.queue = []string{"no section here", `<SECTION><H1>Survivor</H1></SECTION>`}
	got := p.drain()
	if calls != 1 {
		t.Fatalf("expected the id generator to be called once, got %d", calls)
	}
	if len(got) != 1 || got[0].Title() != "Survivor" {
		t.Errorf("expected only the surviving slide, got %+v", got)
	}
}
