package render

import (
	"context"
	"strings"
	"testing"

	"github.com/packraft/packraft/pkg/depwalk"
	"github.com/packraft/packraft/pkg/errors"
)

func testGraph() *depwalk.Graph {
	return &depwalk.Graph{
		Nodes: []depwalk.Node{
			{ID: "app", Version: "1.0"},
			{ID: "lib", Version: "2.0", Installed: true},
		},
		Edges: []depwalk.Edge{
			{From: "app@1.0", To: "lib@2.0"},
		},
	}
}

func TestToDOT(t *testing.T) {
	dot := ToDOT(testGraph())

	for _, want := range []string{
		`"app@1.0" [label="app@1.0"];`,
		`"app@1.0" -> "lib@2.0";`,
		"digraph deps {",
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("ToDOT() missing %q in:\n%s", want, dot)
		}
	}
	if !strings.Contains(dot, `dashed`) {
		t.Errorf("ToDOT() renders installed node without dashed style:\n%s", dot)
	}
}

func TestRenderSVG(t *testing.T) {
	out, err := Render(context.Background(), testGraph(), SVG)
	if err != nil {
		t.Fatalf("Render(svg) error = %v", err)
	}
	if !strings.Contains(string(out), "<svg") {
		t.Errorf("Render(svg) output is not SVG")
	}
}

func TestRenderUnsupportedFormat(t *testing.T) {
	if _, err := Render(context.Background(), testGraph(), "gif"); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("Render(gif) error = %v, want INVALID_INPUT", err)
	}
}
