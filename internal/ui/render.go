package ui

import (
	"fmt"
	"strings"

	"github.com/Aman-CERP/scorefusion/internal/explain"
	"github.com/Aman-CERP/scorefusion/internal/hits"
)

// RenderRanked renders the fused list as aligned rows:
//
//	 1  1.0000  a  [docs][0][n1]
func RenderRanked(s Styles, ranked []hits.RankedDoc) string {
	if len(ranked) == 0 {
		return s.Dim.Render("no results") + "\n"
	}

	idWidth := 0
	for _, r := range ranked {
		idWidth = max(idWidth, len(r.Key.DocID))
	}
	rankWidth := len(fmt.Sprint(len(ranked)))

	var sb strings.Builder
	for i, r := range ranked {
		fmt.Fprintf(&sb, "%s  %s  %s  %s\n",
			s.Label.Render(fmt.Sprintf("%*d", rankWidth, i+1)),
			s.Score.Render(explain.FormatValue(r.Score)),
			s.Doc.Render(fmt.Sprintf("%-*s", idWidth, r.Key.DocID)),
			s.Dim.Render(r.Key.Shard.String()))
	}
	return sb.String()
}

// RenderTree renders an explanation tree with box-drawing branches.
func RenderTree(s Styles, e *explain.Explanation) string {
	if e == nil {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(node(s, e))
	sb.WriteString("\n")
	writeChildren(&sb, s, e.Details, "")
	return sb.String()
}

func writeChildren(sb *strings.Builder, s Styles, children []*explain.Explanation, prefix string) {
	for i, child := range children {
		last := i == len(children)-1
		branch, indent := "├─ ", "│  "
		if last {
			branch, indent = "└─ ", "   "
		}
		sb.WriteString(s.Dim.Render(prefix + branch))
		sb.WriteString(node(s, child))
		sb.WriteString("\n")
		writeChildren(sb, s, child.Details, prefix+indent)
	}
}

func node(s Styles, e *explain.Explanation) string {
	return s.Score.Render(explain.FormatValue(e.Value)) + " " + s.Label.Render(e.Description)
}

// Panel wraps content in the panel style, trimming the trailing newline.
func Panel(s Styles, title, content string) string {
	body := strings.TrimRight(content, "\n")
	if title != "" {
		body = s.Header.Render(title) + "\n" + body
	}
	return s.Panel.Render(body) + "\n"
}
