package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"

	"github.com/sprite-ai/wizmerge/internal/api"
	"github.com/sprite-ai/wizmerge/internal/diff"
	"github.com/sprite-ai/wizmerge/internal/merge"
	"github.com/sprite-ai/wizmerge/internal/model"
)

// Output formats accepted by --format.
const (
	formatText     = "text"
	formatJSON     = "json"
	formatMarkdown = "markdown"
	formatYAML     = "yaml"
)

func checkFormat(f string) error {
	switch f {
	case formatText, formatJSON, formatMarkdown, formatYAML:
		return nil
	}
	return fmt.Errorf("unknown format %q (want text, json, markdown or yaml)", f)
}

// writeStructured handles the formats shared by every report.
func writeStructured(w io.Writer, format string, v any) (bool, error) {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return true, enc.Encode(v)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return true, err
		}
		return true, enc.Close()
	}
	return false, nil
}

// mergeView carries what the text renderer needs beyond the response.
type mergeView struct {
	filename    string
	color       bool
	showContent bool
}

func writeMerge(w io.Writer, format string, resp *api.MergeResponse, view mergeView) error {
	if ok, err := writeStructured(w, format, resp); ok {
		return err
	}
	if format == formatMarkdown {
		return writeMergeMarkdown(w, resp)
	}
	return writeMergeText(w, resp, view)
}

func writeMergeText(w io.Writer, resp *api.MergeResponse, view mergeView) error {
	if view.showContent {
		content := resp.Lines
		if resp.Resolved != nil {
			content = make([]api.LineJSON, len(resp.Resolved))
			for i, l := range resp.Resolved {
				content[i] = api.LineJSON{Content: l}
			}
		}
		writeContent(w, content, view)
		fmt.Fprintln(w)
	}

	s := resp.Summary
	fmt.Fprintln(w, headerStyle.Render("Merge summary"))
	fmt.Fprintf(w, "  %s %d lines (base %d, ours %d, theirs %d, merged %d)\n",
		labelStyle.Render("output:"), s.TotalLines,
		s.ByOrigin["base"], s.ByOrigin["ours"], s.ByOrigin["theirs"], s.ByOrigin["merged"])

	if !resp.HasConflicts {
		fmt.Fprintln(w, "  "+cleanStyle.Render("No conflicts."))
		return nil
	}
	fmt.Fprintf(w, "  %s %d (%d touching critical code)\n\n", labelStyle.Render("conflicts:"), s.Conflicts, s.Critical)

	for i, c := range resp.Conflicts {
		writeConflictText(w, i, c)
	}
	return nil
}

func writeContent(w io.Writer, lines []api.LineJSON, view mergeView) {
	var spans []diff.SpanLine
	if view.color {
		texts := make([]string, len(lines))
		for i, l := range lines {
			texts[i] = l.Content
		}
		spans = diff.Highlight(view.filename, texts)
	}

	for i, l := range lines {
		num := lineNumberStyle.Render(fmt.Sprint(i + 1))
		var text string
		switch {
		case isMarker(l.Content) && l.Origin == model.OriginMerged.String():
			text = markerStyle.Render(l.Content)
		case spans != nil:
			text = renderSpans(spans[i])
		default:
			text = originStyle(l.Origin).Render(l.Content)
		}
		fmt.Fprintf(w, "%s  %s\n", num, text)
	}
}

func renderSpans(line diff.SpanLine) string {
	var b strings.Builder
	for _, sp := range line {
		if sp.Color == "" {
			b.WriteString(sp.Text)
			continue
		}
		b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(sp.Color)).Render(sp.Text))
	}
	return b.String()
}

func isMarker(s string) bool {
	return s == merge.MarkerOurs || s == merge.MarkerSeparator || s == merge.MarkerTheirs
}

func writeConflictText(w io.Writer, i int, c api.ConflictJSON) {
	where := fmt.Sprintf("line %d", c.StartLine+1)
	if c.Context.FunctionName != "" {
		where += ", in " + c.Context.FunctionName + "()"
	}
	if c.Context.ClassName != "" {
		where += ", class " + c.Context.ClassName
	}
	fmt.Fprintln(w, conflictHeaderStyle.Render(fmt.Sprintf("Conflict %d", i+1))+" "+labelStyle.Render("("+where+")"))
	fmt.Fprintf(w, "  %s %s\n", labelStyle.Render("ours:  "), oursLineStyle.Render(joinContents(c.OurLines)))
	fmt.Fprintf(w, "  %s %s\n", labelStyle.Render("theirs:"), theirsLineStyle.Render(joinContents(c.TheirLines)))

	for _, r := range []struct {
		name string
		risk api.RiskJSON
	}{
		{"keep ours", c.RiskOurs},
		{"keep theirs", c.RiskTheirs},
		{"keep both", c.RiskBoth},
	} {
		writeRiskText(w, r.name, r.risk)
	}
	fmt.Fprintln(w)
}

func writeRiskText(w io.Writer, name string, r api.RiskJSON) {
	fmt.Fprintf(w, "  %-12s %s  confidence %.2f\n", name, riskStyle(r.Level).Render(r.Level), r.Confidence)
	for _, f := range r.RiskFactors {
		fmt.Fprintf(w, "      - %s\n", f)
	}
	for _, rec := range r.Recommendations {
		fmt.Fprintf(w, "      > %s\n", labelStyle.Render(rec))
	}
}

func joinContents(lines []api.LineJSON) string {
	parts := make([]string, len(lines))
	for i, l := range lines {
		parts[i] = l.Content
	}
	return strings.Join(parts, " / ")
}

func writeMergeMarkdown(w io.Writer, resp *api.MergeResponse) error {
	s := resp.Summary
	fmt.Fprintf(w, "## Merge Report\n\n")
	fmt.Fprintf(w, "**%d lines** merged: base %d, ours %d, theirs %d, merged %d\n\n",
		s.TotalLines, s.ByOrigin["base"], s.ByOrigin["ours"], s.ByOrigin["theirs"], s.ByOrigin["merged"])

	if !resp.HasConflicts {
		fmt.Fprintln(w, "No conflicts.")
		return nil
	}

	fmt.Fprintf(w, "**Conflicts:** %d | **Critical:** %d\n\n", s.Conflicts, s.Critical)
	fmt.Fprintln(w, "| # | Line | Function | Ours | Theirs | Both |")
	fmt.Fprintln(w, "|---|------|----------|------|--------|------|")
	for i, c := range resp.Conflicts {
		fn := c.Context.FunctionName
		if fn == "" {
			fn = "-"
		}
		fmt.Fprintf(w, "| %d | %d | `%s` | %s | %s | %s |\n",
			i+1, c.StartLine+1, fn, c.RiskOurs.Level, c.RiskTheirs.Level, c.RiskBoth.Level)
	}
	return nil
}

func writeRisk(w io.Writer, format string, resp api.RiskResponse) error {
	if ok, err := writeStructured(w, format, resp); ok {
		return err
	}
	if format == formatMarkdown {
		fmt.Fprintln(w, "| Strategy | Level | Confidence | Factors |")
		fmt.Fprintln(w, "|----------|-------|------------|---------|")
		for _, r := range []struct {
			name string
			risk api.RiskJSON
		}{{"ours", resp.Ours}, {"theirs", resp.Theirs}, {"both", resp.Both}} {
			fmt.Fprintf(w, "| %s | %s | %.2f | %s |\n", r.name, r.risk.Level, r.risk.Confidence, strings.Join(r.risk.RiskFactors, "; "))
		}
		return nil
	}
	fmt.Fprintln(w, headerStyle.Render("Resolution risk"))
	writeRiskText(w, "keep ours", resp.Ours)
	writeRiskText(w, "keep theirs", resp.Theirs)
	writeRiskText(w, "keep both", resp.Both)
	return nil
}

func writeContext(w io.Writer, format string, c api.ContextJSON) error {
	if ok, err := writeStructured(w, format, c); ok {
		return err
	}
	orNone := func(s string) string {
		if s == "" {
			return "(none)"
		}
		return s
	}
	if format == formatMarkdown {
		fmt.Fprintf(w, "**Function:** `%s` | **Class:** `%s`\n\n", orNone(c.FunctionName), orNone(c.ClassName))
		fmt.Fprintln(w, "```")
		for _, l := range c.SurroundingLines {
			fmt.Fprintln(w, l)
		}
		fmt.Fprintln(w, "```")
		return nil
	}

	fmt.Fprintf(w, "%s %s\n", labelStyle.Render("function:"), orNone(c.FunctionName))
	fmt.Fprintf(w, "%s %s\n", labelStyle.Render("class:   "), orNone(c.ClassName))
	if len(c.Imports) > 0 {
		fmt.Fprintln(w, labelStyle.Render("imports:"))
		for _, imp := range c.Imports {
			fmt.Fprintln(w, "  "+imp)
		}
	}
	fmt.Fprintln(w, labelStyle.Render("surrounding lines:"))
	for _, l := range c.SurroundingLines {
		fmt.Fprintln(w, "  "+l)
	}
	return nil
}
