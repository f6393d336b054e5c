// Package merge implements the position-wise three-way merge, the
// whitespace auto-resolver and rendering of resolved output.
package merge

import (
	"github.com/sprite-ai/wizmerge/internal/analysis"
	"github.com/sprite-ai/wizmerge/internal/model"
)

// Conflict marker lines written into the merged output.
const (
	MarkerOurs      = "<<<<<<< OURS"
	MarkerSeparator = "======="
	MarkerTheirs    = ">>>>>>> THEIRS"
)

// markerBlockLen is the number of merged lines emitted per conflict.
const markerBlockLen = 5

// Merge combines base, ours and theirs line by line. Lines are compared by
// index only: an insertion on one side shifts every later position and shows
// up as a run of per-line differences. Positions past the end of a sequence
// compare as empty lines.
func Merge(base, ours, theirs []string) model.MergeResult {
	var result model.MergeResult

	n := max(len(base), len(ours), len(theirs))
	for i := range n {
		b := lineAt(base, i)
		o := lineAt(ours, i)
		t := lineAt(theirs, i)

		switch {
		case b == o && b == t:
			result.MergedLines = append(result.MergedLines, model.Line{Content: b, Origin: model.OriginBase})
		case b == o:
			result.MergedLines = append(result.MergedLines, model.Line{Content: t, Origin: model.OriginTheirs})
		case b == t:
			result.MergedLines = append(result.MergedLines, model.Line{Content: o, Origin: model.OriginOurs})
		case o == t:
			result.MergedLines = append(result.MergedLines, model.Line{Content: o, Origin: model.OriginMerged})
		default:
			result.Conflicts = append(result.Conflicts, newConflict(result.MergedLines, i, b, o, t))
			result.MergedLines = append(result.MergedLines,
				model.Line{Content: MarkerOurs, Origin: model.OriginMerged},
				model.Line{Content: o, Origin: model.OriginOurs},
				model.Line{Content: MarkerSeparator, Origin: model.OriginMerged},
				model.Line{Content: t, Origin: model.OriginTheirs},
				model.Line{Content: MarkerTheirs, Origin: model.OriginMerged},
			)
		}
	}

	return result
}

// newConflict records a disagreement at input position i. Context is taken
// from the merged output produced so far, addressed by the input position.
func newConflict(merged []model.Line, i int, b, o, t string) model.Conflict {
	contextLines := make([]string, len(merged))
	for j, l := range merged {
		contextLines[j] = l.Content
	}

	baseSide, ourSide, theirSide := []string{b}, []string{o}, []string{t}
	return model.Conflict{
		StartLine:  len(merged),
		EndLine:    len(merged),
		BaseLines:  []model.Line{{Content: b, Origin: model.OriginBase}},
		OurLines:   []model.Line{{Content: o, Origin: model.OriginOurs}},
		TheirLines: []model.Line{{Content: t, Origin: model.OriginTheirs}},
		Context:    analysis.AnalyzeContext(contextLines, i, i, analysis.DefaultContextWindow),
		RiskOurs:   analysis.AnalyzeRiskOurs(baseSide, ourSide, theirSide),
		RiskTheirs: analysis.AnalyzeRiskTheirs(baseSide, ourSide, theirSide),
		RiskBoth:   analysis.AnalyzeRiskBoth(baseSide, ourSide, theirSide),
	}
}

// AutoResolve returns a copy of result without the conflicts whose two sides
// differ only in leading or trailing whitespace. Merged lines, including the
// markers of dropped conflicts, are left as they are.
func AutoResolve(result model.MergeResult) model.MergeResult {
	resolved := model.MergeResult{
		MergedLines: append([]model.Line(nil), result.MergedLines...),
	}
	for _, c := range result.Conflicts {
		if !whitespaceOnly(c) {
			resolved.Conflicts = append(resolved.Conflicts, c)
		}
	}
	return resolved
}

func whitespaceOnly(c model.Conflict) bool {
	if len(c.OurLines) != len(c.TheirLines) {
		return false
	}
	for i := range c.OurLines {
		if analysis.TrimLine(c.OurLines[i].Content) != analysis.TrimLine(c.TheirLines[i].Content) {
			return false
		}
	}
	return true
}

func lineAt(lines []string, i int) string {
	if i < len(lines) {
		return lines[i]
	}
	return ""
}
