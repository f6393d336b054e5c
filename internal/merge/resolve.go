package merge

import (
	"github.com/sprite-ai/wizmerge/internal/model"
)

// Resolve renders the merged content with conflicts replaced by the chosen
// side. choices maps an index into result.Conflicts to a strategy; conflicts
// without a choice keep their markers.
func Resolve(result model.MergeResult, choices map[int]model.Strategy) []string {
	byStart := make(map[int]model.Conflict, len(choices))
	strategy := make(map[int]model.Strategy, len(choices))
	for idx, s := range choices {
		if idx < 0 || idx >= len(result.Conflicts) {
			continue
		}
		c := result.Conflicts[idx]
		byStart[c.StartLine] = c
		strategy[c.StartLine] = s
	}

	out := make([]string, 0, len(result.MergedLines))
	for i := 0; i < len(result.MergedLines); i++ {
		c, ok := byStart[i]
		if !ok || !isMarkerBlock(result.MergedLines, i) {
			out = append(out, result.MergedLines[i].Content)
			continue
		}
		out = append(out, chosenLines(c, strategy[i])...)
		i += markerBlockLen - 1
	}
	return out
}

// ResolveAll applies one strategy to every conflict in result.
func ResolveAll(result model.MergeResult, s model.Strategy) []string {
	choices := make(map[int]model.Strategy, len(result.Conflicts))
	for i := range result.Conflicts {
		choices[i] = s
	}
	return Resolve(result, choices)
}

func chosenLines(c model.Conflict, s model.Strategy) []string {
	var out []string
	switch s {
	case model.StrategyOurs:
		out = appendContents(out, c.OurLines)
	case model.StrategyTheirs:
		out = appendContents(out, c.TheirLines)
	case model.StrategyBoth:
		out = appendContents(out, c.OurLines)
		out = appendContents(out, c.TheirLines)
	}
	return out
}

func appendContents(out []string, lines []model.Line) []string {
	for _, l := range lines {
		out = append(out, l.Content)
	}
	return out
}

// isMarkerBlock reports whether a full conflict marker block starts at i.
func isMarkerBlock(lines []model.Line, i int) bool {
	if i+markerBlockLen > len(lines) {
		return false
	}
	return lines[i].Content == MarkerOurs &&
		lines[i+2].Content == MarkerSeparator &&
		lines[i+4].Content == MarkerTheirs
}
