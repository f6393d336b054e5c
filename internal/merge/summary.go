package merge

import "github.com/sprite-ai/wizmerge/internal/model"

// Summary condenses a merge result for reports.
type Summary struct {
	TotalLines    int
	ByOrigin      map[model.Origin]int
	Conflicts     int
	MaxRiskOurs   model.RiskLevel
	MaxRiskTheirs model.RiskLevel
	MaxRiskBoth   model.RiskLevel
	// Critical counts conflicts where any strategy touches a critical section.
	Critical int
}

// Summarize counts merged lines by origin and collects the worst risk level
// seen for each resolution strategy.
func Summarize(result model.MergeResult) Summary {
	s := Summary{
		TotalLines: len(result.MergedLines),
		ByOrigin:   make(map[model.Origin]int),
		Conflicts:  len(result.Conflicts),
	}
	for _, l := range result.MergedLines {
		s.ByOrigin[l.Origin]++
	}
	for _, c := range result.Conflicts {
		s.MaxRiskOurs = max(s.MaxRiskOurs, c.RiskOurs.Level)
		s.MaxRiskTheirs = max(s.MaxRiskTheirs, c.RiskTheirs.Level)
		s.MaxRiskBoth = max(s.MaxRiskBoth, c.RiskBoth.Level)
		if c.RiskOurs.AffectsCriticalSection || c.RiskTheirs.AffectsCriticalSection || c.RiskBoth.AffectsCriticalSection {
			s.Critical++
		}
	}
	return s
}
