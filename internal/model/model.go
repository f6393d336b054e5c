// Package model defines the core data types shared across wizmerge.
package model

// Origin records which input a merged line was taken from.
type Origin int

const (
	OriginBase Origin = iota
	OriginOurs
	OriginTheirs
	OriginMerged
)

func (o Origin) String() string {
	switch o {
	case OriginBase:
		return "base"
	case OriginOurs:
		return "ours"
	case OriginTheirs:
		return "theirs"
	case OriginMerged:
		return "merged"
	default:
		return "unknown"
	}
}

// ParseOrigin is the inverse of Origin.String.
func ParseOrigin(s string) (Origin, bool) {
	switch s {
	case "base":
		return OriginBase, true
	case "ours":
		return OriginOurs, true
	case "theirs":
		return OriginTheirs, true
	case "merged":
		return OriginMerged, true
	}
	return OriginMerged, false
}

// Line is one line of text tagged with its provenance.
type Line struct {
	Content string
	Origin  Origin
}

// RiskLevel categorizes the risk of a resolution strategy.
type RiskLevel int

const (
	RiskLow RiskLevel = iota
	RiskMedium
	RiskHigh
	RiskCritical
)

func (r RiskLevel) String() string {
	switch r {
	case RiskLow:
		return "low"
	case RiskMedium:
		return "medium"
	case RiskHigh:
		return "high"
	case RiskCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// RiskLevelToString renders a level as its lowercase name.
func RiskLevelToString(r RiskLevel) string {
	return r.String()
}

// Strategy is a way of resolving a single conflict.
type Strategy int

const (
	StrategyOurs Strategy = iota
	StrategyTheirs
	StrategyBoth
)

func (s Strategy) String() string {
	switch s {
	case StrategyOurs:
		return "ours"
	case StrategyTheirs:
		return "theirs"
	case StrategyBoth:
		return "both"
	default:
		return "unknown"
	}
}

// ParseStrategy accepts "ours", "theirs" or "both".
func ParseStrategy(s string) (Strategy, bool) {
	switch s {
	case "ours":
		return StrategyOurs, true
	case "theirs":
		return StrategyTheirs, true
	case "both":
		return StrategyBoth, true
	}
	return StrategyOurs, false
}

// CodeContext describes the code surrounding a conflict.
type CodeContext struct {
	Start            int
	End              int
	SurroundingLines []string
	FunctionName     string
	ClassName        string
	Imports          []string
	// Metadata is diagnostic only.
	Metadata map[string]string
}

// Conflict is a single position where ours and theirs disagree.
// Each of BaseLines, OurLines and TheirLines holds exactly one line.
type Conflict struct {
	// StartLine and EndLine are both the index in the merged output
	// where this conflict's marker block begins.
	StartLine  int
	EndLine    int
	BaseLines  []Line
	OurLines   []Line
	TheirLines []Line
	Context    CodeContext
	RiskOurs   RiskAssessment
	RiskTheirs RiskAssessment
	RiskBoth   RiskAssessment
}

// MergeResult is the output of a three-way merge.
type MergeResult struct {
	MergedLines []Line
	Conflicts   []Conflict
}

// HasConflicts reports whether any conflicts remain.
func (r MergeResult) HasConflicts() bool {
	return len(r.Conflicts) > 0
}

// Contents returns the merged text lines without provenance.
func (r MergeResult) Contents() []string {
	out := make([]string, len(r.MergedLines))
	for i, l := range r.MergedLines {
		out[i] = l.Content
	}
	return out
}
