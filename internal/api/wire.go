package api

import (
	"github.com/sprite-ai/wizmerge/internal/merge"
	"github.com/sprite-ai/wizmerge/internal/model"
)

// MergeRequest is the body of POST /api/merge. Either side may be given as
// a unified diff against base instead of full content.
type MergeRequest struct {
	Base        []string `json:"base" yaml:"base"`
	Ours        []string `json:"ours,omitempty" yaml:"ours,omitempty"`
	Theirs      []string `json:"theirs,omitempty" yaml:"theirs,omitempty"`
	OursPatch   string   `json:"ours_patch,omitempty" yaml:"ours_patch,omitempty"`
	TheirsPatch string   `json:"theirs_patch,omitempty" yaml:"theirs_patch,omitempty"`
	// AutoResolve defaults to true when omitted.
	AutoResolve *bool  `json:"auto_resolve,omitempty" yaml:"auto_resolve,omitempty"`
	Resolve     string `json:"resolve,omitempty" yaml:"resolve,omitempty"`
}

// MergeResponse is the result of a merge.
type MergeResponse struct {
	Merged       []string       `json:"merged" yaml:"merged"`
	Lines        []LineJSON     `json:"lines" yaml:"lines"`
	Conflicts    []ConflictJSON `json:"conflicts" yaml:"conflicts"`
	HasConflicts bool           `json:"has_conflicts" yaml:"has_conflicts"`
	Resolved     []string       `json:"resolved,omitempty" yaml:"resolved,omitempty"`
	Summary      SummaryJSON    `json:"summary" yaml:"summary"`
}

type LineJSON struct {
	Content string `json:"content" yaml:"content"`
	Origin  string `json:"origin" yaml:"origin"`
}

type ConflictJSON struct {
	StartLine  int         `json:"start_line" yaml:"start_line"`
	EndLine    int         `json:"end_line" yaml:"end_line"`
	BaseLines  []LineJSON  `json:"base_lines" yaml:"base_lines"`
	OurLines   []LineJSON  `json:"our_lines" yaml:"our_lines"`
	TheirLines []LineJSON  `json:"their_lines" yaml:"their_lines"`
	Context    ContextJSON `json:"context" yaml:"context"`
	RiskOurs   RiskJSON    `json:"risk_ours" yaml:"risk_ours"`
	RiskTheirs RiskJSON    `json:"risk_theirs" yaml:"risk_theirs"`
	RiskBoth   RiskJSON    `json:"risk_both" yaml:"risk_both"`
}

type ContextJSON struct {
	Start            int               `json:"start" yaml:"start"`
	End              int               `json:"end" yaml:"end"`
	SurroundingLines []string          `json:"surrounding_lines" yaml:"surrounding_lines"`
	FunctionName     string            `json:"function_name" yaml:"function_name"`
	ClassName        string            `json:"class_name" yaml:"class_name"`
	Imports          []string          `json:"imports" yaml:"imports"`
	Metadata         map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

type RiskJSON struct {
	Level                    string   `json:"level" yaml:"level"`
	Confidence               float64  `json:"confidence" yaml:"confidence"`
	RiskFactors              []string `json:"risk_factors" yaml:"risk_factors"`
	Recommendations          []string `json:"recommendations" yaml:"recommendations"`
	HasSyntaxChanges         bool     `json:"has_syntax_changes" yaml:"has_syntax_changes"`
	HasLogicChanges          bool     `json:"has_logic_changes" yaml:"has_logic_changes"`
	HasAPIChanges            bool     `json:"has_api_changes" yaml:"has_api_changes"`
	AffectsMultipleFunctions bool     `json:"affects_multiple_functions" yaml:"affects_multiple_functions"`
	AffectsCriticalSection   bool     `json:"affects_critical_section" yaml:"affects_critical_section"`
}

type SummaryJSON struct {
	TotalLines    int            `json:"total_lines" yaml:"total_lines"`
	ByOrigin      map[string]int `json:"by_origin" yaml:"by_origin"`
	Conflicts     int            `json:"conflicts" yaml:"conflicts"`
	MaxRiskOurs   string         `json:"max_risk_ours" yaml:"max_risk_ours"`
	MaxRiskTheirs string         `json:"max_risk_theirs" yaml:"max_risk_theirs"`
	MaxRiskBoth   string         `json:"max_risk_both" yaml:"max_risk_both"`
	Critical      int            `json:"critical" yaml:"critical"`
}

// RiskRequest is the body of POST /api/risk.
type RiskRequest struct {
	Base   []string `json:"base"`
	Ours   []string `json:"ours"`
	Theirs []string `json:"theirs"`
}

// RiskResponse scores each resolution strategy.
type RiskResponse struct {
	Ours   RiskJSON `json:"ours" yaml:"ours"`
	Theirs RiskJSON `json:"theirs" yaml:"theirs"`
	Both   RiskJSON `json:"both" yaml:"both"`
}

// ContextRequest is the body of POST /api/context.
type ContextRequest struct {
	Lines  []string `json:"lines"`
	Start  int      `json:"start"`
	End    int      `json:"end"`
	Window *int     `json:"window,omitempty"`
}

// PRResolveRequest is the body of POST /api/pr/resolve. GitHubToken is the
// older spelling of APIToken.
type PRResolveRequest struct {
	PRURL        string `json:"pr_url"`
	APIToken     string `json:"api_token,omitempty"`
	GitHubToken  string `json:"github_token,omitempty"`
	CreateBranch bool   `json:"create_branch,omitempty"`
	BranchName   string `json:"branch_name,omitempty"`
}

// PRResolveResponse reports a pull request resolution.
type PRResolveResponse struct {
	Success       bool         `json:"success" yaml:"success"`
	PRInfo        PRInfoJSON   `json:"pr_info" yaml:"pr_info"`
	ResolvedFiles []PRFileJSON `json:"resolved_files" yaml:"resolved_files"`
	TotalFiles    int          `json:"total_files" yaml:"total_files"`
	ResolvedCount int          `json:"resolved_count" yaml:"resolved_count"`
	FailedCount   int          `json:"failed_count" yaml:"failed_count"`
	BranchCreated bool         `json:"branch_created" yaml:"branch_created"`
	BranchName    string       `json:"branch_name,omitempty" yaml:"branch_name,omitempty"`
	BranchPath    string       `json:"branch_path,omitempty" yaml:"branch_path,omitempty"`
	Note          string       `json:"note,omitempty" yaml:"note,omitempty"`
}

type PRInfoJSON struct {
	Platform       string `json:"platform" yaml:"platform"`
	Number         int    `json:"number" yaml:"number"`
	Title          string `json:"title" yaml:"title"`
	State          string `json:"state" yaml:"state"`
	BaseRef        string `json:"base_ref" yaml:"base_ref"`
	HeadRef        string `json:"head_ref" yaml:"head_ref"`
	BaseSHA        string `json:"base_sha" yaml:"base_sha"`
	HeadSHA        string `json:"head_sha" yaml:"head_sha"`
	Mergeable      bool   `json:"mergeable" yaml:"mergeable"`
	MergeableState string `json:"mergeable_state" yaml:"mergeable_state"`
}

type PRFileJSON struct {
	Filename      string   `json:"filename" yaml:"filename"`
	Status        string   `json:"status" yaml:"status"`
	Skipped       bool     `json:"skipped,omitempty" yaml:"skipped,omitempty"`
	Reason        string   `json:"reason,omitempty" yaml:"reason,omitempty"`
	Error         string   `json:"error,omitempty" yaml:"error,omitempty"`
	HadConflicts  bool     `json:"had_conflicts" yaml:"had_conflicts"`
	AutoResolved  bool     `json:"auto_resolved" yaml:"auto_resolved"`
	LockFile      bool     `json:"lock_file,omitempty" yaml:"lock_file,omitempty"`
	MergedContent []string `json:"merged_content,omitempty" yaml:"merged_content,omitempty"`
}

func linesJSON(lines []model.Line) []LineJSON {
	out := make([]LineJSON, len(lines))
	for i, l := range lines {
		out[i] = LineJSON{Content: l.Content, Origin: l.Origin.String()}
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func contextJSON(c model.CodeContext) ContextJSON {
	return ContextJSON{
		Start:            c.Start,
		End:              c.End,
		SurroundingLines: nonNil(c.SurroundingLines),
		FunctionName:     c.FunctionName,
		ClassName:        c.ClassName,
		Imports:          nonNil(c.Imports),
		Metadata:         c.Metadata,
	}
}

func riskJSON(a model.RiskAssessment) RiskJSON {
	return RiskJSON{
		Level:                    model.RiskLevelToString(a.Level),
		Confidence:               a.Confidence,
		RiskFactors:              a.FactorStrings(),
		Recommendations:          a.RecommendationStrings(),
		HasSyntaxChanges:         a.HasSyntaxChanges,
		HasLogicChanges:          a.HasLogicChanges,
		HasAPIChanges:            a.HasAPIChanges,
		AffectsMultipleFunctions: a.AffectsMultipleFunctions,
		AffectsCriticalSection:   a.AffectsCriticalSection,
	}
}

func conflictJSON(c model.Conflict) ConflictJSON {
	return ConflictJSON{
		StartLine:  c.StartLine,
		EndLine:    c.EndLine,
		BaseLines:  linesJSON(c.BaseLines),
		OurLines:   linesJSON(c.OurLines),
		TheirLines: linesJSON(c.TheirLines),
		Context:    contextJSON(c.Context),
		RiskOurs:   riskJSON(c.RiskOurs),
		RiskTheirs: riskJSON(c.RiskTheirs),
		RiskBoth:   riskJSON(c.RiskBoth),
	}
}

func summaryJSON(s merge.Summary) SummaryJSON {
	out := SummaryJSON{
		TotalLines:    s.TotalLines,
		ByOrigin:      make(map[string]int, len(s.ByOrigin)),
		Conflicts:     s.Conflicts,
		MaxRiskOurs:   s.MaxRiskOurs.String(),
		MaxRiskTheirs: s.MaxRiskTheirs.String(),
		MaxRiskBoth:   s.MaxRiskBoth.String(),
		Critical:      s.Critical,
	}
	for o, n := range s.ByOrigin {
		out.ByOrigin[o.String()] = n
	}
	return out
}
