package analysis

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sprite-ai/wizmerge/internal/model"
)

func TestSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []string
		want float64
	}{
		{"both empty", nil, nil, 1.0},
		{"left empty", nil, []string{"x"}, 0.0},
		{"right empty", []string{"x"}, nil, 0.0},
		{"identical", []string{"a", "b"}, []string{"a", "b"}, 1.0},
		{"disjoint", []string{"a"}, []string{"b"}, 0.0},
		{"half", []string{"a", "b"}, []string{"a", "c"}, 1.0 / 3.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Similarity(tt.a, tt.b), 1e-9)
		})
	}
}

func TestCountChanges(t *testing.T) {
	assert.Equal(t, 0, CountChanges(nil, nil))
	assert.Equal(t, 1, CountChanges([]string{"a"}, []string{"b"}))
	assert.Equal(t, 2, CountChanges([]string{"a"}, []string{"b", "c"}))
	// A missing position compares equal to an empty line.
	assert.Equal(t, 0, CountChanges([]string{""}, nil))
}

func TestContainsCriticalPatterns(t *testing.T) {
	assert.False(t, ContainsCriticalPatterns([]string{"int x = 10;", "return x;"}))
	assert.True(t, ContainsCriticalPatterns([]string{"delete ptr;", `system("rm -rf /");`}))

	critical := []string{
		"DROP TABLE users",
		"drop table users",
		"sudo reboot",
		"chmod 777 /tmp/x",
		"user.password = input",
		"cfg.secret = s",
		"const x = y as any;",
		"// @ts-ignore",
		"// @ts-nocheck",
		"el.innerHTML = html",
		"<div dangerouslySetInnerHTML={x} />",
		"localStorage.setItem('password', p)",
		"exec (cmd)",
	}
	for _, line := range critical {
		// "DROP TABLE" is upper case and the catalog is case-sensitive.
		want := line != "DROP TABLE users"
		assert.Equal(t, want, ContainsCriticalPatterns([]string{line}), line)
	}
}

func TestCriticalMatches(t *testing.T) {
	matches := CriticalMatches([]string{"ok", "  eval(input)", "sudo rm"})
	require.Len(t, matches, 2)
	assert.Equal(t, CriticalMatch{Line: 1, Category: "dynamic execution", Text: "eval(input)"}, matches[0])
	assert.Equal(t, "privilege", matches[1].Category)
}

func TestHasAPISignatureChanges(t *testing.T) {
	base := []string{"void myFunction(int x) {"}
	assert.True(t, HasAPISignatureChanges(base, []string{"void myFunction(int x, int y) {"}))
	assert.False(t, HasAPISignatureChanges(base, []string{"void myFunction(int x) {"}))
	assert.False(t, HasAPISignatureChanges(base, []string{"int y = 3;"}))
	assert.False(t, HasAPISignatureChanges(base, nil))
}

func TestHasTypedDeclarationChanges(t *testing.T) {
	tests := []struct {
		name           string
		base, modified []string
		want           bool
	}{
		{
			name:     "interface field added",
			base:     []string{"interface User {", "  id: string;", "}"},
			modified: []string{"interface User {", "  id: string;", "  name: string;", "}"},
			want:     true,
		},
		{
			name:     "whitespace only",
			base:     []string{"type ID = string;"},
			modified: []string{"  type ID = string;  "},
			want:     false,
		},
		{
			name:     "no typed declaration",
			base:     []string{"a"},
			modified: []string{"b"},
			want:     false,
		},
		{
			name:     "declaration elsewhere in the block",
			base:     []string{"enum Color { Red }", "x = 1"},
			modified: []string{"enum Color { Red }", "x = 2"},
			want:     true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HasTypedDeclarationChanges(tt.base, tt.modified))
		})
	}
}

func TestAnalyzeRiskOursBasic(t *testing.T) {
	risk := AnalyzeRiskOurs([]string{"int x = 10;"}, []string{"int x = 20;"}, []string{"int x = 30;"})

	assert.Equal(t, model.RiskLow, risk.Level)
	assert.InDelta(t, 0.6, risk.Confidence, 1e-9)
	assert.Empty(t, risk.Factors)
	assert.Equal(t, []model.Recommendation{model.RecommendAppearsSafe}, risk.Recommendations)
}

func TestAnalyzeRiskTheirsBasic(t *testing.T) {
	risk := AnalyzeRiskTheirs([]string{"int x = 10;"}, []string{"int x = 20;"}, []string{"int x = 30;"})

	assert.Equal(t, model.RiskLow, risk.Level)
	assert.GreaterOrEqual(t, risk.Confidence, 0.0)
	assert.LessOrEqual(t, risk.Confidence, 1.0)
	assert.NotEmpty(t, risk.Recommendations)
}

func TestAnalyzeRiskOursCriticalEval(t *testing.T) {
	risk := AnalyzeRiskOurs([]string{"x"}, []string{"eval(x)"}, []string{"y"})

	assert.Equal(t, model.RiskHigh, risk.Level)
	assert.True(t, risk.AffectsCriticalSection)
	assert.True(t, risk.HasFactor(model.FactorCriticalPattern))
	assert.Equal(t, []model.Recommendation{
		model.RecommendReviewCarefully,
		model.RecommendTestThoroughly,
	}, risk.Recommendations)
}

func TestAnalyzeRiskOursLargeChange(t *testing.T) {
	var ours []string
	for i := range 15 {
		ours = append(ours, fmt.Sprintf("changed_line_%d", i))
	}
	risk := AnalyzeRiskOurs([]string{"line1"}, ours, []string{"line1"})

	assert.Equal(t, model.RiskMedium, risk.Level)
	assert.True(t, risk.HasLogicChanges)
	require.Len(t, risk.Factors, 1)
	assert.Equal(t, model.RiskFactor{Kind: model.FactorLargeChange, Count: 15}, risk.Factors[0])
	assert.Equal(t, "Large number of changes (15 lines)", risk.Factors[0].String())
}

func TestAnalyzeRiskOursDiscardsTheirs(t *testing.T) {
	base := []string{"a", "b", "c", "d", "e", "f"}
	theirs := []string{"1", "2", "3", "4", "5", "6"}
	risk := AnalyzeRiskOurs(base, base, theirs)

	assert.Equal(t, model.RiskMedium, risk.Level)
	assert.True(t, risk.HasFactor(model.FactorDiscardsTheirs))
	assert.False(t, risk.HasLogicChanges)

	other := AnalyzeRiskTheirs(base, theirs, base)
	require.Len(t, other.Factors, 1)
	assert.Equal(t, "Discarding our local changes (6 lines)", other.Factors[0].String())
}

func TestAnalyzeRiskOursConfidence(t *testing.T) {
	// Identical sides with zero changes: 0.5 + 0.3*1 + 0.2*0.5.
	risk := AnalyzeRiskOurs([]string{"a"}, []string{"a"}, []string{"a"})
	assert.InDelta(t, 0.9, risk.Confidence, 1e-9)

	// Only our side changed and the sides share nothing: 0.5 + 0 + 0.2*1.
	risk = AnalyzeRiskOurs([]string{"a"}, []string{"b"}, []string{"a"})
	assert.InDelta(t, 0.7, risk.Confidence, 1e-9)
}

func TestAnalyzeRiskInterfaceChange(t *testing.T) {
	base := []string{"interface User {", "  id: string;", "}"}
	ours := []string{"interface User {", "  id: string;", "  email: string;", "}"}
	theirs := base

	risk := AnalyzeRiskOurs(base, ours, theirs)
	assert.True(t, risk.HasAPIChanges)
	assert.GreaterOrEqual(t, risk.Level, model.RiskMedium)
	assert.True(t, risk.HasFactor(model.FactorTypedDeclarationChange))
	assert.Contains(t, risk.Recommendations, model.RecommendVerifyAPI)

	both := AnalyzeRiskBoth(base, ours, theirs)
	assert.Equal(t, model.RiskHigh, both.Level)
	assert.True(t, both.HasFactor(model.FactorMultipleTypedDeclarationChanges))
}

func TestAnalyzeRiskBoth(t *testing.T) {
	risk := AnalyzeRiskBoth([]string{"int x = 10;"}, []string{"int x = 20;"}, []string{"int x = 30;"})

	assert.Equal(t, model.RiskMedium, risk.Level)
	assert.InDelta(t, 0.3, risk.Confidence, 1e-9)
	assert.True(t, risk.HasSyntaxChanges)
	assert.True(t, risk.HasLogicChanges)
	assert.Equal(t, []model.RiskFactor{{Kind: model.FactorConcatenation}}, risk.Factors)
	assert.Equal(t, []model.Recommendation{
		model.RecommendManualReview,
		model.RecommendMergeManually,
		model.RecommendTestForDuplicates,
	}, risk.Recommendations)
}

func TestAnalyzeRiskBothEscalates(t *testing.T) {
	tests := []struct {
		name               string
		base, ours, theirs []string
		kind               model.FactorKind
	}{
		{"critical on their side", []string{"x"}, []string{"y"}, []string{"rm -rf /"}, model.FactorCriticalEitherSide},
		{"duplicate code", []string{"x"}, []string{"same"}, []string{"same"}, model.FactorDuplicateCode},
		{"signature change", []string{"void f(int a)"}, []string{"void f(int a, int b)"}, []string{"z"}, model.FactorMultipleAPIChanges},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			risk := AnalyzeRiskBoth(tt.base, tt.ours, tt.theirs)
			assert.Equal(t, model.RiskHigh, risk.Level)
			assert.True(t, risk.HasFactor(tt.kind))
			assert.Equal(t, model.FactorConcatenation, risk.Factors[0].Kind)
		})
	}
}

func TestIsSignatureLine(t *testing.T) {
	tests := []struct {
		line string
		want bool
	}{
		{"void f(int a) {", true},
		{"def f(a):", true},
		{"function f(a)", true},
		{"export async function f(a)", true},
		{"const f = (a) => a", true},
		{"f(a): number", true},
		{"int x = 10;", false},
		{"x := f(a)", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsSignatureLine(tt.line), tt.line)
	}
}
