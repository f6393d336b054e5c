package model

import "fmt"

// FactorKind identifies why a resolution strategy was judged risky.
type FactorKind int

const (
	FactorCriticalPattern FactorKind = iota
	FactorSignatureChange
	FactorTypedDeclarationChange
	FactorLargeChange
	FactorDiscardsTheirs
	FactorDiscardsOurs
	FactorConcatenation
	FactorCriticalEitherSide
	FactorDuplicateCode
	FactorMultipleAPIChanges
	FactorMultipleTypedDeclarationChanges
)

var factorNames = map[FactorKind]string{
	FactorCriticalPattern:                 "critical_pattern",
	FactorSignatureChange:                 "signature_change",
	FactorTypedDeclarationChange:          "typed_declaration_change",
	FactorLargeChange:                     "large_change",
	FactorDiscardsTheirs:                  "discards_theirs",
	FactorDiscardsOurs:                    "discards_ours",
	FactorConcatenation:                   "concatenation",
	FactorCriticalEitherSide:              "critical_either_side",
	FactorDuplicateCode:                   "duplicate_code",
	FactorMultipleAPIChanges:              "multiple_api_changes",
	FactorMultipleTypedDeclarationChanges: "multiple_typed_declaration_changes",
}

// Name returns a stable identifier for the kind.
func (k FactorKind) Name() string {
	if n, ok := factorNames[k]; ok {
		return n
	}
	return "unknown"
}

// RiskFactor is one reason attached to a RiskAssessment. Count carries the
// number of changed lines for the kinds that report one.
type RiskFactor struct {
	Kind  FactorKind
	Count int
}

func (f RiskFactor) String() string {
	switch f.Kind {
	case FactorCriticalPattern:
		return "Contains critical code patterns (security/data operations)"
	case FactorSignatureChange:
		return "Function/method signatures changed"
	case FactorTypedDeclarationChange:
		return "TypeScript interface or type definitions changed"
	case FactorLargeChange:
		return fmt.Sprintf("Large number of changes (%d lines)", f.Count)
	case FactorDiscardsTheirs:
		return fmt.Sprintf("Discarding significant changes from other branch (%d lines)", f.Count)
	case FactorDiscardsOurs:
		return fmt.Sprintf("Discarding our local changes (%d lines)", f.Count)
	case FactorConcatenation:
		return "Concatenating both versions may cause duplicates or conflicts"
	case FactorCriticalEitherSide:
		return "Contains critical code patterns that may conflict"
	case FactorDuplicateCode:
		return "High similarity may result in duplicate code"
	case FactorMultipleAPIChanges:
		return "Multiple API changes may cause conflicts"
	case FactorMultipleTypedDeclarationChanges:
		return "Multiple TypeScript interface/type changes may cause conflicts"
	default:
		return "unknown risk factor"
	}
}

// Recommendation is a fixed piece of advice attached to a RiskAssessment.
type Recommendation int

const (
	RecommendReviewCarefully Recommendation = iota
	RecommendVerifyAPI
	RecommendTestThoroughly
	RecommendAppearsSafe
	RecommendManualReview
	RecommendMergeManually
	RecommendTestForDuplicates
)

func (r Recommendation) String() string {
	switch r {
	case RecommendReviewCarefully:
		return "Review changes carefully before accepting"
	case RecommendVerifyAPI:
		return "Verify API compatibility with dependent code"
	case RecommendTestThoroughly:
		return "Test thoroughly, especially security and data operations"
	case RecommendAppearsSafe:
		return "Changes appear safe to accept"
	case RecommendManualReview:
		return "Manual review required - automatic concatenation is risky"
	case RecommendMergeManually:
		return "Consider merging logic manually instead of concatenating"
	case RecommendTestForDuplicates:
		return "Test thoroughly for duplicate or conflicting code"
	default:
		return "unknown recommendation"
	}
}

// RiskAssessment is the risk verdict for one resolution strategy.
type RiskAssessment struct {
	Level           RiskLevel
	Confidence      float64
	Factors         []RiskFactor
	Recommendations []Recommendation

	HasSyntaxChanges         bool
	HasLogicChanges          bool
	HasAPIChanges            bool
	AffectsMultipleFunctions bool
	AffectsCriticalSection   bool
}

// Raise escalates the level to at least l. It never lowers it.
func (a *RiskAssessment) Raise(l RiskLevel) {
	if l > a.Level {
		a.Level = l
	}
}

// HasFactor reports whether a factor of the given kind was recorded.
func (a RiskAssessment) HasFactor(kind FactorKind) bool {
	for _, f := range a.Factors {
		if f.Kind == kind {
			return true
		}
	}
	return false
}

// FactorStrings renders each factor as text, in order.
func (a RiskAssessment) FactorStrings() []string {
	out := make([]string, len(a.Factors))
	for i, f := range a.Factors {
		out[i] = f.String()
	}
	return out
}

// RecommendationStrings renders each recommendation as text, in order.
func (a RiskAssessment) RecommendationStrings() []string {
	out := make([]string, len(a.Recommendations))
	for i, r := range a.Recommendations {
		out[i] = r.String()
	}
	return out
}
