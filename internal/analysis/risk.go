package analysis

import "github.com/sprite-ai/wizmerge/internal/model"

// Confidence weights for the keep-ours and keep-theirs strategies.
const (
	baseConfidence    = 0.5
	similarityWeight  = 0.3
	changeRatioWeight = 0.2

	// bothConfidence is the fixed confidence for concatenating both sides.
	bothConfidence = 0.3

	largeChangeThreshold   = 10
	discardChangeThreshold = 5
	discardSimilarityLimit = 0.3
	duplicateSimilarity    = 0.5
)

// Similarity is the Jaccard-like overlap of two line sequences in [0, 1].
// Duplicated lines in a are each counted as common when present in b.
func Similarity(a, b []string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}

	present := make(map[string]struct{}, len(b))
	for _, l := range b {
		present[l] = struct{}{}
	}
	common := 0
	for _, l := range a {
		if _, ok := present[l]; ok {
			common++
		}
	}

	total := len(a) + len(b) - common
	if total <= 0 {
		return 0.0
	}
	return float64(common) / float64(total)
}

// CountChanges counts positions at which base and modified differ, treating
// positions past the end of the shorter sequence as empty lines.
func CountChanges(base, modified []string) int {
	changes := 0
	for i := range max(len(base), len(modified)) {
		if lineAt(base, i) != lineAt(modified, i) {
			changes++
		}
	}
	return changes
}

// IsSignatureLine reports whether a line looks like a complete function or
// method signature.
func IsSignatureLine(line string) bool {
	_, ok := matchDecl(signatureDecls, TrimLine(line))
	return ok
}

// CriticalMatch locates a dangerous construct within a line sequence.
type CriticalMatch struct {
	Line     int
	Category string
	Text     string
}

// CriticalMatches returns every line holding a dangerous construct, reporting
// the first matching category per line.
func CriticalMatches(lines []string) []CriticalMatch {
	var matches []CriticalMatch
	for i, line := range lines {
		trimmed := TrimLine(line)
		if category, ok := criticalCategory(trimmed); ok {
			matches = append(matches, CriticalMatch{Line: i, Category: category, Text: trimmed})
		}
	}
	return matches
}

// ContainsCriticalPatterns reports whether any line holds a dangerous construct.
func ContainsCriticalPatterns(lines []string) bool {
	for _, line := range lines {
		if _, ok := criticalCategory(TrimLine(line)); ok {
			return true
		}
	}
	return false
}

func criticalCategory(trimmed string) (string, bool) {
	for _, cp := range criticalPatterns {
		for _, re := range cp.patterns {
			if re.MatchString(trimmed) {
				return cp.category, true
			}
		}
	}
	return "", false
}

// HasAPISignatureChanges reports whether some position holds a signature on
// both sides with different text.
func HasAPISignatureChanges(base, modified []string) bool {
	for i := 0; i < len(base) && i < len(modified); i++ {
		if IsSignatureLine(base[i]) && IsSignatureLine(modified[i]) && base[i] != modified[i] {
			return true
		}
	}
	return false
}

// HasTypedDeclarationChanges reports whether an interface, type alias or enum
// appears on either side and the two sides differ at all. The declaration
// itself need not be the line that changed.
func HasTypedDeclarationChanges(base, modified []string) bool {
	if !hasTypedDeclaration(base) && !hasTypedDeclaration(modified) {
		return false
	}
	if len(base) != len(modified) {
		return true
	}
	for i := range base {
		if TrimLine(base[i]) != TrimLine(modified[i]) {
			return true
		}
	}
	return false
}

func hasTypedDeclaration(lines []string) bool {
	for _, line := range lines {
		if _, ok := matchDecl(typedDecls, TrimLine(line)); ok {
			return true
		}
	}
	return false
}

// AnalyzeRiskOurs scores resolving a conflict by keeping our side.
func AnalyzeRiskOurs(base, ours, theirs []string) model.RiskAssessment {
	return analyzeKeepSide(base, ours, theirs, model.FactorDiscardsTheirs)
}

// AnalyzeRiskTheirs scores resolving a conflict by keeping their side.
func AnalyzeRiskTheirs(base, ours, theirs []string) model.RiskAssessment {
	return analyzeKeepSide(base, theirs, ours, model.FactorDiscardsOurs)
}

// analyzeKeepSide scores keeping kept and dropping discarded.
func analyzeKeepSide(base, kept, discarded []string, discardKind model.FactorKind) model.RiskAssessment {
	a := model.RiskAssessment{
		Level:      model.RiskLow,
		Confidence: baseConfidence,
	}

	keptChanges := CountChanges(base, kept)
	discardedChanges := CountChanges(base, discarded)
	similarity := Similarity(kept, discarded)

	if ContainsCriticalPatterns(kept) {
		a.AffectsCriticalSection = true
		a.Factors = append(a.Factors, model.RiskFactor{Kind: model.FactorCriticalPattern})
		a.Raise(model.RiskHigh)
	}

	if HasAPISignatureChanges(base, kept) {
		a.HasAPIChanges = true
		a.Factors = append(a.Factors, model.RiskFactor{Kind: model.FactorSignatureChange})
		a.Raise(model.RiskMedium)
	}

	if HasTypedDeclarationChanges(base, kept) {
		a.HasAPIChanges = true
		a.Factors = append(a.Factors, model.RiskFactor{Kind: model.FactorTypedDeclarationChange})
		a.Raise(model.RiskMedium)
	}

	if keptChanges > largeChangeThreshold {
		a.HasLogicChanges = true
		a.Factors = append(a.Factors, model.RiskFactor{Kind: model.FactorLargeChange, Count: keptChanges})
		a.Raise(model.RiskMedium)
	}

	if discardedChanges > discardChangeThreshold && similarity < discardSimilarityLimit {
		a.Factors = append(a.Factors, model.RiskFactor{Kind: discardKind, Count: discardedChanges})
		a.Raise(model.RiskMedium)
	}

	ratio := baseConfidence
	if total := keptChanges + discardedChanges; total > 0 {
		ratio = float64(keptChanges) / float64(total)
	}
	a.Confidence = baseConfidence + similarityWeight*similarity + changeRatioWeight*ratio

	if a.Level >= model.RiskMedium {
		a.Recommendations = append(a.Recommendations, model.RecommendReviewCarefully)
	}
	if a.HasAPIChanges {
		a.Recommendations = append(a.Recommendations, model.RecommendVerifyAPI)
	}
	if a.AffectsCriticalSection {
		a.Recommendations = append(a.Recommendations, model.RecommendTestThoroughly)
	}
	if len(a.Factors) == 0 {
		a.Recommendations = append(a.Recommendations, model.RecommendAppearsSafe)
	}

	return a
}

// AnalyzeRiskBoth scores resolving a conflict by concatenating both sides.
func AnalyzeRiskBoth(base, ours, theirs []string) model.RiskAssessment {
	a := model.RiskAssessment{
		Level:            model.RiskMedium,
		Confidence:       bothConfidence,
		HasSyntaxChanges: true,
		HasLogicChanges:  true,
		Factors:          []model.RiskFactor{{Kind: model.FactorConcatenation}},
	}

	if ContainsCriticalPatterns(ours) || ContainsCriticalPatterns(theirs) {
		a.AffectsCriticalSection = true
		a.Factors = append(a.Factors, model.RiskFactor{Kind: model.FactorCriticalEitherSide})
		a.Raise(model.RiskHigh)
	}

	if Similarity(ours, theirs) > duplicateSimilarity {
		a.Factors = append(a.Factors, model.RiskFactor{Kind: model.FactorDuplicateCode})
		a.Raise(model.RiskHigh)
	}

	if HasAPISignatureChanges(base, ours) || HasAPISignatureChanges(base, theirs) {
		a.HasAPIChanges = true
		a.Factors = append(a.Factors, model.RiskFactor{Kind: model.FactorMultipleAPIChanges})
		a.Raise(model.RiskHigh)
	}

	if HasTypedDeclarationChanges(base, ours) || HasTypedDeclarationChanges(base, theirs) {
		a.HasAPIChanges = true
		a.Factors = append(a.Factors, model.RiskFactor{Kind: model.FactorMultipleTypedDeclarationChanges})
		a.Raise(model.RiskHigh)
	}

	a.Recommendations = []model.Recommendation{
		model.RecommendManualReview,
		model.RecommendMergeManually,
		model.RecommendTestForDuplicates,
	}
	return a
}
