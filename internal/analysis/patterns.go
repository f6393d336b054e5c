package analysis

import "regexp"

// declKind tags a family of declaration syntax. Families are always tried in
// the order they appear in a catalog; the first match wins.
type declKind int

const (
	declFreeFunction declKind = iota
	declScriptDef
	declBracketFunction
	declObjectMethod
	declQualifiedMethod
	declExportedFunction
	declArrowBinding
	declTypedMethod

	declClass
	declQualifiedClass
	declStruct
	declExportedClass
	declInterface
	declTypeAlias
	declEnum
)

type declPattern struct {
	kind declKind
	re   *regexp.Regexp
}

func decl(kind declKind, pattern string) declPattern {
	return declPattern{kind: kind, re: regexp.MustCompile(pattern)}
}

// Function-like declarations recognised by context extraction.
var functionDecls = []declPattern{
	decl(declFreeFunction, `^\w+\s+\w+\s*\([^)]*\)\s*\{?`),
	decl(declScriptDef, `^def\s+\w+\s*\([^)]*\):`),
	decl(declBracketFunction, `^function\s+\w+\s*\([^)]*\)`),
	decl(declObjectMethod, `^\w+\s*:\s*function\s*\([^)]*\)`),
	decl(declQualifiedMethod, `^(public|private|protected)?\s*\w+\s+\w+\s*\([^)]*\)`),
	decl(declExportedFunction, `^(export\s+)?(async\s+)?function\s+\w+`),
	decl(declArrowBinding, `^(export\s+)?(const|let|var)\s+\w+\s*=\s*(async\s+)?\([^)]*\)\s*=>`),
	decl(declTypedMethod, `^(public|private|protected|readonly)?\s*\w+\s*\([^)]*\)\s*:\s*\w+`),
}

// Name extractors for function-like lines, in priority order. Group 1 is the name.
var functionNames = []declPattern{
	decl(declScriptDef, `def\s+(\w+)\s*\(`),
	decl(declExportedFunction, `(?:export\s+)?(?:async\s+)?function\s+(\w+)\s*\(`),
	decl(declArrowBinding, `(?:const|let|var)\s+(\w+)\s*=\s*(?:async\s+)?\([^)]*\)\s*=>`),
	decl(declFreeFunction, `\w+\s+(\w+)\s*\(`),
}

// Class-like declarations recognised by context extraction.
var classDecls = []declPattern{
	decl(declClass, `^class\s+\w+`),
	decl(declQualifiedClass, `^(public|private)?\s*class\s+\w+`),
	decl(declStruct, `^struct\s+\w+`),
	decl(declExportedClass, `^(export\s+)?(abstract\s+)?class\s+\w+`),
	decl(declInterface, `^(export\s+)?interface\s+\w+`),
	decl(declTypeAlias, `^(export\s+)?type\s+\w+\s*=`),
	decl(declEnum, `^(export\s+)?enum\s+\w+`),
}

// Group 2 is the declared name.
var classNamePattern = regexp.MustCompile(`(?:export\s+)?(?:abstract\s+)?(class|struct|interface|type|enum)\s+(\w+)`)

// Signature lines considered by API change detection. Narrower than
// functionDecls: the parameter list must be complete.
var signatureDecls = []declPattern{
	decl(declFreeFunction, `^\w+\s+\w+\s*\([^)]*\)`),
	decl(declScriptDef, `^def\s+\w+\s*\([^)]*\):`),
	decl(declBracketFunction, `^function\s+\w+\s*\([^)]*\)`),
	decl(declExportedFunction, `^(export\s+)?(async\s+)?function\s+\w+\s*\([^)]*\)`),
	decl(declArrowBinding, `^(const|let|var)\s+\w+\s*=\s*\([^)]*\)\s*=>`),
	decl(declTypedMethod, `^\w+\s*\([^)]*\)\s*:\s*\w+`),
}

// Typed declarations whose presence on either side makes any textual change
// count as a type definition change. These are searched anywhere in a line.
var typedDecls = []declPattern{
	decl(declInterface, `\binterface\s+\w+`),
	decl(declTypeAlias, `\btype\s+\w+\s*=`),
	decl(declEnum, `\benum\s+\w+`),
}

func matchDecl(catalog []declPattern, line string) (declKind, bool) {
	for _, p := range catalog {
		if p.re.MatchString(line) {
			return p.kind, true
		}
	}
	return 0, false
}

// Dangerous constructs grouped by category. Matching is case-sensitive.
var criticalPatterns = []struct {
	category string
	patterns []*regexp.Regexp
}{
	{
		category: "destructive",
		patterns: compilePatterns(
			`delete\s+\w+`,
			`drop\s+(table|database)`,
			`rm\s+-rf`,
		),
	},
	{
		category: "dynamic execution",
		patterns: compilePatterns(
			`eval\s*\(`,
			`exec\s*\(`,
			`system\s*\(`,
		),
	},
	{
		category: "credentials",
		patterns: compilePatterns(
			`\.password\s*=`,
			`\.secret\s*=`,
			`localStorage\.setItem.*password`,
		),
	},
	{
		category: "privilege",
		patterns: compilePatterns(
			`sudo\s+`,
			`chmod\s+777`,
		),
	},
	{
		category: "type safety",
		patterns: compilePatterns(
			`dangerouslySetInnerHTML`,
			`\bas\s+any\b`,
			`@ts-ignore`,
			`@ts-nocheck`,
			`innerHTML\s*=`,
		),
	},
}

func compilePatterns(patterns ...string) []*regexp.Regexp {
	var compiled []*regexp.Regexp
	for _, p := range patterns {
		compiled = append(compiled, regexp.MustCompile(p))
	}
	return compiled
}
