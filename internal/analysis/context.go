package analysis

import (
	"strconv"
	"strings"

	"github.com/sprite-ai/wizmerge/internal/model"
)

// DefaultContextWindow is the number of lines kept on each side of a conflict.
const DefaultContextWindow = 5

// importScanLimit bounds how far from the top of a file imports are collected.
const importScanLimit = 50

// Prefixes of a trimmed line that mark it as an import.
var importPrefixes = []string{
	"#include",
	"import ",
	"from ",
	"using ",
	"import{",
	"import *",
	"import type",
	"export {",
	"export *",
}

// AnalyzeContext describes the code around lines[start:end]. The surrounding
// window extends window lines in each direction and is clamped to the file.
func AnalyzeContext(lines []string, start, end, window int) model.CodeContext {
	windowStart := max(start-window, 0)
	windowEnd := min(end+window, len(lines))

	var surrounding []string
	for i := windowStart; i < windowEnd; i++ {
		surrounding = append(surrounding, lines[i])
	}

	return model.CodeContext{
		Start:            start,
		End:              end,
		SurroundingLines: surrounding,
		FunctionName:     ExtractFunctionName(lines, start),
		ClassName:        ExtractClassName(lines, start),
		Imports:          ExtractImports(lines),
		Metadata: map[string]string{
			"context_window_start": strconv.Itoa(windowStart),
			"context_window_end":   strconv.Itoa(windowEnd),
			"total_lines":          strconv.Itoa(len(lines)),
		},
	}
}

// ExtractFunctionName returns the name of the function enclosing line n, or ""
// if none is found before a class or struct declaration.
func ExtractFunctionName(lines []string, n int) string {
	if n < 0 || n >= len(lines) {
		return ""
	}

	if isFunctionDefinition(lines[n]) {
		return functionNameFromLine(lines[n])
	}

	for i := n - 1; i >= 0; i-- {
		if isFunctionDefinition(lines[i]) {
			return functionNameFromLine(lines[i])
		}
		trimmed := TrimLine(lines[i])
		if strings.HasPrefix(trimmed, "class ") || strings.HasPrefix(trimmed, "struct ") {
			break
		}
	}
	return ""
}

// ExtractClassName returns the name of the class-like declaration enclosing
// line n. Braces seen while scanning upward track nesting depth so that
// declarations of sibling scopes are skipped.
func ExtractClassName(lines []string, n int) string {
	if n < 0 || n >= len(lines) {
		return ""
	}

	depth := 0
	for i := n; i >= 0; i-- {
		line := lines[i]
		depth += strings.Count(line, "}")
		depth -= strings.Count(line, "{")

		if isClassDefinition(line) && depth <= 0 {
			return classNameFromLine(line)
		}
	}
	return ""
}

// ExtractImports returns the trimmed import lines found near the top of the file.
func ExtractImports(lines []string) []string {
	var imports []string
	for i := 0; i < len(lines) && i < importScanLimit; i++ {
		line := TrimLine(lines[i])
		if isImportLine(line) {
			imports = append(imports, line)
		}
	}
	return imports
}

func isImportLine(trimmed string) bool {
	if strings.Contains(trimmed, "require(") {
		return true
	}
	for _, p := range importPrefixes {
		if strings.HasPrefix(trimmed, p) {
			return true
		}
	}
	return false
}

func isFunctionDefinition(line string) bool {
	_, ok := matchDecl(functionDecls, TrimLine(line))
	return ok
}

func isClassDefinition(line string) bool {
	_, ok := matchDecl(classDecls, TrimLine(line))
	return ok
}

func functionNameFromLine(line string) string {
	trimmed := TrimLine(line)
	for _, p := range functionNames {
		if m := p.re.FindStringSubmatch(trimmed); m != nil {
			return m[1]
		}
	}
	return ""
}

func classNameFromLine(line string) string {
	if m := classNamePattern.FindStringSubmatch(TrimLine(line)); m != nil {
		return m[2]
	}
	return ""
}
