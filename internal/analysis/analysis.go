// Package analysis extracts code context around merge conflicts and scores
// the risk of each way of resolving them. Everything here is pure and total:
// out-of-range inputs yield empty results, never panics or errors.
package analysis

import "strings"

// lineSpace is the set of characters stripped by TrimLine.
const lineSpace = " \t\n\r"

// TrimLine strips leading and trailing spaces, tabs, newlines and carriage returns.
func TrimLine(s string) string {
	return strings.Trim(s, lineSpace)
}

// lineAt returns lines[i], or "" when i is past the end.
func lineAt(lines []string, i int) string {
	if i < len(lines) {
		return lines[i]
	}
	return ""
}
