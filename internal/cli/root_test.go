package cli

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sprite-ai/wizmerge/internal/api"
)

// execute runs the root command with args and returns its stdout. Flag
// values persist between runs of a cobra command, so they are reset first.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())

	resetFlags(rootCmd)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append(args, "-q"))
	err := rootCmd.Execute()
	return out.String(), err
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRootCommandHasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, want := range []string{"merge", "risk", "context", "pr", "serve", "init-config", "version"} {
		if !names[want] {
			t.Errorf("root command missing subcommand %q", want)
		}
	}
}

func TestVersionOutput(t *testing.T) {
	// version vars are set via ldflags; in tests they have their defaults
	if version != "dev" {
		t.Errorf("expected default version %q, got %q", "dev", version)
	}

	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "wizmerge dev (commit none, built unknown)\n", out)
}

func TestMergeCleanWritesOutput(t *testing.T) {
	dir := t.TempDir()
	base := writeFile(t, dir, "base.txt", "a\nb\nc\n")
	ours := writeFile(t, dir, "ours.txt", "a\nB\nc\n")
	theirs := writeFile(t, dir, "theirs.txt", "a\nb\nc\n")
	merged := filepath.Join(dir, "merged.txt")

	out, err := execute(t, "merge", base, ours, theirs, "-o", merged)
	require.NoError(t, err)
	assert.Contains(t, out, "No conflicts.")

	data, err := os.ReadFile(merged)
	require.NoError(t, err)
	assert.Equal(t, "a\nB\nc\n", string(data))
}

func TestMergeConflictJSON(t *testing.T) {
	dir := t.TempDir()
	base := writeFile(t, dir, "base.txt", "x = 1\n")
	ours := writeFile(t, dir, "ours.txt", "x = 2\n")
	theirs := writeFile(t, dir, "theirs.txt", "x = 3\n")

	out, err := execute(t, "merge", base, ours, theirs, "--format", "json")
	assert.ErrorIs(t, err, ErrConflicts)

	var resp api.MergeResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.True(t, resp.HasConflicts)
	require.Len(t, resp.Conflicts, 1)
	assert.Equal(t, []string{"<<<<<<< OURS", "x = 2", "=======", "x = 3", ">>>>>>> THEIRS"}, resp.Merged)
}

func TestMergeConflictText(t *testing.T) {
	dir := t.TempDir()
	base := writeFile(t, dir, "base.go", "func f() {\n\treturn 1\n}\n")
	ours := writeFile(t, dir, "ours.go", "func f() {\n\treturn 2\n}\n")
	theirs := writeFile(t, dir, "theirs.go", "func f() {\n\treturn 3\n}\n")

	out, err := execute(t, "merge", base, ours, theirs)
	assert.ErrorIs(t, err, ErrConflicts)
	assert.Contains(t, out, "Conflict 1")
	assert.Contains(t, out, "keep ours")
	assert.Contains(t, out, "keep both")
}

func TestMergeResolveStrategy(t *testing.T) {
	dir := t.TempDir()
	base := writeFile(t, dir, "base.txt", "x\n")
	ours := writeFile(t, dir, "ours.txt", "ours\n")
	theirs := writeFile(t, dir, "theirs.txt", "theirs\n")
	merged := filepath.Join(dir, "merged.txt")

	_, err := execute(t, "merge", base, ours, theirs, "--resolve", "theirs", "-o", merged)
	require.NoError(t, err)

	data, err := os.ReadFile(merged)
	require.NoError(t, err)
	assert.Equal(t, "theirs\n", string(data))
}

func TestMergeFromPatch(t *testing.T) {
	dir := t.TempDir()
	base := writeFile(t, dir, "base.txt", "one\ntwo\nthree\n")
	patch := writeFile(t, dir, "ours.diff", `--- a/f.txt
+++ b/f.txt
@@ -1,3 +1,3 @@
 one
-two
+TWO
 three
`)
	theirs := writeFile(t, dir, "theirs.txt", "one\ntwo\nthree\n")

	out, err := execute(t, "merge", base, theirs, "--ours-patch", patch, "--format", "json")
	require.NoError(t, err)

	var resp api.MergeResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, []string{"one", "TWO", "three"}, resp.Merged)
}

func TestMergeArgumentErrors(t *testing.T) {
	dir := t.TempDir()
	base := writeFile(t, dir, "base.txt", "x\n")

	_, err := execute(t, "merge", base)
	assert.ErrorContains(t, err, "missing ours")

	_, err = execute(t, "merge", base, base, base, "--format", "xml")
	assert.ErrorContains(t, err, "unknown format")

	_, err = execute(t, "merge", base, base, filepath.Join(dir, "nope.txt"))
	assert.ErrorContains(t, err, "nope.txt")

	_, err = execute(t, "merge", base, base, base, "--resolve", "sideways")
	assert.ErrorIs(t, err, api.ErrInvalidRequest)
}

func TestMergeBackend(t *testing.T) {
	srv := httptest.NewServer(api.New("").Handler())
	defer srv.Close()

	dir := t.TempDir()
	base := writeFile(t, dir, "base.txt", "a\n")
	ours := writeFile(t, dir, "ours.txt", "a\n")
	theirs := writeFile(t, dir, "theirs.txt", "b\n")

	out, err := execute(t, "merge", base, ours, theirs, "--backend", srv.URL, "--format", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"has_conflicts": false`)
}

func TestRiskCommand(t *testing.T) {
	dir := t.TempDir()
	base := writeFile(t, dir, "base.txt", "x\n")
	ours := writeFile(t, dir, "ours.txt", "eval(x)\n")
	theirs := writeFile(t, dir, "theirs.txt", "y\n")

	out, err := execute(t, "risk", base, ours, theirs, "--format", "json")
	require.NoError(t, err)

	var resp api.RiskResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "high", resp.Ours.Level)
	assert.True(t, resp.Ours.AffectsCriticalSection)
	assert.Equal(t, "high", resp.Both.Level)
}

func TestContextCommand(t *testing.T) {
	dir := t.TempDir()
	file := writeFile(t, dir, "box.cpp", strings.Join([]string{
		"#include <vector>",
		"class Box {",
		"  void grow() {",
		"    w++;",
		"  }",
		"};",
	}, "\n")+"\n")

	out, err := execute(t, "context", file, "--line", "4", "--format", "json")
	require.NoError(t, err)

	var resp api.ContextJSON
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "grow", resp.FunctionName)
	assert.Equal(t, "Box", resp.ClassName)
	assert.Equal(t, []string{"#include <vector>"}, resp.Imports)

	_, err = execute(t, "context", file, "--line", "4", "--end", "2")
	assert.ErrorIs(t, err, api.ErrInvalidRequest)
}

func TestInitConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wizmerge.toml")

	out, err := execute(t, "init-config", path)
	require.NoError(t, err)
	assert.Contains(t, out, path)
	assert.FileExists(t, path)

	_, err = execute(t, "init-config", path)
	assert.ErrorContains(t, err, "already exists")
}

func TestPRInvalidURL(t *testing.T) {
	_, err := execute(t, "pr", "https://example.com/not/a/pr")
	assert.ErrorContains(t, err, "invalid pull/merge request URL format")
}

func TestWritePR(t *testing.T) {
	resp := api.PRResolveResponse{
		Success: true,
		PRInfo: api.PRInfoJSON{
			Platform: "GitHub",
			Number:   7,
			Title:    "Add parser",
			State:    "open",
			BaseRef:  "main",
			HeadRef:  "feature",
		},
		ResolvedFiles: []api.PRFileJSON{
			{Filename: "a.go", Status: "modified", MergedContent: []string{"x"}},
			{Filename: "b.go", Status: "removed", Skipped: true, Reason: "File was deleted"},
			{Filename: "c.go", Status: "modified", Error: "Failed to fetch head version"},
			{Filename: "d.go", Status: "modified", HadConflicts: true, AutoResolved: true},
		},
		TotalFiles:    4,
		ResolvedCount: 2,
		FailedCount:   1,
	}

	var buf bytes.Buffer
	require.NoError(t, writePR(&buf, formatText, resp))
	out := buf.String()
	assert.Contains(t, out, "GitHub #7: Add parser")
	assert.Contains(t, out, "2 of 4 resolved, 1 failed")
	assert.Contains(t, out, "skipped: File was deleted")
	assert.Contains(t, out, "error: Failed to fetch head version")
	assert.Contains(t, out, "auto-resolved")

	buf.Reset()
	require.NoError(t, writePR(&buf, formatMarkdown, resp))
	assert.Contains(t, buf.String(), "| `a.go` | modified | merged |")

	buf.Reset()
	require.NoError(t, writePR(&buf, formatYAML, resp))
	assert.Contains(t, buf.String(), "resolved_count: 2")
}
