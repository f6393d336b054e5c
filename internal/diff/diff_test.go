package diff

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const configPatch = `diff --git a/config.py b/config.py
index abc1234..def5678 100644
--- a/config.py
+++ b/config.py
@@ -1,3 +1,4 @@
 import os
-TIMEOUT = 10
+TIMEOUT = 30
+RETRIES = 3
 DEBUG = False
`

const twoFilePatch = `diff --git a/hello.go b/hello.go
new file mode 100644
index 0000000..e69de29
--- /dev/null
+++ b/hello.go
@@ -0,0 +1,3 @@
+package main
+
+func main() {}
diff --git a/readme.md b/readme.md
index abc1234..def5678 100644
--- a/readme.md
+++ b/readme.md
@@ -1,3 +1,4 @@
 # Project

-Old description
+New description
+Added line
`

func TestParse(t *testing.T) {
	ps, err := Parse(twoFilePatch)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(ps.Patches) != 2 {
		t.Fatalf("expected 2 patches, got %d", len(ps.Patches))
	}

	p0 := ps.Patches[0]
	if !p0.IsNew {
		t.Error("expected hello.go to be new")
	}
	if p0.Name() != "hello.go" {
		t.Errorf("expected name 'hello.go', got %q", p0.Name())
	}

	files, added, removed := ps.Stats()
	if files != 2 || added != 5 || removed != 1 {
		t.Errorf("stats: got files=%d added=%d removed=%d", files, added, removed)
	}

	p, ok := ps.Find("readme.md")
	require.True(t, ok)
	assert.Equal(t, 2, p.Added)
}

func TestParseEmpty(t *testing.T) {
	ps, err := Parse("")
	if err != nil {
		t.Fatalf("Parse empty failed: %v", err)
	}
	if len(ps.Patches) != 0 {
		t.Errorf("expected 0 patches, got %d", len(ps.Patches))
	}
}

func TestApplyPatch(t *testing.T) {
	base := []string{"import os", "TIMEOUT = 10", "DEBUG = False"}

	got, err := ApplyPatch(base, configPatch)
	require.NoError(t, err)
	assert.Equal(t, []string{"import os", "TIMEOUT = 30", "RETRIES = 3", "DEBUG = False"}, got)
}

func TestApplyPatchMismatchedBase(t *testing.T) {
	_, err := ApplyPatch([]string{"something", "else"}, configPatch)
	assert.Error(t, err)
}

func TestApplyPatchRejectsMultipleFiles(t *testing.T) {
	_, err := ApplyPatch(nil, twoFilePatch)
	assert.ErrorContains(t, err, "2 files")
}

func TestApplyPatchEmpty(t *testing.T) {
	_, err := ApplyPatch([]string{"a"}, "")
	assert.True(t, errors.Is(err, ErrNoFiles))
}

func TestSplitJoinLines(t *testing.T) {
	tests := []struct {
		content string
		lines   []string
	}{
		{"", nil},
		{"a\n", []string{"a"}},
		{"a\nb", []string{"a", "b"}},
		{"a\r\nb\r\n", []string{"a\r", "b\r"}},
		{"\n", []string{""}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.lines, SplitLines(tt.content), "%q", tt.content)
	}
	assert.Equal(t, "a\nb\n", JoinLines([]string{"a", "b"}))
	assert.Equal(t, "", JoinLines(nil))
}
