// Package diff turns unified patches into whole-file line sequences so that
// a side of a merge can be given as base plus patch.
package diff

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/bluekeyes/go-gitdiff/gitdiff"
)

// ErrNoFiles is returned when a patch does not touch any file.
var ErrNoFiles = errors.New("patch contains no file changes")

// Patch is a parsed unified diff for a single file.
type Patch struct {
	OldName string
	NewName string
	IsNew   bool
	Deleted bool
	Added   int
	Removed int

	file *gitdiff.File
}

// Name returns the path the patch writes to.
func (p *Patch) Name() string {
	if p.NewName != "" {
		return p.NewName
	}
	return p.OldName
}

// PatchSet is every file patch found in one diff.
type PatchSet struct {
	Patches []*Patch
}

// Stats returns the number of files and changed lines across the set.
func (ps *PatchSet) Stats() (files, added, removed int) {
	files = len(ps.Patches)
	for _, p := range ps.Patches {
		added += p.Added
		removed += p.Removed
	}
	return
}

// Find returns the patch for path, matching either its old or new name.
func (ps *PatchSet) Find(path string) (*Patch, bool) {
	for _, p := range ps.Patches {
		if p.NewName == path || p.OldName == path {
			return p, true
		}
	}
	return nil, false
}

// Parse reads a unified diff.
func Parse(raw string) (*PatchSet, error) {
	files, _, err := gitdiff.Parse(strings.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parsing diff: %w", err)
	}

	ps := &PatchSet{}
	for _, f := range files {
		p := &Patch{
			OldName: f.OldName,
			NewName: f.NewName,
			IsNew:   f.IsNew,
			Deleted: f.IsDelete,
			file:    f,
		}
		for _, frag := range f.TextFragments {
			p.Added += int(frag.LinesAdded)
			p.Removed += int(frag.LinesDeleted)
		}
		ps.Patches = append(ps.Patches, p)
	}
	return ps, nil
}

// Apply returns base with the patch applied.
func (p *Patch) Apply(base []string) ([]string, error) {
	if p.file.IsBinary {
		return nil, fmt.Errorf("applying patch to %s: binary patches are not supported", p.Name())
	}

	var out bytes.Buffer
	src := bytes.NewReader([]byte(JoinLines(base)))
	if err := gitdiff.Apply(&out, src, p.file); err != nil {
		return nil, fmt.Errorf("applying patch to %s: %w", p.Name(), err)
	}
	return SplitLines(out.String()), nil
}

// ApplyPatch applies a single-file unified diff to base. A diff touching more
// than one file is rejected since the target would be ambiguous.
func ApplyPatch(base []string, raw string) ([]string, error) {
	ps, err := Parse(raw)
	if err != nil {
		return nil, err
	}
	switch len(ps.Patches) {
	case 0:
		return nil, ErrNoFiles
	case 1:
		return ps.Patches[0].Apply(base)
	default:
		return nil, fmt.Errorf("patch touches %d files, expected 1", len(ps.Patches))
	}
}

// SplitLines splits file content into lines. A trailing newline does not
// produce an extra empty line; carriage returns are kept.
func SplitLines(content string) []string {
	if content == "" {
		return nil
	}
	content = strings.TrimSuffix(content, "\n")
	return strings.Split(content, "\n")
}

// JoinLines is the inverse of SplitLines, terminating every line.
func JoinLines(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}
