package analysis

import "strings"

// Generated lock files and the ecosystem that owns them. Conflicts in these
// are better regenerated than merged line by line.
var lockFiles = []struct {
	name      string
	ecosystem string
}{
	{"package-lock.json", "npm"},
	{"yarn.lock", "npm"},
	{"pnpm-lock.yaml", "npm"},
	{"bun.lockb", "npm"},
	{"go.sum", "go"},
	{"Cargo.lock", "cargo"},
	{"Pipfile.lock", "pip"},
	{"poetry.lock", "pip"},
	{"Gemfile.lock", "gem"},
	{"composer.lock", "composer"},
	{"mix.lock", "hex"},
}

// IsLockFile reports whether name refers to a known dependency lock file.
// Matching is by substring so full paths work.
func IsLockFile(name string) bool {
	_, ok := LockFileEcosystem(name)
	return ok
}

// LockFileEcosystem returns the package ecosystem of a lock file.
func LockFileEcosystem(name string) (string, bool) {
	for _, lf := range lockFiles {
		if strings.Contains(name, lf.name) {
			return lf.ecosystem, true
		}
	}
	return "", false
}
