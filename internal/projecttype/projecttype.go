// Package projecttype classifies repositories by toolchain and decides,
// per changed file, whether it counts toward activity stats.
package projecttype

import (
	"os"
	"path/filepath"
)

// Type is a closed enum of repository toolchain classifications. The type
// determines which inclusion/exclusion rule set applies when parsing log
// output.
type Type string

const (
	Unity   Type = "unity"
	Flutter Type = "flutter"
	Arduino Type = "arduino"
	Python  Type = "python"
	Node    Type = "node"
	Go      Type = "go"
	Rust    Type = "rust"
	Generic Type = "generic"
)

// All lists every project type in detection priority order. Generic is the
// fallback and never detected explicitly.
var All = []Type{Unity, Flutter, Arduino, Python, Node, Go, Rust, Generic}

// Parse converts a string to a Type, reporting whether it is known
func Parse(s string) (Type, bool) {
	for _, t := range All {
		if string(t) == s {
			return t, true
		}
	}
	return Generic, false
}

// Rules holds the per-type rule set: how the type is detected and which
// extra exclusions and include patterns apply on top of the globals.
type Rules struct {
	// MarkerFiles are filenames or globs in the repository root; any match
	// counts.
	MarkerFiles []string
	// MarkerDirs are directories in the repository root; all must exist.
	MarkerDirs []string
	// MarkersRequireBoth demands a marker file match AND all marker dirs
	// (unity: solution file plus Assets/ and ProjectSettings/).
	MarkersRequireBoth bool

	// ExcludeDirs and ExcludeExtensions extend the global exclusions.
	ExcludeDirs       []string
	ExcludeExtensions []string

	// IncludePatterns, when set, make classification an allow-list: a file
	// must match at least one pattern (and not be otherwise excluded).
	IncludePatterns []string
}

// defaultRules is the built-in rule table, keyed by type.
var defaultRules = map[Type]Rules{
	Unity: {
		MarkerFiles:        []string{"*.sln"},
		MarkerDirs:         []string{"Assets", "ProjectSettings"},
		MarkersRequireBoth: true,
		ExcludeDirs:        []string{"Library", "Temp", "obj", "ProjectSettings", "Packages"},
		ExcludeExtensions:  []string{".meta", ".asset", ".unity", ".prefab", ".mat", ".anim"},
		IncludePatterns:    []string{"Assets/**/*.cs"},
	},
	Flutter: {
		MarkerFiles:       []string{"pubspec.yaml"},
		ExcludeDirs:       []string{".dart_tool"},
		ExcludeExtensions: []string{".g.dart", ".freezed.dart"},
	},
	Arduino: {
		MarkerFiles: []string{"platformio.ini", "*.ino"},
		ExcludeDirs: []string{".pio"},
	},
	Python: {
		MarkerFiles:       []string{"pyproject.toml", "setup.py", "requirements.txt"},
		ExcludeDirs:       []string{".venv", "venv", ".mypy_cache", ".pytest_cache", ".tox"},
		ExcludeExtensions: []string{".pyc"},
	},
	Node: {
		MarkerFiles: []string{"package.json"},
		ExcludeDirs: []string{"coverage", ".next"},
	},
	Go: {
		MarkerFiles: []string{"go.mod"},
	},
	Rust: {
		MarkerFiles: []string{"Cargo.toml"},
		ExcludeDirs: []string{"target"},
	},
	Generic: {},
}

// RulesFor returns the built-in rules for a type, falling back to generic
func RulesFor(t Type) Rules {
	if r, ok := defaultRules[t]; ok {
		return r
	}
	return defaultRules[Generic]
}

// Detect inspects marker files in the repository root and returns the first
// matching type in priority order, or Generic when nothing matches.
// Detection is advisory; a stored manual override wins.
func Detect(repoPath string) Type {
	for _, t := range All {
		if t == Generic {
			break
		}
		if matches(repoPath, RulesFor(t)) {
			return t
		}
	}
	return Generic
}

func matches(repoPath string, r Rules) bool {
	fileHit := false
	for _, pattern := range r.MarkerFiles {
		if hasMatchingFile(repoPath, pattern) {
			fileHit = true
			break
		}
	}

	dirsHit := len(r.MarkerDirs) > 0
	for _, dir := range r.MarkerDirs {
		info, err := os.Stat(filepath.Join(repoPath, dir))
		if err != nil || !info.IsDir() {
			dirsHit = false
			break
		}
	}

	if r.MarkersRequireBoth {
		return fileHit && dirsHit
	}
	return fileHit || dirsHit
}

// hasMatchingFile reports whether any file in the repository root matches
// the pattern. Only the root is inspected, never subdirectories.
func hasMatchingFile(repoPath, pattern string) bool {
	if !containsGlobMeta(pattern) {
		info, err := os.Stat(filepath.Join(repoPath, pattern))
		return err == nil && !info.IsDir()
	}

	entries, err := os.ReadDir(repoPath)
	if err != nil {
		return false
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if ok, _ := filepath.Match(pattern, entry.Name()); ok {
			return true
		}
	}
	return false
}

func containsGlobMeta(pattern string) bool {
	for _, c := range pattern {
		if c == '*' || c == '?' || c == '[' {
			return true
		}
	}
	return false
}
