package projecttype

import (
	"regexp"
	"strings"
)

// Built-in global exclusions. A user override in the configuration fully
// replaces the corresponding list (no merging); per-type extras are always
// merged on top of whichever list is active.
var (
	DefaultExcludeDirs = []string{
		".git", "node_modules", "vendor", "build", "dist", "out",
		"__pycache__", ".idea", ".vscode",
	}
	DefaultExcludeExtensions = []string{
		".min.js", ".min.css", ".d.ts", ".lock", ".sum",
		".svg", ".png", ".jpg", ".jpeg", ".gif", ".ico", ".pdf",
	}
	DefaultExcludeFilenames = []string{
		"package-lock.json", "yarn.lock", "pnpm-lock.yaml", "go.sum",
		"Cargo.lock", "poetry.lock", "Gemfile.lock", "composer.lock",
	}
)

// Overrides carries user-supplied replacement lists. A nil slice keeps the
// built-in defaults for that category; a non-nil slice replaces them.
type Overrides struct {
	ExcludeDirs       []string
	ExcludeExtensions []string
	ExcludeFilenames  []string
	// IncludePatterns maps a type name to allow-list globs replacing the
	// built-in patterns for that type.
	IncludePatterns map[string][]string
}

// Reason explains a classification decision
type Reason string

const (
	ReasonIncluded          Reason = "included"
	ReasonExcludedDir       Reason = "excluded-dir"
	ReasonExcludedFilename  Reason = "excluded-filename"
	ReasonExcludedExtension Reason = "excluded-extension"
	ReasonNotInAllowList    Reason = "not-in-allow-list"
)

// Decision is the outcome of classifying one changed-file path
type Decision struct {
	Included bool
	Reason   Reason
	// Match is the rule element that drove an exclusion (directory name,
	// filename, or extension). Empty for included files.
	Match string
}

// Classifier decides whether changed files count, using the rule set for
// one project type. Build it once per repository; it is safe for concurrent
// use after construction.
type Classifier struct {
	projectType       Type
	excludeDirs       map[string]struct{}
	excludeFilenames  map[string]struct{}
	excludeExtensions []string
	includePatterns   []*regexp.Regexp
	includeSources    []string
}

// NewClassifier builds a classifier for the given project type, applying
// user overrides to the global lists and merging the type's extras on top.
func NewClassifier(t Type, ov Overrides) *Classifier {
	rules := RulesFor(t)

	dirs := DefaultExcludeDirs
	if ov.ExcludeDirs != nil {
		dirs = ov.ExcludeDirs
	}
	exts := DefaultExcludeExtensions
	if ov.ExcludeExtensions != nil {
		exts = ov.ExcludeExtensions
	}
	names := DefaultExcludeFilenames
	if ov.ExcludeFilenames != nil {
		names = ov.ExcludeFilenames
	}

	patterns := rules.IncludePatterns
	if ov.IncludePatterns != nil {
		if p, ok := ov.IncludePatterns[string(t)]; ok {
			patterns = p
		}
	}

	c := &Classifier{
		projectType:       t,
		excludeDirs:       toSet(dirs, rules.ExcludeDirs),
		excludeFilenames:  toSet(names, nil),
		excludeExtensions: append(append([]string{}, exts...), rules.ExcludeExtensions...),
		includeSources:    patterns,
	}
	for _, p := range patterns {
		c.includePatterns = append(c.includePatterns, compileGlob(p))
	}
	return c
}

// ProjectType returns the type this classifier was built for
func (c *Classifier) ProjectType() Type {
	return c.projectType
}

// IncludePatterns returns the active allow-list globs, if any
func (c *Classifier) IncludePatterns() []string {
	return c.includeSources
}

// Classify decides whether a changed-file path (relative to the repository
// root, slash-separated) counts toward stats.
//
// Order: directory-segment exclusion, filename exclusion, extension suffix
// exclusion, then the allow-list. The allow-list is layered on top of the
// exclusions: a file must match a pattern AND not be otherwise excluded.
func (c *Classifier) Classify(path string) Decision {
	normalized := strings.ReplaceAll(path, "\\", "/")

	// Every segment is checked, the filename included: a bare file named
	// after an excluded directory (e.g. "build") is dropped the same way
	// a file inside that directory is.
	segments := strings.Split(normalized, "/")
	for _, seg := range segments {
		if _, ok := c.excludeDirs[seg]; ok {
			return Decision{Reason: ReasonExcludedDir, Match: seg}
		}
	}

	name := segments[len(segments)-1]
	if _, ok := c.excludeFilenames[name]; ok {
		return Decision{Reason: ReasonExcludedFilename, Match: name}
	}

	for _, ext := range c.excludeExtensions {
		if strings.HasSuffix(name, ext) {
			return Decision{Reason: ReasonExcludedExtension, Match: ext}
		}
	}

	if len(c.includePatterns) > 0 && !c.matchesInclude(normalized) {
		return Decision{Reason: ReasonNotInAllowList}
	}

	return Decision{Included: true, Reason: ReasonIncluded}
}

func (c *Classifier) matchesInclude(path string) bool {
	for _, re := range c.includePatterns {
		if re.MatchString(path) {
			return true
		}
	}
	return false
}

// compileGlob translates an fnmatch-style glob into a regexp. As in
// fnmatch, '*' crosses path separators, so "Assets/**/*.cs" matches any
// .cs file nested at least one directory under Assets.
func compileGlob(pattern string) *regexp.Regexp {
	var sb strings.Builder
	sb.WriteString("^")
	for _, r := range pattern {
		switch r {
		case '*':
			sb.WriteString(".*")
		case '?':
			sb.WriteString(".")
		default:
			sb.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	sb.WriteString("$")
	return regexp.MustCompile(sb.String())
}

func toSet(base, extra []string) map[string]struct{} {
	set := make(map[string]struct{}, len(base)+len(extra))
	for _, s := range base {
		set[s] = struct{}{}
	}
	for _, s := range extra {
		set[s] = struct{}{}
	}
	return set
}
