package git

import (
	"strings"
)

// FileDiff is the changed content of one file in a unified diff
type FileDiff struct {
	Path     string
	Added    int
	Deleted  int
	Fragment string // added and removed lines, markers stripped, lower-cased
}

// NormalizeFragment prepares diff text for keyword matching. The tagging
// engine lower-cases logs and paths itself but leaves diff text alone.
func NormalizeFragment(s string) string {
	return strings.ToLower(s)
}

// ParseUnifiedDiff splits `git diff` / `git show` style output into one
// entry per file. Context lines are dropped. A "--- " line directly followed
// by "+++ " is always read as a file header.
func ParseUnifiedDiff(text string) []FileDiff {
	if text == "" {
		return nil
	}

	lines := strings.Split(text, "\n")
	var files []FileDiff
	var cur *FileDiff
	var changed []string
	inHeader := false

	flush := func() {
		if cur != nil {
			cur.Fragment = NormalizeFragment(strings.Join(changed, "\n"))
			files = append(files, *cur)
		}
		cur = nil
		changed = nil
	}
	ensure := func() {
		if cur == nil {
			cur = &FileDiff{}
		}
	}

	for i, line := range lines {
		switch {
		case strings.HasPrefix(line, "diff --git "):
			flush()
			cur = &FileDiff{Path: pathFromGitHeader(line)}
			inHeader = true

		case strings.HasPrefix(line, "--- ") && i+1 < len(lines) && strings.HasPrefix(lines[i+1], "+++ "):
			if cur == nil || !inHeader {
				flush()
				cur = &FileDiff{}
				inHeader = true
			}
			if p := headerPath(line[4:]); p != "" && cur.Path == "" {
				cur.Path = p
			}

		case inHeader && strings.HasPrefix(line, "+++ "):
			if p := headerPath(line[4:]); p != "" {
				cur.Path = p
			}
			inHeader = false

		case strings.HasPrefix(line, "@@"):
			ensure()
			inHeader = false

		case inHeader:
			// index, mode and rename lines

		case strings.HasPrefix(line, "+"):
			ensure()
			cur.Added++
			changed = append(changed, line[1:])

		case strings.HasPrefix(line, "-"):
			ensure()
			cur.Deleted++
			changed = append(changed, line[1:])
		}
	}
	flush()

	return files
}

// Fragments returns the non-empty fragments of diffs
func Fragments(diffs []FileDiff) []string {
	var out []string
	for _, d := range diffs {
		if d.Fragment != "" {
			out = append(out, d.Fragment)
		}
	}
	return out
}

// Paths returns the file paths of diffs
func Paths(diffs []FileDiff) []string {
	var out []string
	for _, d := range diffs {
		if d.Path != "" {
			out = append(out, d.Path)
		}
	}
	return out
}

// pathFromGitHeader extracts b/<path> from "diff --git a/<path> b/<path>"
func pathFromGitHeader(line string) string {
	if idx := strings.LastIndex(line, " b/"); idx >= 0 {
		return line[idx+3:]
	}
	return ""
}

// headerPath strips the a/ or b/ prefix and any trailing timestamp; /dev/null is empty
func headerPath(p string) string {
	if idx := strings.IndexByte(p, '\t'); idx >= 0 {
		p = p[:idx]
	}
	p = strings.TrimSpace(p)
	if p == "/dev/null" {
		return ""
	}
	if strings.HasPrefix(p, "a/") || strings.HasPrefix(p, "b/") {
		return p[2:]
	}
	return p
}
