// Package tagging classifies commits against a keyword hierarchy.
//
// A TagGraph is built once from a catalog snapshot: every keyword becomes a
// node carrying its KeywordType and a compiled whole-word Matcher, and every
// catalog row with a parent adds a child -> parent edge. Projects add an
// edge from the bare project name to "project-<name>".
//
// The Engine scans a commit's log, paths and diff fragments for each node
// and expands every hit into the node's ancestors. APICALL keywords only
// contribute their ancestors, MAPPING keywords are never scanned for, and
// neither is ever matched against paths.
//
// The graph is immutable once built and safe to share between goroutines.
package tagging
