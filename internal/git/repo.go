package git

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/format/diff"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/rohankatakam/ctag/internal/models"
)

// Repository reads commits and their diffs with go-git. It is not safe for
// concurrent use: the object storage lazily loads packfile indexes.
type Repository struct {
	repo *gogit.Repository
	path string
}

// Open opens the repository containing path
func Open(path string) (*Repository, error) {
	repo, err := gogit.PlainOpenWithOptions(path, &gogit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("opening repository %s: %w", path, err)
	}
	return &Repository{repo: repo, path: path}, nil
}

// Resolve turns a revision (HEAD, branch, tag, hash, HEAD~2, ...) into a commit hash
func (r *Repository) Resolve(rev string) (string, error) {
	hash, err := r.repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return "", fmt.Errorf("resolving %q: %w", rev, err)
	}
	return hash.String(), nil
}

// Log returns up to limit commit hashes reachable from rev, newest first.
// limit <= 0 means no limit.
func (r *Repository) Log(ctx context.Context, rev string, limit int) ([]string, error) {
	hash, err := r.repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return nil, fmt.Errorf("resolving %q: %w", rev, err)
	}

	iter, err := r.repo.Log(&gogit.LogOptions{From: *hash})
	if err != nil {
		return nil, fmt.Errorf("walking history from %s: %w", rev, err)
	}
	defer iter.Close()

	var hashes []string
	for limit <= 0 || len(hashes) < limit {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		c, err := iter.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("walking history from %s: %w", rev, err)
		}
		hashes = append(hashes, c.Hash.String())
	}
	return hashes, nil
}

// Commit returns the metadata of rev without computing its diff
func (r *Repository) Commit(rev string) (*models.Commit, error) {
	c, err := r.commitObject(rev)
	if err != nil {
		return nil, err
	}
	return toModel(c), nil
}

func (r *Repository) commitObject(rev string) (*object.Commit, error) {
	hash, err := r.repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return nil, fmt.Errorf("resolving %q: %w", rev, err)
	}
	c, err := r.repo.CommitObject(*hash)
	if err != nil {
		return nil, fmt.Errorf("getting commit %s: %w", hash, err)
	}
	return c, nil
}

func toModel(c *object.Commit) *models.Commit {
	return &models.Commit{
		SHA:       c.Hash.String(),
		Author:    c.Author.Name,
		Message:   c.Message,
		Timestamp: c.Author.When,
	}
}

// Load returns the commit and its diff fragments against the first parent.
// The root commit is diffed against the empty tree. Fragments hold the
// added and removed lines of one file each, lower-cased.
func (r *Repository) Load(ctx context.Context, rev string) (*models.Commit, []string, error) {
	c, err := r.commitObject(rev)
	if err != nil {
		return nil, nil, err
	}

	tree, err := c.Tree()
	if err != nil {
		return nil, nil, fmt.Errorf("getting tree: %w", err)
	}

	var parentTree *object.Tree
	if c.NumParents() > 0 {
		parent, err := c.Parent(0)
		if err != nil {
			return nil, nil, fmt.Errorf("getting parent of %s: %w", c.Hash, err)
		}
		if parentTree, err = parent.Tree(); err != nil {
			return nil, nil, fmt.Errorf("getting parent tree: %w", err)
		}
	}

	changes, err := object.DiffTreeWithOptions(ctx, parentTree, tree, object.DefaultDiffTreeOptions)
	if err != nil {
		return nil, nil, fmt.Errorf("computing diff: %w", err)
	}

	commit := toModel(c)
	for _, change := range changes {
		name := change.To.Name
		if name == "" {
			name = change.From.Name
		}
		commit.Files = append(commit.Files, name)
	}

	patch, err := changes.PatchContext(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("computing patch: %w", err)
	}

	var fragments []string
	for _, fp := range patch.FilePatches() {
		if fp.IsBinary() {
			continue
		}
		var sb strings.Builder
		for _, chunk := range fp.Chunks() {
			if chunk.Type() == diff.Equal {
				continue
			}
			sb.WriteString(chunk.Content())
		}
		if sb.Len() > 0 {
			fragments = append(fragments, NormalizeFragment(sb.String()))
		}
	}

	return commit, fragments, nil
}
