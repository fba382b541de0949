package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/rohankatakam/ctag/internal/cache"
	"github.com/rohankatakam/ctag/internal/config"
	"github.com/rohankatakam/ctag/internal/git"
	"github.com/rohankatakam/ctag/internal/models"
	"github.com/rohankatakam/ctag/internal/output"
	"github.com/rohankatakam/ctag/internal/tagging"
)

var (
	tagMaxCount int
	tagPatch    string
	tagMessage  string
	tagNoCache  bool
	tagStaged   bool
)

var tagCmd = &cobra.Command{
	Use:   "tag [rev...]",
	Short: "Tag commits with catalog keywords",
	Long: `Tag one or more commits. Each revision is resolved in the configured
repository (default HEAD). With --max-count, history is walked from the
single given revision.

With --patch, a unified diff is tagged instead of a commit; use "-" to read
it from stdin and --message to supply the commit message. --staged tags the
changes staged in the repository.`,
	Example: `  ctag tag
  ctag tag HEAD~3 v1.2.0
  ctag tag --max-count 50 main
  git diff HEAD~1 | ctag tag --patch - --message "wip"
  ctag tag --staged -m "Add retry to requests.get"`,
	RunE: runTag,
}

func init() {
	tagCmd.Flags().IntVarP(&tagMaxCount, "max-count", "n", 0, "walk this many commits of history from the revision")
	tagCmd.Flags().StringVar(&tagPatch, "patch", "", "tag a unified diff file instead of commits (- for stdin)")
	tagCmd.Flags().StringVarP(&tagMessage, "message", "m", "", "commit message used with --patch")
	tagCmd.Flags().BoolVar(&tagNoCache, "no-cache", false, "ignore and do not update the tag cache")
	tagCmd.Flags().BoolVar(&tagStaged, "staged", false, "tag the staged changes instead of commits")
	tagCmd.MarkFlagsMutuallyExclusive("patch", "staged")
}

func runTag(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	runID := uuid.New().String()
	log := logger.WithField("run_id", runID)

	svc, store, err := openService(ctx, config.ValidationContextTag)
	if err != nil {
		return err
	}
	defer store.Close()

	if tagPatch != "" || tagStaged {
		var patch string
		if tagStaged {
			patch, err = stagedPatch(ctx, cfg.Repo.Path)
		} else {
			patch, err = readPatch(tagPatch)
		}
		if err != nil {
			return err
		}
		result, err := tagPatchText(ctx, svc, patch, tagMessage)
		if err != nil {
			return err
		}
		log.WithField("tags", len(result.Tags)).Debug("patch tagged")
		return output.WriteResults(os.Stdout, format(), []models.TagResult{*result})
	}

	repo, err := git.Open(cfg.Repo.Path)
	if err != nil {
		return err
	}

	shas, err := resolveRevisions(ctx, repo, args, tagMaxCount)
	if err != nil {
		return err
	}

	graph, err := svc.BuildGraph(ctx)
	if err != nil {
		return err
	}

	var tagCache *cache.TagCache
	if cfg.Cache.Enabled && cfg.Cache.Path != "" && !tagNoCache {
		tagCache, err = openTagCache(cfg.Cache.Path, graph.Fingerprint(), log)
		if err != nil {
			log.WithError(err).Warn("tag cache unavailable, continuing without it")
			tagCache = nil
		} else {
			defer tagCache.Close()
		}
	}

	start := time.Now()
	results, err := tagCommits(ctx, tagging.NewEngine(graph), repo, tagCache, shas, cfg.Tagging.Workers)
	if err != nil {
		return err
	}

	cached := 0
	for _, r := range results {
		if r.Cached {
			cached++
		}
	}
	log.WithFields(logrus.Fields{
		"commits":  len(results),
		"cached":   cached,
		"duration": time.Since(start).Round(time.Millisecond),
	}).Info("tagging complete")

	return output.WriteResults(os.Stdout, format(), results)
}

// resolveRevisions turns the command arguments into commit hashes
func resolveRevisions(ctx context.Context, repo *git.Repository, revs []string, maxCount int) ([]string, error) {
	if len(revs) == 0 {
		revs = []string{"HEAD"}
	}
	if maxCount > 0 {
		if len(revs) != 1 {
			return nil, fmt.Errorf("--max-count takes exactly one revision (got %d)", len(revs))
		}
		return repo.Log(ctx, revs[0], maxCount)
	}

	shas := make([]string, 0, len(revs))
	for _, rev := range revs {
		sha, err := repo.Resolve(rev)
		if err != nil {
			return nil, err
		}
		shas = append(shas, sha)
	}
	return shas, nil
}

// openTagCache opens the cache at path and drops tags computed under any
// other catalog fingerprint
func openTagCache(path, fingerprint string, log logrus.FieldLogger) (*cache.TagCache, error) {
	tagCache, err := cache.Open(path, log)
	if err != nil {
		return nil, err
	}
	removed, err := tagCache.Purge(fingerprint)
	if err != nil {
		log.WithError(err).Warn("failed to purge stale cache entries")
	} else if removed > 0 {
		log.WithField("removed", removed).Debug("dropped tags of older catalogs")
	}
	return tagCache, nil
}

// loadedCommit is a commit waiting to be tagged
type loadedCommit struct {
	index     int
	commit    *models.Commit
	fragments []string
}

// tagCommits tags shas, preserving input order in the result. One goroutine
// owns repo and loads commits in order, skipping the diff of cached ones;
// workers goroutines match them against the shared graph.
func tagCommits(ctx context.Context, engine *tagging.Engine, repo *git.Repository, tagCache *cache.TagCache, shas []string, workers int) ([]models.TagResult, error) {
	fingerprint := engine.Graph().Fingerprint()
	results := make([]models.TagResult, len(shas))
	if workers < 1 {
		workers = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	loaded := make(chan loadedCommit, workers)

	g.Go(func() error {
		defer close(loaded)
		for i, sha := range shas {
			if tagCache != nil {
				if tags, ok := tagCache.Get(fingerprint, sha); ok {
					commit, err := repo.Commit(sha)
					if err != nil {
						return err
					}
					results[i] = models.TagResult{SHA: commit.SHA, Summary: output.Summary(commit.Message), Tags: tags, Cached: true}
					continue
				}
			}

			commit, fragments, err := repo.Load(gctx, sha)
			if err != nil {
				return err
			}
			select {
			case loaded <- loadedCommit{index: i, commit: commit, fragments: fragments}:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for lc := range loaded {
				tags, err := engine.GetTags(lc.commit, lc.fragments)
				if err != nil {
					return fmt.Errorf("tagging %s: %w", lc.commit.SHA, err)
				}
				sorted := tags.Sorted()
				results[lc.index] = models.TagResult{SHA: lc.commit.SHA, Summary: output.Summary(lc.commit.Message), Tags: sorted}

				if tagCache != nil {
					if err := tagCache.Put(fingerprint, lc.commit.SHA, sorted); err != nil {
						logger.WithError(err).WithField("sha", lc.commit.SHA).Warn("failed to cache tags")
					}
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// stagedPatch returns the staged changes of the repository containing dir
func stagedPatch(ctx context.Context, dir string) (string, error) {
	root, err := git.FindGitRoot(ctx, dir)
	if err != nil {
		return "", err
	}
	return git.StagedDiff(ctx, root)
}

// readPatch reads a unified diff from path, or from stdin for "-"
func readPatch(path string) (string, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read patch: %w", err)
	}
	return string(data), nil
}

// tagPatchText tags a unified diff as if it were a commit with message
func tagPatchText(ctx context.Context, svc *tagging.Service, patch, message string) (*models.TagResult, error) {
	diffs := git.ParseUnifiedDiff(patch)
	commit := &models.Commit{
		Message: message,
		Files:   git.Paths(diffs),
	}

	tags, err := svc.GetTags(ctx, commit, git.Fragments(diffs))
	if err != nil {
		return nil, err
	}
	return &models.TagResult{Summary: output.Summary(message), Tags: tags.Sorted()}, nil
}
