package git

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/repokeeper/repokeeper/internal/core/domain"
	"github.com/repokeeper/repokeeper/internal/core/ports/driven"
	"github.com/repokeeper/repokeeper/internal/logger"
)

const (
	// MaxPushAttempts is the maximum number of push attempts for
	// transient failures.
	MaxPushAttempts = 3

	// PushRetryDelay is the initial delay between push attempts. It
	// doubles after every failed attempt.
	PushRetryDelay = time.Second
)

// Ensure Pipeline implements the interface.
var _ driven.VersionControl = (*Pipeline)(nil)

// Pipeline commits and pushes document changes in a single working tree.
// It resolves the default branch once per session, stages only the paths it
// is given, never creates empty commits and never force-pushes.
type Pipeline struct {
	workTree   string
	executor   CommandExecutor
	retryDelay time.Duration

	branchMu sync.Mutex
	branch   string // resolved default branch, cached for the session
}

// NewPipeline creates a pipeline for the given working tree using the
// default exec-backed executor.
func NewPipeline(workTree string) *Pipeline {
	return NewPipelineWithExecutor(workTree, NewExecExecutor())
}

// NewPipelineWithExecutor creates a pipeline with a custom executor.
func NewPipelineWithExecutor(workTree string, executor CommandExecutor) *Pipeline {
	return &Pipeline{
		workTree:   workTree,
		executor:   executor,
		retryDelay: PushRetryDelay,
	}
}

// WorkTree returns the working tree this pipeline operates on.
func (p *Pipeline) WorkTree() string {
	return p.workTree
}

// DefaultBranch resolves the branch pushes target. The remote HEAD is
// consulted first; if the remote does not advertise one, well-known branch
// names are probed. The result is cached for the session.
func (p *Pipeline) DefaultBranch(ctx context.Context) (string, error) {
	p.branchMu.Lock()
	defer p.branchMu.Unlock()

	if p.branch != "" {
		return p.branch, nil
	}

	out, err := p.git(ctx, "symbolic-ref", "--short", "refs/remotes/origin/HEAD")
	if err == nil {
		branch := strings.TrimPrefix(strings.TrimSpace(out), "origin/")
		if branch != "" {
			p.branch = branch
			return branch, nil
		}
	}

	for _, candidate := range []string{"main", "master"} {
		if ok, err := p.branchExists(ctx, candidate); err != nil {
			return "", err
		} else if ok {
			p.branch = candidate
			return candidate, nil
		}
	}

	return "", fmt.Errorf("no default branch found in %s: origin/HEAD unset and neither main nor master exists", p.workTree)
}

// Commit stages exactly paths and commits them with message. When the
// staged paths are unchanged no commit is created and a no-op result is
// returned. Commit failures wrap domain.ErrCommitFailed and are not
// retried; the next cycle picks the change up again.
func (p *Pipeline) Commit(ctx context.Context, paths []string, message string) (domain.CommitResult, error) {
	branch, err := p.DefaultBranch(ctx)
	if err != nil {
		return domain.CommitResult{}, err
	}
	result := domain.CommitResult{Branch: branch}

	if len(paths) == 0 {
		result.NoOp = true
		return result, nil
	}

	addArgs := append([]string{"add", "--"}, paths...)
	if _, err := p.git(ctx, addArgs...); err != nil {
		return result, fmt.Errorf("%w: stage %v: %w", domain.ErrCommitFailed, paths, err)
	}

	staged, err := p.hasStagedChanges(ctx, paths)
	if err != nil {
		return result, fmt.Errorf("%w: %w", domain.ErrCommitFailed, err)
	}
	if !staged {
		result.NoOp = true
		return result, nil
	}

	if _, err := p.git(ctx, "commit", "-m", message); err != nil {
		return result, fmt.Errorf("%w: %w", domain.ErrCommitFailed, err)
	}

	hash, err := p.git(ctx, "rev-parse", "HEAD")
	if err != nil {
		return result, fmt.Errorf("%w: resolve commit hash: %w", domain.ErrCommitFailed, err)
	}
	result.CommitHash = strings.TrimSpace(hash)

	return result, nil
}

// Push pushes the branch to origin. Transient failures are retried with
// bounded exponential backoff; a diverged remote wraps
// domain.ErrPushRejected and is never force-pushed over.
func (p *Pipeline) Push(ctx context.Context, branch string) error {
	_, err := p.push(ctx, branch)
	return err
}

// CommitAndPush composes Commit and Push for callers without their own
// locking concerns.
func (p *Pipeline) CommitAndPush(ctx context.Context, paths []string, message string) (domain.CommitResult, error) {
	result, err := p.Commit(ctx, paths, message)
	if err != nil || result.NoOp {
		return result, err
	}

	attempts, err := p.push(ctx, result.Branch)
	result.Attempts = attempts
	if err != nil {
		return result, err
	}
	result.Pushed = true
	return result, nil
}

func (p *Pipeline) push(ctx context.Context, branch string) (int, error) {
	delay := p.retryDelay

	var lastErr error
	for attempt := 1; attempt <= MaxPushAttempts; attempt++ {
		_, err := p.git(ctx, "push", "origin", branch)
		if err == nil {
			return attempt, nil
		}

		if isRejected(err) {
			return attempt, fmt.Errorf("%w: remote %s has diverged: %w", domain.ErrPushRejected, branch, err)
		}
		if ctx.Err() != nil {
			return attempt, ctx.Err()
		}

		lastErr = err
		if attempt < MaxPushAttempts {
			logger.Warn("push attempt %d/%d failed, retrying in %s: %v", attempt, MaxPushAttempts, delay, err)
			select {
			case <-ctx.Done():
				return attempt, ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}
	}

	return MaxPushAttempts, fmt.Errorf("push %s failed after %d attempts: %w", branch, MaxPushAttempts, lastErr)
}

// hasStagedChanges reports whether the index differs from HEAD for paths.
func (p *Pipeline) hasStagedChanges(ctx context.Context, paths []string) (bool, error) {
	args := append([]string{"diff", "--cached", "--quiet", "--"}, paths...)
	_, err := p.git(ctx, args...)
	if err == nil {
		return false, nil
	}

	// Exit code 1 means differences exist.
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
		return true, nil
	}
	return false, err
}

func (p *Pipeline) branchExists(ctx context.Context, branch string) (bool, error) {
	_, err := p.git(ctx, "show-ref", "--verify", "--quiet", "refs/heads/"+branch)
	if err == nil {
		return true, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
		return false, nil
	}
	return false, err
}

// git runs a git command in the working tree.
func (p *Pipeline) git(ctx context.Context, args ...string) (string, error) {
	allArgs := append([]string{"-C", p.workTree}, args...)
	return p.executor.ExecuteWithOutput(ctx, "git", allArgs...)
}

// isRejected recognises non-fast-forward push rejections from git's stderr.
func isRejected(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "non-fast-forward") ||
		strings.Contains(msg, "fetch first") ||
		strings.Contains(msg, "[rejected]")
}
