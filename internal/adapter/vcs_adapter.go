package adapter

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	m "stapper.dev/pkg/stapper/internal/model"
	"stapper.dev/pkg/stapper/pkg/textdiff"
)

// VCSAdapter is the version-control collaborator a patch session uses to
// snapshot a pristine tree and diff the mutated working copy against it.
type VCSAdapter interface {
	Init(ctx context.Context, dir m.Path) error
	AddAll(ctx context.Context, dir m.Path) error
	Commit(ctx context.Context, dir m.Path, message string) error
	// Diff returns the unified diff of the working tree against the last commit.
	Diff(ctx context.Context, dir m.Path) (string, error)
}

// GitVCSAdapter drives the git binary.
type GitVCSAdapter struct {
	binary  string
	timeout time.Duration
}

// NewGitVCSAdapter constructs a GitVCSAdapter with a 2 minute timeout per command.
func NewGitVCSAdapter(binary string) *GitVCSAdapter {
	if strings.TrimSpace(binary) == "" {
		binary = "git"
	}

	return &GitVCSAdapter{binary: binary, timeout: 2 * time.Minute}
}

// Init creates an empty repository in dir.
func (a *GitVCSAdapter) Init(ctx context.Context, dir m.Path) error {
	_, err := a.run(ctx, dir, "init", "-q")
	return err
}

// AddAll stages every file below dir.
func (a *GitVCSAdapter) AddAll(ctx context.Context, dir m.Path) error {
	_, err := a.run(ctx, dir, "add", "-A")
	return err
}

// Commit records the staged tree.
func (a *GitVCSAdapter) Commit(ctx context.Context, dir m.Path, message string) error {
	_, err := a.run(ctx, dir, "commit", "-q", "--allow-empty", "--no-verify", "-m", message)
	return err
}

// Diff returns `git diff HEAD` for tracked files.
func (a *GitVCSAdapter) Diff(ctx context.Context, dir m.Path) (string, error) {
	return a.run(ctx, dir, "diff", "--no-color", "--no-ext-diff", "HEAD")
}

func (a *GitVCSAdapter) run(ctx context.Context, dir m.Path, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	base := []string{
		"-C", string(dir),
		"-c", "user.name=stapper",
		"-c", "user.email=stapper@localhost",
		"-c", "commit.gpgsign=false",
		"-c", "core.autocrlf=false",
	}

	// #nosec G204 - arguments are built by stapper, not taken from input
	cmd := exec.CommandContext(ctx, a.binary, append(base, args...)...)

	var stdout, stderr bytes.Buffer

	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("git %s: %w: %s", args[0], err, strings.TrimSpace(stderr.String()))
	}

	return stdout.String(), nil
}

// SnapshotVCSAdapter is an in-process VCSAdapter for hosts without git. A
// commit snapshots the file contents below dir in memory, and Diff renders
// git-style unified diffs with go-difflib.
type SnapshotVCSAdapter struct {
	fs SourceFSAdapter

	mu        sync.Mutex
	staged    map[m.Path]map[string][]byte
	baselines map[m.Path]map[string][]byte
}

// NewSnapshotVCSAdapter constructs a SnapshotVCSAdapter reading through fs.
func NewSnapshotVCSAdapter(fs SourceFSAdapter) *SnapshotVCSAdapter {
	return &SnapshotVCSAdapter{
		fs:        fs,
		staged:    make(map[m.Path]map[string][]byte),
		baselines: make(map[m.Path]map[string][]byte),
	}
}

// Init starts tracking dir with an empty baseline.
func (a *SnapshotVCSAdapter) Init(ctx context.Context, dir m.Path) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.staged[dir] = map[string][]byte{}
	a.baselines[dir] = map[string][]byte{}

	return nil
}

// AddAll stages the current content of every file below dir.
func (a *SnapshotVCSAdapter) AddAll(ctx context.Context, dir m.Path) error {
	files, err := a.snapshot(ctx, dir)
	if err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.baselines[dir]; !ok {
		return fmt.Errorf("snapshot: %s is not initialized", dir)
	}

	a.staged[dir] = files

	return nil
}

// Commit promotes the staged snapshot to the baseline.
func (a *SnapshotVCSAdapter) Commit(ctx context.Context, dir m.Path, _ string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	staged, ok := a.staged[dir]
	if !ok {
		return fmt.Errorf("snapshot: %s is not initialized", dir)
	}

	a.baselines[dir] = staged

	return nil
}

// Diff compares the working tree below dir with the baseline.
func (a *SnapshotVCSAdapter) Diff(ctx context.Context, dir m.Path) (string, error) {
	current, err := a.snapshot(ctx, dir)
	if err != nil {
		return "", err
	}

	a.mu.Lock()
	baseline, ok := a.baselines[dir]
	a.mu.Unlock()

	if !ok {
		return "", fmt.Errorf("snapshot: %s is not initialized", dir)
	}

	paths := make([]string, 0, len(current)+len(baseline))
	for path := range baseline {
		paths = append(paths, path)
	}

	for path := range current {
		if _, ok := baseline[path]; !ok {
			paths = append(paths, path)
		}
	}

	sort.Strings(paths)

	var out strings.Builder

	for _, path := range paths {
		section, err := textdiff.GitFile(path, baseline[path], current[path])
		if err != nil {
			return "", fmt.Errorf("snapshot: diff %s: %w", path, err)
		}

		out.WriteString(section)
	}

	return out.String(), nil
}

func (a *SnapshotVCSAdapter) snapshot(ctx context.Context, dir m.Path) (map[string][]byte, error) {
	files := make(map[string][]byte)

	err := a.fs.Walk(dir, true, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if info.IsDir() || !info.Mode().IsRegular() {
			return nil
		}

		rel, err := a.fs.RelPath(dir, m.Path(path))
		if err != nil {
			return err
		}

		content, err := a.fs.ReadFile(m.Path(path))
		if err != nil {
			return err
		}

		if content == nil {
			content = []byte{}
		}

		files[filepath.ToSlash(string(rel))] = content

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", dir, err)
	}

	return files, nil
}
