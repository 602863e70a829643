// Package gitworktree wraps the git worktree subcommands used by the
// pane lifecycle tools. It shells out to git the same way the tmux
// package shells out to tmux; there is no libgit dependency to carry
// for three plumbing calls.
package gitworktree

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// ErrGitNotAvailable is returned when git is not installed.
var ErrGitNotAvailable = errors.New("git is not available in PATH")

// Worktree describes one entry of `git worktree list`.
type Worktree struct {
	Path   string `json:"path"`
	Head   string `json:"head"`
	Branch string `json:"branch,omitempty"`
	Bare   bool   `json:"bare,omitempty"`
}

// List returns the worktrees of the repository at repoPath.
func List(repoPath string) ([]Worktree, error) {
	out, err := run(repoPath, "worktree", "list", "--porcelain")
	if err != nil {
		return nil, err
	}
	return parsePorcelain(out), nil
}

// Add creates a worktree at path. When branch is non-empty a new
// branch of that name is created for it.
func Add(repoPath, path, branch string) error {
	args := []string{"worktree", "add"}
	if branch != "" {
		args = append(args, "-b", branch)
	}
	args = append(args, path)
	_, err := run(repoPath, args...)
	return err
}

// Remove deletes a worktree. force removes it even with a dirty tree.
func Remove(repoPath, path string, force bool) error {
	args := []string{"worktree", "remove"}
	if force {
		args = append(args, "--force")
	}
	args = append(args, path)
	_, err := run(repoPath, args...)
	return err
}

func run(repoPath string, args ...string) (string, error) {
	if _, err := exec.LookPath("git"); err != nil {
		return "", ErrGitNotAvailable
	}
	full := append([]string{"-C", repoPath}, args...)
	cmd := exec.Command("git", full...)
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
			return "", fmt.Errorf("git %s failed: %w (%s)", strings.Join(args, " "), err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", fmt.Errorf("git %s failed: %w", strings.Join(args, " "), err)
	}
	return string(out), nil
}

// parsePorcelain parses `git worktree list --porcelain` output:
// stanzas separated by blank lines, one key-value pair per line.
func parsePorcelain(out string) []Worktree {
	var worktrees []Worktree
	var cur *Worktree
	flush := func() {
		if cur != nil && cur.Path != "" {
			worktrees = append(worktrees, *cur)
		}
		cur = nil
	}
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			flush()
			continue
		}
		if cur == nil {
			cur = &Worktree{}
		}
		switch {
		case strings.HasPrefix(line, "worktree "):
			cur.Path = strings.TrimPrefix(line, "worktree ")
		case strings.HasPrefix(line, "HEAD "):
			cur.Head = strings.TrimPrefix(line, "HEAD ")
		case strings.HasPrefix(line, "branch "):
			cur.Branch = strings.TrimPrefix(strings.TrimPrefix(line, "branch "), "refs/heads/")
		case line == "bare":
			cur.Bare = true
		}
	}
	flush()
	return worktrees
}
