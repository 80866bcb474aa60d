// Package provenance records which revision of the project produced a run.
package provenance

import (
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/flarebyte/nbrun/internal/errors"
)

// Info describes the git state of the project root.
type Info struct {
	Commit string
	Branch string
	Dirty  bool
}

// Short returns the abbreviated commit hash.
func (i Info) Short() string {
	if len(i.Commit) > 12 {
		return i.Commit[:12]
	}
	return i.Commit
}

// Detect reads HEAD of the repository containing root. A directory outside
// any repository, or a repository without commits, yields an empty Info.
func Detect(root string) (Info, error) {
	repo, err := git.PlainOpenWithOptions(root, &git.PlainOpenOptions{DetectDotGit: true})
	if errors.Is(err, git.ErrRepositoryNotExists) {
		return Info{}, nil
	}
	if err != nil {
		return Info{}, errors.Wrapf(err, "open repository at %s", root)
	}
	head, err := repo.Head()
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return Info{}, nil
	}
	if err != nil {
		return Info{}, errors.Wrap(err, "resolve HEAD")
	}
	info := Info{Commit: head.Hash().String()}
	if head.Name().IsBranch() {
		info.Branch = head.Name().Short()
	}
	wt, err := repo.Worktree()
	if err != nil {
		// bare repository
		return info, nil
	}
	st, err := wt.Status()
	if err != nil {
		return info, errors.Wrap(err, "worktree status")
	}
	info.Dirty = !st.IsClean()
	return info, nil
}
