package report

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-git/go-billy/v6/memfs"
	"github.com/go-git/go-billy/v6/osfs"
	"github.com/go-git/go-billy/v6/util"
	"github.com/go-git/go-git/v6"
	"github.com/go-git/go-git/v6/plumbing/cache"
	"github.com/go-git/go-git/v6/plumbing/object"
	"github.com/go-git/go-git/v6/storage/filesystem"
	"github.com/go-git/go-git/v6/storage/memory"

	"github.com/nickyhof/CatalogRunner/core"
)

var ErrNotInitialized = errors.New("archive not initialized")

// Archive keeps rendered reports in a git repository so every run is a commit
type Archive struct {
	repo *git.Repository
}

// Entry is one archived report
type Entry struct {
	Hash    string
	Message string
	Author  core.Identity
	When    time.Time
}

// NewMemoryArchive creates an archive that lives only in memory
func NewMemoryArchive() (*Archive, error) {
	wt := memfs.New()
	storer := memory.NewStorage()

	repo, err := git.Init(storer, git.WithWorkTree(wt))
	if err != nil {
		return nil, err
	}

	return &Archive{repo: repo}, nil
}

// OpenArchive opens the repository in baseDir, initializing it on first use
func OpenArchive(baseDir string) (*Archive, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, err
	}

	wt := osfs.New(baseDir)
	fs, err := wt.Chroot(".git")
	if err != nil {
		return nil, err
	}

	storer := filesystem.NewStorageWithOptions(
		fs,
		cache.NewObjectLRUDefault(),
		filesystem.Options{ExclusiveAccess: true})

	var repo *git.Repository
	if _, statErr := os.Stat(fs.Root()); statErr != nil {
		repo, err = git.Init(storer, git.WithWorkTree(wt))
	} else {
		repo, err = git.Open(storer, wt)
	}
	if err != nil {
		return nil, err
	}

	return &Archive{repo: repo}, nil
}

func (a *Archive) ensureInitialized() error {
	if a == nil || a.repo == nil {
		return ErrNotInitialized
	}
	return nil
}

// Commit stores doc under name and commits it. It returns the commit hash.
func (a *Archive) Commit(name string, doc []byte, message string, author core.Identity) (string, error) {
	if err := a.ensureInitialized(); err != nil {
		return "", err
	}

	wt, err := a.repo.Worktree()
	if err != nil {
		return "", err
	}

	if err := util.WriteFile(wt.Filesystem, name, doc, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", name, err)
	}
	if _, err := wt.Add(name); err != nil {
		return "", fmt.Errorf("failed to stage %s: %w", name, err)
	}

	hash, err := wt.Commit(message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  author.Name,
			Email: author.Email,
			When:  time.Now(),
		},
		AllowEmptyCommits: true,
	})
	if err != nil {
		return "", fmt.Errorf("failed to commit %s: %w", name, err)
	}

	return hash.String(), nil
}

// Read returns the archived document at HEAD
func (a *Archive) Read(name string) ([]byte, error) {
	if err := a.ensureInitialized(); err != nil {
		return nil, err
	}

	head, err := a.repo.Head()
	if err != nil {
		return nil, err
	}
	commit, err := a.repo.CommitObject(head.Hash())
	if err != nil {
		return nil, err
	}
	file, err := commit.File(name)
	if err != nil {
		return nil, fmt.Errorf("%s not archived: %w", name, err)
	}
	contents, err := file.Contents()
	if err != nil {
		return nil, err
	}
	return []byte(contents), nil
}

// History lists archive commits, newest first
func (a *Archive) History() ([]Entry, error) {
	if err := a.ensureInitialized(); err != nil {
		return nil, err
	}

	iter, err := a.repo.Log(&git.LogOptions{})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var entries []Entry
	err = iter.ForEach(func(c *object.Commit) error {
		entries = append(entries, Entry{
			Hash:    c.Hash.String(),
			Message: c.Message,
			Author:  core.Identity{Name: c.Author.Name, Email: c.Author.Email},
			When:    c.Author.When,
		})
		return nil
	})
	return entries, err
}
