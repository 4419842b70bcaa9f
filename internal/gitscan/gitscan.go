// Package gitscan recovers file content from committed history so secrets
// scrubbed from the working tree but still reachable in git are found.
package gitscan

import (
	"context"
	"fmt"
	"strings"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/phiguard/phiguard/internal/extract"
)

// History returns content windows for files touched by the last n commits
// of the repository at root. Window paths are virtual:
// "<short-hash>:<path>". A root that is not a git repository is an error
// the caller downgrades to a warning.
func History(ctx context.Context, root string, n int) ([]extract.ContentWindow, error) {
	if n <= 0 {
		return nil, nil
	}
	repo, err := git.PlainOpen(root)
	if err != nil {
		return nil, fmt.Errorf("open repository: %w", err)
	}
	head, err := repo.Head()
	if err != nil {
		return nil, fmt.Errorf("resolve HEAD: %w", err)
	}
	iter, err := repo.Log(&git.LogOptions{From: head.Hash()})
	if err != nil {
		return nil, fmt.Errorf("walk log: %w", err)
	}
	defer iter.Close()

	var out []extract.ContentWindow
	seen := map[string]bool{} // blob hash + path, so unchanged blobs scan once
	count := 0
	err = iter.ForEach(func(c *object.Commit) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if count >= n {
			return errStop
		}
		count++
		files, ferr := changedFiles(c)
		if ferr != nil {
			return nil // skip unreadable commits
		}
		short := c.Hash.String()[:8]
		for _, f := range files {
			key := f.Hash.String() + "|" + f.Name
			if seen[key] {
				continue
			}
			seen[key] = true
			if isBinaryName(f.Name) {
				continue
			}
			content, cerr := f.Contents()
			if cerr != nil {
				continue
			}
			out = append(out, extract.ContentWindow{
				Path: short + ":" + f.Name,
				Data: []byte(content),
			})
		}
		return nil
	})
	if err != nil && err != errStop {
		return out, err
	}
	return out, nil
}

var errStop = fmt.Errorf("stop iteration")

// changedFiles lists the files a commit touched relative to its first
// parent; a root commit contributes its whole tree.
func changedFiles(c *object.Commit) ([]*object.File, error) {
	tree, err := c.Tree()
	if err != nil {
		return nil, err
	}
	if c.NumParents() == 0 {
		var files []*object.File
		err := tree.Files().ForEach(func(f *object.File) error {
			files = append(files, f)
			return nil
		})
		return files, err
	}
	parent, err := c.Parent(0)
	if err != nil {
		return nil, err
	}
	ptree, err := parent.Tree()
	if err != nil {
		return nil, err
	}
	changes, err := ptree.Diff(tree)
	if err != nil {
		return nil, err
	}
	var files []*object.File
	for _, ch := range changes {
		if ch.To.Name == "" {
			continue // deletion
		}
		f, err := tree.File(ch.To.Name)
		if err != nil {
			continue
		}
		files = append(files, f)
	}
	return files, nil
}

func isBinaryName(name string) bool {
	for _, suf := range []string{".png", ".jpg", ".jpeg", ".gif", ".pdf", ".zip", ".gz", ".tar", ".jar", ".exe", ".so", ".wasm"} {
		if strings.HasSuffix(strings.ToLower(name), suf) {
			return true
		}
	}
	return false
}

// Metadata returns (repo, commit, branch) best-effort for the given root.
// Empty strings are returned on failure.
func Metadata(root string) (repoName, commit, branch string) {
	repo, err := git.PlainOpen(root)
	if err != nil {
		return "", "", ""
	}
	if remote, err := repo.Remote("origin"); err == nil && len(remote.Config().URLs) > 0 {
		s := strings.TrimSuffix(remote.Config().URLs[0], ".git")
		if i := strings.LastIndex(s, ":"); i >= 0 {
			s = s[i+1:]
		}
		if i := strings.Index(s, "github.com/"); i >= 0 {
			s = s[i+len("github.com/"):]
		}
		repoName = strings.TrimPrefix(s, "//")
	}
	if head, err := repo.Head(); err == nil {
		commit = head.Hash().String()
		branch = head.Name().Short()
	}
	return repoName, commit, branch
}
