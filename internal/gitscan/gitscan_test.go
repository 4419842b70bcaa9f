package gitscan

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

func TestHistoryOutsideRepository(t *testing.T) {
	if _, err := History(context.Background(), t.TempDir(), 5); err == nil {
		t.Fatal("expected an error outside a repository")
	}
}

func TestHistoryZeroCommits(t *testing.T) {
	wins, err := History(context.Background(), t.TempDir(), 0)
	if err != nil || wins != nil {
		t.Fatalf("n=0 should be a no-op, got %v / %v", wins, err)
	}
}

func TestMetadataOutsideRepository(t *testing.T) {
	repo, commit, branch := Metadata(t.TempDir())
	if repo != "" || commit != "" || branch != "" {
		t.Fatalf("expected empty metadata, got %q %q %q", repo, commit, branch)
	}
}

func initRepo(t *testing.T) (string, *git.Repository) {
	t.Helper()
	root := t.TempDir()
	repo, err := git.PlainInit(root, false)
	if err != nil {
		t.Fatal(err)
	}
	return root, repo
}

func commitFile(t *testing.T, root string, repo *git.Repository, name, content, msg string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(root, name), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := wt.Add(name); err != nil {
		t.Fatal(err)
	}
	_, err = wt.Commit(msg, &git.CommitOptions{
		Author: &object.Signature{Name: "dev", Email: "dev@localhost", When: time.Now()},
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestHistoryRecoversDeletedContent(t *testing.T) {
	root, repo := initRepo(t)
	commitFile(t, root, repo, "creds.txt", "token=abc123\n", "add creds")
	commitFile(t, root, repo, "creds.txt", "clean now\n", "scrub creds")

	wins, err := History(context.Background(), root, 10)
	if err != nil {
		t.Fatal(err)
	}
	foundOld := false
	for _, w := range wins {
		if string(w.Data) == "token=abc123\n" {
			foundOld = true
			if w.Path == "creds.txt" {
				t.Error("history windows must carry virtual commit-prefixed paths")
			}
		}
	}
	if !foundOld {
		t.Fatal("scrubbed content should still surface from history")
	}
}

func TestHistoryCommitLimit(t *testing.T) {
	root, repo := initRepo(t)
	commitFile(t, root, repo, "a.txt", "first\n", "one")
	commitFile(t, root, repo, "b.txt", "second\n", "two")

	wins, err := History(context.Background(), root, 1)
	if err != nil {
		t.Fatal(err)
	}
	for _, w := range wins {
		if string(w.Data) == "first\n" {
			t.Error("n=1 should only cover the newest commit")
		}
	}
}

func TestMetadataInRepository(t *testing.T) {
	root, repo := initRepo(t)
	commitFile(t, root, repo, "a.txt", "x\n", "init")
	_, commit, branch := Metadata(root)
	if commit == "" {
		t.Error("expected a head commit hash")
	}
	if branch == "" {
		t.Error("expected a branch name")
	}
}
