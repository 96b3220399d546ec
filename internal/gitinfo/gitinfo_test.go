package gitinfo

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

func initRepo(t *testing.T) (string, *git.Repository) {
	t.Helper()
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("PlainInit: %v", err)
	}
	return dir, repo
}

func commitFile(t *testing.T, dir string, repo *git.Repository, name, content string) plumbing.Hash {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := wt.Add(name); err != nil {
		t.Fatal(err)
	}
	hash, err := wt.Commit("add "+name, &git.CommitOptions{
		Author: &object.Signature{
			Name:  "tester",
			Email: "tester@example.com",
			When:  time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		},
	})
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	return hash
}

func TestCollectNoRepository(t *testing.T) {
	if _, err := Collect(t.TempDir()); err == nil {
		t.Error("expected an error outside a repository")
	}
}

func TestCollectEmptyRepository(t *testing.T) {
	dir, _ := initRepo(t)
	info, err := Collect(dir)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	for key, value := range info.Keywords() {
		if value != Empty {
			t.Errorf("%s = %q, want %q", key, value, Empty)
		}
	}
}

func TestCollectCommit(t *testing.T) {
	dir, repo := initRepo(t)
	hash := commitFile(t, dir, repo, "a.txt", "a")

	info, err := Collect(dir)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if info.Hash != hash.String() {
		t.Errorf("Hash = %q, want %q", info.Hash, hash.String())
	}
	if info.HashShort != hash.String()[:8] {
		t.Errorf("HashShort = %q", info.HashShort)
	}
	if info.Branch != "master" {
		t.Errorf("Branch = %q, want master", info.Branch)
	}
	if info.Date != "01-05-2024 12:00:00" {
		t.Errorf("Date = %q", info.Date)
	}
	if info.Tag != Empty {
		t.Errorf("Tag = %q, want %q", info.Tag, Empty)
	}
	// No tags: description falls back to the abbreviated hash.
	if info.Description != hash.String()[:7] {
		t.Errorf("Description = %q", info.Description)
	}
}

func TestCollectTagged(t *testing.T) {
	dir, repo := initRepo(t)
	hash := commitFile(t, dir, repo, "a.txt", "a")
	if _, err := repo.CreateTag("v1.0.0", hash, nil); err != nil {
		t.Fatalf("CreateTag: %v", err)
	}

	info, err := Collect(dir)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if info.Tag != "v1.0.0" {
		t.Errorf("Tag = %q, want v1.0.0", info.Tag)
	}
	if info.Description != "v1.0.0" {
		t.Errorf("Description = %q, want v1.0.0", info.Description)
	}

	second := commitFile(t, dir, repo, "b.txt", "b")
	info, err = Collect(dir)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	want := "v1.0.0-1-g" + second.String()[:7]
	if info.Description != want {
		t.Errorf("Description = %q, want %q", info.Description, want)
	}
}

func TestCollectDirty(t *testing.T) {
	dir, repo := initRepo(t)
	commitFile(t, dir, repo, "a.txt", "a")

	if err := os.WriteFile(filepath.Join(dir, "untracked.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	info, err := Collect(dir)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if !strings.HasSuffix(info.DescriptionDirty, "-dirty") {
		t.Errorf("DescriptionDirty = %q, want -dirty suffix", info.DescriptionDirty)
	}
	if strings.HasSuffix(info.Description, "-dirty") {
		t.Errorf("Description = %q, must not carry -dirty", info.Description)
	}
}

func TestExpand(t *testing.T) {
	info := Info{Hash: "abc", HashShort: "ab", Branch: "main"}
	template := []byte("hash={{GIT_HASH}} twice={{GIT_HASH}} branch={{GIT_BRANCH}} none={{OTHER}}")

	out, used := Expand(template, info)
	if used != 2 {
		t.Errorf("used = %d, want 2", used)
	}
	if got := string(out); got != "hash=abc twice=abc branch=main none={{OTHER}}" {
		t.Errorf("out = %q", got)
	}
}

func TestOutputPath(t *testing.T) {
	if got := OutputPath("GVL_Version.TcGVL.template"); got != "GVL_Version.TcGVL" {
		t.Errorf("got %q", got)
	}
}

func TestRender(t *testing.T) {
	dir, repo := initRepo(t)
	commitFile(t, dir, repo, "a.txt", "a")

	template := filepath.Join(dir, "Version.TcGVL.template")
	if err := os.WriteFile(template, []byte("sVersion := '{{GIT_DESCRIPTION}}';\r\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := Render(template, "")
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if strings.Contains(string(out), "{{GIT_") {
		t.Errorf("keywords left in output: %q", out)
	}
	if !strings.HasSuffix(string(out), "';\r\n") {
		t.Errorf("line endings not preserved: %q", out)
	}
}

func TestRenderNoKeywords(t *testing.T) {
	dir, repo := initRepo(t)
	commitFile(t, dir, repo, "a.txt", "a")

	template := filepath.Join(dir, "plain.template")
	if err := os.WriteFile(template, []byte("nothing here"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Render(template, ""); err == nil {
		t.Error("expected an error for a template without keywords")
	}
}
