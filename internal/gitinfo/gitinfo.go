// Package gitinfo renders version files from templates. Template keys
// use the {{GIT_*}} form because TwinCAT sources already give meaning
// to angle brackets and dollar signs.
package gitinfo

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// Empty stands in for every keyword when the repository has no commits,
// so no {{GIT_*}} key ever survives into the output.
const Empty = "[empty]"

// Info holds the resolved value for each template keyword.
type Info struct {
	Hash             string
	HashShort        string
	Date             string
	Tag              string
	Branch           string
	Description      string
	DescriptionDirty string
}

// Keywords maps template keys to their values.
func (i Info) Keywords() map[string]string {
	return map[string]string{
		"GIT_HASH":              i.Hash,
		"GIT_HASH_SHORT":        i.HashShort,
		"GIT_DATE":              i.Date,
		"GIT_TAG":               i.Tag,
		"GIT_BRANCH":            i.Branch,
		"GIT_DESCRIPTION":       i.Description,
		"GIT_DESCRIPTION_DIRTY": i.DescriptionDirty,
	}
}

// Collect opens the repository at start (searching parent directories
// for .git) and gathers the version info. A repository without commits
// yields Empty for every field; a missing repository is an error.
func Collect(start string) (Info, error) {
	repo, err := git.PlainOpenWithOptions(start, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return Info{}, fmt.Errorf("open repository at %s: %w", start, err)
	}

	head, err := repo.Head()
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return Info{
				Hash: Empty, HashShort: Empty, Date: Empty, Tag: Empty,
				Branch: Empty, Description: Empty, DescriptionDirty: Empty,
			}, nil
		}
		return Info{}, err
	}

	commit, err := repo.CommitObject(head.Hash())
	if err != nil {
		return Info{}, err
	}

	info := Info{
		Hash:      head.Hash().String(),
		HashShort: head.Hash().String()[:8],
		Date:      commit.Committer.When.Format("02-01-2006 15:04:05"),
		Branch:    Empty,
	}
	if head.Name().IsBranch() {
		info.Branch = head.Name().Short()
	}

	tags, err := tagTargets(repo)
	if err != nil {
		return Info{}, err
	}
	described := describe(commit, tags)

	info.Tag = described
	if described == "" {
		info.Tag = Empty
		// --always falls back to the abbreviated hash.
		described = head.Hash().String()[:7]
	}
	info.Description = described

	info.DescriptionDirty = described
	if dirty, err := isDirty(repo); err == nil && dirty {
		info.DescriptionDirty += "-dirty"
	}

	return info, nil
}

// Expand replaces every {{GIT_*}} key in template and reports how many
// distinct keywords were found.
func Expand(template []byte, info Info) ([]byte, int) {
	content := string(template)
	used := 0
	for keyword, value := range info.Keywords() {
		replaced := strings.ReplaceAll(content, "{{"+keyword+"}}", value)
		if replaced != content {
			used++
		}
		content = replaced
	}
	return []byte(content), used
}

// OutputPath strips the template's last extension:
// Version.TcGVL.template becomes Version.TcGVL.
func OutputPath(templatePath string) string {
	return strings.TrimSuffix(templatePath, filepath.Ext(templatePath))
}

// Render reads the template byte-exact, expands it against the
// repository at repoPath (the template's directory when empty) and
// returns the output. Templates without a single keyword are an error.
func Render(templatePath, repoPath string) ([]byte, error) {
	template, err := os.ReadFile(templatePath)
	if err != nil {
		return nil, err
	}

	if repoPath == "" {
		repoPath = filepath.Dir(templatePath)
	}
	info, err := Collect(repoPath)
	if err != nil {
		return nil, err
	}

	out, used := Expand(template, info)
	if used == 0 {
		return nil, fmt.Errorf("no keywords found in template %s", templatePath)
	}
	return out, nil
}

// tagTargets maps commit hashes to tag names, resolving annotated tags
// to their target commit. When several tags share a commit the first
// name in sort order wins, keeping output stable.
func tagTargets(repo *git.Repository) (map[plumbing.Hash]string, error) {
	iter, err := repo.Tags()
	if err != nil {
		return nil, err
	}

	type entry struct {
		hash plumbing.Hash
		name string
	}
	var entries []entry
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		target := ref.Hash()
		if tagObj, err := repo.TagObject(ref.Hash()); err == nil {
			target = tagObj.Target
		}
		entries = append(entries, entry{hash: target, name: ref.Name().Short()})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].name < entries[j].name })
	tags := make(map[plumbing.Hash]string, len(entries))
	for _, e := range entries {
		if _, ok := tags[e.hash]; !ok {
			tags[e.hash] = e.name
		}
	}
	return tags, nil
}

// describe walks the history from head looking for the nearest tagged
// commit, mirroring git describe --tags: the bare tag name on an exact
// match, tag-N-g<hash> otherwise, "" when no tag is reachable.
func describe(head *object.Commit, tags map[plumbing.Hash]string) string {
	if len(tags) == 0 {
		return ""
	}

	iter := object.NewCommitPreorderIter(head, nil, nil)
	defer iter.Close()

	depth := 0
	result := ""
	_ = iter.ForEach(func(c *object.Commit) error {
		if tag, ok := tags[c.Hash]; ok {
			if depth == 0 {
				result = tag
			} else {
				result = fmt.Sprintf("%s-%d-g%s", tag, depth, head.Hash.String()[:7])
			}
			return errFound
		}
		depth++
		return nil
	})
	return result
}

var errFound = errors.New("found")

func isDirty(repo *git.Repository) (bool, error) {
	wt, err := repo.Worktree()
	if err != nil {
		return false, err
	}
	status, err := wt.Status()
	if err != nil {
		return false, err
	}
	return !status.IsClean(), nil
}
