package build

import (
	"log/slog"

	"github.com/go-git/go-git/v5"
)

// sourceCommit returns the HEAD commit of the repository containing the docs
// tree, or "" when the tree is not inside a git work tree. The commit is
// informational (stamped into generated frontmatter and the manifest), so any
// failure here downgrades to a debug log instead of affecting the build.
func sourceCommit(sourceDir string) string {
	repo, err := git.PlainOpenWithOptions(sourceDir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		slog.Debug("docs tree is not inside a git repository", slog.String("source", sourceDir))
		return ""
	}
	head, err := repo.Head()
	if err != nil {
		slog.Debug("could not resolve git HEAD", slog.String("source", sourceDir), slog.String("error", err.Error()))
		return ""
	}
	return head.Hash().String()
}
