// Package githubauth resolves GitHub API tokens from declarative token
// sources: env:NAME, file:/path, or gh:[hostname] for the GitHub CLI.
package githubauth
