// Package runner compiles many documents in parallel.
package runner

import "github.com/yaklabco/livetype/pkg/config"

// Options controls a batch compile.
type Options struct {
	// Paths are the user-specified paths (files or directories) to process.
	// If empty, defaults to the current working directory.
	Paths []string

	// WorkingDir is the base directory used to resolve relative Paths.
	// If empty, the current process working directory is used.
	WorkingDir string

	// Extensions is the set of file extensions (lowercase, with leading dot)
	// considered documents. Defaults to DefaultExtensions().
	Extensions []string

	// IncludeGlobs are additional glob patterns to include, relative to WorkingDir.
	IncludeGlobs []string

	// ExcludeGlobs are glob patterns used to skip files or directories.
	ExcludeGlobs []string

	// FollowSymlinks controls whether directory symlinks are traversed.
	FollowSymlinks bool

	// Jobs controls the maximum number of concurrent compiles.
	// 0 or negative means "auto" (runtime.NumCPU()).
	Jobs int

	// ResolveRounds bounds how often a document is compiled again after
	// resources it requested were loaded from disk. 0 disables loading.
	ResolveRounds int

	// Config is the resolved configuration for this run.
	Config *config.Config
}

// DefaultResolveRounds is the number of request rounds the CLI allows.
const DefaultResolveRounds = 4

// DefaultExtensions returns the default set of document extensions.
func DefaultExtensions() []string {
	return []string{".typ"}
}

func (o Options) effectiveExtensions() []string {
	if len(o.Extensions) == 0 {
		return DefaultExtensions()
	}
	return o.Extensions
}

func (o Options) effectivePaths() []string {
	if len(o.Paths) == 0 {
		return []string{"."}
	}
	return o.Paths
}

func (o Options) effectiveConfig() *config.Config {
	if o.Config == nil {
		return config.NewConfig()
	}
	return o.Config
}
