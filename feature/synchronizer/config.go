package synchronizer

import (
	"strings"

	"docsync/core/reconcile"
)

// Config holds configuration for a sync relationship.
type Config struct {
	// Mode is the sync policy (update, mirror).
	Mode string `mapstructure:"mode" default:"update"`
	// SourceRoot locates the source folder, by id or search expression.
	SourceRoot string `mapstructure:"source_root" default:""`
	// RemoteRoot locates the remote collection, by UUID or display name.
	RemoteRoot string `mapstructure:"remote_root" default:""`
	// SkipFolders is a comma separated list of source folder names to skip.
	SkipFolders string `mapstructure:"skip_folders" default:""`
	// ForceIDs is a comma separated list of remote ids to push unconditionally.
	ForceIDs string `mapstructure:"force_ids" default:""`
	// Relationship scopes the persisted properties of this sync.
	Relationship string `mapstructure:"relationship" default:"default"`
	// BatchSize is the number of items per upload batch.
	BatchSize int `mapstructure:"batch_size" default:"5"`
	// DryRun plans without mutating the remote.
	DryRun bool `mapstructure:"dry_run" default:"false"`
}

// Options converts the configuration into run options.
func (c Config) Options() Options {
	opts := Options{
		Mode:       reconcile.Mode(c.Mode),
		SourceRoot: c.SourceRoot,
		RemoteRoot: c.RemoteRoot,
		Skip:       SplitList(c.SkipFolders),
		BatchSize:  c.BatchSize,
		DryRun:     c.DryRun,
	}
	if ids := SplitList(c.ForceIDs); len(ids) > 0 {
		opts.Force = reconcile.ForceIDs(ids...)
	}
	return opts
}

// SplitList splits a comma separated list, dropping blanks.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
