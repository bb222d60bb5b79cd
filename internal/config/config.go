// Package config loads the editor loop's tunables, bound from environment
// variables (prefixed SYNCTEXT_) and CLI flags via viper, the way
// _examples/NethermindEth-juno and _examples/Iron-Ham-claudio wire their
// CLI tools' configuration.
package config

import (
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/abhinavnagar29/synctext/internal/shm"
)

// Config holds the editor loop's tunables. None of these change a spec-level
// constant's default value (spec.md §2, §4.6) — they only make the
// defaults overridable for tests and multi-peer-on-one-host demos.
type Config struct {
	PollInterval time.Duration
	NMerge       int
	NBroadcast   int
	DocDir       string
	ShmDir       string
}

// Default returns the spec's hard-coded defaults.
func Default() Config {
	return Config{
		PollInterval: 2 * time.Second,
		NMerge:       5,
		NBroadcast:   5,
		DocDir:       ".",
		ShmDir:       shm.DefaultDir(),
	}
}

// BindFlags registers the override flags on fs.
func BindFlags(fs *pflag.FlagSet) {
	d := Default()
	fs.Duration("poll-interval", d.PollInterval, "tick interval between polls")
	fs.Int("n-merge", d.NMerge, "local-op threshold that forces a merge")
	fs.Int("n-broadcast", d.NBroadcast, "local-op threshold that triggers a broadcast")
	fs.String("doc-dir", d.DocDir, "directory holding <user_id>_doc.txt")
	fs.String("shm-dir", d.ShmDir, "directory holding the registry and mailbox segments")
}

// Load resolves a Config from fs's bound flags, falling back to
// SYNCTEXT_-prefixed environment variables, then the hard-coded defaults.
func Load(fs *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SYNCTEXT")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(fs); err != nil {
		return Config{}, err
	}

	return Config{
		PollInterval: v.GetDuration("poll-interval"),
		NMerge:       v.GetInt("n-merge"),
		NBroadcast:   v.GetInt("n-broadcast"),
		DocDir:       v.GetString("doc-dir"),
		ShmDir:       v.GetString("shm-dir"),
	}, nil
}
