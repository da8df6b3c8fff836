package config

import (
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"
)

// flagKeys maps command line flags to config keys. Flags a command does not define are skipped.
var flagKeys = map[string]string{
	"log-level":     "log_level",
	"language-id":   "language_id",
	"shards":        "shards",
	"concurrency":   "concurrency",
	"log-to-client": "log_to_client",
}

// FromCommand loads the config named by the --config flag of cmd, with any of its flags that were
// set on the command line taking precedence.
func FromCommand(cmd *cobra.Command) (Config, error) {
	file, _ := cmd.Flags().GetString("config")

	v := New(file)

	for name, key := range flagKeys {
		flag := cmd.Flags().Lookup(name)
		if flag == nil || !flag.Changed {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return Config{}, errors.Errorf("binding flag %s: %w", name, err)
		}
	}

	return Load(v)
}
