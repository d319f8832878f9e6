package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/espfs/webnav/internal/config"
)

// loadConfig loads the --config file, or the working directory's, then
// applies environment overrides. Flags are applied by the caller.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")

	var (
		cfg *config.Config
		err error
	)
	if path != "" {
		cfg, err = config.LoadFile(path)
	} else {
		cfg, err = config.LoadFromWorkingDir()
	}
	if err != nil {
		return nil, err
	}

	cfg.ApplyEnv(os.Getenv)
	return cfg, nil
}
