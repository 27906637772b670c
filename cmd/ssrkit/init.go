package main

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ssrkit/ssrkit/internal/config"
	"github.com/ssrkit/ssrkit/internal/errors"
)

func initCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [dir]",
		Short: "Write a default ssrkit.yaml",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			return runInit(dir, force)
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing ssrkit.yaml")
	return cmd
}

func runInit(dir string, force bool) error {
	path := filepath.Join(dir, config.ConfigFileName)
	if config.Exists(dir) && !force {
		return errors.New("E150").
			WithDetail(path + " already exists.").
			WithSuggestion("Pass --force to overwrite it")
	}
	if err := config.New().SaveTo(path); err != nil {
		return err
	}
	success("Wrote %s", path)
	return nil
}
