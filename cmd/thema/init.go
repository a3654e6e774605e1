package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Sternrassler/thema-client/internal/config"
	"github.com/spf13/cobra"
)

func newInitCmd(opts *options) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := opts.cfgPath
			if path == "" {
				p, err := config.DefaultPath()
				if err != nil {
					return err
				}
				path = p
			}
			if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
				return err
			}

			_, err := os.Stat(path)
			switch {
			case err == nil && !force:
				fmt.Fprintln(cmd.OutOrStdout(), "exists", path)
				return nil
			case err != nil && !errors.Is(err, os.ErrNotExist):
				return err
			}

			if err := os.WriteFile(path, []byte(config.DefaultContent), 0o600); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "created", path)
			fmt.Fprintln(cmd.OutOrStdout(), "set api.username in", path, "and THEMA_PASSWORD in .env")
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config file")
	return cmd
}
