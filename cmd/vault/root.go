// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vaidya Vault Contributors

package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/vaidya/vault/internal/config"
	"github.com/vaidya/vault/internal/xdg"
)

// cli carries state shared by every subcommand.
type cli struct {
	configFile string
	flags      *pflag.FlagSet
	deps       *Deps
}

// NewRootCmd creates the root command for the vault CLI.
func NewRootCmd() *cobra.Command {
	return newRootCmd(nil)
}

func newRootCmd(deps *Deps) *cobra.Command {
	c := &cli{flags: config.Flags(), deps: deps.withDefaults()}

	cmd := &cobra.Command{
		Use:   "vault",
		Short: "vault - account credentials and token lifecycle",
		Long: `vault manages account registration, email confirmation, login with
signed session tokens, and password reset through single-use tokens.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&c.configFile, "config", "", "config file path (YAML)")
	cmd.PersistentFlags().AddFlagSet(c.flags)

	cmd.AddCommand(newServeCmd(c))
	cmd.AddCommand(newMigrateCmd(c))
	cmd.AddCommand(newRegisterCmd(c))
	cmd.AddCommand(newConfirmCmd(c))
	cmd.AddCommand(newResendConfirmationCmd(c))
	cmd.AddCommand(newLoginCmd(c))
	cmd.AddCommand(newForgotPasswordCmd(c))
	cmd.AddCommand(newResetPasswordCmd(c))
	cmd.AddCommand(newValidateSessionCmd(c))
	cmd.AddCommand(newAccountCmd(c))
	cmd.AddCommand(newAccountsCmd(c))

	return cmd
}

// loadOptions falls back to $XDG_CONFIG_HOME/vault/config.yaml when
// --config is not given.
func (c *cli) loadOptions() (config.LoadOptions, error) {
	file := c.configFile
	if file == "" {
		getenv := os.Getenv
		if c.deps.Environ != nil {
			getenv = func(key string) string { return c.deps.Environ[key] }
		}
		var err error
		if file, err = xdg.DefaultConfigFile(getenv); err != nil {
			return config.LoadOptions{}, err
		}
	}
	return config.LoadOptions{File: file, Flags: c.flags, Environ: c.deps.Environ}, nil
}

func (c *cli) loadConfig() (config.Config, error) {
	opts, err := c.loadOptions()
	if err != nil {
		return config.Config{}, err
	}
	return config.Load(opts)
}
