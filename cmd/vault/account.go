// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vaidya Vault Contributors

package main

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/spf13/cobra"

	"github.com/vaidya/vault/internal/auth"
)

// Default timeout for operator commands.
const defaultOperationTimeout = 30 * time.Second

// withService builds the app, runs fn against it and tears it down.
// Log-notifier messages are written to the command output.
func withService(cmd *cobra.Command, c *cli, fn func(ctx context.Context, a *app) error) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg, c.logOutput(cmd))
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), defaultOperationTimeout)
	defer cancel()

	a, err := newApp(ctx, cfg, c.deps, logger, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer a.Close()

	return fn(ctx, a)
}

func newRegisterCmd(c *cli) *cobra.Command {
	var (
		in   auth.RegisterInput
		role string
	)
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register a pending account and send its confirmation link",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			parsed, err := auth.ParseRole(role)
			if err != nil {
				return err
			}
			in.Role = parsed
			return withService(cmd, c, func(ctx context.Context, a *app) error {
				id, err := a.service.Register(ctx, in)
				if id.Compare(ulid.ULID{}) != 0 {
					cmd.Printf("Account: %s\n", id)
				}
				return err
			})
		},
	}

	f := cmd.Flags()
	f.StringVar(&in.Email, "email", "", "account email")
	f.StringVar(&in.Password, "password", "", "account password")
	f.StringVar(&role, "role", string(auth.RolePatient), "account role (patient or doctor)")
	f.StringVar(&in.Profile.FullName, "full-name", "", "full name")
	f.StringVar(&in.Profile.Phone, "phone", "", "10-digit phone number")
	f.StringVar(&in.Profile.NationalID, "national-id", "", "12-digit national ID")
	f.StringVar(&in.Profile.Gender, "gender", "", "gender")
	f.StringVar(&in.Profile.Address, "address", "", "postal address")
	f.StringVar(&in.Profile.Specialization, "specialization", "", "doctor specialization")
	f.StringVar(&in.Profile.Qualification, "qualification", "", "doctor qualification")
	f.IntVar(&in.Profile.ExperienceYears, "experience-years", 0, "doctor experience in years")
	f.StringVar(&in.Profile.ClinicName, "clinic", "", "doctor clinic name")
	for _, name := range []string{"email", "password", "full-name", "phone", "national-id"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func newConfirmCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "confirm TOKEN",
		Short: "Confirm an account with its mailed token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, c, func(ctx context.Context, a *app) error {
				if err := a.service.ConfirmAccount(ctx, args[0]); err != nil {
					return err
				}
				cmd.Println("Account confirmed")
				return nil
			})
		},
	}
}

func newResendConfirmationCmd(c *cli) *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "resend-confirmation",
		Short: "Send a fresh confirmation link to a pending account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withService(cmd, c, func(ctx context.Context, a *app) error {
				if err := a.service.ResendConfirmation(ctx, email); err != nil {
					return err
				}
				cmd.Println("If the account is pending, a confirmation link was sent")
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newLoginCmd(c *cli) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Verify credentials and print a session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withService(cmd, c, func(ctx context.Context, a *app) error {
				result, err := a.service.Login(ctx, email, password)
				if err != nil {
					return err
				}
				cmd.Printf("Account: %s\n", result.AccountID)
				cmd.Printf("Name: %s\n", result.FullName)
				cmd.Printf("Role: %s\n", result.Role)
				cmd.Printf("Expires: %s\n", result.ExpiresAt.UTC().Format(time.RFC3339))
				cmd.Printf("Token: %s\n", result.Token)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newForgotPasswordCmd(c *cli) *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "forgot-password",
		Short: "Send a password reset link",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withService(cmd, c, func(ctx context.Context, a *app) error {
				if err := a.service.ForgotPassword(ctx, email); err != nil {
					return err
				}
				cmd.Println("If the account exists, a reset link was sent")
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newResetPasswordCmd(c *cli) *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "reset-password TOKEN",
		Short: "Set a new password with a mailed reset token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, c, func(ctx context.Context, a *app) error {
				if err := a.service.ResetPassword(ctx, args[0], password); err != nil {
					return err
				}
				cmd.Println("Password reset")
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&password, "password", "", "new password")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newValidateSessionCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "validate-session TOKEN",
		Short: "Verify a session token and print its claims",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, c, func(_ context.Context, a *app) error {
				claims, err := a.service.ValidateSession(args[0])
				if err != nil {
					return err
				}
				cmd.Printf("Account: %s\n", claims.AccountID)
				cmd.Printf("Role: %s\n", claims.Role)
				cmd.Printf("Expires: %s\n", claims.ExpiresAt.UTC().Format(time.RFC3339))
				return nil
			})
		},
	}
}

func newAccountCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "account EMAIL|ID",
		Short: "Show an account by email or ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, c, func(ctx context.Context, a *app) error {
				var (
					account *auth.Account
					err     error
				)
				if id, parseErr := ulid.ParseStrict(args[0]); parseErr == nil {
					account, err = a.service.Account(ctx, id)
				} else {
					account, err = a.service.AccountByEmail(ctx, args[0])
				}
				if err != nil {
					return err
				}
				cmd.Printf("Account: %s\n", account.ID)
				cmd.Printf("Email: %s\n", account.Email)
				cmd.Printf("Name: %s\n", account.Profile.FullName)
				cmd.Printf("Role: %s\n", account.Role)
				cmd.Printf("State: %s\n", account.State())
				return nil
			})
		},
	}
}

func newAccountsCmd(c *cli) *cobra.Command {
	var role string
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "List accounts in registration order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var filter auth.Role
			if role != "" {
				parsed, err := auth.ParseRole(role)
				if err != nil {
					return err
				}
				filter = parsed
			}
			return withService(cmd, c, func(ctx context.Context, a *app) error {
				accounts, err := a.service.ListAccounts(ctx, filter)
				if err != nil {
					return err
				}
				if len(accounts) == 0 {
					cmd.Println("No accounts")
					return nil
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				_, _ = fmt.Fprintln(w, "ID\tEMAIL\tNAME\tROLE\tSTATE")
				for _, account := range accounts {
					_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
						account.ID, account.Email, account.Profile.FullName, account.Role, account.State())
				}
				return w.Flush()
			})
		},
	}
	cmd.Flags().StringVar(&role, "role", "", "only list accounts with this role (patient or doctor)")
	return cmd
}
