// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 STK Addons Contributors

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/stkaddons/stkaddons/internal/account"
)

// NewAccountCmd creates the account command group.
func NewAccountCmd(deps *Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Register accounts and manage sessions",
	}
	cmd.AddCommand(
		newRegisterCmd(deps),
		newLoginCmd(deps),
		newSessionCheckCmd(deps, "validate", "Check a user id and session token pair", false),
		newResolveCmd(deps),
		newSessionCheckCmd(deps, "poll", "Check a session and record activity on it", true),
		newActivateCmd(deps),
		newResendCmd(deps),
		newShowCmd(deps),
	)
	return cmd
}

type registerOptions struct {
	username        string
	password        string
	passwordConfirm string
	email           string
	realName        string
	acceptTerms     bool
}

func newRegisterCmd(deps *Deps) *cobra.Command {
	opts := &registerOptions{}
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and send the verification email",
		Long: `Create an account and send the verification email.

Without --password-confirm the confirmation and terms checks are skipped,
as is appropriate for operator tooling. The password is read from stdin
when --password is not given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			password, err := passwordFrom(cmd, opts.password)
			if err != nil {
				return err
			}
			req := account.RegisterRequest{
				Username:        opts.username,
				Password:        password,
				PasswordConfirm: opts.passwordConfirm,
				Email:           opts.email,
				RealName:        opts.realName,
				AcceptedTerms:   opts.acceptTerms,
				SkipConfirm:     !cmd.Flags().Changed("password-confirm"),
			}
			return runWithService(cmd, deps, func(ctx context.Context, s *session) error {
				user, err := s.service.Register(ctx, req)
				if err != nil {
					return err
				}
				printUser(cmd.OutOrStdout(), user)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&opts.username, "username", "", "account name")
	cmd.Flags().StringVar(&opts.password, "password", "", "password (read from stdin when empty)")
	cmd.Flags().StringVar(&opts.passwordConfirm, "password-confirm", "", "password confirmation")
	cmd.Flags().StringVar(&opts.email, "email", "", "email address")
	cmd.Flags().StringVar(&opts.realName, "realname", "", "display name")
	cmd.Flags().BoolVar(&opts.acceptTerms, "accept-terms", false, "accept the terms of service")
	return cmd
}

func newLoginCmd(deps *Deps) *cobra.Command {
	var username, password, userAgent string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and print the new session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			password, err := passwordFrom(cmd, password)
			if err != nil {
				return err
			}
			return runWithService(cmd, deps, func(ctx context.Context, s *session) error {
				sess, err := s.service.Login(ctx, username, password, userAgent)
				if err != nil {
					return err
				}
				printSession(cmd.OutOrStdout(), sess)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "account name")
	cmd.Flags().StringVar(&password, "password", "", "password (read from stdin when empty)")
	cmd.Flags().StringVar(&userAgent, "user-agent", "stkaddons-cli/"+version, "client user agent recorded on the session")
	return cmd
}

// newSessionCheckCmd builds validate and poll, which share flags and output.
func newSessionCheckCmd(deps *Deps, use, short string, touch bool) *cobra.Command {
	var userID int64
	var token string
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWithService(cmd, deps, func(ctx context.Context, s *session) error {
				check := s.service.ValidateSession
				if touch {
					check = s.service.Poll
				}
				sess, err := check(ctx, userID, token)
				if err != nil {
					return err
				}
				printSession(cmd.OutOrStdout(), sess)
				return nil
			})
		},
	}
	cmd.Flags().Int64Var(&userID, "user-id", 0, "user id")
	cmd.Flags().StringVar(&token, "token", "", "session token")
	return cmd
}

func newResolveCmd(deps *Deps) *cobra.Command {
	var token string
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Find the session for a token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWithService(cmd, deps, func(ctx context.Context, s *session) error {
				sess, err := s.service.ResolveSession(ctx, token)
				if err != nil {
					return err
				}
				printSession(cmd.OutOrStdout(), sess)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "session token")
	return cmd
}

func newActivateCmd(deps *Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "activate CODE",
		Short: "Activate an account with its verification code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithService(cmd, deps, func(ctx context.Context, s *session) error {
				user, err := s.service.Activate(ctx, args[0])
				if err != nil {
					return err
				}
				printUser(cmd.OutOrStdout(), user)
				return nil
			})
		},
	}
}

func newResendCmd(deps *Deps) *cobra.Command {
	lookup := &lookupFlags{}
	cmd := &cobra.Command{
		Use:   "resend",
		Short: "Issue a new verification code and email it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWithService(cmd, deps, func(ctx context.Context, s *session) error {
				if err := s.service.ResendVerification(ctx, lookup.lookup()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Verification email sent")
				return nil
			})
		},
	}
	lookup.register(cmd)
	return cmd
}

func newShowCmd(deps *Deps) *cobra.Command {
	lookup := &lookupFlags{}
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show an account with its role, achievements and sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWithService(cmd, deps, func(ctx context.Context, s *session) error {
				profile, err := s.service.Profile(ctx, lookup.lookup())
				if err != nil {
					return err
				}
				printProfile(cmd.OutOrStdout(), profile)
				return nil
			})
		},
	}
	lookup.register(cmd)
	return cmd
}

type lookupFlags struct {
	id       int64
	username string
}

func (l *lookupFlags) register(cmd *cobra.Command) {
	cmd.Flags().Int64Var(&l.id, "user-id", 0, "user id")
	cmd.Flags().StringVar(&l.username, "username", "", "account name")
	cmd.MarkFlagsMutuallyExclusive("user-id", "username")
}

func (l *lookupFlags) lookup() account.Lookup {
	return account.Lookup{ID: l.id, Username: l.username}
}

// passwordFrom returns flagValue, or the first line of stdin when it is
// empty.
func passwordFrom(cmd *cobra.Command, flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", oops.Code("CLI_READ_PASSWORD").Wrap(err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func printUser(w io.Writer, u *account.User) {
	fmt.Fprintf(w, "user_id:    %d\n", u.ID)
	fmt.Fprintf(w, "username:   %s\n", u.Username)
	fmt.Fprintf(w, "realname:   %s\n", u.DisplayName())
	fmt.Fprintf(w, "email:      %s\n", u.Email)
	fmt.Fprintf(w, "activated:  %t\n", u.Activated)
	fmt.Fprintf(w, "registered: %s\n", u.DateRegister.UTC().Format(time.RFC3339))
	if u.DateLogin != nil {
		fmt.Fprintf(w, "last_login: %s\n", u.DateLogin.UTC().Format(time.RFC3339))
	}
}

func printSession(w io.Writer, s *account.Session) {
	fmt.Fprintf(w, "user_id:       %d\n", s.UserID)
	if s.Token != "" {
		fmt.Fprintf(w, "token:         %s\n", s.Token)
	}
	if s.User != nil {
		fmt.Fprintf(w, "username:      %s\n", s.User.Username)
		fmt.Fprintf(w, "realname:      %s\n", s.User.DisplayName())
		fmt.Fprintf(w, "activated:     %t\n", s.User.Activated)
	}
	fmt.Fprintf(w, "session_id:    %s\n", s.ID)
	fmt.Fprintf(w, "client:        %s\n", account.ClientVersionLabel(s.UserAgent))
	fmt.Fprintf(w, "last_activity: %s\n", s.LastActivity.UTC().Format(time.RFC3339))
}

func printProfile(w io.Writer, p *account.Profile) {
	printUser(w, p.User)
	if p.Role != nil {
		fmt.Fprintf(w, "role:       %s\n", p.Role.Label())
	}
	ids := make([]string, 0, len(p.Achievements))
	for _, a := range p.Achievements {
		ids = append(ids, fmt.Sprint(int64(a)))
	}
	fmt.Fprintf(w, "achieved:   %s\n", strings.Join(ids, ","))
	fmt.Fprintf(w, "sessions:   %d\n", len(p.Sessions))
	for _, s := range p.Sessions {
		fmt.Fprintf(w, "  %s  %s  last active %s\n",
			s.ID, account.ClientVersionLabel(s.UserAgent), s.LastActivity.UTC().Format(time.RFC3339))
	}
}
