package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	appI18n "github.com/uniquindio/examenes/internal/i18n"
)

func loginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to the backend and store the returned token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := setup(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			password := e.v.GetString("password")
			if password == "" {
				if password, err = readPassword(cmd); err != nil {
					return err
				}
			}

			token, err := e.client.Session().Login(cmd.Context(), e.v.GetInt("id"), password, e.v.GetBool("professor"))
			if err != nil {
				return fmt.Errorf("login: %w", err)
			}
			if err := e.store.SetItem(e.cfg.TokenKey, token); err != nil {
				return fmt.Errorf("store token: %w", err)
			}

			ctx := appI18n.WithLocalizer(cmd.Context(), appI18n.NewLocalizer(e.v.GetString("lang")))
			fmt.Fprintln(cmd.OutOrStdout(), appI18n.Td(ctx, "LoggedIn", map[string]any{"Key": e.cfg.TokenKey}))
			return nil
		},
	}
	f := cmd.Flags()
	f.Int("id", 0, "Student or professor ID")
	f.String("password", "", "Password (prompted when empty)")
	f.Bool("professor", false, "Log in as a professor")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Log out from the backend and remove the stored token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := setup(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			logoutErr := e.client.Session().Logout(cmd.Context())
			if err := e.store.RemoveItem(e.cfg.TokenKey); err != nil {
				return fmt.Errorf("remove token: %w", err)
			}
			if logoutErr != nil {
				return fmt.Errorf("logout: %w", logoutErr)
			}

			ctx := appI18n.WithLocalizer(cmd.Context(), appI18n.NewLocalizer(e.v.GetString("lang")))
			fmt.Fprintln(cmd.OutOrStdout(), appI18n.T(ctx, "LoggedOut"))
			return nil
		},
	}
}

// readPassword prompts without echo on a terminal and reads one line otherwise.
func readPassword(cmd *cobra.Command) (string, error) {
	if in, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(in.Fd())) {
		fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
		b, err := term.ReadPassword(int(in.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(b), nil
	}

	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read password: %w", err)
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return "", errors.New("read password: empty password")
	}
	return password, nil
}
