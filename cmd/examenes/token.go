package main

import (
	"fmt"
	"log/slog"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/uniquindio/examenes/internal/auth"
	"github.com/uniquindio/examenes/internal/display"
	appI18n "github.com/uniquindio/examenes/internal/i18n"
)

func tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage the stored bearer token",
	}
	cmd.AddCommand(tokenSetCmd(), tokenShowCmd(), tokenClearCmd(), tokenListCmd())
	return cmd
}

func tokenSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <token>",
		Short: "Store the bearer token sent with every request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			if err := e.store.SetItem(e.cfg.TokenKey, args[0]); err != nil {
				return fmt.Errorf("store token: %w", err)
			}
			slog.Info("stored token", "key", e.cfg.TokenKey)
			return nil
		},
	}
}

func tokenShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the stored bearer token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := setup(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			token, ok, err := e.store.GetItem(e.cfg.TokenKey)
			if err != nil {
				return fmt.Errorf("read token: %w", err)
			}
			if !ok {
				ctx := appI18n.WithLocalizer(cmd.Context(), appI18n.NewLocalizer(e.v.GetString("lang")))
				return fmt.Errorf("%s", appI18n.T(ctx, "TokenMissing"))
			}
			if !e.v.GetBool("claims") {
				fmt.Fprintln(cmd.OutOrStdout(), token)
				return nil
			}
			info, err := auth.Inspect(token)
			if err != nil {
				return err
			}
			if err := writeJSON(cmd.OutOrStdout(), info.Claims); err != nil {
				return err
			}
			ctx := appI18n.WithLocalizer(cmd.Context(), appI18n.NewLocalizer(e.v.GetString("lang")))
			updated, err := e.store.UpdatedAt(e.cfg.TokenKey)
			if err != nil {
				return fmt.Errorf("read token age: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), appI18n.Td(ctx, "TokenStored", map[string]any{
				"When": display.TimeAgo(updated),
			}))
			if !info.ExpiresAt.IsZero() {
				fmt.Fprintln(cmd.OutOrStdout(), appI18n.Td(ctx, "TokenExpires", map[string]any{
					"When": display.TimeAgo(info.ExpiresAt),
				}))
			}
			return nil
		},
	}
	cmd.Flags().Bool("claims", false, "Decode the token and print its claims (signature is not verified)")
	return cmd
}

func tokenClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove the stored bearer token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := setup(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			if err := e.store.RemoveItem(e.cfg.TokenKey); err != nil {
				return fmt.Errorf("remove token: %w", err)
			}
			ctx := appI18n.WithLocalizer(cmd.Context(), appI18n.NewLocalizer(e.v.GetString("lang")))
			fmt.Fprintln(cmd.OutOrStdout(), appI18n.T(ctx, "TokenCleared"))
			return nil
		},
	}
}

func tokenListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every key in the local store and when it was written",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := setup(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			ctx := appI18n.WithLocalizer(cmd.Context(), appI18n.NewLocalizer(e.v.GetString("lang")))
			keys, err := e.store.Keys()
			if err != nil {
				return fmt.Errorf("list keys: %w", err)
			}
			if len(keys) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), appI18n.T(ctx, "StoreEmpty"))
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(tw, "%s\t%s\n", appI18n.T(ctx, "ColKey"), appI18n.T(ctx, "ColStored"))
			for _, k := range keys {
				updated, err := e.store.UpdatedAt(k)
				if err != nil {
					return fmt.Errorf("read %s: %w", k, err)
				}
				fmt.Fprintf(tw, "%s\t%s\n", k, display.TimeAgo(updated))
			}
			return tw.Flush()
		},
	}
}
