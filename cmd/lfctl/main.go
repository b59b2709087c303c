package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/dmitrijs2005/lostfound/internal/buildinfo"
	"github.com/dmitrijs2005/lostfound/internal/client/chat"
	"github.com/dmitrijs2005/lostfound/internal/cryptox"
	"github.com/dmitrijs2005/lostfound/internal/server/auth"
	"github.com/dmitrijs2005/lostfound/internal/server/repositories/repomanager"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "lfctl",
	Short:        "Operator tool for the lost&found server",
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Run: func(cmd *cobra.Command, args []string) {
		buildinfo.PrintBuildData(cmd.OutOrStdout())
	},
}

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Print a fresh secrets key (64 hex chars)",
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := cryptox.GenerateKey()
		if err != nil {
			return fmt.Errorf("generating key: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), key)
		return nil
	},
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a webhook bearer token",
	RunE: func(cmd *cobra.Command, args []string) error {
		secret, _ := cmd.Flags().GetString("secret")
		subject, _ := cmd.Flags().GetString("subject")
		ttl, _ := cmd.Flags().GetDuration("ttl")

		if secret == "" {
			secret = os.Getenv("WEBHOOK_SECRET")
		}
		if secret == "" {
			return fmt.Errorf("--secret or WEBHOOK_SECRET is required")
		}

		tok, err := auth.GenerateToken(subject, []byte(secret), ttl)
		if err != nil {
			return fmt.Errorf("signing token: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), tok)
		return nil
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		dsn, _ := cmd.Flags().GetString("dsn")
		if dsn == "" {
			dsn = os.Getenv("DATABASE_DSN")
		}
		if dsn == "" {
			return fmt.Errorf("-d/--dsn or DATABASE_DSN is required")
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
		defer cancel()

		db, err := repomanager.OpenPostgres(ctx, dsn)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := repomanager.NewPostgresRepositoryManager().RunMigrations(ctx, db); err != nil {
			return fmt.Errorf("migrating: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
		return nil
	},
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the bot from the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		server, _ := cmd.Flags().GetString("server")
		token, _ := cmd.Flags().GetString("token")
		user, _ := cmd.Flags().GetString("user")

		if token == "" {
			token = os.Getenv("LFCTL_TOKEN")
		}
		if user == "" {
			user = "cli-" + uuid.New().String()[:8]
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		in, out, restore, err := chat.NewLineReader(os.Stdin, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		defer restore()

		return chat.NewREPL(chat.NewHTTPSender(server, token), user, out).Run(ctx, in)
	},
}

func init() {
	tokenCmd.Flags().String("secret", "", "webhook secret (defaults to $WEBHOOK_SECRET)")
	tokenCmd.Flags().String("subject", "gateway", "token subject")
	tokenCmd.Flags().Duration("ttl", 24*time.Hour, "token lifetime")

	migrateCmd.Flags().StringP("dsn", "d", "", "PostgreSQL DSN (defaults to $DATABASE_DSN)")

	chatCmd.Flags().String("server", "http://localhost:8080", "server base URL")
	chatCmd.Flags().String("token", "", "bearer token (defaults to $LFCTL_TOKEN)")
	chatCmd.Flags().String("user", "", "chat user id (random when empty)")

	rootCmd.AddCommand(versionCmd, keygenCmd, tokenCmd, migrateCmd, chatCmd)
}
