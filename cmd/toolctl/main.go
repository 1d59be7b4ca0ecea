// Command toolctl performs maintenance tasks against the configured
// database: importing tools from JSON and managing admin accounts.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/choosemyai/backend/internal/auth"
	"github.com/choosemyai/backend/internal/config"
	"github.com/choosemyai/backend/internal/database"
	"github.com/choosemyai/backend/internal/directory"
	"github.com/choosemyai/backend/internal/importer"
	"github.com/choosemyai/backend/internal/logger"
	"github.com/choosemyai/backend/internal/store"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type app struct {
	configPath string
	timeout    time.Duration

	conf *config.Config
	log  *logrus.Logger
	db   database.Service
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:          "toolctl",
		Short:        "Maintenance commands for the ChooseMyAI directory",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "config.yaml", "path to the YAML config file")
	root.PersistentFlags().DurationVar(&a.timeout, "timeout", 5*time.Minute, "give up after this long")

	root.AddCommand(
		a.importCmd(),
		a.sampleCmd(),
		a.resetPasswordCmd(),
		a.createAdminCmd(),
	)
	return root
}

// open connects to the configured database. The in-memory store is refused
// because nothing written to it would survive the command.
func (a *app) open() error {
	conf, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	a.conf = conf
	a.log = logger.New(conf.Log)

	if conf.Database.ResolvedDriver() == config.DriverMemory {
		return fmt.Errorf("no database configured: set DB_HOST, DATABASE_DRIVER=sqlite or database.dsn")
	}

	a.db, err = database.New(conf.Database, a.log)
	return err
}

func (a *app) close() {
	if a.db != nil {
		_ = a.db.Close()
	}
}

func (a *app) context() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), a.timeout)
}

func (a *app) importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.json>",
		Short: "Import tools from a JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("file %s not found: %w", args[0], err)
			}
			defer f.Close()

			if err := a.open(); err != nil {
				return err
			}
			defer a.close()

			owner := store.SeedAdmin{
				Username: a.conf.Seed.AdminUsername,
				Email:    a.conf.Seed.AdminEmail,
			}
			if a.conf.Seed.AdminPassword != "" {
				if owner.PasswordHash, err = auth.HashPassword(a.conf.Seed.AdminPassword); err != nil {
					return err
				}
			}

			ctx, cancel := a.context()
			defer cancel()

			result, err := importer.New(a.db.Store(), owner, a.log).Import(ctx, f)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Import completed:")
			fmt.Fprintf(cmd.OutOrStdout(), "  ✅ Imported: %d\n", result.Imported)
			fmt.Fprintf(cmd.OutOrStdout(), "  ⏭️  Skipped:  %d\n", result.Skipped)
			fmt.Fprintf(cmd.OutOrStdout(), "  ❌ Failed:   %d\n", result.Failed)
			return nil
		},
	}
}

func (a *app) sampleCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Write an example import file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if output == "" || output == "-" {
				_, err := cmd.OutOrStdout().Write(append(importer.Sample(), '\n'))
				return err
			}
			if err := os.WriteFile(output, importer.Sample(), 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Sample JSON file created: %s\n", output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "sample_tools.json", "file to write, - for stdout")
	return cmd
}

func (a *app) resetPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset-password <username> <password>",
		Short: "Set a user's password",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(); err != nil {
				return err
			}
			defer a.close()

			ctx, cancel := a.context()
			defer cancel()

			if err := directory.New(a.db.Store(), a.log).SetPassword(ctx, args[0], args[1]); err != nil {
				return fmt.Errorf("reset password for %s: %w", args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✅ Password for %s has been reset\n", args[0])
			return nil
		},
	}
}

func (a *app) createAdminCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create-admin <username> <email> <password>",
		Short: "Create an administrator account",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(); err != nil {
				return err
			}
			defer a.close()

			ctx, cancel := a.context()
			defer cancel()

			user, err := directory.New(a.db.Store(), a.log).CreateAdmin(ctx, args[0], args[1], args[2])
			if err != nil {
				return fmt.Errorf("create admin %s: %w", args[0], err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "✅ Admin ready")
			fmt.Fprintln(out, "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
			fmt.Fprintf(out, "👤 Username: %s\n", user.Username)
			fmt.Fprintf(out, "📧 Email:    %s\n", user.Email)
			fmt.Fprintf(out, "ID: %d\n", user.ID)
			return nil
		},
	}
}
