package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"flashdeck/internal/app"
	"flashdeck/internal/auth"
	"flashdeck/internal/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// newApp reads the config and creates a FlashdeckApp. The caller must call Close.
func newApp(cmd *cobra.Command, command string) (*app.FlashdeckApp, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, fmt.Errorf("reading config (run `flashdeck config init` first): %w", err)
	}

	verbose, _ := cmd.Flags().GetBool("verbose")
	a, err := app.NewFlashdeckApp(cmd.Context(), cfg, command, app.Options{
		Stderr:  cmd.ErrOrStderr(),
		Verbose: verbose,
	})
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}
	return a, nil
}

// withApp runs fn against a freshly built app and records a failure on the
// operation before closing it.
func withApp(cmd *cobra.Command, command string, fn func(ctx context.Context, a *app.FlashdeckApp) error) error {
	a, err := newApp(cmd, command)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := fn(cmd.Context(), a); err != nil {
		a.Fail()
		return err
	}
	return nil
}

var rootCmd = &cobra.Command{
	Use:           "flashdeck",
	Short:         "Nested flashcard decks",
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// A missing .env is normal.
		_ = godotenv.Load()
	},
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg := config.NewConfig(defaults["base_dir"])
		secret, err := auth.NewSecret()
		if err != nil {
			return err
		}
		cfg.Auth.Secret = secret

		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Configuration initialized at %s\n", defaults["config_path"])
		fmt.Fprintf(out, "Base Dir: %s\n", defaults["base_dir"])
		fmt.Fprintf(out, "Library:  %s\n", cfg.Store.BlobPath)
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Configuration from %s:\n\n", defaults["config_path"])
		fmt.Fprintf(out, "Base Dir:   %s\n", cfg.BaseDir)
		fmt.Fprintf(out, "Log Dir:    %s\n", cfg.LogDir)
		fmt.Fprintf(out, "Store:      %s (%s)\n", cfg.Store.Type, cfg.Store.ResolvedMode())
		fmt.Fprintf(out, "Archive:    %s\n", cfg.Archive.Type)
		fmt.Fprintf(out, "Encryption: %s\n", cfg.Encryption.Type)
		fmt.Fprintf(out, "Token:      %s\n", cfg.Auth.TokenPath)
		return nil
	},
}

// keys command
var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage snapshot encryption keys",
}

var keysInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate encryption keys protected by a passphrase",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, "KeysInit", func(ctx context.Context, a *app.FlashdeckApp) error {
			pass, err := readNewPassphrase(cmd)
			if err != nil {
				return err
			}
			if err := a.InitKeys(pass); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Encryption keys created.")
			return nil
		})
	},
}

// session commands
var loginCmd = &cobra.Command{
	Use:   "login USER",
	Short: "Sign in as USER",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, "Login", func(ctx context.Context, a *app.FlashdeckApp) error {
			p, err := a.Login(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s\n", p)
			return nil
		})
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the saved sign-in",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, "Logout", func(ctx context.Context, a *app.FlashdeckApp) error {
			if err := a.Logout(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
			return nil
		})
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the acting user",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, "WhoAmI", func(ctx context.Context, a *app.FlashdeckApp) error {
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s mode)\n", a.Principal(), a.Service().Mode())
			return nil
		})
	},
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Echo info and debug logs to stderr")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)
	keysCmd.AddCommand(keysInitCmd)

	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(keysCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
}
