package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pders01/kiroku/internal/api"
	"github.com/pders01/kiroku/internal/app"
	"github.com/pders01/kiroku/internal/auth"
	"github.com/pders01/kiroku/internal/config"
	"github.com/pders01/kiroku/internal/debuglog"
	"github.com/pders01/kiroku/internal/feed"
	"github.com/pders01/kiroku/internal/opener"
	"github.com/pders01/kiroku/internal/search"
	"github.com/pders01/kiroku/internal/storage"
	"github.com/pders01/kiroku/internal/tui"
	"github.com/pders01/kiroku/internal/validation"
)

// Version is the version of the application, set at build time
var Version = "dev"

var (
	configPath string
	dbPath     string
	quiet      bool
	outputPath string
)

var rootCmd = &cobra.Command{
	Use:           "kiroku",
	Short:         "Browse and track MyAnimeList from the terminal",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runTUI,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("kiroku %s\n", Version)
		fmt.Println("MyAnimeList client")
		fmt.Println("github.com/pders01/kiroku")
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Write the default configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := outputPath
		if path == "" {
			p, err := validation.ConfigPath()
			if err != nil {
				return err
			}
			path = p
		}
		if err := config.GenerateDefaultConfig(path); err != nil {
			return fmt.Errorf("generating config: %w", err)
		}
		fmt.Printf("Generated default configuration at: %s\n", path)
		return nil
	},
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authorize kiroku with your MyAnimeList account",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		store, err := storage.NewStore(cfg.Database.Path, cfg.Database.Timeout)
		if err != nil {
			return err
		}
		defer store.Close()

		flow, err := auth.NewFlow(cfg)
		if err != nil {
			return err
		}
		launcher := opener.NewLauncher(cfg)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		_, err = auth.Login(ctx, flow, store, func(authURL string) error {
			fmt.Println("Opening the MyAnimeList authorization page. If nothing happens, visit:")
			fmt.Println(authURL)
			if err := launcher.Open(authURL); err != nil {
				debuglog.Warnf("opening browser: %v", err)
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("login: %w", err)
		}
		fmt.Println("Logged in.")
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored MyAnimeList token",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		store, err := storage.NewStore(cfg.Database.Path, cfg.Database.Timeout)
		if err != nil {
			return err
		}
		defer store.Close()

		if err := auth.NewSession(store, cfg).Logout(); err != nil {
			return fmt.Errorf("logout: %w", err)
		}
		fmt.Println("Logged out.")
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to configuration file")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Path to database file (overrides config)")
	rootCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Skip startup banner")
	configGenerateCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Where to write the file")

	configCmd.AddCommand(configGenerateCmd)
	rootCmd.AddCommand(versionCmd, configCmd, loginCmd, logoutCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if dbPath != "" {
		cfg.Database.Path = validation.ExpandPath(dbPath)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if err := debuglog.Setup(debuglog.ParseLogLevel(cfg.Log.Level), cfg.Log.Path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: logging disabled: %v\n", err)
	}
	return cfg, nil
}

func runTUI(cmd *cobra.Command, args []string) error {
	if !quiet {
		tui.ShowBanner(Version)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	defer debuglog.Close()

	store, err := storage.NewStore(cfg.Database.Path, cfg.Database.Timeout)
	if err != nil {
		return err
	}
	defer store.Close()

	session := auth.NewSession(store, cfg)
	if !session.LoggedIn() {
		fmt.Println("Not logged in; run `kiroku login` to see your lists.")
	}
	client := api.NewClient(cfg, session)
	ctrl := app.NewController(cfg)

	svc := tui.Services{
		Store:    store,
		Launcher: opener.NewLauncher(cfg),
	}
	if cfg.Search.Enabled {
		index, err := search.Open(cfg.Search.IndexPath)
		if err != nil {
			debuglog.Warnf("search index unavailable: %v", err)
		} else {
			defer index.Close()
			ctrl.AddListener(index)
			svc.Finder = index
		}
	}
	if cfg.News.Enabled {
		svc.News = feed.NewManager(store, cfg)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pool := app.NewPool(ctrl, client, cfg)
	pool.Start(ctx)

	err = tui.Run(tui.NewApp(cfg, ctrl, svc))
	cancel()
	pool.Wait()
	return err
}
