package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/marko-code-lab/noiddea-demo-sub002/auth"
	"github.com/marko-code-lab/noiddea-demo-sub002/bridge"
	"github.com/marko-code-lab/noiddea-demo-sub002/config"
	"github.com/marko-code-lab/noiddea-demo-sub002/controllers"
	"github.com/marko-code-lab/noiddea-demo-sub002/database"
	"github.com/marko-code-lab/noiddea-demo-sub002/logger"
	"github.com/marko-code-lab/noiddea-demo-sub002/metrics"
	"github.com/marko-code-lab/noiddea-demo-sub002/routes"
	"github.com/marko-code-lab/noiddea-demo-sub002/scheduler"
)

var version = "dev"

var (
	configPath string

	rootCmd = &cobra.Command{
		Use:   "posd",
		Short: "Point of sale data service",
		Long:  `posd serves the dashboard and store API over a local database`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve()
		},
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server and the background poller",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve()
		},
	}

	migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(false)
			if err != nil {
				return err
			}
			if err := database.ConnectDatabase(cfg.Database); err != nil {
				return err
			}
			defer database.DB.Close()
			fmt.Println("database migrated")
			return nil
		},
	}

	resetCmd = &cobra.Command{
		Use:   "reset-db",
		Short: "Drop every table and migrate again",
		RunE: func(cmd *cobra.Command, args []string) error {
			if yes, _ := cmd.Flags().GetBool("yes"); !yes && !confirm("This deletes all data. Continue? [y/N] ") {
				return errors.New("aborted")
			}
			cfg, err := loadConfig(false)
			if err != nil {
				return err
			}
			db, err := database.Open(cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()
			if err := database.Reset(db); err != nil {
				return err
			}
			fmt.Println("database reset")
			return nil
		},
	}

	hashPasswordCmd = &cobra.Command{
		Use:   "hash-password <password>",
		Short: "Print the bcrypt hash of a password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(false)
			if err != nil {
				return err
			}
			auth.Cost = cfg.Auth.BcryptCost
			hash, err := auth.HashPassword(args[0])
			if err != nil {
				return err
			}
			fmt.Println(hash)
			return nil
		},
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of posd",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("posd version %s\n", version)
		},
	}

	dbPathCmd = &cobra.Command{
		Use:   "db-path",
		Short: "Print where the SQLite database lives",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(false)
			if err != nil {
				return err
			}
			fmt.Println(database.Path(cfg.Database))
			return nil
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "conf", "", "path to configuration file")
	resetCmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation")
	rootCmd.AddCommand(serveCmd, migrateCmd, resetCmd, hashPasswordCmd, versionCmd, dbPathCmd)
}

func getConfigPath() string {
	if configPath != "" {
		return configPath
	}
	if envPath := os.Getenv("POS_CONFIG"); envPath != "" {
		return envPath
	}
	return config.DefaultPath
}

// loadConfig reads the configuration. Commands that never sign tokens pass
// requireSecret=false and tolerate a missing JWT secret.
func loadConfig(requireSecret bool) (*config.Config, error) {
	cfg, err := config.LoadConfig(getConfigPath())
	if err != nil && (cfg == nil || requireSecret) {
		return nil, err
	}
	return cfg, nil
}

func confirm(prompt string) bool {
	fmt.Print(prompt)
	answer, _ := bufio.NewReader(os.Stdin).ReadString('\n')
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

func serve() error {
	cfg, err := loadConfig(true)
	if err != nil {
		return err
	}

	appLogger, err := logger.NewLogger(cfg.Logger)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer appLogger.Sync()

	auth.Cost = cfg.Auth.BcryptCost
	tokens, err := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		return err
	}

	if err := database.ConnectDatabase(cfg.Database); err != nil {
		appLogger.Error("Failed to connect to database", zap.Error(err))
		return err
	}
	defer database.DB.Close()
	appLogger.Info("Database ready",
		zap.String("type", cfg.Database.Type),
		zap.String("path", database.Path(cfg.Database)))

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New(cfg.Metrics)
	}

	controllers.Configure(controllers.Options{
		Tokens:    tokens,
		Auth:      cfg.Auth,
		Scheduler: cfg.Scheduler,
		Inventory: cfg.Inventory,
		Logger:    appLogger.Named("api"),
		Metrics:   m,
		Bridge:    bridge.New(database.DB.DB(), cfg.Database, cfg.Bridge, cfg.Logger),
	})

	gin.SetMode(cfg.Server.Mode)
	router := gin.New()
	router.Use(gin.Recovery(), logger.GinLogger(appLogger.Named("http")))
	routes.SetupRoutes(router, cfg, tokens, m)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		appLogger.Info("Starting server", zap.String("addr", srv.Addr), zap.String("version", version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		appLogger.Info("Shutting down server")
		return srv.Shutdown(shutdownCtx)
	})
	if cfg.Scheduler.Enabled {
		poller := scheduler.NewPoller(database.DB, cfg.Scheduler, appLogger, m)
		g.Go(func() error {
			return poller.Start(ctx)
		})
	}

	return g.Wait()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
