package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/kilianp07/fleetops/app"
	"github.com/kilianp07/fleetops/config"
	"github.com/kilianp07/fleetops/core/apperr"
	"github.com/kilianp07/fleetops/core/model"
	"github.com/kilianp07/fleetops/infra/logger"
)

var (
	cfgPath string
	envFile string
	actor   string
)

var rootCmd = &cobra.Command{
	Use:           "fleetops",
	Short:         "Fleet scheduling and trip lifecycle engine",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", envFile, err)
		}
		if actor == "" {
			actor = os.Getenv("FLEETOPS_ACTOR")
		}
		return nil
	},
	RunE: serve,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API",
	RunE:  serve,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "configuration file (yaml or json)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before the configuration")
	rootCmd.PersistentFlags().StringVar(&actor, "actor", "", "user recorded on mutations (default $FLEETOPS_ACTOR)")
	rootCmd.AddCommand(serveCmd)
}

// Execute runs the CLI.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintln(rootCmd.ErrOrStderr(), describe(err))
	}
	return err
}

func describe(err error) string {
	if code := apperr.CodeOf(err); code != "" {
		return fmt.Sprintf("error (%s): %v", code, err)
	}
	return "error: " + err.Error()
}

func loadConfig() (*config.Config, error) {
	path := cfgPath
	if path == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			path = "config.yaml"
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// withApp opens the service for one command and closes it afterwards.
func withApp(fn func(*app.Service) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.New("main").Errorf("service close: %v", err)
		}
	}()
	return fn(svc)
}

func requireActor() (string, error) {
	a := strings.TrimSpace(actor)
	if a == "" {
		return "", apperr.Validation("cli", apperr.CodeInvalidInput, "--actor is required for this command")
	}
	return a, nil
}

// dateArg parses YYYY-MM-DD, defaulting to today in the planning timezone.
func dateArg(svc *app.Service, s string) (model.Date, error) {
	if s == "" {
		return model.Today(svc.Config.Planning.Location()), nil
	}
	d, err := model.ParseDate(s)
	if err != nil {
		return model.Date{}, apperr.Validation("cli", apperr.CodeInvalidInput, "date %q: %v", s, err)
	}
	return d, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func serve(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return withApp(func(svc *app.Service) error {
		return svc.Run(ctx)
	})
}
