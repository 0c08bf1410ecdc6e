package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/rpgo/drawdown/internal/calculation"
	"github.com/rpgo/drawdown/internal/config"
	"github.com/rpgo/drawdown/internal/logging"
	"github.com/rpgo/drawdown/internal/store"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var version = "dev"

// app holds the state shared by every subcommand.
type app struct {
	v       *viper.Viper
	cfgFile string
	logger  *logrus.Logger
	parser  *config.InputParser
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New(), parser: config.NewInputParser()}

	rootCmd := &cobra.Command{
		Use:   "drawdown",
		Short: "Retirement drawdown projections and Monte Carlo analysis",
		Long: `drawdown projects a retirement plan year by year: income, taxes, account
withdrawals, balances and net worth until the terminal age. The montecarlo
command repeats the projection with perturbed growth rates and reports how
often the plan stays funded.`,
		Version:           version,
		SilenceUsage:      true,
		PersistentPreRunE: a.initConfig,
	}

	rootCmd.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default: $HOME/.config/drawdown/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "warn", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", logging.FormatText, "log format (text, json)")
	rootCmd.PersistentFlags().String("db", "", "ledger database path (default: $HOME/.local/share/drawdown/drawdown.db)")

	_ = a.v.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = a.v.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))
	_ = a.v.BindPFlag("db", rootCmd.PersistentFlags().Lookup("db"))

	rootCmd.AddCommand(a.projectCmd())
	rootCmd.AddCommand(a.monteCarloCmd())
	rootCmd.AddCommand(a.exampleCmd())
	rootCmd.AddCommand(a.historyCmd())
	return rootCmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func (a *app) initConfig(cmd *cobra.Command, _ []string) error {
	if a.cfgFile != "" {
		a.v.SetConfigFile(a.cfgFile)
	} else if home, err := os.UserHomeDir(); err == nil {
		a.v.AddConfigPath(filepath.Join(home, ".config", "drawdown"))
		a.v.SetConfigName("config")
		a.v.SetConfigType("yaml")
	}

	// DRAWDOWN_LOG_LEVEL, DRAWDOWN_DB, DRAWDOWN_MONTECARLO_WORKERS, ...
	a.v.SetEnvPrefix("DRAWDOWN")
	a.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	a.v.AutomaticEnv()

	if err := a.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if a.cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	logger, err := logging.New(a.v.GetString("log.level"), a.v.GetString("log.format"), cmd.ErrOrStderr())
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	a.logger = logger
	return nil
}

// engine returns a calculation engine logging through the CLI logger.
func (a *app) engine() *calculation.CalculationEngine {
	ce := calculation.NewCalculationEngine()
	ce.SetLogger(logging.WithComponent(a.logger, "engine"))
	return ce
}

// openStore opens the ledger database named by --db or DRAWDOWN_DB.
func (a *app) openStore() (*store.Store, error) {
	path := a.v.GetString("db")
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(home, ".local", "share", "drawdown", "drawdown.db")
	}
	a.logger.WithField("path", path).Debug("opening ledger database")
	return store.Open(path)
}
