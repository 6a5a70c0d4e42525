// Package cmd implements the permit-scraper command-line interface.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jonesrussell/north-cloud/permit-scraper/cmd/detect"
	"github.com/jonesrussell/north-cloud/permit-scraper/cmd/extract"
	"github.com/jonesrussell/north-cloud/permit-scraper/cmd/httpd"
	cmdjobs "github.com/jonesrussell/north-cloud/permit-scraper/cmd/jobs"
	cmdmigrate "github.com/jonesrussell/north-cloud/permit-scraper/cmd/migrate"
	"github.com/jonesrussell/north-cloud/permit-scraper/cmd/records"
	"github.com/jonesrussell/north-cloud/permit-scraper/internal/config"
)

// Version is set at build time with -ldflags "-X .../cmd.Version=...".
var Version = "dev"

var (
	// cfgFile holds the path to the configuration file.
	cfgFile string

	// Debug enables debug logging for all commands.
	Debug bool

	rootCmd = &cobra.Command{
		Use:   "permit-scraper",
		Short: "Detect permit platforms and extract permit office records",
		Long: `permit-scraper recognises county and city permit portals built on known
platforms, extracts the permit office details they publish and stores them.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return initConfig()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
)

// Execute runs the root command. SIGINT and SIGTERM cancel the command context.
func Execute() error {
	// Load .env early so environment variables are visible to viper.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"",
		"config file (default is ./config.yaml or ./config/config.yaml)",
	)
	rootCmd.PersistentFlags().BoolVar(&Debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "permit-scraper version %s\n", Version)
		},
	})

	rootCmd.AddCommand(detect.Command())
	rootCmd.AddCommand(extract.Command())
	rootCmd.AddCommand(httpd.Command(func() string { return Version }))
	rootCmd.AddCommand(cmdjobs.Command())
	rootCmd.AddCommand(records.Command())
	rootCmd.AddCommand(cmdmigrate.Command())
}

// initConfig reads the config file and environment into viper.
func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("./config")
	}

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	config.SetViperDefaults(viper.GetViper())

	// The config file is optional; defaults and environment cover everything.
	if err := viper.ReadInConfig(); err != nil {
		if cfgFile != "" {
			return fmt.Errorf("failed to read config file %s: %w", cfgFile, err)
		}
	}

	if err := bindEnvVars(); err != nil {
		return err
	}

	setupDevelopmentLogging()
	return nil
}

// envBindings maps config keys to the environment variables that set them.
var envBindings = map[string][]string{
	"app.environment":   {"APP_ENV"},
	"app.debug":         {"APP_DEBUG"},
	"logger.level":      {"LOG_LEVEL"},
	"logger.encoding":   {"LOG_FORMAT"},
	"server.address":    {"SERVER_ADDRESS"},
	"database.host":     {"DATABASE_HOST", "POSTGRES_HOST"},
	"database.port":     {"DATABASE_PORT", "POSTGRES_PORT"},
	"database.user":     {"DATABASE_USER", "POSTGRES_USER"},
	"database.password": {"DATABASE_PASSWORD", "POSTGRES_PASSWORD"},
	"database.dbname":   {"DATABASE_DBNAME", "POSTGRES_DB"},
	"database.sslmode":  {"DATABASE_SSLMODE"},
}

func bindEnvVars() error {
	for key, envs := range envBindings {
		input := append([]string{key}, envs...)
		if err := viper.BindEnv(input...); err != nil {
			return fmt.Errorf("failed to bind %s: %w", strings.Join(envs, ", "), err)
		}
	}
	return nil
}

// setupDevelopmentLogging applies the --debug flag and development
// environment to the logger settings.
func setupDevelopmentLogging() {
	debug := Debug || viper.GetBool("app.debug")

	if viper.GetString("app.environment") == config.EnvDevelopment {
		viper.Set("logger.development", true)
		viper.Set("logger.encoding", "console")
	}
	if debug {
		viper.Set("app.debug", true)
		viper.Set("logger.level", "debug")
	}

	Debug = debug
}
