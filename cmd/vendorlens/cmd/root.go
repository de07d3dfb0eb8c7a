package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/audiencekit/vendorlens/internal/cmd/globals"
	"github.com/audiencekit/vendorlens/internal/cmd/output"
	"github.com/audiencekit/vendorlens/internal/config"
	"github.com/audiencekit/vendorlens/pkg/logging"
)

var (
	configFile  string
	globalFlags *globals.Flags

	// Version information set by main.
	Version = "dev"
	// Commit is the git commit hash.
	Commit = "unknown"
	// Date is the build date.
	Date = "unknown"
	// BuiltBy is the build system identifier.
	BuiltBy = "unknown"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "vendorlens",
	Short: "Enrichment vendor comparison CLI",
	Long: `Vendorlens flattens enrichment vendor payloads into normalized tables
and reconciles two vendors' views of the same population: identity
overlap, per-field distribution deltas, and severity-tagged anomalies.

Sources can be Postgres match tables or JSONL exports; results render
as terminal tables, JSON, YAML, or a standalone HTML report.`,
	PersistentPreRunE: setupCommand,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute(version, commit, date, builtBy string) {
	// Set version information
	Version = version
	Commit = commit
	Date = date
	BuiltBy = builtBy

	// Set up context with signal handling for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default is $HOME/.vendorlens.yaml)")
	globalFlags = globals.AddFlags(rootCmd)

	// Bind flags to viper
	if err := viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose")); err != nil {
		panic(fmt.Sprintf("Failed to bind verbose flag: %v", err))
	}
	if err := viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet")); err != nil {
		panic(fmt.Sprintf("Failed to bind quiet flag: %v", err))
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if configFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(configFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".vendorlens" (without extension)
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".vendorlens")
	}

	// Load .env files first (before Viper env binding)
	loadEnvFiles()

	viper.SetEnvPrefix(config.EnvPrefix)
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	// Connection strings commonly live in .env files rather than config
	bindConnectionEnv()

	if err := viper.ReadInConfig(); err == nil && globalFlags != nil && globalFlags.Verbose {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}

	// Configure logging based on verbose flag and environment
	configureLogging()
}

// setupCommand is called before any command runs.
func setupCommand(_ *cobra.Command, _ []string) error {
	// Setup output format based on terminal detection
	if globalFlags.Output == "" {
		globalFlags.Output = string(output.DetectFormat(""))
	}

	return nil
}

// configureLogging sets up the logging system based on configuration.
func configureLogging() {
	// Determine log level
	level := zerolog.InfoLevel
	if globalFlags != nil && globalFlags.Verbose || viper.GetBool("verbose") {
		level = zerolog.DebugLevel
	}
	if globalFlags != nil && globalFlags.Quiet || viper.GetBool("quiet") {
		level = zerolog.WarnLevel
	}
	if envLevel := os.Getenv("LOG_LEVEL"); envLevel != "" {
		if parsed, err := zerolog.ParseLevel(envLevel); err == nil {
			level = parsed
		}
	}

	// Configure the logger
	cfg := &logging.Config{
		Level:     level.String(),
		Format:    os.Getenv("LOG_FORMAT"),
		Output:    os.Getenv("LOG_OUTPUT"),
		AddCaller: level <= zerolog.DebugLevel,
	}

	// Use auto format detection if not specified
	if cfg.Format == "" {
		cfg.Format = "auto"
	}
	if cfg.Output == "" {
		cfg.Output = "stderr"
	}

	logging.Configure(cfg)
}

// loadEnvFiles loads environment variables from .env files.
// .env.local overrides .env.
func loadEnvFiles() {
	envFiles := []string{
		".env",
		".env.local",
	}

	for _, envFile := range envFiles {
		loadEnvFile(envFile)
	}
}

// loadEnvFile loads a single .env file using godotenv.
func loadEnvFile(filename string) {
	if err := godotenv.Load(filename); err == nil {
		if globalFlags != nil && globalFlags.Verbose {
			fmt.Fprintf(os.Stderr, "Loaded %s\n", filename)
		}
	}
}

// bindConnectionEnv explicitly binds connection string environment
// variables to Viper so .env values are visible without config references.
func bindConnectionEnv() {
	keys := []string{
		config.EnvPrefix + "_DATABASE_URL",
		"DATABASE_URL",
		"POSTGRES_URI",
	}

	for _, key := range keys {
		if err := viper.BindEnv(key); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to bind environment variable %s: %v\n", key, err)
		}
	}
}
