// Package main is the entry point for the helios CLI: building the policy
// knowledge graph and querying it from the command line.
package main

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/helioscover/helios"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the helios CLI.
var rootCmd = &cobra.Command{
	Use:   "helios",
	Short: "Insurance policy knowledge engine",
	Long: `helios extracts coverage, exclusion, limit, condition, and definition
facts from insurance policy documents into a knowledge graph, then answers
policy summary and coverage-matching queries against it.

Point it at a directory of policy documents (pdf, xlsx, txt) with 'build',
then query with 'summarize', 'risk', and 'compare'.`,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./helios.yaml or ~/.config/helios/config.yaml)")
	rootCmd.PersistentFlags().String("docs-dir", "", "directory of policy documents")
	rootCmd.PersistentFlags().String("db-path", "", "path to the graph cache database")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("helios")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "helios"))
		}
	}

	viper.SetEnvPrefix("HELIOS")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		slog.Debug("using config file", "path", viper.ConfigFileUsed())
	}

	viper.BindPFlag("docs_dir", rootCmd.PersistentFlags().Lookup("docs-dir"))
	viper.BindPFlag("db_path", rootCmd.PersistentFlags().Lookup("db-path"))
}

// loadedConfig assembles the engine configuration from defaults, the config
// file, and environment/flag overrides.
func loadedConfig() helios.Config {
	cfg := helios.DefaultConfig()

	if s := viper.GetString("db_path"); s != "" {
		cfg.DBPath = s
	}
	if s := viper.GetString("docs_dir"); s != "" {
		cfg.DocsDir = s
	}
	if s := viper.GetString("llm.provider"); s != "" {
		cfg.LLM.Provider = s
	}
	if s := viper.GetString("llm.model"); s != "" {
		cfg.LLM.Model = s
	}
	if s := viper.GetString("llm.base_url"); s != "" {
		cfg.LLM.BaseURL = s
	}
	if s := viper.GetString("llm.api_key"); s != "" {
		cfg.LLM.APIKey = s
	}
	if cfg.LLM.APIKey == "" && cfg.LLM.Provider == "openrouter" {
		cfg.LLM.APIKey = os.Getenv("OPENROUTER_API_KEY")
	}

	return cfg
}

// newEngine builds the engine used by all query commands.
func newEngine() (helios.Engine, error) {
	return helios.New(loadedConfig())
}

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
