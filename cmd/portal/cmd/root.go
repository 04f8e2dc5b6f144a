package cmd

import (
	"os"
	"path/filepath"

	"github.com/Sternrassler/knowledge-portal/pkg/cache"
	"github.com/Sternrassler/knowledge-portal/pkg/client"
	"github.com/Sternrassler/knowledge-portal/pkg/golden"
	"github.com/Sternrassler/knowledge-portal/pkg/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "portal",
	Short: "Knowledge portal over a GitHub markdown repository",
	Long: "Browse the markdown documents of a GitHub repository, read their metadata " +
		"and list the golden documents, from the terminal or over HTTP.",
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// envBindings maps configuration keys to their well-known environment
// variables. Other keys are read from PORTAL_<KEY>.
var envBindings = map[string]string{
	"github_token":   "GITHUB_TOKEN",
	"repo_owner":     "REPO_OWNER",
	"repo_name":      "REPO_NAME",
	"repo_branch":    "REPO_BRANCH",
	"github_api_url": "GITHUB_API_URL",
	"cache_backend":  "CACHE_BACKEND",
	"cache_ttl":      "CACHE_TTL",
	"cache_compress": "CACHE_COMPRESS",
	"redis_url":      "REDIS_URL",
	"manifest_path":  "GOLDEN_MANIFEST",
	"log_level":      "LOG_LEVEL",
	"log_pretty":     "LOG_PRETTY",
	"port":           "PORT",
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ~/.config/knowledge-portal/config.yaml)")
	rootCmd.PersistentFlags().String("owner", "", "repository owner (env REPO_OWNER)")
	rootCmd.PersistentFlags().String("repo", "", "repository name (env REPO_NAME)")
	rootCmd.PersistentFlags().String("branch", "", "branch to read (env REPO_BRANCH)")
	rootCmd.PersistentFlags().String("cache-backend", "", "cache backend: memory or redis (env CACHE_BACKEND)")
	rootCmd.PersistentFlags().String("redis-url", "", "redis address or URL (env REDIS_URL)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error (env LOG_LEVEL)")
	rootCmd.PersistentFlags().Bool("log-pretty", false, "human-readable log output (env LOG_PRETTY)")

	viper.BindPFlag("repo_owner", rootCmd.PersistentFlags().Lookup("owner"))
	viper.BindPFlag("repo_name", rootCmd.PersistentFlags().Lookup("repo"))
	viper.BindPFlag("repo_branch", rootCmd.PersistentFlags().Lookup("branch"))
	viper.BindPFlag("cache_backend", rootCmd.PersistentFlags().Lookup("cache-backend"))
	viper.BindPFlag("redis_url", rootCmd.PersistentFlags().Lookup("redis-url"))
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log_pretty", rootCmd.PersistentFlags().Lookup("log-pretty"))
}

func initConfig() {
	if cfg := rootCmd.PersistentFlags().Lookup("config").Value.String(); cfg != "" {
		viper.SetConfigFile(cfg)
	} else {
		viper.AddConfigPath(configDir())
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("PORTAL")
	viper.AutomaticEnv()
	for key, env := range envBindings {
		viper.BindEnv(key, env)
	}

	defaults := client.DefaultConfig()
	viper.SetDefault("repo_owner", defaults.Owner)
	viper.SetDefault("repo_name", defaults.Repo)
	viper.SetDefault("repo_branch", defaults.Branch)
	viper.SetDefault("github_api_url", "")
	viper.SetDefault("cache_backend", "memory")
	viper.SetDefault("cache_ttl", cache.DefaultTTL.String())
	viper.SetDefault("cache_compress", false)
	viper.SetDefault("redis_url", "localhost:6379")
	viper.SetDefault("manifest_path", golden.DefaultManifestPath)
	viper.SetDefault("log_level", string(logging.LevelInfo))
	viper.SetDefault("log_pretty", false)
	viper.SetDefault("port", "8080")

	viper.ReadInConfig()

	level, levelErr := logging.ParseLevel(viper.GetString("log_level"))
	logging.Setup(logging.Config{
		Level:  level,
		Pretty: viper.GetBool("log_pretty"),
		Output: os.Stderr,
	})
	if levelErr != nil {
		logging.NewLogger("cli").Warn().Err(levelErr).Msg("Falling back to info logging")
	}
}

func configDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "knowledge-portal")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".config", "knowledge-portal")
	}
	return ".knowledge-portal"
}
