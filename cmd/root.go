package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spigell/catalog-assets/internal/cart"
	"github.com/spigell/catalog-assets/internal/catalog"
	"github.com/spigell/catalog-assets/internal/filtering"
	"github.com/spigell/catalog-assets/internal/logger"
	"github.com/spigell/catalog-assets/internal/matcher"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	app = "catalog-assets"

	defaultCatalogPath = "assets/products.json"
	defaultImageDir    = "assets"
)

type Config struct {
	JSON         string       `mapstructure:"json"`
	Dir          string       `mapstructure:"dir"`
	PublicPrefix string       `mapstructure:"public-prefix"`
	ReservedDir  string       `mapstructure:"reserved-dir"`
	Placeholder  string       `mapstructure:"placeholder"`
	Order        *OrderConfig `mapstructure:"order"`
	AI           *AIConfig    `mapstructure:"ai"`
}

type OrderConfig struct {
	Phone    string `mapstructure:"phone"`
	Greeting string `mapstructure:"greeting"`
}

type AIConfig struct {
	Enabled           bool          `mapstructure:"enabled"`
	MinimumConfidence float64       `mapstructure:"minimum-confidence"`
	Gemini            *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKey       string `mapstructure:"api-key"`
	APIKeyFile   string `mapstructure:"api-key-file"`
	Model        string `mapstructure:"model"`
	MaxRetries   int    `mapstructure:"max-retries"`
	MaxLogLength int    `mapstructure:"max-log-length"`
}

var (
	// Used for flags.
	cfgFile string

	// fs is swapped for an in-memory filesystem in tests.
	fs = afero.NewOsFs()

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "catalog-assets links product records to their photos and works with the storefront catalog",
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return initConfig()
		},
		SilenceUsage: true,
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	setDefaults()

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is catalog-assets.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().Bool("log-json", false, "json format for logging")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "only warnings and errors, no tables")
	rootCmd.PersistentFlags().String("json", defaultCatalogPath, "path to the catalog json file")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("log-json", rootCmd.PersistentFlags().Lookup("log-json"))
	viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

// setDefaults registers every key so that environment variables are seen by
// Unmarshal.
func setDefaults() {
	viper.SetDefault("json", defaultCatalogPath)
	viper.SetDefault("dir", defaultImageDir)
	viper.SetDefault("public-prefix", matcher.DefaultPublicPrefix)
	viper.SetDefault("reserved-dir", filtering.DefaultReservedDir)
	viper.SetDefault("placeholder", catalog.DefaultPlaceholder)
	viper.SetDefault("order.phone", "")
	viper.SetDefault("order.greeting", cart.DefaultGreeting)
	viper.SetDefault("ai.enabled", false)
	viper.SetDefault("ai.minimum-confidence", 0.6)
	viper.SetDefault("ai.gemini.api-key", "")
	viper.SetDefault("ai.gemini.api-key-file", "")
	viper.SetDefault("ai.gemini.model", "")
	viper.SetDefault("ai.gemini.max-retries", 3)
	viper.SetDefault("ai.gemini.max-log-length", 200)

	viper.SetEnvPrefix("CATALOG_ASSETS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if err := viper.BindEnv("ai.gemini.api-key-file", "GEMINI_API_KEY_FILE"); err != nil {
		panic(fmt.Sprintf("binding GEMINI_API_KEY_FILE environment variable: %v", err))
	}
}

// initConfig reads the optional config file. A missing default file is fine, a
// missing file given with --config is not.
func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("reading config: %w", err)
	}

	return nil
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	if config.Order == nil {
		config.Order = &OrderConfig{}
	}
	if config.AI == nil {
		config.AI = &AIConfig{}
	}
	if config.AI.Gemini == nil {
		config.AI.Gemini = &GeminiConfig{}
	}

	return config, nil
}

// setup builds the logger and the config shared by every command.
func setup() (*Config, *zap.Logger, error) {
	log, err := logger.New(viper.GetBool("log-json"), viper.GetBool("debug"), viper.GetBool("quiet"))
	if err != nil {
		return nil, nil, fmt.Errorf("creating a logger: %w", err)
	}

	config, err := getConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("getting a config: %w", err)
	}

	log.Debug("starting", zap.String("app", app), zap.String("version", version), zap.String("config", viper.ConfigFileUsed()))

	return config, log, nil
}
