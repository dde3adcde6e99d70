package cmd

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/resume-matcher/internal/logger"
	"github.com/spigell/resume-matcher/internal/matcher"
	"github.com/spigell/resume-matcher/internal/resume"
	"github.com/spigell/resume-matcher/internal/secrets"
)

const (
	app       = "resume-matcher"
	envPrefix = "RESUME_MATCHER"
	apiKeyEnv = envPrefix + "_API_KEY"
)

// apiBase can be specified in build command.
var apiBase = ""

type Config struct {
	API    *APIConfig    `mapstructure:"api"`
	Upload *UploadConfig `mapstructure:"upload"`
	Server *ServerConfig `mapstructure:"server"`
}

type APIConfig struct {
	BaseURL    string        `mapstructure:"base-url"`
	APIKey     string        `mapstructure:"api-key"`
	APIKeyFile string        `mapstructure:"api-key-file"`
	Timeout    time.Duration `mapstructure:"timeout"`
	UserAgent  string        `mapstructure:"user-agent"`
}

type UploadConfig struct {
	MaxFileMB int `mapstructure:"max-file-mb"`
}

type ServerConfig struct {
	Listen string `mapstructure:"listen"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "resume-matcher scores a resume against a job description using the matcher API",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("api.base-url", apiBase)
	viper.SetDefault("api.timeout", 2*time.Minute)
	viper.SetDefault("upload.max-file-mb", resume.DefaultMaxSizeMB)
	viper.SetDefault("server.listen", ":3000")

	envs := map[string][]string{
		"api.base-url":     {envPrefix + "_API_BASE", envPrefix + "_API_BASE_URL"},
		"api.api-key-file": {envPrefix + "_API_KEY_FILE"},
	}
	for key, names := range envs {
		if err := viper.BindEnv(append([]string{key}, names...)...); err != nil {
			log.Fatalf("binding %s environment variables: %v", key, err)
		}
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is resume-matcher.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	// .env is a convenience for local runs; a missing one is fine.
	_ = godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	err := viper.ReadInConfig()
	if err == nil {
		return
	}

	// Without an explicit --config the file is optional.
	var notFound viper.ConfigFileNotFoundError
	if cfgFile == "" && errors.As(err, &notFound) {
		return
	}

	log.Fatal(err)
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	if config.API == nil {
		config.API = &APIConfig{}
	}
	if config.Upload == nil {
		config.Upload = &UploadConfig{}
	}
	if config.Server == nil {
		config.Server = &ServerConfig{}
	}

	return config, nil
}

// setup is the shared prologue of every command talking to the API.
func setup() (*zap.Logger, *Config) {
	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Debug("starting with config",
		zap.String("api_base", config.API.BaseURL),
		zap.Duration("timeout", config.API.Timeout),
		zap.Int("max_file_mb", config.Upload.MaxFileMB),
	)

	return logger, config
}

func newClient(config *Config, logger *zap.Logger) (*matcher.Client, error) {
	apiKey, err := secrets.LoadOptional(secrets.Source{
		Name:  "matcher api key",
		Value: config.API.APIKey,
		Env:   apiKeyEnv,
		File:  config.API.APIKeyFile,
	})
	if err != nil {
		return nil, err
	}

	client := matcher.New(logger, config.API.BaseURL, apiKey)

	if config.API.Timeout > 0 {
		client.HTTPClient.Timeout = config.API.Timeout
	}
	if config.API.UserAgent != "" {
		client.UserAgent = config.API.UserAgent
	}

	return client, nil
}
