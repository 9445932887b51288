package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/homestage-ai/staging-client/internal/utils/pathutil"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "HOMESTAGE"

type Config struct {
	HomeDir     string `mapstructure:"home_dir"`
	Environment string `mapstructure:"environment"`
	OutputDir   string `mapstructure:"output_dir"`

	// Base URL of the remote staging API, e.g. https://api.homestage.ai
	APIBaseURL string `mapstructure:"api_base_url"`

	DB        *DBConfig        `mapstructure:"db"`
	DevServer *DevServerConfig `mapstructure:"dev_server"`
}

type DBConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

type DevServerConfig struct {
	Host      string   `mapstructure:"host"`
	Port      int      `mapstructure:"port"`
	AssetsDir string   `mapstructure:"assets_dir"`
	DemoLimit int      `mapstructure:"demo_limit"`
	APIKeys   []string `mapstructure:"api_keys"`
}

var config *Config

func LoadEnvAndConfigFiles() error {
	homeDir, err := getHomeDir()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(homeDir, os.ModePerm); err != nil {
		return fmt.Errorf("failed to create homestage directory: %w", err)
	}

	viper.Set("home_dir", homeDir)

	envFile := viper.GetString("env_file")
	if envFile == "" {
		envFile = filepath.Join(homeDir, ".env")
	}

	if _, err := os.Stat(envFile); err == nil {
		if err := godotenv.Load(envFile); err != nil {
			return fmt.Errorf("failed to load env file: %w", err)
		}
	}

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(`.`, `_`))
	viper.AutomaticEnv()

	configFile := viper.GetString("config_file")
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
		viper.AddConfigPath(homeDir)
	}

	setDefaults(homeDir)

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			if _, ok := err.(*os.PathError); !ok {
				return fmt.Errorf("error reading config: %w", err)
			}
		}
	}

	config = &Config{}
	if err := viper.Unmarshal(config); err != nil {
		return fmt.Errorf("error unmarshalling config: %w", err)
	}

	return nil
}

func GetConfig() (*Config, error) {
	if config == nil {
		return nil, errors.New("config not loaded")
	}

	return config, nil
}

func MustGetConfig() *Config {
	if config == nil {
		panic("config not loaded")
	}

	return config
}

func setDefaults(homeDir string) {
	viper.SetDefault("environment", "dev")
	viper.SetDefault("api_base_url", DefaultAPIBaseURL)
	viper.SetDefault("output_dir", filepath.Join(homeDir, "staged"))
	viper.SetDefault("db.driver", "sqlite")
	viper.SetDefault("db.dsn", "file:"+filepath.Join(homeDir, "history.db")+"?cache=shared")
	viper.SetDefault("dev_server.host", "localhost")
	viper.SetDefault("dev_server.port", DefaultDevServerPort)
	viper.SetDefault("dev_server.assets_dir", filepath.Join(homeDir, "dev-assets"))
	viper.SetDefault("dev_server.demo_limit", DefaultDemoLimit)
}

// Returns the homestage home directory path.
// It attempts to retrieve it from the following sources in order:
// 1. The `home_dir` flag from viper.
// 2. The `HOMESTAGE_HOME` environment variable.
// 3. The default home directory.
func getHomeDir() (string, error) {
	homeDir := viper.GetString("home_dir")
	if homeDir == "" {
		homeDir = os.Getenv("HOMESTAGE_HOME")
		if homeDir == "" {
			homeDir = DefaultHomeDir
		}
	}

	homeDir, err := pathutil.ExpandPath(homeDir)
	if err != nil {
		return "", fmt.Errorf("failed to expand homestage home path: %w", err)
	}

	return homeDir, nil
}
