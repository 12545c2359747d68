// Package cfg resolves pipeline settings from an optional YAML file selected
// via the CONFIG_FILE environment variable, with environment variables taking
// precedence over file values and hardcoded defaults filling the rest.
package cfg

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"stellar-feh/internal/common"
)

// Settings is the resolved configuration shared by the pipeline commands.
type Settings struct {
	Root        string
	DataDir     string
	Filename    string
	LoadName    string
	NEstimators int
	RandomState int64
	IQRFactor   float64
	NumReps     int
	Show        bool
	Save        bool
	SaveModel   bool
	Colors      []string
	DPI         int
	HistoryPath string // empty disables the run ledger
	LogLevel    string
}

// ConfigFile mirrors the YAML layout. Fields whose zero value is meaningful
// (iqrFactor may legitimately be 0, numReps may legitimately be 0) are
// pointers so absence can be told apart from an explicit zero.
type ConfigFile struct {
	Data struct {
		Dir      string `yaml:"dir"`
		Filename string `yaml:"filename"`
	} `yaml:"data"`

	Model struct {
		NEstimators int    `yaml:"nEstimators"`
		RandomState int64  `yaml:"randomState"`
		SaveModel   bool   `yaml:"saveModel"`
		LoadName    string `yaml:"loadName"`
	} `yaml:"model"`

	Filter struct {
		IQRFactor *float64 `yaml:"iqrFactor"`
		NumReps   *int     `yaml:"numReps"`
	} `yaml:"filter"`

	Figures struct {
		Show   bool     `yaml:"show"`
		Save   bool     `yaml:"save"`
		DPI    int      `yaml:"dpi"`
		Colors []string `yaml:"colors"`
	} `yaml:"figures"`

	System struct {
		Root        string `yaml:"root"`
		HistoryPath string `yaml:"historyPath"`
		LogLevel    string `yaml:"logLevel"`
	} `yaml:"system"`
}

// Load resolves settings from the YAML file named by CONFIG_FILE when set,
// and from environment variables and defaults otherwise.
func Load() (Settings, error) {
	if configPath := os.Getenv("CONFIG_FILE"); configPath != "" {
		return loadFromYAML(configPath)
	}
	return loadFromEnv()
}

func loadFromYAML(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var config ConfigFile
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Settings{}, fmt.Errorf("failed to parse config file: %w", err)
	}

	iqrFactor := common.DefaultIQRFactor
	if config.Filter.IQRFactor != nil {
		iqrFactor = *config.Filter.IQRFactor
	}
	numReps := common.DefaultNumReps
	if config.Filter.NumReps != nil {
		numReps = *config.Filter.NumReps
	}

	settings := Settings{
		Root:        getEnvOrDefault(common.EnvRoot, orDefault(config.System.Root, common.DefaultRoot)),
		DataDir:     getEnvOrDefault(common.EnvDataDir, orDefault(config.Data.Dir, common.DefaultDataDir)),
		Filename:    getEnvOrDefault(common.EnvFilename, orDefault(config.Data.Filename, common.DefaultFilename)),
		LoadName:    getEnvOrDefault(common.EnvLoadName, orDefault(config.Model.LoadName, common.DefaultModelName)),
		NEstimators: getIntFromEnvOrConfig(common.EnvNEstimators, config.Model.NEstimators, common.DefaultNEstimators),
		RandomState: getInt64OrDefault(common.EnvRandomState, config.Model.RandomState),
		IQRFactor:   getFloatOrDefault(common.EnvIQRFactor, iqrFactor),
		NumReps:     getIntOrDefault(common.EnvNumReps, numReps),
		Show:        getBoolFromEnvOrConfig(common.EnvShow, config.Figures.Show),
		Save:        getBoolFromEnvOrConfig(common.EnvSave, config.Figures.Save),
		SaveModel:   getBoolFromEnvOrConfig(common.EnvSaveModel, config.Model.SaveModel),
		Colors:      getColorsFromEnvOrConfig(config.Figures.Colors),
		DPI:         getIntFromEnvOrConfig(common.EnvDPI, config.Figures.DPI, common.DefaultDPI),
		HistoryPath: getEnvOrDefault(common.EnvHistoryPath, config.System.HistoryPath),
		LogLevel:    getEnvOrDefault(common.EnvLogLevel, orDefault(config.System.LogLevel, "info")),
	}

	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}
	return settings, nil
}

func loadFromEnv() (Settings, error) {
	settings := Settings{
		Root:        getEnvOrDefault(common.EnvRoot, common.DefaultRoot),
		DataDir:     getEnvOrDefault(common.EnvDataDir, common.DefaultDataDir),
		Filename:    getEnvOrDefault(common.EnvFilename, common.DefaultFilename),
		LoadName:    getEnvOrDefault(common.EnvLoadName, common.DefaultModelName),
		NEstimators: getIntOrDefault(common.EnvNEstimators, common.DefaultNEstimators),
		RandomState: getInt64OrDefault(common.EnvRandomState, common.DefaultRandomState),
		IQRFactor:   getFloatOrDefault(common.EnvIQRFactor, common.DefaultIQRFactor),
		NumReps:     getIntOrDefault(common.EnvNumReps, common.DefaultNumReps),
		Show:        getBoolOrDefault(common.EnvShow, false),
		Save:        getBoolOrDefault(common.EnvSave, false),
		SaveModel:   getBoolOrDefault(common.EnvSaveModel, false),
		Colors:      getColorsFromEnvOrConfig(nil),
		DPI:         getIntOrDefault(common.EnvDPI, common.DefaultDPI),
		HistoryPath: os.Getenv(common.EnvHistoryPath), // optional
		LogLevel:    getEnvOrDefault(common.EnvLogLevel, "info"),
	}

	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}
	return settings, nil
}

func orDefault(v, def string) string {
	if v != "" {
		return v
	}
	return def
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultValue
}

func getInt64OrDefault(key string, defaultValue int64) int64 {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			return i
		}
	}
	return defaultValue
}

func getFloatOrDefault(key string, defaultValue float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultValue
}

func getIntFromEnvOrConfig(key string, configValue, defaultValue int) int {
	if env := os.Getenv(key); env != "" {
		if val, err := strconv.Atoi(env); err == nil {
			return val
		}
	}
	if configValue != 0 {
		return configValue
	}
	return defaultValue
}

func getBoolFromEnvOrConfig(key string, configValue bool) bool {
	if env := os.Getenv(key); env != "" {
		if val, err := strconv.ParseBool(env); err == nil {
			return val
		}
	}
	return configValue
}

func getColorsFromEnvOrConfig(configColors []string) []string {
	if env := os.Getenv(common.EnvColors); env != "" {
		return strings.Split(env, ",")
	}
	return configColors
}

// validateSettings performs range validation of configuration values.
func validateSettings(settings *Settings) error {
	if settings.DataDir == "" {
		return fmt.Errorf("data directory cannot be empty")
	}
	if settings.Filename == "" {
		return fmt.Errorf("data filename cannot be empty")
	}
	if settings.NEstimators <= 0 || settings.NEstimators > common.MaxNEstimators {
		return fmt.Errorf("number of estimators must be between 1 and %d, got %d", common.MaxNEstimators, settings.NEstimators)
	}
	if settings.IQRFactor < 0 {
		return fmt.Errorf("IQR factor must be non-negative, got %f", settings.IQRFactor)
	}
	if settings.NumReps < 0 || settings.NumReps > common.MaxNumReps {
		return fmt.Errorf("number of filter passes must be between 0 and %d, got %d", common.MaxNumReps, settings.NumReps)
	}
	if settings.DPI < common.MinDPI || settings.DPI > common.MaxDPI {
		return fmt.Errorf("figure DPI must be between %d and %d, got %d", common.MinDPI, common.MaxDPI, settings.DPI)
	}
	return nil
}
