package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// QueryServiceConfig points the engine at the metrics query service
type QueryServiceConfig struct {
	BaseURL          string `toml:"BaseURL"`
	TimeoutInSeconds uint32 `toml:"TimeoutInSeconds"`
}

// ViewConfig holds the initial parameter set of the dashboard view
type ViewConfig struct {
	ContainerIDs             []string `toml:"ContainerIDs"`
	TimeRange                string   `toml:"TimeRange"`
	SelectedMetric           string   `toml:"SelectedMetric"`
	PredictionsEnabled       bool     `toml:"PredictionsEnabled"`
	PredictionHours          int      `toml:"PredictionHours"`
	AutoRefreshEnabled       bool     `toml:"AutoRefreshEnabled"`
	RefreshIntervalInSeconds uint32   `toml:"RefreshIntervalInSeconds"`
}

// LiveUpdateConfig drives the push-channel bridge
type LiveUpdateConfig struct {
	Enabled                 bool   `toml:"Enabled"`
	Endpoint                string `toml:"Endpoint"`
	ReconnectBaseInSeconds  uint32 `toml:"ReconnectBaseInSeconds"`
	ReconnectMaxInSeconds   uint32 `toml:"ReconnectMaxInSeconds"`
	IncludeHealthScores     bool   `toml:"IncludeHealthScores"`
	IncludePredictions      bool   `toml:"IncludePredictions"`
	IncludeAlerts           bool   `toml:"IncludeAlerts"`
	UpdateIntervalInSeconds int    `toml:"UpdateIntervalInSeconds"`
}

// Config maps to the config.toml file for the dashboard engine
type Config struct {
	ListenAddress string             `toml:"ListenAddress"`
	QueryService  QueryServiceConfig `toml:"QueryService"`
	View          ViewConfig         `toml:"View"`
	LiveUpdate    LiveUpdateConfig   `toml:"LiveUpdate"`
}

// LoadConfig parses a TOML file into the Config struct
func LoadConfig(filepath string) (*Config, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", filepath, err)
	}

	var cfg Config
	err = toml.Unmarshal(data, &cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	return &cfg, nil
}
