package utils

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type CollectorConfig struct {
	Listener   ListenerYAMLConfig   `yaml:"listener"`
	API        APIYAMLConfig        `yaml:"api"`
	Storage    StorageYAMLConfig    `yaml:"storage"`
	Metrics    MetricsYAMLConfig    `yaml:"metrics"`
	Supervisor SupervisorYAMLConfig `yaml:"supervisor"`
	Logging    LoggingYAMLConfig    `yaml:"logging"`
}

type ListenerYAMLConfig struct {
	Host                string `yaml:"host"`
	Port                int    `yaml:"port"`
	Vendor              string `yaml:"vendor"`
	Workers             int    `yaml:"workers"`
	WriteTimeoutSeconds int    `yaml:"write_timeout_seconds"`
}

type APIYAMLConfig struct {
	Port                string `yaml:"port"`
	RecordPageSize      int    `yaml:"record_page_size"`
	AggregatePageSize   int    `yaml:"aggregate_page_size"`
	QueryTimeoutSeconds int    `yaml:"query_timeout_seconds"`
}

type StorageYAMLConfig struct {
	Path string `yaml:"path"`
}

type MetricsYAMLConfig struct {
	Enabled bool   `yaml:"enabled"`
	Port    string `yaml:"port"`
}

type SupervisorYAMLConfig struct {
	PidFile string   `yaml:"pid_file"`
	Command []string `yaml:"command"`
}

type LoggingYAMLConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func LoadCollectorConfig(filename string) (*CollectorConfig, error) {
	if filename == "" {
		filename = "configs/collector.yaml"
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %v", filename, err)
	}

	var config CollectorConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config file %s: %v", filename, err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %v", err)
	}

	return &config, nil
}

func (c *CollectorConfig) Validate() error {
	if c.Listener.Host == "" {
		c.Listener.Host = "0.0.0.0"
	}
	if c.Listener.Port <= 0 {
		c.Listener.Port = 1514
	}
	if c.Listener.Vendor == "" {
		c.Listener.Vendor = "fortinet"
	}
	if c.Listener.Workers <= 0 {
		c.Listener.Workers = 8
	}
	if c.Listener.WriteTimeoutSeconds <= 0 {
		c.Listener.WriteTimeoutSeconds = 5
	}

	if c.API.Port == "" {
		c.API.Port = "5080"
	}
	if c.API.RecordPageSize <= 0 {
		c.API.RecordPageSize = 50
	}
	if c.API.AggregatePageSize <= 0 {
		c.API.AggregatePageSize = 20
	}
	if c.API.QueryTimeoutSeconds <= 0 {
		c.API.QueryTimeoutSeconds = 10
	}

	if c.Storage.Path == "" {
		c.Storage.Path = "collector.db"
	}

	if c.Metrics.Port == "" {
		c.Metrics.Port = "9150"
	}

	if c.Supervisor.PidFile == "" {
		c.Supervisor.PidFile = "/tmp/syslog_collector.pid"
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "INFO"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}

	return nil
}

func GetDefaultCollectorConfig() *CollectorConfig {
	config := &CollectorConfig{}
	_ = config.Validate()
	return config
}
