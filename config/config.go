package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/deltapad/go-deltapad/app"
	"github.com/deltapad/go-deltapad/app/logger"
	"github.com/deltapad/go-deltapad/metric"
	"github.com/deltapad/go-deltapad/service/history"
	"github.com/deltapad/go-deltapad/service/stream"
)

const CName = "config"

func NewFromFile(path string) (c *Config, err error) {
	c = &Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err = yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("can't parse config file '%s': %w", path, err)
	}
	return
}

type Config struct {
	Logger  logger.Config  `yaml:"logger"`
	Metric  metric.Config  `yaml:"metric"`
	Stream  stream.Config  `yaml:"stream"`
	History history.Config `yaml:"history"`
}

func (c *Config) Init(a *app.App) (err error) {
	c.Logger.ApplyGlobal()
	return nil
}

func (c *Config) Name() (name string) {
	return CName
}

func (c *Config) GetMetric() metric.Config {
	return c.Metric
}

func (c *Config) GetStream() stream.Config {
	return c.Stream
}

func (c *Config) GetHistory() history.Config {
	return c.History
}
