package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type LogFormat int

const (
	ColorizedOutput LogFormat = iota
	PlaintextOutput
	JSONOutput
)

type NamedLevel struct {
	Name  string `yaml:"name"`
	Level string `yaml:"level"`
}

type Config struct {
	Production   bool         `yaml:"production"`
	DefaultLevel string       `yaml:"defaultLevel"`
	Levels       []NamedLevel `yaml:"levels"` // first match will be used
	Format       LogFormat    `yaml:"format"`
}

// ApplyGlobal rebuilds the default logger from the config and
// re-levels all named loggers
func (l Config) ApplyGlobal() {
	var conf zap.Config
	if l.Production {
		conf = zap.NewProductionConfig()
	} else {
		conf = zap.NewDevelopmentConfig()
	}
	switch l.Format {
	case PlaintextOutput:
		conf.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		conf.Encoding = "console"
	case JSONOutput:
		conf.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		conf.Encoding = "json"
	default:
		conf.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		conf.Encoding = "console"
	}
	if l.DefaultLevel != "" {
		if lvl, err := zap.ParseAtomicLevel(l.DefaultLevel); err == nil {
			conf.Level = lvl
		}
	}
	lg, err := conf.Build()
	if err != nil {
		return
	}
	SetDefault(lg)
	if len(l.Levels) > 0 {
		SetNamedLevels(l.Levels)
	}
}
