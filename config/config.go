package config

import (
	"fmt"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
	"gopkg.in/ini.v1"
)

const (
	DefaultPath = "conf/config.ini"
	// EnvPath overrides DefaultPath when --config is not given.
	EnvPath = "HEATSINK_CONFIG"
)

type Config struct {
	Server   ServerConfig
	Model    ModelConfig
	Training TrainingConfig
	Store    StoreConfig
	Log      LogConfig
}

type ServerConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type ModelConfig struct {
	Checkpoint string
}

type TrainingConfig struct {
	Samples      int
	Iterations   int
	LearningRate float64
	Seed         int64
	LogEvery     int
}

type StoreConfig struct {
	Path string
}

type LogConfig struct {
	Level  string
	Format string
}

// Path picks the config file: explicit flag, then $HEATSINK_CONFIG, then DefaultPath.
func Path(flag string) string {
	if flag != "" {
		return flag
	}
	if p := os.Getenv(EnvPath); p != "" {
		return p
	}
	return DefaultPath
}

// Load 读取配置文件，文件不存在时全部使用默认值
func Load(path string) (*Config, error) {
	file, err := ini.LooseLoad(path)
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	file.ValueMapper = os.ExpandEnv
	return loadCfg(file), nil
}

// Parse reads configuration from ini source text.
func Parse(data []byte) (*Config, error) {
	file, err := ini.Load(data)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	file.ValueMapper = os.ExpandEnv
	return loadCfg(file), nil
}

func loadCfg(file *ini.File) *Config {
	server := file.Section("server")
	model := file.Section("model")
	training := file.Section("training")
	store := file.Section("store")
	logging := file.Section("log")
	return &Config{
		Server: ServerConfig{
			Addr:         server.Key("addr").MustString(":9000"),
			ReadTimeout:  server.Key("read_timeout").MustDuration(10 * time.Second),
			WriteTimeout: server.Key("write_timeout").MustDuration(10 * time.Second),
		},
		Model: ModelConfig{
			Checkpoint: model.Key("checkpoint").MustString("pgnn.json"),
		},
		Training: TrainingConfig{
			Samples:      training.Key("samples").MustInt(2000),
			Iterations:   training.Key("iterations").MustInt(2000),
			LearningRate: training.Key("learning_rate").MustFloat64(1e-3),
			Seed:         training.Key("seed").MustInt64(42),
			LogEvery:     training.Key("log_every").MustInt(200),
		},
		Store: StoreConfig{
			Path: store.Key("path").MustString("heatsink.db"),
		},
		Log: LogConfig{
			Level:  logging.Key("level").MustString("info"),
			Format: logging.Key("format").In("text", []string{"text", "json"}),
		},
	}
}

// SetupLogger applies the [log] section to the standard logrus logger.
func (c *Config) SetupLogger() error {
	level, err := log.ParseLevel(c.Log.Level)
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	log.SetLevel(level)
	if c.Log.Format == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	return nil
}
