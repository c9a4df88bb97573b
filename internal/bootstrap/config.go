package bootstrap

import (
	"github.com/spf13/viper"
)

type Config struct {
	ServerPort            string `mapstructure:"SERVER_PORT"`
	StockfishPath         string `mapstructure:"STOCKFISH_PATH"`
	EnginePoolSize        int    `mapstructure:"ENGINE_POOL_SIZE"`
	EngineHashMB          int    `mapstructure:"ENGINE_HASH_MB"`
	EngineThreads         int    `mapstructure:"ENGINE_THREADS"`
	EngineTimeoutBaseMS   int    `mapstructure:"ENGINE_TIMEOUT_BASE_MS"`
	EngineTimeoutPerDepth int    `mapstructure:"ENGINE_TIMEOUT_PER_DEPTH_MS"`
	DefaultDepth          int    `mapstructure:"DEFAULT_DEPTH"`
	DefaultMultiPV        int    `mapstructure:"DEFAULT_MULTIPV"`
	EvalCacheTTLSeconds   int    `mapstructure:"EVAL_CACHE_TTL_SECONDS"`
	RedisUrl              string `mapstructure:"REDIS_URL"`
	MongoUri              string `mapstructure:"MONGO_URI"`
	MongoDatabase         string `mapstructure:"MONGO_DATABASE"`
	IsLocalCors           bool   `mapstructure:"LOCAL_CORS"`
	EloKFactor            int    `mapstructure:"ELO_K_FACTOR"`
	EloDefaultRating      int    `mapstructure:"ELO_DEFAULT_RATING"`
}

func Setup(cfgPath string) (*Config, error) {
	viper.SetConfigFile(cfgPath)

	err := viper.ReadInConfig()
	if err != nil {
		return nil, err
	}

	var cfg Config

	err = viper.Unmarshal(&cfg)
	if err != nil {
		return nil, err
	}

	cfg.applyDefaults()

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.ServerPort == "" {
		c.ServerPort = "8080"
	}
	if c.StockfishPath == "" {
		c.StockfishPath = "stockfish"
	}
	if c.EnginePoolSize == 0 {
		c.EnginePoolSize = 2
	}
	if c.EngineHashMB == 0 {
		c.EngineHashMB = 128
	}
	if c.EngineThreads == 0 {
		c.EngineThreads = 1
	}
	if c.EngineTimeoutBaseMS == 0 {
		c.EngineTimeoutBaseMS = 2000
	}
	if c.EngineTimeoutPerDepth == 0 {
		c.EngineTimeoutPerDepth = 1000
	}
	if c.DefaultDepth == 0 {
		c.DefaultDepth = 18
	}
	if c.DefaultMultiPV == 0 {
		c.DefaultMultiPV = 3
	}
	if c.EvalCacheTTLSeconds == 0 {
		c.EvalCacheTTLSeconds = 3600
	}
	if c.MongoDatabase == "" {
		c.MongoDatabase = "chesscoach"
	}
	if c.EloKFactor == 0 {
		c.EloKFactor = 32
	}
	if c.EloDefaultRating == 0 {
		c.EloDefaultRating = 1200
	}
}
