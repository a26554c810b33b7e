// Package config loads StreetSlim's TOML configuration the way
// Fast-MBTiler's initConf did, generalized from a download task's
// settings to a profiling run's settings.
package config

import (
	"os"
	"runtime"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Config is the fully-resolved set of knobs a run needs.
type Config struct {
	AppTitle string

	Workers   int
	BatchSize int

	OutputDirectory string

	ProfileBackend string // "sqlite" or "mysql"
	ProfileDSN     string

	RedisAddr string // empty disables checkpointing

	StatusListen string // empty disables the HTTP status server

	SQLDriverName string // driver name the MBTiles driver opens the staged file with

	LogFile string
}

// Load reads cfgFile (TOML) and environment overrides into a Config,
// applying the same style of defaults Fast-MBTiler's initConf used.
func Load(cfgFile string) (*Config, error) {
	if _, err := os.Stat(cfgFile); os.IsNotExist(err) {
		log.Warnf("config file(%s) not exist, using defaults", cfgFile)
	}

	viper.SetConfigType("toml")
	viper.SetConfigFile(cfgFile)
	viper.AutomaticEnv()
	if err := viper.ReadInConfig(); err != nil {
		log.Warnf("read config file(%s) error, details: %s", viper.ConfigFileUsed(), err)
	}

	viper.SetDefault("app.title", "StreetSlim MBTiles Profiler")
	viper.SetDefault("task.workers", runtime.NumCPU())
	viper.SetDefault("task.batch_size", 100)
	viper.SetDefault("output.directory", "output")
	viper.SetDefault("profile.backend", "sqlite")
	viper.SetDefault("profile.dsn", "profiles.db")
	viper.SetDefault("redis.addr", "")
	viper.SetDefault("status.listen", "")
	viper.SetDefault("db.driver", "spatialite")
	viper.SetDefault("log.file", "streetslim.log")

	cfg := &Config{
		AppTitle:        viper.GetString("app.title"),
		Workers:         viper.GetInt("task.workers"),
		BatchSize:       viper.GetInt("task.batch_size"),
		OutputDirectory: viper.GetString("output.directory"),
		ProfileBackend:  viper.GetString("profile.backend"),
		ProfileDSN:      viper.GetString("profile.dsn"),
		RedisAddr:       viper.GetString("redis.addr"),
		StatusListen:    viper.GetString("status.listen"),
		SQLDriverName:   viper.GetString("db.driver"),
		LogFile:         viper.GetString("log.file"),
	}

	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}

	return cfg, nil
}
