package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config is the top-level daemonize configuration.
type Config struct {
	PIDFile            string `mapstructure:"pid_file"`
	WorkDir            string `mapstructure:"work_dir"`
	Umask              int    `mapstructure:"umask"`
	IntervalSeconds    int    `mapstructure:"interval_seconds"`
	Verbose            bool   `mapstructure:"verbose"`
	StopTimeoutSeconds int    `mapstructure:"stop_timeout_seconds"`
	LogFile            string `mapstructure:"log_file"`
	JournalPath        string `mapstructure:"journal_path"`
	Output             Output `mapstructure:"output"`
}

// Output defines output preferences.
type Output struct {
	Color bool `mapstructure:"color"`
}

// expandPath replaces a leading ~ with the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

// Load reads configuration from the given path (or the default location)
// and returns a Config with all defaults applied. Settings may also be
// supplied through DAEMONIZE_* environment variables.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	// Set defaults.
	v.SetDefault("pid_file", DefaultPIDFile)
	v.SetDefault("work_dir", DefaultWorkDir)
	v.SetDefault("umask", DefaultUmask)
	v.SetDefault("interval_seconds", DefaultIntervalSeconds)
	v.SetDefault("verbose", DefaultVerbose)
	v.SetDefault("stop_timeout_seconds", DefaultStopTimeoutSeconds)
	v.SetDefault("log_file", DefaultLogFile())
	v.SetDefault("journal_path", DefaultJournalPath())
	v.SetDefault("output.color", DefaultOutput.Color)

	if cfgFile != "" {
		v.SetConfigFile(expandPath(cfgFile))
	} else {
		configDir := expandPath(DefaultConfigDir)
		v.AddConfigPath(configDir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("DAEMONIZE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file if it exists; missing file is not an error.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// Only return error for problems other than file not found.
			if !os.IsNotExist(err) {
				return nil, err
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// Expand paths.
	cfg.PIDFile = expandPath(cfg.PIDFile)
	cfg.WorkDir = expandPath(cfg.WorkDir)
	cfg.LogFile = expandPath(cfg.LogFile)
	cfg.JournalPath = expandPath(cfg.JournalPath)

	return &cfg, nil
}

// ConfigDir returns the expanded configuration directory.
func ConfigDir() string {
	return expandPath(DefaultConfigDir)
}
