package config

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/spf13/viper"
)

// LoadConfig loads configuration from file using viper.
// CLI flags > environment > config file > defaults precedence.
func LoadConfig(configPath string) (*RouterConfig, error) {
	v := viper.New()

	// Set defaults matching DefaultRouterConfig
	v.SetDefault("router.workers", runtime.NumCPU())
	v.SetDefault("router.queue_capacity", 8192)
	v.SetDefault("router.env_queue_capacity", 1024)
	v.SetDefault("admin.listen_addr", "127.0.0.1:9081")

	// Bind environment variables with RK_ prefix
	v.SetEnvPrefix("RK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Load config file if provided
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &RouterConfig{
		Workers:          v.GetInt("router.workers"),
		QueueCapacity:    v.GetInt("router.queue_capacity"),
		EnvQueueCapacity: v.GetInt("router.env_queue_capacity"),
		ListenAddr:       v.GetString("admin.listen_addr"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}
