// Package config provides configuration management for RouteKeeper services.
package config

import (
	"fmt"
	"runtime"
)

// RouterConfig holds configuration for the routing daemon.
type RouterConfig struct {
	Workers          int
	QueueCapacity    int
	EnvQueueCapacity int
	ListenAddr       string
}

// DefaultRouterConfig returns configuration with default values.
// Worker count defaults to the core count: routing is CPU-bound.
func DefaultRouterConfig() *RouterConfig {
	return &RouterConfig{
		Workers:          runtime.NumCPU(),
		QueueCapacity:    8192,
		EnvQueueCapacity: 1024,
		ListenAddr:       "127.0.0.1:9081",
	}
}

// Validate checks positive sizes and a usable listen address.
func (c *RouterConfig) Validate() error {
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be positive, got %d", c.Workers)
	}
	if c.QueueCapacity <= 0 {
		return fmt.Errorf("queue_capacity must be positive, got %d", c.QueueCapacity)
	}
	if c.EnvQueueCapacity <= 0 {
		return fmt.Errorf("env_queue_capacity must be positive, got %d", c.EnvQueueCapacity)
	}
	if c.ListenAddr == "" {
		return fmt.Errorf("listen_addr must not be empty")
	}
	return nil
}
