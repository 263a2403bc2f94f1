// Package config parses environment variables into tagged structs. The
// service-specific struct, its defaults and its invariants live in
// internal/config; this package only does the env mapping.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v10"
)

// Load fills cfg from the environment using `env` tags. List values split on
// envSeparator.
//
// Example:
//
//	type Config struct {
//	    Port    int      `env:"BACKOFFICE_HTTP_PORT" envDefault:"8010"`
//	    Brokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`
//	}
func Load(cfg any) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse environment: %w", err)
	}
	return nil
}
