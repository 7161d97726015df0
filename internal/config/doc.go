// Package config defines the application's configuration structure and
// provides functionality to load configuration from environment variables
// and config files using viper, with struct-level validation.
package config
