// Package config handles application configuration loading and validation.
//
// Configuration is loaded from config.yml and validated using struct tags.
// A .env file and RAILLIVE_* environment variables can override file values,
// which keeps container deployments free of mounted config files.
package config
