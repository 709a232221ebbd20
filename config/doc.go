// Package config loads application configuration from a YAML file, an
// optional .env file and the environment.
//
// Values are layered: defaults passed with WithDefaults, then config.yml, then
// environment variables. With WithEnvPrefix("FLOWPLAY") the variable
// FLOWPLAY_BRIDGE_CAPACITY sets bridge.capacity.
//
//	var cfg AppConfig
//	err := config.LoadConfig("flowplay", &cfg, config.WithEnvPrefix("FLOWPLAY"))
package config
