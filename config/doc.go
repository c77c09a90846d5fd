// Package config loads application configuration with Viper.
//
// Load merges, in increasing precedence, registered defaults, a YAML file,
// a .env file and the process environment into a struct with mapstructure
// tags. Environment keys are the upper-cased dotted path with the prefix,
// so client.retry_delay is read from REQKIT_CLIENT_RETRY_DELAY.
//
//	var cfg AppConfig
//	err := config.Load("reqkit", &cfg, config.WithConfigFile("reqkit.yml"))
package config
