// Package config loads service configuration with Viper.
//
// Values come from a YAML file (cmd/<service>/config.yml by default), then an
// optional .env file loaded with godotenv, then the process environment.
// Every mapstructure key of the target struct is bound to its UPPER_SNAKE
// form, so auth.session_secret is read from AUTH_SESSION_SECRET.
//
//	var cfg Config
//	files, err := config.LoadConfig("careerauth", &cfg)
package config
