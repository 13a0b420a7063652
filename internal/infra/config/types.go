package config

import "strings"

// Environment names the Kalshi deployment the gateway talks to.
type Environment string

const (
	// EnvDemo targets the demo exchange.
	EnvDemo Environment = "demo"
	// EnvProduction targets the live exchange.
	EnvProduction Environment = "production"
	// EnvCustom targets explicitly configured endpoints.
	EnvCustom Environment = "custom"
)

// Normalize lowercases the name and folds aliases. The empty name selects demo.
func (e Environment) Normalize() Environment {
	switch normalized := strings.ToLower(strings.TrimSpace(string(e))); normalized {
	case "":
		return EnvDemo
	case "prod", "live":
		return EnvProduction
	default:
		return Environment(normalized)
	}
}
