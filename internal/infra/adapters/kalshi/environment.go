// Package kalshi ties the Kalshi REST client and streaming manager together.
package kalshi

import (
	"net/url"
	"strings"

	"github.com/coachpo/kalshi-gateway/errs"
	"github.com/coachpo/kalshi-gateway/internal/infra/adapters/kalshi/rest"
	"github.com/coachpo/kalshi-gateway/internal/infra/adapters/kalshi/stream"
)

const (
	demoHost       = "demo-api.kalshi.co"
	productionHost = "api.elections.kalshi.com"
)

// Environment names a deployment: the REST origin and the streaming URL.
type Environment struct {
	Name       string
	RESTOrigin string
	WSURL      string
}

// Demo is the paper-trading environment.
func Demo() Environment {
	return Environment{
		Name:       "demo",
		RESTOrigin: "https://" + demoHost,
		WSURL:      "wss://" + demoHost + stream.WSPath,
	}
}

// Production is the live exchange.
func Production() Environment {
	return Environment{
		Name:       "production",
		RESTOrigin: "https://" + productionHost,
		WSURL:      "wss://" + productionHost + stream.WSPath,
	}
}

// Custom points at arbitrary endpoints, e.g. a local test server.
func Custom(restOrigin, wsURL string) (Environment, error) {
	env := Environment{
		Name:       "custom",
		RESTOrigin: strings.TrimRight(strings.TrimSpace(restOrigin), "/"),
		WSURL:      strings.TrimSpace(wsURL),
	}
	return env, env.Validate()
}

// EnvironmentByName resolves "demo" or "production"/"prod".
func EnvironmentByName(name string) (Environment, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "demo":
		return Demo(), nil
	case "production", "prod", "live":
		return Production(), nil
	default:
		return Environment{}, errs.Kalshi(errs.CodeConfig,
			errs.WithMessage("unknown environment "+name),
			errs.WithRemediation("use demo, production or custom endpoints"))
	}
}

// RESTBaseURL is the origin joined with the REST prefix.
func (e Environment) RESTBaseURL() string {
	return e.RESTOrigin + rest.RESTPrefix
}

// Validate checks both URLs and their schemes.
func (e Environment) Validate() error {
	origin, err := url.Parse(e.RESTOrigin)
	if err != nil || (origin.Scheme != "http" && origin.Scheme != "https") || origin.Host == "" {
		return errs.Kalshi(errs.CodeConfig, errs.WithMessage("invalid rest origin "+e.RESTOrigin), errs.WithCause(err))
	}
	ws, err := url.Parse(e.WSURL)
	if err != nil || (ws.Scheme != "ws" && ws.Scheme != "wss") || ws.Host == "" {
		return errs.Kalshi(errs.CodeConfig, errs.WithMessage("invalid websocket url "+e.WSURL), errs.WithCause(err))
	}
	return nil
}
