package kalshi

import (
	"github.com/coachpo/kalshi-gateway/errs"
	"github.com/coachpo/kalshi-gateway/internal/infra/adapters/kalshi/auth"
	"github.com/coachpo/kalshi-gateway/internal/infra/adapters/kalshi/rest"
	"github.com/coachpo/kalshi-gateway/internal/infra/adapters/kalshi/stream"
	"github.com/coachpo/kalshi-gateway/internal/infra/adapters/kalshi/wire"
	"github.com/coachpo/kalshi-gateway/internal/infra/config"
)

// EnvironmentFromConfig resolves the configured endpoints.
func EnvironmentFromConfig(cfg config.EnvironmentConfig) (Environment, error) {
	if cfg.Name.Normalize() == config.EnvCustom {
		return Custom(cfg.RESTOrigin, cfg.WSURL)
	}
	return EnvironmentByName(string(cfg.Name))
}

// SignerFromConfig loads the configured key. It returns nil, nil when no credential is configured.
func SignerFromConfig(cfg config.CredentialsConfig) (*auth.Signer, error) {
	if !cfg.Configured() {
		return nil, nil
	}
	switch {
	case cfg.PrivateKey != "":
		return auth.LoadPEM(cfg.KeyID, cfg.PrivateKey)
	case cfg.PrivateKeyPath != "":
		return auth.LoadPEMFile(cfg.KeyID, cfg.PrivateKeyPath)
	default:
		return nil, errs.Kalshi(errs.CodeConfig, errs.WithMessage("credentials.keyID requires a private key"))
	}
}

// OptionsFromConfig maps an application config onto client options.
func OptionsFromConfig(cfg config.AppConfig) (Options, error) {
	env, err := EnvironmentFromConfig(cfg.Environment)
	if err != nil {
		return Options{}, err
	}
	signer, err := SignerFromConfig(cfg.Credentials)
	if err != nil {
		return Options{}, err
	}

	mode := stream.DecodeOwned
	if cfg.Stream.Mode == string(stream.DecodeBorrowed) {
		mode = stream.DecodeBorrowed
	}
	return Options{
		Environment: env,
		Signer:      signer,
		REST: rest.Options{
			Limits:         &rest.RateLimits{ReadRPS: cfg.REST.ReadRPS, WriteRPS: cfg.REST.WriteRPS},
			Timeout:        cfg.REST.Timeout,
			SeriesCacheTTL: cfg.REST.SeriesCacheTTL,
		},
		Stream: stream.Options{
			Policy: stream.Policy{
				InitialDelay: cfg.Stream.Reconnect.InitialDelay,
				MaxDelay:     cfg.Stream.Reconnect.MaxDelay,
				MaxAttempts:  cfg.Stream.Reconnect.MaxAttempts,
				Jitter:       cfg.Stream.Reconnect.Jitter,
			},
			Mode:             mode,
			HandshakeTimeout: cfg.Stream.HandshakeTimeout,
			WriteTimeout:     cfg.Stream.WriteTimeout,
			ReadLimit:        cfg.Stream.ReadLimit,
		},
	}, nil
}

// SubscriptionsFromConfig converts configured subscriptions to wire parameters. Channel names are
// checked against the known set.
func SubscriptionsFromConfig(subs []config.SubscriptionConfig) ([]wire.SubscriptionParams, error) {
	out := make([]wire.SubscriptionParams, 0, len(subs))
	for _, sub := range subs {
		params := wire.SubscriptionParams{
			MarketTickers: append([]string(nil), sub.MarketTickers...),
			EventTickers:  append([]string(nil), sub.EventTickers...),
		}
		for _, name := range sub.Channels {
			ch := wire.Channel(name)
			if !ch.Known() {
				return nil, errs.Kalshi(errs.CodeConfig, errs.WithMessage("unknown channel "+name))
			}
			params.Channels = append(params.Channels, ch)
		}
		out = append(out, params)
	}
	return out, nil
}
