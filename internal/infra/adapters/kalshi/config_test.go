package kalshi

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/coachpo/kalshi-gateway/errs"
	"github.com/coachpo/kalshi-gateway/internal/infra/adapters/kalshi/stream"
	"github.com/coachpo/kalshi-gateway/internal/infra/adapters/kalshi/wire"
	"github.com/coachpo/kalshi-gateway/internal/infra/config"
	"github.com/coachpo/kalshi-gateway/internal/testutil"
)

func TestOptionsFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Environment.Name = config.EnvProduction
	cfg.Credentials = config.CredentialsConfig{KeyID: "key-1", PrivateKey: testutil.PKCS8PEM(t)}
	cfg.Stream.Mode = "borrowed"
	cfg.Stream.Reconnect = config.ReconnectConfig{InitialDelay: 2 * time.Second, MaxDelay: time.Minute, MaxAttempts: 3, Jitter: 0.1}
	cfg.REST.ReadRPS = 7

	opts, err := OptionsFromConfig(cfg)
	require.NoError(t, err)
	require.Equal(t, Production(), opts.Environment)
	require.NotNil(t, opts.Signer)
	require.Equal(t, "key-1", opts.Signer.KeyID())
	require.Equal(t, stream.DecodeBorrowed, opts.Stream.Mode)
	require.Equal(t, stream.Policy{InitialDelay: 2 * time.Second, MaxDelay: time.Minute, MaxAttempts: 3, Jitter: 0.1}, opts.Stream.Policy)
	require.Equal(t, 7.0, opts.REST.Limits.ReadRPS)
	require.Equal(t, 10.0, opts.REST.Limits.WriteRPS)
}

func TestSignerFromConfig(t *testing.T) {
	signer, err := SignerFromConfig(config.CredentialsConfig{})
	require.NoError(t, err)
	require.Nil(t, signer)

	path := filepath.Join(t.TempDir(), "key.pem")
	require.NoError(t, os.WriteFile(path, []byte(testutil.PKCS1PEM(t)), 0o600))
	signer, err = SignerFromConfig(config.CredentialsConfig{KeyID: "file-key", PrivateKeyPath: path})
	require.NoError(t, err)
	require.Equal(t, "file-key", signer.KeyID())

	_, err = SignerFromConfig(config.CredentialsConfig{KeyID: "bad", PrivateKey: "not pem"})
	require.True(t, errs.IsCode(err, errs.CodeConfig))
}

func TestEnvironmentFromConfigCustom(t *testing.T) {
	env, err := EnvironmentFromConfig(config.EnvironmentConfig{
		Name:       config.EnvCustom,
		RESTOrigin: "http://localhost:9000",
		WSURL:      "ws://localhost:9000/trade-api/ws/v2",
	})
	require.NoError(t, err)
	require.Equal(t, "custom", env.Name)
	require.Equal(t, "http://localhost:9000/trade-api/v2", env.RESTBaseURL())
}

func TestSubscriptionsFromConfig(t *testing.T) {
	params, err := SubscriptionsFromConfig([]config.SubscriptionConfig{
		{Channels: []string{"orderbook_delta", "ticker"}, MarketTickers: []string{"KXBTC-25"}},
	})
	require.NoError(t, err)
	require.Len(t, params, 1)
	require.Equal(t, []wire.Channel{wire.ChannelOrderbookDelta, wire.ChannelTicker}, params[0].Channels)
	require.Equal(t, []string{"KXBTC-25"}, params[0].MarketTickers)

	_, err = SubscriptionsFromConfig([]config.SubscriptionConfig{{Channels: []string{"level3"}}})
	require.True(t, errs.IsCode(err, errs.CodeConfig))
}
