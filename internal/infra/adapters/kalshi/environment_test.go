package kalshi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/coachpo/kalshi-gateway/errs"
	"github.com/coachpo/kalshi-gateway/internal/infra/adapters/kalshi/rest"
	"github.com/coachpo/kalshi-gateway/internal/infra/adapters/kalshi/stream"
)

func TestBuiltInEnvironments(t *testing.T) {
	demo := Demo()
	require.NoError(t, demo.Validate())
	require.Equal(t, "https://demo-api.kalshi.co/trade-api/v2", demo.RESTBaseURL())
	require.Equal(t, "wss://demo-api.kalshi.co/trade-api/ws/v2", demo.WSURL)

	prod := Production()
	require.NoError(t, prod.Validate())
	require.Equal(t, "https://api.elections.kalshi.com/trade-api/v2", prod.RESTBaseURL())
	require.Equal(t, "wss://api.elections.kalshi.com/trade-api/ws/v2", prod.WSURL)
}

func TestEnvironmentByName(t *testing.T) {
	env, err := EnvironmentByName("PROD")
	require.NoError(t, err)
	require.Equal(t, Production(), env)

	env, err = EnvironmentByName("")
	require.NoError(t, err)
	require.Equal(t, Demo(), env)

	_, err = EnvironmentByName("staging")
	require.True(t, errs.IsCode(err, errs.CodeConfig))
}

func TestCustomEnvironmentValidation(t *testing.T) {
	env, err := Custom("http://127.0.0.1:8080/", "ws://127.0.0.1:8080/trade-api/ws/v2")
	require.NoError(t, err)
	require.Equal(t, "http://127.0.0.1:8080/trade-api/v2", env.RESTBaseURL())

	_, err = Custom("ftp://example.com", "ws://example.com")
	require.True(t, errs.IsCode(err, errs.CodeConfig))
	_, err = Custom("https://example.com", "https://example.com")
	require.True(t, errs.IsCode(err, errs.CodeConfig))
}

func TestClientWiresEnvironment(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, rest.RESTPrefix+"/exchange/status", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"exchange_active":true,"trading_active":true}`))
	}))
	defer srv.Close()

	env, err := Custom(srv.URL, "ws"+srv.URL[len("http"):]+stream.WSPath)
	require.NoError(t, err)
	c, err := NewClient(Options{
		Environment: env,
		REST:        rest.Options{Logger: rest.DiscardLogger()},
		Stream:      stream.Options{Logger: stream.DiscardLogger()},
	})
	require.NoError(t, err)
	defer func() { require.NoError(t, c.Close()) }()

	status, err := c.REST().GetExchangeStatus(context.Background())
	require.NoError(t, err)
	require.True(t, status.TradingActive)
	require.False(t, c.REST().Authenticated())
	require.False(t, c.Stream().State().Connected)
	require.Equal(t, "custom", c.Environment().Name)
}
