package container

import (
	"context"
	"testing"

	"partselect/parser/internal/config"
	"partselect/parser/internal/fetcher"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_HTTPEngineWithoutBackends(t *testing.T) {
	cfg := &config.Config{
		Fetcher: config.FetcherConfig{
			Engine:                config.EngineHTTP,
			BaseURL:               "https://www.partselect.com",
			Timeout:               5,
			MaxWorkers:            1,
			MaxRequestsPerSecond:  1,
			CircuitBreakerMinutes: 30,
		},
		Cache: config.CacheConfig{Enabled: true, TTLMinutes: 30},
	}

	app, err := New(context.Background(), cfg)
	require.NoError(t, err)

	assert.IsType(t, &fetcher.HTTPFetcher{}, app.Fetcher)
	assert.NotNil(t, app.Cache)
	assert.Nil(t, app.Repository)
	assert.Nil(t, app.Queue)
	require.NotNil(t, app.Service)

	assert.Error(t, app.Run(context.Background()))
	assert.NoError(t, app.Close())
}
