package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/hotel-reservation-engine/internal/config"
)

func TestInitDisabledIsNoop(t *testing.T) {
	shutdown, err := Init(context.Background(), config.TelemetryConfig{Enabled: false})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestInitEnabledBuildsProviders(t *testing.T) {
	// exporters connect lazily, so no collector is needed
	shutdown, err := Init(context.Background(), config.TelemetryConfig{
		Enabled:      true,
		ServiceName:  "test",
		OTLPEndpoint: "127.0.0.1:1",
	})
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 0)
	defer cancel()
	_ = shutdown(ctx)
}
