package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestConfigDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.ApplyDefaults()

	assert.Equal(t, "localhost:4317", cfg.Endpoint)
	assert.Equal(t, "grpc", cfg.Protocol)
	assert.Equal(t, "vectord", cfg.ServiceName)
	assert.Equal(t, 1.0, cfg.SamplingRate)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"disabled is always valid", Config{}, false},
		{"enabled with defaults", Config{Enabled: true, Endpoint: "collector:4317", Protocol: "grpc", SamplingRate: 0.5}, false},
		{"enabled without endpoint", Config{Enabled: true, Protocol: "grpc"}, true},
		{"bad protocol", Config{Enabled: true, Endpoint: "collector:4317", Protocol: "carrier-pigeon"}, true},
		{"sampling rate out of range", Config{Enabled: true, Endpoint: "collector:4317", Protocol: "grpc", SamplingRate: 2}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestDisabledTelemetryIsNoop(t *testing.T) {
	tel, err := New(context.Background(), &Config{Enabled: false}, zap.NewNop())
	require.NoError(t, err)
	require.NotNil(t, tel)
	assert.NoError(t, tel.Shutdown(context.Background()))
}

func TestNilShutdownIsSafe(t *testing.T) {
	var tel *Telemetry
	assert.NoError(t, tel.Shutdown(context.Background()))
}

func TestStripScheme(t *testing.T) {
	assert.Equal(t, "collector:4317", stripScheme("https://collector:4317"))
	assert.Equal(t, "collector:4317", stripScheme("http://collector:4317"))
	assert.Equal(t, "collector:4317", stripScheme("collector:4317"))
}
