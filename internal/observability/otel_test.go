package observability

import (
	"context"
	"testing"

	"github.com/akontos/go-progress-backend/internal/config"
)

func TestSetupOTel_DisabledIsNoop(t *testing.T) {
	shutdown, err := SetupOTel(context.Background(), config.OTELConfig{Enabled: false}, "test")
	if err != nil {
		t.Fatalf("SetupOTel: %v", err)
	}
	if shutdown == nil {
		t.Fatalf("shutdown must be callable even when disabled")
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("noop shutdown errored: %v", err)
	}
}

func TestSetupOTel_EnabledBuildsProvider(t *testing.T) {
	// The exporter connects lazily, so setup succeeds without a collector.
	cfg := config.OTELConfig{
		Enabled:     true,
		Endpoint:    "localhost:4317",
		Insecure:    true,
		ServiceName: "otel-test",
		SampleRatio: 0.5,
	}
	shutdown, err := SetupOTel(context.Background(), cfg, "test")
	if err != nil {
		t.Fatalf("SetupOTel: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel() // don't wait for a collector that isn't there
	_ = shutdown(ctx)
}
