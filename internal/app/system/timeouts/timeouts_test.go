package timeouts

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestConfigure_IgnoresZero(t *testing.T) {
	t.Cleanup(Reset)

	Configure(Config{Short: 7 * time.Second, Batch: time.Minute})
	if Short() != 7*time.Second {
		t.Errorf("Short: got %v, want 7s", Short())
	}
	if Batch() != time.Minute {
		t.Errorf("Batch: got %v, want 1m", Batch())
	}
	if Medium() != DefaultMedium || Ping() != DefaultPing || Long() != DefaultLong {
		t.Errorf("unset values should keep defaults, got %+v", Current())
	}

	Reset()
	if Current() != defaults() {
		t.Errorf("Reset: got %+v", Current())
	}
}

func TestWithTimeout_LogsDeadline(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	log := zap.New(core)

	ctx, cancel := WithTimeout(context.Background(), time.Millisecond, log, "slow op")
	<-ctx.Done()
	cancel()
	if logs.Len() != 1 || logs.All()[0].ContextMap()["operation"] != "slow op" {
		t.Errorf("expected one timeout warning, got %v", logs.All())
	}

	_, cancel = WithTimeout(context.Background(), time.Minute, log, "fast op")
	cancel()
	if logs.Len() != 1 {
		t.Errorf("cancel before deadline should not log, got %d entries", logs.Len())
	}
}
