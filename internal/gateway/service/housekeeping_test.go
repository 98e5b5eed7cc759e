package service_test

import (
	"testing"
	"time"

	"github.com/evamind/gateway/internal/gateway/service"
	"github.com/evamind/gateway/pkg/slogx"
	"github.com/stretchr/testify/require"
)

func TestHousekeepingSweep(t *testing.T) {
	calls := 0
	h := service.NewHousekeepingService(slogx.Discard(), 0, map[string]service.Sweeper{
		"a": service.SweeperFunc(func() int { calls++; return 2 }),
		"b": service.SweeperFunc(func() int { calls++; return 0 }),
	})
	require.Equal(t, time.Minute, h.Interval)
	require.Equal(t, 2, h.Sweep())
	require.Equal(t, 2, calls)
}

func TestHousekeepingStartStop(t *testing.T) {
	swept := make(chan struct{}, 1)
	h := service.NewHousekeepingService(slogx.Discard(), 10*time.Millisecond, map[string]service.Sweeper{
		"signal": service.SweeperFunc(func() int {
			select {
			case swept <- struct{}{}:
			default:
			}
			return 0
		}),
	})
	h.Start()

	select {
	case <-swept:
	case <-time.After(2 * time.Second):
		t.Fatal("sweeper never ran")
	}
	h.Stop()
}
