package workers

import (
	"altus-chat/observability"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

type fixedStats struct{ users, connections int }

func (f fixedStats) Stats() (int, int) { return f.users, f.connections }

func TestHeartbeatWorker_Publishes_Gauges(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	metrics := observability.NewMetrics(prometheus.NewRegistry())
	worker := NewHeartbeatWorker(log, fixedStats{users: 2, connections: 3}, metrics, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan error)
	go func() { stopped <- worker.Run(ctx) }()

	// Then the gauges reflect the registry after a few ticks
	req.Eventually(func() bool {
		return testutil.ToFloat64(metrics.ProcessRSSBytes) > 0
	}, time.Second, 10*time.Millisecond)
	req.Equal(float64(2), testutil.ToFloat64(metrics.OnlineUsers))
	req.Equal(float64(3), testutil.ToFloat64(metrics.LiveConnections))

	cancel()
	req.NoError(<-stopped)
}
