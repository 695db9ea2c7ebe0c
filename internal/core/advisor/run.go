package advisor

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/tornwatch/tornwatch/internal/core"
	"github.com/tornwatch/tornwatch/internal/core/engine"
)

// RunCycle executes one full advisory pass: decisions first, then the
// market watch list.
func (a *Advisor) RunCycle(ctx context.Context) (*core.CycleReport, error) {
	recs, err := a.DecideAndRecommend(ctx)
	if err != nil {
		return nil, err
	}
	alerts, err := a.WatchMarket(ctx)
	if err != nil {
		return nil, err
	}
	return &core.CycleReport{Recommendations: recs, Alerts: alerts}, nil
}

// Run loops RunCycle every interval until the context ends. Cycle errors are
// logged and absorbed so a flaky API does not kill the loop; a disabled
// credential stops it, since no further cycle can succeed.
func (a *Advisor) Run(ctx context.Context, interval time.Duration) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if interval <= 0 {
		interval = 30 * time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		report, err := a.RunCycle(ctx)
		switch {
		case err == nil:
			a.logger().Info("cycle complete",
				zap.Int("recommendations", len(report.Recommendations)),
				zap.Int("alerts", len(report.Alerts)))
		case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
			return nil
		case engine.IsKind(err, engine.KindCredentialDisabled):
			a.logger().Error("credential disabled, stopping", zap.Error(err))
			return err
		default:
			a.logger().Warn("cycle failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
