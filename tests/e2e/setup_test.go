package e2e

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/light-bringer/dynprice-service/internal/app/pricing/scheduler"
	"github.com/light-bringer/dynprice-service/internal/app/pricing/usecases/decay_prices"
	"github.com/light-bringer/dynprice-service/internal/config"
	"github.com/light-bringer/dynprice-service/internal/pkg/clock"
	"github.com/light-bringer/dynprice-service/internal/services"
	"github.com/light-bringer/dynprice-service/tests/testutil"
)

// suite runs the fully wired service on the in-memory store with a controllable
// clock and decay trigger.
type suite struct {
	*services.ServiceOptions

	Clock   *clock.MockClock
	trigger *scheduler.ManualTrigger
	reports chan decay_prices.SweepReport
}

func setupTest(t *testing.T) *suite {
	t.Helper()

	cfg, err := config.Load(t.TempDir())
	require.NoError(t, err)
	cfg.Storage.Driver = config.DriverMemory

	s := &suite{
		Clock:   testutil.NewFixedClock(testutil.OpeningTime),
		trigger: scheduler.NewManualTrigger(),
		reports: make(chan decay_prices.SweepReport, 1),
	}

	svc, err := services.NewServiceOptions(context.Background(), cfg, nil,
		services.WithClock(s.Clock),
		services.WithTrigger(s.trigger),
		services.WithSweepObserver(func(r decay_prices.SweepReport, err error) {
			if err == nil {
				s.reports <- r
			}
		}),
	)
	require.NoError(t, err)
	s.ServiceOptions = svc

	require.NoError(t, svc.Scheduler.Start(context.Background()))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		require.NoError(t, svc.Scheduler.Stop(ctx))
		svc.Close()
	})
	return s
}

// sweep fires one decay tick and waits for its report.
func (s *suite) sweep(t *testing.T) decay_prices.SweepReport {
	t.Helper()
	require.True(t, s.trigger.Fire(s.Clock.Now()), "a tick is still pending")
	select {
	case r := <-s.reports:
		return r
	case <-time.After(5 * time.Second):
		t.Fatal("decay sweep did not finish")
		return decay_prices.SweepReport{}
	}
}
