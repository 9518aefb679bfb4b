package observability

import (
	"context"
	"errors"
	"testing"

	"wagerbot/config"
	"wagerbot/models"
	"wagerbot/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestProvider(t *testing.T) (*MetricsProvider, *sdkmetric.ManualReader) {
	t.Helper()
	cfg := config.NewTestConfig()
	cfg.OTelEnabled = true

	reader := sdkmetric.NewManualReader()
	mp := NewMetricsProvider(cfg)
	require.NoError(t, mp.initWithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	return mp, reader
}

// sums collects every Int64 sum data point keyed by metric name
func sums(t *testing.T, reader *sdkmetric.ManualReader) map[string]int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := make(map[string]int64)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				for _, dp := range data.DataPoints {
					out[m.Name] += dp.Value
				}
			case metricdata.Gauge[int64]:
				for _, dp := range data.DataPoints {
					out[m.Name] += dp.Value
				}
			}
		}
	}
	return out
}

func TestMetricsProvider_Sessions(t *testing.T) {
	ctx := context.Background()
	mp, reader := newTestProvider(t)

	mp.SessionStarted(ctx, models.GameTypeBlackjack)
	mp.SessionRejected(ctx, models.GameTypeMines, "conflict")
	mp.SessionSettled(ctx, models.GameTypeBlackjack, session.Outcome{
		Kind: models.OutcomeWin, Staked: 100, Payout: 250, Net: 150,
	}, false)
	mp.SessionSettled(ctx, models.GameTypeWheel, session.Outcome{
		Kind: models.OutcomeLoss, Staked: 300, Net: -300,
	}, false)
	mp.SessionSettled(ctx, models.GameTypeMines, session.Outcome{
		Kind: models.OutcomeRefund, Staked: 500, Payout: 500,
	}, true)
	require.NoError(t, mp.ObserveActiveSessions(func() int { return 3 }))

	got := sums(t, reader)
	assert.Equal(t, int64(1), got[SessionsStartedTotal])
	assert.Equal(t, int64(1), got[SessionsRejectedTotal])
	assert.Equal(t, int64(3), got[SessionsSettledTotal])
	assert.Equal(t, int64(400), got[WagerStakedTotal], "refunds are not wagered volume")
	assert.Equal(t, int64(450), got[WagerNetTotal])
	assert.Equal(t, int64(3), got[SessionsActive])
}

func TestMetricsProvider_Accrual(t *testing.T) {
	ctx := context.Background()
	mp, reader := newTestProvider(t)

	mp.AccrualRun(ctx, &models.AccrualRun{
		InterestGranted:  120,
		PenaltiesApplied: 2,
		LoansCollected:   1,
		Failures:         1,
	}, errors.New("one record failed"))
	mp.AccrualRun(ctx, nil, errors.New("database down"))

	got := sums(t, reader)
	assert.Equal(t, int64(2), got[AccrualRunsTotal])
	assert.Equal(t, int64(120), got[AccrualInterestTotal])
	assert.Equal(t, int64(2), got[AccrualPenaltiesTotal])
	assert.Equal(t, int64(1), got[AccrualCollectionsTotal])
	assert.Equal(t, int64(1), got[AccrualFailuresTotal])
}

func TestMetricsProvider_DisabledIsNoop(t *testing.T) {
	ctx := context.Background()

	var nilProvider *MetricsProvider
	assert.NotPanics(t, func() {
		nilProvider.SessionStarted(ctx, models.GameTypeDuel)
		nilProvider.AccrualRun(ctx, &models.AccrualRun{}, nil)
		assert.NoError(t, nilProvider.Shutdown(ctx))
	})

	mp := NewMetricsProvider(config.NewTestConfig())
	require.NoError(t, mp.Initialize(ctx))
	assert.NotPanics(t, func() {
		mp.SessionSettled(ctx, models.GameTypeDuel, session.Outcome{Net: 10}, false)
		mp.RecordBalanceTransaction(ctx, models.TransactionTypeWagerWin)
		assert.NoError(t, mp.ObserveActiveSessions(func() int { return 0 }))
	})
}

func TestMetricsProvider_ShutdownStopsRecording(t *testing.T) {
	ctx := context.Background()
	mp, _ := newTestProvider(t)
	require.True(t, mp.Enabled())

	require.NoError(t, mp.Shutdown(ctx))

	assert.False(t, mp.Enabled())
	assert.NotPanics(t, func() {
		mp.SessionStarted(ctx, models.GameTypeWheel)
	})
	assert.NoError(t, mp.Shutdown(ctx))
}
