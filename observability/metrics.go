// Package observability exports OpenTelemetry metrics for sessions, the
// ledger and the accrual loop.
package observability

import (
	"context"
	"fmt"
	"sync"
	"time"

	"wagerbot/config"
	"wagerbot/events"
	"wagerbot/models"
	"wagerbot/session"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

// MetricsProvider manages OpenTelemetry metrics. A nil or disabled provider
// accepts every Record call and does nothing.
type MetricsProvider struct {
	config        *config.Config
	meterProvider *sdkmetric.MeterProvider
	meter         metric.Meter
	initialized   bool
	mu            sync.RWMutex

	sessionsStarted     metric.Int64Counter
	sessionsRejected    metric.Int64Counter
	sessionsSettled     metric.Int64Counter
	wagerStaked         metric.Int64Counter
	wagerNet            metric.Int64Counter
	balanceTransactions metric.Int64Counter
	accrualRuns         metric.Int64Counter
	accrualInterest     metric.Int64Counter
	accrualPenalties    metric.Int64Counter
	accrualCollections  metric.Int64Counter
	accrualFailures     metric.Int64Counter
}

// NewMetricsProvider creates a new metrics provider
func NewMetricsProvider(cfg *config.Config) *MetricsProvider {
	return &MetricsProvider{
		config: cfg,
	}
}

// Initialize sets up the OpenTelemetry metrics provider
func (mp *MetricsProvider) Initialize(ctx context.Context) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.initialized {
		return nil
	}

	if !mp.config.OTelEnabled {
		log.Info("OpenTelemetry metrics disabled")
		mp.initialized = true
		return nil
	}

	var exporter sdkmetric.Exporter
	var err error
	switch mp.config.OTelExporterType {
	case "console":
		exporter, err = stdoutmetric.New()
		if err != nil {
			return fmt.Errorf("failed to create console exporter: %w", err)
		}
		log.Info("Using console metric exporter")

	case "otlp":
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		exporter, err = otlpmetricgrpc.New(ctx,
			otlpmetricgrpc.WithEndpoint(mp.config.OTelOTLPEndpoint),
			otlpmetricgrpc.WithInsecure(),
		)
		if err != nil {
			return fmt.Errorf("failed to create OTLP exporter: %w", err)
		}
		log.WithField("endpoint", mp.config.OTelOTLPEndpoint).Info("Using OTLP metric exporter")

	case "none":
		log.Info("Metrics export disabled (exporter_type='none')")
		mp.initialized = true
		return nil

	default:
		return fmt.Errorf("unknown exporter type: %s", mp.config.OTelExporterType)
	}

	reader := sdkmetric.NewPeriodicReader(
		exporter,
		sdkmetric.WithInterval(time.Duration(mp.config.OTelExportIntervalMillis)*time.Millisecond),
	)
	if err := mp.initWithReader(reader); err != nil {
		return err
	}
	otel.SetMeterProvider(mp.meterProvider)

	log.Info("Metrics provider initialized successfully")
	return nil
}

// initWithReader builds the meter provider around reader. Caller holds mu.
func (mp *MetricsProvider) initWithReader(reader sdkmetric.Reader) error {
	// Schemaless so the merge never conflicts with the SDK default schema URL.
	res, err := resource.Merge(
		resource.Default(),
		resource.NewSchemaless(
			semconv.ServiceName(mp.config.OTelServiceName),
			attribute.String("environment", mp.config.Environment),
		),
	)
	if err != nil {
		return fmt.Errorf("failed to create resource: %w", err)
	}

	mp.meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(reader),
	)
	mp.meter = mp.meterProvider.Meter("wagerbot")

	if err := mp.createInstruments(); err != nil {
		return fmt.Errorf("failed to create instruments: %w", err)
	}
	mp.initialized = true
	return nil
}

func (mp *MetricsProvider) createInstruments() error {
	counters := []struct {
		target      *metric.Int64Counter
		name        string
		description string
		unit        string
	}{
		{&mp.sessionsStarted, SessionsStartedTotal, "Game sessions started", "1"},
		{&mp.sessionsRejected, SessionsRejectedTotal, "Game sessions refused before play", "1"},
		{&mp.sessionsSettled, SessionsSettledTotal, "Actor outcomes settled", "1"},
		{&mp.wagerStaked, WagerStakedTotal, "Currency staked in settled sessions", "{coin}"},
		{&mp.wagerNet, WagerNetTotal, "Net currency paid to actors by settled sessions", "{coin}"},
		{&mp.balanceTransactions, BalanceTransactionsTotal, "Committed balance changes", "1"},
		{&mp.accrualRuns, AccrualRunsTotal, "Accrual loop passes", "1"},
		{&mp.accrualInterest, AccrualInterestTotal, "Interest granted on deposits", "{coin}"},
		{&mp.accrualPenalties, AccrualPenaltiesTotal, "Overdue loan surcharges applied", "1"},
		{&mp.accrualCollections, AccrualCollectionsTotal, "Overdue loans force-collected", "1"},
		{&mp.accrualFailures, AccrualFailuresTotal, "Records the accrual loop failed to process", "1"},
	}

	for _, c := range counters {
		counter, err := mp.meter.Int64Counter(c.name,
			metric.WithDescription(c.description),
			metric.WithUnit(c.unit),
		)
		if err != nil {
			return fmt.Errorf("failed to create %s counter: %w", c.name, err)
		}
		*c.target = counter
	}
	return nil
}

// ObserveActiveSessions reports count as the live session gauge
func (mp *MetricsProvider) ObserveActiveSessions(count func() int) error {
	if !mp.isEnabled() {
		return nil
	}
	_, err := mp.meter.Int64ObservableGauge(SessionsActive,
		metric.WithDescription("Game sessions currently live"),
		metric.WithUnit("1"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			o.Observe(int64(count()))
			return nil
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to create active sessions gauge: %w", err)
	}
	return nil
}

// SubscribeToBus counts committed balance changes by transaction type
func (mp *MetricsProvider) SubscribeToBus(bus *events.Bus) {
	bus.Subscribe(events.EventTypeBalanceChange, func(ctx context.Context, event events.Event) {
		if e, ok := event.(events.BalanceChangeEvent); ok {
			mp.RecordBalanceTransaction(ctx, e.TransactionType)
		}
	})
}

// Shutdown flushes and stops the metrics provider
func (mp *MetricsProvider) Shutdown(ctx context.Context) error {
	if mp == nil {
		return nil
	}
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.meterProvider == nil {
		return nil
	}
	err := mp.meterProvider.Shutdown(ctx)
	mp.meterProvider = nil
	mp.meter = nil
	return err
}

// Enabled reports whether records are currently exported
func (mp *MetricsProvider) Enabled() bool {
	return mp.isEnabled()
}

func (mp *MetricsProvider) SessionStarted(ctx context.Context, gameType models.GameType) {
	if !mp.isEnabled() {
		return
	}
	mp.sessionsStarted.Add(ctx, 1, metric.WithAttributes(
		attribute.String(LabelGameType, string(gameType)),
	))
}

func (mp *MetricsProvider) SessionRejected(ctx context.Context, gameType models.GameType, reason string) {
	if !mp.isEnabled() {
		return
	}
	mp.sessionsRejected.Add(ctx, 1, metric.WithAttributes(
		attribute.String(LabelGameType, string(gameType)),
		attribute.String(LabelReason, reason),
	))
}

func (mp *MetricsProvider) SessionSettled(ctx context.Context, gameType models.GameType, outcome session.Outcome, refunded bool) {
	if !mp.isEnabled() {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String(LabelGameType, string(gameType)),
		attribute.String(LabelOutcome, string(outcome.Kind)),
	)
	mp.sessionsSettled.Add(ctx, 1, attrs)
	if refunded {
		return
	}
	gameAttr := metric.WithAttributes(attribute.String(LabelGameType, string(gameType)))
	mp.wagerStaked.Add(ctx, outcome.Staked, gameAttr)
	// Counters cannot go down, so losses and wins are split by label.
	if outcome.Net != 0 {
		direction := "paid"
		amount := outcome.Net
		if amount < 0 {
			direction = "kept"
			amount = -amount
		}
		mp.wagerNet.Add(ctx, amount, metric.WithAttributes(
			attribute.String(LabelGameType, string(gameType)),
			attribute.String(LabelType, direction),
		))
	}
}

func (mp *MetricsProvider) RecordBalanceTransaction(ctx context.Context, transactionType models.TransactionType) {
	if !mp.isEnabled() {
		return
	}
	mp.balanceTransactions.Add(ctx, 1, metric.WithAttributes(
		attribute.String(LabelType, string(transactionType)),
	))
}

// AccrualRun records one accrual loop pass
func (mp *MetricsProvider) AccrualRun(ctx context.Context, run *models.AccrualRun, err error) {
	if !mp.isEnabled() {
		return
	}
	mp.accrualRuns.Add(ctx, 1, metric.WithAttributes(
		attribute.Bool(LabelSucceeded, err == nil),
	))
	if run == nil {
		return
	}
	mp.accrualInterest.Add(ctx, run.InterestGranted)
	mp.accrualPenalties.Add(ctx, int64(run.PenaltiesApplied))
	mp.accrualCollections.Add(ctx, int64(run.LoansCollected))
	mp.accrualFailures.Add(ctx, int64(run.Failures))
}

// isEnabled checks if metrics are enabled and instruments exist
func (mp *MetricsProvider) isEnabled() bool {
	if mp == nil {
		return false
	}
	mp.mu.RLock()
	defer mp.mu.RUnlock()
	return mp.initialized && mp.meter != nil
}
