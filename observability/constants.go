package observability

// Metric name prefixes
const (
	MetricPrefix = "wagerbot"
)

// Metric names
const (
	// Session metrics
	SessionsStartedTotal  = MetricPrefix + ".sessions.started_total"
	SessionsRejectedTotal = MetricPrefix + ".sessions.rejected_total"
	SessionsSettledTotal  = MetricPrefix + ".sessions.settled_total"
	SessionsActive        = MetricPrefix + ".sessions.active"
	WagerStakedTotal      = MetricPrefix + ".wager.staked_total"
	WagerNetTotal         = MetricPrefix + ".wager.net_total"

	// Balance metrics
	BalanceTransactionsTotal = MetricPrefix + ".balance.transactions_total"

	// Accrual metrics
	AccrualRunsTotal        = MetricPrefix + ".accrual.runs_total"
	AccrualInterestTotal    = MetricPrefix + ".accrual.interest_total"
	AccrualPenaltiesTotal   = MetricPrefix + ".accrual.penalties_total"
	AccrualCollectionsTotal = MetricPrefix + ".accrual.collections_total"
	AccrualFailuresTotal    = MetricPrefix + ".accrual.failures_total"
)

// Label keys
const (
	LabelGameType  = "game_type"
	LabelOutcome   = "outcome"
	LabelReason    = "reason"
	LabelType      = "type"
	LabelSucceeded = "succeeded"
)
