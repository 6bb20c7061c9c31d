package keeper

import (
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// AMMMetrics holds all Prometheus metrics for the amm module
type AMMMetrics struct {
	// Swap metrics
	SwapsTotal        *prometheus.CounterVec
	SwapVolume        *prometheus.CounterVec
	SwapLatency       prometheus.Histogram
	SwapFeesCollected *prometheus.CounterVec
	SwapFeeRate       *prometheus.GaugeVec
	ReferralsSkipped  *prometheus.CounterVec

	// Liquidity metrics
	LiquidityChanges *prometheus.CounterVec
	PoolReserves     *prometheus.GaugeVec
	LPTokenSupply    *prometheus.GaugeVec

	// Pool metrics
	PoolsCreated prometheus.Counter

	// Oracle metrics
	OracleUpdates prometheus.Counter

	// Safety metrics
	InvariantViolations *prometheus.CounterVec
}

var (
	ammMetricsOnce sync.Once
	ammMetrics     *AMMMetrics
)

// NewAMMMetrics creates and registers amm metrics (singleton pattern)
func NewAMMMetrics() *AMMMetrics {
	ammMetricsOnce.Do(func() {
		ammMetrics = &AMMMetrics{
			SwapsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "cpamm",
					Subsystem: "amm",
					Name:      "swaps_total",
					Help:      "Total number of swaps executed",
				},
				[]string{"pool_id", "mode", "status"},
			),
			SwapVolume: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "cpamm",
					Subsystem: "amm",
					Name:      "swap_volume_total",
					Help:      "Total swap input volume in base units",
				},
				[]string{"pool_id", "denom"},
			),
			SwapLatency: promauto.NewHistogram(
				prometheus.HistogramOpts{
					Namespace: "cpamm",
					Subsystem: "amm",
					Name:      "swap_latency_seconds",
					Help:      "Swap execution latency in seconds",
					Buckets:   prometheus.DefBuckets,
				},
			),
			SwapFeesCollected: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "cpamm",
					Subsystem: "amm",
					Name:      "swap_fees_collected_total",
					Help:      "Total trading fees collected",
				},
				[]string{"pool_id", "denom"},
			),
			SwapFeeRate: promauto.NewGaugeVec(
				prometheus.GaugeOpts{
					Namespace: "cpamm",
					Subsystem: "amm",
					Name:      "swap_fee_rate",
					Help:      "Latest dynamic fee rate over 1,000,000",
				},
				[]string{"pool_id"},
			),
			ReferralsSkipped: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "cpamm",
					Subsystem: "amm",
					Name:      "referrals_skipped_total",
					Help:      "Referral payouts skipped because the transfer fee would consume them",
				},
				[]string{"pool_id"},
			),
			LiquidityChanges: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "cpamm",
					Subsystem: "amm",
					Name:      "liquidity_changes_total",
					Help:      "Deposits and withdrawals",
				},
				[]string{"pool_id", "change_type"},
			),
			PoolReserves: promauto.NewGaugeVec(
				prometheus.GaugeOpts{
					Namespace: "cpamm",
					Subsystem: "amm",
					Name:      "pool_reserves",
					Help:      "Pool reserves net of accrued fees",
				},
				[]string{"pool_id", "denom"},
			),
			LPTokenSupply: promauto.NewGaugeVec(
				prometheus.GaugeOpts{
					Namespace: "cpamm",
					Subsystem: "amm",
					Name:      "lp_token_supply",
					Help:      "LP token supply per pool",
				},
				[]string{"pool_id"},
			),
			PoolsCreated: promauto.NewCounter(
				prometheus.CounterOpts{
					Namespace: "cpamm",
					Subsystem: "amm",
					Name:      "pools_created_total",
					Help:      "Total pools created",
				},
			),
			OracleUpdates: promauto.NewCounter(
				prometheus.CounterOpts{
					Namespace: "cpamm",
					Subsystem: "amm",
					Name:      "oracle_updates_total",
					Help:      "Observations written to pool oracles",
				},
			),
			InvariantViolations: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "cpamm",
					Subsystem: "amm",
					Name:      "invariant_violations_total",
					Help:      "Operations aborted by the constant product check",
				},
				[]string{"pool_id"},
			),
		}
	})
	return ammMetrics
}

func poolLabel(poolID uint64) string {
	return strconv.FormatUint(poolID, 10)
}

func (m *AMMMetrics) recordPool(poolID uint64, token0, token1 string, reserve0, reserve1, lpSupply uint64) {
	if m == nil {
		return
	}
	id := poolLabel(poolID)
	m.PoolReserves.WithLabelValues(id, token0).Set(float64(reserve0))
	m.PoolReserves.WithLabelValues(id, token1).Set(float64(reserve1))
	m.LPTokenSupply.WithLabelValues(id).Set(float64(lpSupply))
}

func (m *AMMMetrics) poolCreated() {
	if m == nil {
		return
	}
	m.PoolsCreated.Inc()
}

func (m *AMMMetrics) oracleUpdated() {
	if m == nil {
		return
	}
	m.OracleUpdates.Inc()
}

func (m *AMMMetrics) invariantViolated(poolID uint64) {
	if m == nil {
		return
	}
	m.InvariantViolations.WithLabelValues(poolLabel(poolID)).Inc()
}

func (m *AMMMetrics) referralSkipped(poolID uint64) {
	if m == nil {
		return
	}
	m.ReferralsSkipped.WithLabelValues(poolLabel(poolID)).Inc()
}

func (m *AMMMetrics) recordSwap(poolID uint64, mode, status, tokenIn string, amountIn, fee, feeRate uint64, seconds float64) {
	if m == nil {
		return
	}
	id := poolLabel(poolID)
	m.SwapsTotal.WithLabelValues(id, mode, status).Inc()
	if status != "success" {
		return
	}
	m.SwapVolume.WithLabelValues(id, tokenIn).Add(float64(amountIn))
	m.SwapFeesCollected.WithLabelValues(id, tokenIn).Add(float64(fee))
	m.SwapFeeRate.WithLabelValues(id).Set(float64(feeRate))
	m.SwapLatency.Observe(seconds)
}

func (m *AMMMetrics) liquidityChanged(poolID uint64, changeType string) {
	if m == nil {
		return
	}
	m.LiquidityChanges.WithLabelValues(poolLabel(poolID), changeType).Inc()
}
