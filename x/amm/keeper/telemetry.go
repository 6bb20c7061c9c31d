package keeper

import (
	"context"
	"fmt"
	"strconv"

	"github.com/cosmos/cosmos-sdk/telemetry"
	"github.com/hashicorp/go-metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/paw-chain/cpamm/x/amm/types"
)

const tracerName = "github.com/paw-chain/cpamm/x/amm"

// startSpan opens a span for a keeper operation. The returned context is not
// passed on to the store layer, which needs the sdk.Context it was given.
func startSpan(ctx context.Context, operation string, poolID uint64) trace.Span {
	_, span := otel.Tracer(tracerName).Start(ctx, fmt.Sprintf("module.%s.%s", types.ModuleName, operation),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("module.name", types.ModuleName),
			attribute.String("module.operation", operation),
			attribute.String("amm.pool_id", strconv.FormatUint(poolID, 10)),
		),
	)
	return span
}

// endSpan records the outcome of the operation and closes the span.
func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// incrTelemetry bumps a node-level counter alongside the prometheus metrics.
func incrTelemetry(name string, poolID uint64, labels ...metrics.Label) {
	telemetry.IncrCounterWithLabels(
		[]string{types.ModuleName, name},
		1,
		append([]metrics.Label{telemetry.NewLabel("pool_id", strconv.FormatUint(poolID, 10))}, labels...),
	)
}
