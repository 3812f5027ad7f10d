package postgres

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pscheid92/moodscope/internal/adapter/metrics"
)

// MetricsTracer records query latency and failures, labelled by statement kind.
type MetricsTracer struct {
	metrics *metrics.DBMetrics
	now     func() time.Time
}

var _ pgx.QueryTracer = (*MetricsTracer)(nil)

func NewMetricsTracer(m *metrics.DBMetrics) *MetricsTracer {
	return &MetricsTracer{metrics: m, now: time.Now}
}

type queryContextKey struct{}

type queryContext struct {
	start time.Time
	name  string
}

func (t *MetricsTracer) TraceQueryStart(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	return context.WithValue(ctx, queryContextKey{}, queryContext{start: t.now(), name: queryKind(data.SQL)})
}

func (t *MetricsTracer) TraceQueryEnd(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryEndData) {
	qctx, ok := ctx.Value(queryContextKey{}).(queryContext)
	if !ok {
		return
	}

	t.metrics.QueryDuration.WithLabelValues(qctx.name).Observe(t.now().Sub(qctx.start).Seconds())
	if data.Err != nil {
		t.metrics.QueryErrors.WithLabelValues(qctx.name).Inc()
	}
}

var knownKinds = []string{"select", "insert", "update", "delete", "begin", "commit", "rollback", "with"}

// queryKind reduces SQL to its leading keyword so the label set stays small.
func queryKind(sql string) string {
	for _, line := range strings.Split(sql, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "--") {
			continue
		}
		kind := strings.ToLower(strings.Fields(line)[0])
		if slices.Contains(knownKinds, kind) {
			return kind
		}
		return "other"
	}
	return "unknown"
}
