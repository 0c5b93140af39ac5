package perf

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/stitchbook/stitchbook/internal/ledger"
	"github.com/stitchbook/stitchbook/internal/reports"
	_ "github.com/stitchbook/stitchbook/testing"
)

var modes = []ledger.Mode{ledger.ModeCash, ledger.ModeBank, ledger.ModeUPI}

// syntheticHistory spreads orders, payments and expenses over two years.
func syntheticHistory(orders int) ledger.History {
	h := ledger.History{}
	start := ledger.NewDate(2023, time.January, 1)
	for i := 0; i < orders; i++ {
		booked := start.AddDays(i % 700)
		total := decimal.NewFromInt(int64(500 + i%40*25))
		advance := total.Div(decimal.NewFromInt(2)).Round(2)
		h.Orders = append(h.Orders, ledger.Order{
			ID:          fmt.Sprintf("o-%d", i),
			OrderNumber: fmt.Sprintf("ORD-%06d", i),
			TotalAmount: total,
			OrderDate:   booked,
			PaymentHistory: []ledger.PaymentRecord{
				{ID: fmt.Sprintf("p-%d-a", i), Amount: advance, Date: booked, Mode: modes[i%3]},
				{ID: fmt.Sprintf("p-%d-b", i), Amount: total.Sub(advance), Date: booked.AddDays(9), Mode: modes[(i+1)%3]},
			},
		})
		if i%4 == 0 {
			h.Expenses = append(h.Expenses, ledger.Expense{
				ID:     fmt.Sprintf("e-%d", i),
				Amount: decimal.NewFromInt(int64(100 + i%15*10)),
				Date:   booked.AddDays(3),
				Mode:   modes[i%2],
			})
		}
	}
	return h
}

func BenchmarkBuildMonthly(b *testing.B) {
	h := syntheticHistory(5000)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = reports.BuildMonthly(2024, h, ledger.Balance{})
	}
}

func BenchmarkReconcile(b *testing.B) {
	h := syntheticHistory(5000)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = reports.Reconcile(h, ledger.Balance{})
	}
}

type staticSource struct {
	h ledger.History
}

func (s staticSource) History(context.Context) (ledger.History, error) { return s.h, nil }

func (s staticSource) CreateTransaction(context.Context, ledger.TransactionInput) (ledger.Transaction, error) {
	return ledger.Transaction{}, nil
}

func (s staticSource) Today() ledger.Date { return ledger.NewDate(2024, time.June, 30) }

func TestStatementLatencyTargets(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	cache := reports.NewCache(client, time.Minute)
	svc := reports.NewService(staticSource{h: syntheticHistory(2000)}, reports.Config{Cache: cache})
	ctx := context.Background()

	var cold, cached []time.Duration
	for i := 0; i < 10; i++ {
		require.NoError(t, cache.Bump(ctx))
		start := time.Now()
		_, err := svc.Monthly(ctx, 2024)
		require.NoError(t, err)
		cold = append(cold, time.Since(start))

		start = time.Now()
		_, err = svc.Monthly(ctx, 2024)
		require.NoError(t, err)
		cached = append(cached, time.Since(start))
	}

	if p95 := percentile95(cold); p95 > 2*time.Second {
		t.Fatalf("cold statement latency regression: p95=%s", p95)
	}
	if p95 := percentile95(cached); p95 > 500*time.Millisecond {
		t.Fatalf("cached statement latency regression: p95=%s", p95)
	}
}

func percentile95(samples []time.Duration) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	sorted := append([]time.Duration(nil), samples...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	index := int(float64(len(sorted)-1) * 0.95)
	return sorted[index]
}
