package stock_test

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"github.com/gasflow/fulfillment-service/internal/catalog"
	"github.com/gasflow/fulfillment-service/internal/stock"
)

func TestSeverityOf(t *testing.T) {
	tests := []struct {
		name      string
		quantity  int
		threshold int
		want      stock.Severity
	}{
		{name: "well_above_threshold", quantity: 10, threshold: 3, want: stock.SeverityNormal},
		{name: "just_above_threshold", quantity: 4, threshold: 3, want: stock.SeverityNormal},
		{name: "at_threshold", quantity: 3, threshold: 3, want: stock.SeverityLow},
		{name: "between_half_and_threshold", quantity: 2, threshold: 3, want: stock.SeverityLow},
		{name: "at_half_threshold", quantity: 1, threshold: 3, want: stock.SeverityCritical},
		{name: "zero_quantity", quantity: 0, threshold: 3, want: stock.SeverityCritical},
		{name: "even_threshold_at_half", quantity: 2, threshold: 4, want: stock.SeverityCritical},
		{name: "threshold_disabled", quantity: 0, threshold: 0, want: stock.SeverityNormal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line := &stock.Line{Quantity: tt.quantity, AlertThreshold: tt.threshold}
			assert.Equal(t, tt.want, stock.SeverityOf(line))
		})
	}
}

// Severity must be monotonic: lowering the quantity never improves the grade.
func TestSeverityOf_Monotonic(t *testing.T) {
	for threshold := 0; threshold <= 10; threshold++ {
		prev := stock.SeverityNormal
		for quantity := 20; quantity >= 0; quantity-- {
			line := &stock.Line{Quantity: quantity, AlertThreshold: threshold}
			sev := stock.SeverityOf(line)
			switch prev {
			case stock.SeverityLow:
				assert.NotEqual(t, stock.SeverityNormal, sev,
					"severity relaxed from low at qty=%d threshold=%d", quantity, threshold)
			case stock.SeverityCritical:
				assert.Equal(t, stock.SeverityCritical, sev,
					"severity relaxed from critical at qty=%d threshold=%d", quantity, threshold)
			}
			prev = sev
		}
	}
}

func TestLedger_ListAlerts_OrderingAndFiltering(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	products := []struct {
		name      string
		quantity  int
		threshold int
	}{
		{name: "water 20L", quantity: 50, threshold: 10},       // normal, filtered out
		{name: "13kg cylinder", quantity: 3, threshold: 6},     // low
		{name: "45kg cylinder", quantity: 1, threshold: 6},     // critical
		{name: "05kg cylinder", quantity: 2, threshold: 6},     // low
		{name: "20kg cylinder", quantity: 0, threshold: 4},     // critical
		{name: "hose accessory", quantity: 0, threshold: 0},    // disabled, filtered out
	}

	for _, p := range products {
		id := fx.addProduct(t, p.name, catalog.CategoryGasCylinder)
		if p.quantity > 0 {
			_, err := fx.ledger.ApplyMovement(ctx, stock.ApplyMovementInput{
				ProductID: id, Kind: stock.MovementInbound, Quantity: p.quantity, ActorID: fx.actor,
			})
			assert.NoError(t, err)
		}
		_, err := fx.ledger.SetAlertThreshold(ctx, id, p.threshold, fx.actor)
		assert.NoError(t, err)
	}

	alerts, err := fx.ledger.ListAlerts(ctx)
	assert.NoError(t, err)

	got := make([]struct {
		Name     string
		Severity stock.Severity
	}, len(alerts))
	for i, a := range alerts {
		got[i].Name = a.ProductName
		got[i].Severity = a.Severity
	}

	want := []struct {
		Name     string
		Severity stock.Severity
	}{
		{"20kg cylinder", stock.SeverityCritical},
		{"45kg cylinder", stock.SeverityCritical},
		{"05kg cylinder", stock.SeverityLow},
		{"13kg cylinder", stock.SeverityLow},
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("alerts mismatch (-want +got):\n%s", diff)
	}
}

func TestLedger_ListAlerts_EmptyIsNotNil(t *testing.T) {
	fx := newFixture(t)

	alerts, err := fx.ledger.ListAlerts(context.Background())
	assert.NoError(t, err)
	assert.NotNil(t, alerts)
	assert.Empty(t, alerts)
}
