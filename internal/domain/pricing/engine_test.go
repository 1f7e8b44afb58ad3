//go:build unit

package pricing_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"fleetbook/internal/domain/pricing"
	"fleetbook/internal/pkg/config"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRates struct {
	dailyCents      int64
	dailyErr        error
	protectionCents map[pricing.ProtectionPlan]int64
	addOns          map[uuid.UUID]*pricing.AddOnRate
	dropOffCents    int64
}

func (s *stubRates) VehicleDailyRateCents(_ context.Context, _ uuid.UUID) (int64, error) {
	if s.dailyErr != nil {
		return 0, s.dailyErr
	}
	return s.dailyCents, nil
}

func (s *stubRates) ProtectionDailyRateCents(_ context.Context, plan pricing.ProtectionPlan) (int64, error) {
	if cents, ok := s.protectionCents[plan]; ok {
		return cents, nil
	}
	cents, ok := pricing.FallbackProtectionDailyCents(plan)
	if !ok {
		return 0, errors.New("unknown plan")
	}
	return cents, nil
}

func (s *stubRates) AddOnRate(_ context.Context, id uuid.UUID) (*pricing.AddOnRate, error) {
	rate, ok := s.addOns[id]
	if !ok {
		return nil, errors.New("add-on not found")
	}
	return rate, nil
}

func (s *stubRates) DropOffFeeCents(_ context.Context, _, _ uuid.UUID) (int64, error) {
	return s.dropOffCents, nil
}

// monday/friday are fixed pickup days so the weekend surcharge is explicit in
// each case.
var (
	monday = time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	friday = time.Date(2025, 6, 6, 10, 0, 0, 0, time.UTC)
)

func newEngine(rates *stubRates) *pricing.Engine {
	return pricing.NewEngine(rates, config.NewTestPricingConfig())
}

func baseInput(start time.Time, days int) pricing.QuoteInput {
	return pricing.QuoteInput{
		VehicleID:        uuid.New(),
		StartAt:          start,
		EndAt:            start.AddDate(0, 0, days),
		DriverAgeBand:    pricing.AgeBandStandard,
		PickupLocationID: uuid.New(),
	}
}

func TestEngineQuote(t *testing.T) {
	ctx := context.Background()

	t.Run("weekend pickup with weekly discount", func(t *testing.T) {
		engine := newEngine(&stubRates{dailyCents: 8000})

		b, err := engine.Quote(ctx, baseInput(friday, 10))
		require.NoError(t, err)

		assert.Equal(t, 10, b.RentalDays)
		assert.Equal(t, int64(80000), b.BaseTotalCents)
		assert.Equal(t, int64(12000), b.WeekendSurchargeCents)
		assert.Equal(t, int64(9200), b.DurationDiscountCents)
		assert.Equal(t, int64(82800), b.VehicleTotalCents)
		assert.Equal(t, int64(2500), b.RegulatoryFeesCents)
		assert.Equal(t, int64(85300), b.SubtotalCents)
		assert.Equal(t, int64(10236), b.TaxCents)
		assert.Equal(t, int64(95536), b.TotalCents)
		assert.Equal(t, int64(95536), b.DepositCents)
	})

	t.Run("full option spread", func(t *testing.T) {
		addOnID := uuid.New()
		engine := newEngine(&stubRates{
			dailyCents: 6000,
			addOns: map[uuid.UUID]*pricing.AddOnRate{
				addOnID: {ID: addOnID, Name: "Child seat", DailyCents: 500},
			},
			dropOffCents: 4000,
		})

		fee := int64(2500)
		in := baseInput(monday, 3)
		in.DriverAgeBand = pricing.AgeBandYoung
		in.ProtectionPlan = pricing.ProtectionBasic
		in.AddOns = []pricing.AddOnSelection{{ID: addOnID, Quantity: 2}}
		in.DeliveryFeeCents = &fee
		in.DropOffLocationID = uuid.New()

		b, err := engine.Quote(ctx, in)
		require.NoError(t, err)

		assert.Equal(t, int64(0), b.WeekendSurchargeCents)
		assert.Equal(t, int64(0), b.DurationDiscountCents)
		assert.Equal(t, int64(3600), b.ProtectionTotalCents)
		assert.Equal(t, int64(3000), b.AddOnsTotalCents)
		assert.Equal(t, int64(7500), b.YoungDriverSurchargeCents)
		assert.Equal(t, int64(2500), b.DeliveryFeeCents)
		assert.Equal(t, int64(4000), b.DropOffFeeCents)
		assert.Equal(t, int64(39350), b.SubtotalCents)
		assert.Equal(t, int64(4723), b.TaxCents)
		assert.Equal(t, int64(44073), b.TotalCents)
	})

	t.Run("monthly discount beats weekly", func(t *testing.T) {
		engine := newEngine(&stubRates{dailyCents: 8000})

		b, err := engine.Quote(ctx, baseInput(monday, 21))
		require.NoError(t, err)

		assert.Equal(t, int64(33600), b.DurationDiscountCents)
		assert.Equal(t, int64(134400), b.VehicleTotalCents)
		assert.Equal(t, int64(156409), b.TotalCents)
	})

	t.Run("deposit floor applies to cheap rentals", func(t *testing.T) {
		engine := newEngine(&stubRates{dailyCents: 5000})

		b, err := engine.Quote(ctx, baseInput(monday, 1))
		require.NoError(t, err)

		assert.Equal(t, int64(5881), b.TotalCents)
		assert.Equal(t, int64(20000), b.DepositCents)
	})

	t.Run("one-time-only add-on ignores days", func(t *testing.T) {
		addOnID := uuid.New()
		engine := newEngine(&stubRates{
			dailyCents: 6000,
			addOns: map[uuid.UUID]*pricing.AddOnRate{
				addOnID: {ID: addOnID, Name: "Prepaid fuel", DailyCents: 1000, OneTimeCents: 8900, OneTimeOnly: true},
			},
		})

		in := baseInput(monday, 5)
		in.AddOns = []pricing.AddOnSelection{{ID: addOnID, Quantity: 3}}

		b, err := engine.Quote(ctx, in)
		require.NoError(t, err)

		require.Len(t, b.AddOns, 1)
		assert.Equal(t, int64(0), b.AddOns[0].DailyCents)
		assert.Equal(t, int64(26700), b.AddOns[0].TotalCents)
	})

	t.Run("additional drivers priced per band", func(t *testing.T) {
		engine := newEngine(&stubRates{dailyCents: 6000})

		in := baseInput(monday, 4)
		in.AdditionalDrivers = []pricing.AdditionalDriver{
			{AgeBand: pricing.AgeBandStandard},
			{AgeBand: pricing.AgeBandYoung},
		}

		b, err := engine.Quote(ctx, in)
		require.NoError(t, err)

		require.Len(t, b.AdditionalDrivers, 2)
		assert.Equal(t, int64(4000), b.AdditionalDrivers[0].TotalCents)
		assert.Equal(t, int64(7200), b.AdditionalDrivers[1].TotalCents)
		assert.Equal(t, int64(11200), b.AdditionalDriversCents)
	})

	t.Run("partial day rounds up", func(t *testing.T) {
		engine := newEngine(&stubRates{dailyCents: 6000})

		in := baseInput(monday, 0)
		in.EndAt = monday.Add(25 * time.Hour)

		b, err := engine.Quote(ctx, in)
		require.NoError(t, err)
		assert.Equal(t, 2, b.RentalDays)
	})

	t.Run("input validation", func(t *testing.T) {
		engine := newEngine(&stubRates{dailyCents: 6000})

		cases := []struct {
			name   string
			mutate func(*pricing.QuoteInput)
			errIs  error
		}{
			{
				name:   "end before start",
				mutate: func(in *pricing.QuoteInput) { in.EndAt = in.StartAt.Add(-time.Hour) },
				errIs:  pricing.ErrInvalidPeriod,
			},
			{
				name:   "zero-length period",
				mutate: func(in *pricing.QuoteInput) { in.EndAt = in.StartAt },
				errIs:  pricing.ErrInvalidPeriod,
			},
			{
				name:   "missing vehicle",
				mutate: func(in *pricing.QuoteInput) { in.VehicleID = uuid.Nil },
				errIs:  pricing.ErrInvalidPeriod,
			},
			{
				name:   "unknown age band",
				mutate: func(in *pricing.QuoteInput) { in.DriverAgeBand = "senior" },
				errIs:  pricing.ErrInvalidAgeBand,
			},
			{
				name:   "unknown protection plan",
				mutate: func(in *pricing.QuoteInput) { in.ProtectionPlan = "platinum" },
				errIs:  pricing.ErrInvalidPlan,
			},
			{
				name: "zero add-on quantity",
				mutate: func(in *pricing.QuoteInput) {
					in.AddOns = []pricing.AddOnSelection{{ID: uuid.New(), Quantity: 0}}
				},
				errIs: pricing.ErrInvalidQuantity,
			},
			{
				name: "invalid additional driver band",
				mutate: func(in *pricing.QuoteInput) {
					in.AdditionalDrivers = []pricing.AdditionalDriver{{AgeBand: "teen"}}
				},
				errIs: pricing.ErrInvalidAgeBand,
			},
			{
				name: "negative delivery fee",
				mutate: func(in *pricing.QuoteInput) {
					fee := int64(-1)
					in.DeliveryFeeCents = &fee
				},
				errIs: pricing.ErrNegativeFee,
			},
		}

		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				in := baseInput(monday, 3)
				tc.mutate(&in)

				_, err := engine.Quote(ctx, in)
				assert.ErrorIs(t, err, tc.errIs)
			})
		}
	})

	t.Run("rate lookup failure propagates", func(t *testing.T) {
		engine := newEngine(&stubRates{dailyErr: errors.New("rate table unavailable")})

		_, err := engine.Quote(ctx, baseInput(monday, 3))
		assert.Error(t, err)
	})
}

func TestEnginePriceAddOn(t *testing.T) {
	ctx := context.Background()
	addOnID := uuid.New()
	engine := newEngine(&stubRates{
		addOns: map[uuid.UUID]*pricing.AddOnRate{
			addOnID: {ID: addOnID, Name: "GPS", DailyCents: 700, OneTimeCents: 500},
		},
	})

	t.Run("daily plus one-time", func(t *testing.T) {
		charge, err := engine.PriceAddOn(ctx, addOnID, 2, 5)
		require.NoError(t, err)
		assert.Equal(t, int64(700*5*2+500*2), charge.TotalCents)
	})

	t.Run("rejects zero quantity", func(t *testing.T) {
		_, err := engine.PriceAddOn(ctx, addOnID, 0, 5)
		assert.ErrorIs(t, err, pricing.ErrInvalidQuantity)
	})

	t.Run("unknown add-on", func(t *testing.T) {
		_, err := engine.PriceAddOn(ctx, uuid.New(), 1, 5)
		assert.Error(t, err)
	})
}

func TestRentalDays(t *testing.T) {
	start := monday

	assert.Equal(t, 1, pricing.RentalDays(start, start.Add(time.Hour)))
	assert.Equal(t, 1, pricing.RentalDays(start, start.Add(24*time.Hour)))
	assert.Equal(t, 2, pricing.RentalDays(start, start.Add(25*time.Hour)))
	assert.Equal(t, 7, pricing.RentalDays(start, start.AddDate(0, 0, 7)))
}
