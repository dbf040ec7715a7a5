package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/utilibill/internal/billing/domain"
	"github.com/smallbiznis/utilibill/internal/clock"
	"github.com/smallbiznis/utilibill/internal/config"
	meterdomain "github.com/smallbiznis/utilibill/internal/meter/domain"
	obslogger "github.com/smallbiznis/utilibill/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/utilibill/internal/observability/metrics"
	"github.com/smallbiznis/utilibill/internal/observability/tracing"
	readingdomain "github.com/smallbiznis/utilibill/internal/reading/domain"
	tariffdomain "github.com/smallbiznis/utilibill/internal/tariff/domain"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type EngineParams struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Policy   *config.BillingPolicyHolder
	Meters   meterdomain.Repository
	Readings readingdomain.Repository
	Repo     domain.Repository
	Resolver tariffdomain.Resolver
	Metrics  *obsmetrics.Metrics `optional:"true"`
}

type Engine struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	policy   *config.BillingPolicyHolder
	meters   meterdomain.Repository
	readings readingdomain.Repository
	repo     domain.Repository
	resolver tariffdomain.Resolver
	metrics  *obsmetrics.Metrics
}

func NewEngine(p EngineParams) domain.Engine {
	return &Engine{
		db:       p.DB,
		log:      p.Log.Named("billing.engine"),
		genID:    p.GenID,
		clock:    p.Clock,
		policy:   p.Policy,
		meters:   p.Meters,
		readings: p.Readings,
		repo:     p.Repo,
		resolver: p.Resolver,
		metrics:  p.Metrics,
	}
}

// RecordReadingAndBill stores the reading and its bill in one transaction.
// Nothing is persisted when validation, tariff resolution or either insert fails.
func (e *Engine) RecordReadingAndBill(ctx context.Context, req domain.RecordReadingRequest) (domain.RecordResult, error) {
	start := time.Now()
	policy := e.policy.Get()
	today := clock.Today(e.clock)

	meterID, takenBy, err := validateReading(req, today, policy.AllowFutureReadings)
	if err != nil {
		return domain.RecordResult{}, err
	}

	ctx, span := tracing.Start(ctx, "billing.RecordReadingAndBill", attribute.String("meter_id", meterID.String()))
	defer span.End()

	profile, err := e.meters.FindBillingProfile(ctx, e.db, meterID)
	if err != nil {
		return domain.RecordResult{}, fmt.Errorf("load meter profile: %w", err)
	}
	if profile == nil {
		return domain.RecordResult{}, meterdomain.ErrNotFound
	}
	if policy.RequireActiveMeter && profile.Status != meterdomain.StatusActive {
		return domain.RecordResult{}, domain.ErrMeterNotActive
	}

	now := e.clock.Now()
	reading := readingdomain.Reading{
		ID:              e.genID.Generate(),
		MeterID:         meterID,
		ReadingDate:     datatypes.Date(clock.DateOf(req.ReadingDate)),
		PreviousReading: req.PreviousReading,
		CurrentReading:  req.CurrentReading,
		ReadingTakenBy:  takenBy,
		CreatedAt:       now,
	}

	var result domain.RecordResult
	err = e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := e.readings.Insert(ctx, tx, &reading); err != nil {
			return fmt.Errorf("insert reading: %w", err)
		}

		units := reading.Units()
		rate, err := e.resolver.Resolve(ctx, tx, meterID)
		if err != nil {
			return err
		}

		bill := domain.Bill{
			ID:            e.genID.Generate(),
			ReadingID:     reading.ID,
			BillDate:      datatypes.Date(today),
			UnitsConsumed: units,
			TotalAmount:   ComputeTotal(units, rate),
			DueDate:       datatypes.Date(today.AddDate(0, 0, policy.DueDays)),
			Status:        domain.StatusUnpaid,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := e.repo.Insert(ctx, tx, &bill); err != nil {
			return fmt.Errorf("insert bill: %w", err)
		}

		result = domain.RecordResult{Reading: reading, Bill: bill, Rate: rate}
		return nil
	})
	if err != nil {
		if !isDomainError(err) {
			span.RecordError(tracing.SafeError(err))
		}
		return domain.RecordResult{}, err
	}

	e.metrics.RecordBillGenerated(ctx, profile.TypeName, string(profile.CustomerType), time.Since(start))
	obslogger.WithContext(ctx, e.log).Info("bill generated",
		zap.String("meter_id", meterID.String()),
		zap.String("reading_id", result.Reading.ID.String()),
		zap.String("bill_id", result.Bill.ID.String()),
		zap.String("units", result.Bill.UnitsConsumed.String()),
		zap.String("total", result.Bill.TotalAmount.StringFixed(2)),
		zap.Bool("tariff_fallback", result.Rate.Fallback),
	)
	return result, nil
}

// ComputeTotal is units × rate + fixed, rounded half away from zero to cents.
func ComputeTotal(units decimal.Decimal, rate tariffdomain.Rate) decimal.Decimal {
	return units.Mul(rate.RatePerUnit).Add(rate.FixedCharge).Round(2)
}

func validateReading(req domain.RecordReadingRequest, today time.Time, allowFuture bool) (snowflake.ID, snowflake.ID, error) {
	if req.PreviousReading.IsNegative() || req.CurrentReading.IsNegative() {
		return 0, 0, domain.ErrNegativeReading
	}
	if !fitsCents(req.PreviousReading) || !fitsCents(req.CurrentReading) {
		return 0, 0, domain.ErrReadingPrecision
	}
	if req.CurrentReading.LessThan(req.PreviousReading) {
		return 0, 0, domain.ErrCurrentBelowPrevious
	}
	if req.ReadingDate.IsZero() {
		return 0, 0, domain.ErrInvalidReadingDate
	}
	if !allowFuture && clock.DateOf(req.ReadingDate).After(today) {
		return 0, 0, domain.ErrFutureReadingDate
	}

	meterID, err := snowflake.ParseString(strings.TrimSpace(req.MeterID))
	if err != nil || meterID == 0 {
		return 0, 0, domain.ErrInvalidMeterID
	}
	takenBy, err := snowflake.ParseString(strings.TrimSpace(req.ReadingTakenBy))
	if err != nil || takenBy == 0 {
		return 0, 0, domain.ErrInvalidReadingTakenBy
	}
	return meterID, takenBy, nil
}

// fitsCents reports whether v is stored exactly by a NUMERIC(12,2) column.
func fitsCents(v decimal.Decimal) bool {
	return v.Equal(v.Truncate(2))
}

func isDomainError(err error) bool {
	return errors.Is(err, tariffdomain.ErrTariffNotFound) || errors.Is(err, meterdomain.ErrNotFound)
}
