package service

import (
	"context"
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/utilibill/internal/config"
	meterdomain "github.com/smallbiznis/utilibill/internal/meter/domain"
	obslogger "github.com/smallbiznis/utilibill/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/utilibill/internal/observability/metrics"
	"github.com/smallbiznis/utilibill/internal/tariff/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ResolverParams struct {
	fx.In

	Log     *zap.Logger
	Policy  *config.BillingPolicyHolder
	Meters  meterdomain.Repository
	Repo    domain.Repository
	Metrics *obsmetrics.Metrics `optional:"true"`
}

type Resolver struct {
	log     *zap.Logger
	policy  *config.BillingPolicyHolder
	meters  meterdomain.Repository
	repo    domain.Repository
	metrics *obsmetrics.Metrics
}

func NewResolver(p ResolverParams) domain.Resolver {
	return &Resolver{
		log:     p.Log.Named("tariff.resolver"),
		policy:  p.Policy,
		meters:  p.Meters,
		repo:    p.Repo,
		metrics: p.Metrics,
	}
}

// Resolve looks up the tariff for the meter's (utility type, customer type).
// A missing tariff yields a zero rate or ErrTariffNotFound depending on policy.
func (r *Resolver) Resolve(ctx context.Context, db *gorm.DB, meterID snowflake.ID) (domain.Rate, error) {
	profile, err := r.meters.FindBillingProfile(ctx, db, meterID)
	if err != nil {
		return domain.Rate{}, fmt.Errorf("load meter profile: %w", err)
	}
	if profile == nil {
		return domain.Rate{}, meterdomain.ErrNotFound
	}

	tariff, err := r.repo.FindByUtilityAndCustomerType(ctx, db, profile.UtilityTypeID, profile.CustomerType)
	if err != nil {
		return domain.Rate{}, fmt.Errorf("find tariff: %w", err)
	}
	if tariff != nil {
		return domain.Rate{
			TariffID:    tariff.ID,
			RatePerUnit: tariff.RatePerUnit,
			FixedCharge: tariff.FixedCharge,
		}, nil
	}

	policy := r.policy.Get().MissingTariffPolicy
	obslogger.WithContext(ctx, r.log).Warn("tariff.resolve.missing",
		zap.String("meter_id", meterID.String()),
		zap.String("utility_type", profile.TypeName),
		zap.String("customer_type", string(profile.CustomerType)),
		zap.String("policy", policy),
	)
	r.metrics.RecordTariffFallback(ctx, profile.TypeName, string(profile.CustomerType), policy)

	if policy == config.MissingTariffReject {
		return domain.Rate{}, domain.ErrTariffNotFound
	}
	return domain.Rate{
		RatePerUnit: decimal.Zero,
		FixedCharge: decimal.Zero,
		Fallback:    true,
	}, nil
}
