package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	billingdomain "github.com/smallbiznis/utilibill/internal/billing/domain"
	obslogger "github.com/smallbiznis/utilibill/internal/observability/logger"
	"github.com/smallbiznis/utilibill/internal/reading/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const maxListLimit = 500

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	Repo  domain.Repository
	Bills billingdomain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	repo  domain.Repository
	bills billingdomain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("reading.service"),
		repo:  p.Repo,
		bills: p.Bills,
	}
}

func (s *Service) List(ctx context.Context, req domain.ListReadingRequest) ([]domain.ReadingView, error) {
	var meterID snowflake.ID
	if value := strings.TrimSpace(req.MeterID); value != "" {
		id, err := snowflake.ParseString(value)
		if err != nil || id == 0 {
			return nil, domain.ErrInvalidMeterID
		}
		meterID = id
	}
	limit := req.Limit
	if limit <= 0 || limit > maxListLimit {
		limit = maxListLimit
	}

	views, err := s.repo.List(ctx, s.db, meterID, limit)
	if err != nil {
		return nil, err
	}
	if views == nil {
		views = []domain.ReadingView{}
	}
	return views, nil
}

func (s *Service) GetByID(ctx context.Context, rawID string) (domain.Reading, error) {
	id, err := parseID(rawID, domain.ErrInvalidID)
	if err != nil {
		return domain.Reading{}, err
	}
	reading, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.Reading{}, err
	}
	if reading == nil {
		return domain.Reading{}, domain.ErrNotFound
	}
	return *reading, nil
}

// Last returns the most recent reading of a meter, the usual source of the
// next reading's PreviousReading.
func (s *Service) Last(ctx context.Context, rawMeterID string) (domain.Reading, error) {
	meterID, err := parseID(rawMeterID, domain.ErrInvalidMeterID)
	if err != nil {
		return domain.Reading{}, err
	}
	reading, err := s.repo.Last(ctx, s.db, meterID)
	if err != nil {
		return domain.Reading{}, err
	}
	if reading == nil {
		return domain.Reading{}, domain.ErrNotFound
	}
	return *reading, nil
}

func (s *Service) Delete(ctx context.Context, rawID string) error {
	id, err := parseID(rawID, domain.ErrInvalidID)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		reading, err := s.repo.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if reading == nil {
			return domain.ErrNotFound
		}

		bill, err := s.bills.FindByReadingID(ctx, tx, id)
		if err != nil {
			return err
		}
		if bill != nil {
			bill, err = s.bills.FindByIDForUpdate(ctx, tx, bill.ID)
			if err != nil {
				return err
			}
		}
		if bill != nil {
			payments, err := s.bills.CountPayments(ctx, tx, bill.ID)
			if err != nil {
				return err
			}
			if payments > 0 {
				return domain.ErrBillHasPayment
			}
			if err := s.bills.Delete(ctx, tx, bill.ID); err != nil {
				return err
			}
		}
		return s.repo.Delete(ctx, tx, id)
	})
	if err != nil {
		return err
	}

	obslogger.WithContext(ctx, s.log).Info("reading deleted", zap.String("reading_id", id.String()))
	return nil
}

func parseID(value string, invalid error) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, invalid
	}
	return id, nil
}
