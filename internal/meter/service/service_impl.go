package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/utilibill/internal/clock"
	"github.com/smallbiznis/utilibill/internal/meter/domain"
	"github.com/smallbiznis/utilibill/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("meter.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateMeterRequest) (domain.Meter, error) {
	serial := strings.TrimSpace(req.SerialNumber)
	if serial == "" {
		return domain.Meter{}, domain.ErrInvalidSerialNumber
	}
	customerID, err := parseRef(req.CustomerID, domain.ErrInvalidCustomer)
	if err != nil {
		return domain.Meter{}, err
	}
	utilityTypeID, err := parseRef(req.UtilityTypeID, domain.ErrInvalidUtilityType)
	if err != nil {
		return domain.Meter{}, err
	}
	if req.InstallationDate.IsZero() {
		return domain.Meter{}, domain.ErrInvalidInstallationDate
	}
	status := domain.StatusActive
	if value := strings.TrimSpace(req.Status); value != "" {
		status = domain.Status(value)
		if !status.Valid() {
			return domain.Meter{}, domain.ErrInvalidStatus
		}
	}

	now := s.clock.Now()
	meter := domain.Meter{
		ID:               s.genID.Generate(),
		SerialNumber:     serial,
		CustomerID:       customerID,
		UtilityTypeID:    utilityTypeID,
		InstallationDate: datatypes.Date(clock.DateOf(req.InstallationDate)),
		Status:           status,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.ensureRefs(ctx, tx, customerID, utilityTypeID); err != nil {
			return err
		}
		if err := s.repo.Insert(ctx, tx, &meter); err != nil {
			if db.IsDuplicateKeyErr(err) {
				return domain.ErrDuplicateSerialNumber
			}
			return err
		}
		return nil
	})
	if err != nil {
		return domain.Meter{}, err
	}

	s.log.Info("meter installed",
		zap.String("meter_id", meter.ID.String()),
		zap.String("customer_id", customerID.String()),
	)
	return meter, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateMeterRequest) (domain.Meter, error) {
	id, err := parseRef(req.ID, domain.ErrInvalidID)
	if err != nil {
		return domain.Meter{}, err
	}

	var updated domain.Meter
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		meter, err := s.repo.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if meter == nil {
			return domain.ErrNotFound
		}

		if req.UtilityTypeID != nil {
			utilityTypeID, err := parseRef(*req.UtilityTypeID, domain.ErrInvalidUtilityType)
			if err != nil {
				return err
			}
			if utilityTypeID != meter.UtilityTypeID {
				return domain.ErrUtilityTypeImmutable
			}
		}
		if req.SerialNumber != nil {
			serial := strings.TrimSpace(*req.SerialNumber)
			if serial == "" {
				return domain.ErrInvalidSerialNumber
			}
			meter.SerialNumber = serial
		}
		if req.CustomerID != nil {
			customerID, err := parseRef(*req.CustomerID, domain.ErrInvalidCustomer)
			if err != nil {
				return err
			}
			if customerID != meter.CustomerID {
				if err := s.ensureRefs(ctx, tx, customerID, meter.UtilityTypeID); err != nil {
					return err
				}
			}
			meter.CustomerID = customerID
		}
		if req.InstallationDate != nil {
			if req.InstallationDate.IsZero() {
				return domain.ErrInvalidInstallationDate
			}
			meter.InstallationDate = datatypes.Date(clock.DateOf(*req.InstallationDate))
		}
		if req.Status != nil {
			status := domain.Status(strings.TrimSpace(*req.Status))
			if !status.Valid() {
				return domain.ErrInvalidStatus
			}
			meter.Status = status
		}
		meter.UpdatedAt = s.clock.Now()

		if err := s.repo.Update(ctx, tx, meter); err != nil {
			if db.IsDuplicateKeyErr(err) {
				return domain.ErrDuplicateSerialNumber
			}
			return err
		}
		updated = *meter
		return nil
	})
	if err != nil {
		return domain.Meter{}, err
	}
	return updated, nil
}

func (s *Service) SetStatus(ctx context.Context, id string, status string) (domain.Meter, error) {
	return s.Update(ctx, domain.UpdateMeterRequest{ID: id, Status: &status})
}

func (s *Service) Delete(ctx context.Context, rawID string) error {
	id, err := parseRef(rawID, domain.ErrInvalidID)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		meter, err := s.repo.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if meter == nil {
			return domain.ErrNotFound
		}
		readings, err := s.repo.CountReadings(ctx, tx, id)
		if err != nil {
			return err
		}
		if readings > 0 {
			return domain.ErrHasReadings
		}
		return s.repo.Delete(ctx, tx, id)
	})
}

func (s *Service) GetByID(ctx context.Context, rawID string) (domain.Meter, error) {
	id, err := parseRef(rawID, domain.ErrInvalidID)
	if err != nil {
		return domain.Meter{}, err
	}
	meter, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.Meter{}, err
	}
	if meter == nil {
		return domain.Meter{}, domain.ErrNotFound
	}
	return *meter, nil
}

func (s *Service) List(ctx context.Context, req domain.ListMeterRequest) ([]domain.MeterView, error) {
	var filter domain.ListMeterFilter
	if value := strings.TrimSpace(req.Status); value != "" {
		filter.Status = domain.Status(value)
		if !filter.Status.Valid() {
			return nil, domain.ErrInvalidStatus
		}
	}
	if value := strings.TrimSpace(req.CustomerID); value != "" {
		customerID, err := parseRef(value, domain.ErrInvalidCustomer)
		if err != nil {
			return nil, err
		}
		filter.CustomerID = customerID
	}

	meters, err := s.repo.List(ctx, s.db, filter)
	if err != nil {
		return nil, err
	}
	if meters == nil {
		meters = []domain.MeterView{}
	}
	return meters, nil
}

func (s *Service) ensureRefs(ctx context.Context, tx *gorm.DB, customerID, utilityTypeID snowflake.ID) error {
	ok, err := s.repo.CustomerExists(ctx, tx, customerID)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrInvalidCustomer
	}
	ok, err = s.repo.UtilityTypeExists(ctx, tx, utilityTypeID)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrInvalidUtilityType
	}
	return nil
}

func parseRef(value string, invalid error) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, invalid
	}
	return id, nil
}

