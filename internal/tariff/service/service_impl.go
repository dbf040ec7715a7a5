package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/utilibill/internal/clock"
	customerdomain "github.com/smallbiznis/utilibill/internal/customer/domain"
	"github.com/smallbiznis/utilibill/internal/tariff/domain"
	"github.com/smallbiznis/utilibill/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	GenID        *snowflake.Node
	Clock        clock.Clock
	Repo         domain.Repository
	UtilityTypes domain.UtilityTypeRepository
}

type Service struct {
	db           *gorm.DB
	log          *zap.Logger
	genID        *snowflake.Node
	clock        clock.Clock
	repo         domain.Repository
	utilityTypes domain.UtilityTypeRepository
}

func New(p Params) domain.Service {
	return &Service{
		db:           p.DB,
		log:          p.Log.Named("tariff.service"),
		genID:        p.GenID,
		clock:        p.Clock,
		repo:         p.Repo,
		utilityTypes: p.UtilityTypes,
	}
}

func (s *Service) CreateTariff(ctx context.Context, req domain.CreateTariffRequest) (domain.Tariff, error) {
	utilityTypeID, err := parseID(req.UtilityTypeID, domain.ErrInvalidUtilityType)
	if err != nil {
		return domain.Tariff{}, err
	}
	customerType := customerdomain.CustomerType(strings.TrimSpace(req.CustomerType))
	if !customerType.Valid() {
		return domain.Tariff{}, domain.ErrInvalidCustomerType
	}
	if req.RatePerUnit.IsNegative() {
		return domain.Tariff{}, domain.ErrInvalidRatePerUnit
	}
	fixed := decimal.Zero
	if req.FixedCharge != nil {
		fixed = *req.FixedCharge
	}
	if fixed.IsNegative() {
		return domain.Tariff{}, domain.ErrInvalidFixedCharge
	}

	now := s.clock.Now()
	tariff := domain.Tariff{
		ID:            s.genID.Generate(),
		UtilityTypeID: utilityTypeID,
		CustomerType:  customerType,
		RatePerUnit:   req.RatePerUnit,
		FixedCharge:   fixed,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.ensurePairAvailable(ctx, tx, tariff.ID, utilityTypeID, customerType); err != nil {
			return err
		}
		return s.repo.Insert(ctx, tx, &tariff)
	})
	if db.IsDuplicateKeyErr(err) {
		return domain.Tariff{}, domain.ErrDuplicateTariff
	}
	if err != nil {
		return domain.Tariff{}, err
	}
	return tariff, nil
}

func (s *Service) UpdateTariff(ctx context.Context, req domain.UpdateTariffRequest) (domain.Tariff, error) {
	id, err := parseID(req.ID, domain.ErrInvalidID)
	if err != nil {
		return domain.Tariff{}, err
	}

	var updated domain.Tariff
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tariff, err := s.repo.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if tariff == nil {
			return domain.ErrNotFound
		}

		if req.UtilityTypeID != nil {
			utilityTypeID, err := parseID(*req.UtilityTypeID, domain.ErrInvalidUtilityType)
			if err != nil {
				return err
			}
			tariff.UtilityTypeID = utilityTypeID
		}
		if req.CustomerType != nil {
			customerType := customerdomain.CustomerType(strings.TrimSpace(*req.CustomerType))
			if !customerType.Valid() {
				return domain.ErrInvalidCustomerType
			}
			tariff.CustomerType = customerType
		}
		if req.RatePerUnit != nil {
			if req.RatePerUnit.IsNegative() {
				return domain.ErrInvalidRatePerUnit
			}
			tariff.RatePerUnit = *req.RatePerUnit
		}
		if req.FixedCharge != nil {
			if req.FixedCharge.IsNegative() {
				return domain.ErrInvalidFixedCharge
			}
			tariff.FixedCharge = *req.FixedCharge
		}
		if err := s.ensurePairAvailable(ctx, tx, tariff.ID, tariff.UtilityTypeID, tariff.CustomerType); err != nil {
			return err
		}
		tariff.UpdatedAt = s.clock.Now()

		if err := s.repo.Update(ctx, tx, tariff); err != nil {
			if db.IsDuplicateKeyErr(err) {
				return domain.ErrDuplicateTariff
			}
			return err
		}
		updated = *tariff
		return nil
	})
	if err != nil {
		return domain.Tariff{}, err
	}
	return updated, nil
}

func (s *Service) DeleteTariff(ctx context.Context, rawID string) error {
	id, err := parseID(rawID, domain.ErrInvalidID)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tariff, err := s.repo.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if tariff == nil {
			return domain.ErrNotFound
		}
		return s.repo.Delete(ctx, tx, id)
	})
}

func (s *Service) GetTariff(ctx context.Context, rawID string) (domain.Tariff, error) {
	id, err := parseID(rawID, domain.ErrInvalidID)
	if err != nil {
		return domain.Tariff{}, err
	}
	tariff, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.Tariff{}, err
	}
	if tariff == nil {
		return domain.Tariff{}, domain.ErrNotFound
	}
	return *tariff, nil
}

func (s *Service) ListTariffs(ctx context.Context) ([]domain.TariffView, error) {
	tariffs, err := s.repo.List(ctx, s.db)
	if err != nil {
		return nil, err
	}
	if tariffs == nil {
		tariffs = []domain.TariffView{}
	}
	return tariffs, nil
}

// ensurePairAvailable keeps at most one tariff per (utility type, customer type).
func (s *Service) ensurePairAvailable(ctx context.Context, tx *gorm.DB, self, utilityTypeID snowflake.ID, customerType customerdomain.CustomerType) error {
	utilityType, err := s.utilityTypes.FindByID(ctx, tx, utilityTypeID)
	if err != nil {
		return err
	}
	if utilityType == nil {
		return domain.ErrUtilityTypeNotFound
	}
	existing, err := s.repo.FindByUtilityAndCustomerType(ctx, tx, utilityTypeID, customerType)
	if err != nil {
		return err
	}
	if existing != nil && existing.ID != self {
		return domain.ErrDuplicateTariff
	}
	return nil
}

func (s *Service) CreateUtilityType(ctx context.Context, req domain.UtilityTypeRequest) (domain.UtilityType, error) {
	name, unit, err := validateUtilityType(req)
	if err != nil {
		return domain.UtilityType{}, err
	}
	utilityType := domain.UtilityType{
		ID:            s.genID.Generate(),
		TypeName:      name,
		UnitOfMeasure: unit,
		CreatedAt:     s.clock.Now(),
	}
	if err := s.utilityTypes.Insert(ctx, s.db, &utilityType); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.UtilityType{}, domain.ErrDuplicateUtilityType
		}
		return domain.UtilityType{}, err
	}
	return utilityType, nil
}

func (s *Service) UpdateUtilityType(ctx context.Context, req domain.UtilityTypeRequest) (domain.UtilityType, error) {
	id, err := parseID(req.ID, domain.ErrInvalidID)
	if err != nil {
		return domain.UtilityType{}, err
	}
	name, unit, err := validateUtilityType(req)
	if err != nil {
		return domain.UtilityType{}, err
	}

	var updated domain.UtilityType
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		utilityType, err := s.utilityTypes.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if utilityType == nil {
			return domain.ErrUtilityTypeNotFound
		}
		utilityType.TypeName = name
		utilityType.UnitOfMeasure = unit
		if err := s.utilityTypes.Update(ctx, tx, utilityType); err != nil {
			if db.IsDuplicateKeyErr(err) {
				return domain.ErrDuplicateUtilityType
			}
			return err
		}
		updated = *utilityType
		return nil
	})
	if err != nil {
		return domain.UtilityType{}, err
	}
	return updated, nil
}

func (s *Service) DeleteUtilityType(ctx context.Context, rawID string) error {
	id, err := parseID(rawID, domain.ErrInvalidID)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		utilityType, err := s.utilityTypes.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if utilityType == nil {
			return domain.ErrUtilityTypeNotFound
		}
		refs, err := s.utilityTypes.CountReferences(ctx, tx, id)
		if err != nil {
			return err
		}
		if refs > 0 {
			return domain.ErrUtilityTypeInUse
		}
		return s.utilityTypes.Delete(ctx, tx, id)
	})
}

func (s *Service) GetUtilityType(ctx context.Context, rawID string) (domain.UtilityType, error) {
	id, err := parseID(rawID, domain.ErrInvalidID)
	if err != nil {
		return domain.UtilityType{}, err
	}
	utilityType, err := s.utilityTypes.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.UtilityType{}, err
	}
	if utilityType == nil {
		return domain.UtilityType{}, domain.ErrUtilityTypeNotFound
	}
	return *utilityType, nil
}

func (s *Service) ListUtilityTypes(ctx context.Context) ([]domain.UtilityType, error) {
	types, err := s.utilityTypes.List(ctx, s.db)
	if err != nil {
		return nil, err
	}
	if types == nil {
		types = []domain.UtilityType{}
	}
	return types, nil
}

func validateUtilityType(req domain.UtilityTypeRequest) (string, string, error) {
	name := strings.TrimSpace(req.TypeName)
	if name == "" || len(name) > 50 {
		return "", "", domain.ErrInvalidTypeName
	}
	unit := strings.TrimSpace(req.UnitOfMeasure)
	if unit == "" || len(unit) > 20 {
		return "", "", domain.ErrInvalidUnitOfMeasure
	}
	return name, unit, nil
}

func parseID(value string, invalid error) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, invalid
	}
	return id, nil
}
