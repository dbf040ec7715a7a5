package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/utilibill/internal/clock"
	"github.com/smallbiznis/utilibill/internal/customer/domain"
	"github.com/smallbiznis/utilibill/pkg/db/pagination"
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
		log:   p.Log.Named("customer.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateCustomerRequest) (domain.Customer, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Customer{}, domain.ErrInvalidName
	}
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return domain.Customer{}, err
	}
	customerType := domain.CustomerType(strings.TrimSpace(req.CustomerType))
	if !customerType.Valid() {
		return domain.Customer{}, domain.ErrInvalidCustomerType
	}

	metadata := datatypes.JSONMap{}
	for k, v := range req.Metadata {
		metadata[k] = v
	}

	now := s.clock.Now()
	customer := domain.Customer{
		ID:           s.genID.Generate(),
		Name:         name,
		Address:      strings.TrimSpace(req.Address),
		Phone:        strings.TrimSpace(req.Phone),
		Email:        email,
		CustomerType: customerType,
		Metadata:     metadata,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Insert(ctx, s.db, &customer); err != nil {
		return domain.Customer{}, err
	}
	return customer, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateCustomerRequest) (domain.Customer, error) {
	id, err := s.parseID(req.ID)
	if err != nil {
		return domain.Customer{}, err
	}

	var updated domain.Customer
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		item, err := s.repo.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if item == nil {
			return domain.ErrNotFound
		}

		if req.Name != nil {
			name := strings.TrimSpace(*req.Name)
			if name == "" {
				return domain.ErrInvalidName
			}
			item.Name = name
		}
		if req.Address != nil {
			item.Address = strings.TrimSpace(*req.Address)
		}
		if req.Phone != nil {
			item.Phone = strings.TrimSpace(*req.Phone)
		}
		if req.Email != nil {
			email, err := normalizeEmail(*req.Email)
			if err != nil {
				return err
			}
			item.Email = email
		}
		if req.CustomerType != nil {
			customerType := domain.CustomerType(strings.TrimSpace(*req.CustomerType))
			if !customerType.Valid() {
				return domain.ErrInvalidCustomerType
			}
			item.CustomerType = customerType
		}
		if req.Metadata != nil {
			item.Metadata = datatypes.JSONMap(req.Metadata)
		}
		item.UpdatedAt = s.clock.Now()

		if err := s.repo.Update(ctx, tx, item); err != nil {
			return err
		}
		updated = *item
		return nil
	})
	if err != nil {
		return domain.Customer{}, err
	}
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, rawID string) error {
	id, err := s.parseID(rawID)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		item, err := s.repo.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if item == nil {
			return domain.ErrNotFound
		}
		meters, err := s.repo.CountMeters(ctx, tx, id)
		if err != nil {
			return err
		}
		if meters > 0 {
			return domain.ErrHasMeters
		}
		return s.repo.Delete(ctx, tx, id)
	})
}

func (s *Service) GetByID(ctx context.Context, rawID string) (domain.Customer, error) {
	id, err := s.parseID(rawID)
	if err != nil {
		return domain.Customer{}, err
	}

	item, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.Customer{}, err
	}
	if item == nil {
		return domain.Customer{}, domain.ErrNotFound
	}
	return *item, nil
}

func (s *Service) List(ctx context.Context, req domain.ListCustomerRequest) (domain.ListCustomerResponse, error) {
	filter := domain.ListCustomerFilter{
		Search: strings.TrimSpace(req.Search),
	}
	if value := strings.TrimSpace(req.CustomerType); value != "" {
		filter.CustomerType = domain.CustomerType(value)
		if !filter.CustomerType.Valid() {
			return domain.ListCustomerResponse{}, domain.ErrInvalidCustomerType
		}
	}

	page, err := pagination.Pagination{
		PageToken: req.PageToken,
		PageSize:  int(req.PageSize),
	}.Normalize()
	if err != nil {
		return domain.ListCustomerResponse{}, domain.ErrInvalidPageSize
	}

	items, err := s.repo.List(ctx, s.db, filter, page)
	if err != nil {
		if errors.Is(err, pagination.ErrInvalidPageToken) {
			return domain.ListCustomerResponse{}, domain.ErrInvalidPageToken
		}
		return domain.ListCustomerResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, page.PageSize, func(customer *domain.Customer) string {
		return pagination.IDCursor(customer.ID)
	})
	if len(items) > page.PageSize {
		items = items[:page.PageSize]
	}

	customers := make([]domain.Customer, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		customers = append(customers, *item)
	}

	resp := domain.ListCustomerResponse{Customers: customers}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}
	return resp, nil
}

func (s *Service) parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}

func normalizeEmail(value string) (string, error) {
	email := strings.TrimSpace(value)
	if email == "" {
		return "", nil
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return "", domain.ErrInvalidEmail
	}
	return email, nil
}
