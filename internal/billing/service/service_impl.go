package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/utilibill/internal/billing/domain"
	"github.com/smallbiznis/utilibill/internal/clock"
	obslogger "github.com/smallbiznis/utilibill/internal/observability/logger"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	Clock clock.Clock
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	clock clock.Clock
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("billing.service"),
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) List(ctx context.Context, req domain.ListBillRequest) ([]domain.BillView, error) {
	filter := domain.BillFilter{Limit: req.Limit}
	if value := strings.TrimSpace(req.Status); value != "" {
		filter.Status = domain.Status(value)
		if !filter.Status.Valid() {
			return nil, domain.ErrInvalidStatus
		}
	}
	if value := strings.TrimSpace(req.CustomerID); value != "" {
		customerID, err := snowflake.ParseString(value)
		if err != nil || customerID == 0 {
			return nil, domain.ErrInvalidCustomerID
		}
		filter.CustomerID = customerID
	}
	if req.Year != 0 || req.Month != 0 {
		from, to, err := MonthRange(req.Year, req.Month)
		if err != nil {
			return nil, err
		}
		filter.From, filter.To = &from, &to
	}

	views, err := s.repo.List(ctx, s.db, filter)
	if err != nil {
		return nil, err
	}
	return s.withDaysOverdue(views), nil
}

func (s *Service) GetByID(ctx context.Context, rawID string) (domain.BillView, error) {
	id, err := parseID(rawID)
	if err != nil {
		return domain.BillView{}, err
	}
	view, err := s.repo.FindView(ctx, s.db, id)
	if err != nil {
		return domain.BillView{}, err
	}
	if view == nil {
		return domain.BillView{}, domain.ErrNotFound
	}
	return s.withDaysOverdue([]domain.BillView{*view})[0], nil
}

func (s *Service) ListUnpaid(ctx context.Context) ([]domain.BillView, error) {
	views, err := s.repo.List(ctx, s.db, domain.BillFilter{
		Statuses: []domain.Status{domain.StatusUnpaid, domain.StatusOverdue},
	})
	if err != nil {
		return nil, err
	}
	return s.withDaysOverdue(views), nil
}

func (s *Service) Summary(ctx context.Context) ([]domain.StatusSummary, error) {
	rows, err := s.repo.Summary(ctx, s.db)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []domain.StatusSummary{}
	}
	return rows, nil
}

// UpdateStatus is the administrative status change; it obeys the same
// transition table as payments and the overdue sweep.
func (s *Service) UpdateStatus(ctx context.Context, rawID string, rawStatus string) (domain.Bill, error) {
	id, err := parseID(rawID)
	if err != nil {
		return domain.Bill{}, err
	}
	to := domain.Status(strings.TrimSpace(rawStatus))
	if !to.Valid() {
		return domain.Bill{}, domain.ErrInvalidStatus
	}

	var updated domain.Bill
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		bill, err := s.repo.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if bill == nil {
			return domain.ErrNotFound
		}
		if !domain.CanTransition(bill.Status, to) {
			return domain.ErrInvalidTransition
		}
		now := s.clock.Now()
		affected, err := s.repo.TransitionStatus(ctx, tx, id, bill.Status, to, now)
		if err != nil {
			return err
		}
		if affected == 0 {
			return domain.ErrStatusChanged
		}
		obslogger.WithContext(ctx, s.log).Info("bill status changed",
			zap.String("bill_id", id.String()),
			zap.String("from", string(bill.Status)),
			zap.String("to", string(to)),
		)
		bill.Status = to
		bill.UpdatedAt = now
		updated = *bill
		return nil
	})
	if err != nil {
		return domain.Bill{}, err
	}
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, rawID string) error {
	id, err := parseID(rawID)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		bill, err := s.repo.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if bill == nil {
			return domain.ErrNotFound
		}
		payments, err := s.repo.CountPayments(ctx, tx, id)
		if err != nil {
			return err
		}
		if payments > 0 {
			return domain.ErrBillHasPayments
		}
		return s.repo.Delete(ctx, tx, id)
	})
}

func (s *Service) withDaysOverdue(views []domain.BillView) []domain.BillView {
	if views == nil {
		return []domain.BillView{}
	}
	today := clock.Today(s.clock)
	for i := range views {
		views[i].DaysOverdue = DaysOverdue(views[i].Bill, today)
	}
	return views
}

// DaysOverdue counts whole days past the due date for bills still owed.
func DaysOverdue(bill domain.Bill, today time.Time) int {
	if !bill.Status.Payable() {
		return 0
	}
	due := clock.DateOf(time.Time(bill.DueDate))
	if !today.After(due) {
		return 0
	}
	return int(today.Sub(due).Hours() / 24)
}

// MonthRange returns [first day of month, first day of next month) in UTC.
func MonthRange(year, month int) (time.Time, time.Time, error) {
	if year < 1900 || year > 9999 || month < 1 || month > 12 {
		return time.Time{}, time.Time{}, domain.ErrInvalidPeriod
	}
	from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return from, from.AddDate(0, 1, 0), nil
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}
