package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
	billingdomain "github.com/smallbiznis/utilibill/internal/billing/domain"
	"github.com/smallbiznis/utilibill/internal/clock"
	"github.com/smallbiznis/utilibill/internal/config"
	obslogger "github.com/smallbiznis/utilibill/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/utilibill/internal/observability/metrics"
	"github.com/smallbiznis/utilibill/internal/observability/tracing"
	"github.com/smallbiznis/utilibill/internal/payment/domain"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const receiptPrefix = "RCPT-"

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Policy  *config.BillingPolicyHolder
	Repo    domain.Repository
	Bills   billingdomain.Repository
	Metrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	policy  *config.BillingPolicyHolder
	repo    domain.Repository
	bills   billingdomain.Repository
	metrics *obsmetrics.Metrics
}

func NewService(p Params) *Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("payment.service"),
		genID:   p.GenID,
		clock:   p.Clock,
		policy:  p.Policy,
		repo:    p.Repo,
		bills:   p.Bills,
		metrics: p.Metrics,
	}
}

func NewProcessor(s *Service) domain.Processor { return s }

func NewQueryService(s *Service) domain.Service { return s }

// PayBill records a payment and moves the bill to Paid in one transaction.
// Of several concurrent payments on one bill exactly one wins; the others see
// ErrBillAlreadyPaid.
func (s *Service) PayBill(ctx context.Context, req domain.PayBillRequest) (domain.Payment, error) {
	billID, err := parseID(req.BillID, domain.ErrInvalidBillID)
	if err != nil {
		return domain.Payment{}, err
	}
	amount := req.AmountPaid
	if !amount.IsPositive() || !amount.Equal(amount.Truncate(2)) {
		return domain.Payment{}, domain.ErrInvalidAmount
	}
	method := domain.Method(strings.TrimSpace(req.PaymentMethod))
	if !method.Valid() {
		return domain.Payment{}, domain.ErrInvalidMethod
	}
	processedBy, err := parseID(req.ProcessedBy, domain.ErrInvalidProcessedBy)
	if err != nil {
		return domain.Payment{}, err
	}

	ctx, span := tracing.Start(ctx, "payment.PayBill",
		attribute.String("bill_id", billID.String()),
		attribute.String("method", string(method)),
	)
	defer span.End()

	policy := s.policy.Get()
	now := s.clock.Now()
	payment := domain.Payment{
		ID:            s.genID.Generate(),
		BillID:        billID,
		PaymentDate:   datatypes.Date(clock.DateOf(now)),
		AmountPaid:    amount,
		PaymentMethod: method,
		ProcessedBy:   processedBy,
		ReceiptNumber: newReceiptNumber(now),
		CreatedAt:     now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		bill, err := s.bills.FindByIDForUpdate(ctx, tx, billID)
		if err != nil {
			return err
		}
		if bill == nil {
			return domain.ErrBillNotFound
		}
		if !bill.Status.Payable() {
			return domain.ErrBillAlreadyPaid
		}
		if policy.PaymentAmountPolicy == config.PaymentAmountExact && !payment.AmountPaid.Equal(bill.TotalAmount) {
			return domain.ErrAmountMismatch
		}

		affected, err := s.bills.TransitionToPaid(ctx, tx, billID, now)
		if err != nil {
			return err
		}
		if affected == 0 {
			return domain.ErrBillAlreadyPaid
		}
		return s.repo.Insert(ctx, tx, &payment)
	})
	if err != nil {
		span.RecordError(tracing.SafeError(err))
		return domain.Payment{}, err
	}

	s.metrics.RecordPayment(ctx, string(method))
	obslogger.WithContext(ctx, s.log).Info("bill paid",
		zap.String("bill_id", billID.String()),
		zap.String("payment_id", payment.ID.String()),
		zap.String("receipt_number", payment.ReceiptNumber),
		zap.String("method", string(method)),
		zap.String("amount_paid", payment.AmountPaid.StringFixed(2)),
	)
	return payment, nil
}

func (s *Service) List(ctx context.Context, req domain.ListPaymentRequest) ([]domain.PaymentView, error) {
	var billID snowflake.ID
	if value := strings.TrimSpace(req.BillID); value != "" {
		id, err := parseID(value, domain.ErrInvalidBillID)
		if err != nil {
			return nil, err
		}
		billID = id
	}
	views, err := s.repo.List(ctx, s.db, billID, req.Limit)
	if err != nil {
		return nil, err
	}
	if views == nil {
		views = []domain.PaymentView{}
	}
	return views, nil
}

func (s *Service) GetByID(ctx context.Context, rawID string) (domain.PaymentView, error) {
	id, err := parseID(rawID, domain.ErrInvalidID)
	if err != nil {
		return domain.PaymentView{}, err
	}
	view, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.PaymentView{}, err
	}
	if view == nil {
		return domain.PaymentView{}, domain.ErrNotFound
	}
	return *view, nil
}

// Stats covers the trailing window ending today, inclusive.
func (s *Service) Stats(ctx context.Context) (domain.Stats, error) {
	today := clock.Today(s.clock)
	from := today.AddDate(0, 0, -(domain.StatsWindowDays - 1))

	payments, err := s.repo.ListSince(ctx, s.db, from)
	if err != nil {
		return domain.Stats{}, err
	}
	return Aggregate(payments, from, today), nil
}

func (s *Service) Delete(ctx context.Context, rawID string) error {
	id, err := parseID(rawID, domain.ErrInvalidID)
	if err != nil {
		return err
	}
	view, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return err
	}
	if view == nil {
		return domain.ErrNotFound
	}
	if err := s.repo.Delete(ctx, s.db, id); err != nil {
		return err
	}
	obslogger.WithContext(ctx, s.log).Warn("payment deleted",
		zap.String("payment_id", id.String()),
		zap.String("bill_id", view.BillID.String()),
	)
	return nil
}

// Aggregate groups payments by method and by day. Methods are ordered by
// name, days ascending.
func Aggregate(payments []domain.Payment, from, to time.Time) domain.Stats {
	byMethod := map[domain.Method]*domain.MethodStat{}
	byDay := map[string]*domain.DailyStat{}
	for _, p := range payments {
		m, ok := byMethod[p.PaymentMethod]
		if !ok {
			m = &domain.MethodStat{PaymentMethod: p.PaymentMethod, TotalAmount: decimal.Zero}
			byMethod[p.PaymentMethod] = m
		}
		m.Count++
		m.TotalAmount = m.TotalAmount.Add(p.AmountPaid)

		key := time.Time(p.PaymentDate).UTC().Format(time.DateOnly)
		d, ok := byDay[key]
		if !ok {
			d = &domain.DailyStat{Date: key, TotalAmount: decimal.Zero}
			byDay[key] = d
		}
		d.Count++
		d.TotalAmount = d.TotalAmount.Add(p.AmountPaid)
	}

	stats := domain.Stats{
		From:     from.Format(time.DateOnly),
		To:       to.Format(time.DateOnly),
		ByMethod: make([]domain.MethodStat, 0, len(byMethod)),
		ByDay:    make([]domain.DailyStat, 0, len(byDay)),
	}
	for _, m := range byMethod {
		stats.ByMethod = append(stats.ByMethod, *m)
	}
	for _, d := range byDay {
		stats.ByDay = append(stats.ByDay, *d)
	}
	sort.Slice(stats.ByMethod, func(i, j int) bool {
		return stats.ByMethod[i].PaymentMethod < stats.ByMethod[j].PaymentMethod
	})
	sort.Slice(stats.ByDay, func(i, j int) bool {
		return stats.ByDay[i].Date < stats.ByDay[j].Date
	})
	return stats
}

func newReceiptNumber(now time.Time) string {
	return receiptPrefix + ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String()
}

func parseID(value string, invalid error) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, invalid
	}
	return id, nil
}
