package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/utilibill/internal/auth"
	authdomain "github.com/smallbiznis/utilibill/internal/auth/domain"
	"github.com/smallbiznis/utilibill/internal/authorization"
	"github.com/smallbiznis/utilibill/internal/billing"
	billingdomain "github.com/smallbiznis/utilibill/internal/billing/domain"
	"github.com/smallbiznis/utilibill/internal/config"
	"github.com/smallbiznis/utilibill/internal/customer"
	customerdomain "github.com/smallbiznis/utilibill/internal/customer/domain"
	"github.com/smallbiznis/utilibill/internal/meter"
	meterdomain "github.com/smallbiznis/utilibill/internal/meter/domain"
	"github.com/smallbiznis/utilibill/internal/observability"
	obsmiddleware "github.com/smallbiznis/utilibill/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/utilibill/internal/observability/metrics"
	obstracing "github.com/smallbiznis/utilibill/internal/observability/tracing"
	"github.com/smallbiznis/utilibill/internal/payment"
	paymentdomain "github.com/smallbiznis/utilibill/internal/payment/domain"
	"github.com/smallbiznis/utilibill/internal/ratelimit"
	"github.com/smallbiznis/utilibill/internal/reading"
	readingdomain "github.com/smallbiznis/utilibill/internal/reading/domain"
	"github.com/smallbiznis/utilibill/internal/report"
	"github.com/smallbiznis/utilibill/internal/tariff"
	tariffdomain "github.com/smallbiznis/utilibill/internal/tariff/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	authorization.Module,
	auth.Module,
	customer.Module,
	meter.Module,
	tariff.Module,
	reading.Module,
	billing.Module,
	payment.Module,
	report.Module,
	ratelimit.Module,
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func run(lc fx.Lifecycle, s *Server, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           s.Engine(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine        *gin.Engine
	cfg           config.Config
	authsvc       authdomain.Service
	authzSvc      authorization.Service
	customerSvc   customerdomain.Service
	meterSvc      meterdomain.Service
	tariffSvc     tariffdomain.Service
	readingSvc    readingdomain.Service
	billingEngine billingdomain.Engine
	sweeper       billingdomain.Sweeper
	billSvc       billingdomain.Service
	processor     paymentdomain.Processor
	paymentSvc    paymentdomain.Service
	reports       *report.Assembler
	loginLimiter  *ratelimit.LoginLimiter
}

type ServerParams struct {
	fx.In

	Gin          *gin.Engine
	Cfg          config.Config
	Authsvc      authdomain.Service
	AuthzSvc     authorization.Service
	CustomerSvc  customerdomain.Service
	MeterSvc     meterdomain.Service
	TariffSvc    tariffdomain.Service
	ReadingSvc   readingdomain.Service
	Engine       billingdomain.Engine
	Sweeper      billingdomain.Sweeper
	BillSvc      billingdomain.Service
	Processor    paymentdomain.Processor
	PaymentSvc   paymentdomain.Service
	Reports      *report.Assembler
	LoginLimiter *ratelimit.LoginLimiter `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:        p.Gin,
		cfg:           p.Cfg,
		authsvc:       p.Authsvc,
		authzSvc:      p.AuthzSvc,
		customerSvc:   p.CustomerSvc,
		meterSvc:      p.MeterSvc,
		tariffSvc:     p.TariffSvc,
		readingSvc:    p.ReadingSvc,
		billingEngine: p.Engine,
		sweeper:       p.Sweeper,
		billSvc:       p.BillSvc,
		processor:     p.Processor,
		paymentSvc:    p.PaymentSvc,
		reports:       p.Reports,
		loginLimiter:  p.LoginLimiter,
	}

	svc.registerAuthRoutes()
	svc.registerAPIRoutes()
	registerFallback(svc.engine)

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAuthRoutes() {
	auth := s.engine.Group("/auth")

	auth.POST("/login", s.LoginRateLimit(), s.Login)
	auth.GET("/me", s.AuthRequired(), s.Me)

	users := auth.Group("/users", s.AuthRequired())
	{
		users.GET("", s.authorize(authorization.ObjectUser, authorization.ActionView), s.ListUsers)
		users.POST("", s.authorize(authorization.ObjectUser, authorization.ActionManage), s.CreateUser)
		users.GET("/:id", s.authorize(authorization.ObjectUser, authorization.ActionView), s.GetUserByID)
		users.PUT("/:id", s.authorize(authorization.ObjectUser, authorization.ActionManage), s.UpdateUser)
		users.DELETE("/:id", s.authorize(authorization.ObjectUser, authorization.ActionManage), s.DeleteUser)
	}
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")
	api.Use(s.AuthRequired())

	// -------- Utility types --------
	api.GET("/utility-types", s.authorize(authorization.ObjectUtilityType, authorization.ActionView), s.ListUtilityTypes)
	api.POST("/utility-types", s.authorize(authorization.ObjectUtilityType, authorization.ActionManage), s.CreateUtilityType)
	api.GET("/utility-types/:id", s.authorize(authorization.ObjectUtilityType, authorization.ActionView), s.GetUtilityTypeByID)
	api.PUT("/utility-types/:id", s.authorize(authorization.ObjectUtilityType, authorization.ActionManage), s.UpdateUtilityType)
	api.DELETE("/utility-types/:id", s.authorize(authorization.ObjectUtilityType, authorization.ActionManage), s.DeleteUtilityType)

	// -------- Customers --------
	api.GET("/customers", s.authorize(authorization.ObjectCustomer, authorization.ActionView), s.ListCustomers)
	api.POST("/customers", s.authorize(authorization.ObjectCustomer, authorization.ActionCreate), s.CreateCustomer)
	api.GET("/customers/:id", s.authorize(authorization.ObjectCustomer, authorization.ActionView), s.GetCustomerByID)
	api.GET("/customers/:id/details", s.authorize(authorization.ObjectCustomer, authorization.ActionView), s.GetCustomerDetails)
	api.GET("/customers/:id/meters", s.authorize(authorization.ObjectMeter, authorization.ActionView), s.ListCustomerMeters)
	api.GET("/customers/:id/bills", s.authorize(authorization.ObjectBill, authorization.ActionView), s.ListCustomerBills)
	api.GET("/customers/:id/statement", s.authorize(authorization.ObjectReport, authorization.ActionGenerate), s.GetCustomerStatement)
	api.PUT("/customers/:id", s.authorize(authorization.ObjectCustomer, authorization.ActionUpdate), s.UpdateCustomer)
	api.DELETE("/customers/:id", s.authorize(authorization.ObjectCustomer, authorization.ActionDelete), s.DeleteCustomer)

	// -------- Meters --------
	api.GET("/meters", s.authorize(authorization.ObjectMeter, authorization.ActionView), s.ListMeters)
	api.POST("/meters", s.authorize(authorization.ObjectMeter, authorization.ActionCreate), s.CreateMeter)
	api.GET("/meters/:id", s.authorize(authorization.ObjectMeter, authorization.ActionView), s.GetMeterByID)
	api.GET("/meters/:id/readings", s.authorize(authorization.ObjectReading, authorization.ActionView), s.ListMeterReadings)
	api.GET("/meters/:id/readings/last", s.authorize(authorization.ObjectReading, authorization.ActionView), s.GetLastMeterReading)
	api.PUT("/meters/:id", s.authorize(authorization.ObjectMeter, authorization.ActionUpdate), s.UpdateMeter)
	api.PUT("/meters/:id/status", s.authorize(authorization.ObjectMeter, authorization.ActionUpdate), s.SetMeterStatus)
	api.DELETE("/meters/:id", s.authorize(authorization.ObjectMeter, authorization.ActionDelete), s.DeleteMeter)

	// -------- Tariffs --------
	api.GET("/tariffs", s.authorize(authorization.ObjectTariff, authorization.ActionView), s.ListTariffs)
	api.POST("/tariffs", s.authorize(authorization.ObjectTariff, authorization.ActionCreate), s.CreateTariff)
	api.GET("/tariffs/:id", s.authorize(authorization.ObjectTariff, authorization.ActionView), s.GetTariffByID)
	api.PUT("/tariffs/:id", s.authorize(authorization.ObjectTariff, authorization.ActionUpdate), s.UpdateTariff)
	api.DELETE("/tariffs/:id", s.authorize(authorization.ObjectTariff, authorization.ActionDelete), s.DeleteTariff)

	// -------- Readings --------
	api.GET("/readings", s.authorize(authorization.ObjectReading, authorization.ActionView), s.ListReadings)
	api.POST("/readings", s.authorize(authorization.ObjectReading, authorization.ActionCreate), s.RecordReading)
	api.GET("/readings/:id", s.authorize(authorization.ObjectReading, authorization.ActionView), s.GetReadingByID)
	api.DELETE("/readings/:id", s.authorize(authorization.ObjectReading, authorization.ActionDelete), s.DeleteReading)

	// -------- Bills --------
	api.GET("/bills", s.authorize(authorization.ObjectBill, authorization.ActionView), s.ListBills)
	api.GET("/bills/unpaid", s.authorize(authorization.ObjectBill, authorization.ActionView), s.ListUnpaidBills)
	api.GET("/bills/summary", s.authorize(authorization.ObjectBill, authorization.ActionView), s.GetBillSummary)
	api.PUT("/bills/mark-overdue", s.authorize(authorization.ObjectBill, authorization.ActionMarkOverdue), s.MarkOverdueBills)
	api.POST("/bills/mark-overdue", s.authorize(authorization.ObjectBill, authorization.ActionMarkOverdue), s.MarkOverdueBills)
	api.GET("/bills/:id", s.authorize(authorization.ObjectBill, authorization.ActionView), s.GetBillByID)
	api.GET("/bills/:id/payments", s.authorize(authorization.ObjectPayment, authorization.ActionView), s.ListBillPayments)
	api.PUT("/bills/:id/status", s.authorize(authorization.ObjectBill, authorization.ActionUpdate), s.UpdateBillStatus)
	api.DELETE("/bills/:id", s.authorize(authorization.ObjectBill, authorization.ActionDelete), s.DeleteBill)

	// -------- Payments --------
	api.GET("/payments", s.authorize(authorization.ObjectPayment, authorization.ActionView), s.ListPayments)
	api.POST("/payments", s.authorize(authorization.ObjectPayment, authorization.ActionCreate), s.PayBill)
	api.GET("/payments/stats", s.authorize(authorization.ObjectPayment, authorization.ActionView), s.GetPaymentStats)
	api.GET("/payments/:id", s.authorize(authorization.ObjectPayment, authorization.ActionView), s.GetPaymentByID)
	api.GET("/payments/:id/receipt", s.authorize(authorization.ObjectReport, authorization.ActionGenerate), s.GetPaymentReceipt)
	api.DELETE("/payments/:id", s.authorize(authorization.ObjectPayment, authorization.ActionDelete), s.DeletePayment)
}
