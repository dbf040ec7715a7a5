package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	authdomain "github.com/smallbiznis/utilibill/internal/auth/domain"
	authrepo "github.com/smallbiznis/utilibill/internal/auth/repository"
	authservice "github.com/smallbiznis/utilibill/internal/auth/service"
	"github.com/smallbiznis/utilibill/internal/authorization"
	"github.com/smallbiznis/utilibill/internal/billing/billingtest"
	billingdomain "github.com/smallbiznis/utilibill/internal/billing/domain"
	"github.com/smallbiznis/utilibill/internal/clock"
	"github.com/smallbiznis/utilibill/internal/config"
	customerrepo "github.com/smallbiznis/utilibill/internal/customer/repository"
	customerservice "github.com/smallbiznis/utilibill/internal/customer/service"
	meterdomain "github.com/smallbiznis/utilibill/internal/meter/domain"
	paymentrepo "github.com/smallbiznis/utilibill/internal/payment/repository"
	paymentservice "github.com/smallbiznis/utilibill/internal/payment/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testPassword = "correct-horse"

type testServer struct {
	f      *billingtest.Fixture
	router *gin.Engine
	meter  meterdomain.Meter
	auth   authdomain.Service
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	f := billingtest.New(t)
	enforcer, err := authorization.NewMemoryEnforcer()
	require.NoError(t, err)

	authSvc := authservice.New(authservice.Params{
		DB:     f.DB,
		Log:    f.Log,
		GenID:  f.GenID,
		Clock:  f.Clock,
		Config: config.Config{AuthJWTSecret: "test-secret", AuthTokenTTL: time.Hour},
		Repo:   authrepo.Provide(),
	})
	payments := paymentservice.NewService(paymentservice.Params{
		DB:     f.DB,
		Log:    f.Log,
		GenID:  f.GenID,
		Clock:  f.Clock,
		Policy: f.Policy,
		Repo:   paymentrepo.Provide(),
		Bills:  f.Bills,
	})

	router := gin.New()
	router.Use(ErrorHandlingMiddleware())
	NewServer(ServerParams{
		Gin:      router,
		Authsvc:  authSvc,
		AuthzSvc: authorization.NewService(authorization.Params{Log: zap.NewNop(), Enforcer: enforcer}),
		CustomerSvc: customerservice.New(customerservice.Params{
			DB:    f.DB,
			Log:   f.Log,
			GenID: f.GenID,
			Clock: f.Clock,
			Repo:  customerrepo.Provide(),
		}),
		Engine:     f.Engine(nil),
		Sweeper:    f.Sweeper(),
		BillSvc:    f.BillService(),
		Processor:  payments,
		PaymentSvc: payments,
	})

	ctx := context.Background()
	for _, user := range []authdomain.CreateUserRequest{
		{Username: "reader1", Password: testPassword, Role: string(authdomain.RoleFieldOfficer)},
		{Username: "cashier1", Password: testPassword, Role: string(authdomain.RoleCashier)},
		{Username: "manager1", Password: testPassword, Role: string(authdomain.RoleManager)},
	} {
		_, err := authSvc.CreateUser(ctx, user)
		require.NoError(t, err)
	}

	return &testServer{f: f, router: router, meter: f.ElectricHousehold(t), auth: authSvc}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var payload bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&payload).Encode(body))
	}
	req := httptest.NewRequest(method, path, &payload)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp := httptest.NewRecorder()
	s.router.ServeHTTP(resp, req)
	return resp
}

func (s *testServer) login(t *testing.T, username string) string {
	t.Helper()
	resp := s.do(t, http.MethodPost, "/auth/login", "", gin.H{"Username": username, "Password": testPassword})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var out struct {
		Data struct {
			Token string `json:"Token"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out))
	require.NotEmpty(t, out.Data.Token)
	return out.Data.Token
}

func (s *testServer) readingBody(previous, current string) gin.H {
	return gin.H{
		"MeterID":         s.meter.ID.String(),
		"ReadingDate":     clock.Today(s.f.Clock).Format(dateOnlyLayout),
		"PreviousReading": previous,
		"CurrentReading":  current,
	}
}

type recordResponse struct {
	Data struct {
		Bill billingdomain.Bill `json:"Bill"`
	} `json:"data"`
}

func (s *testServer) recordBill(t *testing.T, token string) billingdomain.Bill {
	t.Helper()
	resp := s.do(t, http.MethodPost, "/api/readings", token, s.readingBody("100", "150"))
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	var out recordResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out))
	return out.Data.Bill
}

func decodeError(t *testing.T, resp *httptest.ResponseRecorder) errorPayload {
	t.Helper()
	var out errorResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out))
	return out.Error
}

func TestRecordReadingCreatesBill(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "reader1")

	bill := s.recordBill(t, token)

	assert.True(t, decimal.RequireFromString("50").Equal(bill.UnitsConsumed))
	assert.True(t, decimal.RequireFromString("1100.00").Equal(bill.TotalAmount))
	assert.Equal(t, billingdomain.StatusUnpaid, bill.Status)
	assert.Equal(t, int64(1), s.f.CountBills(t))
}

func TestRecordReadingRejectsCurrentBelowPrevious(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "reader1")

	resp := s.do(t, http.MethodPost, "/api/readings", token, s.readingBody("150", "100"))
	require.Equal(t, http.StatusBadRequest, resp.Code)

	payload := decodeError(t, resp)
	assert.Equal(t, "validation_error", payload.Type)
	require.Len(t, payload.Errors, 1)
	assert.Equal(t, "CurrentReading", payload.Errors[0].Field)
	assert.Equal(t, "current_below_previous", payload.Errors[0].Code)
	assert.Equal(t, billingdomain.CurrentBelowPreviousMessage, payload.Errors[0].Message)
	assert.Equal(t, int64(0), s.f.CountBills(t))
}

func TestRecordReadingRejectsSubCentReadings(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "reader1")

	resp := s.do(t, http.MethodPost, "/api/readings", token, s.readingBody("100.004", "100.006"))
	require.Equal(t, http.StatusBadRequest, resp.Code)

	payload := decodeError(t, resp)
	require.Len(t, payload.Errors, 1)
	assert.Equal(t, "reading_precision", payload.Errors[0].Code)
	assert.Equal(t, int64(0), s.f.CountBills(t))
}

func TestRecordReadingRequiresCurrentReading(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "reader1")

	body := s.readingBody("100", "150")
	delete(body, "CurrentReading")
	resp := s.do(t, http.MethodPost, "/api/readings", token, body)

	require.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "CurrentReading", decodeError(t, resp).Errors[0].Field)
}

func TestRecordReadingUnknownMeter(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "reader1")

	body := s.readingBody("100", "150")
	body["MeterID"] = s.f.GenID.Generate().String()
	resp := s.do(t, http.MethodPost, "/api/readings", token, body)

	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestRequestsWithoutTokenAreUnauthorized(t *testing.T) {
	s := newTestServer(t)

	resp := s.do(t, http.MethodPost, "/api/readings", "", s.readingBody("100", "150"))
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = s.do(t, http.MethodGet, "/api/bills", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	s := newTestServer(t)

	resp := s.do(t, http.MethodPost, "/auth/login", "", gin.H{"Username": "cashier1", "Password": "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestCashierCannotRecordReadings(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "cashier1")

	resp := s.do(t, http.MethodPost, "/api/readings", token, s.readingBody("100", "150"))
	assert.Equal(t, http.StatusForbidden, resp.Code)
	assert.Equal(t, int64(0), s.f.CountBills(t))
}

func TestPayBillThenConflict(t *testing.T) {
	s := newTestServer(t)
	bill := s.recordBill(t, s.login(t, "reader1"))
	cashier := s.login(t, "cashier1")

	body := gin.H{"BillID": bill.ID.String(), "AmountPaid": "1100.00", "PaymentMethod": "Cash"}
	resp := s.do(t, http.MethodPost, "/api/payments", cashier, body)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	assert.Equal(t, billingdomain.StatusPaid, s.f.ReloadBill(t, bill.ID).Status)

	resp = s.do(t, http.MethodPost, "/api/payments", cashier, body)
	require.Equal(t, http.StatusConflict, resp.Code)
	assert.Equal(t, "conflict", decodeError(t, resp).Type)
}

func TestPayBillUnknownBill(t *testing.T) {
	s := newTestServer(t)
	cashier := s.login(t, "cashier1")

	resp := s.do(t, http.MethodPost, "/api/payments", cashier, gin.H{
		"BillID":        s.f.GenID.Generate().String(),
		"AmountPaid":    "10.00",
		"PaymentMethod": "Card",
	})
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestPayBillRejectsNonPositiveAmount(t *testing.T) {
	s := newTestServer(t)
	bill := s.recordBill(t, s.login(t, "reader1"))
	cashier := s.login(t, "cashier1")

	for _, amount := range []string{"0", "0.004"} {
		resp := s.do(t, http.MethodPost, "/api/payments", cashier, gin.H{
			"BillID":        bill.ID.String(),
			"AmountPaid":    amount,
			"PaymentMethod": "Cash",
		})
		require.Equal(t, http.StatusBadRequest, resp.Code, amount)
		assert.Equal(t, "AmountPaid", decodeError(t, resp).Errors[0].Field)
	}
	assert.Equal(t, billingdomain.StatusUnpaid, s.f.ReloadBill(t, bill.ID).Status)
}

func TestMarkOverdueIsIdempotent(t *testing.T) {
	s := newTestServer(t)
	bill := s.recordBill(t, s.login(t, "reader1"))

	s.f.Clock.Advance(31 * 24 * time.Hour)
	manager := s.login(t, "manager1")

	var out struct {
		Count int64 `json:"count"`
	}
	resp := s.do(t, http.MethodPut, "/api/bills/mark-overdue", manager, nil)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out))
	assert.Equal(t, int64(1), out.Count)
	assert.Equal(t, billingdomain.StatusOverdue, s.f.ReloadBill(t, bill.ID).Status)

	resp = s.do(t, http.MethodPost, "/api/bills/mark-overdue", manager, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out))
	assert.Equal(t, int64(0), out.Count)
}

func TestCashierCannotMarkOverdue(t *testing.T) {
	s := newTestServer(t)
	cashier := s.login(t, "cashier1")

	resp := s.do(t, http.MethodPut, "/api/bills/mark-overdue", cashier, nil)
	assert.Equal(t, http.StatusForbidden, resp.Code)
}

func TestCreateCustomerValidation(t *testing.T) {
	s := newTestServer(t)
	manager := s.login(t, "manager1")

	resp := s.do(t, http.MethodPost, "/api/customers", manager, gin.H{"Name": "Acme Ltd", "CustomerType": "Alien"})
	require.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "invalid_customer_type", decodeError(t, resp).Errors[0].Code)

	resp = s.do(t, http.MethodPost, "/api/customers", manager, gin.H{"CustomerType": "Business"})
	require.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "required", decodeError(t, resp).Errors[0].Code)

	resp = s.do(t, http.MethodPost, "/api/customers", manager, gin.H{"Name": "Acme Ltd", "CustomerType": "Business"})
	assert.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
}

func TestMeHonoursToken(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "cashier1")

	resp := s.do(t, http.MethodGet, "/auth/me", token, nil)
	require.Equal(t, http.StatusOK, resp.Code)

	var out struct {
		Data authdomain.User `json:"data"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out))
	assert.Equal(t, "cashier1", out.Data.Username)
	assert.Equal(t, authdomain.RoleCashier, out.Data.Role)
}

func TestMapErrorStatuses(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{billingdomain.ErrNegativeReading, http.StatusBadRequest},
		{meterdomain.ErrNotFound, http.StatusNotFound},
		{billingdomain.ErrInvalidTransition, http.StatusConflict},
		{authdomain.ErrCannotDeleteSelf, http.StatusConflict},
		{authorization.ErrForbidden, http.StatusForbidden},
		{ErrTooManyRequests, http.StatusTooManyRequests},
		{assert.AnError, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		status, _ := mapError(tc.err)
		assert.Equal(t, tc.status, status, tc.err.Error())
	}

	_, payload := mapError(assert.AnError)
	assert.Equal(t, "internal server error", payload.Message)
}
