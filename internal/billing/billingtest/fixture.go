// Package billingtest builds an in-memory billing database with the
// collaborators the engine, sweeper and payment processor need.
package billingtest

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	authdomain "github.com/smallbiznis/utilibill/internal/auth/domain"
	billingdomain "github.com/smallbiznis/utilibill/internal/billing/domain"
	billingrepo "github.com/smallbiznis/utilibill/internal/billing/repository"
	billingservice "github.com/smallbiznis/utilibill/internal/billing/service"
	"github.com/smallbiznis/utilibill/internal/clock"
	"github.com/smallbiznis/utilibill/internal/config"
	customerdomain "github.com/smallbiznis/utilibill/internal/customer/domain"
	meterdomain "github.com/smallbiznis/utilibill/internal/meter/domain"
	meterrepo "github.com/smallbiznis/utilibill/internal/meter/repository"
	"github.com/smallbiznis/utilibill/internal/migration"
	readingdomain "github.com/smallbiznis/utilibill/internal/reading/domain"
	readingrepo "github.com/smallbiznis/utilibill/internal/reading/repository"
	"github.com/smallbiznis/utilibill/internal/seed"
	tariffdomain "github.com/smallbiznis/utilibill/internal/tariff/domain"
	tariffrepo "github.com/smallbiznis/utilibill/internal/tariff/repository"
	tariffservice "github.com/smallbiznis/utilibill/internal/tariff/service"
	"github.com/smallbiznis/utilibill/pkg/db"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Epoch is the fake clock's starting instant.
var Epoch = time.Date(2024, time.March, 15, 10, 30, 0, 0, time.UTC)

type Fixture struct {
	DB      *gorm.DB
	Log     *zap.Logger
	Clock   *clock.FakeClock
	GenID   *snowflake.Node
	Policy  *config.BillingPolicyHolder
	Meters  meterdomain.Repository
	Reads   readingdomain.Repository
	Tariffs tariffdomain.Repository
	Bills   billingdomain.Repository

	Officer authdomain.User
}

func New(t testing.TB) *Fixture {
	t.Helper()

	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, migration.AutoMigrate(conn))
	require.NoError(t, seed.EnsureUtilityTypes(conn))

	node, err := snowflake.NewNode(7)
	require.NoError(t, err)

	f := &Fixture{
		DB:      conn,
		Log:     zaptest.NewLogger(t),
		Clock:   clock.NewFakeClock(Epoch),
		GenID:   node,
		Policy:  config.NewStaticBillingPolicy(config.DefaultBillingPolicy()),
		Meters:  meterrepo.Provide(),
		Reads:   readingrepo.Provide(),
		Tariffs: tariffrepo.Provide(),
		Bills:   billingrepo.Provide(),
	}

	f.Officer = authdomain.User{
		ID:           node.Generate(),
		Username:     "officer",
		PasswordHash: "unused",
		Role:         authdomain.RoleFieldOfficer,
		CreatedAt:    Epoch,
		UpdatedAt:    Epoch,
	}
	require.NoError(t, conn.Create(&f.Officer).Error)
	return f
}

// Resolver is the real tariff resolver over the fixture database.
func (f *Fixture) Resolver() tariffdomain.Resolver {
	return tariffservice.NewResolver(tariffservice.ResolverParams{
		Log:    f.Log,
		Policy: f.Policy,
		Meters: f.Meters,
		Repo:   f.Tariffs,
	})
}

// Engine builds a billing engine; a nil resolver means the real one.
func (f *Fixture) Engine(resolver tariffdomain.Resolver) billingdomain.Engine {
	if resolver == nil {
		resolver = f.Resolver()
	}
	return billingservice.NewEngine(billingservice.EngineParams{
		DB:       f.DB,
		Log:      f.Log,
		GenID:    f.GenID,
		Clock:    f.Clock,
		Policy:   f.Policy,
		Meters:   f.Meters,
		Readings: f.Reads,
		Repo:     f.Bills,
		Resolver: resolver,
	})
}

func (f *Fixture) Sweeper() billingdomain.Sweeper {
	return billingservice.NewSweeper(billingservice.SweeperParams{
		DB:    f.DB,
		Log:   f.Log,
		Clock: f.Clock,
		Repo:  f.Bills,
	})
}

func (f *Fixture) BillService() billingdomain.Service {
	return billingservice.New(billingservice.Params{
		DB:    f.DB,
		Log:   f.Log,
		Clock: f.Clock,
		Repo:  f.Bills,
	})
}

// SetPolicy swaps the active billing policy.
func (f *Fixture) SetPolicy(t testing.TB, mutate func(*config.BillingPolicy)) {
	t.Helper()
	policy := f.Policy.Get()
	mutate(&policy)
	require.NoError(t, f.Policy.Set(policy))
}

func (f *Fixture) UtilityType(t testing.TB, name string) tariffdomain.UtilityType {
	t.Helper()
	var ut tariffdomain.UtilityType
	require.NoError(t, f.DB.Where("type_name = ?", name).First(&ut).Error)
	return ut
}

func (f *Fixture) Customer(t testing.TB, name string, customerType customerdomain.CustomerType) customerdomain.Customer {
	t.Helper()
	c := customerdomain.Customer{
		ID:           f.GenID.Generate(),
		Name:         name,
		Address:      "1 Main Street",
		Phone:        "555-0100",
		CustomerType: customerType,
		CreatedAt:    Epoch,
		UpdatedAt:    Epoch,
	}
	require.NoError(t, f.DB.Create(&c).Error)
	return c
}

func (f *Fixture) Meter(t testing.TB, serial string, customer customerdomain.Customer, utility tariffdomain.UtilityType, status meterdomain.Status) meterdomain.Meter {
	t.Helper()
	m := meterdomain.Meter{
		ID:               f.GenID.Generate(),
		SerialNumber:     serial,
		CustomerID:       customer.ID,
		UtilityTypeID:    utility.ID,
		InstallationDate: datatypes.Date(clock.DateOf(Epoch).AddDate(-1, 0, 0)),
		Status:           status,
		CreatedAt:        Epoch,
		UpdatedAt:        Epoch,
	}
	require.NoError(t, f.DB.Create(&m).Error)
	return m
}

func (f *Fixture) Tariff(t testing.TB, utility tariffdomain.UtilityType, customerType customerdomain.CustomerType, rate, fixed string) tariffdomain.Tariff {
	t.Helper()
	tariff := tariffdomain.Tariff{
		ID:            f.GenID.Generate(),
		UtilityTypeID: utility.ID,
		CustomerType:  customerType,
		RatePerUnit:   decimal.RequireFromString(rate),
		FixedCharge:   decimal.RequireFromString(fixed),
		CreatedAt:     Epoch,
		UpdatedAt:     Epoch,
	}
	require.NoError(t, f.DB.Create(&tariff).Error)
	return tariff
}

// ElectricHousehold is meter M1 of a Household customer with a 20.00/unit,
// 100.00 fixed electricity tariff.
func (f *Fixture) ElectricHousehold(t testing.TB) meterdomain.Meter {
	t.Helper()
	electricity := f.UtilityType(t, "Electricity")
	customer := f.Customer(t, "Jane Household", customerdomain.CustomerTypeHousehold)
	f.Tariff(t, electricity, customerdomain.CustomerTypeHousehold, "20.00", "100.00")
	return f.Meter(t, "M1", customer, electricity, meterdomain.StatusActive)
}

// Reading builds a request for today's reading by the fixture officer.
func (f *Fixture) Reading(meter meterdomain.Meter, previous, current string) billingdomain.RecordReadingRequest {
	return billingdomain.RecordReadingRequest{
		MeterID:         meter.ID.String(),
		ReadingDate:     clock.Today(f.Clock),
		PreviousReading: decimal.RequireFromString(previous),
		CurrentReading:  decimal.RequireFromString(current),
		ReadingTakenBy:  f.Officer.ID.String(),
	}
}

// Bill records a reading and returns its bill.
func (f *Fixture) Bill(t testing.TB, meter meterdomain.Meter, previous, current string) billingdomain.Bill {
	t.Helper()
	result, err := f.Engine(nil).RecordReadingAndBill(context.Background(), f.Reading(meter, previous, current))
	require.NoError(t, err)
	return result.Bill
}

func (f *Fixture) CountReadings(t testing.TB, meterID snowflake.ID) int64 {
	t.Helper()
	var count int64
	require.NoError(t, f.DB.Model(&readingdomain.Reading{}).Where("meter_id = ?", meterID).Count(&count).Error)
	return count
}

func (f *Fixture) CountBills(t testing.TB) int64 {
	t.Helper()
	var count int64
	require.NoError(t, f.DB.Model(&billingdomain.Bill{}).Count(&count).Error)
	return count
}

// ReloadBill reads the bill back from the database.
func (f *Fixture) ReloadBill(t testing.TB, id snowflake.ID) billingdomain.Bill {
	t.Helper()
	bill, err := f.Bills.FindByID(context.Background(), f.DB, id)
	require.NoError(t, err)
	require.NotNil(t, bill)
	return *bill
}
