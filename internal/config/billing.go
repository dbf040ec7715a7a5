package config

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	// MissingTariffZero bills at zero rate and logs a warning when no tariff matches.
	MissingTariffZero = "zero"
	// MissingTariffReject fails the reading when no tariff matches.
	MissingTariffReject = "reject"

	PaymentAmountAny   = "any"
	PaymentAmountExact = "exact"
)

// BillingPolicy holds the operator-tunable rules of the billing core.
type BillingPolicy struct {
	DueDays             int                `mapstructure:"dueDays"`
	MissingTariffPolicy string             `mapstructure:"missingTariffPolicy"`
	PaymentAmountPolicy string             `mapstructure:"paymentAmountPolicy"`
	RequireActiveMeter  bool               `mapstructure:"requireActiveMeter"`
	AllowFutureReadings bool               `mapstructure:"allowFutureReadings"`
	OverdueSweep        OverdueSweepPolicy `mapstructure:"overdueSweep"`
}

type OverdueSweepPolicy struct {
	Enabled  bool          `mapstructure:"enabled"`
	Interval time.Duration `mapstructure:"interval"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

func DefaultBillingPolicy() BillingPolicy {
	return BillingPolicy{
		DueDays:             30,
		MissingTariffPolicy: MissingTariffZero,
		PaymentAmountPolicy: PaymentAmountAny,
		RequireActiveMeter:  true,
		AllowFutureReadings: false,
		OverdueSweep: OverdueSweepPolicy{
			Enabled:  false,
			Interval: time.Hour,
			Timeout:  30 * time.Second,
		},
	}
}

type BillingPolicyHolder struct {
	current atomic.Value // holds BillingPolicy
}

// NewBillingPolicyHolder loads billing.yml from the usual locations and keeps
// it hot-reloaded. Missing files fall back to defaults.
func NewBillingPolicyHolder() (*BillingPolicyHolder, error) {
	v := viper.New()
	v.SetConfigName("billing")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/utilibill")
	v.AddConfigPath("./config")
	v.AddConfigPath(".")
	return loadBillingPolicy(v, true)
}

// NewStaticBillingPolicy wraps a fixed policy, mostly for tests and tools.
func NewStaticBillingPolicy(policy BillingPolicy) *BillingPolicyHolder {
	holder := &BillingPolicyHolder{}
	holder.current.Store(policy)
	return holder
}

func loadBillingPolicy(v *viper.Viper, watch bool) (*BillingPolicyHolder, error) {
	v.SetEnvPrefix("UTILIBILL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultBillingPolicy()
	v.SetDefault("billing.dueDays", defaults.DueDays)
	v.SetDefault("billing.missingTariffPolicy", defaults.MissingTariffPolicy)
	v.SetDefault("billing.paymentAmountPolicy", defaults.PaymentAmountPolicy)
	v.SetDefault("billing.requireActiveMeter", defaults.RequireActiveMeter)
	v.SetDefault("billing.allowFutureReadings", defaults.AllowFutureReadings)
	v.SetDefault("billing.overdueSweep.enabled", defaults.OverdueSweep.Enabled)
	v.SetDefault("billing.overdueSweep.interval", defaults.OverdueSweep.Interval)
	v.SetDefault("billing.overdueSweep.timeout", defaults.OverdueSweep.Timeout)

	fileLoaded := true
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
		fileLoaded = false
	}

	policy, err := decodeBillingPolicy(v)
	if err != nil {
		return nil, err
	}

	holder := NewStaticBillingPolicy(policy)

	if watch && fileLoaded {
		v.OnConfigChange(func(e fsnotify.Event) {
			updated, err := decodeBillingPolicy(v)
			if err != nil {
				zap.L().Warn("billing policy reload ignored", zap.String("file", e.Name), zap.Error(err))
				return
			}
			holder.current.Store(updated)
			zap.L().Info("billing policy reloaded", zap.String("file", e.Name))
		})
		v.WatchConfig()
	}

	return holder, nil
}

func decodeBillingPolicy(v *viper.Viper) (BillingPolicy, error) {
	var policy BillingPolicy
	if err := v.UnmarshalKey("billing", &policy); err != nil {
		return BillingPolicy{}, err
	}
	policy.MissingTariffPolicy = strings.ToLower(strings.TrimSpace(policy.MissingTariffPolicy))
	policy.PaymentAmountPolicy = strings.ToLower(strings.TrimSpace(policy.PaymentAmountPolicy))
	if err := validateBillingPolicy(policy); err != nil {
		return BillingPolicy{}, err
	}
	return policy, nil
}

func (h *BillingPolicyHolder) Get() BillingPolicy {
	if h == nil {
		return DefaultBillingPolicy()
	}
	policy, ok := h.current.Load().(BillingPolicy)
	if !ok {
		return DefaultBillingPolicy()
	}
	return policy
}

// Set replaces the active policy after validating it.
func (h *BillingPolicyHolder) Set(policy BillingPolicy) error {
	if err := validateBillingPolicy(policy); err != nil {
		return err
	}
	h.current.Store(policy)
	return nil
}

func validateBillingPolicy(p BillingPolicy) error {
	if p.DueDays <= 0 {
		return errors.New("billing.dueDays must be positive")
	}
	switch p.MissingTariffPolicy {
	case MissingTariffZero, MissingTariffReject:
	default:
		return fmt.Errorf("billing.missingTariffPolicy %q is not one of zero|reject", p.MissingTariffPolicy)
	}
	switch p.PaymentAmountPolicy {
	case PaymentAmountAny, PaymentAmountExact:
	default:
		return fmt.Errorf("billing.paymentAmountPolicy %q is not one of any|exact", p.PaymentAmountPolicy)
	}
	if p.OverdueSweep.Enabled && p.OverdueSweep.Interval <= 0 {
		return errors.New("billing.overdueSweep.interval must be positive when enabled")
	}
	return nil
}
