package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	authdomain "github.com/smallbiznis/utilibill/internal/auth/domain"
	"github.com/smallbiznis/utilibill/internal/authorization"
	billingdomain "github.com/smallbiznis/utilibill/internal/billing/domain"
	customerdomain "github.com/smallbiznis/utilibill/internal/customer/domain"
	meterdomain "github.com/smallbiznis/utilibill/internal/meter/domain"
	paymentdomain "github.com/smallbiznis/utilibill/internal/payment/domain"
	readingdomain "github.com/smallbiznis/utilibill/internal/reading/domain"
	"github.com/smallbiznis/utilibill/internal/report"
	tariffdomain "github.com/smallbiznis/utilibill/internal/tariff/domain"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized    = errors.New("unauthorized")
	ErrForbidden       = errors.New("forbidden")
	ErrConflict        = errors.New("conflict")
	ErrInternal        = errors.New("internal_error")
	ErrNotFound        = errors.New("not_found")
	ErrInvalidRequest  = errors.New("invalid_request")
	ErrTooManyRequests = errors.New("too_many_requests")
)

var validationErrors = []error{
	ErrInvalidRequest,

	customerdomain.ErrInvalidName,
	customerdomain.ErrInvalidEmail,
	customerdomain.ErrInvalidCustomerType,
	customerdomain.ErrInvalidID,
	customerdomain.ErrInvalidPageToken,
	customerdomain.ErrInvalidPageSize,

	meterdomain.ErrInvalidID,
	meterdomain.ErrInvalidSerialNumber,
	meterdomain.ErrInvalidCustomer,
	meterdomain.ErrInvalidUtilityType,
	meterdomain.ErrInvalidInstallationDate,
	meterdomain.ErrInvalidStatus,
	meterdomain.ErrUtilityTypeImmutable,

	tariffdomain.ErrInvalidID,
	tariffdomain.ErrInvalidUtilityType,
	tariffdomain.ErrInvalidCustomerType,
	tariffdomain.ErrInvalidRatePerUnit,
	tariffdomain.ErrInvalidFixedCharge,
	tariffdomain.ErrInvalidTypeName,
	tariffdomain.ErrInvalidUnitOfMeasure,

	readingdomain.ErrInvalidID,
	readingdomain.ErrInvalidMeterID,

	billingdomain.ErrInvalidID,
	billingdomain.ErrInvalidMeterID,
	billingdomain.ErrInvalidCustomerID,
	billingdomain.ErrInvalidReadingDate,
	billingdomain.ErrFutureReadingDate,
	billingdomain.ErrNegativeReading,
	billingdomain.ErrCurrentBelowPrevious,
	billingdomain.ErrReadingPrecision,
	billingdomain.ErrInvalidReadingTakenBy,
	billingdomain.ErrMeterNotActive,
	billingdomain.ErrInvalidStatus,
	billingdomain.ErrInvalidPeriod,

	paymentdomain.ErrInvalidID,
	paymentdomain.ErrInvalidBillID,
	paymentdomain.ErrInvalidAmount,
	paymentdomain.ErrInvalidMethod,
	paymentdomain.ErrInvalidProcessedBy,
	paymentdomain.ErrAmountMismatch,

	authdomain.ErrInvalidID,
	authdomain.ErrInvalidUsername,
	authdomain.ErrInvalidPassword,
	authdomain.ErrInvalidRole,

	report.ErrInvalidPeriod,
}

var notFoundErrors = []error{
	ErrNotFound,
	customerdomain.ErrNotFound,
	meterdomain.ErrNotFound,
	tariffdomain.ErrNotFound,
	tariffdomain.ErrUtilityTypeNotFound,
	tariffdomain.ErrTariffNotFound,
	readingdomain.ErrNotFound,
	billingdomain.ErrNotFound,
	paymentdomain.ErrNotFound,
	paymentdomain.ErrBillNotFound,
	authdomain.ErrUserNotFound,
	gorm.ErrRecordNotFound,
}

var conflictErrors = []error{
	ErrConflict,
	customerdomain.ErrHasMeters,
	meterdomain.ErrDuplicateSerialNumber,
	meterdomain.ErrHasReadings,
	tariffdomain.ErrDuplicateTariff,
	tariffdomain.ErrDuplicateUtilityType,
	tariffdomain.ErrUtilityTypeInUse,
	readingdomain.ErrBillHasPayment,
	billingdomain.ErrBillHasPayments,
	billingdomain.ErrStatusChanged,
	billingdomain.ErrInvalidTransition,
	paymentdomain.ErrBillAlreadyPaid,
	authdomain.ErrUserExists,
	authdomain.ErrCannotDeleteSelf,
}

// Field names and messages for codes whose generic rendering would not tell
// the caller what to fix.
var validationDetails = map[string]ValidationError{
	"invalid_request":          {Field: "request", Message: "invalid request"},
	"current_below_previous":   {Field: "CurrentReading", Message: billingdomain.CurrentBelowPreviousMessage},
	"reading_precision":        {Field: "CurrentReading", Message: "Readings allow at most 2 decimal places"},
	"negative_reading":         {Field: "CurrentReading", Message: "Readings must not be negative"},
	"future_reading_date":      {Field: "ReadingDate", Message: "Reading date must not be in the future"},
	"invalid_reading_date":     {Field: "ReadingDate", Message: "Reading date is required (YYYY-MM-DD)"},
	"invalid_reading_taken_by": {Field: "ReadingTakenBy", Message: "ReadingTakenBy must be a user id"},
	"invalid_meter_id":         {Field: "MeterID", Message: "MeterID must be a meter id"},
	"meter_not_active":         {Field: "MeterID", Message: "Meter is suspended"},
	"invalid_bill_id":          {Field: "BillID", Message: "BillID must be a bill id"},
	"invalid_amount":           {Field: "AmountPaid", Message: "AmountPaid must be greater than zero with at most 2 decimal places"},
	"amount_mismatch":          {Field: "AmountPaid", Message: "AmountPaid must equal the bill total"},
	"invalid_payment_method":   {Field: "PaymentMethod", Message: "PaymentMethod must be one of Cash, Card, Online, Bank Transfer"},
	"invalid_processed_by":     {Field: "ProcessedBy", Message: "ProcessedBy must be a user id"},
	"invalid_period":           {Field: "period", Message: "year and month must form a valid period"},
	"invalid_rate_per_unit":    {Field: "RatePerUnit", Message: "RatePerUnit must be zero or greater"},
	"invalid_fixed_charge":     {Field: "FixedCharge", Message: "FixedCharge must be zero or greater"},
	"invalid_customer_type":    {Field: "CustomerType", Message: "CustomerType must be one of Household, Business, Government"},
	"utility_type_immutable":   {Field: "UtilityTypeID", Message: "A meter's utility type cannot change"},
	"invalid_password":         {Field: "Password", Message: "Password must be at least 8 characters"},
	"invalid_role":             {Field: "Role", Message: "Role must be one of Admin, Manager, FieldOfficer, Cashier"},
}

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

// bindError keeps validator field errors and collapses anything else
// (malformed JSON, wrong types) into invalid_request.
func bindError(err error) error {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		out := &ValidationErrors{}
		for _, fe := range fieldErrs {
			out.Errors = append(out.Errors, ValidationError{
				Field:   fe.Field(),
				Code:    fe.Tag(),
				Message: fieldErrorMessage(fe),
			})
		}
		return out
	}
	return invalidRequestError()
}

func fieldErrorMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "oneof":
		return fe.Field() + " must be one of " + fe.Param()
	case "gte", "min":
		return fe.Field() + " must be at least " + fe.Param()
	case "lte", "max":
		return fe.Field() + " must be at most " + fe.Param()
	default:
		return fe.Field() + " is invalid"
	}
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if sentinel := matchAny(err, validationErrors); sentinel != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  []ValidationError{describeValidation(sentinel.Error())},
		}
	}

	switch {
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, authdomain.ErrInvalidCredentials),
		errors.Is(err, authdomain.ErrInvalidToken):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case errors.Is(err, ErrForbidden),
		errors.Is(err, authorization.ErrForbidden),
		errors.Is(err, authorization.ErrInvalidRole):
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Message: "forbidden",
		}
	case matchAny(err, notFoundErrors) != nil:
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case matchAny(err, conflictErrors) != nil:
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: matchAny(err, conflictErrors).Error(),
		}
	case errors.Is(err, ErrTooManyRequests):
		return http.StatusTooManyRequests, errorPayload{
			Type:    "too_many_requests",
			Message: "too many requests",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

// classifyErrorForLog returns the error type and code for the request log.
func classifyErrorForLog(err error) (string, string) {
	_, payload := mapError(err)
	code := payload.Type
	if len(payload.Errors) > 0 {
		code = payload.Errors[0].Code
	} else if payload.Type == "conflict" {
		code = payload.Message
	}
	return payload.Type, code
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func matchAny(err error, targets []error) error {
	for _, target := range targets {
		if errors.Is(err, target) {
			return target
		}
	}
	return nil
}

func describeValidation(code string) ValidationError {
	if detail, ok := validationDetails[code]; ok {
		detail.Code = code
		return detail
	}
	field := ""
	if strings.HasPrefix(code, "invalid_") {
		field = strings.TrimPrefix(code, "invalid_")
	}
	return ValidationError{Field: field, Code: code, Message: "invalid value"}
}
