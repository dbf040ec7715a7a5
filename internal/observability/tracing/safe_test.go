package tracing

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
)

func TestSafeAttributesDropsSensitiveKeys(t *testing.T) {
	attrs := SafeAttributes(
		attribute.String("http.route", "/api/payments"),
		attribute.String("Authorization", "Bearer x"),
		attribute.String("customer_name", "Jane"),
	)
	require.Len(t, attrs, 1)
	require.Equal(t, attribute.Key("http.route"), attrs[0].Key)
}

func TestSafeErrorTruncates(t *testing.T) {
	require.Nil(t, SafeError(nil))
	long := errors.New(strings.Repeat("x", 1000))
	got := SafeError(long)
	require.Len(t, got.Error(), maxErrorMessage+3)
	require.Equal(t, "boom", SafeError(errors.New(" boom ")).Error())
}
