package routes

import (
	"testing"
	"time"

	"eventhub/internal/payments"
	"eventhub/internal/shared/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGateway(t *testing.T) {
	sandbox, err := newGateway(config.PaymentConfig{KeySecret: "s"})
	require.NoError(t, err)
	assert.IsType(t, &payments.SandboxGateway{}, sandbox)

	_, err = newGateway(config.PaymentConfig{Gateway: "razorpay", KeyID: "rzp_test"})
	assert.Error(t, err, "razorpay needs both key id and secret")

	live, err := newGateway(config.PaymentConfig{Gateway: "Razorpay", BaseURL: "https://api.razorpay.com/v1",
		KeyID: "rzp_test", KeySecret: "s", Timeout: time.Second})
	require.NoError(t, err)
	assert.IsType(t, &payments.RazorpayGateway{}, live)

	_, err = newGateway(config.PaymentConfig{Gateway: "stripe"})
	assert.Error(t, err)
}
