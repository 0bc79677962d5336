package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransition_Table(t *testing.T) {
	allowed := map[OrderStatus][]OrderStatus{
		StatusOrderReceived:    {StatusPaymentConfirmed, StatusCancelled},
		StatusPaymentConfirmed: {StatusPreparing, StatusRefunded},
		StatusPreparing:        {StatusReadyForPickup, StatusCancelled},
		StatusReadyForPickup:   {StatusPickedUp},
		StatusPickedUp:         {StatusCompleted},
	}
	for _, from := range OrderStatuses {
		for _, to := range OrderStatuses {
			want := false
			for _, a := range allowed[from] {
				if a == to {
					want = true
				}
			}
			assert.Equalf(t, want, CanTransition(from, to), "%s -> %s", from, to)
		}
	}
}

func TestCheckTransition_TerminalRejectsEverything(t *testing.T) {
	for _, from := range []OrderStatus{StatusCompleted, StatusCancelled, StatusRefunded} {
		for _, to := range OrderStatuses {
			err := CheckTransition(from, to)
			require.Error(t, err)
			assert.Equal(t, EINVALID, ErrorCode(err))
			assert.Contains(t, ErrorMessage(err), "cannot modify order from "+string(from))
		}
	}
}

func TestCheckTransition_NamesPredecessor(t *testing.T) {
	err := CheckTransition(StatusOrderReceived, StatusReadyForPickup)
	require.Error(t, err)
	assert.Equal(t, "order must be in PREPARING status before marking as READY_FOR_PICKUP", ErrorMessage(err))

	err = CheckTransition(StatusReadyForPickup, StatusCancelled)
	require.Error(t, err)
	assert.Equal(t, "order must be in ORDER_RECEIVED or PREPARING status before marking as CANCELLED", ErrorMessage(err))

	assert.NoError(t, CheckTransition(StatusPreparing, StatusReadyForPickup))
}

func TestCheckTransition_UnknownTarget(t *testing.T) {
	err := CheckTransition(StatusOrderReceived, OrderStatus("SHIPPED"))
	require.Error(t, err)
	assert.Contains(t, ErrorMessage(err), "invalid status")
}

func TestCheckTransition_InitialStatusUnreachable(t *testing.T) {
	err := CheckTransition(StatusPaymentConfirmed, StatusOrderReceived)
	require.Error(t, err)
	assert.Equal(t, "order cannot be moved to ORDER_RECEIVED", ErrorMessage(err))
}

func TestInitialPaymentStatus(t *testing.T) {
	assert.Equal(t, PaymentPending, InitialPaymentStatus("COD"))
	assert.Equal(t, PaymentPending, InitialPaymentStatus(" cod "))
	assert.Equal(t, PaymentUnpaid, InitialPaymentStatus("CARD"))
}

func TestParseCents(t *testing.T) {
	cents, err := ParseCents("12.5")
	require.NoError(t, err)
	assert.Equal(t, int64(1250), cents)

	cents, err = ParseCents("600")
	require.NoError(t, err)
	assert.Equal(t, int64(60000), cents)

	_, err = ParseCents("1.005")
	assert.Error(t, err)
	_, err = ParseCents("-1")
	assert.Error(t, err)
	_, err = ParseCents("abc")
	assert.Error(t, err)

	assert.Equal(t, "6.01", FormatCents(601))
}

func TestParseCents_RejectsAmountsAboveCap(t *testing.T) {
	cents, err := ParseCents("1000000.00")
	require.NoError(t, err)
	assert.Equal(t, MaxAmountCents, cents)

	for _, raw := range []string{"1000000.01", "100000000000000000000", "92233720368547758.08"} {
		cents, err := ParseCents(raw)
		require.Error(t, err, raw)
		assert.Equal(t, EINVALID, ErrorCode(err), raw)
		assert.Zero(t, cents, raw)
	}
}
