package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func int64Ptr(v int64) *int64 { return &v }

func TestPaymentDetails_UnknownKeysSurviveRoundTrip(t *testing.T) {
	raw := []byte(`{
		"qrId": "qr-123",
		"status": "pending",
		"valueInCents": 5000,
		"providerRef": "abc-789",
		"nested": {"a": 1, "b": [true, null]}
	}`)

	var d PaymentDetails
	require.NoError(t, json.Unmarshal(raw, &d))

	require.NotNil(t, d.QrID)
	assert.Equal(t, "qr-123", *d.QrID)
	require.NotNil(t, d.ValueInCents)
	assert.Equal(t, int64(5000), *d.ValueInCents)
	require.Contains(t, d.Extra, "providerRef")
	require.Contains(t, d.Extra, "nested")

	out, err := json.Marshal(d)
	require.NoError(t, err)

	var m map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(out, &m))
	assert.JSONEq(t, `"abc-789"`, string(m["providerRef"]))
	assert.JSONEq(t, `{"a": 1, "b": [true, null]}`, string(m["nested"]))
	assert.JSONEq(t, `"qr-123"`, string(m["qrId"]))
}

func TestPaymentDetails_NoExtraKeys(t *testing.T) {
	var d PaymentDetails
	require.NoError(t, json.Unmarshal([]byte(`{"qrId":"x"}`), &d))
	assert.Nil(t, d.Extra)
}

func TestPaymentDetails_RawStatus(t *testing.T) {
	assert.Equal(t, "pending", PaymentDetails{}.RawStatus())
	assert.Equal(t, "pending", PaymentDetails{Status: strPtr("")}.RawStatus())
	assert.Equal(t, "depix_sent", PaymentDetails{Status: strPtr("depix_sent")}.RawStatus())
}

func TestMergeDetails_PresentFieldsOverwrite(t *testing.T) {
	existing := &PaymentDetails{
		QrID:         strPtr("qr-1"),
		Status:       strPtr("pending"),
		ValueInCents: int64Ptr(1000),
		PixKey:       strPtr("old-key"),
	}
	n := DepositNotification{
		QrID:         "qr-1",
		Status:       strPtr("depix_sent"),
		BankTxID:     strPtr("bank-42"),
		ValueInCents: int64Ptr(2500),
	}

	merged := MergeDetails(existing, n)

	assert.Equal(t, "depix_sent", *merged.Status)
	assert.Equal(t, "bank-42", *merged.BankTxID)
	assert.Equal(t, int64(2500), *merged.ValueInCents)
	// Absent fields keep their stored values.
	assert.Equal(t, "qr-1", *merged.QrID)
	assert.Equal(t, "old-key", *merged.PixKey)
	// The source struct is untouched.
	assert.Equal(t, "pending", *existing.Status)
}

func TestMergeDetails_NilExisting(t *testing.T) {
	n := DepositNotification{QrID: "qr-9", Status: strPtr("under_review")}

	merged := MergeDetails(nil, n)

	assert.Equal(t, "under_review", *merged.Status)
	assert.Nil(t, merged.QrID)
}

func TestMergeDetails_PayerMergedOneLevel(t *testing.T) {
	existing := &PaymentDetails{
		Payer: &Payer{
			Name: strPtr("Alice"),
			Euid: strPtr("euid-1"),
		},
	}
	n := DepositNotification{
		QrID:           "qr-1",
		PayerTaxNumber: strPtr("12345678900"),
	}

	merged := MergeDetails(existing, n)

	require.NotNil(t, merged.Payer)
	assert.Equal(t, "Alice", *merged.Payer.Name)
	assert.Equal(t, "euid-1", *merged.Payer.Euid)
	assert.Equal(t, "12345678900", *merged.Payer.TaxNumber)
}

func TestMergeDetails_NoPayerFieldsLeavesPayerAlone(t *testing.T) {
	existing := &PaymentDetails{Payer: &Payer{Name: strPtr("Alice")}}
	n := DepositNotification{QrID: "qr-1", Status: strPtr("expired")}

	merged := MergeDetails(existing, n)

	assert.Same(t, existing.Payer, merged.Payer)
}

func TestMergeDetails_Idempotent(t *testing.T) {
	existing := &PaymentDetails{QrID: strPtr("qr-1")}
	n := DepositNotification{
		QrID:      "qr-1",
		Status:    strPtr("depix_sent"),
		BankTxID:  strPtr("bank-1"),
		PayerName: strPtr("Bob"),
	}

	once := MergeDetails(existing, n)
	twice := MergeDetails(&once, n)

	assert.Equal(t, once, twice)
}

func TestMergeDetails_ExtraKeysPreserved(t *testing.T) {
	var existing PaymentDetails
	require.NoError(t, json.Unmarshal([]byte(`{"qrId":"qr-1","customField":42}`), &existing))

	merged := MergeDetails(&existing, DepositNotification{QrID: "qr-1", Status: strPtr("expired")})

	out, err := json.Marshal(merged)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"customField":42`)
}
