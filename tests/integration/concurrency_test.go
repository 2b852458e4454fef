package integration

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"pix-webhook-gateway/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestConcurrentWebhookDeliveries verifies that the provider hammering
// the endpoint with duplicate and out-of-order deliveries for the same
// payment yields exactly one settlement and one published state change.
func TestConcurrentWebhookDeliveries(t *testing.T) {
	app := newTestApp(t)
	secret := app.rotateSecret(t, domain.ScopeServer)
	invoiceID := app.seedInvoice(domain.ScopeServer, "qr-storm")

	deliveries := []string{
		"depix_sent", "under_review", "depix_sent", "pending",
		"depix_sent", "under_review", "depix_sent", "depix_sent",
	}

	var wg sync.WaitGroup
	for _, status := range deliveries {
		wg.Add(1)
		go func(status string) {
			defer wg.Done()
			resp := app.postWebhook(t, "/depix/webhooks/deposit", secret, map[string]any{
				"qrId":   "qr-storm",
				"status": status,
			})
			resp.Body.Close()
			assert.Equal(t, 200, resp.StatusCode)
		}(status)
	}
	wg.Wait()

	app.waitForState(t, invoiceID, domain.InvoiceStatusSettled)
	// Let any queued stale deliveries drain through the single worker.
	time.Sleep(200 * time.Millisecond)

	state, err := app.invoices.GetState(context.Background(), invoiceID)
	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceStatusSettled, state.Status, "stale deliveries must not unsettle")

	settlements := 0
	for _, e := range app.publisher.published() {
		if e.NewState.Status == domain.InvoiceStatusSettled {
			settlements++
		}
	}
	assert.Equal(t, 1, settlements, "settlement must be published exactly once")
}

// TestConcurrentDistinctInvoices verifies independent payments settle
// independently under parallel delivery.
func TestConcurrentDistinctInvoices(t *testing.T) {
	app := newTestApp(t)
	secret := app.rotateSecret(t, domain.ScopeServer)

	const n = 20
	ids := make([]string, n)
	for i := 0; i < n; i++ {
		ids[i] = app.seedInvoice(domain.ScopeServer, qrName(i))
	}

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resp := app.postWebhook(t, "/depix/webhooks/deposit", secret, map[string]any{
				"qrId":   qrName(i),
				"status": "depix_sent",
			})
			resp.Body.Close()
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		app.waitForState(t, id, domain.InvoiceStatusSettled)
	}
	assert.Len(t, app.publisher.published(), n)
}

func qrName(i int) string {
	return fmt.Sprintf("qr-par-%d", i)
}
