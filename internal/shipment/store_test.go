package shipment

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soyeahso/arbiter/internal/logging"
	"github.com/soyeahso/arbiter/internal/store"
)

func testProvider(t *testing.T) *DBProvider {
	t.Helper()
	log := logging.New(nil, "silent")
	db, err := store.Open(":memory:", log)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewDBProvider(db, log)
}

func sampleOrder() Evidence {
	return Evidence{
		OrderID:        "ord-1",
		TransactionID:  "tx-1",
		CustomerName:   "Jane Smith",
		Carrier:        "FedEx",
		TrackingNumber: "FX123456",
		ShippingDate:   "2026-08-15",
		DeliveryDate:   "2026-08-18",
		DeliveryStatus: "delivered",
		Signature:      "J. Smith",
	}
}

func TestLookupByEachIdentifier(t *testing.T) {
	p := testProvider(t)
	require.NoError(t, p.Upsert(sampleOrder()))

	for _, id := range []string{"ord-1", "tx-1", "FX123456"} {
		ev, err := p.Lookup(context.Background(), id)
		require.NoError(t, err, "lookup by %s", id)
		assert.Equal(t, "ord-1", ev.OrderID)
		assert.Equal(t, "FedEx", ev.Carrier)
		assert.True(t, ev.Delivered())
	}
}

func TestLookupMissing(t *testing.T) {
	p := testProvider(t)
	_, err := p.Lookup(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpsertReplacesExisting(t *testing.T) {
	p := testProvider(t)
	require.NoError(t, p.Upsert(sampleOrder()))

	updated := sampleOrder()
	updated.DeliveryStatus = "returned_to_sender"
	updated.DeliveryDate = ""
	require.NoError(t, p.Upsert(updated))

	ev, err := p.Lookup(context.Background(), "ord-1")
	require.NoError(t, err)
	assert.Equal(t, "returned_to_sender", ev.DeliveryStatus)
	assert.False(t, ev.Delivered())
}

func TestImportSeed(t *testing.T) {
	p := testProvider(t)

	seed := `
orders:
  - orderId: ord-10
    transactionId: tx-10
    carrier: UPS
    trackingNumber: 1Z999
    deliveryDate: "2026-08-20"
    deliveryStatus: delivered
    signature: R. Jones
  - orderId: ord-11
    transactionId: tx-11
    carrier: USPS
    deliveryStatus: in_transit
`
	path := filepath.Join(t.TempDir(), "orders.yaml")
	require.NoError(t, os.WriteFile(path, []byte(seed), 0o644))

	n, err := p.ImportSeed(path)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	ev, err := p.Lookup(context.Background(), "tx-10")
	require.NoError(t, err)
	assert.Equal(t, "UPS", ev.Carrier)
	assert.True(t, ev.Delivered())

	ev, err = p.Lookup(context.Background(), "ord-11")
	require.NoError(t, err)
	assert.False(t, ev.Delivered())
}

func TestImportSeedMissingFile(t *testing.T) {
	p := testProvider(t)
	n, err := p.ImportSeed(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSummaryMentionsSignatureAndDelivery(t *testing.T) {
	ev := sampleOrder()
	s := ev.Summary()
	assert.Contains(t, s, "SHIPMENT EVIDENCE:")
	assert.Contains(t, s, "Delivered: 2026-08-18")
	assert.Contains(t, s, "Signature on file: yes")

	undelivered := Evidence{OrderID: "ord-2", TransactionID: "tx-2", DeliveryStatus: "lost_in_transit"}
	s = undelivered.Summary()
	assert.Contains(t, s, "Delivered: no")
	assert.Contains(t, s, "lost_in_transit")
}

func TestPayloadFlags(t *testing.T) {
	ev := sampleOrder()
	payload := ev.Payload()
	assert.Equal(t, true, payload["delivered"])
	assert.Equal(t, true, payload["hasSignature"])
	assert.Equal(t, false, payload["hasPhoto"])
}
