package shipment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/soyeahso/arbiter/internal/logging"
	"github.com/soyeahso/arbiter/internal/store"
)

// DBProvider implements Provider on top of the store's orders table.
type DBProvider struct {
	db  *store.DB
	log *logging.Logger
}

// NewDBProvider creates a shipment evidence provider backed by SQLite.
func NewDBProvider(db *store.DB, log *logging.Logger) *DBProvider {
	return &DBProvider{db: db, log: log.Sub("shipment")}
}

const orderColumns = `order_id, transaction_id, customer_name, carrier, tracking_number,
	shipping_date, delivery_date, delivery_status, shipping_address,
	signature, delivery_photo_url, notes`

// Lookup finds evidence by order id, transaction id, or tracking number,
// tried in that order.
func (p *DBProvider) Lookup(ctx context.Context, identifier string) (*Evidence, error) {
	if identifier == "" {
		return nil, ErrNotFound
	}

	row := p.db.SQL().QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders
		 WHERE order_id = ?1 OR transaction_id = ?1 OR tracking_number = ?1
		 LIMIT 1`, identifier,
	)

	var ev Evidence
	err := row.Scan(
		&ev.OrderID, &ev.TransactionID, &ev.CustomerName, &ev.Carrier,
		&ev.TrackingNumber, &ev.ShippingDate, &ev.DeliveryDate,
		&ev.DeliveryStatus, &ev.ShippingAddress, &ev.Signature,
		&ev.DeliveryPhotoURL, &ev.Notes,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying orders: %w", err)
	}
	return &ev, nil
}

// Upsert inserts or replaces one order's evidence.
func (p *DBProvider) Upsert(ev Evidence) error {
	if ev.OrderID == "" {
		return fmt.Errorf("order evidence requires orderId")
	}
	_, err := p.db.SQL().Exec(
		`INSERT INTO orders (`+orderColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(order_id) DO UPDATE SET
		   transaction_id = excluded.transaction_id,
		   customer_name = excluded.customer_name,
		   carrier = excluded.carrier,
		   tracking_number = excluded.tracking_number,
		   shipping_date = excluded.shipping_date,
		   delivery_date = excluded.delivery_date,
		   delivery_status = excluded.delivery_status,
		   shipping_address = excluded.shipping_address,
		   signature = excluded.signature,
		   delivery_photo_url = excluded.delivery_photo_url,
		   notes = excluded.notes`,
		ev.OrderID, ev.TransactionID, ev.CustomerName, ev.Carrier,
		ev.TrackingNumber, ev.ShippingDate, ev.DeliveryDate,
		ev.DeliveryStatus, ev.ShippingAddress, ev.Signature,
		ev.DeliveryPhotoURL, ev.Notes,
	)
	return err
}

// seedFile is the YAML shape of a shipment evidence seed file.
type seedFile struct {
	Orders []Evidence `yaml:"orders"`
}

// ImportSeed loads order evidence from a YAML file into the database.
// A missing file is not an error; the provider just has no local evidence.
func (p *DBProvider) ImportSeed(path string) (int, error) {
	if path == "" {
		return 0, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			p.log.Warn().Str("path", path).Msg("shipment seed file not found")
			return 0, nil
		}
		return 0, err
	}

	var seed seedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return 0, fmt.Errorf("parsing shipment seed: %w", err)
	}

	for _, ev := range seed.Orders {
		if err := p.Upsert(ev); err != nil {
			return 0, fmt.Errorf("importing order %s: %w", ev.OrderID, err)
		}
	}

	p.log.Info().Int("orders", len(seed.Orders)).Str("path", path).Msg("shipment evidence imported")
	return len(seed.Orders), nil
}
