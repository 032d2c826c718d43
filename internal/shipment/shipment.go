// Package shipment provides read-only access to shipment and delivery
// evidence used during dispute resolution.
package shipment

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound means no shipment evidence exists for the given identifier.
// Absence is not a failure; disputes proceed without shipment evidence.
var ErrNotFound = errors.New("no shipment evidence for identifier")

// Evidence is the delivery record for one order.
type Evidence struct {
	OrderID          string `yaml:"orderId" json:"orderId"`
	TransactionID    string `yaml:"transactionId" json:"transactionId"`
	CustomerName     string `yaml:"customerName,omitempty" json:"customerName,omitempty"`
	Carrier          string `yaml:"carrier,omitempty" json:"carrier,omitempty"`
	TrackingNumber   string `yaml:"trackingNumber,omitempty" json:"trackingNumber,omitempty"`
	ShippingDate     string `yaml:"shippingDate,omitempty" json:"shippingDate,omitempty"`
	DeliveryDate     string `yaml:"deliveryDate,omitempty" json:"deliveryDate,omitempty"`
	DeliveryStatus   string `yaml:"deliveryStatus,omitempty" json:"deliveryStatus,omitempty"`
	ShippingAddress  string `yaml:"shippingAddress,omitempty" json:"shippingAddress,omitempty"`
	Signature        string `yaml:"signature,omitempty" json:"signature,omitempty"`
	DeliveryPhotoURL string `yaml:"deliveryPhotoUrl,omitempty" json:"deliveryPhotoUrl,omitempty"`
	Notes            string `yaml:"notes,omitempty" json:"notes,omitempty"`
}

// Provider looks up shipment evidence by order id, transaction id, or
// tracking number.
type Provider interface {
	Lookup(ctx context.Context, identifier string) (*Evidence, error)
}

// Delivered reports whether the shipment has a confirmed delivery date.
func (e *Evidence) Delivered() bool {
	return e.DeliveryDate != ""
}

// Payload renders the evidence as an open key/value structure for the
// session's evidence set.
func (e *Evidence) Payload() map[string]any {
	return map[string]any{
		"orderId":        e.OrderID,
		"transactionId":  e.TransactionID,
		"carrier":        e.Carrier,
		"trackingNumber": e.TrackingNumber,
		"deliveryDate":   e.DeliveryDate,
		"deliveryStatus": e.DeliveryStatus,
		"delivered":      e.Delivered(),
		"hasSignature":   e.Signature != "",
		"hasPhoto":       e.DeliveryPhotoURL != "",
		"notes":          e.Notes,
	}
}

// Summary formats the evidence as text for the decision oracle.
func (e *Evidence) Summary() string {
	var b strings.Builder
	b.WriteString("SHIPMENT EVIDENCE:\n")
	fmt.Fprintf(&b, "- Order: %s (transaction %s)\n", orNA(e.OrderID), orNA(e.TransactionID))
	fmt.Fprintf(&b, "- Carrier: %s, tracking %s\n", orNA(e.Carrier), orNA(e.TrackingNumber))
	fmt.Fprintf(&b, "- Shipped: %s\n", orNA(e.ShippingDate))
	if e.Delivered() {
		fmt.Fprintf(&b, "- Delivered: %s (status: %s)\n", e.DeliveryDate, orNA(e.DeliveryStatus))
	} else {
		fmt.Fprintf(&b, "- Delivered: no (status: %s)\n", orNA(e.DeliveryStatus))
	}
	fmt.Fprintf(&b, "- Signature on file: %s\n", yesNo(e.Signature != ""))
	fmt.Fprintf(&b, "- Delivery photo: %s\n", yesNo(e.DeliveryPhotoURL != ""))
	if e.Notes != "" {
		fmt.Fprintf(&b, "- Notes: %s\n", e.Notes)
	}
	return b.String()
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
