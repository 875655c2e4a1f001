// Package intent classifies short customer messages into business intents
// and extracts the order number they mention.
package intent

import (
	"fmt"
)

// Label is the closed set of intents. Declaration order is the tie-break order.
type Label int

const (
	OrderInfo Label = iota
	Delivery
	Unknown
)

// NominalLabels are the labels a reference example may carry, in declaration order.
var NominalLabels = []Label{OrderInfo, Delivery}

func (l Label) String() string {
	switch l {
	case OrderInfo:
		return "ORDER_INFO"
	case Delivery:
		return "DELIVERY"
	case Unknown:
		return "UNKNOWN"
	default:
		return fmt.Sprintf("Label(%d)", int(l))
	}
}

// Valid reports whether l is one of the declared labels.
func (l Label) Valid() bool {
	switch l {
	case OrderInfo, Delivery, Unknown:
		return true
	default:
		return false
	}
}

// Nominal reports whether l is a real intent rather than the fallback.
func (l Label) Nominal() bool {
	switch l {
	case OrderInfo, Delivery:
		return true
	default:
		return false
	}
}

func ParseLabel(s string) (Label, error) {
	switch s {
	case "ORDER_INFO":
		return OrderInfo, nil
	case "DELIVERY":
		return Delivery, nil
	case "UNKNOWN":
		return Unknown, nil
	default:
		return Unknown, fmt.Errorf("unknown intent label %q", s)
	}
}

func (l Label) MarshalText() ([]byte, error) {
	if !l.Valid() {
		return nil, fmt.Errorf("invalid intent label %d", int(l))
	}
	return []byte(l.String()), nil
}

func (l *Label) UnmarshalText(b []byte) error {
	parsed, err := ParseLabel(string(b))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// ReferenceExample is a labelled anchor text.
type ReferenceExample struct {
	Text  string
	Label Label
}

// ClassificationResult is the classifier verdict. Confidence is in [0,1].
type ClassificationResult struct {
	Intent     Label
	Confidence float64
}

// Result is the full answer for one message. OrderNumber is omitted from
// JSON when nothing was extracted.
type Result struct {
	Intent      Label   `json:"intent"`
	Confidence  float64 `json:"confidence"`
	OrderNumber string  `json:"order_number,omitempty"`
}

// HasOrderNumber reports whether an order number was extracted.
func (r Result) HasOrderNumber() bool {
	return r.OrderNumber != ""
}
