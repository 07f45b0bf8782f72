// Package condition holds the product condition scale shared by the ERP and
// the marketplace, with the per-locale vocabularies used on the wire.
package condition

import "fmt"

// Condition is ordered from best to worst.
type Condition uint8

const (
	New Condition = iota
	LikeNew
	VeryGood
	Good
	Correct
	Bad

	count = int(iota)
)

var names = [count]string{"New", "LikeNew", "VeryGood", "Good", "Correct", "Bad"}

func (c Condition) String() string {
	if !c.Valid() {
		return fmt.Sprintf("Condition(%d)", uint8(c))
	}
	return names[c]
}

func (c Condition) Valid() bool {
	return int(c) < count
}

// All returns every condition in scale order.
func All() []Condition {
	return []Condition{New, LikeNew, VeryGood, Good, Correct, Bad}
}

// UsedVariants returns every condition except New, in scale order.
func UsedVariants() []Condition {
	return []Condition{LikeNew, VeryGood, Good, Correct, Bad}
}

// WarehouseStatus is the marketplace warehouse code. The marketplace has no
// brand-new or bad grade, so New and Bad collapse into their neighbours.
func (c Condition) WarehouseStatus() string {
	switch c {
	case New, LikeNew:
		return "USED_LIKE_NEW"
	case VeryGood:
		return "USED_VERY_GOOD"
	case Good:
		return "USED_GOOD"
	default:
		return "USED_CORRECT"
	}
}

// APICode is the short marketplace listing code, collapsed like WarehouseStatus.
func (c Condition) APICode() string {
	switch c {
	case New, LikeNew:
		return "CN"
	case VeryGood:
		return "TBE"
	case Good:
		return "BE"
	default:
		return "EC"
	}
}
