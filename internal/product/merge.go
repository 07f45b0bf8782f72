package product

// protectedFields always keep the base record's value on merge.
var protectedFields = []string{WireID, WireRef, WireLabel, WirePrice, WireToBuy, WireToSell, "options_stock_origine"}

// keptWhenAbsent keep the base value when the incoming record has none. The
// ERP blanks price_min in the record it returns after an update.
var keptWhenAbsent = []string{WirePriceMin}

// ProtectedFields lists the wire names that Merge never overwrites.
func ProtectedFields() []string {
	return append([]string(nil), protectedFields...)
}

// KeptWhenAbsent lists the wire names that Merge only overwrites with a value.
func KeptWhenAbsent() []string {
	return append([]string(nil), keptWhenAbsent...)
}

// Merge folds incoming into base. Identity, selling price, buy/sell flags and
// the stock origin stay as in base; every other field takes incoming's value,
// including its absence. Merge is not commutative.
func Merge(base, incoming Record) Record {
	out := incoming

	out.RowID = base.RowID
	out.Reference = base.Reference
	out.Label = base.Label
	out.Price = base.Price
	out.ToBuy = base.ToBuy
	out.ToSell = base.ToSell
	out.Extras.StockOrigine = base.Extras.StockOrigine

	if incoming.PriceMin == nil {
		out.PriceMin = base.PriceMin
	}
	return out
}
