package models

// Snapshot is the whole persisted state: it is what stores load and save and
// what a backup file contains.
type Snapshot struct {
	Customers     []Customer    `json:"customers"`
	ExchangeRates ExchangeRates `json:"exchangeRates"`
}

// Clone deep-copies the snapshot so the copy shares no slices or maps.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{
		Customers:     make([]Customer, len(s.Customers)),
		ExchangeRates: s.ExchangeRates.Clone(),
	}
	for i, c := range s.Customers {
		out.Customers[i] = c.Clone()
	}
	return out
}

// RestoreData is a restore request. A nil Customers slice means the document
// did not carry a customers array. A nil ExchangeRates leaves the current
// table in place.
type RestoreData struct {
	Customers     []Customer    `json:"customers"`
	ExchangeRates ExchangeRates `json:"exchangeRates,omitempty"`
}
