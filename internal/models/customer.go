package models

// Customer owns its monetary and box transaction histories. Balances are
// never stored, they are derived from the histories on every read.
type Customer struct {
	ID              string           `json:"id"`
	Name            string           `json:"name"`
	Debts           []Debt           `json:"debts"`
	BoxTransactions []BoxTransaction `json:"boxTransactions"`
}

// Clone returns a copy whose transaction slices can be modified freely.
func (c Customer) Clone() Customer {
	out := c
	out.Debts = append([]Debt(nil), c.Debts...)
	out.BoxTransactions = append([]BoxTransaction(nil), c.BoxTransactions...)
	if out.Debts == nil {
		out.Debts = []Debt{}
	}
	if out.BoxTransactions == nil {
		out.BoxTransactions = []BoxTransaction{}
	}
	return out
}

// FindDebt returns the monetary transaction with the given id.
func (c Customer) FindDebt(id string) (Debt, bool) {
	for _, d := range c.Debts {
		if d.ID == id {
			return d, true
		}
	}
	return Debt{}, false
}

// FindBoxTransaction returns the box transaction with the given id.
func (c Customer) FindBoxTransaction(id string) (BoxTransaction, bool) {
	for _, t := range c.BoxTransactions {
		if t.ID == id {
			return t, true
		}
	}
	return BoxTransaction{}, false
}
