package ledger

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/sheikh-saqib/customer-debt-ledger/internal/calculator"
	"github.com/sheikh-saqib/customer-debt-ledger/internal/config"
	"github.com/sheikh-saqib/customer-debt-ledger/internal/ids"
	interfaces "github.com/sheikh-saqib/customer-debt-ledger/internal/interfaces"
	"github.com/sheikh-saqib/customer-debt-ledger/internal/models"
	"github.com/sheikh-saqib/customer-debt-ledger/internal/models/events"
	"github.com/sheikh-saqib/customer-debt-ledger/internal/rates"
)

// Ledger owns the customer collection and the exchange rate table.
// It holds the current snapshot in memory and persists every change through
// the store before making it visible.
//
// Mutations never edit the current snapshot: they work on a copy, save it,
// and swap it in only when the save succeeded. A refused or failed mutation
// leaves the ledger exactly as it was.
type Ledger struct {
	store     interfaces.SnapshotStore // where snapshots are persisted (memory, file, postgres)
	publisher interfaces.EventPublisher
	ids       ids.Generator
	now       func() time.Time
	logger    logrus.FieldLogger
	collator  *collate.Collator

	mu       sync.Mutex // guards snap, selected and collator
	snap     models.Snapshot
	selected string

	// pubMu is taken before mu is released so events leave in commit order.
	pubMu sync.Mutex
}

type Option func(*Ledger)

func WithIDGenerator(gen ids.Generator) Option {
	return func(l *Ledger) { l.ids = gen }
}

func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

func WithPublisher(p interfaces.EventPublisher) Option {
	return func(l *Ledger) { l.publisher = p }
}

func WithLogger(logger logrus.FieldLogger) Option {
	return func(l *Ledger) { l.logger = logger }
}

// WithLanguage sets the collation used to order customers by name.
func WithLanguage(tag language.Tag) Option {
	return func(l *Ledger) { l.collator = collate.New(tag, collate.IgnoreCase) }
}

// NewLedger loads the stored snapshot. An empty store starts with no
// customers and the default exchange rates.
func NewLedger(ctx context.Context, store interfaces.SnapshotStore, opts ...Option) (*Ledger, error) {
	discard := logrus.New()
	discard.SetOutput(io.Discard)

	l := &Ledger{
		store:    store,
		ids:      ids.UUID{},
		now:      time.Now,
		logger:   discard,
		collator: collate.New(language.Spanish, collate.IgnoreCase),
	}
	for _, opt := range opts {
		opt(l)
	}

	snap, ok, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	if !ok {
		snap = models.Snapshot{ExchangeRates: rates.Defaults()}
	}
	if snap.Customers == nil {
		snap.Customers = []models.Customer{}
	}
	if snap.ExchangeRates == nil {
		snap.ExchangeRates = models.ExchangeRates{}
	}
	l.snap = snap
	return l, nil
}

// mutate applies fn to a copy of the current snapshot, persists the result
// and then makes it current.
func (l *Ledger) mutate(ctx context.Context, fn func(next *models.Snapshot) (events.LedgerChanged, error)) error {
	l.mu.Lock()

	next := l.snap.Clone()
	event, err := fn(&next)
	if err != nil {
		l.mu.Unlock()
		return err
	}

	if err := l.store.Save(ctx, next); err != nil {
		l.mu.Unlock()
		config.LogError(l.logger, "ledger", "mutate", "save snapshot", event, err)
		return fmt.Errorf("save snapshot: %w", err)
	}

	l.snap = next
	if l.selected != "" && indexOfCustomer(l.snap.Customers, l.selected) < 0 {
		l.selected = ""
	}
	event.OccurredAt = l.timestamp()

	l.pubMu.Lock()
	defer l.pubMu.Unlock()
	l.mu.Unlock()

	l.logger.WithFields(logrus.Fields{
		"kind":           event.Kind,
		"customer_id":    event.CustomerID,
		"transaction_id": event.TransactionID,
	}).Debug("ledger change committed")

	if l.publisher != nil {
		if err := l.publisher.Publish(ctx, event); err != nil {
			config.LogError(l.logger, "ledger", "mutate", "publish change", event, err)
		}
	}
	return nil
}

// timestamp is the clock reading stored on records: UTC with no monotonic
// part, so it survives a JSON round trip unchanged.
func (l *Ledger) timestamp() time.Time {
	return l.now().UTC().Round(0)
}

func indexOfCustomer(customers []models.Customer, id string) int {
	for i, c := range customers {
		if c.ID == id {
			return i
		}
	}
	return -1
}

func (l *Ledger) sortCustomers(customers []models.Customer) {
	sort.SliceStable(customers, func(i, j int) bool {
		return l.collator.CompareString(customers[i].Name, customers[j].Name) < 0
	})
}

// AddCustomer creates a customer with empty histories and keeps the
// collection ordered by name.
func (l *Ledger) AddCustomer(ctx context.Context, name string) (models.Customer, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Customer{}, validationErrorf("customer name is required")
	}

	customer := models.Customer{
		ID:              l.ids.NewID(),
		Name:            name,
		Debts:           []models.Debt{},
		BoxTransactions: []models.BoxTransaction{},
	}

	err := l.mutate(ctx, func(next *models.Snapshot) (events.LedgerChanged, error) {
		next.Customers = append(next.Customers, customer)
		l.sortCustomers(next.Customers)
		return events.LedgerChanged{Kind: events.CustomerAdded, CustomerID: customer.ID}, nil
	})
	if err != nil {
		return models.Customer{}, err
	}
	return customer.Clone(), nil
}

// DeleteCustomer removes the customer together with all of its transactions.
func (l *Ledger) DeleteCustomer(ctx context.Context, customerID string) error {
	return l.mutate(ctx, func(next *models.Snapshot) (events.LedgerChanged, error) {
		i := indexOfCustomer(next.Customers, customerID)
		if i < 0 {
			return events.LedgerChanged{}, customerNotFound(customerID)
		}
		next.Customers = append(next.Customers[:i], next.Customers[i+1:]...)
		return events.LedgerChanged{Kind: events.CustomerDeleted, CustomerID: customerID}, nil
	})
}

// AddDebt records money owed by the customer.
func (l *Ledger) AddDebt(ctx context.Context, customerID string, input NewDebt) (models.Debt, error) {
	return l.addMonetary(ctx, customerID, input, false)
}

// AddPayment records money received from the customer. The stored amount is
// always negative, whatever the sign of input.Amount.
func (l *Ledger) AddPayment(ctx context.Context, customerID string, input NewDebt) (models.Debt, error) {
	input.Amount = input.Amount.Abs()
	return l.addMonetary(ctx, customerID, input, true)
}

func (l *Ledger) addMonetary(ctx context.Context, customerID string, input NewDebt, payment bool) (models.Debt, error) {
	if err := validateInput(input); err != nil {
		return models.Debt{}, err
	}
	if err := checkBaseRate(input.Currency, input.RateToCUP); err != nil {
		return models.Debt{}, err
	}

	amount, kind := input.Amount, events.DebtRecorded
	if payment {
		amount, kind = amount.Neg(), events.PaymentRecorded
	}

	var debt models.Debt
	err := l.mutate(ctx, func(next *models.Snapshot) (events.LedgerChanged, error) {
		i := indexOfCustomer(next.Customers, customerID)
		if i < 0 {
			return events.LedgerChanged{}, customerNotFound(customerID)
		}
		debt = models.Debt{
			ID:        l.ids.NewID(),
			Amount:    amount,
			Currency:  input.Currency,
			Notes:     strings.TrimSpace(input.Notes),
			Date:      l.timestamp(),
			RateToCUP: input.RateToCUP,
		}
		next.Customers[i].Debts = append(next.Customers[i].Debts, debt)
		return events.LedgerChanged{Kind: kind, CustomerID: customerID, TransactionID: debt.ID}, nil
	})
	if err != nil {
		return models.Debt{}, err
	}
	return debt, nil
}

// AddBoxes records boxes owed by the customer as a new ADD entry.
func (l *Ledger) AddBoxes(ctx context.Context, customerID string, input NewBoxDebt) (models.BoxTransaction, error) {
	if err := validateInput(input); err != nil {
		return models.BoxTransaction{}, err
	}

	var tx models.BoxTransaction
	err := l.mutate(ctx, func(next *models.Snapshot) (events.LedgerChanged, error) {
		i := indexOfCustomer(next.Customers, customerID)
		if i < 0 {
			return events.LedgerChanged{}, customerNotFound(customerID)
		}
		tx = models.BoxTransaction{
			ID:    l.ids.NewID(),
			Type:  models.BoxTransactionAdd,
			Boxes: input.Boxes,
			Notes: strings.TrimSpace(input.Notes),
			Date:  l.timestamp(),
		}
		next.Customers[i].BoxTransactions = append(next.Customers[i].BoxTransactions, tx)
		return events.LedgerChanged{Kind: events.BoxesAdded, CustomerID: customerID, TransactionID: tx.ID}, nil
	})
	if err != nil {
		return models.BoxTransaction{}, err
	}
	return tx, nil
}

// PayBoxes records a payment against one ADD entry. The boxes it settles are
// (amount * rate) / box value, computed here once and stored on the record.
// Paying more than what remains is allowed and reported through Overpaid.
func (l *Ledger) PayBoxes(ctx context.Context, customerID string, input NewBoxPayment) (BoxPaymentResult, error) {
	if err := validateInput(input); err != nil {
		return BoxPaymentResult{}, err
	}
	if err := checkBaseRate(input.PaymentCurrency, input.PaymentRateToCUP); err != nil {
		return BoxPaymentResult{}, err
	}

	var result BoxPaymentResult
	err := l.mutate(ctx, func(next *models.Snapshot) (events.LedgerChanged, error) {
		i := indexOfCustomer(next.Customers, customerID)
		if i < 0 {
			return events.LedgerChanged{}, customerNotFound(customerID)
		}
		history := next.Customers[i].BoxTransactions
		debt, ok := next.Customers[i].FindBoxTransaction(input.DebtID)
		if !ok || !debt.IsAdd() {
			return events.LedgerChanged{}, fmt.Errorf("%w: box debt %q", ErrNotFound, input.DebtID)
		}

		amount, rate, boxValue := input.PaymentAmount, input.PaymentRateToCUP, input.BoxValueInCUP
		boxes := calculator.BoxesForPayment(amount, rate, boxValue)
		tx := models.BoxTransaction{
			ID:               l.ids.NewID(),
			Type:             models.BoxTransactionPay,
			Boxes:            boxes,
			Notes:            strings.TrimSpace(input.Notes),
			Date:             l.timestamp(),
			PaymentAmount:    &amount,
			PaymentCurrency:  input.PaymentCurrency,
			PaymentRateToCUP: &rate,
			BoxValueInCUP:    &boxValue,
			DebtID:           debt.ID,
		}

		before := calculator.RemainingBoxes(debt, history)
		result = BoxPaymentResult{
			Transaction:     tx,
			RemainingBefore: before,
			RemainingAfter:  before.Sub(boxes),
			Overpaid:        boxes.GreaterThan(before),
		}
		next.Customers[i].BoxTransactions = append(history, tx)
		return events.LedgerChanged{Kind: events.BoxesPaid, CustomerID: customerID, TransactionID: tx.ID}, nil
	})
	if err != nil {
		return BoxPaymentResult{}, err
	}
	return result, nil
}

// DeleteTransaction removes a monetary or box transaction. An ADD entry that
// still has payments linked to it is refused with ErrDependency.
func (l *Ledger) DeleteTransaction(ctx context.Context, customerID, transactionID string) error {
	return l.mutate(ctx, func(next *models.Snapshot) (events.LedgerChanged, error) {
		i := indexOfCustomer(next.Customers, customerID)
		if i < 0 {
			return events.LedgerChanged{}, customerNotFound(customerID)
		}
		c := &next.Customers[i]
		event := events.LedgerChanged{Kind: events.TransactionDeleted, CustomerID: customerID, TransactionID: transactionID}

		for j, d := range c.Debts {
			if d.ID == transactionID {
				c.Debts = append(c.Debts[:j], c.Debts[j+1:]...)
				return event, nil
			}
		}
		for j, t := range c.BoxTransactions {
			if t.ID != transactionID {
				continue
			}
			if t.IsAdd() {
				if n := len(calculator.PaymentsForDebt(t.ID, c.BoxTransactions)); n > 0 {
					return events.LedgerChanged{}, fmt.Errorf("%w: box debt %q has %d payments, delete them first", ErrDependency, t.ID, n)
				}
			}
			c.BoxTransactions = append(c.BoxTransactions[:j], c.BoxTransactions[j+1:]...)
			return event, nil
		}
		return events.LedgerChanged{}, transactionNotFound(transactionID)
	})
}

// UpdateExchangeRates replaces the whole rate table. CUP is implicit and
// cannot be stored.
func (l *Ledger) UpdateExchangeRates(ctx context.Context, table models.ExchangeRates) error {
	if err := checkRateTable(table); err != nil {
		return err
	}

	return l.mutate(ctx, func(next *models.Snapshot) (events.LedgerChanged, error) {
		next.ExchangeRates = table.Clone()
		if next.ExchangeRates == nil {
			next.ExchangeRates = models.ExchangeRates{}
		}
		return events.LedgerChanged{Kind: events.ExchangeRatesUpdated}, nil
	})
}

// RestoreSnapshot replaces every customer with data.Customers, and the rate
// table too when data carries one. Nothing is applied unless data has a
// customers array and its rate table passes the same checks as
// UpdateExchangeRates.
func (l *Ledger) RestoreSnapshot(ctx context.Context, data models.RestoreData) error {
	if data.Customers == nil {
		return validationErrorf("restore data has no customers array")
	}
	if err := checkRateTable(data.ExchangeRates); err != nil {
		return err
	}

	return l.mutate(ctx, func(next *models.Snapshot) (events.LedgerChanged, error) {
		restored := models.Snapshot{Customers: data.Customers, ExchangeRates: data.ExchangeRates}.Clone()
		next.Customers = restored.Customers
		if restored.ExchangeRates != nil {
			next.ExchangeRates = restored.ExchangeRates
		}
		return events.LedgerChanged{Kind: events.SnapshotRestored}, nil
	})
}

// ResetAll removes every customer. The exchange rates are kept.
func (l *Ledger) ResetAll(ctx context.Context) error {
	return l.mutate(ctx, func(next *models.Snapshot) (events.LedgerChanged, error) {
		next.Customers = []models.Customer{}
		return events.LedgerChanged{Kind: events.LedgerReset}, nil
	})
}

// Customers returns a copy of every customer in display order.
func (l *Ledger) Customers() []models.Customer {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.snap.Clone().Customers
}

func (l *Ledger) Customer(customerID string) (models.Customer, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	i := indexOfCustomer(l.snap.Customers, customerID)
	if i < 0 {
		return models.Customer{}, customerNotFound(customerID)
	}
	return l.snap.Customers[i].Clone(), nil
}

func (l *Ledger) ExchangeRates() models.ExchangeRates {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.snap.ExchangeRates.Clone()
}

// Snapshot returns a deep copy of the whole state, as used for backups.
func (l *Ledger) Snapshot() models.Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.snap.Clone()
}

// Select marks customerID as the active customer.
func (l *Ledger) Select(customerID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if indexOfCustomer(l.snap.Customers, customerID) < 0 {
		return customerNotFound(customerID)
	}
	l.selected = customerID
	return nil
}

// Selected returns the active customer, if any.
func (l *Ledger) Selected() (models.Customer, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	i := indexOfCustomer(l.snap.Customers, l.selected)
	if l.selected == "" || i < 0 {
		return models.Customer{}, false
	}
	return l.snap.Customers[i].Clone(), true
}

func (l *Ledger) ClearSelection() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.selected = ""
}
