package ledger

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DateLayout is the wire and CSV format of an expense date.
const DateLayout = "2006-01-02"

// MinAmount is the smallest amount the expense form accepts.
var MinAmount = decimal.NewFromInt(1)

type Record struct {
	Id          string
	Date        time.Time
	Amount      decimal.Decimal
	Description string
}

// Valid reports whether r may enter a ledger: a non-blank description and an amount of at least MinAmount.
func (r Record) Valid() bool {
	return strings.TrimSpace(r.Description) != "" && r.Amount.GreaterThanOrEqual(MinAmount)
}

// Ledger is the ordered list of expenses of one session. Insertion order is kept,
// records are never edited and only leave the ledger through Clear.
//
// A Ledger is not safe for concurrent use; the owning session serializes access.
type Ledger struct {
	records []Record
}

func NewLedger() *Ledger {
	return &Ledger{}
}

// Append adds r to the end of the ledger. Invalid records are ignored and false is returned.
func (l *Ledger) Append(r Record) (Record, bool) {
	if !r.Valid() {
		return Record{}, false
	}
	r.Description = strings.TrimSpace(r.Description)
	if r.Id == "" {
		r.Id = uuid.NewString()
	}
	l.records = append(l.records, r)
	return r, true
}

func (l *Ledger) Clear() {
	l.records = nil
}

// Snapshot returns a copy of the records in insertion order.
func (l *Ledger) Snapshot() []Record {
	out := make([]Record, len(l.records))
	copy(out, l.records)
	return out
}

func (l *Ledger) Len() int {
	return len(l.records)
}
