package collect

import (
	"errors"

	"github.com/txreport/txreport/internal/model"
	"github.com/txreport/txreport/internal/normalize"
)

// Outcome is the result of normalizing one row. Exactly one of Transaction
// (when Err is nil) or Err is meaningful.
type Outcome struct {
	Transaction model.Transaction
	Err         error
}

// Collection is the canonical, ordered set of transactions of a run.
type Collection struct {
	RowsIn       int
	Transactions []model.Transaction
	Duplicates   int
	Rejected     map[normalize.Reason]int
	Rejections   []*normalize.Rejection
}

// Collect keeps the successful outcomes in input order. When an id repeats,
// the first occurrence wins and later ones are dropped and counted.
func Collect(outcomes []Outcome) Collection {
	c := Collection{RowsIn: len(outcomes), Rejected: make(map[normalize.Reason]int)}
	seen := make(map[string]struct{}, len(outcomes))

	for _, o := range outcomes {
		if o.Err != nil {
			reason := normalize.ReasonOf(o.Err)
			c.Rejected[reason]++
			var rej *normalize.Rejection
			if errors.As(o.Err, &rej) {
				c.Rejections = append(c.Rejections, rej)
			}
			continue
		}
		if _, dup := seen[o.Transaction.ID]; dup {
			c.Duplicates++
			continue
		}
		seen[o.Transaction.ID] = struct{}{}
		c.Transactions = append(c.Transactions, o.Transaction)
	}
	return c
}

// RowsOut returns the number of canonical transactions.
func (c Collection) RowsOut() int {
	return len(c.Transactions)
}

// RejectedTotal returns the number of rejected rows.
func (c Collection) RejectedTotal() int {
	total := 0
	for _, n := range c.Rejected {
		total += n
	}
	return total
}
