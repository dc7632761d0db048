package http

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"budget/internal/core"
)

// Wire representations. Money is rendered with two decimals and percentages
// exactly, both as strings so no client loses precision. Requests accept
// either JSON numbers or numeric strings.

type userJSON struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

type cycleJSON struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"userId"`
	MonthKey     string    `json:"monthKey"`
	Salary       string    `json:"salary"`
	PctSavings   string    `json:"pctSavings"`
	PctMonthly   string    `json:"pctMonthly"`
	PctWants     string    `json:"pctWants"`
	AllocSavings string    `json:"allocSavings"`
	AllocMonthly string    `json:"allocMonthly"`
	AllocWants   string    `json:"allocWants"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type transactionJSON struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	CycleID   int64     `json:"cycleId"`
	Bucket    string    `json:"bucket"`
	Date      core.Date `json:"date"`
	Note      string    `json:"note"`
	Amount    string    `json:"amount"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type bucketBalanceJSON struct {
	Bucket    string `json:"bucket"`
	Allocated string `json:"allocated"`
	Used      string `json:"used"`
	Remaining string `json:"remaining"`
}

type summaryJSON struct {
	CycleID  int64               `json:"cycleId"`
	MonthKey string              `json:"monthKey"`
	Buckets  []bucketBalanceJSON `json:"buckets"`
}

type transactionResultJSON struct {
	Transaction transactionJSON `json:"transaction"`
	Summary     summaryJSON     `json:"summary"`
}

type okJSON struct {
	OK      bool         `json:"ok"`
	User    *userJSON    `json:"user,omitempty"`
	Summary *summaryJSON `json:"summary,omitempty"`
}

func toUserJSON(u core.User) userJSON {
	return userJSON{ID: u.ID, Username: u.Username}
}

func toCycleJSON(c core.Cycle) cycleJSON {
	return cycleJSON{
		ID:           c.ID,
		UserID:       c.UserID,
		MonthKey:     c.MonthKey,
		Salary:       core.FormatAmount(c.Salary),
		PctSavings:   c.Percentages.Savings.String(),
		PctMonthly:   c.Percentages.Monthly.String(),
		PctWants:     c.Percentages.Wants.String(),
		AllocSavings: core.FormatAmount(c.Allocation.Savings),
		AllocMonthly: core.FormatAmount(c.Allocation.Monthly),
		AllocWants:   core.FormatAmount(c.Allocation.Wants),
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}

func toCyclesJSON(cs []core.Cycle) []cycleJSON {
	out := make([]cycleJSON, 0, len(cs))
	for _, c := range cs {
		out = append(out, toCycleJSON(c))
	}
	return out
}

func toTransactionJSON(t core.Transaction) transactionJSON {
	return transactionJSON{
		ID:        t.ID,
		UserID:    t.UserID,
		CycleID:   t.CycleID,
		Bucket:    t.Bucket.String(),
		Date:      t.Date,
		Note:      t.Note,
		Amount:    core.FormatAmount(t.Amount),
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

func toTransactionsJSON(ts []core.Transaction) []transactionJSON {
	out := make([]transactionJSON, 0, len(ts))
	for _, t := range ts {
		out = append(out, toTransactionJSON(t))
	}
	return out
}

func toSummaryJSON(s core.Summary) summaryJSON {
	out := summaryJSON{CycleID: s.CycleID, MonthKey: s.MonthKey}
	for _, b := range core.Buckets() {
		bal := s.Get(b)
		out.Buckets = append(out.Buckets, bucketBalanceJSON{
			Bucket:    b.String(),
			Allocated: core.FormatAmount(bal.Allocated),
			Used:      core.FormatAmount(bal.Used),
			Remaining: core.FormatAmount(bal.Remaining),
		})
	}
	return out
}

func toTransactionResultJSON(t core.Transaction, s core.Summary) transactionResultJSON {
	return transactionResultJSON{Transaction: toTransactionJSON(t), Summary: toSummaryJSON(s)}
}

// number accepts a JSON number or a numeric string. Quoted values go through
// core.ParseDecimal so NaN, Inf and garbage are rejected consistently.
type number struct {
	decimal.Decimal
}

func (n *number) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" {
		return fmt.Errorf("%w: number cannot be null", core.ErrBadFormat)
	}
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	d, err := core.ParseDecimal(s)
	if err != nil {
		return err
	}
	n.Decimal = d
	return nil
}

func (n *number) ptr() *decimal.Decimal {
	if n == nil {
		return nil
	}
	d := n.Decimal
	return &d
}

type credentialsRequest struct {
	Username string `json:"username"`
}

type cycleRequest struct {
	MonthKey   string `json:"monthKey"`
	Salary     number `json:"salary"`
	PctSavings number `json:"pctSavings"`
	PctMonthly number `json:"pctMonthly"`
	PctWants   number `json:"pctWants"`
}

func (req cycleRequest) input() core.CycleInput {
	return core.CycleInput{
		MonthKey: sanitizeInput(req.MonthKey),
		Salary:   req.Salary.Decimal,
		Percentages: core.Percentages{
			Savings: req.PctSavings.Decimal,
			Monthly: req.PctMonthly.Decimal,
			Wants:   req.PctWants.Decimal,
		},
	}
}

type cyclePatchRequest struct {
	Salary     *number `json:"salary"`
	PctSavings *number `json:"pctSavings"`
	PctMonthly *number `json:"pctMonthly"`
	PctWants   *number `json:"pctWants"`
}

func (req cyclePatchRequest) patch() core.CyclePatch {
	return core.CyclePatch{
		Salary:     req.Salary.ptr(),
		PctSavings: req.PctSavings.ptr(),
		PctMonthly: req.PctMonthly.ptr(),
		PctWants:   req.PctWants.ptr(),
	}
}

type transactionRequest struct {
	CycleID int64     `json:"cycleId"`
	Bucket  string    `json:"bucket"`
	Date    core.Date `json:"date"`
	Note    string    `json:"note"`
	Amount  number    `json:"amount"`
}

func (req transactionRequest) input() (core.TransactionInput, error) {
	b, err := core.ParseBucket(req.Bucket)
	if err != nil {
		return core.TransactionInput{}, err
	}
	return core.TransactionInput{
		CycleID: req.CycleID,
		Bucket:  b,
		Date:    req.Date,
		Note:    sanitizeInput(req.Note),
		Amount:  req.Amount.Decimal,
	}, nil
}

type transactionPatchRequest struct {
	Bucket *string    `json:"bucket"`
	Date   *core.Date `json:"date"`
	Note   *string    `json:"note"`
	Amount *number    `json:"amount"`
}

func (req transactionPatchRequest) patch() (core.TransactionPatch, error) {
	p := core.TransactionPatch{Date: req.Date, Amount: req.Amount.ptr()}
	if req.Bucket != nil {
		b, err := core.ParseBucket(*req.Bucket)
		if err != nil {
			return core.TransactionPatch{}, err
		}
		p.Bucket = &b
	}
	if req.Note != nil {
		note := sanitizeInput(*req.Note)
		p.Note = &note
	}
	return p, nil
}
