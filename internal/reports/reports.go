// Package reports computes the aggregate views of the dashboard. All
// computations are read-only and derived from stored transactions on
// demand, so they are always consistent with whatever ingestion has
// committed so far.
package reports

import (
	"context"
	"sort"

	"github.com/daotreasury/backend/internal/config"
	"github.com/daotreasury/backend/internal/models"
	"github.com/daotreasury/backend/internal/types"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// Prices quotes current USD prices, used as the fallback for transactions
// that were ingested without a historical price.
type Prices interface {
	Current(ctx context.Context, symbol string) (decimal.Decimal, error)
}

// Engine computes aggregate views over stored transactions.
type Engine struct {
	cnf    *config.Config
	prices Prices
}

// NewEngine returns an Engine.
func NewEngine(cnf *config.Config, prices Prices) *Engine {
	return &Engine{cnf: cnf, prices: prices}
}

// Counts are the transaction counts of a wallet.
type Counts struct {
	Total         int64 `json:"total"`
	Incoming      int64 `json:"incoming"`
	Outgoing      int64 `json:"outgoing"`
	Uncategorised int64 `json:"uncategorised"`
}

// Counts returns the transaction counts for a wallet.
func (e *Engine) Counts(walletID string) (Counts, error) {
	var counts Counts

	err := models.DB.Model(&models.Transaction{}).
		Select(
			"COUNT(*) AS total, "+
				"COALESCE(SUM(CASE WHEN direction = 'in' THEN 1 ELSE 0 END), 0) AS incoming, "+
				"COALESCE(SUM(CASE WHEN direction = 'out' THEN 1 ELSE 0 END), 0) AS outgoing, "+
				"COALESCE(SUM(CASE WHEN category = ? THEN 1 ELSE 0 END), 0) AS uncategorised",
			config.Uncategorised).
		Where("wallet_id = ?", walletID).
		Scan(&counts).Error
	if err != nil {
		return Counts{}, err
	}

	return counts, nil
}

// BreakdownEntry is the outgoing spend of one (category, token) pair.
type BreakdownEntry struct {
	Category     string          `json:"category"`
	TokenSymbol  string          `json:"tokenSymbol"`
	Amount       decimal.Decimal `json:"amount"`
	FiatValue    decimal.Decimal `json:"fiatValue"`
	Transactions int64           `json:"transactions"`
}

// breakdownRow is the raw aggregation row behind a BreakdownEntry. The fiat
// sum only covers transactions that were priced at ingestion time; the
// remaining amount is valued at the current price on the way out.
type breakdownRow struct {
	Category       string
	TokenSymbol    string
	Amount         decimal.Decimal
	PricedFiat     decimal.Decimal
	UnpricedAmount decimal.Decimal
	Transactions   int64
}

// CategoryBreakdown returns the outgoing spend of a wallet per category and
// token. Transactions without a stored fiat value are valued at the current
// price; the stored rows are never rewritten. "Uncategorised" entries sort
// first so that unfiled spend is impossible to overlook, the rest follows
// in descending fiat order.
func (e *Engine) CategoryBreakdown(ctx context.Context, walletID string) ([]BreakdownEntry, error) {
	var rows []breakdownRow

	err := models.DB.Model(&models.Transaction{}).
		Select("category, token_symbol, " +
			"SUM(amount) AS amount, " +
			"COUNT(*) AS transactions, " +
			"SUM(CASE WHEN fiat_value IS NOT NULL THEN fiat_value ELSE 0 END) AS priced_fiat, " +
			"SUM(CASE WHEN fiat_value IS NULL THEN amount ELSE 0 END) AS unpriced_amount").
		Where("wallet_id = ? AND direction = 'out' AND failed = ?", walletID, false).
		Group("category, token_symbol").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	entries := make([]BreakdownEntry, 0, len(rows))
	for _, row := range rows {
		fiat := row.PricedFiat

		if row.UnpricedAmount.IsPositive() {
			price, err := e.prices.Current(ctx, row.TokenSymbol)
			if err != nil {
				log.Debug().Err(err).Str("token", row.TokenSymbol).Msg("breakdown omits unpriced amount")
			} else {
				fiat = fiat.Add(row.UnpricedAmount.Mul(price))
			}
		}

		entries = append(entries, BreakdownEntry{
			Category:     row.Category,
			TokenSymbol:  row.TokenSymbol,
			Amount:       row.Amount,
			FiatValue:    fiat,
			Transactions: row.Transactions,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if (entries[i].Category == config.Uncategorised) != (entries[j].Category == config.Uncategorised) {
			return entries[i].Category == config.Uncategorised
		}

		return entries[i].FiatValue.GreaterThan(entries[j].FiatValue)
	})

	return entries, nil
}

// BurnEntry is the outgoing spend of one (month, token) pair.
type BurnEntry struct {
	Month        types.Month     `json:"month"`
	TokenSymbol  string          `json:"tokenSymbol"`
	Amount       decimal.Decimal `json:"amount"`
	FiatValue    decimal.Decimal `json:"fiatValue"`
	Transactions int64           `json:"transactions"`
}

// MonthlyBurn returns the outgoing spend of a wallet per UTC calendar month
// and token, oldest month first. Months without outgoing transactions are
// absent.
func (e *Engine) MonthlyBurn(walletID string) ([]BurnEntry, error) {
	var transactions []models.Transaction

	err := models.DB.
		Where("wallet_id = ? AND direction = 'out' AND failed = ?", walletID, false).
		Order("timestamp ASC").
		Find(&transactions).Error
	if err != nil {
		return nil, err
	}

	type key struct {
		month types.Month
		token string
	}

	sums := make(map[key]*BurnEntry)
	var order []key

	for _, t := range transactions {
		k := key{month: types.MonthOf(t.Timestamp), token: t.TokenSymbol}

		entry, ok := sums[k]
		if !ok {
			entry = &BurnEntry{Month: k.month, TokenSymbol: k.token}
			sums[k] = entry
			order = append(order, k)
		}

		entry.Amount = entry.Amount.Add(t.Amount)
		if t.FiatValue.Valid {
			entry.FiatValue = entry.FiatValue.Add(t.FiatValue.Decimal)
		}
		entry.Transactions++
	}

	entries := make([]BurnEntry, 0, len(order))
	for _, k := range order {
		entries = append(entries, *sums[k])
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Month.Before(entries[j].Month)
	})

	return entries, nil
}

// BudgetLine compares the spend of one configured category against its
// budget ceiling.
type BudgetLine struct {
	Category string `json:"category"`
	Group    string `json:"group"`

	Spent decimal.Decimal `json:"spent"` // outgoing fiat spend of this category

	// PooledSpent is the spend counted against the ceiling. For categories
	// in a shared pool it sums every category of the pool, otherwise it
	// equals Spent.
	PooledSpent decimal.Decimal `json:"pooledSpent"`
	SharedID    string          `json:"sharedId,omitempty"`

	Quarterly decimal.Decimal `json:"quarterly"`
	Semester  decimal.Decimal `json:"semester"`

	// UsedRatio is PooledSpent / Semester, 0 when the ceiling is 0.
	// DisplayRatio is the same ratio capped at the configured maximum.
	UsedRatio    decimal.Decimal `json:"usedRatio"`
	DisplayRatio decimal.Decimal `json:"displayRatio"`
}

// BudgetComparison compares a wallet's spend per category against the
// configured ceilings. Lines follow the configured group order; categories
// without a budget group are appended under "Other". The "Uncategorised"
// sentinel never has an allocation and is not reported.
func (e *Engine) BudgetComparison(ctx context.Context, walletID string) ([]BudgetLine, error) {
	wallet, ok := e.cnf.Wallet(walletID)
	if !ok {
		return nil, nil
	}

	entries, err := e.CategoryBreakdown(ctx, walletID)
	if err != nil {
		return nil, err
	}

	spentByCategory := make(map[string]decimal.Decimal)
	for _, entry := range entries {
		spentByCategory[entry.Category] = spentByCategory[entry.Category].Add(entry.FiatValue)
	}

	pooled := make(map[string]decimal.Decimal)
	for _, allocation := range e.cnf.Allocations {
		if allocation.SharedID == "" {
			continue
		}
		pooled[allocation.SharedID] = pooled[allocation.SharedID].Add(spentByCategory[allocation.Category])
	}

	var lines []BudgetLine
	for _, category := range wallet.Categories {
		if category == config.Uncategorised {
			continue
		}

		spent := spentByCategory[category]

		line := BudgetLine{
			Category:    category,
			Group:       "Other",
			Spent:       spent,
			PooledSpent: spent,
		}

		if allocation, ok := e.cnf.Allocation(category); ok {
			line.Group = allocation.Group
			line.Quarterly = allocation.Quarterly
			line.Semester = allocation.Semester
			line.SharedID = allocation.SharedID

			if allocation.SharedID != "" {
				line.PooledSpent = pooled[allocation.SharedID]
			}

			if allocation.Semester.IsPositive() {
				line.UsedRatio = line.PooledSpent.DivRound(allocation.Semester, 6)
				line.DisplayRatio = decimal.Min(line.UsedRatio, e.cnf.BudgetDisplayCap)
			}
		}

		lines = append(lines, line)
	}

	rank := make(map[string]int, len(e.cnf.Groups()))
	for i, group := range e.cnf.Groups() {
		rank[group] = i
	}

	sort.SliceStable(lines, func(i, j int) bool {
		ri, iKnown := rank[lines[i].Group]
		rj, jKnown := rank[lines[j].Group]

		// Ungrouped categories go last, under "Other"
		if iKnown != jKnown {
			return iKnown
		}

		return ri < rj
	})

	return lines, nil
}
