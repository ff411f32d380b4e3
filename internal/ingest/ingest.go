// Package ingest implements the pipeline that pulls on-chain transactions
// into the database and refreshes the cached balance snapshots.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/daotreasury/backend/internal/config"
	"github.com/daotreasury/backend/internal/explorer"
	"github.com/daotreasury/backend/internal/models"
	"github.com/daotreasury/backend/internal/safe"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
)

// ErrUnknownWallet is returned when an ingestion run is requested for a
// wallet that is not configured.
var ErrUnknownWallet = errors.New("there is no wallet with this ID")

// The chain's native token. Normal and internal transactions denominate
// their value in it, always with 18 decimals.
const (
	nativeSymbol   = "ETH"
	nativeName     = "Ether"
	nativeDecimals = 18
)

var (
	ingestRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "treasury_ingest_runs_total",
		Help: "Number of ingestion runs per wallet.",
	}, []string{"wallet"})

	ingestFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "treasury_ingest_failures_total",
		Help: "Number of failed ingestion runs per wallet.",
	}, []string{"wallet"})

	ingestedTransactions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "treasury_ingested_transactions_total",
		Help: "Number of newly stored transactions per wallet.",
	}, []string{"wallet"})
)

// Explorer lists the on-chain transactions of an address.
type Explorer interface {
	List(ctx context.Context, address string, kind explorer.Kind, startBlock uint64, page, pageSize int) ([]explorer.RawTransaction, error)
}

// Prices quotes current and historical USD prices for token symbols.
type Prices interface {
	Current(ctx context.Context, symbol string) (decimal.Decimal, error)
	Historical(ctx context.Context, symbol string, day time.Time) (decimal.Decimal, error)
}

// Signers reports the executed multisig transactions of a Safe.
type Signers interface {
	ExecutedTransactions(ctx context.Context, address string) ([]safe.MultisigTransaction, error)
}

// Result summarizes one ingestion run.
type Result struct {
	NewTransactions int64 `json:"newTransactions"`
	UpdatedBalances int   `json:"updatedBalances"`
}

// Pipeline ingests wallet transactions and keeps the balance cache fresh.
//
// A Pipeline is safe for concurrent use. Runs for the same wallet are
// coalesced so that two triggers never interleave their writes.
type Pipeline struct {
	cnf      *config.Config
	explorer Explorer
	prices   Prices
	signers  Signers

	group singleflight.Group
}

// NewPipeline returns a Pipeline using the given clients.
func NewPipeline(cnf *config.Config, explorer Explorer, prices Prices, signers Signers) *Pipeline {
	return &Pipeline{
		cnf:      cnf,
		explorer: explorer,
		prices:   prices,
		signers:  signers,
	}
}

// IngestAll runs an ingestion for every configured wallet. A failing wallet
// is logged and does not stop the others; the failures are joined into the
// returned error alongside the results of the wallets that succeeded.
func (p *Pipeline) IngestAll(ctx context.Context) (map[string]Result, error) {
	results := make(map[string]Result, len(p.cnf.Wallets))
	var errs []error

	for _, wallet := range p.cnf.Wallets {
		result, err := p.IngestWallet(ctx, wallet.ID)
		if err != nil {
			log.Warn().Err(err).Str("wallet", wallet.ID).Msg("ingestion failed")
			errs = append(errs, fmt.Errorf("%s: %w", wallet.ID, err))
			continue
		}

		results[wallet.ID] = result
		log.Info().
			Str("wallet", wallet.ID).
			Int64("newTransactions", result.NewTransactions).
			Int("updatedBalances", result.UpdatedBalances).
			Msg("ingestion finished")
	}

	return results, errors.Join(errs...)
}

// IngestWallet fetches the wallet's new transactions from the chain
// explorer, stores them and refreshes the balance snapshots. Concurrent
// calls for the same wallet share a single run and its result.
func (p *Pipeline) IngestWallet(ctx context.Context, walletID string) (Result, error) {
	value, err, _ := p.group.Do(walletID, func() (any, error) {
		return p.run(ctx, walletID)
	})
	if err != nil {
		return Result{}, err
	}

	return value.(Result), nil
}

func (p *Pipeline) run(ctx context.Context, walletID string) (Result, error) {
	wallet, ok := p.cnf.Wallet(walletID)
	if !ok {
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownWallet, walletID)
	}

	// A wallet without an address has nothing on chain yet
	if wallet.Address == "" {
		return Result{}, nil
	}

	ingestRuns.WithLabelValues(walletID).Inc()

	result, err := p.fetchTransactions(ctx, wallet)
	if err != nil {
		ingestFailures.WithLabelValues(walletID).Inc()
		return Result{}, err
	}

	p.enrichSigners(ctx, wallet)

	updated, err := p.refreshBalances(ctx, wallet)
	if err != nil {
		ingestFailures.WithLabelValues(walletID).Inc()
		return Result{}, err
	}
	result.UpdatedBalances = updated

	ingestedTransactions.WithLabelValues(walletID).Add(float64(result.NewTransactions))

	return result, nil
}

// fetchTransactions pages through all transaction kinds, each from its own
// cursor. The cursors are independent so that a failure in one kind never
// moves another kind past history it has not stored yet. Every page is
// committed in one statement, so an explorer failure mid-history never
// leaves a partial page behind.
func (p *Pipeline) fetchTransactions(ctx context.Context, wallet config.Wallet) (Result, error) {
	var result Result
	for _, kind := range explorer.Kinds {
		cursor, err := models.MaxBlock(wallet.ID, transactionType(kind))
		if err != nil {
			return Result{}, err
		}

		for page := 1; ; page++ {
			raw, err := p.explorer.List(ctx, wallet.Address, kind, cursor, page, p.cnf.PageSize)
			if err != nil {
				return Result{}, err
			}

			transactions := make([]models.Transaction, 0, len(raw))
			for _, r := range raw {
				transactions = append(transactions, p.normalize(ctx, wallet, kind, r))
			}

			inserted, err := models.CreateTransactions(transactions)
			if err != nil {
				return Result{}, err
			}
			result.NewTransactions += inserted

			if len(raw) < p.cnf.PageSize {
				break
			}
		}
	}

	return result, nil
}

// transactionType maps an explorer transaction list to the stored type.
func transactionType(kind explorer.Kind) models.TransactionType {
	switch kind {
	case explorer.KindToken:
		return models.TypeToken
	case explorer.KindInternal:
		return models.TypeInternal
	default:
		return models.TypeNormal
	}
}

// normalize converts an explorer transaction into its stored form.
func (p *Pipeline) normalize(ctx context.Context, wallet config.Wallet, kind explorer.Kind, raw explorer.RawTransaction) models.Transaction {
	symbol := raw.TokenSymbol
	name := raw.TokenName
	decimals := raw.Decimals(nativeDecimals)

	if kind != explorer.KindToken {
		symbol = nativeSymbol
		name = nativeName
		decimals = nativeDecimals
	}

	rawValue, err := decimal.NewFromString(raw.Value)
	if err != nil {
		log.Warn().Str("hash", raw.Hash).Str("value", raw.Value).Msg("unparseable transaction value")
		rawValue = decimal.Zero
	}
	amount := rawValue.Shift(-decimals)

	direction := models.DirectionIn
	if strings.EqualFold(raw.From, wallet.Address) {
		direction = models.DirectionOut
	}

	transaction := models.Transaction{
		WalletID:        wallet.ID,
		TxHash:          raw.Hash,
		BlockNumber:     raw.Block(),
		Timestamp:       raw.Time(),
		FromAddress:     strings.ToLower(raw.From),
		ToAddress:       strings.ToLower(raw.To),
		TokenSymbol:     symbol,
		TokenName:       name,
		TokenDecimals:   decimals,
		ContractAddress: strings.ToLower(raw.ContractAddress),
		RawValue:        raw.Value,
		Amount:          amount,
		GasUsed:         raw.GasUsed,
		GasPrice:        raw.GasPrice,
		Type:            transactionType(kind),
		Direction:       direction,
		Category:        config.Uncategorised,
		Failed:          raw.Failed(),
	}

	p.price(ctx, &transaction)

	return transaction
}

// price fills in the fiat and native value of a transaction from the
// historical price of its execution day. A missing quote leaves the fields
// NULL; they are never backfilled later since the stored values are the
// record of what was known at ingestion time.
func (p *Pipeline) price(ctx context.Context, transaction *models.Transaction) {
	if transaction.Failed || transaction.Amount.IsZero() {
		return
	}

	unit, err := p.prices.Historical(ctx, transaction.TokenSymbol, transaction.Timestamp)
	if err != nil {
		log.Debug().Err(err).Str("token", transaction.TokenSymbol).Msg("no historical price")
		return
	}

	fiat := transaction.Amount.Mul(unit)
	transaction.FiatValue = decimal.NewNullDecimal(fiat)

	if transaction.TokenSymbol == nativeSymbol {
		transaction.NativeValue = decimal.NewNullDecimal(transaction.Amount)
		return
	}

	nativeUnit, err := p.prices.Historical(ctx, nativeSymbol, transaction.Timestamp)
	if err != nil || nativeUnit.IsZero() {
		return
	}

	transaction.NativeValue = decimal.NewNullDecimal(fiat.DivRound(nativeUnit, 18))
}

// enrichSigners fills in the multisig signer lists from the Safe
// transaction service. The service only knows recent history and may be
// down, so failures degrade to transactions without signers.
func (p *Pipeline) enrichSigners(ctx context.Context, wallet config.Wallet) {
	multisigTransactions, err := p.signers.ExecutedTransactions(ctx, wallet.Address)
	if err != nil {
		log.Warn().Err(err).Str("wallet", wallet.ID).Msg("signer enrichment failed")
		return
	}

	for _, mt := range multisigTransactions {
		if len(mt.Signers) == 0 {
			continue
		}

		_, err := models.SetTransactionSigners(wallet.ID, mt.TransactionHash, strings.Join(mt.Signers, ","))
		if err != nil {
			log.Warn().Err(err).Str("wallet", wallet.ID).Msg("storing signers failed")
			return
		}
	}
}

// refreshBalances recomputes the wallet's holdings and upserts a balance
// snapshot per token. Tokens without a current price keep their previous
// snapshot, whose LastUpdated timestamp marks it as stale.
func (p *Pipeline) refreshBalances(ctx context.Context, wallet config.Wallet) (int, error) {
	holdings, err := models.Holdings(wallet.ID)
	if err != nil {
		return 0, err
	}

	now := time.Now().In(time.UTC)

	var updated int
	for _, holding := range holdings {
		unit, err := p.prices.Current(ctx, holding.TokenSymbol)
		if err != nil {
			log.Debug().Err(err).Str("token", holding.TokenSymbol).Msg("balance kept stale, no current price")
			continue
		}

		err = models.UpsertBalance(&models.Balance{
			WalletID:        wallet.ID,
			TokenSymbol:     holding.TokenSymbol,
			TokenName:       holding.TokenName,
			ContractAddress: holding.ContractAddress,
			RawBalance:      holding.Amount.Shift(holding.TokenDecimals).String(),
			Balance:         holding.Amount,
			UnitPrice:       unit,
			FiatValue:       holding.Amount.Mul(unit),
			LastUpdated:     now,
		})
		if err != nil {
			return 0, err
		}

		updated++
	}

	return updated, nil
}
