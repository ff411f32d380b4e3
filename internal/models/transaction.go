package models

import (
	"database/sql"
	"time"

	"github.com/daotreasury/backend/internal/config"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TransactionDirection describes whether a transaction moved funds into or
// out of the wallet.
type TransactionDirection string

const (
	DirectionIn  TransactionDirection = "in"
	DirectionOut TransactionDirection = "out"
)

// TransactionType is the kind of chain activity a transaction records.
type TransactionType string

const (
	TypeNormal   TransactionType = "normal"   // native token transfer or contract call
	TypeToken    TransactionType = "erc20"    // token transfer
	TypeInternal TransactionType = "internal" // value movement inside a contract call
)

// Transaction is one on-chain transaction of a tracked wallet.
//
// Rows are created by the ingestion pipeline and are never deleted. The only
// fields that change afterwards are Category and Notes, which operators set,
// and Signers, which the pipeline fills in once the multisig confirmations
// are known.
type Transaction struct {
	DefaultModel
	WalletID string `json:"walletId" gorm:"uniqueIndex:transaction_wallet_hash;index" example:"treasury"`
	Wallet   Wallet `json:"-"`

	TxHash      string    `json:"txHash" gorm:"uniqueIndex:transaction_wallet_hash" example:"0x5ca57e05e54f23f35c11d44e1b218ae9e8b54e1f23b7e29de04d5a1d11c418af"`
	BlockNumber uint64    `json:"blockNumber" example:"4721934"`
	Timestamp   time.Time `json:"timestamp" gorm:"index"` // block timestamp, UTC

	FromAddress string `json:"fromAddress"`
	ToAddress   string `json:"toAddress"`

	TokenSymbol     string `json:"tokenSymbol" gorm:"index" example:"USDC"`
	TokenName       string `json:"tokenName" example:"USD Coin"`
	TokenDecimals   int32  `json:"tokenDecimals" example:"6"`
	ContractAddress string `json:"contractAddress"` // empty for the native token

	// RawValue is the canonical amount in the token's smallest unit. It is
	// kept as the reported integer string so that no precision is ever lost;
	// Amount is the decimal-shifted value used for arithmetic and display.
	RawValue string          `json:"rawValue" example:"1500000"`
	Amount   decimal.Decimal `json:"amount" gorm:"type:DECIMAL(32,18)" example:"1.5"`

	// Gas accounting as the explorer reports it, integer strings like
	// RawValue. GasPrice is in wei and empty for internal transactions.
	GasUsed  string `json:"gasUsed" example:"21000"`
	GasPrice string `json:"gasPrice" example:"250000000"`

	Type      TransactionType      `json:"type" example:"erc20"`
	Direction TransactionDirection `json:"direction" gorm:"index" example:"out"`

	Category string `json:"category" gorm:"index;default:Uncategorised" example:"Delegate Incentives"`
	Notes    string `json:"notes"`

	// Signers holds the sorted multisig confirmation addresses, comma
	// separated. Empty when the confirmations are not known (yet).
	Signers string `json:"signers,omitempty"`

	// FiatValue is the USD value at execution time, set during ingestion
	// when a historical price was available. It is never rewritten.
	FiatValue decimal.NullDecimal `json:"fiatValue" gorm:"type:DECIMAL(32,18)"`

	// NativeValue is the equivalent amount in the chain's native token at
	// execution time.
	NativeValue decimal.NullDecimal `json:"nativeValue" gorm:"type:DECIMAL(32,18)"`

	Failed bool `json:"failed"` // reverted on chain, excluded from all sums
}

// BeforeSave keeps the block timestamp in UTC and applies the category
// default for rows created in code rather than via the schema default.
func (t *Transaction) BeforeSave(_ *gorm.DB) error {
	t.Timestamp = t.Timestamp.In(time.UTC)

	if t.Category == "" {
		t.Category = config.Uncategorised
	}

	return nil
}

// AfterFind reads the block timestamp back as UTC. It shadows the embedded
// model's hook, so the created/updated timestamps are normalized here too.
func (t *Transaction) AfterFind(tx *gorm.DB) error {
	if err := t.DefaultModel.AfterFind(tx); err != nil {
		return err
	}

	t.Timestamp = t.Timestamp.In(time.UTC)
	return nil
}

// CreateTransactions inserts transactions, skipping every row that already
// exists for its (wallet, tx hash) pair. It returns the number of rows that
// were actually inserted.
//
// The insert is a single statement, so a page of transactions is committed
// fully or not at all.
func CreateTransactions(transactions []Transaction) (int64, error) {
	if len(transactions) == 0 {
		return 0, nil
	}

	res := DB.Clauses(clause.OnConflict{DoNothing: true}).Create(&transactions)
	if res.Error != nil {
		return 0, res.Error
	}

	return res.RowsAffected, nil
}

// UpdateTransactionCategory sets the category and notes of a transaction.
func UpdateTransactionCategory(id uuid.UUID, category, notes string) (Transaction, error) {
	var transaction Transaction
	err := DB.First(&transaction, "id = ?", id).Error
	if err != nil {
		return Transaction{}, err
	}

	err = DB.Model(&transaction).Select("category", "notes").Updates(Transaction{
		Category: category,
		Notes:    notes,
	}).Error
	if err != nil {
		return Transaction{}, err
	}

	return transaction, nil
}

// SetTransactionSigners records the multisig signer list for a transaction.
// Unknown hashes are ignored since the Safe service also reports transactions
// that have not been ingested yet.
func SetTransactionSigners(walletID, txHash, signers string) (int64, error) {
	res := DB.Model(&Transaction{}).
		Where("wallet_id = ? AND tx_hash = ? AND signers = ''", walletID, txHash).
		Update("signers", signers)

	return res.RowsAffected, res.Error
}

// MaxBlock returns the highest block number stored for a wallet and
// transaction type. It is the ingestion cursor, tracked per type because the
// explorer serves each type as a separate list: the normal list reaching
// block N says nothing about how far the token or internal lists got.
// Fetching from this block on re-reads at most one already known block,
// which the idempotent insert then skips.
func MaxBlock(walletID string, transactionType TransactionType) (uint64, error) {
	var max sql.NullInt64

	err := DB.Model(&Transaction{}).
		Where("wallet_id = ? AND type = ?", walletID, transactionType).
		Select("MAX(block_number)").
		Row().
		Scan(&max)
	if err != nil {
		return 0, err
	}

	if !max.Valid {
		return 0, nil
	}

	return uint64(max.Int64), nil
}

// Holding is the computed position of a wallet in one token.
type Holding struct {
	TokenSymbol     string
	TokenName       string
	ContractAddress string
	TokenDecimals   int32
	Amount          decimal.Decimal
}

// Holdings sums the signed transaction amounts of a wallet per token.
// Failed transactions do not move funds and are excluded.
func Holdings(walletID string) ([]Holding, error) {
	var holdings []Holding

	err := DB.Model(&Transaction{}).
		Select("token_symbol, token_name, contract_address, token_decimals, SUM(CASE WHEN direction = 'in' THEN amount ELSE -amount END) AS amount").
		Where("wallet_id = ? AND failed = ?", walletID, false).
		Group("token_symbol").
		Scan(&holdings).Error
	if err != nil {
		return nil, err
	}

	return holdings, nil
}
