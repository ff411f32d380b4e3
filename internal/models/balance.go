package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm/clause"
)

// Balance is the cached position of a wallet in one token.
//
// A Balance is a point-in-time snapshot, not a ledger: the ingestion
// pipeline recomputes and overwrites it wholesale after every run. When the
// price oracle cannot quote a token, the previous snapshot is kept and its
// LastUpdated timestamp marks it as stale.
type Balance struct {
	DefaultModel
	WalletID string `json:"walletId" gorm:"uniqueIndex:balance_wallet_token;index" example:"treasury"`
	Wallet   Wallet `json:"-"`

	TokenSymbol     string `json:"tokenSymbol" gorm:"uniqueIndex:balance_wallet_token" example:"USDC"`
	TokenName       string `json:"tokenName" example:"USD Coin"`
	ContractAddress string `json:"contractAddress"` // empty for the native token

	RawBalance string          `json:"rawBalance" example:"150000000"` // smallest-unit integer string
	Balance    decimal.Decimal `json:"balance" gorm:"type:DECIMAL(32,18)" example:"150"`

	UnitPrice decimal.Decimal `json:"unitPrice" gorm:"type:DECIMAL(32,18)" example:"0.9998"` // USD per token at refresh time
	FiatValue decimal.Decimal `json:"fiatValue" gorm:"type:DECIMAL(32,18)" example:"149.97"` // USD value at refresh time

	LastUpdated time.Time `json:"lastUpdated"` // time of the last successful refresh
}

// UpsertBalance writes the balance snapshot for its (wallet, token) pair,
// replacing any previous snapshot.
func UpsertBalance(balance *Balance) error {
	return DB.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "wallet_id"}, {Name: "token_symbol"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"token_name", "contract_address", "raw_balance", "balance",
			"unit_price", "fiat_value", "last_updated", "updated_at",
		}),
	}).Create(balance).Error
}

// Balances returns the cached balance snapshots for a wallet.
func Balances(walletID string) ([]Balance, error) {
	var balances []Balance

	err := DB.Where("wallet_id = ?", walletID).
		Order("fiat_value DESC").
		Find(&balances).Error
	if err != nil {
		return nil, err
	}

	return balances, nil
}
