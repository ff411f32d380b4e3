package models

import (
	"errors"

	"github.com/daotreasury/backend/internal/config"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Wallet is the stored record of a tracked multisig wallet.
//
// Wallets mirror the static configuration and are read-only at runtime:
// they are seeded once at startup and never modified by request handlers.
type Wallet struct {
	ID          string `json:"id" gorm:"primaryKey" example:"treasury"` // wallet slug
	Name        string `json:"name" example:"DAO Treasury Multisig"`
	Address     string `json:"address" example:"0x20fa362323447506D9d0C02483ae97C4e2d6B607"` // empty when the multisig is not deployed yet
	Description string `json:"description,omitempty"`
	Group       string `json:"group" example:"Operations"`
	Timestamps
}

// SeedWallets writes the configured wallets to the database.
//
// When the configured address for a wallet changed, all transactions and
// balances recorded for the old address are stale and are purged so that the
// next ingestion run repopulates the wallet from scratch.
func SeedWallets(wallets []config.Wallet) error {
	for _, w := range wallets {
		var existing Wallet
		err := DB.First(&existing, "id = ?", w.ID).Error
		if err != nil && !errors.Is(err, ErrResourceNotFound) {
			return err
		}

		if err == nil && existing.Address != "" && existing.Address != w.Address {
			log.Warn().
				Str("wallet", w.ID).
				Str("old", existing.Address).
				Str("new", w.Address).
				Msg("wallet address changed, purging stale data")

			err = DB.Transaction(func(tx *gorm.DB) error {
				if err := tx.Where("wallet_id = ?", w.ID).Delete(&Transaction{}).Error; err != nil {
					return err
				}
				return tx.Where("wallet_id = ?", w.ID).Delete(&Balance{}).Error
			})
			if err != nil {
				return err
			}
		}

		err = DB.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "address", "description", "group"}),
		}).Create(&Wallet{
			ID:          w.ID,
			Name:        w.Name,
			Address:     w.Address,
			Description: w.Description,
			Group:       w.Group,
		}).Error
		if err != nil {
			return err
		}
	}

	return nil
}
