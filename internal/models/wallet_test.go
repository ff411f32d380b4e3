package models_test

import (
	"github.com/daotreasury/backend/internal/config"
	"github.com/daotreasury/backend/internal/models"
)

func (suite *TestSuiteStandard) TestSeedWalletsCreates() {
	err := models.SeedWallets([]config.Wallet{
		testWalletConfig("treasury", "0xAAA"),
		testWalletConfig("committee", ""),
	})
	suite.Require().Nil(err)

	var wallets []models.Wallet
	suite.Require().Nil(models.DB.Order("id ASC").Find(&wallets).Error)
	suite.Require().Len(wallets, 2)
	suite.Assert().Equal("committee", wallets[0].ID)
	suite.Assert().Equal("", wallets[0].Address)
	suite.Assert().Equal("0xAAA", wallets[1].Address)
}

func (suite *TestSuiteStandard) TestSeedWalletsIsIdempotent() {
	cfg := []config.Wallet{testWalletConfig("treasury", "0xAAA")}

	suite.Require().Nil(models.SeedWallets(cfg))
	suite.Require().Nil(models.SeedWallets(cfg))

	var count int64
	suite.Require().Nil(models.DB.Model(&models.Wallet{}).Count(&count).Error)
	suite.Assert().Equal(int64(1), count)
}

func (suite *TestSuiteStandard) TestSeedWalletsUpdates() {
	suite.Require().Nil(models.SeedWallets([]config.Wallet{testWalletConfig("treasury", "0xAAA")}))

	updated := testWalletConfig("treasury", "0xAAA")
	updated.Name = "Renamed"
	suite.Require().Nil(models.SeedWallets([]config.Wallet{updated}))

	var wallet models.Wallet
	suite.Require().Nil(models.DB.First(&wallet, "id = ?", "treasury").Error)
	suite.Assert().Equal("Renamed", wallet.Name)
}

// TestSeedWalletsPurgesOnAddressChange verifies that transactions and
// balances recorded for an old address do not survive an address change.
func (suite *TestSuiteStandard) TestSeedWalletsPurgesOnAddressChange() {
	suite.Require().Nil(models.SeedWallets([]config.Wallet{testWalletConfig("treasury", "0xAAA")}))

	suite.createTestTransaction(models.Transaction{WalletID: "treasury", Amount: amount("1")})
	suite.createTestBalance(models.Balance{WalletID: "treasury", TokenSymbol: "ETH", Balance: amount("1")})

	suite.Require().Nil(models.SeedWallets([]config.Wallet{testWalletConfig("treasury", "0xBBB")}))

	var txCount, balanceCount int64
	suite.Require().Nil(models.DB.Model(&models.Transaction{}).Count(&txCount).Error)
	suite.Require().Nil(models.DB.Model(&models.Balance{}).Count(&balanceCount).Error)

	suite.Assert().Equal(int64(0), txCount)
	suite.Assert().Equal(int64(0), balanceCount)
}
