package models_test

import (
	"time"

	"github.com/daotreasury/backend/internal/models"
)

func (suite *TestSuiteStandard) TestUpsertBalanceOverwrites() {
	suite.createTestWallet(models.Wallet{ID: "treasury"})

	first := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	suite.createTestBalance(models.Balance{
		WalletID:    "treasury",
		TokenSymbol: "USDC",
		Balance:     amount("100"),
		UnitPrice:   amount("1"),
		FiatValue:   amount("100"),
		LastUpdated: first,
	})

	second := first.Add(time.Hour)
	suite.createTestBalance(models.Balance{
		WalletID:    "treasury",
		TokenSymbol: "USDC",
		Balance:     amount("80"),
		UnitPrice:   amount("0.999"),
		FiatValue:   amount("79.92"),
		LastUpdated: second,
	})

	balances, err := models.Balances("treasury")
	suite.Require().Nil(err)
	suite.Require().Len(balances, 1)

	suite.Assert().True(balances[0].Balance.Equal(amount("80")), "balance is %s", balances[0].Balance)
	suite.Assert().True(balances[0].LastUpdated.Equal(second))
}

func (suite *TestSuiteStandard) TestBalancesOrderedByFiatValue() {
	suite.createTestWallet(models.Wallet{ID: "treasury"})

	suite.createTestBalance(models.Balance{WalletID: "treasury", TokenSymbol: "SCR", FiatValue: amount("10")})
	suite.createTestBalance(models.Balance{WalletID: "treasury", TokenSymbol: "ETH", FiatValue: amount("5000")})

	balances, err := models.Balances("treasury")
	suite.Require().Nil(err)
	suite.Require().Len(balances, 2)
	suite.Assert().Equal("ETH", balances[0].TokenSymbol)
}

func (suite *TestSuiteStandard) TestBalancesEmpty() {
	balances, err := models.Balances("nope")
	suite.Require().Nil(err)
	suite.Assert().Empty(balances)
}
