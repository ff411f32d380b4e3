package v1_test

import (
	"net/http"
	"time"

	v1 "github.com/daotreasury/backend/internal/controllers/v1"
	"github.com/daotreasury/backend/internal/models"
	"github.com/daotreasury/backend/test"
	"github.com/shopspring/decimal"
)

func (suite *TestSuiteV1) TestGetV1() {
	recorder := test.Request(suite.T(), suite.router, http.MethodGet, "/v1", "")
	test.AssertHTTPStatus(suite.T(), &recorder, http.StatusOK)

	var response v1.V1Response
	test.DecodeResponse(suite.T(), &recorder, &response)
	suite.Assert().Contains(response.Links.Wallets, "/v1/wallets")
}

func (suite *TestSuiteV1) TestGetWallets() {
	suite.Require().Nil(models.UpsertBalance(&models.Balance{
		WalletID:    "treasury",
		TokenSymbol: "USDC",
		Balance:     decimal.RequireFromString("150"),
		UnitPrice:   decimal.RequireFromString("1"),
		FiatValue:   decimal.RequireFromString("150"),
		LastUpdated: time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC),
	}))

	recorder := test.Request(suite.T(), suite.router, http.MethodGet, "/v1/wallets", "")
	test.AssertHTTPStatus(suite.T(), &recorder, http.StatusOK)

	var response v1.WalletListResponse
	test.DecodeResponse(suite.T(), &recorder, &response)

	suite.Require().Len(response.Data, 2)
	suite.Assert().Equal("treasury", response.Data[0].ID)
	suite.Require().Len(response.Data[0].Balances, 1)
	suite.Assert().Equal("USDC", response.Data[0].Balances[0].TokenSymbol)

	// The wallet without on-chain history has an empty balance list
	suite.Assert().Empty(response.Data[1].Balances)
}

func (suite *TestSuiteV1) TestGetWallet() {
	recorder := test.Request(suite.T(), suite.router, http.MethodGet, "/v1/wallets/treasury", "")
	test.AssertHTTPStatus(suite.T(), &recorder, http.StatusOK)

	var response v1.WalletResponse
	test.DecodeResponse(suite.T(), &recorder, &response)

	suite.Require().NotNil(response.Data)
	suite.Assert().Equal("Treasury", response.Data.Name)
	suite.Assert().Contains(response.Data.Categories, "Grants")
	suite.Assert().Contains(response.Data.Links.Stats, "/v1/wallets/treasury/stats")
}

func (suite *TestSuiteV1) TestGetWalletNotFound() {
	recorder := test.Request(suite.T(), suite.router, http.MethodGet, "/v1/wallets/nope", "")
	test.AssertHTTPStatus(suite.T(), &recorder, http.StatusNotFound)
}

func (suite *TestSuiteV1) TestGetStats() {
	suite.createTestTransaction(models.Transaction{
		Category:  "Ops",
		Amount:    decimal.RequireFromString("100"),
		FiatValue: decimal.NewNullDecimal(decimal.RequireFromString("100")),
	})
	suite.createTestTransaction(models.Transaction{
		Direction: models.DirectionIn,
		Amount:    decimal.RequireFromString("500"),
	})

	recorder := test.Request(suite.T(), suite.router, http.MethodGet, "/v1/wallets/treasury/stats", "")
	test.AssertHTTPStatus(suite.T(), &recorder, http.StatusOK)

	var response v1.StatsResponse
	test.DecodeResponse(suite.T(), &recorder, &response)

	suite.Require().NotNil(response.Data)
	suite.Assert().Equal(int64(2), response.Data.Counts.Total)
	suite.Assert().Equal(int64(1), response.Data.Counts.Outgoing)
	suite.Require().Len(response.Data.Breakdown, 1)
	suite.Assert().Equal("Ops", response.Data.Breakdown[0].Category)
	suite.Require().Len(response.Data.MonthlyBurn, 1)
	suite.Assert().Equal("2024-03", response.Data.MonthlyBurn[0].Month.String())
}

func (suite *TestSuiteV1) TestGetBudget() {
	suite.createTestTransaction(models.Transaction{
		Category:  "Ops",
		Amount:    decimal.RequireFromString("100"),
		FiatValue: decimal.NewNullDecimal(decimal.RequireFromString("100")),
	})

	recorder := test.Request(suite.T(), suite.router, http.MethodGet, "/v1/wallets/treasury/budget", "")
	test.AssertHTTPStatus(suite.T(), &recorder, http.StatusOK)

	var response v1.BudgetResponse
	test.DecodeResponse(suite.T(), &recorder, &response)

	suite.Require().Len(response.Data, 2)
	suite.Assert().Equal("Ops", response.Data[0].Category)
	suite.Assert().True(response.Data[0].UsedRatio.Equal(decimal.RequireFromString("0.1")), "used ratio is %s", response.Data[0].UsedRatio)
}

func (suite *TestSuiteV1) TestGetBudgetNotFound() {
	recorder := test.Request(suite.T(), suite.router, http.MethodGet, "/v1/wallets/nope/budget", "")
	test.AssertHTTPStatus(suite.T(), &recorder, http.StatusNotFound)
}
