package v1_test

import (
	"net/http"
	"time"

	v1 "github.com/daotreasury/backend/internal/controllers/v1"
	"github.com/daotreasury/backend/internal/models"
	"github.com/daotreasury/backend/test"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func (suite *TestSuiteV1) TestGetTransactions() {
	suite.createTestTransaction(models.Transaction{
		TxHash:    "0x01",
		Category:  "Ops",
		Amount:    decimal.RequireFromString("100"),
		Timestamp: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	})
	suite.createTestTransaction(models.Transaction{
		TxHash:    "0x02",
		Direction: models.DirectionIn,
		Amount:    decimal.RequireFromString("50"),
		Timestamp: time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC),
	})

	recorder := test.Request(suite.T(), suite.router, http.MethodGet, "/v1/wallets/treasury/transactions", "")
	test.AssertHTTPStatus(suite.T(), &recorder, http.StatusOK)

	var response v1.TransactionListResponse
	test.DecodeResponse(suite.T(), &recorder, &response)

	suite.Require().Len(response.Data, 2)

	// Newest first
	suite.Assert().Equal("0x02", response.Data[0].TxHash)

	suite.Require().NotNil(response.Pagination)
	suite.Assert().Equal(int64(2), response.Pagination.Total)
}

func (suite *TestSuiteV1) TestGetTransactionsFilters() {
	suite.createTestTransaction(models.Transaction{TxHash: "0x01", Category: "Ops", Amount: decimal.RequireFromString("1")})
	suite.createTestTransaction(models.Transaction{TxHash: "0x02", Category: "Grants", Amount: decimal.RequireFromString("2")})
	suite.createTestTransaction(models.Transaction{TxHash: "0x03", Category: "Grants", Direction: models.DirectionIn, Amount: decimal.RequireFromString("3")})

	tests := []struct {
		query string
		count int
	}{
		{"category=Grants", 2},
		{"category=Grants&direction=out", 1},
		{"direction=in", 1},
		{"token=ETH", 3},
		{"token=USDC", 0},
		{"search=0x02", 1},
	}

	for _, tt := range tests {
		recorder := test.Request(suite.T(), suite.router, http.MethodGet, "/v1/wallets/treasury/transactions?"+tt.query, "")
		test.AssertHTTPStatus(suite.T(), &recorder, http.StatusOK)

		var response v1.TransactionListResponse
		test.DecodeResponse(suite.T(), &recorder, &response)
		suite.Assert().Len(response.Data, tt.count, "wrong number of transactions for query %q", tt.query)
	}
}

func (suite *TestSuiteV1) TestGetTransactionsPagination() {
	for i := 0; i < 5; i++ {
		suite.createTestTransaction(models.Transaction{Amount: decimal.RequireFromString("1")})
	}

	recorder := test.Request(suite.T(), suite.router, http.MethodGet, "/v1/wallets/treasury/transactions?limit=2&offset=4", "")
	test.AssertHTTPStatus(suite.T(), &recorder, http.StatusOK)

	var response v1.TransactionListResponse
	test.DecodeResponse(suite.T(), &recorder, &response)

	suite.Assert().Len(response.Data, 1)
	suite.Assert().Equal(int64(5), response.Pagination.Total)
	suite.Assert().Equal(uint(4), response.Pagination.Offset)
}

func (suite *TestSuiteV1) TestGetTransactionsInvalidDirection() {
	recorder := test.Request(suite.T(), suite.router, http.MethodGet, "/v1/wallets/treasury/transactions?direction=sideways", "")
	test.AssertHTTPStatus(suite.T(), &recorder, http.StatusBadRequest)
}

func (suite *TestSuiteV1) TestUpdateTransaction() {
	transaction := suite.createTestTransaction(models.Transaction{Amount: decimal.RequireFromString("1")})

	recorder := test.Request(suite.T(), suite.router, http.MethodPatch,
		"/v1/transactions/"+transaction.ID.String(),
		v1.TransactionEditable{Category: "Grants", Notes: "audited"},
		suite.authorized())
	test.AssertHTTPStatus(suite.T(), &recorder, http.StatusOK)

	var response v1.TransactionResponse
	test.DecodeResponse(suite.T(), &recorder, &response)
	suite.Require().NotNil(response.Data)
	suite.Assert().Equal("Grants", response.Data.Category)

	var reread models.Transaction
	suite.Require().Nil(models.DB.First(&reread, "id = ?", transaction.ID).Error)
	suite.Assert().Equal("Grants", reread.Category)
	suite.Assert().Equal("audited", reread.Notes)
}

func (suite *TestSuiteV1) TestUpdateTransactionUnconfiguredCategory() {
	transaction := suite.createTestTransaction(models.Transaction{Amount: decimal.RequireFromString("1")})

	recorder := test.Request(suite.T(), suite.router, http.MethodPatch,
		"/v1/transactions/"+transaction.ID.String(),
		v1.TransactionEditable{Category: "Yachts"},
		suite.authorized())
	test.AssertHTTPStatus(suite.T(), &recorder, http.StatusBadRequest)
}

func (suite *TestSuiteV1) TestUpdateTransactionNotFound() {
	recorder := test.Request(suite.T(), suite.router, http.MethodPatch,
		"/v1/transactions/"+uuid.NewString(),
		v1.TransactionEditable{Category: "Ops"},
		suite.authorized())
	test.AssertHTTPStatus(suite.T(), &recorder, http.StatusNotFound)
}

func (suite *TestSuiteV1) TestUpdateTransactionInvalidUUID() {
	recorder := test.Request(suite.T(), suite.router, http.MethodPatch,
		"/v1/transactions/not-a-uuid",
		v1.TransactionEditable{Category: "Ops"},
		suite.authorized())
	test.AssertHTTPStatus(suite.T(), &recorder, http.StatusBadRequest)
}

func (suite *TestSuiteV1) TestBulkCategorise() {
	first := suite.createTestTransaction(models.Transaction{Amount: decimal.RequireFromString("1")})
	second := suite.createTestTransaction(models.Transaction{Amount: decimal.RequireFromString("2")})

	recorder := test.Request(suite.T(), suite.router, http.MethodPost, "/v1/transactions/bulk-categorise",
		v1.BulkCategoriseEditable{Items: []v1.BulkCategoriseItem{
			{ID: first.ID, Category: "Grants", Notes: "batch"},
			{ID: second.ID, Category: "Ops"},
		}},
		suite.authorized())
	test.AssertHTTPStatus(suite.T(), &recorder, http.StatusOK)

	var response v1.BulkCategoriseResponse
	test.DecodeResponse(suite.T(), &recorder, &response)
	suite.Require().NotNil(response.Data)
	suite.Assert().Equal(int64(2), response.Data.Updated)
	suite.Assert().Equal(0, response.Data.Skipped)

	var reread models.Transaction
	suite.Require().Nil(models.DB.First(&reread, "id = ?", first.ID).Error)
	suite.Assert().Equal("Grants", reread.Category)
	suite.Assert().Equal("batch", reread.Notes)
}

// TestBulkCategoriseSkipsInvalidItems verifies that unknown transactions and
// categories that are not configured for the wallet do not fail the whole
// request, the valid items are still applied.
func (suite *TestSuiteV1) TestBulkCategoriseSkipsInvalidItems() {
	transaction := suite.createTestTransaction(models.Transaction{Amount: decimal.RequireFromString("1")})

	recorder := test.Request(suite.T(), suite.router, http.MethodPost, "/v1/transactions/bulk-categorise",
		v1.BulkCategoriseEditable{Items: []v1.BulkCategoriseItem{
			{ID: transaction.ID, Category: "Grants"},
			{ID: uuid.New(), Category: "Grants"},
			{ID: transaction.ID, Category: "Yachts"},
			{ID: transaction.ID},
		}},
		suite.authorized())
	test.AssertHTTPStatus(suite.T(), &recorder, http.StatusOK)

	var response v1.BulkCategoriseResponse
	test.DecodeResponse(suite.T(), &recorder, &response)
	suite.Require().NotNil(response.Data)
	suite.Assert().Equal(int64(1), response.Data.Updated)
	suite.Assert().Equal(3, response.Data.Skipped)

	var reread models.Transaction
	suite.Require().Nil(models.DB.First(&reread, "id = ?", transaction.ID).Error)
	suite.Assert().Equal("Grants", reread.Category)
}

func (suite *TestSuiteV1) TestBulkCategoriseEmptyBody() {
	recorder := test.Request(suite.T(), suite.router, http.MethodPost, "/v1/transactions/bulk-categorise", "", suite.authorized())
	test.AssertHTTPStatus(suite.T(), &recorder, http.StatusBadRequest)
}

func (suite *TestSuiteV1) TestBulkCategoriseRequiresToken() {
	recorder := test.Request(suite.T(), suite.router, http.MethodPost, "/v1/transactions/bulk-categorise",
		v1.BulkCategoriseEditable{})
	test.AssertHTTPStatus(suite.T(), &recorder, http.StatusUnauthorized)
}

func (suite *TestSuiteV1) TestUpdateTransactionRequiresToken() {
	transaction := suite.createTestTransaction(models.Transaction{Amount: decimal.RequireFromString("1")})

	recorder := test.Request(suite.T(), suite.router, http.MethodPatch,
		"/v1/transactions/"+transaction.ID.String(),
		v1.TransactionEditable{Category: "Ops"})
	test.AssertHTTPStatus(suite.T(), &recorder, http.StatusUnauthorized)

	recorder = test.Request(suite.T(), suite.router, http.MethodPatch,
		"/v1/transactions/"+transaction.ID.String(),
		v1.TransactionEditable{Category: "Ops"},
		map[string]string{"Authorization": "Bearer wrong"})
	test.AssertHTTPStatus(suite.T(), &recorder, http.StatusUnauthorized)
}
