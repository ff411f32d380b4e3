package v1_test

import (
	"net/http"

	v1 "github.com/daotreasury/backend/internal/controllers/v1"
	"github.com/daotreasury/backend/internal/explorer"
	"github.com/daotreasury/backend/internal/models"
	"github.com/daotreasury/backend/test"
)

func (suite *TestSuiteV1) TestIngestWallet() {
	suite.explorer.transactions = []explorer.RawTransaction{
		{Hash: "0x01", BlockNumber: "100", TimeStamp: "1709290800", From: "0xaaa", To: "0xbbb", Value: "1000000000000000000"},
	}

	recorder := test.Request(suite.T(), suite.router, http.MethodPost, "/v1/wallets/treasury/ingest", "", suite.authorized())
	test.AssertHTTPStatus(suite.T(), &recorder, http.StatusOK)

	var response v1.IngestResponse
	test.DecodeResponse(suite.T(), &recorder, &response)

	suite.Require().NotNil(response.Data)
	suite.Assert().Equal(int64(1), response.Data.NewTransactions)

	var count int64
	suite.Require().Nil(models.DB.Model(&models.Transaction{}).Count(&count).Error)
	suite.Assert().Equal(int64(1), count)
}

func (suite *TestSuiteV1) TestIngestWalletExplorerDown() {
	suite.explorer.err = explorer.ErrExternalService

	recorder := test.Request(suite.T(), suite.router, http.MethodPost, "/v1/wallets/treasury/ingest", "", suite.authorized())
	test.AssertHTTPStatus(suite.T(), &recorder, http.StatusBadGateway)
}

func (suite *TestSuiteV1) TestIngestWalletUnknown() {
	recorder := test.Request(suite.T(), suite.router, http.MethodPost, "/v1/wallets/nope/ingest", "", suite.authorized())
	test.AssertHTTPStatus(suite.T(), &recorder, http.StatusNotFound)
}

func (suite *TestSuiteV1) TestIngestWalletRequiresToken() {
	recorder := test.Request(suite.T(), suite.router, http.MethodPost, "/v1/wallets/treasury/ingest", "")
	test.AssertHTTPStatus(suite.T(), &recorder, http.StatusUnauthorized)
}

func (suite *TestSuiteV1) TestIngestAll() {
	suite.explorer.transactions = []explorer.RawTransaction{
		{Hash: "0x01", BlockNumber: "100", TimeStamp: "1709290800", From: "0xaaa", To: "0xbbb", Value: "1000000000000000000"},
	}

	recorder := test.Request(suite.T(), suite.router, http.MethodPost, "/v1/ingest", "", suite.authorized())
	test.AssertHTTPStatus(suite.T(), &recorder, http.StatusOK)

	var response v1.IngestAllResponse
	test.DecodeResponse(suite.T(), &recorder, &response)

	suite.Require().Contains(response.Data, "treasury")
	suite.Assert().Equal(int64(1), response.Data["treasury"].NewTransactions)

	// The wallet without an address runs as a no-op
	suite.Assert().Contains(response.Data, "pending")
}

func (suite *TestSuiteV1) TestIngestAllExplorerDown() {
	suite.explorer.err = explorer.ErrExternalService

	recorder := test.Request(suite.T(), suite.router, http.MethodPost, "/v1/ingest", "", suite.authorized())
	test.AssertHTTPStatus(suite.T(), &recorder, http.StatusBadGateway)
}

func (suite *TestSuiteV1) TestIngestAllRequiresToken() {
	recorder := test.Request(suite.T(), suite.router, http.MethodPost, "/v1/ingest", "")
	test.AssertHTTPStatus(suite.T(), &recorder, http.StatusUnauthorized)
}
