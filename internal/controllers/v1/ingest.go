package v1

import (
	"net/http"

	"github.com/daotreasury/backend/internal/ingest"
	"github.com/gin-gonic/gin"
)

type IngestResponse struct {
	Data  *ingest.Result `json:"data"`
	Error *string        `json:"error" example:"the chain explorer is unavailable"`
}

type IngestAllResponse struct {
	Data  map[string]ingest.Result `json:"data"`
	Error *string                  `json:"error" example:"treasury: the chain explorer is unavailable"`
}

// IngestWallet triggers an ingestion run for a wallet and waits for its
// result. A run already in flight for the wallet is joined instead of
// started twice.
func (co *Controller) IngestWallet(c *gin.Context) {
	result, err := co.Pipeline.IngestWallet(c.Request.Context(), c.Param("id"))
	if err != nil {
		e := err.Error()
		c.JSON(status(err), IngestResponse{Error: &e})
		return
	}

	c.JSON(http.StatusOK, IngestResponse{Data: &result})
}

// IngestAll triggers an ingestion run for every configured wallet and waits
// for the results. A failing wallet does not stop the others: its error is
// reported alongside the results of the wallets that succeeded.
func (co *Controller) IngestAll(c *gin.Context) {
	results, err := co.Pipeline.IngestAll(c.Request.Context())
	if err != nil {
		e := err.Error()
		c.JSON(status(err), IngestAllResponse{Data: results, Error: &e})
		return
	}

	c.JSON(http.StatusOK, IngestAllResponse{Data: results})
}
