// Package v1 implements the v1 JSON API.
package v1

import (
	"net/http"

	"github.com/daotreasury/backend/internal/config"
	"github.com/daotreasury/backend/internal/httputil"
	"github.com/daotreasury/backend/internal/ingest"
	"github.com/daotreasury/backend/internal/reports"
	"github.com/gin-gonic/gin"
)

// Controller holds the dependencies of the v1 API handlers.
type Controller struct {
	Config   *config.Config
	Pipeline *ingest.Pipeline
	Reports  *reports.Engine
}

// RegisterRoutes registers the v1 API routes with the RouterGroup that is
// passed. The authorized middleware guards every write endpoint.
func (co *Controller) RegisterRoutes(r *gin.RouterGroup, authorized gin.HandlerFunc) {
	{
		r.GET("", GetV1)
		r.OPTIONS("", OptionsV1)
	}

	wallets := r.Group("/wallets")
	{
		wallets.OPTIONS("", httputil.OptionsGet)
		wallets.GET("", co.GetWallets)

		wallets.OPTIONS("/:id", httputil.OptionsGet)
		wallets.GET("/:id", co.GetWallet)

		wallets.OPTIONS("/:id/transactions", httputil.OptionsGet)
		wallets.GET("/:id/transactions", co.GetTransactions)

		wallets.OPTIONS("/:id/stats", httputil.OptionsGet)
		wallets.GET("/:id/stats", co.GetStats)

		wallets.OPTIONS("/:id/budget", httputil.OptionsGet)
		wallets.GET("/:id/budget", co.GetBudget)

		wallets.OPTIONS("/:id/ingest", httputil.OptionsPost)
		wallets.POST("/:id/ingest", authorized, co.IngestWallet)
	}

	transactions := r.Group("/transactions")
	{
		transactions.OPTIONS("/bulk-categorise", httputil.OptionsPost)
		transactions.POST("/bulk-categorise", authorized, co.BulkCategorise)

		transactions.OPTIONS("/:id", httputil.OptionsPatch)
		transactions.PATCH("/:id", authorized, co.UpdateTransaction)
	}

	{
		r.OPTIONS("/ingest", httputil.OptionsPost)
		r.POST("/ingest", authorized, co.IngestAll)
	}
}

type V1Response struct {
	Links V1Links `json:"links"`
}

type V1Links struct {
	Wallets string `json:"wallets" example:"https://example.com/api/v1/wallets"`
}

// GetV1 returns general information about the v1 API.
func GetV1(c *gin.Context) {
	c.JSON(http.StatusOK, V1Response{
		Links: V1Links{
			Wallets: hostURL(c) + "/v1/wallets",
		},
	})
}

func OptionsV1(c *gin.Context) {
	httputil.OptionsGet(c)
}

// hostURL returns the scheme and host of the request. The scheme falls back
// to http when the x-forwarded-proto header is not set.
func hostURL(c *gin.Context) string {
	scheme := "http"
	if c.Request.Header.Get("x-forwarded-proto") == "https" {
		scheme = "https"
	}

	return scheme + "://" + c.Request.Host
}
