package v1

import (
	"fmt"
	"net/http"

	"github.com/daotreasury/backend/internal/config"
	"github.com/daotreasury/backend/internal/models"
	"github.com/daotreasury/backend/internal/reports"
	"github.com/gin-gonic/gin"
)

type WalletLinks struct {
	Self         string `json:"self" example:"https://example.com/api/v1/wallets/treasury"`
	Transactions string `json:"transactions" example:"https://example.com/api/v1/wallets/treasury/transactions"`
	Stats        string `json:"stats" example:"https://example.com/api/v1/wallets/treasury/stats"`
	Budget       string `json:"budget" example:"https://example.com/api/v1/wallets/treasury/budget"`
}

// Wallet is the representation of a tracked wallet in API v1, combining the
// static configuration with the cached balance snapshots.
type Wallet struct {
	ID          string           `json:"id" example:"treasury"`
	Name        string           `json:"name" example:"Main Treasury"`
	Address     string           `json:"address" example:"0x6647e51E7b6A4b9Af43b6A951D2bD8685Ac45091"`
	Description string           `json:"description"`
	Group       string           `json:"group" example:"DAO"`
	Categories  []string         `json:"categories"`
	Balances    []models.Balance `json:"balances"`
	Links       WalletLinks      `json:"links"`
}

type WalletListResponse struct {
	Data  []Wallet `json:"data"`
	Error *string  `json:"error" example:"there is no wallet with this ID"`
}

type WalletResponse struct {
	Data  *Wallet `json:"data"`
	Error *string `json:"error" example:"there is no wallet with this ID"`
}

// newWallet returns the API v1 representation of a wallet.
func newWallet(c *gin.Context, cnf config.Wallet, balances []models.Balance) Wallet {
	self := fmt.Sprintf("%s/v1/wallets/%s", hostURL(c), cnf.ID)

	if balances == nil {
		balances = make([]models.Balance, 0)
	}

	return Wallet{
		ID:          cnf.ID,
		Name:        cnf.Name,
		Address:     cnf.Address,
		Description: cnf.Description,
		Group:       cnf.Group,
		Categories:  cnf.Categories,
		Balances:    balances,
		Links: WalletLinks{
			Self:         self,
			Transactions: self + "/transactions",
			Stats:        self + "/stats",
			Budget:       self + "/budget",
		},
	}
}

// GetWallets returns all tracked wallets with their cached balances.
func (co *Controller) GetWallets(c *gin.Context) {
	wallets := make([]Wallet, 0, len(co.Config.Wallets))

	for _, cnf := range co.Config.Wallets {
		balances, err := models.Balances(cnf.ID)
		if err != nil {
			e := err.Error()
			c.JSON(status(err), WalletListResponse{Error: &e})
			return
		}

		wallets = append(wallets, newWallet(c, cnf, balances))
	}

	c.JSON(http.StatusOK, WalletListResponse{Data: wallets})
}

// GetWallet returns a specific wallet with its cached balances.
func (co *Controller) GetWallet(c *gin.Context) {
	cnf, ok := co.Config.Wallet(c.Param("id"))
	if !ok {
		e := errWalletNotFound.Error()
		c.JSON(status(errWalletNotFound), WalletResponse{Error: &e})
		return
	}

	balances, err := models.Balances(cnf.ID)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), WalletResponse{Error: &e})
		return
	}

	data := newWallet(c, cnf, balances)
	c.JSON(http.StatusOK, WalletResponse{Data: &data})
}

// Stats is the aggregate dashboard view of one wallet.
type Stats struct {
	Counts      reports.Counts           `json:"counts"`
	Balances    []models.Balance         `json:"balances"`
	Breakdown   []reports.BreakdownEntry `json:"breakdown"`
	MonthlyBurn []reports.BurnEntry      `json:"monthlyBurn"`
}

type StatsResponse struct {
	Data  *Stats  `json:"data"`
	Error *string `json:"error" example:"there is no wallet with this ID"`
}

// GetStats returns the aggregate views for a wallet.
func (co *Controller) GetStats(c *gin.Context) {
	cnf, ok := co.Config.Wallet(c.Param("id"))
	if !ok {
		e := errWalletNotFound.Error()
		c.JSON(status(errWalletNotFound), StatsResponse{Error: &e})
		return
	}

	counts, err := co.Reports.Counts(cnf.ID)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), StatsResponse{Error: &e})
		return
	}

	balances, err := models.Balances(cnf.ID)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), StatsResponse{Error: &e})
		return
	}

	breakdown, err := co.Reports.CategoryBreakdown(c.Request.Context(), cnf.ID)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), StatsResponse{Error: &e})
		return
	}

	burn, err := co.Reports.MonthlyBurn(cnf.ID)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), StatsResponse{Error: &e})
		return
	}

	c.JSON(http.StatusOK, StatsResponse{Data: &Stats{
		Counts:      counts,
		Balances:    balances,
		Breakdown:   breakdown,
		MonthlyBurn: burn,
	}})
}

type BudgetResponse struct {
	Data  []reports.BudgetLine `json:"data"`
	Error *string              `json:"error" example:"there is no wallet with this ID"`
}

// GetBudget returns the budget comparison for a wallet.
func (co *Controller) GetBudget(c *gin.Context) {
	cnf, ok := co.Config.Wallet(c.Param("id"))
	if !ok {
		e := errWalletNotFound.Error()
		c.JSON(status(errWalletNotFound), BudgetResponse{Error: &e})
		return
	}

	lines, err := co.Reports.BudgetComparison(c.Request.Context(), cnf.ID)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), BudgetResponse{Error: &e})
		return
	}

	if lines == nil {
		lines = make([]reports.BudgetLine, 0)
	}

	c.JSON(http.StatusOK, BudgetResponse{Data: lines})
}
