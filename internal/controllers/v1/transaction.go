package v1

import (
	"errors"
	"net/http"
	"time"

	"github.com/daotreasury/backend/internal/httputil"
	"github.com/daotreasury/backend/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/exp/slices"
)

type TransactionListResponse struct {
	Data       []models.Transaction `json:"data"`
	Error      *string              `json:"error" example:"the specified transaction direction is invalid"`
	Pagination *Pagination          `json:"pagination"`
}

type TransactionResponse struct {
	Data  *models.Transaction `json:"data"`
	Error *string             `json:"error" example:"the specified resource ID is not a valid UUID"`
}

type TransactionQueryFilter struct {
	Direction string    `form:"direction" example:"out"`                          // Filter by direction
	Category  string    `form:"category" example:"Grants"`                        // Filter by category
	Token     string    `form:"token" example:"USDC"`                             // Filter by token symbol
	FromDate  time.Time `form:"fromDate" time_format:"2006-01-02" time_utc:"1"`   // Transactions at and after this date
	UntilDate time.Time `form:"untilDate" time_format:"2006-01-02" time_utc:"1"`  // Transactions before this date
	Search    string    `form:"search" example:"audit"`                           // Substring match on hash, addresses and notes
	Offset    uint      `form:"offset" example:"50"`                              // The offset of the first Transaction returned. Defaults to 0.
	Limit     int       `form:"limit" example:"25"`                               // Maximum number of Transactions to return. Defaults to 50.
}

// GetTransactions returns the transactions of a wallet, newest first.
func (co *Controller) GetTransactions(c *gin.Context) {
	cnf, ok := co.Config.Wallet(c.Param("id"))
	if !ok {
		e := errWalletNotFound.Error()
		c.JSON(status(errWalletNotFound), TransactionListResponse{Error: &e})
		return
	}

	var filter TransactionQueryFilter
	if err := c.Bind(&filter); err != nil {
		e := err.Error()
		c.JSON(http.StatusBadRequest, TransactionListResponse{Error: &e})
		return
	}

	q := models.DB.
		Where("wallet_id = ?", cnf.ID).
		Order("timestamp DESC, block_number DESC")

	if filter.Direction != "" {
		direction := models.TransactionDirection(filter.Direction)
		if !slices.Contains([]models.TransactionDirection{models.DirectionIn, models.DirectionOut}, direction) {
			e := errDirectionInvalid.Error()
			c.JSON(http.StatusBadRequest, TransactionListResponse{Error: &e})
			return
		}

		q = q.Where("direction = ?", direction)
	}

	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}

	if filter.Token != "" {
		q = q.Where("token_symbol = ?", filter.Token)
	}

	if !filter.FromDate.IsZero() {
		q = q.Where("timestamp >= ?", filter.FromDate)
	}

	if !filter.UntilDate.IsZero() {
		q = q.Where("timestamp < ?", filter.UntilDate)
	}

	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		q = q.Where(
			models.DB.Where("tx_hash LIKE ?", like).
				Or("to_address LIKE ?", like).
				Or("from_address LIKE ?", like).
				Or("notes LIKE ?", like))
	}

	// Set the offset. Does not need checking since the default is 0
	q = q.Offset(int(filter.Offset))

	// Default to 50 transactions and set the limit
	limit := 50
	if c.Query("limit") != "" {
		limit = filter.Limit
	}
	q = q.Limit(limit)

	var transactions []models.Transaction
	err := q.Find(&transactions).Error
	if err != nil {
		e := err.Error()
		c.JSON(status(err), TransactionListResponse{Error: &e})
		return
	}

	var count int64
	err = q.Limit(-1).Offset(-1).Count(&count).Error
	if err != nil {
		e := err.Error()
		c.JSON(status(err), TransactionListResponse{Error: &e})
		return
	}

	if transactions == nil {
		transactions = make([]models.Transaction, 0)
	}

	c.JSON(http.StatusOK, TransactionListResponse{
		Data: transactions,
		Pagination: &Pagination{
			Count:  len(transactions),
			Total:  count,
			Offset: filter.Offset,
			Limit:  limit,
		},
	})
}

// TransactionEditable are the fields of a transaction an operator can set.
type TransactionEditable struct {
	Category string `json:"category" example:"Grants"` // The budget category
	Notes    string `json:"notes" example:"audited 2024-04"`
}

// UpdateTransaction sets the category and notes of a transaction. The
// category must be one of the categories configured for the transaction's
// wallet.
func (co *Controller) UpdateTransaction(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		e := errIDNotUUID.Error()
		c.JSON(http.StatusBadRequest, TransactionResponse{Error: &e})
		return
	}

	var data TransactionEditable
	if err := httputil.BindData(c, &data); err != nil {
		e := err.Error()
		c.JSON(http.StatusBadRequest, TransactionResponse{Error: &e})
		return
	}

	if data.Category == "" {
		e := errCategoryNotSet.Error()
		c.JSON(http.StatusBadRequest, TransactionResponse{Error: &e})
		return
	}

	var transaction models.Transaction
	err = models.DB.First(&transaction, "id = ?", id).Error
	if err != nil {
		e := err.Error()
		c.JSON(status(err), TransactionResponse{Error: &e})
		return
	}

	wallet, ok := co.Config.Wallet(transaction.WalletID)
	if !ok || !wallet.HasCategory(data.Category) {
		e := errCategoryNotConfigured.Error()
		c.JSON(http.StatusBadRequest, TransactionResponse{Error: &e})
		return
	}

	updated, err := models.UpdateTransactionCategory(id, data.Category, data.Notes)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), TransactionResponse{Error: &e})
		return
	}

	updated.Category = data.Category
	updated.Notes = data.Notes

	c.JSON(http.StatusOK, TransactionResponse{Data: &updated})
}

// BulkCategoriseItem is one assignment of a bulk categorisation.
type BulkCategoriseItem struct {
	ID       uuid.UUID `json:"id" example:"65392deb-5e92-4268-b114-297faad6cdce"`
	Category string    `json:"category" example:"Grants"`
	Notes    string    `json:"notes"`
}

type BulkCategoriseEditable struct {
	Items []BulkCategoriseItem `json:"items"`
}

type BulkCategoriseResult struct {
	Updated int64 `json:"updated"` // Transactions that were categorised
	Skipped int   `json:"skipped"` // Items referencing unknown transactions or unconfigured categories
}

type BulkCategoriseResponse struct {
	Data  *BulkCategoriseResult `json:"data"`
	Error *string               `json:"error" example:"the request body must not be empty"`
}

// BulkCategorise sets the category and notes of several transactions in one
// request. An item referencing an unknown transaction, an empty category or
// a category that is not configured for the transaction's wallet is skipped
// and counted; the remaining items are still applied.
func (co *Controller) BulkCategorise(c *gin.Context) {
	var data BulkCategoriseEditable
	if err := httputil.BindData(c, &data); err != nil {
		e := err.Error()
		c.JSON(http.StatusBadRequest, BulkCategoriseResponse{Error: &e})
		return
	}

	var result BulkCategoriseResult
	for _, item := range data.Items {
		if item.Category == "" {
			result.Skipped++
			continue
		}

		var transaction models.Transaction
		err := models.DB.First(&transaction, "id = ?", item.ID).Error
		if errors.Is(err, models.ErrResourceNotFound) {
			result.Skipped++
			continue
		}
		if err != nil {
			e := err.Error()
			c.JSON(status(err), BulkCategoriseResponse{Error: &e})
			return
		}

		wallet, ok := co.Config.Wallet(transaction.WalletID)
		if !ok || !wallet.HasCategory(item.Category) {
			result.Skipped++
			continue
		}

		if _, err := models.UpdateTransactionCategory(item.ID, item.Category, item.Notes); err != nil {
			e := err.Error()
			c.JSON(status(err), BulkCategoriseResponse{Error: &e})
			return
		}

		result.Updated++
	}

	c.JSON(http.StatusOK, BulkCategoriseResponse{Data: &result})
}
