package v1

import (
	"errors"
	"net/http"

	"github.com/daotreasury/backend/internal/explorer"
	"github.com/daotreasury/backend/internal/ingest"
	"github.com/daotreasury/backend/internal/models"
	"github.com/daotreasury/backend/internal/safe"
)

// status returns the appropriate HTTP status for an error
func status(err error) int {
	if errors.Is(err, models.ErrGeneral) {
		return http.StatusInternalServerError
	}

	if errors.Is(err, models.ErrResourceNotFound) || errors.Is(err, ingest.ErrUnknownWallet) || errors.Is(err, errWalletNotFound) {
		return http.StatusNotFound
	}

	if errors.Is(err, explorer.ErrExternalService) || errors.Is(err, safe.ErrExternalService) {
		return http.StatusBadGateway
	}

	return http.StatusBadRequest
}

var (
	errWalletNotFound        = errors.New("there is no wallet with this ID")
	errIDNotUUID             = errors.New("the specified resource ID is not a valid UUID")
	errDirectionInvalid      = errors.New("the specified transaction direction is invalid")
	errCategoryNotSet        = errors.New("the category must be set")
	errCategoryNotConfigured = errors.New("this category is not configured for the wallet")
)
