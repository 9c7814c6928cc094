package handlers

import (
	"net/http"

	"github.com/fincrate/fincrate-backend/internal/api/request"
	"github.com/fincrate/fincrate-backend/internal/apperrors"
	"github.com/fincrate/fincrate-backend/internal/model"
	"github.com/fincrate/fincrate-backend/internal/service"
	"github.com/fincrate/fincrate-backend/internal/validation"
	"github.com/go-chi/chi/v5"
)

// TransactionHandler handles transaction-related HTTP requests
type TransactionHandler struct {
	transactionService *service.TransactionService
}

// NewTransactionHandler creates a new TransactionHandler
func NewTransactionHandler(transactionService *service.TransactionService) *TransactionHandler {
	return &TransactionHandler{
		transactionService: transactionService,
	}
}

// Transactions handles GET /api/portfolios/{uuid}/transactions, newest first.
func (h *TransactionHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	transactions, err := h.transactionService.GetTransactions(r.Context(), userID, chi.URLParam(r, "uuid"))
	if err != nil {
		respondServiceError(w, err, apperrors.ErrFailedToRetrieveTransactions.Error())
		return
	}
	if transactions == nil {
		transactions = []model.Transaction{}
	}

	respondJSON(w, http.StatusOK, transactions)
}

// CreateTransaction handles POST /api/portfolios/{uuid}/transactions.
//
// The trade is applied to the portfolio's holding in the same database
// transaction that records it. A sell above the held quantity answers 409
// under the default sell policy.
//
// Response: 201 Created with the stored transaction
func (h *TransactionHandler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req request.CreateTransactionRequest
	if err := parseJSON(r, &req); err != nil {
		respondServiceError(w, err, "")
		return
	}
	if err := validation.ValidateCreateTransaction(req); err != nil {
		respondServiceError(w, err, "")
		return
	}

	transaction, err := h.transactionService.CreateTransaction(r.Context(), userID, chi.URLParam(r, "uuid"), req)
	if err != nil {
		respondServiceError(w, err, apperrors.ErrFailedToCreateTransaction.Error())
		return
	}

	respondJSON(w, http.StatusCreated, transaction)
}
