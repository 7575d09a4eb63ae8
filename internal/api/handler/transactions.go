package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/expense-tracker-go/internal/api/apierr"
	"github.com/mcoot/expense-tracker-go/internal/api/middleware"
	"github.com/mcoot/expense-tracker-go/internal/api/request"
	"github.com/mcoot/expense-tracker-go/internal/api/response"
	"github.com/mcoot/expense-tracker-go/internal/model"
	"github.com/mcoot/expense-tracker-go/internal/services/transaction"
)

// TransactionHandler handles the current identity's transactions.
// Routes require authentication.
type TransactionHandler struct {
	transactions *transaction.Service
	errs         *apierr.Responder
}

// NewTransactionHandler creates a new transaction handler
func NewTransactionHandler(transactions *transaction.Service, errs *apierr.Responder) *TransactionHandler {
	return &TransactionHandler{
		transactions: transactions,
		errs:         errs,
	}
}

// Create handles POST /api/v1/transactions
func (h *TransactionHandler) Create(w http.ResponseWriter, r *http.Request) {
	owner := middleware.MustGetIdentity(r)

	var req request.CreateTransactionRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.errs.WriteError(w, r, err)
		return
	}

	tx, err := h.transactions.Create(r.Context(), owner.ID, transaction.CreateInput{
		Description: req.Description,
		PaymentType: model.PaymentType(req.PaymentType),
		Category:    model.Category(req.Category),
		Amount:      req.Amount,
		Location:    req.Location,
		Date:        req.Date,
	})
	if err != nil {
		h.errs.WriteError(w, r, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.TransactionFromModel(tx))
}

// List handles GET /api/v1/transactions
func (h *TransactionHandler) List(w http.ResponseWriter, r *http.Request) {
	owner := middleware.MustGetIdentity(r)

	txs, err := h.transactions.List(r.Context(), owner.ID)
	if err != nil {
		h.errs.WriteError(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, response.TransactionListFromModel(txs))
}

// Get handles GET /api/v1/transactions/{id}
func (h *TransactionHandler) Get(w http.ResponseWriter, r *http.Request) {
	owner := middleware.MustGetIdentity(r)

	tx, err := h.transactions.Get(r.Context(), owner.ID, transactionID(r))
	if err != nil {
		h.errs.WriteError(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, response.TransactionFromModel(tx))
}

// Update handles PATCH /api/v1/transactions/{id}
func (h *TransactionHandler) Update(w http.ResponseWriter, r *http.Request) {
	owner := middleware.MustGetIdentity(r)

	var req request.UpdateTransactionRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.errs.WriteError(w, r, err)
		return
	}

	in := transaction.UpdateInput{
		Description: req.Description,
		Amount:      req.Amount,
		Location:    req.Location,
		Date:        req.Date,
	}
	if req.PaymentType != nil {
		pt := model.PaymentType(*req.PaymentType)
		in.PaymentType = &pt
	}
	if req.Category != nil {
		c := model.Category(*req.Category)
		in.Category = &c
	}

	tx, err := h.transactions.Update(r.Context(), owner.ID, transactionID(r), in)
	if err != nil {
		h.errs.WriteError(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, response.TransactionFromModel(tx))
}

// Delete handles DELETE /api/v1/transactions/{id}. The deleted transaction
// is returned.
func (h *TransactionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	owner := middleware.MustGetIdentity(r)

	tx, err := h.transactions.Delete(r.Context(), owner.ID, transactionID(r))
	if err != nil {
		h.errs.WriteError(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, response.TransactionFromModel(tx))
}

// Stats handles GET /api/v1/transactions/stats
func (h *TransactionHandler) Stats(w http.ResponseWriter, r *http.Request) {
	owner := middleware.MustGetIdentity(r)

	totals, err := h.transactions.CategoryStatistics(r.Context(), owner.ID)
	if err != nil {
		h.errs.WriteError(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, response.CategoryStatisticsFromModel(totals))
}

func transactionID(r *http.Request) model.TransactionID {
	return model.TransactionID(mux.Vars(r)["id"])
}
