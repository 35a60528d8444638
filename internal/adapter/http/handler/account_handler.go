package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/iho/walletledger/internal/adapter/http/dto"
	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/usecase"
)

// AccountService defines the account operations needed by AccountHandler.
type AccountService interface {
	CreateAccount(ctx context.Context, actorID string, input usecase.CreateAccountInput) (*usecase.CreateAccountResult, error)
	GetAccount(ctx context.Context, actorID, id string) (*domain.Account, error)
	UpdateCreditCard(ctx context.Context, actorID, id string, patch usecase.CreditCardPatch) (*domain.Account, error)
	ShareAccount(ctx context.Context, actorID, accountID, userID string, level domain.AccessLevel) error
}

// BalanceService defines the balance queries needed by AccountHandler.
type BalanceService interface {
	AccountBalance(ctx context.Context, actorID, accountID string) (decimal.Decimal, error)
	AvailableLimit(ctx context.Context, actorID, accountID string) (decimal.Decimal, error)
	ListAccounts(ctx context.Context, actorID string) ([]usecase.AccountSummary, error)
	Summarize(ctx context.Context, account *domain.Account) (usecase.AccountSummary, error)
}

// AccountHandler handles account-related HTTP requests.
type AccountHandler struct {
	accountUC AccountService
	balanceUC BalanceService
	refresher *SnapshotRefresher
	retrier   usecase.Retrier
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accountUC AccountService, balanceUC BalanceService, refresher *SnapshotRefresher, retrier usecase.Retrier) *AccountHandler {
	return &AccountHandler{
		accountUC: accountUC,
		balanceUC: balanceUC,
		refresher: refresher,
		retrier:   retrier,
	}
}

// Create creates a new account owned by the actor.
func (h *AccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, err := actorID(r)
	if err != nil {
		writeDomainError(w, "unauthorized", err)
		return
	}

	var req dto.CreateAccountRequest
	if err := decode(w, r, &req); err != nil {
		writeDomainError(w, "invalid request body", err)
		return
	}

	var result *usecase.CreateAccountResult
	err = retry(r.Context(), h.retrier, func() error {
		var err error
		result, err = h.accountUC.CreateAccount(r.Context(), actor, req.ToUseCaseInput())
		return err
	})
	if err != nil {
		writeDomainError(w, "failed to create account", err)
		return
	}

	h.refresher.Refresh(r.Context(), result.Affected)

	writeJSON(w, http.StatusCreated, dto.AccountFromDomain(result.Account))
}

// Get retrieves an account with its balance.
func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, err := actorID(r)
	if err != nil {
		writeDomainError(w, "unauthorized", err)
		return
	}

	account, err := h.accountUC.GetAccount(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "failed to get account", err)
		return
	}

	summary, err := h.balanceUC.Summarize(r.Context(), account)
	if err != nil {
		writeDomainError(w, "failed to get account", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountFromSummary(summary))
}

// List lists every account the actor can read.
func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, err := actorID(r)
	if err != nil {
		writeDomainError(w, "unauthorized", err)
		return
	}

	summaries, err := h.balanceUC.ListAccounts(r.Context(), actor)
	if err != nil {
		writeDomainError(w, "failed to list accounts", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ListAccountsResponse{
		Accounts: dto.AccountsFromSummaries(summaries),
		Total:    int64(len(summaries)),
	})
}

// UpdateCreditCard changes the card settings of a credit card account.
func (h *AccountHandler) UpdateCreditCard(w http.ResponseWriter, r *http.Request) {
	actor, err := actorID(r)
	if err != nil {
		writeDomainError(w, "unauthorized", err)
		return
	}

	var req dto.UpdateCreditCardRequest
	if err := decode(w, r, &req); err != nil {
		writeDomainError(w, "invalid request body", err)
		return
	}

	var account *domain.Account
	err = retry(r.Context(), h.retrier, func() error {
		var err error
		account, err = h.accountUC.UpdateCreditCard(r.Context(), actor, chi.URLParam(r, "id"), req.ToUseCaseInput())
		return err
	})
	if err != nil {
		writeDomainError(w, "failed to update credit card", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountFromDomain(account))
}

// Share grants another user access to an account.
func (h *AccountHandler) Share(w http.ResponseWriter, r *http.Request) {
	actor, err := actorID(r)
	if err != nil {
		writeDomainError(w, "unauthorized", err)
		return
	}

	var req dto.ShareAccountRequest
	if err := decode(w, r, &req); err != nil {
		writeDomainError(w, "invalid request body", err)
		return
	}

	if err := h.accountUC.ShareAccount(r.Context(), actor, chi.URLParam(r, "id"), req.UserID, req.Level()); err != nil {
		writeDomainError(w, "failed to share account", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Balance returns the aggregated balance of an account.
func (h *AccountHandler) Balance(w http.ResponseWriter, r *http.Request) {
	actor, err := actorID(r)
	if err != nil {
		writeDomainError(w, "unauthorized", err)
		return
	}

	id := chi.URLParam(r, "id")
	balance, err := h.balanceUC.AccountBalance(r.Context(), actor, id)
	if err != nil {
		writeDomainError(w, "failed to get balance", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.BalanceResponse{AccountID: id, Balance: balance})
}

// AvailableLimit returns the unused credit of a credit card account.
func (h *AccountHandler) AvailableLimit(w http.ResponseWriter, r *http.Request) {
	actor, err := actorID(r)
	if err != nil {
		writeDomainError(w, "unauthorized", err)
		return
	}

	id := chi.URLParam(r, "id")
	available, err := h.balanceUC.AvailableLimit(r.Context(), actor, id)
	if err != nil {
		writeDomainError(w, "failed to get available limit", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.AvailableLimitResponse{AccountID: id, AvailableLimit: available})
}
