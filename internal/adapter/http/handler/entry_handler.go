package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/walletledger/internal/adapter/http/dto"
	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/usecase"
)

// EntryService defines the entry operations needed by EntryHandler.
type EntryService interface {
	Create(ctx context.Context, actorID string, input usecase.CreateEntryInput) (*usecase.CreateEntryResult, error)
	GetEntry(ctx context.Context, actorID, entryID string) (*domain.Entry, error)
	ListEntries(ctx context.Context, actorID string, input usecase.ListEntriesInput) (*usecase.EntryPage, error)
}

// SeriesService defines the mutations needed by EntryHandler.
type SeriesService interface {
	Update(ctx context.Context, actorID string, input usecase.UpdateEntryInput) (*usecase.MutationResult, error)
	Delete(ctx context.Context, actorID string, input usecase.DeleteEntryInput) (*usecase.MutationResult, error)
}

// EntryHandler handles entry-related HTTP requests.
type EntryHandler struct {
	entryUC   EntryService
	seriesUC  SeriesService
	refresher *SnapshotRefresher
	retrier   usecase.Retrier
}

// NewEntryHandler creates a new EntryHandler.
func NewEntryHandler(entryUC EntryService, seriesUC SeriesService, refresher *SnapshotRefresher, retrier usecase.Retrier) *EntryHandler {
	return &EntryHandler{
		entryUC:   entryUC,
		seriesUC:  seriesUC,
		refresher: refresher,
		retrier:   retrier,
	}
}

// Create creates one entry, a transfer pair, an installment plan or a
// recurring series.
func (h *EntryHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, err := actorID(r)
	if err != nil {
		writeDomainError(w, "unauthorized", err)
		return
	}

	var req dto.CreateEntryRequest
	if err := decode(w, r, &req); err != nil {
		writeDomainError(w, "invalid request body", err)
		return
	}

	input, err := req.ToUseCaseInput()
	if err != nil {
		writeDomainError(w, "invalid request body", err)
		return
	}

	var result *usecase.CreateEntryResult
	err = retry(r.Context(), h.retrier, func() error {
		var err error
		result, err = h.entryUC.Create(r.Context(), actor, input)
		return err
	})
	if err != nil {
		writeDomainError(w, "failed to create transaction", err)
		return
	}

	h.refresher.Refresh(r.Context(), result.Affected)

	writeJSON(w, http.StatusCreated, dto.CreateEntryFromResult(result))
}

// Get retrieves one entry.
func (h *EntryHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, err := actorID(r)
	if err != nil {
		writeDomainError(w, "unauthorized", err)
		return
	}

	entry, err := h.entryUC.GetEntry(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "failed to get transaction", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.EntryFromDomain(entry))
}

// ListByAccount lists an account's entries newest first.
func (h *EntryHandler) ListByAccount(w http.ResponseWriter, r *http.Request) {
	actor, err := actorID(r)
	if err != nil {
		writeDomainError(w, "unauthorized", err)
		return
	}

	input := usecase.ListEntriesInput{
		AccountID: chi.URLParam(r, "id"),
		Text:      r.URL.Query().Get("q"),
		Cursor:    r.URL.Query().Get("cursor"),
		Limit:     parseIntQuery(r, "limit", 0),
	}
	if input.From, err = parseDateQuery(r, "from"); err != nil {
		writeDomainError(w, "invalid query", err)
		return
	}
	if input.To, err = parseDateQuery(r, "to"); err != nil {
		writeDomainError(w, "invalid query", err)
		return
	}
	if t := r.URL.Query().Get("type"); t != "" {
		entryType := domain.EntryType(t)
		input.Type = &entryType
	}

	page, err := h.entryUC.ListEntries(r.Context(), actor, input)
	if err != nil {
		writeDomainError(w, "failed to list transactions", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.EntryPageResponse{
		Entries:    dto.EntriesFromDomain(page.Entries),
		NextCursor: page.NextCursor,
	})
}

// Update patches an entry, or its whole series with ?scope=ALL.
func (h *EntryHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, err := actorID(r)
	if err != nil {
		writeDomainError(w, "unauthorized", err)
		return
	}

	scope, err := domain.ParseMutationScope(r.URL.Query().Get("scope"))
	if err != nil {
		writeDomainError(w, "invalid query", err)
		return
	}

	var req dto.UpdateEntryRequest
	if err := decode(w, r, &req); err != nil {
		writeDomainError(w, "invalid request body", err)
		return
	}

	patch, err := req.ToPatch()
	if err != nil {
		writeDomainError(w, "invalid request body", err)
		return
	}

	input := usecase.UpdateEntryInput{EntryID: chi.URLParam(r, "id"), Patch: patch, Scope: scope}

	var result *usecase.MutationResult
	err = retry(r.Context(), h.retrier, func() error {
		var err error
		result, err = h.seriesUC.Update(r.Context(), actor, input)
		return err
	})
	if err != nil {
		writeDomainError(w, "failed to update transaction", err)
		return
	}

	h.refresher.Refresh(r.Context(), result.Affected)

	writeJSON(w, http.StatusOK, dto.MutationFromResult(result))
}

// Delete removes an entry, or its whole series with ?scope=ALL.
func (h *EntryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, err := actorID(r)
	if err != nil {
		writeDomainError(w, "unauthorized", err)
		return
	}

	scope, err := domain.ParseMutationScope(r.URL.Query().Get("scope"))
	if err != nil {
		writeDomainError(w, "invalid query", err)
		return
	}

	input := usecase.DeleteEntryInput{EntryID: chi.URLParam(r, "id"), Scope: scope}

	var result *usecase.MutationResult
	err = retry(r.Context(), h.retrier, func() error {
		var err error
		result, err = h.seriesUC.Delete(r.Context(), actor, input)
		return err
	})
	if err != nil {
		writeDomainError(w, "failed to delete transaction", err)
		return
	}

	h.refresher.Refresh(r.Context(), result.Affected)

	writeJSON(w, http.StatusOK, dto.MutationFromResult(result))
}
