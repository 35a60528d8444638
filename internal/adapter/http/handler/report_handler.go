package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/iho/walletledger/internal/adapter/http/dto"
	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/usecase"
)

// SnapshotService defines the snapshot reads needed by ReportHandler.
type SnapshotService interface {
	BalanceAt(ctx context.Context, actorID, accountID string, date time.Time) (*domain.DailySnapshot, error)
	History(ctx context.Context, actorID, accountID string, input usecase.HistoryInput) ([]domain.DailySnapshot, error)
	PortfolioHistory(ctx context.Context, actorID string, input usecase.HistoryInput) ([]domain.DailyTotal, error)
}

// ReportHandler serves balances read from daily snapshots.
type ReportHandler struct {
	snapshotUC SnapshotService
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(snapshotUC SnapshotService) *ReportHandler {
	return &ReportHandler{snapshotUC: snapshotUC}
}

func historyWindow(r *http.Request) (usecase.HistoryInput, error) {
	from, err := parseDateQuery(r, "from")
	if err != nil {
		return usecase.HistoryInput{}, err
	}
	if from == nil {
		return usecase.HistoryInput{}, fmt.Errorf("%w: from is required", domain.ErrValidation)
	}
	to, err := parseDateQuery(r, "to")
	if err != nil {
		return usecase.HistoryInput{}, err
	}

	input := usecase.HistoryInput{From: *from}
	if to != nil {
		input.To = *to
	}
	return input, nil
}

// History returns the daily balances of one account.
func (h *ReportHandler) History(w http.ResponseWriter, r *http.Request) {
	actor, err := actorID(r)
	if err != nil {
		writeDomainError(w, "unauthorized", err)
		return
	}

	input, err := historyWindow(r)
	if err != nil {
		writeDomainError(w, "invalid query", err)
		return
	}

	snapshots, err := h.snapshotUC.History(r.Context(), actor, chi.URLParam(r, "id"), input)
	if err != nil {
		writeDomainError(w, "failed to get balance history", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.SnapshotsFromDomain(snapshots))
}

// BalanceAt returns the stored balance of an account at the end of one day.
func (h *ReportHandler) BalanceAt(w http.ResponseWriter, r *http.Request) {
	actor, err := actorID(r)
	if err != nil {
		writeDomainError(w, "unauthorized", err)
		return
	}

	date, err := parseDateQuery(r, "date")
	if err == nil && date == nil {
		err = fmt.Errorf("%w: date is required", domain.ErrValidation)
	}
	if err != nil {
		writeDomainError(w, "invalid query", err)
		return
	}

	snapshot, err := h.snapshotUC.BalanceAt(r.Context(), actor, chi.URLParam(r, "id"), *date)
	if err != nil {
		writeDomainError(w, "failed to get balance", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.SnapshotFromDomain(*snapshot))
}

// PortfolioHistory returns the summed daily balance of every account the
// actor can read.
func (h *ReportHandler) PortfolioHistory(w http.ResponseWriter, r *http.Request) {
	actor, err := actorID(r)
	if err != nil {
		writeDomainError(w, "unauthorized", err)
		return
	}

	input, err := historyWindow(r)
	if err != nil {
		writeDomainError(w, "invalid query", err)
		return
	}

	totals, err := h.snapshotUC.PortfolioHistory(r.Context(), actor, input)
	if err != nil {
		writeDomainError(w, "failed to get balance history", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.DailyTotalsFromDomain(totals))
}
