package usecase

import (
	"context"
	"time"

	"github.com/iho/walletledger/internal/domain"
)

// createTransfer writes the two legs of a transfer. A paid transfer into a
// credit card pays that card's invoice for the transfer's billing cycle.
func (uc *EntryUseCase) createTransfer(
	ctx context.Context,
	tx Transaction,
	actorID string,
	source *domain.Account,
	input CreateEntryInput,
	now time.Time,
) (*CreateEntryResult, error) {
	dest, err := uc.accountRepo.GetForActor(ctx, tx, actorID, input.DestinationAccountID, domain.AccessWrite)
	if err != nil {
		return nil, err
	}

	transferID := uc.idGen.Generate()

	out := uc.newEntry(source, input, input.Amount.Neg(), input.Date, now)
	out.TransferID = transferID
	if source.IsCredit() {
		card, err := source.Card()
		if err != nil {
			return nil, err
		}
		stampPurchase(out, input.Date, domain.ComputeInvoiceMonth(input.Date, card.ClosingDay))
	}

	in := uc.newEntry(dest, input, input.Amount, input.Date, now)
	in.TransferID = transferID
	if dest.IsCredit() {
		card, err := dest.Card()
		if err != nil {
			return nil, err
		}
		d := input.Date
		in.PurchaseDate = &d
		in.InvoiceMonth = domain.ComputeInvoiceMonth(input.Date, card.ClosingDay)
	}

	if err := uc.entryRepo.CreateMany(ctx, tx, []*domain.Entry{out, in}); err != nil {
		return nil, err
	}

	result := &CreateEntryResult{
		Entries: []*domain.Entry{out, in},
		Affected: []domain.AffectedRange{
			{AccountID: source.ID, From: input.Date},
			{AccountID: dest.ID, From: input.Date},
		},
	}

	if dest.IsCredit() && input.IsPaid {
		settled, err := uc.settleInvoice(ctx, tx, dest.ID, in.InvoiceMonth, now)
		if err != nil {
			return nil, err
		}
		result.Settled = settled
		for _, e := range settled {
			result.Affected = append(result.Affected, domain.AffectedRange{AccountID: dest.ID, From: e.Date})
		}
	}

	result.Affected = domain.MergeAffected(result.Affected...)

	return result, nil
}

// settleInvoice marks paid every pending expense billed in invoiceMonth.
func (uc *EntryUseCase) settleInvoice(
	ctx context.Context,
	tx Transaction,
	accountID, invoiceMonth string,
	now time.Time,
) ([]*domain.Entry, error) {
	settled, err := uc.entryRepo.SettleInvoice(ctx, tx, accountID, invoiceMonth, now)
	if err != nil {
		return nil, err
	}

	uc.opts.metrics.InvoiceSettlements.Inc()
	uc.opts.metrics.EntriesSettled.Add(float64(len(settled)))

	uc.opts.logger.Debug().
		Str("account_id", accountID).
		Str("invoice_month", invoiceMonth).
		Int("settled", len(settled)).
		Msg("credit card invoice settled")

	return settled, nil
}
