package ledger

import (
	"context"
	"fmt"
	"io"

	"github.com/Veraticus/the-ledger-must-balance/internal/common"
	"github.com/Veraticus/the-ledger-must-balance/internal/model"
	"github.com/Veraticus/the-ledger-must-balance/internal/ofx"
	"github.com/Veraticus/the-ledger-must-balance/internal/service"
)

// ImportResult summarises a statement import.
type ImportResult struct {
	Imported int
	Skipped  int
}

// ImportStatement records the lines of an OFX statement as confirmed one-off
// entries against funding. Lines whose FITID was already imported are
// skipped, so importing the same file twice adds nothing.
func (s *Service) ImportStatement(ctx context.Context, reader io.Reader, funding model.FundingSource) (ImportResult, error) {
	if err := funding.Validate(); err != nil {
		return ImportResult{}, common.InvalidInput("%v", err)
	}

	entries, err := ofx.NewParser().ParseFile(ctx, reader)
	if err != nil {
		return ImportResult{}, common.InvalidInput("%v", err)
	}

	var result ImportResult
	err = s.inTx(ctx, "import statement", func(tx service.Transaction) (service.Change, error) {
		result = ImportResult{}
		seen := make(map[string]bool, len(entries))
		var batch []model.Occurrence

		for _, e := range entries {
			if seen[e.FITID] {
				result.Skipped++
				continue
			}
			seen[e.FITID] = true

			exists, err := tx.HasExternalID(ctx, e.FITID)
			if err != nil {
				return service.Change{}, err
			}
			if exists || !e.Amount.IsPositive() {
				result.Skipped++
				continue
			}

			description := e.Description
			if description == "" {
				description = e.TrnType
			}
			batch = append(batch, model.Occurrence{
				ID:          s.newID(),
				Description: description,
				Amount:      e.Amount,
				Type:        e.EntryType(),
				DueDate:     e.Posted,
				Status:      model.StatusConfirmed,
				Funding:     funding,
				ExternalID:  e.FITID,
			})
		}
		if len(batch) == 0 {
			return service.Change{}, nil
		}

		r := s.newInvoiceResolver(tx)
		if err := r.assign(ctx, batch); err != nil {
			return service.Change{}, err
		}
		if err := tx.InsertBatch(ctx, batch); err != nil {
			return service.Change{}, err
		}
		result.Imported = len(batch)
		return service.Change{InvoiceIDs: r.touched}, nil
	})
	if err != nil {
		return ImportResult{}, err
	}

	common.LogInfo(ctx, "imported statement", common.Fields{
		"funding":  fmt.Sprintf("%s:%s", funding.Kind, funding.ID),
		"imported": result.Imported,
		"skipped":  result.Skipped,
	})
	return result, nil
}
