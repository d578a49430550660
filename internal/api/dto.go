package api

import (
	"time"

	"github.com/Veraticus/the-ledger-must-balance/internal/common"
	"github.com/Veraticus/the-ledger-must-balance/internal/ledger"
	"github.com/Veraticus/the-ledger-must-balance/internal/model"
	"github.com/shopspring/decimal"
)

type fundingJSON struct {
	Kind model.FundingKind `json:"kind"`
	ID   string            `json:"id"`
}

func (f fundingJSON) model() model.FundingSource {
	return model.FundingSource{Kind: f.Kind, ID: f.ID}
}

type recurrenceRequest struct {
	EndDate     *string         `json:"end_date,omitempty"`
	CategoryID  *string         `json:"category_id,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	Funding     fundingJSON     `json:"funding"`
	ID          string          `json:"id,omitempty"`
	Owner       string          `json:"owner,omitempty"`
	Description string          `json:"description"`
	Type        string          `json:"type"`
	Frequency   string          `json:"frequency"`
	StartDate   string          `json:"start_date"`
}

func (req recurrenceRequest) model() (*model.Recurrence, error) {
	freq, err := model.ParseFrequency(req.Frequency)
	if err != nil {
		return nil, common.InvalidInput("%v", err)
	}
	start, err := parseDay(req.StartDate, "start_date")
	if err != nil {
		return nil, err
	}
	rec := &model.Recurrence{
		ID:          req.ID,
		Owner:       req.Owner,
		Description: req.Description,
		Amount:      req.Amount,
		Type:        model.EntryType(req.Type),
		Frequency:   freq,
		StartDate:   start,
		CategoryID:  req.CategoryID,
		Funding:     req.Funding.model(),
		IsActive:    true,
	}
	if req.EndDate != nil {
		end, err := parseDay(*req.EndDate, "end_date")
		if err != nil {
			return nil, err
		}
		rec.EndDate = &end
	}
	return rec, nil
}

type installmentRequest struct {
	CategoryID          *string         `json:"category_id,omitempty"`
	Amount              decimal.Decimal `json:"amount"`
	Funding             fundingJSON     `json:"funding"`
	Owner               string          `json:"owner,omitempty"`
	Description         string          `json:"description"`
	AmountMode          string          `json:"amount_mode"`
	Frequency           string          `json:"frequency"`
	FirstDate           string          `json:"first_date"`
	StartingInstallment int             `json:"starting_installment"`
	TotalInstallments   int             `json:"total_installments"`
}

func (req installmentRequest) purchase() (ledger.InstallmentPurchase, error) {
	freq, err := model.ParseFrequency(req.Frequency)
	if err != nil {
		return ledger.InstallmentPurchase{}, common.InvalidInput("%v", err)
	}
	first, err := parseDay(req.FirstDate, "first_date")
	if err != nil {
		return ledger.InstallmentPurchase{}, err
	}
	mode := model.AmountMode(req.AmountMode)
	if mode == "" {
		mode = model.AmountTotal
	}
	starting := req.StartingInstallment
	if starting == 0 {
		starting = 1
	}

	p := ledger.InstallmentPurchase{
		Owner:       req.Owner,
		Description: req.Description,
		CategoryID:  req.CategoryID,
		Funding:     req.Funding.model(),
	}
	p.FirstDate = first
	p.Amount = req.Amount
	p.AmountMode = mode
	p.Frequency = freq
	p.StartingInstallment = starting
	p.TotalInstallments = req.TotalInstallments
	return p, nil
}

type transactionRequest struct {
	CategoryID  *string         `json:"category_id,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	Funding     fundingJSON     `json:"funding"`
	Owner       string          `json:"owner,omitempty"`
	Description string          `json:"description"`
	Type        string          `json:"type"`
	Date        string          `json:"date"`
	Status      string          `json:"status,omitempty"`
}

func (req transactionRequest) model() (*model.Occurrence, error) {
	date, err := parseDay(req.Date, "date")
	if err != nil {
		return nil, err
	}
	return &model.Occurrence{
		Owner:       req.Owner,
		Description: req.Description,
		Amount:      req.Amount,
		Type:        model.EntryType(req.Type),
		DueDate:     date,
		Status:      model.OccurrenceStatus(req.Status),
		CategoryID:  req.CategoryID,
		Funding:     req.Funding.model(),
	}, nil
}

type editRequest struct {
	Amount      *decimal.Decimal `json:"amount,omitempty"`
	Description *string          `json:"description,omitempty"`
	CategoryID  *string          `json:"category_id,omitempty"`
	DueDate     *string          `json:"due_date,omitempty"`
}

type occurrenceJSON struct {
	RecurrenceID       *string         `json:"recurrence_id,omitempty"`
	InstallmentGroupID *string         `json:"installment_group_id,omitempty"`
	InstallmentNumber  *int            `json:"installment_number,omitempty"`
	InvoiceID          *string         `json:"invoice_id,omitempty"`
	CategoryID         *string         `json:"category_id,omitempty"`
	Amount             decimal.Decimal `json:"amount"`
	Funding            fundingJSON     `json:"funding"`
	ID                 string          `json:"id"`
	Description        string          `json:"description"`
	Type               string          `json:"type"`
	DueDate            string          `json:"due_date"`
	Status             string          `json:"status"`
}

func occurrenceResponse(o model.Occurrence) occurrenceJSON {
	return occurrenceJSON{
		ID:                 o.ID,
		Description:        o.Description,
		Amount:             o.Amount,
		Type:               string(o.Type),
		DueDate:            o.DueDate.Format(time.DateOnly),
		Status:             string(o.Status),
		RecurrenceID:       o.RecurrenceID,
		InstallmentGroupID: o.InstallmentGroupID,
		InstallmentNumber:  o.InstallmentNumber,
		InvoiceID:          o.InvoiceID,
		CategoryID:         o.CategoryID,
		Funding:            fundingJSON{Kind: o.Funding.Kind, ID: o.Funding.ID},
	}
}

func occurrencesResponse(occs []model.Occurrence) []occurrenceJSON {
	out := make([]occurrenceJSON, len(occs))
	for i := range occs {
		out[i] = occurrenceResponse(occs[i])
	}
	return out
}

type invoiceJSON struct {
	Total          decimal.Decimal  `json:"total"`
	ID             string           `json:"id"`
	CreditCardID   string           `json:"credit_card_id"`
	ReferenceMonth string           `json:"reference_month"`
	ClosingDate    string           `json:"closing_date"`
	DueDate        string           `json:"due_date"`
	PeriodStart    string           `json:"period_start"`
	PeriodEnd      string           `json:"period_end"`
	Status         string           `json:"status"`
	Occurrences    []occurrenceJSON `json:"occurrences"`
}

func invoiceResponse(s *ledger.InvoiceSummary) invoiceJSON {
	return invoiceJSON{
		ID:             s.Invoice.ID,
		CreditCardID:   s.Invoice.CreditCardID,
		ReferenceMonth: s.Invoice.ReferenceMonth.Format("2006-01"),
		ClosingDate:    s.Invoice.ClosingDate.Format(time.DateOnly),
		DueDate:        s.Invoice.DueDate.Format(time.DateOnly),
		PeriodStart:    s.PeriodStart.Format(time.DateOnly),
		PeriodEnd:      s.PeriodEnd.Format(time.DateOnly),
		Status:         string(s.Invoice.Status),
		Total:          s.Total,
		Occurrences:    occurrencesResponse(s.Occurrences),
	}
}

type processJSON struct {
	RecurrenceID   string `json:"recurrence_id"`
	NextOccurrence string `json:"next_occurrence"`
	Created        int    `json:"created"`
}

func processResponse(r ledger.ProcessResult) processJSON {
	return processJSON{
		RecurrenceID:   r.RecurrenceID,
		NextOccurrence: r.NextOccurrence.Format(time.DateOnly),
		Created:        r.Created,
	}
}

func parseDay(s, field string) (time.Time, error) {
	t, err := time.ParseInLocation(time.DateOnly, s, time.UTC)
	if err != nil {
		return time.Time{}, common.InvalidInput("%s must be YYYY-MM-DD, got %q", field, s)
	}
	return t, nil
}
