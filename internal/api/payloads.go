package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/aferrand/housetab/internal/ledger"
	"github.com/aferrand/housetab/internal/models"
)

const dateLayout = "2006-01-02"

type receiptPayload struct {
	ID          string              `json:"id"`
	UploadedBy  models.MemberCode   `json:"uploaded_by"`
	ExpenseDate string              `json:"expense_date"`
	Vendor      string              `json:"vendor"`
	Currency    string              `json:"currency"`
	Category    string              `json:"category"`
	Subtotal    decimal.NullDecimal `json:"subtotal"`
	Tax         decimal.NullDecimal `json:"tax"`
	Tip         decimal.NullDecimal `json:"tip"`
	Total       decimal.NullDecimal `json:"total"`
	Items       []models.LineItem   `json:"items"`
	RawText     string              `json:"raw_text"`
	Saved       bool                `json:"saved"`
	SettledAt   *time.Time          `json:"settled_at"`
	UploadedAt  time.Time           `json:"uploaded_at"`
}

func toReceiptPayload(r models.Receipt) receiptPayload {
	items := r.Items
	if items == nil {
		items = []models.LineItem{}
	}
	return receiptPayload{
		ID:          r.ID,
		UploadedBy:  r.UploadedBy,
		ExpenseDate: r.ExpenseDate.Format(dateLayout),
		Vendor:      r.Vendor,
		Currency:    r.Currency,
		Category:    r.Category,
		Subtotal:    r.Subtotal,
		Tax:         r.Tax,
		Tip:         r.Tip,
		Total:       r.Total,
		Items:       items,
		RawText:     r.RawText,
		Saved:       r.Saved,
		SettledAt:   r.SettledAt,
		UploadedAt:  r.UploadedAt,
	}
}

func toReceiptPayloads(receipts []models.Receipt) []receiptPayload {
	payloads := make([]receiptPayload, 0, len(receipts))
	for _, r := range receipts {
		payloads = append(payloads, toReceiptPayload(r))
	}
	return payloads
}

type memberBalancePayload struct {
	Paid decimal.Decimal `json:"paid"`
	Owed decimal.Decimal `json:"owed"`
	Net  decimal.Decimal `json:"net"`
}

func toBalancesPayload(b ledger.Balances) map[models.MemberCode]memberBalancePayload {
	payload := make(map[models.MemberCode]memberBalancePayload, 2)
	for _, code := range models.MemberCodes() {
		payload[code] = memberBalancePayload{
			Paid: b.Paid[code],
			Owed: b.Owed[code],
			Net:  b.Net[code],
		}
	}
	return payload
}

type settlementPayload struct {
	Payer     models.MemberCode `json:"payer"`
	PayerName string            `json:"payer_name"`
	Payee     models.MemberCode `json:"payee"`
	PayeeName string            `json:"payee_name"`
	Amount    decimal.Decimal   `json:"amount"`
	Message   string            `json:"message"`
}

func toSettlementPayload(s ledger.Settlement) settlementPayload {
	return settlementPayload{
		Payer:     s.Payer,
		PayerName: s.PayerName,
		Payee:     s.Payee,
		PayeeName: s.PayeeName,
		Amount:    s.Amount,
		Message:   s.Message,
	}
}

type notificationPayload struct {
	Member  models.MemberCode `json:"member_code"`
	User    string            `json:"user"`
	Message string            `json:"message"`
}

type summaryPayload struct {
	Label        string                                `json:"label"`
	Start        string                                `json:"start"`
	End          string                                `json:"end"`
	Totals       map[models.MemberCode]decimal.Decimal `json:"totals"`
	Combined     decimal.Decimal                       `json:"combined"`
	ReceiptCount int                                   `json:"receipt_count"`
}

func toSummaryPayload(s ledger.Summary) summaryPayload {
	return summaryPayload{
		Label:        s.Label,
		Start:        s.Range.Start.Format(dateLayout),
		End:          s.Range.End.Format(dateLayout),
		Totals:       s.Totals,
		Combined:     s.Combined,
		ReceiptCount: s.ReceiptCount,
	}
}

type sessionPayload struct {
	Token      string            `json:"token,omitempty"`
	Household  householdPayload  `json:"household"`
	MemberCode models.MemberCode `json:"member_code"`
	MemberName string            `json:"member_name"`
}

type householdPayload struct {
	ID      string                       `json:"id"`
	Name    string                       `json:"name"`
	Code    string                       `json:"code"`
	Members map[models.MemberCode]string `json:"members"`
}

func toSessionPayload(h *models.Household, member models.MemberCode, token string) sessionPayload {
	return sessionPayload{
		Token: token,
		Household: householdPayload{
			ID:      h.ID,
			Name:    h.Name,
			Code:    h.Code,
			Members: h.MemberNames(),
		},
		MemberCode: member,
		MemberName: h.NameFor(member),
	}
}
