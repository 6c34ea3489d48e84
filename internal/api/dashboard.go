package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/aferrand/housetab/internal/ledger"
	"github.com/aferrand/housetab/internal/middleware"
	"github.com/aferrand/housetab/internal/models"
)

const defaultCurrency = "USD"

// pickCurrency returns the first non-empty currency across the receipt
// groups, in priority order, falling back to USD.
func pickCurrency(groups ...[]models.Receipt) string {
	for _, receipts := range groups {
		for _, r := range receipts {
			if r.Currency != "" {
				return r.Currency
			}
		}
	}
	return defaultCurrency
}

// dashboard assembles the landing view: month summaries, live balances over
// the open receipts, the recommended settlement, notifications, and the most
// recent expenses.
func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	householdID := middleware.GetHouseholdID(ctx)

	household, err := h.store.GetHousehold(ctx, householdID)
	if err != nil {
		respondStoreError(w, err, "load household")
		return
	}

	today := h.now().UTC()
	current := ledger.CurrentMonthRange(today)
	previous := ledger.PreviousMonthRange(today)

	currentReceipts, err := h.store.ListSavedReceipts(ctx, householdID, current.Start, current.End)
	if err != nil {
		respondStoreError(w, err, "load receipts")
		return
	}
	previousReceipts, err := h.store.ListSavedReceipts(ctx, householdID, previous.Start, previous.End)
	if err != nil {
		respondStoreError(w, err, "load receipts")
		return
	}
	openReceipts, err := h.store.ListOpenReceipts(ctx, householdID, current.Start, current.End)
	if err != nil {
		respondStoreError(w, err, "load receipts")
		return
	}

	names := household.MemberNames()
	balances := ledger.ComputeBalances(openReceipts)
	settlement := ledger.PlanSettlement(balances, names)
	currency := pickCurrency(openReceipts, currentReceipts)

	notifications, err := h.dashboardNotifications(ctx, householdID, openReceipts, settlement, currency, names)
	if err != nil {
		respondStoreError(w, err, "load notifications")
		return
	}

	recent, err := h.recentReceipts(ctx, householdID, 4)
	if err != nil {
		respondStoreError(w, err, "load receipts")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"current_month":   toSummaryPayload(ledger.Summarize(currentReceipts, current)),
		"previous_month":  toSummaryPayload(ledger.Summarize(previousReceipts, previous)),
		"balances":        toBalancesPayload(balances),
		"settlement":      toSettlementPayload(settlement),
		"notifications":   notifications,
		"recent_receipts": toReceiptPayloads(recent),
		"currency":        currency,
	})
}

// dashboardNotifications returns the live settlement pair while the period
// has open receipts. Once everything is settled it surfaces the latest
// stored notification per member instead, so members still see the outcome
// of the last settlement.
func (h *Handler) dashboardNotifications(
	ctx context.Context,
	householdID string,
	openReceipts []models.Receipt,
	settlement ledger.Settlement,
	currency string,
	names map[models.MemberCode]string,
) ([]notificationPayload, error) {
	live := ledger.BuildNotifications(settlement, currency, names)

	payloads := make([]notificationPayload, 0, len(live))
	if len(openReceipts) > 0 {
		for _, m := range live {
			payloads = append(payloads, notificationPayload{Member: m.Member, User: m.User, Message: m.Message})
		}
		return payloads, nil
	}

	stored, err := h.store.LatestNotifications(ctx, householdID)
	if err != nil {
		return nil, err
	}
	for _, m := range live {
		message := m.Message
		if latest, ok := stored[m.Member]; ok {
			message = latest.Message
		}
		payloads = append(payloads, notificationPayload{Member: m.Member, User: m.User, Message: message})
	}
	return payloads, nil
}

func (h *Handler) recentReceipts(ctx context.Context, householdID string, limit int) ([]models.Receipt, error) {
	all, err := h.store.ListReceipts(ctx, householdID)
	if err != nil {
		return nil, err
	}
	recent := make([]models.Receipt, 0, limit)
	for _, receipt := range all {
		if !receipt.Saved {
			continue
		}
		recent = append(recent, receipt)
		if len(recent) == limit {
			break
		}
	}
	return recent, nil
}

// expenses returns the spending overview: current month, previous month, and
// a six month trend, oldest month first.
func (h *Handler) expenses(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	householdID := middleware.GetHouseholdID(ctx)

	today := h.now().UTC()
	months := ledger.TrailingMonthRanges(today, 6)

	receipts, err := h.store.ListSavedReceipts(ctx, householdID, months[0].Start, months[len(months)-1].End)
	if err != nil {
		respondStoreError(w, err, "load receipts")
		return
	}

	trend := make([]summaryPayload, 0, len(months))
	for _, month := range months {
		trend = append(trend, toSummaryPayload(ledger.Summarize(receipts, month)))
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"current_month":  toSummaryPayload(ledger.Summarize(receipts, ledger.CurrentMonthRange(today))),
		"previous_month": toSummaryPayload(ledger.Summarize(receipts, ledger.PreviousMonthRange(today))),
		"trend":          trend,
	})
}

// settle closes the current month: it computes the settlement over the open
// receipts, marks them settled, and writes a completion notification for
// each member, all in one storage transaction.
func (h *Handler) settle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	householdID := middleware.GetHouseholdID(ctx)

	household, err := h.store.GetHousehold(ctx, householdID)
	if err != nil {
		respondStoreError(w, err, "load household")
		return
	}

	today := h.now().UTC()
	current := ledger.CurrentMonthRange(today)

	openReceipts, err := h.store.ListOpenReceipts(ctx, householdID, current.Start, current.End)
	if err != nil {
		respondStoreError(w, err, "load receipts")
		return
	}
	if len(openReceipts) == 0 {
		respondError(w, http.StatusBadRequest, "no open receipts to settle")
		return
	}

	names := household.MemberNames()
	balances := ledger.ComputeBalances(openReceipts)
	settlement := ledger.PlanSettlement(balances, names)
	currency := pickCurrency(openReceipts)
	messages := ledger.SettlementCompletedMessages(settlement, currency)

	notifications := make([]models.Notification, 0, 2)
	payloads := make([]notificationPayload, 0, 2)
	for _, code := range models.MemberCodes() {
		notifications = append(notifications, models.Notification{
			HouseholdID: householdID,
			MemberCode:  code,
			Message:     messages[code],
		})
		payloads = append(payloads, notificationPayload{Member: code, User: names[code], Message: messages[code]})
	}

	if err := h.store.SettlePeriod(ctx, householdID, current.Start, current.End, today, notifications); err != nil {
		respondStoreError(w, err, "settle period")
		return
	}

	slog.Info("period settled",
		"household_id", householdID,
		"receipts", len(openReceipts),
		"amount", settlement.Amount.StringFixed(2),
	)
	respondJSON(w, http.StatusOK, map[string]any{
		"settlement":       toSettlementPayload(settlement),
		"notifications":    payloads,
		"settled_receipts": len(openReceipts),
	})
}
