package api

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/aferrand/housetab/internal/middleware"
	"github.com/aferrand/housetab/internal/models"
	"github.com/aferrand/housetab/internal/vision"
)

// parseMoney coerces a loose numeric value and rounds it to cents. Junk
// input becomes absent rather than an error.
func parseMoney(value any) decimal.NullDecimal {
	parsed := models.ParseAmount(value)
	if parsed.Valid {
		parsed.Decimal = models.RoundCents(parsed.Decimal)
	}
	return parsed
}

// analyzeReceipts accepts one or more receipt images as multipart form data
// under the "images" field, runs each through the vision model, and stores
// the results as unsaved drafts for the member to review.
func (h *Handler) analyzeReceipts(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		respondError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	var files []*multipart.FileHeader
	if r.MultipartForm != nil {
		files = r.MultipartForm.File["images"]
	}
	if len(files) == 0 {
		respondError(w, http.StatusBadRequest, "at least one image is required under the images field")
		return
	}

	images := make([][]byte, len(files))
	mimeTypes := make([]string, len(files))
	for i, header := range files {
		data, err := readUpload(header)
		if err != nil {
			respondError(w, http.StatusBadRequest, fmt.Sprintf("failed to read upload %q", header.Filename))
			return
		}

		prepared, mimeType, err := vision.PrepareImage(data, header.Header.Get("Content-Type"), h.maxImageBytes)
		if err != nil {
			if errors.Is(err, vision.ErrImageTooLarge) {
				respondError(w, http.StatusBadRequest, err.Error())
				return
			}
			respondError(w, http.StatusBadRequest, fmt.Sprintf("failed to prepare image %q", header.Filename))
			return
		}
		images[i] = prepared
		mimeTypes[i] = mimeType
	}

	// Fan the images out to the model with bounded concurrency. Each image
	// knows its position in the batch so the model treats them as separate
	// receipts.
	analyses := make([]*vision.Analysis, len(images))
	g, ctx := errgroup.WithContext(r.Context())
	g.SetLimit(h.analyzeBurst)
	for i := range images {
		g.Go(func() error {
			hint := vision.BulkHint{Index: i + 1, Total: len(images)}
			analysis, err := h.analyzer.Analyze(ctx, images[i], mimeTypes[i], hint)
			if err != nil {
				return fmt.Errorf("failed to analyze image %d: %w", i+1, err)
			}
			analyses[i] = analysis
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		slog.Error("receipt analysis failed", "error", err)
		respondError(w, http.StatusBadGateway, "failed to analyze receipt image")
		return
	}

	member := middleware.GetMemberCode(r.Context())
	householdID := middleware.GetHouseholdID(r.Context())

	receipts := make([]models.Receipt, 0, len(analyses))
	for _, analysis := range analyses {
		receipt := h.receiptFromAnalysis(analysis, householdID, member)
		if err := h.store.CreateReceipt(r.Context(), &receipt); err != nil {
			respondStoreError(w, err, "store receipt")
			return
		}
		receipts = append(receipts, receipt)
	}

	slog.Info("receipts analyzed", "household_id", householdID, "count", len(receipts))
	respondJSON(w, http.StatusCreated, map[string]any{"receipts": toReceiptPayloads(receipts)})
}

func readUpload(header *multipart.FileHeader) ([]byte, error) {
	file, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return io.ReadAll(file)
}

func (h *Handler) receiptFromAnalysis(a *vision.Analysis, householdID string, member models.MemberCode) models.Receipt {
	expenseDate, ok := vision.ParseReceiptDate(a.ReceiptDate)
	if !ok {
		expenseDate = h.now().UTC()
	}

	return models.Receipt{
		HouseholdID: householdID,
		UploadedBy:  member,
		ExpenseDate: expenseDate,
		Vendor:      strings.TrimSpace(a.Vendor),
		Currency:    strings.ToUpper(strings.TrimSpace(a.Currency)),
		Category:    a.Category,
		Subtotal:    parseMoney(a.Subtotal),
		Tax:         parseMoney(a.Tax),
		Tip:         parseMoney(a.Tip),
		Total:       parseMoney(a.Total),
		Items:       models.NormalizeLoose(a.Items),
		RawText:     a.RawText,
		Saved:       false,
	}
}

type manualExpenseRequest struct {
	Vendor      string             `json:"vendor"`
	ExpenseDate string             `json:"expense_date"`
	Currency    string             `json:"currency"`
	Category    string             `json:"category"`
	Subtotal    any                `json:"subtotal"`
	Tax         any                `json:"tax"`
	Tip         any                `json:"tip"`
	Total       any                `json:"total"`
	Items       []models.LooseItem `json:"items"`
	Notes       string             `json:"notes"`
}

// createManualExpense records an expense entered by hand. Manual expenses
// skip the draft stage and are saved immediately.
func (h *Handler) createManualExpense(w http.ResponseWriter, r *http.Request) {
	var req manualExpenseRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	total := parseMoney(req.Total)
	if !total.Valid {
		respondError(w, http.StatusBadRequest, "total is required")
		return
	}

	subtotal := parseMoney(req.Subtotal)
	if !subtotal.Valid {
		subtotal = total
	}

	expenseDate, ok := vision.ParseReceiptDate(req.ExpenseDate)
	if !ok {
		expenseDate = h.now().UTC()
	}

	receipt := models.Receipt{
		HouseholdID: middleware.GetHouseholdID(r.Context()),
		UploadedBy:  middleware.GetMemberCode(r.Context()),
		ExpenseDate: expenseDate,
		Vendor:      strings.TrimSpace(req.Vendor),
		Currency:    strings.ToUpper(strings.TrimSpace(req.Currency)),
		Category:    models.NormalizeCategory(req.Category),
		Subtotal:    subtotal,
		Tax:         parseMoney(req.Tax),
		Tip:         parseMoney(req.Tip),
		Total:       total,
		Items:       models.NormalizeLoose(req.Items),
		RawText:     req.Notes,
		Saved:       true,
	}

	if err := h.store.CreateReceipt(r.Context(), &receipt); err != nil {
		respondStoreError(w, err, "store expense")
		return
	}

	slog.Info("manual expense recorded", "household_id", receipt.HouseholdID, "receipt_id", receipt.ID)
	respondJSON(w, http.StatusCreated, toReceiptPayload(receipt))
}

// listReceipts returns every receipt for the household, drafts included,
// newest expense first.
func (h *Handler) listReceipts(w http.ResponseWriter, r *http.Request) {
	receipts, err := h.store.ListReceipts(r.Context(), middleware.GetHouseholdID(r.Context()))
	if err != nil {
		respondStoreError(w, err, "list receipts")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"receipts": toReceiptPayloads(receipts)})
}

type itemAssignment struct {
	Index      int    `json:"index"`
	AssignedTo string `json:"assigned_to"`
}

type updateItemsRequest struct {
	Items []itemAssignment `json:"items"`
}

// updateReceiptItems applies index-addressed assignment changes to a
// receipt's line items and finalizes the receipt.
func (h *Handler) updateReceiptItems(w http.ResponseWriter, r *http.Request) {
	var req updateItemsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	householdID := middleware.GetHouseholdID(r.Context())
	receiptID := chi.URLParam(r, "receiptID")

	receipt, err := h.store.GetReceipt(r.Context(), householdID, receiptID)
	if err != nil {
		respondStoreError(w, err, "load receipt")
		return
	}

	for _, update := range req.Items {
		if update.Index < 0 || update.Index >= len(receipt.Items) {
			respondError(w, http.StatusBadRequest, fmt.Sprintf("item index %d out of range", update.Index))
			return
		}
		receipt.Items[update.Index].AssignedTo = models.Assignment(update.AssignedTo)
	}
	receipt.Items = models.NormalizeItems(receipt.Items)
	receipt.Saved = true

	if err := h.store.UpdateReceiptItems(r.Context(), householdID, receiptID, receipt.Items, true); err != nil {
		respondStoreError(w, err, "update receipt items")
		return
	}

	respondJSON(w, http.StatusOK, toReceiptPayload(*receipt))
}
