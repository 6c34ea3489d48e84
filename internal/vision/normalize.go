package vision

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/aferrand/housetab/internal/models"
)

var fencedJSON = regexp.MustCompile("(?s)```json\\s*(\\{.*?\\})\\s*```")
var embeddedJSON = regexp.MustCompile(`(?s)(\{.*\})`)

// extractJSON pulls a JSON object out of the model's text response. Models
// ignore formatting instructions often enough that we try a direct parse
// first, then a fenced block, then any embedded object.
func extractJSON(raw string) (map[string]any, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return nil, ErrEmptyResponse
	}

	var direct map[string]any
	if err := json.Unmarshal([]byte(text), &direct); err == nil {
		return direct, nil
	}

	if match := fencedJSON.FindStringSubmatch(text); match != nil {
		var fenced map[string]any
		if err := json.Unmarshal([]byte(match[1]), &fenced); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadModelJSON, err)
		}
		return fenced, nil
	}

	if match := embeddedJSON.FindStringSubmatch(text); match != nil {
		var embedded map[string]any
		if err := json.Unmarshal([]byte(match[1]), &embedded); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadModelJSON, err)
		}
		return embedded, nil
	}

	return nil, ErrBadModelJSON
}

func asString(value any) string {
	s, _ := value.(string)
	return s
}

// decodeAnalysis converts the model's raw text answer into an Analysis with
// a normalized category. Numeric fields stay loose here; the API layer runs
// them through models.ParseAmount when building the receipt.
func decodeAnalysis(raw string) (*Analysis, error) {
	parsed, err := extractJSON(raw)
	if err != nil {
		return nil, err
	}

	analysis := &Analysis{
		Vendor:      asString(parsed["vendor"]),
		ReceiptDate: asString(parsed["receipt_date"]),
		Currency:    asString(parsed["currency"]),
		Subtotal:    parsed["subtotal"],
		Tax:         parsed["tax"],
		Tip:         parsed["tip"],
		Total:       parsed["total"],
		RawText:     asString(parsed["raw_text"]),
	}

	if rawItems, ok := parsed["items"].([]any); ok {
		for _, rawItem := range rawItems {
			item, ok := rawItem.(map[string]any)
			if !ok {
				continue
			}
			analysis.Items = append(analysis.Items, models.LooseItem{
				Name:       asString(item["name"]),
				Quantity:   item["quantity"],
				UnitPrice:  item["unit_price"],
				TotalPrice: item["total_price"],
				AssignedTo: asString(item["assigned_to"]),
			})
		}
	}

	analysis.Category = models.NormalizeCategory(asString(parsed["category"]))
	if analysis.Category == models.CategoryOther {
		analysis.Category = InferCategory(analysis)
	}

	return analysis, nil
}

// InferCategory guesses a category from vendor, raw text, and item names
// when the model did not commit to one.
func InferCategory(a *Analysis) string {
	var names []string
	for _, item := range a.Items {
		names = append(names, strings.ToLower(item.Name))
	}
	text := strings.ToLower(a.Vendor) + " " + strings.ToLower(a.RawText) + " " + strings.Join(names, " ")

	if containsAny(text, "tax", "irs", "property tax", "sales tax", "taxes") {
		return models.CategoryTaxes
	}
	if containsAny(text,
		"electric", "water", "gas bill", "internet", "phone bill",
		"utility", "rent", "mortgage", "insurance",
	) {
		return models.CategoryBills
	}
	if containsAny(text,
		"movie", "cinema", "netflix", "spotify", "concert",
		"bar", "pub", "game", "tickets", "entertainment",
	) {
		return models.CategoryEntertainment
	}
	if containsAny(text,
		"grocery", "supermarket", "market", "walmart", "costco",
		"target", "aldi", "trader joe", "whole foods", "safeway", "kroger",
	) {
		return models.CategorySupermarket
	}
	return models.CategoryOther
}

func containsAny(text string, keywords ...string) bool {
	for _, keyword := range keywords {
		if strings.Contains(text, keyword) {
			return true
		}
	}
	return false
}
