package vision

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math/rand"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/aferrand/housetab/internal/models"
)

func mustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal literal %q: %v", s, err)
	}
	return d
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		wantVendor string
		wantErr    error
	}{
		{
			name:       "plain object",
			raw:        `{"vendor": "Aldi"}`,
			wantVendor: "Aldi",
		},
		{
			name:       "fenced block",
			raw:        "Here you go:\n```json\n{\"vendor\": \"Costco\"}\n```\nLet me know!",
			wantVendor: "Costco",
		},
		{
			name:       "embedded object with chatter",
			raw:        `Sure! The extracted data is {"vendor": "Target"} as requested.`,
			wantVendor: "Target",
		},
		{
			name:    "empty response",
			raw:     "   \n  ",
			wantErr: ErrEmptyResponse,
		},
		{
			name:    "no json at all",
			raw:     "I could not read this receipt, sorry.",
			wantErr: ErrBadModelJSON,
		},
		{
			name:    "broken fenced json",
			raw:     "```json\n{\"vendor\": \n```",
			wantErr: ErrBadModelJSON,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed, err := extractJSON(tt.raw)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("extractJSON() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("extractJSON() error = %v", err)
			}
			if got := parsed["vendor"]; got != tt.wantVendor {
				t.Errorf("vendor = %v, want %v", got, tt.wantVendor)
			}
		})
	}
}

func TestDecodeAnalysis(t *testing.T) {
	raw := `{
		"vendor": "Whole Foods",
		"receipt_date": "2026-02-10",
		"currency": "USD",
		"category": "Supermarket",
		"subtotal": 41.5,
		"tax": "3.32",
		"tip": null,
		"total": 44.82,
		"items": [
			{"name": "Milk", "quantity": 2, "unit_price": 3.5, "total_price": 7.0},
			{"name": "Bread", "quantity": "one", "unit_price": null, "total_price": 4.25},
			"not an object"
		],
		"raw_text": "WHOLE FOODS MARKET..."
	}`

	analysis, err := decodeAnalysis(raw)
	if err != nil {
		t.Fatalf("decodeAnalysis() error = %v", err)
	}

	if analysis.Vendor != "Whole Foods" {
		t.Errorf("Vendor = %q, want Whole Foods", analysis.Vendor)
	}
	if analysis.Category != models.CategorySupermarket {
		t.Errorf("Category = %q, want %q", analysis.Category, models.CategorySupermarket)
	}
	if len(analysis.Items) != 2 {
		t.Fatalf("len(Items) = %d, want 2", len(analysis.Items))
	}

	// Junk quantity should survive decoding and fall out as absent when the
	// items are normalized into line items.
	items := models.NormalizeLoose(analysis.Items)
	if items[1].Quantity.Valid {
		t.Errorf("junk quantity should normalize to absent, got %v", items[1].Quantity)
	}
	if !items[0].TotalPrice.Valid || !items[0].TotalPrice.Decimal.Equal(mustDecimal(t, "7.0")) {
		t.Errorf("TotalPrice = %v, want 7.0", items[0].TotalPrice)
	}
}

func TestDecodeAnalysisFallsBackToInference(t *testing.T) {
	raw := `{"vendor": "Pacific Electric Co", "category": "something weird", "raw_text": "monthly utility statement"}`

	analysis, err := decodeAnalysis(raw)
	if err != nil {
		t.Fatalf("decodeAnalysis() error = %v", err)
	}
	if analysis.Category != models.CategoryBills {
		t.Errorf("Category = %q, want %q", analysis.Category, models.CategoryBills)
	}
}

func TestInferCategory(t *testing.T) {
	tests := []struct {
		name string
		a    Analysis
		want string
	}{
		{
			name: "taxes beat everything",
			a:    Analysis{Vendor: "County Treasurer", RawText: "property tax payment"},
			want: models.CategoryTaxes,
		},
		{
			name: "utility vendor",
			a:    Analysis{Vendor: "City Water Dept"},
			want: models.CategoryBills,
		},
		{
			name: "streaming subscription",
			a:    Analysis{Vendor: "Netflix"},
			want: models.CategoryEntertainment,
		},
		{
			name: "grocery item names",
			a: Analysis{Vendor: "Corner Shop", Items: []models.LooseItem{
				{Name: "Trader Joe Granola"},
			}},
			want: models.CategorySupermarket,
		},
		{
			name: "nothing matches",
			a:    Analysis{Vendor: "Bob's Hardware", RawText: "2x plywood sheet"},
			want: models.CategoryOther,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := InferCategory(&tt.a); got != tt.want {
				t.Errorf("InferCategory() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseReceiptDate(t *testing.T) {
	tests := []struct {
		raw    string
		want   time.Time
		wantOK bool
	}{
		{"2026-02-10", time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC), true},
		{"02/10/2026", time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC), true},
		{"02/10/26", time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC), true},
		{"2026/02/10", time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC), true},
		{"  2026-02-10  ", time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC), true},
		{"", time.Time{}, false},
		{"yesterday", time.Time{}, false},
		{"2026-13-45", time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := ParseReceiptDate(tt.raw)
			if ok != tt.wantOK {
				t.Fatalf("ParseReceiptDate(%q) ok = %v, want %v", tt.raw, ok, tt.wantOK)
			}
			if ok && !got.Equal(tt.want) {
				t.Errorf("ParseReceiptDate(%q) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestPrepareImage(t *testing.T) {
	pngData := encodeTestPNG(t)

	t.Run("decodable image becomes jpeg", func(t *testing.T) {
		data, mime, err := PrepareImage(pngData, "image/png", 1<<20)
		if err != nil {
			t.Fatalf("PrepareImage() error = %v", err)
		}
		if mime != "image/jpeg" {
			t.Errorf("mime = %q, want image/jpeg", mime)
		}
		if len(data) == 0 {
			t.Error("prepared image is empty")
		}
	})

	t.Run("undecodable data passes through", func(t *testing.T) {
		raw := []byte("definitely not an image")
		data, mime, err := PrepareImage(raw, "image/heic", 1<<20)
		if err != nil {
			t.Fatalf("PrepareImage() error = %v", err)
		}
		if !bytes.Equal(data, raw) {
			t.Error("undecodable payload should be returned unchanged")
		}
		if mime != "image/heic" {
			t.Errorf("mime = %q, want image/heic", mime)
		}
	})

	t.Run("oversized upload rejected early", func(t *testing.T) {
		huge := make([]byte, 100)
		if _, _, err := PrepareImage(huge, "image/jpeg", 10); !errors.Is(err, ErrImageTooLarge) {
			t.Errorf("error = %v, want ErrImageTooLarge", err)
		}
	})

	t.Run("still too large after preparation", func(t *testing.T) {
		if _, _, err := PrepareImage(pngData, "image/png", 16); !errors.Is(err, ErrImageTooLarge) {
			t.Errorf("error = %v, want ErrImageTooLarge", err)
		}
	})
}

func TestPrepareImageDownscalesOversizedPhoto(t *testing.T) {
	original := encodeNoiseJPEG(t, 3200, 2400)

	data, mime, err := PrepareImage(original, "image/jpeg", 64<<20)
	if err != nil {
		t.Fatalf("PrepareImage() error = %v", err)
	}
	if mime != "image/jpeg" {
		t.Errorf("mime = %q, want image/jpeg", mime)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("failed to decode prepared image: %v", err)
	}
	bounds := img.Bounds()
	if bounds.Dx() != 1600 || bounds.Dy() != 1200 {
		t.Errorf("prepared size = %dx%d, want 1600x1200", bounds.Dx(), bounds.Dy())
	}
}

func TestPrepareImageFitsOnlyAfterDownscale(t *testing.T) {
	original := encodeNoiseJPEG(t, 3200, 2400)

	// A limit the upload itself exceeds: without the downscale this photo
	// could only be rejected, with it the quarter-pixel-count re-encode
	// comes in well under the limit.
	maxBytes := int64(len(original)) - 1

	data, _, err := PrepareImage(original, "image/jpeg", maxBytes)
	if err != nil {
		t.Fatalf("PrepareImage() error = %v", err)
	}
	if int64(len(data)) > maxBytes {
		t.Errorf("prepared size %d exceeds limit %d", len(data), maxBytes)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("failed to decode prepared image: %v", err)
	}
	if got := img.Bounds().Dx(); got != 1600 {
		t.Errorf("prepared width = %d, want 1600", got)
	}
}

// encodeNoiseJPEG builds an incompressible photo-sized test image so the
// encoded size tracks the pixel count.
func encodeNoiseJPEG(t *testing.T, width, height int) []byte {
	t.Helper()
	rng := rand.New(rand.NewSource(1))
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for i := range img.Pix {
		img.Pix[i] = uint8(rng.Intn(256))
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		t.Fatalf("failed to encode test jpeg: %v", err)
	}
	return buf.Bytes()
}

func encodeTestPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 32, 32))
	for x := 0; x < 32; x++ {
		for y := 0; y < 32; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 8), G: uint8(y * 8), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode test png: %v", err)
	}
	return buf.Bytes()
}
