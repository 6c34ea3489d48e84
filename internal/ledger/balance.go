package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/aferrand/housetab/internal/models"
)

var two = decimal.NewFromInt(2)

// Balances holds the per-member totals computed over a set of receipts.
// Positive net means the member is owed money, negative means they owe.
type Balances struct {
	Paid map[models.MemberCode]decimal.Decimal
	Owed map[models.MemberCode]decimal.Decimal
	Net  map[models.MemberCode]decimal.Decimal
}

func zeroTotals() map[models.MemberCode]decimal.Decimal {
	return map[models.MemberCode]decimal.Decimal{
		models.MemberOne: decimal.Zero,
		models.MemberTwo: decimal.Zero,
	}
}

// ItemAmount resolves the dollar amount of one line item: the stated total
// price when present, else quantity times unit price, else zero.
func ItemAmount(item models.LineItem) decimal.Decimal {
	if item.TotalPrice.Valid {
		return models.RoundCents(item.TotalPrice.Decimal)
	}
	if item.Quantity.Valid && item.UnitPrice.Valid {
		return models.RoundCents(item.Quantity.Decimal.Mul(item.UnitPrice.Decimal))
	}
	return decimal.Zero
}

// EffectiveTotal derives the authoritative amount for a receipt: the stated
// total when present, else the itemized sum when positive, else
// subtotal + tax + tip with absent fields treated as zero.
func EffectiveTotal(r models.Receipt) decimal.Decimal {
	if r.Total.Valid {
		return models.RoundCents(r.Total.Decimal)
	}

	itemsTotal := decimal.Zero
	for _, item := range r.Items {
		itemsTotal = itemsTotal.Add(ItemAmount(item))
	}
	if itemsTotal.IsPositive() {
		return models.RoundCents(itemsTotal)
	}

	computed := orZero(r.Subtotal).Add(orZero(r.Tax)).Add(orZero(r.Tip))
	return models.RoundCents(computed)
}

func orZero(d decimal.NullDecimal) decimal.Decimal {
	if !d.Valid {
		return decimal.Zero
	}
	return d.Decimal
}

// SplitShared divides a shared amount between the two members: the first
// share is half rounded to the cent, the second is the exact remainder.
// The shares sum back to amount even when it has an odd cent.
func SplitShared(amount decimal.Decimal) (first, second decimal.Decimal) {
	first = models.RoundCents(amount.Div(two))
	second = amount.Sub(first)
	return first, second
}

// ComputeBalances aggregates a set of receipts into per-member paid, owed,
// and net totals.
//
// For each receipt:
//   - the uploader's paid total grows by the receipt's effective total
//   - each positively priced item adds to the owed total of its assignee,
//     or splits between both members when shared
//   - whatever part of the effective total the items do not cover (unparsed
//     items, a manual total with no items, rounding) splits between both
//     members the same way
//
// Every cent of every effective total lands in exactly one or both owed
// totals, so sum(paid) == sum(owed) over any receipt set.
func ComputeBalances(receipts []models.Receipt) Balances {
	paid := zeroTotals()
	owed := zeroTotals()

	for _, r := range receipts {
		total := EffectiveTotal(r)
		covered := decimal.Zero

		for _, item := range r.Items {
			amount := ItemAmount(item)
			if !amount.IsPositive() {
				continue
			}
			covered = covered.Add(amount)

			switch item.AssignedTo {
			case models.AssignedMemberOne:
				owed[models.MemberOne] = owed[models.MemberOne].Add(amount)
			case models.AssignedMemberTwo:
				owed[models.MemberTwo] = owed[models.MemberTwo].Add(amount)
			default:
				half, rest := SplitShared(amount)
				owed[models.MemberOne] = owed[models.MemberOne].Add(half)
				owed[models.MemberTwo] = owed[models.MemberTwo].Add(rest)
			}
		}

		paid[r.UploadedBy] = paid[r.UploadedBy].Add(total)

		if remainder := total.Sub(covered); !remainder.IsZero() {
			half, rest := SplitShared(remainder)
			owed[models.MemberOne] = owed[models.MemberOne].Add(half)
			owed[models.MemberTwo] = owed[models.MemberTwo].Add(rest)
		}
	}

	net := zeroTotals()
	for _, code := range models.MemberCodes() {
		net[code] = models.RoundCents(paid[code].Sub(owed[code]))
	}

	return Balances{Paid: paid, Owed: owed, Net: net}
}

// SumByMember totals each member's effective receipt spend, ignoring item
// assignments. Month summaries use this for the "who spent what" view.
func SumByMember(receipts []models.Receipt) map[models.MemberCode]decimal.Decimal {
	totals := zeroTotals()
	for _, r := range receipts {
		totals[r.UploadedBy] = totals[r.UploadedBy].Add(EffectiveTotal(r))
	}
	for _, code := range models.MemberCodes() {
		totals[code] = models.RoundCents(totals[code])
	}
	return totals
}
