package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/aferrand/housetab/internal/models"
)

// Settlement is the single recommended transfer that squares both members'
// net balances. A zero-amount settlement carries empty payer/payee codes and
// the balanced message.
type Settlement struct {
	Payer     models.MemberCode
	PayerName string
	Payee     models.MemberCode
	PayeeName string
	Amount    decimal.Decimal
	Message   string
}

// MemberMessage is notification text addressed to one member.
type MemberMessage struct {
	Member  models.MemberCode
	User    string
	Message string
}

const (
	balancedMessage  = "No transfer needed. Spending is currently balanced."
	settledUpMessage = "You are all settled up for the current month."
)

func balancedSettlement() Settlement {
	return Settlement{Amount: decimal.Zero, Message: balancedMessage}
}

// PlanSettlement determines who pays whom. The member with the lower net
// balance pays the member with the higher one; the amount is the smaller of
// the payee's credit and the payer's debt, which equalizes the pair when the
// balances are a zero-sum pair and guards against residual skew when they
// are not. Zero or negative transfers collapse to the balanced settlement.
func PlanSettlement(balances Balances, names map[models.MemberCode]string) Settlement {
	netOne := balances.Net[models.MemberOne]
	netTwo := balances.Net[models.MemberTwo]

	if netOne.IsZero() && netTwo.IsZero() {
		return balancedSettlement()
	}

	var payer, payee models.MemberCode
	var amount decimal.Decimal
	if netOne.GreaterThan(netTwo) {
		payer, payee = models.MemberTwo, models.MemberOne
		amount = decimal.Min(netOne, netTwo.Abs())
	} else {
		payer, payee = models.MemberOne, models.MemberTwo
		amount = decimal.Min(netTwo, netOne.Abs())
	}

	amount = models.RoundCents(amount)
	if !amount.IsPositive() {
		return balancedSettlement()
	}

	payerName := names[payer]
	payeeName := names[payee]
	return Settlement{
		Payer:     payer,
		PayerName: payerName,
		Payee:     payee,
		PayeeName: payeeName,
		Amount:    amount,
		Message:   fmt.Sprintf("%s should pay %s %s.", payerName, payeeName, amount.StringFixed(2)),
	}
}

// BuildNotifications produces the notification pair for a planned
// settlement: a payment-due message for the payer and an incoming-payment
// message for the payee, or an identical settled-up message for both when
// nothing is owed.
func BuildNotifications(s Settlement, currency string, names map[models.MemberCode]string) []MemberMessage {
	if !s.Amount.IsPositive() {
		return []MemberMessage{
			{Member: models.MemberOne, User: names[models.MemberOne], Message: settledUpMessage},
			{Member: models.MemberTwo, User: names[models.MemberTwo], Message: settledUpMessage},
		}
	}

	amount := s.Amount.StringFixed(2)
	return []MemberMessage{
		{
			Member:  s.Payer,
			User:    s.PayerName,
			Message: fmt.Sprintf("Payment due: send %s %s to %s.", amount, currency, s.PayeeName),
		},
		{
			Member:  s.Payee,
			User:    s.PayeeName,
			Message: fmt.Sprintf("Incoming payment: receive %s %s from %s.", amount, currency, s.PayerName),
		},
	}
}

// SettlementCompletedMessages returns the per-member notification texts
// written when a settlement closes a period.
func SettlementCompletedMessages(s Settlement, currency string) map[models.MemberCode]string {
	messages := make(map[models.MemberCode]string, 2)

	if !s.Amount.IsPositive() {
		for _, code := range models.MemberCodes() {
			messages[code] = "Settlement completed: No payment was required."
		}
		return messages
	}

	amount := s.Amount.StringFixed(2)
	for _, code := range models.MemberCodes() {
		if code == s.Payer {
			messages[code] = fmt.Sprintf("Settlement completed: You paid %s %s to %s.", amount, currency, s.PayeeName)
		} else {
			messages[code] = fmt.Sprintf("Settlement completed: You received %s %s from %s.", amount, currency, s.PayerName)
		}
	}
	return messages
}
