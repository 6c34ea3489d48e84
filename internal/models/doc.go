// Package models defines the core domain models for housetab.
//
// # Models
//
//   - Household: a fixed pair of members sharing expenses, identified by a
//     short join code and protected by a passcode
//   - Receipt: an uploaded or manually entered expense with optional line items
//   - LineItem: a single line on a receipt, assignable to one member or shared
//   - Notification: a message delivered to one household member
//
// # Design Principles
//
//  1. **Two fixed members**: every household has exactly two members, addressed
//     by the stable codes MemberOne ("user_1") and MemberTwo ("user_2").
//     Display names live on the household, never on receipts.
//  2. **Money is decimal**: all monetary fields use shopspring/decimal with
//     two fraction digits. Optional amounts are decimal.NullDecimal, so an
//     absent value is distinguishable from zero.
//  3. **Normalize once at the boundary**: line items arriving from the vision
//     model or from API clients are normalized (NormalizeItems, ParseAmount)
//     before they reach the ledger; the arithmetic never re-validates.
package models
