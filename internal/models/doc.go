// Package models defines the core domain models for settleup.
//
// # Models
//
//   - Group: a set of people sharing expenses in one currency
//   - Member: a person's membership in a group
//   - Expense: money paid by one or more members and allocated across members
//   - Payment: a recorded transfer between two members ("mark as paid")
//
// Balances and suggested settlements are not models: they are derived from
// expenses and payments on every request by the calculator package.
//
// # Design Principles
//
// 1. **Identifiers, not pointers**: relationships use ID strings
// 2. **Soft deletes**: expenses carry DeletedAt so history survives
// 3. **Members are never removed**: leaving a group only deactivates the membership,
//    which keeps balances conserved for people who still owe or are owed money
package models
