// Package models defines the core domain models for Tally.
//
// # Models
//
//   - User: a member of an expense group, identified by a generated UUID
//   - Expense: one recorded transaction with its per-user share breakdown
//   - Settlement: a direct payment between two members that reduces both
//     of their balances
//
// # Design Principles
//
//  1. **Identity by id**: users are compared by ID only, never by name or
//     email. Display names are a presentation concern.
//  2. **Immutability after acceptance**: once an expense is accepted into a
//     group it is never mutated and never deleted; it is part of the group's
//     permanent history.
//  3. **Avoid circular references**: models reference each other by ID
//     strings, never by pointers.
//
// Balance bookkeeping does not live here — the ledger package owns the
// authoritative user→balance map and is its sole mutator.
package models
