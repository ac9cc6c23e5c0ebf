// Package core provides the business logic for supplier offer analysis.
//
// This package holds all domain logic independent of any UI or transport
// layer. It can be used by web handlers, CLI tools, or tests without
// modification.
//
// # Pipeline
//
// A processing run turns uploaded offer files into enriched offer records:
//
//  1. Each file is decoded into sheets by the tabular package (xlsx, xls or CSV)
//  2. [JoinOffers] locates the selected price column in every sheet, keeps rows
//     with a non-empty, non-zero price and looks their code up in the
//     [ReferenceIndex]
//  3. Results are merged in file order, then sheet order, then row order
//  4. [FilterOffers] narrows the merged list by active ingredient and
//     presentation, case-insensitively
//
// Files are decoded in parallel, bounded by [RunLimiter] across runs and by
// the configured worker count within a run. A file that fails to decode is
// reported in its [FileReport] and does not stop the others.
//
// # Sessions
//
// [Service] keeps each user's uploads and last run in a [Session] held by an
// in-memory [SessionStore]. Every change produces a new Session value that
// replaces the stored one; idle sessions expire after the configured TTL.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each error category has a unique code for support reference:
//
//   - FILE001-FILE006: File errors (size, count, format, encoding)
//   - REF001-REF002: Reference catalogue errors
//   - SES001-SES002: Session errors (not found, capacity)
//   - PROC001-PROC003: Processing errors (busy, timeout, cancelled)
//   - REQ001-REQ002: Request errors (export format, bad input)
package core
