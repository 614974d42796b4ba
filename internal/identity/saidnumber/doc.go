// Package saidnumber validates South African identity numbers and derives the
// attributes encoded in them.
//
// # Layout
//
// An identity number is 13 decimal digits:
//
//	YYMMDD SSSS C A Z
//	│      │    │ │ └─ check digit (Luhn over the first 12 digits)
//	│      │    │ └─── filler, not validated
//	│      │    └───── citizenship: 0 citizen, otherwise permanent resident
//	│      └────────── gender sequence: 0000-4999 female, 5000-9999 male
//	└───────────────── date of birth, two-digit year
//
// # Domain Purity
//
// This package has no I/O, takes no context.Context and never reads the wall
// clock. The century of the birth year is resolved by a CenturyPolicy supplied
// at construction time, so the same Validator always maps the same input to the
// same result.
//
// # Failures
//
// Validate never panics and never returns an error: malformed input yields a
// Result with Valid=false and one of InvalidLength, InvalidDate or
// InvalidChecksum. Parse exposes the same outcome as (Identity, error) for
// callers that prefer error values; the error is always a *ValidationError.
package saidnumber
