// Package types defines the data model shared by the dishcalc pipeline:
// recipes and their ingredients, the week plan recovered from a plan
// document, aggregated shopping list entries, locale configuration, and
// the standard error and warning types.
//
// Nothing in this package performs I/O; parsers and engines live under
// internal/ and depend on types, never the other way round.
package types
