// Package diag carries non-fatal findings from the formatting and sorting
// tools back to the CLI. Scan failures are Go errors; everything a pass can
// report while still producing output (corrections applied, lines skipped
// as ambiguous) flows through a Bag of Diagnostics.
package diag
