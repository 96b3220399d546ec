// Package format rewrites the code regions of TwinCAT project files.
//
// The entry point is Format: it classifies the document with the markup
// scanner, pushes every rewritable text region through a fixed pipeline of
// rules, reassembles the byte stream and reports whether anything changed.
// Markup bytes are copied verbatim; a region under xml:space="preserve" is
// never touched. The pass is all-or-nothing: on a malformed document no
// output is produced.
//
// Rules run in a fixed order because later rules rely on invariants the
// earlier ones establish (alignment assumes indentation characters are
// already settled, final-newline assumes trailing whitespace is gone).
// Every rule is idempotent, and so is the pipeline as a whole: formatting
// the output of a successful pass yields an unchanged verdict.
package format
