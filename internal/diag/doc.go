// Package diag holds the diagnostic model shared by every compiler phase.
//
// Phases never print. They report through a Reporter (usually a BagReporter
// backed by a Bag) using the fluent ReportBuilder:
//
//	diag.ReportError(r, diag.SemaTypeMismatch, span, "expected u32, found bool").
//		WithNote(other, "type fixed here").
//		Emit()
//
// Rendering lives in internal/diagfmt.
package diag
