// Package ssa lowers an inferred semantic graph into basic blocks.
//
// Values are never named: an operand is a constant, the result of an earlier
// instruction of the same block, or the argument of the block itself. The
// only way a value crosses a block boundary is as the argument of a jump, so
// every jump into an interior block carries the lexical environment that is
// live at that point, packed into one record. The target block unpacks it
// again with field instructions. Zero-sized entries are not carried; with
// nothing to carry the argument degenerates to unit.
package ssa
