/*
Package align provides containers for pairwise sequence alignments produced
by readers in this repository (currently the hhr package).

An alignment holds two partially defined records, a coordinate matrix
relating offsets in the two ungapped sequences, and free-form scalar and
per-column annotations. The coordinate representation follows the breakpoint
convention: maximal runs of matched, inserted or deleted columns each
contribute one (target offset, query offset) pair.
*/
package align
