/*
Package hhr provides routines for reading (but not writing) hhr files, which
are the output produced by hhsuite's hhsearch and hhblits programs.

The run metadata and the hit list are parsed when a Reader is constructed.
The alignments themselves, with their consensus, secondary structure and
confidence annotation, are assembled lazily: each call to Read consumes just
enough of the input to stitch together the next hit's (possibly wrapped)
alignment blocks and returns it as an align.Alignment.
*/
package hhr
