// Package textutil provides transcript text processing for the alignment
// pipeline.
//
// NormalizeTranscript turns raw transcript text into the single-line form the
// aligner tokenizer expects. Line breaks are not discarded: they are encoded
// as "/nn" sentinels so downstream renderers can rebuild paragraph structure
// from the aligned words, and explicit "<p>" hints are expanded into real
// double line breaks.
package textutil
