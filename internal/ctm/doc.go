// Package ctm decodes the aligner's word-level CTM output into timing marks.
//
// A CTM line is whitespace separated: utterance id, channel, start seconds,
// duration seconds, token, and optional trailing fields. Only the first five
// positions are read. Lines with fewer fields, unparsable or negative timings,
// blank placeholder tokens, and tokens that are empty once sub-word markers
// are stripped are skipped without error.
//
// Multiple files are decoded by a bounded worker pool. Each worker fills its
// own slot and the slots are merged once, then stably sorted by start time so
// callers always receive marks in chronological order.
package ctm
