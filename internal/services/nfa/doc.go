// Package nfa drives the NeMo forced aligner (tools/nemo_forced_aligner/align.py)
// as a blocking subprocess.
//
// This package handles:
//   - Building the Hydra override arguments for a fixed alignment profile
//     (model, segment separator, ASS subtitle colours)
//   - Running the interpreter with a bounded timeout and capturing stderr
//   - Classifying failures as alignment engine errors
//
// The aligner reads a manifest written by internal/manifest and writes CTM
// files under <output_dir>/ctm/{words,tokens,segments}. Decoding those files
// is internal/ctm's job.
package nfa
