// Command texthighlight aligns transcripts to audio at word level.
//
// The align command runs one request and prints the result JSON on stdout;
// logs go to stderr so the output stays machine readable. serve exposes the
// same pipeline over HTTP. history, prune, doctor, and config cover run
// inspection, work directory maintenance, host readiness, and configuration.
package main
