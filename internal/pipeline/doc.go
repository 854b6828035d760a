// Package pipeline runs one forced-alignment request end to end.
//
// A run validates the audio path, normalizes the transcript, writes the
// manifest, blocks on the aligner, and decodes the word CTM files into marks.
// Every run produces exactly one Result; errors never escape Run. Transient
// files are namespaced by a time-ordered run id and removed during cleanup
// whether the run succeeded or not.
//
// Recorders (run history, result publishing) observe finished runs. Their
// failures are logged and never change the Result.
package pipeline
