// Package workspace owns the transient work directory shared by pipeline runs.
//
// Each run derives its manifest path and aligner output directory from its
// run id, so concurrent runs never touch the same files. Long-lived processes
// hold a shared lock on the workspace while pruning takes it exclusively, which
// keeps maintenance from deleting files out from under an active run.
package workspace
