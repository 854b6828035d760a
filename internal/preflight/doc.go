// Package preflight provides readiness checks for the aligner runtime and the
// filesystem paths texthighlight depends on.
//
// The doctor command runs RunAll and prints each Result. The serve command
// runs the same checks once at startup and logs failures as warnings so a
// misconfigured host is visible before the first request fails.
package preflight
