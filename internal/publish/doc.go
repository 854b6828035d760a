// Package publish uploads finished run results to S3.
//
// Each run is written as <prefix><run_id>.json containing the same JSON the
// CLI prints, plus run metadata in object metadata headers. Publishing is an
// observer of the pipeline: an upload failure is logged by the caller and never
// turns a successful alignment into a failed one.
package publish
