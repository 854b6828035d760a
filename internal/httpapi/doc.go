// Package httpapi exposes the alignment pipeline over HTTP with gin.
//
// POST /api/align runs one request synchronously and always answers 200 with
// the pipeline result once the body is valid; callers read status from the
// JSON. Run history is served read-only from /api/runs when a history store is
// configured.
package httpapi
