// Package pipeline runs a download as a sequence of steps acting on one
// model.RunReport.
//
// The default order is:
//
//	page      fetch the page and derive its origin
//	discover  extract, filter and resolve links
//	download  retrieve every link concurrently
//	metadata  inspect saved images for EXIF tags (optional)
//
// A step that fails stops the pipeline unless WithContinueOnError is set.
// Failures of individual downloads are not step failures; they are
// recorded as outcomes.
package pipeline
