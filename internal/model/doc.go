// Package model defines the core data structures shared by the download
// pipeline, the report writers and the history database.
//
// This package contains the following main types:
//   - Outcome: The tagged result of retrieving a single resolved link
//   - RunSummary: Aggregate counts computed once every task has settled
//   - RunReport: Everything collected during one run of the pipeline
//   - Finding: A metadata observation made on a downloaded image
//
// Design decision: Models live in their own package so that pipeline,
// download, report and database can all import them without cycles.
//
// All types are serializable to JSON for report output and database storage.
package model
