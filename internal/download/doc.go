// Package download retrieves resolved links concurrently and writes each
// resource into a local directory.
//
// The Coordinator starts one task per link with no concurrency limit. A
// task ensures the target directory exists, fetches the resource once and
// hands the body to a FileSink. A task never fails the run: every error
// becomes a failed model.Outcome, and the RunResult is only built after
// the last task has settled.
//
// Example:
//
//	coord := download.NewCoordinator(fetcher, download.NewFileSink(),
//	    download.WithObserver(reporter),
//	)
//	result := coord.RunAll(ctx, links, "./images")
//	fmt.Println(result.Summary.Succeeded)
package download
