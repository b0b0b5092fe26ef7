// Package progress prints the user-facing messages of a run: the number
// of images found, a live [completed/total] counter, one notice per failed
// file and the completion line.
//
// Example output:
//
//	Found 10 Images in the provided url.
//	[4/10] Unable to download file img4.png
//	[10/10]
//	Download completed. check ./images folder for downloaded images.
package progress
