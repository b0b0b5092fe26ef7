// Package main provides the entry point for the url-image-downloader CLI.
//
// url-image-downloader fetches one web page, finds every link on it that
// points to an image, and downloads those images concurrently into a local
// directory.
//
// Usage:
//
//	url-image-downloader --web_url https://example.com/gallery --download_directory ./images
//
// Missing values are prompted for. See --help for all available options.
package main

// main is the entry point for url-image-downloader.
func main() {
	Execute()
}
