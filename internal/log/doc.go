// Package log builds the application's slog loggers.
//
// Every logger returned here wraps its handler in a SecureHandler, which
// masks credentials before they are written:
//   - attributes named like secrets (authorization, cookie, token, ...)
//   - values that look like bearer, basic or JWT credentials
//   - passwords and signing parameters inside logged URLs, such as the
//     X-Amz-Signature of a pre-signed image link
//
// Usage:
//
//	logger := log.NewSecureLogger(os.Stderr, verbose)
//	slog.SetDefault(logger)
package log
