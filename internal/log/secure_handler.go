package log

import (
	"context"
	"io"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
)

// MaskValue replaces sensitive values.
const MaskValue = "***REDACTED***"

// sensitiveKeys are attribute keys whose values are always masked.
// Configured request headers are logged under their own names, so the
// common credential headers are listed here.
var sensitiveKeys = map[string]bool{
	"authorization":       true,
	"proxy-authorization": true,
	"cookie":              true,
	"set-cookie":          true,
	"x-api-key":           true,
	"x-auth-token":        true,
	"password":            true,
	"secret":              true,
	"token":               true,
	"api_key":             true,
	"apikey":              true,
	"access_token":        true,
	"session":             true,
	"session_id":          true,
	"credentials":         true,
}

// sensitiveKeywords mark a key as sensitive when contained in it.
// The bare word "key" is excluded because it matches names like "monkey".
var sensitiveKeywords = []string{
	"password", "passwd", "secret", "token", "auth", "credential", "cookie",
}

// sensitiveQueryParams are URL query parameters masked inside URL values.
// Signed image links (S3, CloudFront, GCS) carry their credentials here.
var sensitiveQueryParams = map[string]bool{
	"token":                true,
	"access_token":         true,
	"auth":                 true,
	"key":                  true,
	"api_key":              true,
	"apikey":               true,
	"sig":                  true,
	"signature":            true,
	"x-amz-signature":      true,
	"x-amz-credential":     true,
	"x-amz-security-token": true,
	"x-goog-signature":     true,
	"x-goog-credential":    true,
	"policy":               true,
	"key-pair-id":          true,
}

// sensitivePatterns mask a string value regardless of its key.
var sensitivePatterns = []*regexp.Regexp{
	// JWT
	regexp.MustCompile(`^eyJ[A-Za-z0-9_-]*\.eyJ[A-Za-z0-9_-]*\.[A-Za-z0-9_-]*$`),
	regexp.MustCompile(`(?i)^bearer\s+.+`),
	regexp.MustCompile(`(?i)^basic\s+[A-Za-z0-9+/=]+$`),
	// AWS access key ID
	regexp.MustCompile(`^AKIA[0-9A-Z]{16}$`),
}

// SecureHandler wraps an slog.Handler and masks sensitive attribute values
// before they reach the wrapped handler. URL-shaped values keep their
// scheme, host and path while credentials in the userinfo or query string
// are masked.
type SecureHandler struct {
	handler slog.Handler
}

// NewSecureHandler wraps handler. A nil handler uses slog.Default().Handler().
func NewSecureHandler(handler slog.Handler) *SecureHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	return &SecureHandler{handler: handler}
}

// Enabled delegates to the wrapped handler.
func (h *SecureHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle sanitizes the record's attributes and forwards it.
func (h *SecureHandler) Handle(ctx context.Context, r slog.Record) error {
	sanitized := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		sanitized.AddAttrs(sanitizeAttr(a))
		return true
	})
	return h.handler.Handle(ctx, sanitized)
}

// WithAttrs returns a handler with the sanitized attributes added.
func (h *SecureHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	sanitized := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		sanitized[i] = sanitizeAttr(a)
	}
	return &SecureHandler{handler: h.handler.WithAttrs(sanitized)}
}

// WithGroup returns a handler with the given group name.
func (h *SecureHandler) WithGroup(name string) slog.Handler {
	return &SecureHandler{handler: h.handler.WithGroup(name)}
}

// sanitizeAttr masks a single attribute, recursing into groups.
func sanitizeAttr(a slog.Attr) slog.Attr {
	a.Value = a.Value.Resolve()

	if a.Value.Kind() == slog.KindGroup {
		group := a.Value.Group()
		sanitized := make([]slog.Attr, len(group))
		for i, ga := range group {
			sanitized[i] = sanitizeAttr(ga)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(sanitized...)}
	}

	if isSensitiveKey(a.Key) {
		return slog.String(a.Key, MaskValue)
	}

	switch a.Value.Kind() {
	case slog.KindString:
		s := a.Value.String()
		if isSensitiveValue(s) {
			return slog.String(a.Key, MaskValue)
		}
		if strings.Contains(s, "://") {
			return slog.String(a.Key, SanitizeURLs(s))
		}
	case slog.KindAny:
		// Errors from net/http embed the request URL in their text.
		if err, ok := a.Value.Any().(error); ok && strings.Contains(err.Error(), "://") {
			return slog.String(a.Key, SanitizeURLs(err.Error()))
		}
	}

	return a
}

// isSensitiveKey reports whether an attribute key names a secret.
func isSensitiveKey(key string) bool {
	key = strings.ToLower(key)
	if sensitiveKeys[key] {
		return true
	}
	for _, kw := range sensitiveKeywords {
		if strings.Contains(key, kw) {
			return true
		}
	}
	return false
}

// isSensitiveValue reports whether a value matches a secret pattern.
func isSensitiveValue(value string) bool {
	for _, p := range sensitivePatterns {
		if p.MatchString(value) {
			return true
		}
	}
	return false
}

// urlPattern finds http(s) URLs inside free text.
var urlPattern = regexp.MustCompile(`https?://[^\s"'<>]+`)

// SanitizeURLs masks credentials in every http(s) URL found in s.
func SanitizeURLs(s string) string {
	return urlPattern.ReplaceAllStringFunc(s, sanitizeURL)
}

// sanitizeURL masks userinfo passwords and sensitive query values of one URL.
// Unparseable input is returned unchanged.
func sanitizeURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	changed := false
	if u.User != nil {
		if _, hasPassword := u.User.Password(); hasPassword {
			u.User = url.UserPassword(u.User.Username(), MaskValue)
			changed = true
		}
	}

	if u.RawQuery != "" {
		q := u.Query()
		for name := range q {
			if sensitiveQueryParams[strings.ToLower(name)] {
				q.Set(name, MaskValue)
				changed = true
			}
		}
		if changed {
			u.RawQuery = q.Encode()
		}
	}

	if !changed {
		return raw
	}
	return u.String()
}

// NewSecureLogger returns a text logger writing to w through a
// SecureHandler. The level is Warn, or Debug when verbose is set.
func NewSecureLogger(w io.Writer, verbose bool) *slog.Logger {
	return slog.New(NewSecureHandler(slog.NewTextHandler(w, handlerOptions(verbose))))
}

// NewSecureJSONLogger is NewSecureLogger with JSON output.
func NewSecureJSONLogger(w io.Writer, verbose bool) *slog.Logger {
	return slog.New(NewSecureHandler(slog.NewJSONHandler(w, handlerOptions(verbose))))
}

func handlerOptions(verbose bool) *slog.HandlerOptions {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return &slog.HandlerOptions{Level: level}
}
