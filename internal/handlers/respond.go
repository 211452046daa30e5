package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/diewo77/go-billing/httpx"
	"github.com/diewo77/go-billing/i18n"
	"github.com/diewo77/go-billing/internal/services"
)

// lang picks the response language: ?lang= first, then the lang cookie,
// then Accept-Language.
func lang(r *http.Request) string {
	l := r.URL.Query().Get("lang")
	if l == "" {
		if c, err := r.Cookie("lang"); err == nil {
			l = c.Value
		}
	}
	if l != "fr" && l != "en" {
		l = i18n.DetectLanguage(r.Header.Get("Accept-Language"))
	}
	return l
}

// statusFor maps a failure kind to its HTTP status. Ownership failures look
// like missing resources.
func statusFor(kind services.Kind) int {
	switch kind {
	case services.KindNotFound, services.KindUnauthorized:
		return http.StatusNotFound
	case services.KindUnauthenticated:
		return http.StatusUnauthorized
	case services.KindUnexpected:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	f := services.AsFailure(err)
	l := lang(r)
	status := statusFor(f.Kind)
	if status == http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "message", f.Message, "error", f.Err)
		httpx.JSONError(w, status, i18n.T(l, f.Message), nil)
		return
	}
	httpx.JSONError(w, status, i18n.T(l, f.Message), i18n.Translate(l, f.Errors))
}

func badRequest(w http.ResponseWriter, r *http.Request, code string, details []string) {
	httpx.JSONError(w, http.StatusBadRequest, i18n.T(lang(r), code), details)
}

func ok(w http.ResponseWriter, r *http.Request, status int, msg string, data any) {
	httpx.JSON(w, status, httpx.MessageResponse{Message: i18n.T(lang(r), msg), Data: data})
}

// parseDate accepts YYYY-MM-DD or RFC 3339. A bare date means end of that
// day in UTC so "today" is still in the future.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t.Add(24*time.Hour - time.Second), nil
	}
	return time.Parse(time.RFC3339, s)
}
