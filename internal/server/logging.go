package server

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/hashicorp/go-hclog"
)

// redactedParams are query parameters that carry credentials.
var redactedParams = []string{"token"}

// requestLogger attaches logger to the request context so handlers can log
// with the request id.
func requestLogger(logger hclog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := hclog.WithContext(r.Context(), logger, "request_id", middleware.GetReqID(r.Context()))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// accessLogger writes chi's access log line for every request through out.
// Credentials in the query string are masked in the logged URL only.
func accessLogger(out middleware.LoggerInterface) func(http.Handler) http.Handler {
	return middleware.RequestLogger(&redactingFormatter{
		next: &middleware.DefaultLogFormatter{Logger: out, NoColor: true},
	})
}

func newAccessLog(logger hclog.Logger) middleware.LoggerInterface {
	return logger.Named("http").StandardLogger(&hclog.StandardLoggerOptions{ForceLevel: hclog.Info})
}

type redactingFormatter struct {
	next middleware.LogFormatter
}

func (f *redactingFormatter) NewLogEntry(r *http.Request) middleware.LogEntry {
	return f.next.NewLogEntry(redactRequest(r))
}

func redactRequest(r *http.Request) *http.Request {
	query := r.URL.Query()
	changed := false
	for _, param := range redactedParams {
		if query.Has(param) {
			query.Set(param, "REDACTED")
			changed = true
		}
	}
	if !changed {
		return r
	}

	clone := r.Clone(r.Context())
	clone.URL.RawQuery = query.Encode()
	clone.RequestURI = clone.URL.RequestURI()
	return clone
}
