package logging

import (
	"net/http"
	"time"

	"github.com/blakewilliams/sitehop/pkg/logfilter"
)

type logger interface {
	Printf(format string, v ...interface{})
}

type ResponseWrapper struct {
	responseWriter http.ResponseWriter
	StatusCode     int
}

func (rw *ResponseWrapper) Header() http.Header {
	return rw.responseWriter.Header()
}

func (rw *ResponseWrapper) Write(p []byte) (int, error) {
	return rw.responseWriter.Write(p)
}

func (rw *ResponseWrapper) WriteHeader(statusCode int) {
	rw.StatusCode = statusCode
	rw.responseWriter.WriteHeader(statusCode)
}

// Middleware logs every request with its status and duration. The `url`
// query parameter of candidate lookups is logged through lf so that the
// visited page is redacted like any other query value.
func Middleware(l logger, lf logfilter.Filter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			safeUrl := lf.FilterURL(r.URL)

			l.Printf("Handling %s %s", r.Method, safeUrl)

			wrapper := &ResponseWrapper{responseWriter: w, StatusCode: http.StatusOK}
			next.ServeHTTP(wrapper, r)

			l.Printf("Rendered %d in %dms for %s %s", wrapper.StatusCode, time.Since(start).Milliseconds(), r.Method, safeUrl)
		})
	}
}
