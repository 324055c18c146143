package middleware

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

// RequestTimeout sets a deadline on each request context. The handler runs
// on the request goroutine and its response is buffered; if the deadline
// passed by the time it returns, the buffered response is dropped and a 504
// is written instead. Handlers see the cancelled context and upstream calls
// made with it abort; nothing is retried. Paths under skipPrefixes keep the
// inbound context and write directly.
func RequestTimeout(timeout time.Duration, skipPrefixes ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			path := c.Request().URL.Path
			for _, p := range skipPrefixes {
				if strings.HasPrefix(path, p) {
					return next(c)
				}
			}

			ctx, cancel := context.WithTimeout(c.Request().Context(), timeout)
			defer cancel()
			c.SetRequest(c.Request().WithContext(ctx))

			res := c.Response()
			orig := res.Writer
			buf := &bufferedWriter{header: orig.Header().Clone()}
			res.Writer = buf
			err := next(c)
			res.Writer = orig

			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				res.Committed, res.Status, res.Size = false, http.StatusOK, 0
				return gatewayTimeoutError(c)
			}
			buf.flushTo(orig)
			return err
		}
	}
}

// bufferedWriter holds a handler's response until the deadline outcome is
// known.
type bufferedWriter struct {
	header http.Header
	body   bytes.Buffer
	code   int
}

func (w *bufferedWriter) Header() http.Header { return w.header }

func (w *bufferedWriter) WriteHeader(code int) {
	if w.code == 0 {
		w.code = code
	}
}

func (w *bufferedWriter) Write(b []byte) (int, error) {
	if w.code == 0 {
		w.code = http.StatusOK
	}
	return w.body.Write(b)
}

func (w *bufferedWriter) flushTo(dst http.ResponseWriter) {
	h := dst.Header()
	for k := range h {
		if _, ok := w.header[k]; !ok {
			delete(h, k)
		}
	}
	for k, v := range w.header {
		h[k] = v
	}
	if w.code == 0 {
		return
	}
	dst.WriteHeader(w.code)
	dst.Write(w.body.Bytes())
}

func gatewayTimeoutError(c echo.Context) error {
	return c.JSON(http.StatusGatewayTimeout, map[string]string{
		"code":    "TIMEOUT",
		"message": "request processing exceeded the allowed time limit",
	})
}
