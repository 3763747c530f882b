package httpmiddleware

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
)

var internalErrorBody = func() []byte {
	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("error")
	e.Str("internal server error")
	e.ObjEnd()
	return e.Bytes()
}()

// Recovery converts a panicking handler into a 500 response with the same
// JSON error shape the API uses. Aborted handlers keep unwinding.
func Recovery() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				v := recover()
				if v == nil {
					return
				}
				if err, ok := v.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(v)
				}
				zctx.From(r.Context()).Error("Handler panicked",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Any("panic", v),
					zap.Stack("stack"),
				)
				h := w.Header()
				h.Set("Content-Type", "application/json")
				h.Set("Connection", "close")
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write(internalErrorBody)
			}()
			next.ServeHTTP(w, r)
		})
	}
}
