// Package api exposes the catalog, cart and notification stores to a local
// frontend over HTTP with JSON bodies.
package api

import (
	"context"
	"io"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/galaxy-store/internal/cart"
	"github.com/xenking/galaxy-store/internal/catalog"
	"github.com/xenking/galaxy-store/internal/notify"
)

const maxBodySize = 64 << 10

// Loader makes sure the catalog is loaded before it is read.
type Loader func(ctx context.Context) error

// Option configures a Handler.
type Option func(*Handler)

// WithLoader sets the catalog loader. By default the catalog is loaded on
// first use with Store.LoadAll.
func WithLoader(l Loader) Option {
	return func(h *Handler) { h.ensure = l }
}

// Handler serves the storefront API.
type Handler struct {
	catalog *catalog.Store
	cart    *cart.Store
	notes   *notify.Service
	ensure  Loader
}

// New returns a Handler over the given stores.
func New(c *catalog.Store, ct *cart.Store, n *notify.Service, opts ...Option) *Handler {
	h := &Handler{catalog: c, cart: ct, notes: n}
	h.ensure = func(ctx context.Context) error {
		if len(c.List()) > 0 {
			return nil
		}
		c.LoadAll(ctx)
		if msg := c.Err(); msg != "" {
			return errors.New(msg)
		}
		return nil
	}
	for _, o := range opts {
		o(h)
	}
	return h
}

// Register adds the API routes to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/products", h.listProducts)
	mux.HandleFunc("GET /api/products/{id}", h.getProduct)
	mux.HandleFunc("GET /api/categories", h.listCategories)
	mux.HandleFunc("GET /api/filter", h.getFilter)
	mux.HandleFunc("PUT /api/filter/search", h.typeSearch)
	mux.HandleFunc("GET /api/cart", h.getCart)
	mux.HandleFunc("POST /api/cart/items", h.addItem)
	mux.HandleFunc("PATCH /api/cart/items/{id}", h.updateItem)
	mux.HandleFunc("DELETE /api/cart/items/{id}", h.removeItem)
	mux.HandleFunc("DELETE /api/cart", h.clearCart)
	mux.HandleFunc("POST /api/checkout", h.checkout)
	mux.HandleFunc("GET /api/notification", h.getNotification)
}

func writeJSON(w http.ResponseWriter, code int, body func(e *jx.Encoder)) {
	var e jx.Encoder
	e.Obj(body)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(e.Bytes())
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, func(e *jx.Encoder) {
		e.Field("error", func(e *jx.Encoder) { e.Str(msg) })
	})
}

// readBody decodes a JSON object body, calling fn for every field.
func readBody(r *http.Request, fn func(d *jx.Decoder, key string) error) error {
	b, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		return errors.Wrap(err, "read body")
	}
	return jx.DecodeBytes(b).Obj(fn)
}

func (h *Handler) loadCatalog(w http.ResponseWriter, r *http.Request) bool {
	if err := h.ensure(r.Context()); err != nil {
		zctx.From(r.Context()).Warn("Catalog unavailable", zap.Error(err))
		writeError(w, http.StatusBadGateway, err.Error())
		return false
	}
	return true
}

func (h *Handler) encodeNotification(e *jx.Encoder) {
	n, ok := h.notes.Current()
	if !ok {
		e.Null()
		return
	}
	e.Obj(func(e *jx.Encoder) {
		e.Field("seq", func(e *jx.Encoder) { e.UInt64(n.Seq) })
		e.Field("message", func(e *jx.Encoder) { e.Str(n.Message) })
		e.Field("kind", func(e *jx.Encoder) { e.Str(string(n.Kind)) })
	})
}

func (h *Handler) getNotification(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Field("notification", h.encodeNotification)
	})
}
