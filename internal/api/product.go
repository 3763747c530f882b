package api

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/galaxy-store/internal/catalog"
	"github.com/xenking/galaxy-store/internal/domain/product"
)

// listProducts applies the search, sort and category query parameters that
// are present to the catalog filters and returns the filtered view.
func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	if !h.loadCatalog(w, r) {
		return
	}

	q := r.URL.Query()
	if q.Has("sort") {
		key, err := catalog.ParseSortKey(q.Get("sort"))
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.catalog.SetSortBy(key)
	}
	if q.Has("search") {
		h.catalog.SetSearchTerm(q.Get("search"))
	}
	if q.Has("category") {
		h.catalog.SetFilterCategory(q.Get("category"))
	}

	list := h.catalog.Filtered()
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Field("products", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, p := range list {
					encodeProduct(e, p)
				}
			})
		})
		e.Field("count", func(e *jx.Encoder) { e.Int(len(list)) })
		e.Field("filter", h.encodeFilter)
		e.Field("loading", func(e *jx.Encoder) { e.Bool(h.catalog.Loading()) })
		e.Field("error", func(e *jx.Encoder) { e.Str(h.catalog.Err()) })
	})
}

// getFilter reports the filter state, including a search term that is still
// waiting out the debounce window.
func (h *Handler) getFilter(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Field("filter", h.encodeFilter)
	})
}

// typeSearch takes search input as it is typed. The term is applied once
// input has been quiet for the debounce window; until then the previous
// term stays in effect and the response reports it as pending.
func (h *Handler) typeSearch(w http.ResponseWriter, r *http.Request) {
	var (
		term string
		set  bool
	)
	err := readBody(r, func(d *jx.Decoder, key string) error {
		if key != "term" {
			return d.Skip()
		}
		v, err := d.Str()
		term, set = v, true
		return err
	})
	if err != nil || !set {
		writeError(w, http.StatusBadRequest, `body must be {"term": string}`)
		return
	}

	h.catalog.SetSearchTermDebounced(term)
	writeJSON(w, http.StatusAccepted, func(e *jx.Encoder) {
		e.Field("filter", h.encodeFilter)
	})
}

func (h *Handler) encodeFilter(e *jx.Encoder) {
	f := h.catalog.Filter()
	e.Obj(func(e *jx.Encoder) {
		e.Field("search", func(e *jx.Encoder) { e.Str(f.SearchTerm) })
		e.Field("sort", func(e *jx.Encoder) { e.Str(string(f.SortBy)) })
		e.Field("category", func(e *jx.Encoder) { e.Str(f.Category) })
		e.Field("search_pending", func(e *jx.Encoder) { e.Bool(h.catalog.SearchPending()) })
		e.Field("debounce_ms", func(e *jx.Encoder) { e.Int64(h.catalog.SearchDelay().Milliseconds()) })
	})
}

// getProduct serves a loaded product, fetching it from the source when the
// catalog does not have it yet.
func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	raw := r.PathValue("id")
	p, err := h.catalog.Lookup(raw)
	if errors.Is(err, product.ErrNotFound) {
		id, perr := catalog.ParseID(raw)
		if perr != nil {
			writeError(w, http.StatusNotFound, "product not found")
			return
		}
		var ok bool
		if p, ok = h.catalog.LoadByID(r.Context(), id); !ok {
			msg := h.catalog.Err()
			if msg == "" {
				msg = "product not found"
			}
			writeError(w, http.StatusNotFound, msg)
			return
		}
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Field("product", func(e *jx.Encoder) { encodeProduct(e, p) })
	})
}

func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request) {
	if !h.loadCatalog(w, r) {
		return
	}
	categories := h.catalog.Categories()
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Field("categories", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, c := range categories {
					e.Str(c)
				}
			})
		})
		e.Field("selected", func(e *jx.Encoder) { e.Str(h.catalog.FilterCategory()) })
	})
}

// encodeProduct writes p with its display fields.
func encodeProduct(e *jx.Encoder, p product.Product) {
	e.Obj(func(e *jx.Encoder) {
		p.EncodeFields(e)
		e.Field("formatted_price", func(e *jx.Encoder) { e.Str(product.FormatPrice(p.Price)) })
		e.Field("in_stock", func(e *jx.Encoder) { e.Bool(p.InStock()) })
		e.Field("low_stock", func(e *jx.Encoder) { e.Bool(p.LowStock()) })
	})
}
