package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/galaxy-store/internal/cart"
	"github.com/xenking/galaxy-store/internal/catalog"
	"github.com/xenking/galaxy-store/internal/domain/product"
)

func (h *Handler) encodeCart(e *jx.Encoder) {
	items := h.cart.Items()
	over := make(map[int]struct{})
	for _, li := range h.cart.Overstocked() {
		over[li.ID] = struct{}{}
	}
	total := h.cart.Total()

	e.Obj(func(e *jx.Encoder) {
		e.Field("items", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, li := range items {
					_, overstocked := over[li.ID]
					e.Obj(func(e *jx.Encoder) {
						li.Product.EncodeFields(e)
						e.Field("quantity", func(e *jx.Encoder) { e.Int(li.Quantity) })
						e.Field("subtotal", func(e *jx.Encoder) { e.Num(jx.Num(li.Subtotal().StringFixed(2))) })
						e.Field("formatted_subtotal", func(e *jx.Encoder) { e.Str(product.FormatPrice(li.Subtotal())) })
						e.Field("overstocked", func(e *jx.Encoder) { e.Bool(overstocked) })
					})
				}
			})
		})
		e.Field("count", func(e *jx.Encoder) { e.Int(h.cart.Count()) })
		e.Field("total", func(e *jx.Encoder) { e.Num(jx.Num(total.StringFixed(2))) })
		e.Field("formatted_total", func(e *jx.Encoder) { e.Str(product.FormatPrice(total)) })
	})
}

// writeCart responds with the cart and the current notification.
func (h *Handler) writeCart(w http.ResponseWriter, code int) {
	writeJSON(w, code, func(e *jx.Encoder) {
		e.Field("cart", h.encodeCart)
		e.Field("notification", h.encodeNotification)
	})
}

func (h *Handler) getCart(w http.ResponseWriter, _ *http.Request) {
	h.writeCart(w, http.StatusOK)
}

// addItem adds one unit of the product named by {"id": n}. A rejected add
// responds 409 with the cart unchanged.
func (h *Handler) addItem(w http.ResponseWriter, r *http.Request) {
	var id int
	err := readBody(r, func(d *jx.Decoder, key string) error {
		if key != "id" {
			return d.Skip()
		}
		v, err := d.Int()
		id = v
		return err
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !h.loadCatalog(w, r) {
		return
	}

	var target *product.Product
	if p, ok := h.catalog.GetByID(id); ok {
		target = &p
	}
	if !h.cart.Add(r.Context(), target) {
		h.writeCart(w, http.StatusConflict)
		return
	}
	h.writeCart(w, http.StatusOK)
}

// updateItem sets the quantity from {"quantity": n} or {"quantity": "raw"};
// strings are parsed like form input.
func (h *Handler) updateItem(w http.ResponseWriter, r *http.Request) {
	id, ok := h.lineID(w, r)
	if !ok {
		return
	}

	var (
		raw string
		set bool
	)
	err := readBody(r, func(d *jx.Decoder, key string) error {
		if key != "quantity" {
			return d.Skip()
		}
		set = true
		switch d.Next() {
		case jx.String:
			v, err := d.Str()
			raw = v
			return err
		case jx.Number:
			v, err := d.Int()
			raw = strconv.Itoa(v)
			return err
		default:
			return errors.New("quantity must be a number or a string")
		}
	})
	if err != nil || !set {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	h.cart.UpdateQuantityInput(r.Context(), id, raw)
	h.writeCart(w, http.StatusOK)
}

// removeItem is idempotent: removing a product that is not in the cart
// answers with the unchanged cart.
func (h *Handler) removeItem(w http.ResponseWriter, r *http.Request) {
	id, err := catalog.ParseID(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "item not in cart")
		return
	}
	h.cart.Remove(r.Context(), id)
	h.writeCart(w, http.StatusOK)
}

func (h *Handler) clearCart(w http.ResponseWriter, r *http.Request) {
	h.cart.Clear(r.Context())
	h.writeCart(w, http.StatusOK)
}

// lineID resolves the {id} path segment to a line item in the cart.
func (h *Handler) lineID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := catalog.ParseID(r.PathValue("id"))
	if err == nil {
		for _, li := range h.cart.Items() {
			if li.ID == id {
				return id, true
			}
		}
	}
	writeError(w, http.StatusNotFound, "item not in cart")
	return 0, false
}

func (h *Handler) checkout(w http.ResponseWriter, r *http.Request) {
	receipt, ok := h.cart.Checkout(r.Context())
	if !ok {
		h.writeCart(w, http.StatusConflict)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Field("receipt", func(e *jx.Encoder) { encodeReceipt(e, receipt) })
		e.Field("notification", h.encodeNotification)
	})
}

func encodeReceipt(e *jx.Encoder, r *cart.Receipt) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(r.ID.String()) })
		e.Field("lines", func(e *jx.Encoder) { e.Int(len(r.Items)) })
		e.Field("total", func(e *jx.Encoder) { e.Num(jx.Num(r.Total.StringFixed(2))) })
		e.Field("formatted_total", func(e *jx.Encoder) { e.Str(product.FormatPrice(r.Total)) })
		e.Field("created_at", func(e *jx.Encoder) { e.Str(r.CreatedAt.UTC().Format(time.RFC3339)) })
	})
}
