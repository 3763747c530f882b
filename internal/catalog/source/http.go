package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/xenking/galaxy-store/internal/catalog"
	"github.com/xenking/galaxy-store/internal/domain/product"
)

const (
	// DefaultBaseURL is the public DummyJSON API.
	DefaultBaseURL = "https://dummyjson.com"
	// DefaultLimit is the number of products requested per list or search.
	DefaultLimit = 30

	placeholderImage = "https://via.placeholder.com/600x400"
	listFields       = "id,title,price,category,stock,thumbnail,description,images,brand,rating,warrantyInformation"
)

var (
	_ catalog.Source   = (*HTTP)(nil)
	_ catalog.Getter   = (*HTTP)(nil)
	_ catalog.Searcher = (*HTTP)(nil)
)

// HTTPConfig configures the DummyJSON source.
type HTTPConfig struct {
	BaseURL string
	Limit   int
	Timeout time.Duration
	// Transport overrides the base round tripper. It is still wrapped by
	// otelhttp.
	Transport http.RoundTripper
}

// HTTP fetches products from a DummyJSON compatible API and converts them
// to the storefront product model.
type HTTP struct {
	base   string
	limit  int
	client *http.Client
}

// NewHTTP returns an HTTP source.
func NewHTTP(cfg HTTPConfig) *HTTP {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Limit <= 0 {
		cfg.Limit = DefaultLimit
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	base := cfg.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	return &HTTP{
		base:  cfg.BaseURL,
		limit: cfg.Limit,
		client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(base),
		},
	}
}

// List fetches the first page of products.
func (h *HTTP) List(ctx context.Context) ([]product.Product, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(h.limit))
	q.Set("select", listFields)

	body, err := h.get(ctx, "/products", q)
	if err != nil {
		return nil, errors.Wrap(err, "list products")
	}
	return decodeProductPage(body, false)
}

// Get fetches one product with detailed feature lines.
func (h *HTTP) Get(ctx context.Context, id int) (product.Product, error) {
	body, err := h.get(ctx, "/products/"+strconv.Itoa(id), nil)
	if err != nil {
		return product.Product{}, errors.Wrapf(err, "get product %d", id)
	}
	p, err := decodeRemoteProduct(jx.DecodeBytes(body), true)
	if err != nil {
		return product.Product{}, errors.Wrapf(err, "decode product %d", id)
	}
	return p, nil
}

// Search runs a server side search.
func (h *HTTP) Search(ctx context.Context, query string) ([]product.Product, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("limit", strconv.Itoa(h.limit))

	body, err := h.get(ctx, "/products/search", q)
	if err != nil {
		return nil, errors.Wrapf(err, "search %q", query)
	}
	return decodeProductPage(body, false)
}

func (h *HTTP) get(ctx context.Context, path string, q url.Values) ([]byte, error) {
	u := h.base + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, errors.Wrap(err, "create request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "do request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "read body")
	}
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, product.ErrNotFound
	case resp.StatusCode != http.StatusOK:
		return nil, errors.Errorf("unexpected status %d", resp.StatusCode)
	}
	return body, nil
}

func decodeProductPage(body []byte, detailed bool) ([]product.Product, error) {
	products := []product.Product{}
	err := jx.DecodeBytes(body).ObjBytes(func(d *jx.Decoder, key []byte) error {
		if string(key) != "products" {
			return d.Skip()
		}
		return d.Arr(func(d *jx.Decoder) error {
			p, err := decodeRemoteProduct(d, detailed)
			if err != nil {
				return err
			}
			products = append(products, p)
			return nil
		})
	})
	if err != nil {
		return nil, errors.Wrap(err, "decode product page")
	}
	return products, nil
}

// remoteProduct mirrors the DummyJSON product fields the storefront uses.
type remoteProduct struct {
	product.Product
	brand    string
	rating   float64
	warranty string
	images   []string
	width    float64
	height   float64
	depth    float64
	weight   float64
}

func decodeRemoteProduct(d *jx.Decoder, detailed bool) (product.Product, error) {
	var r remoteProduct
	err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		if d.Next() == jx.Null {
			return d.Null()
		}
		var err error
		switch string(key) {
		case "id":
			r.ID, err = d.Int()
		case "title":
			r.Name, err = d.Str()
		case "price":
			r.Price, err = product.DecodePrice(d)
		case "category":
			r.Category, err = d.Str()
		case "stock":
			r.Stock, err = d.Int()
		case "description":
			r.Description, err = d.Str()
		case "thumbnail":
			r.Image, err = d.Str()
		case "images":
			err = d.Arr(func(d *jx.Decoder) error {
				s, err := d.Str()
				r.images = append(r.images, s)
				return err
			})
		case "brand":
			r.brand, err = d.Str()
		case "rating":
			r.rating, err = d.Float64()
		case "warrantyInformation":
			r.warranty, err = d.Str()
		case "weight":
			r.weight, err = d.Float64()
		case "dimensions":
			err = d.ObjBytes(func(d *jx.Decoder, key []byte) error {
				var v float64
				var err error
				if v, err = d.Float64(); err != nil {
					return err
				}
				switch string(key) {
				case "width":
					r.width = v
				case "height":
					r.height = v
				case "depth":
					r.depth = v
				}
				return nil
			})
		default:
			return d.Skip()
		}
		if err != nil {
			return errors.Wrapf(err, "decode %q", key)
		}
		return nil
	})
	if err != nil {
		return product.Product{}, err
	}
	return r.toProduct(detailed), nil
}

func (r remoteProduct) toProduct(detailed bool) product.Product {
	p := r.Product
	if p.Image == "" {
		p.Image = placeholderImage
		if len(r.images) > 0 && r.images[0] != "" {
			p.Image = r.images[0]
		}
	}

	brand := orDefault(r.brand, "Generic")
	rating := "N/A"
	if r.rating != 0 {
		rating = formatFloat(r.rating)
	}
	p.Features = []string{
		"Brand: " + brand,
		"Category: " + p.Category,
		"Rating: " + rating + "/5",
		fmt.Sprintf("Stock: %d units available", p.Stock),
		"Warranty: " + orDefault(r.warranty, "Standard warranty"),
	}
	if detailed {
		p.Features = append(p.Features,
			fmt.Sprintf("Dimensions: %s x %s x %s cm", dimension(r.width), dimension(r.height), dimension(r.depth)),
			"Weight: "+dimension(r.weight)+" kg",
		)
	}
	return p
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func dimension(v float64) string {
	if v == 0 {
		return "N/A"
	}
	return formatFloat(v)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
