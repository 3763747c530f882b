package product

import (
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"
)

// Encode writes p as a JSON object.
func (p Product) Encode(e *jx.Encoder) {
	e.Obj(func(e *jx.Encoder) {
		p.EncodeFields(e)
	})
}

// EncodeFields writes the fields of p into an object that is already open.
func (p Product) EncodeFields(e *jx.Encoder) {
	e.Field("id", func(e *jx.Encoder) { e.Int(p.ID) })
	e.Field("name", func(e *jx.Encoder) { e.Str(p.Name) })
	e.Field("price", func(e *jx.Encoder) { e.Num(jx.Num(p.Price.String())) })
	e.Field("category", func(e *jx.Encoder) { e.Str(p.Category) })
	e.Field("stock", func(e *jx.Encoder) { e.Int(p.Stock) })
	e.Field("description", func(e *jx.Encoder) { e.Str(p.Description) })
	e.Field("image", func(e *jx.Encoder) { e.Str(p.Image) })
	e.Field("features", func(e *jx.Encoder) {
		e.Arr(func(e *jx.Encoder) {
			for _, f := range p.Features {
				e.Str(f)
			}
		})
	})
}

// Decode reads a product object. Unknown fields are skipped and a missing
// features list decodes as empty.
func (p *Product) Decode(d *jx.Decoder) error {
	*p = Product{}
	err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		ok, err := p.DecodeField(d, key)
		if err != nil {
			return err
		}
		if !ok {
			return d.Skip()
		}
		return nil
	})
	if err != nil {
		return err
	}
	if p.Features == nil {
		p.Features = []string{}
	}
	return nil
}

// DecodeField decodes the value of key into p. It reports false without
// consuming the value when key is not a product field.
func (p *Product) DecodeField(d *jx.Decoder, key []byte) (bool, error) {
	var err error
	switch string(key) {
	case "id":
		p.ID, err = d.Int()
	case "name":
		p.Name, err = d.Str()
	case "price":
		p.Price, err = DecodePrice(d)
	case "category":
		p.Category, err = d.Str()
	case "stock":
		p.Stock, err = d.Int()
	case "description":
		p.Description, err = decodeOptionalStr(d)
	case "image":
		p.Image, err = decodeOptionalStr(d)
	case "features":
		p.Features, err = decodeStrings(d)
	default:
		return false, nil
	}
	if err != nil {
		return true, errors.Wrapf(err, "decode %q", key)
	}
	return true, nil
}

// DecodePrice reads a price written as a JSON number or a numeric string.
func DecodePrice(d *jx.Decoder) (decimal.Decimal, error) {
	switch d.Next() {
	case jx.String:
		s, err := d.Str()
		if err != nil {
			return decimal.Zero, err
		}
		return decimal.NewFromString(s)
	case jx.Number:
		n, err := d.Num()
		if err != nil {
			return decimal.Zero, err
		}
		return decimal.NewFromString(string(n))
	default:
		return decimal.Zero, errors.Errorf("unexpected price type %s", d.Next())
	}
}

// DecodeList reads a JSON array of products.
func DecodeList(data []byte) ([]Product, error) {
	d := jx.DecodeBytes(data)
	if d.Next() != jx.Array {
		return nil, errors.New("product list is not an array")
	}
	products := []Product{}
	err := d.Arr(func(d *jx.Decoder) error {
		var p Product
		if err := p.Decode(d); err != nil {
			return errors.Wrapf(err, "product %d", len(products))
		}
		products = append(products, p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return products, nil
}

func decodeOptionalStr(d *jx.Decoder) (string, error) {
	if d.Next() == jx.Null {
		return "", d.Null()
	}
	return d.Str()
}

func decodeStrings(d *jx.Decoder) ([]string, error) {
	if d.Next() == jx.Null {
		return []string{}, d.Null()
	}
	out := []string{}
	err := d.Arr(func(d *jx.Decoder) error {
		s, err := d.Str()
		if err != nil {
			return err
		}
		out = append(out, s)
		return nil
	})
	return out, err
}

// EncodeFeatures writes features as a JSON array of strings.
func EncodeFeatures(features []string) []byte {
	var e jx.Encoder
	e.Arr(func(e *jx.Encoder) {
		for _, f := range features {
			e.Str(f)
		}
	})
	return e.Bytes()
}

// DecodeFeatures reads a JSON array of strings. Empty input and null decode
// as an empty list.
func DecodeFeatures(data []byte) ([]string, error) {
	if len(data) == 0 {
		return []string{}, nil
	}
	return decodeStrings(jx.DecodeBytes(data))
}
