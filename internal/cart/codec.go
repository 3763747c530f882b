package cart

import (
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
)

// Encode writes the line item as the product object plus a quantity field.
func (li LineItem) Encode(e *jx.Encoder) {
	e.Obj(func(e *jx.Encoder) {
		li.Product.EncodeFields(e)
		e.Field("quantity", func(e *jx.Encoder) { e.Int(li.Quantity) })
	})
}

// Decode reads a line item object.
func (li *LineItem) Decode(d *jx.Decoder) error {
	*li = LineItem{}
	err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		if string(key) == "quantity" {
			q, err := d.Int()
			if err != nil {
				return errors.Wrap(err, "decode quantity")
			}
			li.Quantity = q
			return nil
		}
		ok, err := li.Product.DecodeField(d, key)
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
	if li.Features == nil {
		li.Features = []string{}
	}
	return nil
}

// lines is the persisted form of the cart: a JSON array of line items.
type lines []LineItem

func (l lines) Encode(e *jx.Encoder) {
	e.Arr(func(e *jx.Encoder) {
		for _, li := range l {
			li.Encode(e)
		}
	})
}

// decodeLines reads a persisted cart. Anything but an array of line items
// is an error.
func decodeLines(raw jx.Raw) (lines, error) {
	d := jx.DecodeBytes(raw)
	if d.Next() != jx.Array {
		return nil, errors.Errorf("cart payload is %s, not an array", d.Next())
	}
	out := lines{}
	err := d.Arr(func(d *jx.Decoder) error {
		var li LineItem
		if err := li.Decode(d); err != nil {
			return errors.Wrapf(err, "line item %d", len(out))
		}
		out = append(out, li)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// normalize drops repeated IDs, keeping the first occurrence, and clamps
// quantities into the valid range.
func (l lines) normalize() lines {
	seen := make(map[int]struct{}, len(l))
	out := make(lines, 0, len(l))
	for _, li := range l {
		if _, ok := seen[li.ID]; ok {
			continue
		}
		seen[li.ID] = struct{}{}
		li.Quantity = ClampQuantity(li.Quantity)
		out = append(out, li)
	}
	return out
}
