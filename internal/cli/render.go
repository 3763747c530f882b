package cli

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xenking/galaxy-store/internal/cart"
	"github.com/xenking/galaxy-store/internal/domain/product"
	"github.com/xenking/galaxy-store/internal/notify"
)

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

// RenderProducts prints products as a table.
func RenderProducts(w io.Writer, list []product.Product) error {
	if len(list) == 0 {
		_, err := fmt.Fprintln(w, "No products found.")
		return err
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tPRICE\tSTOCK")
	for _, p := range list {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", p.ID, p.Name, p.Category, product.FormatPrice(p.Price), p.StockLabel())
	}
	return tw.Flush()
}

// RenderProduct prints the details of p.
func RenderProduct(w io.Writer, p product.Product) error {
	tw := newTable(w)
	fmt.Fprintf(tw, "%s (#%d)\n", p.Name, p.ID)
	fmt.Fprintf(tw, "Price:\t%s\n", product.FormatPrice(p.Price))
	fmt.Fprintf(tw, "Category:\t%s\n", p.Category)
	fmt.Fprintf(tw, "Stock:\t%s\n", p.StockLabel())
	if p.Image != "" {
		fmt.Fprintf(tw, "Image:\t%s\n", p.Image)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if p.Description != "" {
		fmt.Fprintf(w, "\n%s\n", p.Description)
	}
	if len(p.Features) > 0 {
		fmt.Fprint(w, "\nFeatures:\n")
		for _, f := range p.Features {
			fmt.Fprintf(w, "  - %s\n", f)
		}
	}
	return nil
}

// RenderCategories prints one category per line.
func RenderCategories(w io.Writer, categories []string) error {
	for _, c := range categories {
		if _, err := fmt.Fprintln(w, c); err != nil {
			return err
		}
	}
	return nil
}

// RenderCart prints the line items, the unit count and the total. Items in
// over are flagged as exceeding the available stock.
func RenderCart(w io.Writer, items, over []cart.LineItem, total decimal.Decimal) error {
	if len(items) == 0 {
		_, err := fmt.Fprintln(w, cart.MsgEmpty+".")
		return err
	}

	flagged := make(map[int]bool, len(over))
	for _, li := range over {
		flagged[li.ID] = true
	}

	count := 0
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tNAME\tQTY\tPRICE\tSUBTOTAL")
	for _, li := range items {
		count += li.Quantity
		qty := strconv.Itoa(li.Quantity)
		if flagged[li.ID] {
			qty += "!"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
			li.ID, li.Name, qty, product.FormatPrice(li.Price), product.FormatPrice(li.Subtotal()))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(w, "\nItems: %d\nTotal: %s\n", count, product.FormatPrice(total))
	if len(over) > 0 {
		fmt.Fprintln(w, cart.MsgOverstocked)
	}
	return nil
}

// RenderNotification prints n with its kind.
func RenderNotification(w io.Writer, n notify.Notification) error {
	_, err := fmt.Fprintf(w, "[%s] %s\n", n.Kind, n.Message)
	return err
}

// RenderReceipt prints a checkout receipt.
func RenderReceipt(w io.Writer, r *cart.Receipt) error {
	tw := newTable(w)
	fmt.Fprintf(tw, "Receipt:\t%s\n", r.ID)
	fmt.Fprintf(tw, "Date:\t%s\n", r.CreatedAt.UTC().Format(time.RFC3339))
	fmt.Fprintf(tw, "Lines:\t%d\n", len(r.Items))
	fmt.Fprintf(tw, "Total:\t%s\n", product.FormatPrice(r.Total))
	return tw.Flush()
}
