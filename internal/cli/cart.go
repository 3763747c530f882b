package cli

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/xenking/galaxy-store/internal/app"
	"github.com/xenking/galaxy-store/internal/catalog"
	"github.com/xenking/galaxy-store/internal/domain/product"
	"github.com/xenking/galaxy-store/internal/notify"
)

// NewCartCommand groups the cart subcommands.
func NewCartCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Show and edit the cart",
	}
	cmd.AddCommand(newCartShowCommand(opts))
	cmd.AddCommand(newCartAddCommand(opts))
	cmd.AddCommand(newCartRemoveCommand(opts))
	cmd.AddCommand(newCartSetCommand(opts))
	cmd.AddCommand(newCartClearCommand(opts))
	return cmd
}

func newCartShowCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, opts, func(_ context.Context, a *app.App, out io.Writer) error {
				return renderCartOf(out, a)
			})
		},
	}
}

func newCartAddCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "add <id>",
		Short: "Add one unit of a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app.App, out io.Writer) error {
				var target *product.Product
				if id, err := catalog.ParseID(args[0]); err == nil {
					if p, ok := a.Catalog.GetByID(id); ok {
						target = &p
					}
				}
				ok := a.Cart.Add(ctx, target)
				return finish(out, a, ok)
			})
		},
	}
}

func newCartRemoveCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a line item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := catalog.ParseID(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, opts, func(ctx context.Context, a *app.App, out io.Writer) error {
				a.Cart.Remove(ctx, id)
				return finish(out, a, true)
			})
		},
	}
}

func newCartSetCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "set <id> <quantity>",
		Short: "Set the quantity of a line item",
		Long:  "Set the quantity of a line item. The quantity is read like form input and clamped to 1..99.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := catalog.ParseID(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, opts, func(ctx context.Context, a *app.App, out io.Writer) error {
				a.Cart.UpdateQuantityInput(ctx, id, args[1])
				n, shown := a.Notify.Current()
				return finish(out, a, !shown || n.Kind != notify.KindError)
			})
		},
	}
}

func newCartClearCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Empty the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app.App, out io.Writer) error {
				a.Cart.Clear(ctx)
				return finish(out, a, true)
			})
		},
	}
}

// NewCheckoutCommand validates the cart and prints a receipt.
func NewCheckoutCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "checkout",
		Short: "Check out the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app.App, out io.Writer) error {
				r, ok := a.Cart.Checkout(ctx)
				if err := renderCurrent(out, a); err != nil {
					return err
				}
				if !ok {
					return ErrRejected
				}
				return RenderReceipt(out, r)
			})
		},
	}
}

// finish prints the notification left by a mutation and the cart.
func finish(out io.Writer, a *app.App, ok bool) error {
	if err := renderCurrent(out, a); err != nil {
		return err
	}
	if err := renderCartOf(out, a); err != nil {
		return err
	}
	if !ok {
		return ErrRejected
	}
	return nil
}

func renderCurrent(out io.Writer, a *app.App) error {
	if n, ok := a.Notify.Current(); ok {
		return RenderNotification(out, n)
	}
	return nil
}

func renderCartOf(out io.Writer, a *app.App) error {
	return RenderCart(out, a.Cart.Items(), a.Cart.Overstocked(), a.Cart.Total())
}
