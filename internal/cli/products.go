package cli

import (
	"context"
	"io"

	"github.com/go-faster/errors"
	"github.com/spf13/cobra"

	"github.com/xenking/galaxy-store/internal/app"
	"github.com/xenking/galaxy-store/internal/catalog"
	"github.com/xenking/galaxy-store/internal/domain/product"
)

// ProductsOptions holds flags for the products command.
type ProductsOptions struct {
	*RootOptions
	Search   string
	Sort     string
	Category string
	Remote   bool
}

// NewProductsCommand lists the filtered and sorted catalog.
func NewProductsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ProductsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "products",
		Short: "List products",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sortBy, err := catalog.ParseSortKey(opts.Sort)
			if err != nil {
				return err
			}
			return withApp(cmd, opts.RootOptions, func(ctx context.Context, a *app.App, out io.Writer) error {
				if opts.Remote && opts.Search != "" {
					a.Catalog.SearchRemote(ctx, opts.Search)
					if msg := a.Catalog.Err(); msg != "" {
						return errors.New(msg)
					}
				} else {
					a.Catalog.SetSearchTerm(opts.Search)
				}
				a.Catalog.SetSortBy(sortBy)
				a.Catalog.SetFilterCategory(opts.Category)
				return RenderProducts(out, a.Catalog.Filtered())
			})
		},
	}

	cmd.Flags().StringVarP(&opts.Search, "search", "s", "", "match name, description or category")
	cmd.Flags().StringVar(&opts.Sort, "sort", string(catalog.SortByName), "sort order (name|price-low|price-high)")
	cmd.Flags().StringVar(&opts.Category, "category", catalog.AllCategories, "category filter")
	cmd.Flags().BoolVar(&opts.Remote, "remote", false, "search on the catalog source instead of locally")

	return cmd
}

// NewProductCommand shows one product.
func NewProductCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "product <id>",
		Short: "Show product details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := catalog.ParseID(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, opts, func(ctx context.Context, a *app.App, out io.Writer) error {
				p, ok := a.Catalog.GetByID(id)
				if !ok {
					if p, ok = a.Catalog.LoadByID(ctx, id); !ok {
						return errors.Wrapf(product.ErrNotFound, "id %d", id)
					}
				}
				return RenderProduct(out, p)
			})
		},
	}
}

// NewCategoriesCommand lists the category filter values.
func NewCategoriesCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, opts, func(_ context.Context, a *app.App, out io.Writer) error {
				return RenderCategories(out, a.Catalog.Categories())
			})
		},
	}
}
