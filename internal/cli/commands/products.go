package commands

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/shopfront-dev/shopfront/internal/cli/client"
)

// NewProductsCmd creates the products command tree
func NewProductsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "products",
		Aliases: []string{"product"},
		Short:   "Browse and manage products",
	}

	cmd.AddCommand(newProductsListCmd())
	cmd.AddCommand(newProductsGetCmd())
	cmd.AddCommand(newProductsAttrsCmd())
	cmd.AddCommand(newProductsCreateCmd())
	cmd.AddCommand(newProductsUpdateCmd())
	cmd.AddCommand(newProductsDeleteCmd())

	return cmd
}

// NewProductTypesCmd creates the product-types command
func NewProductTypesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "product-types",
		Short: "List product types",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newEnvironment(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer env.close()

			types, err := env.api().ProductTypes(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME")
			fmt.Fprintln(w, "──\t────")
			for _, t := range types {
				fmt.Fprintf(w, "%s\t%s\n", t.ID, t.Name)
			}
			return w.Flush()
		},
	}
}

func newProductsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List products grouped by type",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newEnvironment(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer env.close()

			groups, err := env.api().ProductsByType(cmd.Context())
			if err != nil {
				return err
			}

			return printProductGroups(cmd.OutOrStdout(), groups)
		},
	}
}

func printProductGroups(out io.Writer, groups []client.ProductGroup) error {
	if len(groups) == 0 {
		fmt.Fprintln(out, "No products found.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TYPE\tID\tNAME\tPRICE\tSTOCK")
	fmt.Fprintln(w, "────\t──\t────\t─────\t─────")

	for _, group := range groups {
		for _, p := range group.Products {
			fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\t%d\n",
				group.ProductType.Name,
				p.ID,
				p.Name,
				p.Price,
				p.Stock,
			)
		}
	}

	return w.Flush()
}

func newProductsGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <product-id>",
		Short: "Show a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newEnvironment(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer env.close()

			product, err := env.api().GetProduct(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			printProduct(cmd.OutOrStdout(), product)
			return nil
		},
	}
}

func printProduct(out io.Writer, p *client.Product) {
	fmt.Fprintf(out, "ID:          %s\n", p.ID)
	fmt.Fprintf(out, "Name:        %s\n", p.Name)
	fmt.Fprintf(out, "Price:       %.2f\n", p.Price)
	fmt.Fprintf(out, "Stock:       %d\n", p.Stock)
	fmt.Fprintf(out, "Type:        %s\n", p.ProductTypeID)
	if p.Description != "" {
		fmt.Fprintf(out, "Description: %s\n", p.Description)
	}
	if p.ImageURL != "" {
		fmt.Fprintf(out, "Image:       %s\n", p.ImageURL)
	}
}

func newProductsAttrsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "attrs <product-id>",
		Short: "List the attributes of a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newEnvironment(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer env.close()

			attrs, err := env.api().ProductAttributes(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tVALUE")
			for _, a := range attrs {
				fmt.Fprintf(w, "%s\t%s\n", a.Name, a.Value)
			}
			return w.Flush()
		},
	}
}

// productFlags binds the create/update flags
type productFlags struct {
	name        string
	description string
	price       float64
	stock       int
	imageURL    string
	typeID      string
	attrs       []string
}

func (f *productFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "name", "", "Product name")
	cmd.Flags().StringVar(&f.description, "description", "", "Product description")
	cmd.Flags().Float64Var(&f.price, "price", 0, "Unit price")
	cmd.Flags().IntVar(&f.stock, "stock", 0, "Units in stock")
	cmd.Flags().StringVar(&f.imageURL, "image-url", "", "Image URL")
	cmd.Flags().StringVar(&f.typeID, "type", "", "Product type ID")
	cmd.Flags().StringArrayVar(&f.attrs, "attr", nil, "Attribute as name=value (repeatable)")
}

func (f *productFlags) input() (client.ProductInput, error) {
	input := client.ProductInput{
		Name:          f.name,
		Description:   f.description,
		Price:         f.price,
		Stock:         f.stock,
		ImageURL:      f.imageURL,
		ProductTypeID: f.typeID,
	}

	for _, raw := range f.attrs {
		name, value, ok := strings.Cut(raw, "=")
		if !ok || name == "" {
			return input, fmt.Errorf("invalid attribute '%s', expected name=value", raw)
		}
		input.Attributes = append(input.Attributes, client.ProductAttribute{Name: name, Value: value})
	}

	if err := input.Validate(); err != nil {
		return input, fmt.Errorf("invalid product: %w", err)
	}
	return input, nil
}

// fromProduct seeds unset flags from an existing product so update only
// changes what was passed.
func (f *productFlags) fromProduct(cmd *cobra.Command, p *client.Product) {
	if !cmd.Flags().Changed("name") {
		f.name = p.Name
	}
	if !cmd.Flags().Changed("description") {
		f.description = p.Description
	}
	if !cmd.Flags().Changed("price") {
		f.price = p.Price
	}
	if !cmd.Flags().Changed("stock") {
		f.stock = p.Stock
	}
	if !cmd.Flags().Changed("image-url") {
		f.imageURL = p.ImageURL
	}
	if !cmd.Flags().Changed("type") {
		f.typeID = p.ProductTypeID
	}
}

func newProductsCreateCmd() *cobra.Command {
	var flags productFlags

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a product (admin only)",
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := flags.input()
			if err != nil {
				return err
			}

			env, err := newEnvironment(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer env.close()

			if err := env.session.Resume(cmd.Context()); err != nil {
				return err
			}
			if err := env.session.RequireAdmin(); err != nil {
				return err
			}

			product, err := env.api().CreateProduct(cmd.Context(), input)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "✓ Created product %s\n", product.ID)
			return nil
		},
	}

	flags.register(cmd)
	return cmd
}

func newProductsUpdateCmd() *cobra.Command {
	var flags productFlags

	cmd := &cobra.Command{
		Use:   "update <product-id>",
		Short: "Update a product (admin only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newEnvironment(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer env.close()

			if err := env.session.Resume(cmd.Context()); err != nil {
				return err
			}
			if err := env.session.RequireAdmin(); err != nil {
				return err
			}

			current, err := env.api().GetProduct(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			flags.fromProduct(cmd, current)

			input, err := flags.input()
			if err != nil {
				return err
			}

			product, err := env.api().UpdateProduct(cmd.Context(), args[0], input)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "✓ Updated product %s\n", product.ID)
			return nil
		},
	}

	flags.register(cmd)
	return cmd
}

func newProductsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "rm <product-id>",
		Aliases: []string{"delete"},
		Short:   "Delete a product (admin only)",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newEnvironment(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer env.close()

			if err := env.session.Resume(cmd.Context()); err != nil {
				return err
			}
			if err := env.session.RequireAdmin(); err != nil {
				return err
			}

			if err := env.api().DeleteProduct(cmd.Context(), args[0]); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "✓ Deleted product %s\n", args[0])
			return nil
		},
	}
}
