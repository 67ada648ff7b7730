package commands

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/shopfront-dev/shopfront/internal/cart"
	"github.com/shopfront-dev/shopfront/internal/cli/userconfig"
)

// NewCartCmd creates the cart command tree
func NewCartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Manage the local shopping cart",
	}

	cmd.AddCommand(newCartAddCmd())
	cmd.AddCommand(newCartRemoveCmd())
	cmd.AddCommand(newCartSetCmd())
	cmd.AddCommand(newCartListCmd())
	cmd.AddCommand(newCartClearCmd())

	return cmd
}

func openCart() (*cart.Cart, error) {
	path, err := userconfig.CartPath()
	if err != nil {
		return nil, err
	}
	return cart.Open(path)
}

func newCartAddCmd() *cobra.Command {
	var quantity int

	cmd := &cobra.Command{
		Use:   "add <product-id>",
		Short: "Add a product to the cart",
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

			attrs, err := env.api().ProductAttributes(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			item := cart.Item{
				ID:       product.ID,
				Name:     product.Name,
				Price:    product.Price,
				Quantity: quantity,
			}
			if len(attrs) > 0 {
				item.Attributes = make(map[string]string, len(attrs))
				for _, a := range attrs {
					item.Attributes[a.Name] = a.Value
				}
			}

			c, err := openCart()
			if err != nil {
				return err
			}
			if err := c.AddItem(item); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "✓ Added %s to cart (%d items, %.2f total)\n", product.Name, c.TotalItems(), c.TotalPrice())
			return nil
		},
	}

	cmd.Flags().IntVarP(&quantity, "quantity", "q", 1, "Quantity to add")
	return cmd
}

func newCartRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <product-id>",
		Short: "Remove a product from the cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openCart()
			if err != nil {
				return err
			}
			if err := c.RemoveItem(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Removed %s from cart\n", args[0])
			return nil
		},
	}
}

func newCartSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <product-id> <quantity>",
		Short: "Set the quantity of a cart item (0 removes it)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			quantity, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid quantity '%s': %w", args[1], err)
			}

			c, err := openCart()
			if err != nil {
				return err
			}
			if err := c.UpdateQuantity(args[0], quantity); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Cart now holds %d items (%.2f total)\n", c.TotalItems(), c.TotalPrice())
			return nil
		},
	}
}

func newCartListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "Show the cart",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openCart()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			items := c.Items()
			if len(items) == 0 {
				fmt.Fprintln(out, "Cart is empty.")
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tQTY\tPRICE\tSUBTOTAL")
			fmt.Fprintln(w, "──\t────\t───\t─────\t────────")
			for _, item := range items {
				fmt.Fprintf(w, "%s\t%s\t%d\t%.2f\t%.2f\n",
					item.ID,
					item.Name,
					item.Quantity,
					item.Price,
					item.Price*float64(item.Quantity),
				)
			}
			if err := w.Flush(); err != nil {
				return err
			}

			fmt.Fprintf(out, "\n%d items, %.2f total\n", c.TotalItems(), c.TotalPrice())
			return nil
		},
	}
}

func newCartClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Empty the cart",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openCart()
			if err != nil {
				return err
			}
			if err := c.Clear(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "✓ Cart cleared")
			return nil
		},
	}
}
