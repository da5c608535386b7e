package cmd

import (
	"context"
	"fmt"

	"github.com/spigell/catalog-assets/internal/cart"
	"github.com/spigell/catalog-assets/internal/catalog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var orderCmd = &cobra.Command{
	Use:   "order <product-id>...",
	Short: "Build an order from catalog ids and print the chat link that sends it",
	Long: `order adds one unit per id argument (repeat an id to order more than one) and
removes one unit for every --remove. It prints the order lines, the total and the
chat link carrying the order message.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		config, log, err := setup()
		if err != nil {
			return err
		}

		c, err := catalog.Open(ctx, fs, catalog.NewClient(log), config.JSON)
		if err != nil {
			log.Error("could not load products", zap.String("json", config.JSON), zap.Error(err))
			return errLoadProducts
		}

		removals, _ := cmd.Flags().GetStringSlice("remove")

		order, err := buildOrder(c, args, removals)
		if err != nil {
			return err
		}

		if !viper.GetBool("quiet") {
			renderCart(cmd.OutOrStdout(), order)
		}

		link, err := order.Link(config.Order.Phone, config.Order.Greeting)
		if err != nil {
			return fmt.Errorf("building order link: %w", err)
		}

		log.Info("order ready", zap.Int("items", order.Len()), zap.String("total", catalog.FormatPrice(order.Total())))
		fmt.Fprintln(cmd.OutOrStdout(), link)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(orderCmd)

	orderCmd.Flags().StringSlice("remove", nil, "remove one unit of the product id (repeatable)")
	orderCmd.Flags().String("phone", "", "phone number receiving the order, digits with country code")

	viper.BindPFlag("order.phone", orderCmd.Flags().Lookup("phone"))
}

// buildOrder adds one unit per id in ids and then removes one unit per id in
// removals. Unknown ids are an error.
func buildOrder(c *catalog.Catalog, ids, removals []string) (*cart.Cart, error) {
	order := cart.New()
	for _, id := range ids {
		p := c.FindByID(catalog.ID(id))
		if p == nil {
			return nil, fmt.Errorf("there is no product with id %q", id)
		}
		order.AddProduct(p)
	}

	for _, id := range removals {
		p := c.FindByID(catalog.ID(id))
		if p == nil {
			return nil, fmt.Errorf("there is no product with id %q", id)
		}
		card := catalog.CardOf(p, catalog.DefaultCardDefaults())
		if !order.RemoveOne(card.Name) {
			return nil, fmt.Errorf("product %q is not in the order", id)
		}
	}

	return order, nil
}
