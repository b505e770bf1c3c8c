package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/arterio/storefront/app/configs"
	"github.com/arterio/storefront/app/models"
	"github.com/arterio/storefront/app/models/migrations"
	"github.com/arterio/storefront/app/services"
	"github.com/arterio/storefront/app/utils/format"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

// RunCli runs the storefront command line. Without a subcommand it serves
// the HTTP storefront.
func RunCli(ctx context.Context, args []string, env configs.ENV, logger *zap.Logger, out io.Writer) error {
	rt := &runtime{env: env, logger: logger, out: out}
	defer rt.close()

	return rt.command().Run(ctx, args)
}

func (rt *runtime) command() *cli.Command {
	return &cli.Command{
		Name:   "storefront",
		Usage:  "Arterio storefront: catalog, cart and checkout hand-off",
		Writer: rt.out,
		// exit codes are handled by main
		ExitErrHandler: func(context.Context, *cli.Command, error) {},
		Action: func(ctx context.Context, c *cli.Command) error {
			return rt.serve(ctx)
		},
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "Serve the HTTP storefront",
				Action: func(ctx context.Context, c *cli.Command) error {
					return rt.serve(ctx)
				},
			},
			{
				Name:  "migrate",
				Usage: "Create the cart storage table (mysql and sqlite drivers)",
				Action: func(ctx context.Context, c *cli.Command) error {
					if rt.env.StorageDriver == "file" {
						fmt.Fprintf(rt.out, "Storage driver is 'file' (%s), nothing to migrate.\n", rt.env.StoragePath)
						return nil
					}
					db, err := configs.OpenConnection(rt.env, rt.logger)
					if err != nil {
						return err
					}
					if err := migrations.AutoMigrate(db); err != nil {
						return err
					}
					fmt.Fprintln(rt.out, "Migration complete.")
					return nil
				},
			},
			{
				Name:  "generate-keys",
				Usage: "Generate session authentication and encryption keys for .env",
				Action: func(ctx context.Context, c *cli.Command) error {
					return configs.GenerateAndPrintSessionKeys(rt.out)
				},
			},
			rt.productsCommand(),
			{
				Name:      "product",
				Usage:     "Show one product",
				ArgsUsage: "<id|slug>",
				Action:    rt.showProduct,
			},
			{
				Name:   "categories",
				Usage:  "List the category tree",
				Action: rt.listCategories,
			},
			rt.cartCommand(),
			{
				Name:   "checkout",
				Usage:  "Send the cart to the store and print the checkout URL",
				Action: rt.checkout,
			},
		},
	}
}

func (rt *runtime) productsCommand() *cli.Command {
	return &cli.Command{
		Name:  "products",
		Usage: "List catalog products",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "category", Aliases: []string{"c"}, Usage: "only products in this category"},
			&cli.StringFlag{Name: "search", Aliases: []string{"s"}, Usage: "match name or category"},
			&cli.BoolFlag{Name: "featured", Usage: "only featured products"},
			&cli.IntFlag{Name: "per-page", Value: 100, Usage: "page size (1-100)"},
			&cli.IntFlag{Name: "page", Value: 1},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			filter := services.ProductFilter{
				Category: c.String("category"),
				Search:   c.String("search"),
				PerPage:  c.Int("per-page"),
				Page:     c.Int("page"),
			}
			if c.IsSet("featured") {
				featured := c.Bool("featured")
				filter.Featured = &featured
			}

			products, err := rt.catalog().ListProducts(ctx, filter)
			if err != nil {
				return rt.fail(err)
			}
			if len(products) == 0 {
				fmt.Fprintln(rt.out, "Nenhum produto encontrado.")
				return nil
			}

			tw := tabwriter.NewWriter(rt.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tPRODUTO\tCATEGORIA\tPREÇO\tESTOQUE")
			for _, p := range products {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", p.ID, p.Name, p.Category, format.Price(p.Price, p.PriceOnRequest), stockLabel(p))
			}
			return tw.Flush()
		},
	}
}

func (rt *runtime) showProduct(ctx context.Context, c *cli.Command) error {
	if c.NArg() != 1 {
		return cli.Exit("usage: product <id|slug>", 2)
	}

	p, err := rt.catalog().GetProduct(ctx, c.Args().First())
	if err != nil {
		return rt.fail(err)
	}

	fmt.Fprintf(rt.out, "%s (#%s)\n", p.Name, p.ID)
	fmt.Fprintf(rt.out, "Categoria: %s\n", p.Category)
	fmt.Fprintf(rt.out, "Preço:     %s\n", format.Price(p.Price, p.PriceOnRequest))
	fmt.Fprintf(rt.out, "Estoque:   %s\n", stockLabel(*p))
	if p.Sku != "" {
		fmt.Fprintf(rt.out, "SKU:       %s\n", p.Sku)
	}
	for _, v := range p.Variants {
		fmt.Fprintf(rt.out, "%s: %s\n", v.Name, v.Value)
	}
	return nil
}

func (rt *runtime) listCategories(ctx context.Context, c *cli.Command) error {
	categories, err := rt.catalog().ListCategories(ctx)
	if err != nil {
		return rt.fail(err)
	}
	for _, cat := range categories {
		fmt.Fprintf(rt.out, "%s (%d)\n", cat.Name, cat.Count)
		for _, sub := range cat.Subcategories {
			fmt.Fprintf(rt.out, "  - %s\n", sub)
		}
	}
	return nil
}

func (rt *runtime) cartCommand() *cli.Command {
	return &cli.Command{
		Name:  "cart",
		Usage: "Inspect and change the local cart",
		Action: func(ctx context.Context, c *cli.Command) error {
			return rt.withCart(ctx, func(cart *services.CartService) error {
				rt.printCart(cart.Cart())
				return nil
			})
		},
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "Show the cart",
				Action: func(ctx context.Context, c *cli.Command) error {
					return rt.withCart(ctx, func(cart *services.CartService) error {
						rt.printCart(cart.Cart())
						return nil
					})
				},
			},
			{
				Name:      "add",
				Usage:     "Add a product",
				ArgsUsage: "<id|slug>",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "qty", Aliases: []string{"q"}, Value: 1},
					&cli.StringFlag{Name: "variant", Usage: "variant label, e.g. \"Preto\""},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					if c.NArg() != 1 {
						return cli.Exit("usage: cart add <id|slug> [--qty N] [--variant V]", 2)
					}
					p, err := rt.catalog().GetProduct(ctx, c.Args().First())
					if err != nil {
						return rt.fail(err)
					}
					if !p.InStock {
						return cli.Exit(fmt.Sprintf("%s está esgotado.", p.Name), 1)
					}
					return rt.withCart(ctx, func(cart *services.CartService) error {
						updated, err := cart.AddItem(ctx, *p, c.Int("qty"), strings.TrimSpace(c.String("variant")))
						if err != nil {
							return rt.fail(err)
						}
						rt.printCart(updated)
						return nil
					})
				},
			},
			{
				Name:      "update",
				Usage:     "Set the quantity of a line (0 removes it)",
				ArgsUsage: "<key> <quantity>",
				Action: func(ctx context.Context, c *cli.Command) error {
					if c.NArg() != 2 {
						return cli.Exit("usage: cart update <key> <quantity>", 2)
					}
					qty, err := strconv.Atoi(c.Args().Get(1))
					if err != nil {
						return cli.Exit("quantity must be a whole number", 2)
					}
					return rt.withCart(ctx, func(cart *services.CartService) error {
						updated, err := cart.UpdateQuantity(ctx, c.Args().First(), qty)
						if err != nil {
							return rt.fail(err)
						}
						rt.printCart(updated)
						return nil
					})
				},
			},
			{
				Name:      "remove",
				Usage:     "Remove a line",
				ArgsUsage: "<key>",
				Action: func(ctx context.Context, c *cli.Command) error {
					if c.NArg() != 1 {
						return cli.Exit("usage: cart remove <key>", 2)
					}
					return rt.withCart(ctx, func(cart *services.CartService) error {
						rt.printCart(cart.RemoveItem(ctx, c.Args().First()))
						return nil
					})
				},
			},
			{
				Name:  "clear",
				Usage: "Empty the cart",
				Action: func(ctx context.Context, c *cli.Command) error {
					return rt.withCart(ctx, func(cart *services.CartService) error {
						rt.printCart(cart.Clear(ctx))
						return nil
					})
				},
			},
		},
	}
}

func (rt *runtime) checkout(ctx context.Context, c *cli.Command) error {
	return rt.withCart(ctx, func(cart *services.CartService) error {
		svc, err := rt.newCheckoutSession()
		if err != nil {
			return err
		}

		nav := services.NavigatorFunc(func(_ context.Context, url string) error {
			_, err := fmt.Fprintf(rt.out, "Finalize a compra em: %s\n", url)
			return err
		})

		result, err := svc.GoToCheckout(ctx, cart, nav)
		if result != nil {
			for _, failed := range result.Failed {
				fmt.Fprintf(rt.out, "Aviso: %s (x%d) não foi enviado ao checkout: %s\n", failed.Name, failed.Quantity, failed.Reason)
			}
		}
		if err != nil {
			return rt.fail(err)
		}
		return nil
	})
}

func (rt *runtime) withCart(ctx context.Context, fn func(*services.CartService) error) error {
	cart, err := rt.cart(ctx)
	if err != nil {
		return err
	}
	return fn(cart)
}

func (rt *runtime) printCart(cart models.Cart) {
	if cart.IsEmpty() {
		fmt.Fprintln(rt.out, "Seu carrinho está vazio.")
		return
	}

	tw := tabwriter.NewWriter(rt.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CHAVE\tPRODUTO\tVARIANTE\tQTD\tSUBTOTAL")
	for _, item := range cart.Items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", item.Key, item.Product.Name, item.Variant, item.Quantity, format.BRL(item.Subtotal))
	}
	fmt.Fprintf(tw, "\t\t\t%d\t%s\n", cart.ItemCount(), format.BRL(cart.Total()))
	_ = tw.Flush()
}

// fail turns err into the storefront message, keeping the detail in the log.
func (rt *runtime) fail(err error) error {
	if services.IsAbandoned(err) {
		return err
	}
	var exitErr cli.ExitCoder
	if errors.As(err, &exitErr) {
		return err
	}
	rt.logger.Debug("Command failed", zap.Error(err))
	return cli.Exit(services.UserMessage(err), 1)
}

func stockLabel(p models.Product) string {
	if p.InStock {
		return "disponível"
	}
	return "esgotado"
}
