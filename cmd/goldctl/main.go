package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"GoldCatalog/internal/catalog"
	"GoldCatalog/internal/config"
	"GoldCatalog/internal/gold"
	"GoldCatalog/pkg/kit"
)

func main() {
	app := &cli.App{
		Name:  "goldctl",
		Usage: "inspect gold spot prices and the priced catalog without running the server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "api-url",
				Usage:   "gold price endpoint",
				EnvVars: []string{"GOLD_API_URL"},
				Value:   "https://www.goldapi.io/api/XAU/USD",
			},
			&cli.DurationFlag{
				Name:    "timeout",
				Usage:   "upstream request timeout",
				EnvVars: []string{"GOLD_API_TIMEOUT"},
				Value:   5 * time.Second,
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "log pipeline steps to stderr",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "spot",
				Usage:  "fetch the current spot price per gram",
				Action: spotCmd,
			},
			{
				Name:  "products",
				Usage: "price the catalog once and print it as JSON",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "catalog",
						Aliases: []string{"c"},
						Usage:   "catalog file (.json, .yaml)",
						EnvVars: []string{"CATALOG_PATH"},
						Value:   "products.json",
					},
					&cli.StringFlag{Name: "min-popularity"},
					&cli.StringFlag{Name: "max-popularity"},
					&cli.StringFlag{Name: "min-price"},
					&cli.StringFlag{Name: "max-price"},
				},
				Action: productsCmd,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "goldctl:", err)
		os.Exit(1)
	}
}

func newClient(c *cli.Context) *gold.Client {
	return gold.NewClient(c.String("api-url"), c.Duration("timeout"), gold.EnvAPIKey(config.GoldAPIKeyEnv))
}

func newLogger(c *cli.Context) *zap.Logger {
	if !c.Bool("verbose") {
		return zap.NewNop()
	}
	return kit.NewLogger("goldctl", "debug")
}

func spotCmd(c *cli.Context) error {
	p, err := newClient(c).FetchSpot(c.Context)
	if err != nil {
		return err
	}
	return printJSON(p)
}

func productsCmd(c *cli.Context) error {
	log := newLogger(c)
	defer func() { _ = log.Sync() }()

	q := url.Values{}
	for _, name := range []string{"min-popularity", "max-popularity", "min-price", "max-price"} {
		if v := c.String(name); v != "" {
			q.Set(flagToParam(name), v)
		}
	}
	f, err := catalog.ParseFilter(q)
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}

	client := newClient(c)
	cache := gold.NewCache(client, time.Minute, gold.WithLogger(log), gold.WithFetchTimeout(c.Duration("timeout")))
	svc := catalog.NewService(catalog.NewFileStore(c.String("catalog")), cache, log)

	ctx, cancel := context.WithTimeout(c.Context, c.Duration("timeout")+time.Second)
	defer cancel()

	products, err := svc.ListPricedProducts(ctx, f)
	if err != nil {
		return err
	}
	return printJSON(products)
}

func flagToParam(name string) string {
	return strings.ReplaceAll(name, "-", "_")
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
