package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"github.com/google/uuid"
	"github.com/nikolayk812/cartkeeper/internal/app"
	"github.com/nikolayk812/cartkeeper/internal/cart"
	"github.com/nikolayk812/cartkeeper/internal/config"
	"github.com/nikolayk812/cartkeeper/internal/domain"
	"github.com/nikolayk812/cartkeeper/internal/port"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
)

const usage = `usage: cartctl <command> [args]

commands:
  list                                   print the cart
  add -title T [-id ID] [-image URL] -price P
                                         add a product, or increment it if present
  inc <id>                               increment a line item
  dec <id>                               decrement a line item (never below 1)
  total                                  print item count and total
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			fmt.Fprint(os.Stderr, usage)
			os.Exit(2)
		}
		log.WithError(err).Fatal("cartctl failed")
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	if len(args) == 0 {
		return flag.ErrHelp
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config.Load: %w", err)
	}
	setupLogger(cfg)

	runtime, err := app.New(ctx, cfg, log.WithField("component", "cartctl"))
	if err != nil {
		return fmt.Errorf("app.New: %w", err)
	}
	defer func() {
		if err := runtime.Close(context.WithoutCancel(ctx)); err != nil {
			log.WithError(err).Warn("failed to close runtime")
		}
	}()

	return cart.Run(ctx, runtime.Store, func(ctx context.Context) error {
		handle, err := cart.FromContext(ctx)
		if err != nil {
			return err
		}
		return dispatch(ctx, handle, runtime, args, out)
	})
}

func dispatch(ctx context.Context, handle port.CartHandle, runtime *app.Runtime, args []string, out io.Writer) error {
	command, rest := args[0], args[1:]

	switch command {
	case "list":
		return printProducts(out, handle.Products())

	case "add":
		product, err := parseProduct(rest)
		if err != nil {
			return err
		}
		if err := handle.AddToCart(ctx, product); err != nil {
			return fmt.Errorf("handle.AddToCart: %w", err)
		}
		return printProducts(out, handle.Products())

	case "inc", "dec":
		if len(rest) != 1 {
			return fmt.Errorf("%s expects exactly one id", command)
		}
		mutate := handle.Increment
		if command == "dec" {
			mutate = handle.Decrement
		}
		if err := mutate(ctx, rest[0]); err != nil {
			return fmt.Errorf("%s: %w", command, err)
		}
		return printProducts(out, handle.Products())

	case "total":
		current := domain.Cart{Items: handle.Products()}
		_, err := fmt.Fprintf(out, "items: %d\ntotal: %s\n", current.Count(), current.Total(runtime.Currency))
		return err

	default:
		return fmt.Errorf("unknown command[%s]: %w", command, flag.ErrHelp)
	}
}

func parseProduct(args []string) (domain.Product, error) {
	fs := flag.NewFlagSet("add", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		id, title, image, price string
	)
	fs.StringVar(&id, "id", "", "product id (generated when empty)")
	fs.StringVar(&title, "title", "", "product title")
	fs.StringVar(&image, "image", "", "product image url")
	fs.StringVar(&price, "price", "0", "product price")

	if err := fs.Parse(args); err != nil {
		return domain.Product{}, err
	}
	if title == "" {
		return domain.Product{}, fmt.Errorf("-title is required")
	}

	amount, err := decimal.NewFromString(price)
	if err != nil {
		return domain.Product{}, fmt.Errorf("price[%s] is not valid: %w", price, err)
	}

	if id == "" {
		id = uuid.NewString()
	}

	return domain.Product{
		ID:       id,
		Title:    title,
		ImageURL: image,
		Price:    amount,
	}, nil
}

func printProducts(out io.Writer, products []domain.LineItem) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tPRICE\tQTY")
	for _, p := range products {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", p.ID, p.Title, p.Price.StringFixed(2), p.Quantity)
	}
	return w.Flush()
}

func setupLogger(cfg config.Config) {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetOutput(os.Stderr)
	if level, err := cfg.Level(); err == nil {
		log.SetLevel(level)
	}
}
