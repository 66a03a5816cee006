package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/latchjack/burger/pkg/burger"
	"github.com/latchjack/burger/pkg/client"
	"github.com/latchjack/burger/pkg/config"
	"github.com/latchjack/burger/pkg/discovery"
	bgrpc "github.com/latchjack/burger/pkg/grpc"
	"go.uber.org/zap"
)

const usage = `usage: burgerctl [flags] <command> [args]

commands:
  ingredients                 show stock levels
  menu                        show prices
  price salad=1 bacon=2 ...   compute the price of a selection
  checkout <query>            resolve a checkout query
  order salad=1 ... --name .. place an order (needs -email/-password)
  orders                      list your orders (needs -email/-password)
  health                      probe the gRPC health service
`

type options struct {
	addr       string
	configPath string
	healthAddr string
	email      string
	password   string
	signup     bool
	timeout    time.Duration
}

func main() {
	var opts options
	flag.StringVar(&opts.addr, "addr", "", "gateway base URL; discovered through etcd when empty")
	flag.StringVar(&opts.configPath, "config", "config/config.yaml", "config file used for discovery and health")
	flag.StringVar(&opts.healthAddr, "health", "", "gRPC health address, defaults to the configured server address")
	flag.StringVar(&opts.email, "email", os.Getenv("BURGER_EMAIL"), "account email")
	flag.StringVar(&opts.password, "password", os.Getenv("BURGER_PASSWORD"), "account password")
	flag.BoolVar(&opts.signup, "signup", false, "create the account before signing in")
	flag.DurationVar(&opts.timeout, "timeout", 10*time.Second, "overall command timeout")
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(fmt.Sprintf("Failed to create logger: %v", err))
	}
	defer logger.Sync()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), opts.timeout)
	defer cancel()

	if err := run(ctx, logger, opts, flag.Arg(0), flag.Args()[1:]); err != nil {
		logger.Error("Command failed", zap.String("command", flag.Arg(0)), zap.Error(err))
		cancel()
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *zap.Logger, opts options, cmd string, args []string) error {
	cfg, cfgErr := config.Load(opts.configPath)
	if cfgErr != nil {
		logger.Debug("No config file, using flags only", zap.Error(cfgErr))
	}

	menu := burger.DefaultMenu()
	if cfg != nil {
		m, err := cfg.Menu.BuildMenu()
		if err != nil {
			return err
		}
		menu = m
	}

	if cmd == "health" {
		return probe(ctx, opts, cfg)
	}
	if cmd == "price" {
		selection, err := parseSelection(menu, args)
		if err != nil {
			return err
		}
		price, err := menu.Price(selection)
		if err != nil {
			return err
		}
		fmt.Println(menu.EncodeQuery(selection, price))
		return nil
	}

	c, err := newClient(ctx, logger, opts, cfg)
	if err != nil {
		return err
	}

	switch cmd {
	case "ingredients":
		ingredients, err := c.Ingredients(ctx)
		if err != nil {
			return err
		}
		for _, name := range menu.Names {
			fmt.Printf("%-8s %d\n", name, ingredients[name])
		}
		return nil

	case "menu":
		m, err := c.Menu(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("%-8s %s\n", "base", m.BasePrice)
		for _, name := range m.Order {
			fmt.Printf("%-8s %s\n", name, m.Prices[name])
		}
		return nil

	case "checkout":
		if len(args) != 1 {
			return fmt.Errorf("checkout takes exactly one query argument")
		}
		summary, err := c.Checkout(ctx, args[0])
		if err != nil {
			return err
		}
		return printJSON(summary)

	case "order":
		selection, contact, err := parseOrderArgs(menu, args)
		if err != nil {
			return err
		}
		price, err := menu.Price(selection)
		if err != nil {
			return err
		}
		if !burger.Purchasable(selection) {
			return fmt.Errorf("select at least one ingredient")
		}
		if err := contact.Validate(); err != nil {
			return err
		}
		if err := signIn(ctx, c, opts); err != nil {
			return err
		}
		placed, err := c.PlaceOrder(ctx, client.OrderRequest{
			Ingredients: selection,
			Price:       price,
			OrderData:   contact,
		})
		if err != nil {
			return err
		}
		fmt.Printf("order %s placed, total %s\n", placed.Name, price.StringFixed(2))
		return nil

	case "orders":
		if err := signIn(ctx, c, opts); err != nil {
			return err
		}
		orders, err := c.Orders(ctx)
		if err != nil {
			return err
		}
		for _, o := range orders {
			fmt.Printf("%s  %s  %s  %s\n",
				o.CreatedAt.Format(time.RFC3339), o.ID, o.Price.StringFixed(2), menu.EncodeQuery(o.Ingredients, o.Price))
		}
		return nil
	}

	return fmt.Errorf("unknown command %q", cmd)
}

func newClient(ctx context.Context, logger *zap.Logger, opts options, cfg *config.Config) (*client.Client, error) {
	addr := opts.addr
	if addr == "" && cfg != nil && len(cfg.Etcd.Endpoints) > 0 {
		sd, err := discovery.NewServiceDiscovery(&cfg.Etcd, logger)
		if err != nil {
			return nil, err
		}
		defer sd.Close()
		hostport, err := sd.Resolve(ctx, "burger-gateway")
		if err != nil {
			return nil, err
		}
		addr = "http://" + hostport
		logger.Debug("Discovered gateway", zap.String("addr", addr))
	}
	if addr == "" {
		addr = "http://localhost:8080"
	}

	c := client.New(addr)
	var errs client.ErrorHandler
	errs.Attach(c)
	c.UseResponse(func(_ *http.Response, err error) error {
		if err != nil {
			fmt.Fprintln(os.Stderr, "Something went wrong:", errs.Message())
			errs.Confirm()
		}
		return err
	})
	return c, nil
}

func signIn(ctx context.Context, c *client.Client, opts options) error {
	if opts.email == "" || opts.password == "" {
		return fmt.Errorf("-email and -password are required")
	}
	if opts.signup {
		_, err := c.SignUp(ctx, opts.email, opts.password)
		return err
	}
	_, err := c.Login(ctx, opts.email, opts.password)
	return err
}

func probe(ctx context.Context, opts options, cfg *config.Config) error {
	target := opts.healthAddr
	if target == "" {
		target = "localhost:50052"
		if cfg != nil {
			host := cfg.Server.Host
			if host == "" || host == "0.0.0.0" {
				host = "localhost"
			}
			target = fmt.Sprintf("%s:%d", host, cfg.Server.Port)
		}
	}
	status, err := bgrpc.Probe(ctx, target, bgrpc.OrdersService)
	if err != nil {
		return err
	}
	fmt.Println(status.String())
	return nil
}

// parseSelection reads name=qty pairs. Names left out count as zero.
func parseSelection(menu *burger.Menu, args []string) (burger.Ingredients, error) {
	selection := menu.Empty()
	for _, arg := range args {
		name, raw, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, fmt.Errorf("expected name=quantity, got %q", arg)
		}
		if !menu.Has(name) {
			return nil, fmt.Errorf("%w: %s", burger.ErrUnknownIngredient, name)
		}
		qty, err := strconv.Atoi(raw)
		if err != nil || qty < 0 {
			return nil, fmt.Errorf("invalid quantity %q for %s", raw, name)
		}
		selection[name] = qty
	}
	return selection, nil
}

// parseOrderArgs splits ingredient pairs from --field=value contact flags.
func parseOrderArgs(menu *burger.Menu, args []string) (burger.Ingredients, burger.ContactData, error) {
	var (
		contact burger.ContactData
		pairs   []string
	)
	for _, arg := range args {
		if !strings.HasPrefix(arg, "--") {
			pairs = append(pairs, arg)
			continue
		}
		key, value, _ := strings.Cut(strings.TrimPrefix(arg, "--"), "=")
		switch key {
		case "name":
			contact.Name = value
		case "street":
			contact.Street = value
		case "zip":
			contact.ZipCode = value
		case "country":
			contact.Country = value
		case "email":
			contact.Email = value
		case "delivery":
			contact.DeliveryMethod = value
		default:
			return nil, contact, fmt.Errorf("unknown order field %q", key)
		}
	}
	selection, err := parseSelection(menu, pairs)
	return selection, contact, err
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
