// shopctl is a terminal storefront. It runs the same cart, wishlist and order
// stores as the web backend against a single local state file, so a guest
// cart survives between invocations and merges into the account on login.
//
// Commands:
//
//	shopctl login -email E -password P
//	shopctl products [-category C] [-search Q]
//	shopctl add -product ID [-size S] [-qty N]
//	shopctl cart
//	shopctl checkout -name N -phone P -line1 L -city C [-payment cod]
//
// Examples:
//
//	shopctl products -category men
//	shopctl add -product 60 -size M -qty 2
//	shopctl wishlist
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"storefront/internal/adapter"
	"storefront/internal/backend"
	"storefront/internal/credentials"
	"storefront/internal/model"
	"storefront/internal/orders"
	"storefront/internal/shop"
	"storefront/internal/storage"
	"storefront/internal/transport"
)

// Global flags (apply to all commands)
var (
	apiURL    string
	statePath string
	quiet     bool
	noColor   bool
	verbose   bool
)

// ANSI color codes
var (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
	colorBold   = "\033[1m"
)

func init() {
	if os.Getenv("NO_COLOR") != "" {
		disableColors()
	}
}

func disableColors() {
	colorReset, colorRed, colorGreen, colorYellow = "", "", "", ""
	colorCyan, colorGray, colorBold = "", "", ""
}

type command struct {
	usage string
	run   func(a *app, fs *flag.FlagSet, args []string) error
	setup func(fs *flag.FlagSet)
}

var commands = map[string]command{}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	name := os.Args[1]
	switch name {
	case "-h", "-help", "--help", "help":
		printUsage()
		return
	}
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", name)
		printUsage()
		os.Exit(1)
	}
	if err := execute(name, cmd, os.Args[2:]); err != nil {
		fatal("%v", err)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `shopctl - terminal storefront

Usage:
  shopctl <command> [options]

Commands:
  login     Sign in and merge the guest wishlist into the account
  logout    Sign out and clear the local cart and wishlist
  whoami    Show the signed-in profile
  products  List products
  product   Show one product
  cart      Show the cart
  add       Add a product to the cart
  set-qty   Set a cart line quantity (0 removes)
  remove    Remove a cart line
  wishlist  Show the wishlist
  toggle    Add or remove a wishlist product
  orders    List your orders
  checkout  Place an order for the cart

Global options:
  -api URL     Shop API base URL (default $STOREFRONT_BACKEND_URL)
  -state PATH  Local state file (default $XDG_CONFIG_HOME/storefront/state.json)
  -q           Quiet mode
  -v           Verbose logging
  -no-color    Disable colored output
`)
}

// execute parses flags, opens the local state and stores, runs the command,
// then waits for queued backend writes before the process exits.
func execute(name string, cmd command, args []string) error {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	fs.StringVar(&apiURL, "api", os.Getenv("STOREFRONT_BACKEND_URL"), "Shop API base URL")
	fs.StringVar(&statePath, "state", defaultStatePath(), "Local state file")
	fs.BoolVar(&quiet, "q", false, "Quiet mode")
	fs.BoolVar(&noColor, "no-color", false, "Disable colored output")
	fs.BoolVar(&verbose, "v", false, "Verbose logging")
	if cmd.setup != nil {
		cmd.setup(fs)
	}
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: shopctl %s\n\nOptions:\n", cmd.usage)
		fs.PrintDefaults()
	}
	fs.Parse(args)

	if noColor {
		disableColors()
	}
	if apiURL == "" {
		return errors.New("shop API URL required (-api or STOREFRONT_BACKEND_URL)")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	runErr := cmd.run(a, fs, fs.Args())
	if err := a.close(); err != nil && runErr == nil {
		printWarning("some changes were not saved to your account: %v", err)
	}
	return runErr
}

func defaultStatePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "shopctl-state.json"
	}
	return filepath.Join(dir, "storefront", "state.json")
}

// app is one CLI invocation's view of the store.
type app struct {
	ctx     context.Context
	logger  *slog.Logger
	creds   *credentials.Store
	backend adapter.Backend
	shop    *shop.Store
	orders  *orders.Store
}

func openApp(ctx context.Context) (*app, error) {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	var out io.Writer = os.Stderr
	if quiet && !verbose {
		out = io.Discard
	}
	logger := slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level}))

	local, err := storage.OpenFile(statePath)
	if err != nil {
		return nil, err
	}
	rt, err := transport.New(30*time.Second, transport.DefaultBreakerConfig("shopctl"))
	if err != nil {
		return nil, err
	}
	client, err := backend.New(backend.Config{BaseURL: apiURL, Transport: rt})
	if err != nil {
		return nil, err
	}

	creds := credentials.New(local)
	bound := client.WithCredentials(creds)
	a := &app{
		ctx:     ctx,
		logger:  logger,
		creds:   creds,
		backend: bound,
		shop:    shop.New(ctx, bound, creds, local, shop.WithLogger(logger)),
		orders:  orders.New(bound, creds, logger),
	}
	a.shop.NormalizeLegacy(ctx)
	if err := a.shop.ObserveAuth(ctx, creds.IsAuthenticated(ctx)); err != nil {
		printWarning("could not refresh from your account: %v", err)
	}
	return a, nil
}

func (a *app) close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return a.shop.Close(ctx)
}

// requireArg fails with usage when a required flag is empty.
func requireArg(fs *flag.FlagSet, name, value string) error {
	if value == "" {
		fs.Usage()
		return fmt.Errorf("-%s is required", name)
	}
	return nil
}

// =============================================================================
// ACCOUNT COMMANDS
// =============================================================================

var loginFlags struct{ email, password string }

func init() {
	commands["login"] = command{
		usage: "login -email E -password P",
		setup: func(fs *flag.FlagSet) {
			fs.StringVar(&loginFlags.email, "email", "", "Account email (required)")
			fs.StringVar(&loginFlags.password, "password", "", "Password (required)")
		},
		run: runLogin,
	}
	commands["logout"] = command{usage: "logout", run: runLogout}
	commands["whoami"] = command{usage: "whoami", run: runWhoami}
}

func runLogin(a *app, fs *flag.FlagSet, _ []string) error {
	form := model.LoginForm{Email: loginFlags.email, Password: loginFlags.password}
	if err := model.Validate(form); err != nil {
		return err
	}
	result, err := a.backend.Login(a.ctx, form)
	if err != nil {
		return err
	}
	if err := a.creds.Save(a.ctx, form.Email, form.Password, result.Token, result.User); err != nil {
		return err
	}
	if result.User == nil {
		if me, err := a.backend.Me(a.ctx); err == nil {
			_ = a.creds.SetUser(a.ctx, me)
		}
	}
	if err := a.shop.ObserveAuth(a.ctx, true); err != nil {
		printWarning("signed in, but merging your cart and wishlist failed: %v", err)
	}
	printSuccess("Signed in as %s", form.Email)
	printInfo("%d item(s) in cart, %d in wishlist", a.shop.CartItemsCount(a.ctx), a.shop.WishlistCount(a.ctx))
	return nil
}

func runLogout(a *app, _ *flag.FlagSet, _ []string) error {
	if a.creds.Token(a.ctx) != "" {
		if err := a.backend.Logout(a.ctx); err != nil {
			a.logger.Warn("backend logout failed", "error", err)
		}
	}
	if err := a.creds.Clear(a.ctx); err != nil {
		return err
	}
	a.shop.EndSession(a.ctx)
	printSuccess("Signed out")
	return nil
}

func runWhoami(a *app, _ *flag.FlagSet, _ []string) error {
	if !a.creds.IsAuthenticated(a.ctx) {
		printInfo("Not signed in")
		return nil
	}
	u, err := a.backend.Me(a.ctx)
	if err != nil {
		return err
	}
	_ = a.creds.SetUser(a.ctx, u)
	return printValue(u)
}

// =============================================================================
// CATALOG COMMANDS
// =============================================================================

var productFlags struct {
	id, category, search string
	limit                int
}

func init() {
	commands["products"] = command{
		usage: "products [-category C] [-search Q] [-limit N]",
		setup: func(fs *flag.FlagSet) {
			fs.StringVar(&productFlags.category, "category", "", "Filter by category")
			fs.StringVar(&productFlags.search, "search", "", "Match title or category")
			fs.IntVar(&productFlags.limit, "limit", 24, "Maximum products")
		},
		run: runProducts,
	}
	commands["product"] = command{
		usage: "product -id ID",
		setup: func(fs *flag.FlagSet) {
			fs.StringVar(&productFlags.id, "id", "", "Product ID (required)")
		},
		run: runProduct,
	}
}

func runProducts(a *app, _ *flag.FlagSet, _ []string) error {
	list, err := a.backend.ListProducts(a.ctx, model.ProductQuery{
		Category: productFlags.category,
		Search:   productFlags.search,
		Limit:    productFlags.limit,
	})
	if err != nil {
		return err
	}
	if quiet {
		for _, p := range list {
			fmt.Println(p.ID)
		}
		return nil
	}
	for _, p := range list {
		heart := " "
		if a.shop.InWishlist(p.ID) {
			heart = colorRed + "♥" + colorReset
		}
		fmt.Printf("%s %s%-10s%s %-32s %s%s%s  %s\n", heart, colorCyan, p.ID, colorReset,
			p.Title, colorGreen, p.DiscountedPrice.Display(), colorReset, strings.Join(p.Sizes, "/"))
	}
	return nil
}

func runProduct(a *app, fs *flag.FlagSet, _ []string) error {
	if err := requireArg(fs, "id", productFlags.id); err != nil {
		return err
	}
	p, err := a.backend.GetProduct(a.ctx, productFlags.id)
	if err != nil {
		return err
	}
	return printValue(map[string]any{"product": p, "in_wishlist": a.shop.InWishlist(p.ID)})
}

// =============================================================================
// CART COMMANDS
// =============================================================================

var cartFlags struct {
	product, size string
	qty           int
}

func init() {
	lineFlags := func(defQty int) func(fs *flag.FlagSet) {
		return func(fs *flag.FlagSet) {
			fs.StringVar(&cartFlags.product, "product", "", "Product ID (required)")
			fs.StringVar(&cartFlags.size, "size", "", "Size")
			fs.IntVar(&cartFlags.qty, "qty", defQty, "Quantity")
		}
	}
	commands["cart"] = command{usage: "cart", run: runCart}
	commands["add"] = command{usage: "add -product ID [-size S] [-qty N]", setup: lineFlags(1), run: runAdd}
	commands["set-qty"] = command{usage: "set-qty -product ID [-size S] -qty N", setup: lineFlags(0), run: runSetQty}
	commands["remove"] = command{usage: "remove -product ID [-size S]", setup: lineFlags(0), run: runRemove}
}

func runCart(a *app, _ *flag.FlagSet, _ []string) error {
	lines := a.shop.Cart()
	if len(lines) == 0 {
		printInfo("Cart is empty")
		return nil
	}
	for _, l := range lines {
		size := l.SelectedSize
		if size == "" {
			size = "-"
		}
		fmt.Printf("  %s%-10s%s %-32s %-4s x%-3d %s\n", colorCyan, l.ProductID, colorReset,
			l.Title, size, l.Quantity, l.LineTotal().Display())
	}
	fmt.Printf("  %sTotal:%s %s%s%s (%d items)\n", colorBold, colorReset,
		colorGreen, a.shop.CartTotal().Display(), colorReset, a.shop.CartItemsCount(a.ctx))
	return nil
}

func runAdd(a *app, fs *flag.FlagSet, _ []string) error {
	if err := requireArg(fs, "product", cartFlags.product); err != nil {
		return err
	}
	if !a.creds.IsAuthenticated(a.ctx) {
		return model.NewAuthRequiredError("add items to your cart")
	}
	p, err := a.backend.GetProduct(a.ctx, cartFlags.product)
	if err != nil {
		return err
	}
	if len(p.Sizes) > 0 && cartFlags.size == "" {
		return fmt.Errorf("choose a size: %s", strings.Join(p.Sizes, ", "))
	}
	if err := a.shop.AddToCart(a.ctx, p, cartFlags.qty, cartFlags.size); err != nil {
		return err
	}
	printSuccess("Added %s to cart", p.Title)
	return runCart(a, fs, nil)
}

func runSetQty(a *app, fs *flag.FlagSet, _ []string) error {
	if err := requireArg(fs, "product", cartFlags.product); err != nil {
		return err
	}
	a.shop.UpdateCartQuantity(a.ctx, cartFlags.product, cartFlags.size, cartFlags.qty)
	return runCart(a, fs, nil)
}

func runRemove(a *app, fs *flag.FlagSet, _ []string) error {
	if err := requireArg(fs, "product", cartFlags.product); err != nil {
		return err
	}
	a.shop.RemoveFromCart(a.ctx, cartFlags.product, cartFlags.size)
	return runCart(a, fs, nil)
}

// =============================================================================
// WISHLIST COMMANDS
// =============================================================================

func init() {
	commands["wishlist"] = command{usage: "wishlist", run: runWishlist}
	commands["toggle"] = command{
		usage: "toggle -product ID",
		setup: func(fs *flag.FlagSet) {
			fs.StringVar(&cartFlags.product, "product", "", "Product ID (required)")
		},
		run: runToggle,
	}
}

func runWishlist(a *app, _ *flag.FlagSet, _ []string) error {
	entries := a.shop.Wishlist()
	if len(entries) == 0 {
		printInfo("Wishlist is empty")
		return nil
	}
	for _, e := range entries {
		fmt.Printf("  %s%-10s%s %-32s %s\n", colorCyan, e.ProductID, colorReset, e.Title, e.Price.Display())
	}
	return nil
}

func runToggle(a *app, fs *flag.FlagSet, _ []string) error {
	if err := requireArg(fs, "product", cartFlags.product); err != nil {
		return err
	}
	if !a.creds.IsAuthenticated(a.ctx) {
		return model.NewAuthRequiredError("save items to your wishlist")
	}
	p, err := a.backend.GetProduct(a.ctx, cartFlags.product)
	if err != nil {
		return err
	}
	in, err := a.shop.ToggleWishlist(a.ctx, p)
	if err != nil {
		return err
	}
	if in {
		printSuccess("Saved %s", p.Title)
	} else {
		printSuccess("Removed %s", p.Title)
	}
	return nil
}

// =============================================================================
// ORDER COMMANDS
// =============================================================================

var checkoutFlags struct {
	name, phone, line1, city, payment, email, note string
}

func init() {
	commands["orders"] = command{usage: "orders", run: runOrders}
	commands["checkout"] = command{
		usage: "checkout -name N -phone P -line1 L -city C [-payment cod|bkash|card]",
		setup: func(fs *flag.FlagSet) {
			fs.StringVar(&checkoutFlags.name, "name", "", "Recipient name (required)")
			fs.StringVar(&checkoutFlags.phone, "phone", "", "Phone (required)")
			fs.StringVar(&checkoutFlags.line1, "line1", "", "Address line (required)")
			fs.StringVar(&checkoutFlags.city, "city", "", "City (required)")
			fs.StringVar(&checkoutFlags.payment, "payment", "cod", "Payment method")
			fs.StringVar(&checkoutFlags.email, "email", "", "Contact email")
			fs.StringVar(&checkoutFlags.note, "note", "", "Order note")
		},
		run: runCheckout,
	}
}

func runOrders(a *app, _ *flag.FlagSet, _ []string) error {
	list, err := a.orders.Load(a.ctx)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		printInfo("No orders yet")
		return nil
	}
	for _, o := range list {
		created := ""
		if o.CreatedAt != nil {
			created = o.CreatedAt.Format("2006-01-02")
		}
		fmt.Printf("  %s%-14s%s %-16s %-10s %s\n", colorCyan, o.ID, colorReset, o.Status, created, o.Total.Display())
	}
	return nil
}

func runCheckout(a *app, _ *flag.FlagSet, _ []string) error {
	form := model.CheckoutForm{
		ShippingAddress: model.Address{
			FullName: checkoutFlags.name,
			Phone:    checkoutFlags.phone,
			Line1:    checkoutFlags.line1,
			City:     checkoutFlags.city,
		},
		PaymentMethod: checkoutFlags.payment,
		Email:         checkoutFlags.email,
		Note:          checkoutFlags.note,
	}
	if err := model.Validate(form); err != nil {
		return err
	}
	lines := a.shop.Cart()
	if len(lines) == 0 {
		return errors.New("cart is empty")
	}
	if err := a.shop.PushCart(a.ctx); err != nil {
		return err
	}
	order, err := a.orders.PlaceOrder(a.ctx, form, lines)
	if err != nil {
		return err
	}
	a.shop.ClearCart(a.ctx)

	if quiet {
		fmt.Println(order.ID)
		return nil
	}
	printSuccess("Order placed")
	fmt.Printf("  ID: %s%s%s\n  Total: %s%s%s\n", colorCyan, order.ID, colorReset, colorGreen, order.Total.Display(), colorReset)
	return nil
}

// =============================================================================
// OUTPUT HELPERS
// =============================================================================

func printValue(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	printJSON(data, "  ")
	return nil
}

func printJSON(data []byte, prefix string) {
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, data, prefix, "  "); err != nil {
		fmt.Printf("%s%s\n", prefix, string(data))
		return
	}
	fmt.Println(prefix + pretty.String())
}

func printSuccess(format string, args ...interface{}) {
	if !quiet {
		fmt.Printf("%s✓ %s%s\n", colorGreen, fmt.Sprintf(format, args...), colorReset)
	}
}

func printWarning(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "%s⚠ %s%s\n", colorYellow, fmt.Sprintf(format, args...), colorReset)
}

func printInfo(format string, args ...interface{}) {
	if !quiet {
		fmt.Printf("%s→ %s%s\n", colorGray, fmt.Sprintf(format, args...), colorReset)
	}
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "%s✗ %s%s\n", colorRed, fmt.Sprintf(format, args...), colorReset)
	os.Exit(1)
}
