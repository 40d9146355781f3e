// MCP transport for the storefront using the official MCP Go SDK.
// Each MCP session is bound to the storefront session that initialized it,
// so tools see the same cart, wishlist and credentials as the JSON views.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"storefront/internal/model"
	"storefront/internal/session"
)

// === MCP Tool Input Types ===

// ListProductsInput is the input schema for list_products.
type ListProductsInput struct {
	Category string `json:"category,omitempty" jsonschema:"category name to filter by"`
	Search   string `json:"search,omitempty" jsonschema:"text to match against title or category"`
	Limit    int    `json:"limit,omitempty" jsonschema:"maximum number of products"`
}

// ProductInput names one product.
type ProductInput struct {
	ProductID string `json:"product_id" jsonschema:"product ID"`
}

// CartLineInput addresses one cart line.
type CartLineInput struct {
	ProductID string `json:"product_id" jsonschema:"product ID"`
	Size      string `json:"size,omitempty" jsonschema:"selected size, required when the product lists sizes"`
	Quantity  int    `json:"quantity,omitempty" jsonschema:"quantity; defaults to 1 when adding, 0 removes when updating"`
}

// EmptyInput is the input schema for tools without arguments.
type EmptyInput struct{}

// NewMCPServer creates an MCP server whose tools act on s.
func (h *Handler) NewMCPServer(s *session.Session) *mcp.Server {
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "storefront",
			Version: "1.0.0",
		},
		&mcp.ServerOptions{
			Instructions: "Clothing storefront. Browse products, manage the signed-in shopper's cart " +
				"and wishlist, and list their orders. Cart and wishlist changes require a signed-in session.",
		},
	)
	t := &mcpTools{s: s}

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_products",
		Description: "List products, optionally filtered by category or search text.",
	}, t.listProducts)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_product",
		Description: "Get one product with its sizes, price and discount.",
	}, t.getProduct)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "view_cart",
		Description: "Show the cart lines, total and item count.",
	}, t.viewCart)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "add_to_cart",
		Description: "Add a product in a size to the cart. Quantities for the same product and size add up.",
	}, t.addToCart)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "update_cart_quantity",
		Description: "Set the quantity of a cart line. Zero removes the line.",
	}, t.updateCartQuantity)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "toggle_wishlist",
		Description: "Add a product to the wishlist, or remove it if already there.",
	}, t.toggleWishlist)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "view_wishlist",
		Description: "Show the wishlist.",
	}, t.viewWishlist)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_orders",
		Description: "List the signed-in shopper's orders.",
	}, t.listOrders)

	return server
}

// NewMCPHandler returns an HTTP handler for the MCP endpoint. It must run
// behind the session middleware.
func (h *Handler) NewMCPHandler() http.Handler {
	return mcp.NewStreamableHTTPHandler(
		func(r *http.Request) *mcp.Server {
			s := session.FromContext(r.Context())
			if s == nil {
				return nil
			}
			return h.NewMCPServer(s)
		},
		nil,
	)
}

// mcpTools binds tool handlers to one storefront session.
type mcpTools struct {
	s *session.Session
}

// === Tool Handlers ===

func (t *mcpTools) listProducts(ctx context.Context, req *mcp.CallToolRequest, in ListProductsInput) (*mcp.CallToolResult, any, error) {
	limit := in.Limit
	if limit <= 0 || limit > 100 {
		limit = pageSize
	}
	products, err := t.s.Backend.ListProducts(ctx, model.ProductQuery{Category: in.Category, Search: in.Search, Limit: limit})
	if err != nil {
		return nil, nil, t.mcpError(err)
	}
	if in.Search != "" {
		products = MatchProducts(products, in.Search)
	}
	return textResult(map[string]any{"products": viewProducts(t.s, products)})
}

func (t *mcpTools) getProduct(ctx context.Context, req *mcp.CallToolRequest, in ProductInput) (*mcp.CallToolResult, any, error) {
	if in.ProductID == "" {
		return nil, nil, fmt.Errorf("product_id is required")
	}
	p, err := t.s.Backend.GetProduct(ctx, in.ProductID)
	if err != nil {
		return nil, nil, t.mcpError(err)
	}
	return textResult(productView{Product: *p, InWishlist: t.s.Shop.InWishlist(p.ID)})
}

func (t *mcpTools) viewCart(ctx context.Context, req *mcp.CallToolRequest, _ EmptyInput) (*mcp.CallToolResult, any, error) {
	return textResult(t.cart(ctx))
}

func (t *mcpTools) addToCart(ctx context.Context, req *mcp.CallToolRequest, in CartLineInput) (*mcp.CallToolResult, any, error) {
	if !t.s.Creds.IsAuthenticated(ctx) {
		return nil, nil, t.mcpError(model.NewAuthRequiredError("add items to your cart"))
	}
	if in.ProductID == "" {
		return nil, nil, fmt.Errorf("product_id is required")
	}
	p, err := t.s.Backend.GetProduct(ctx, in.ProductID)
	if err != nil {
		return nil, nil, t.mcpError(err)
	}
	if err := checkSize(p, in.Size); err != nil {
		return nil, nil, t.mcpError(err)
	}
	if err := t.s.Shop.AddToCart(ctx, p, in.Quantity, in.Size); err != nil {
		return nil, nil, t.mcpError(err)
	}
	return textResult(t.cart(ctx))
}

func (t *mcpTools) updateCartQuantity(ctx context.Context, req *mcp.CallToolRequest, in CartLineInput) (*mcp.CallToolResult, any, error) {
	if in.ProductID == "" {
		return nil, nil, fmt.Errorf("product_id is required")
	}
	t.s.Shop.UpdateCartQuantity(ctx, in.ProductID, in.Size, in.Quantity)
	return textResult(t.cart(ctx))
}

func (t *mcpTools) toggleWishlist(ctx context.Context, req *mcp.CallToolRequest, in ProductInput) (*mcp.CallToolResult, any, error) {
	if !t.s.Creds.IsAuthenticated(ctx) {
		return nil, nil, t.mcpError(model.NewAuthRequiredError("save items to your wishlist"))
	}
	if in.ProductID == "" {
		return nil, nil, fmt.Errorf("product_id is required")
	}
	p, err := t.s.Backend.GetProduct(ctx, in.ProductID)
	if err != nil {
		return nil, nil, t.mcpError(err)
	}
	inWishlist, err := t.s.Shop.ToggleWishlist(ctx, p)
	if err != nil {
		return nil, nil, t.mcpError(err)
	}
	return textResult(map[string]any{"product_id": p.ID, "in_wishlist": inWishlist})
}

func (t *mcpTools) viewWishlist(ctx context.Context, req *mcp.CallToolRequest, _ EmptyInput) (*mcp.CallToolResult, any, error) {
	return textResult(wishlistView{Items: t.s.Shop.Wishlist(), Count: t.s.Shop.WishlistCount(ctx)})
}

func (t *mcpTools) listOrders(ctx context.Context, req *mcp.CallToolRequest, _ EmptyInput) (*mcp.CallToolResult, any, error) {
	list, err := t.s.Orders.Load(ctx)
	if err != nil {
		return nil, nil, t.mcpError(err)
	}
	return textResult(map[string]any{"orders": nonNil(list)})
}

func (t *mcpTools) cart(ctx context.Context) cartView {
	return cartView{Items: t.s.Shop.Cart(), Total: t.s.Shop.CartTotal(), Count: t.s.Shop.CartItemsCount(ctx)}
}

// textResult returns v as JSON text content. Money values carry their own
// JSON shape, so no output schema is declared.
func textResult(v any) (*mcp.CallToolResult, any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, nil, fmt.Errorf("internal error")
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
	}, nil, nil
}

// mcpError converts store and backend errors to MCP-friendly errors.
func (t *mcpTools) mcpError(err error) error {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%s: %s", apiErr.Code, apiErr.Message)
	}
	// Don't leak internal error details
	t.s.Logger.Error("mcp internal error", "error", err.Error())
	return fmt.Errorf("internal error")
}
