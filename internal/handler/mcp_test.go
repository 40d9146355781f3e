package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// jsonrpcRequest is a JSON-RPC 2.0 request structure for testing.
type jsonrpcRequest struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
}

// jsonrpcResponse is a JSON-RPC 2.0 response structure for testing.
type jsonrpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *jsonrpcError   `json:"error,omitempty"`
}

type jsonrpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// toolCallParams represents the params for tools/call method.
type toolCallParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// callToolResult is the expected result structure from a tool call.
type callToolResult struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text,omitempty"`
	} `json:"content"`
	IsError bool `json:"isError,omitempty"`
}

// mcpClient drives the /mcp endpoint over one storefront session.
type mcpClient struct {
	*testClient
	sessionID string
	nextID    int
}

func (c *testClient) mcp() *mcpClient {
	c.t.Helper()
	m := &mcpClient{testClient: c, nextID: 1}
	resp := m.rpc("initialize", map[string]interface{}{
		"protocolVersion": "2026-01-11",
		"clientInfo":      map[string]string{"name": "test", "version": "1.0"},
		"capabilities":    map[string]interface{}{},
	})
	require.Nil(c.t, resp.Error)
	return m
}

func (m *mcpClient) rpc(method string, params interface{}) jsonrpcResponse {
	m.t.Helper()
	body, err := json.Marshal(jsonrpcRequest{JSONRPC: "2.0", ID: m.nextID, Method: method, Params: params})
	require.NoError(m.t, err)
	m.nextID++

	req := httptest.NewRequest(http.MethodPost, "/mcp", bytes.NewReader(body))
	setMCPHeaders(req, m.sessionID)
	w := m.send(req)
	require.Equal(m.t, http.StatusOK, w.Code, w.Body.String())
	if id := w.Header().Get("Mcp-Session-Id"); id != "" {
		m.sessionID = id
	}

	var resp jsonrpcResponse
	require.NoError(m.t, json.Unmarshal(parseSSEResponse(w.Body.String()), &resp))
	return resp
}

func (m *mcpClient) callTool(name string, args interface{}) callToolResult {
	m.t.Helper()
	raw, err := json.Marshal(args)
	require.NoError(m.t, err)
	resp := m.rpc("tools/call", toolCallParams{Name: name, Arguments: raw})
	require.Nil(m.t, resp.Error, "rpc error")

	var result callToolResult
	require.NoError(m.t, json.Unmarshal(resp.Result, &result))
	return result
}

// toolText decodes the first text content of a successful call into v.
func toolText(t *testing.T, result callToolResult, v interface{}) {
	t.Helper()
	require.False(t, result.IsError, "tool error: %+v", result.Content)
	require.NotEmpty(t, result.Content)
	require.NoError(t, json.Unmarshal([]byte(result.Content[0].Text), v))
}

func TestMCPInitialize(t *testing.T) {
	env := newTestEnv(t)
	c := env.client(t)
	m := c.mcp()

	assert.NotEmpty(t, m.sessionID)
	assert.NotNil(t, c.cookie, "initialize should establish a storefront session")
}

func TestMCPToolsList(t *testing.T) {
	env := newTestEnv(t)
	m := env.client(t).mcp()

	resp := m.rpc("tools/list", map[string]interface{}{})
	require.Nil(t, resp.Error)

	var result struct {
		Tools []struct {
			Name string `json:"name"`
		} `json:"tools"`
	}
	require.NoError(t, json.Unmarshal(resp.Result, &result))

	names := make([]string, len(result.Tools))
	for i, tool := range result.Tools {
		names[i] = tool.Name
	}
	assert.ElementsMatch(t, []string{
		"list_products", "get_product", "view_cart", "add_to_cart",
		"update_cart_quantity", "toggle_wishlist", "view_wishlist", "list_orders",
	}, names)
}

func TestMCPListProducts(t *testing.T) {
	env := newTestEnv(t,
		testProduct("p1", "Cotton Kurta", "men", 1000),
		testProduct("p2", "Silk Saree", "women", 5000),
	)
	m := env.client(t).mcp()

	var out struct {
		Products []productView `json:"products"`
	}
	toolText(t, m.callTool("list_products", ListProductsInput{Category: "women"}), &out)
	require.Len(t, out.Products, 1)
	assert.Equal(t, "p2", out.Products[0].ID)
}

func TestMCPAddToCartRequiresSignIn(t *testing.T) {
	env := newTestEnv(t, testProduct("p1", "Kurta", "men", 100))
	m := env.client(t).mcp()

	result := m.callTool("add_to_cart", CartLineInput{ProductID: "p1", Quantity: 1})

	assert.True(t, result.IsError)
	require.NotEmpty(t, result.Content)
	assert.Contains(t, result.Content[0].Text, "AUTH_REQUIRED")
	assert.Zero(t, env.backend.CallCount("GetProduct"))
}

func TestMCPSharesSessionWithViews(t *testing.T) {
	env := newTestEnv(t, testProduct("p1", "Kurta", "men", 100, "M"))
	c := env.client(t)
	c.login("shopper@example.com")
	m := c.mcp()

	var cart cartView
	toolText(t, m.callTool("add_to_cart", CartLineInput{ProductID: "p1", Size: "M", Quantity: 2}), &cart)
	assert.Equal(t, 2, cart.Count)

	// The JSON view sees the line the tool added.
	decodeBody(t, c.do(http.MethodGet, "/api/cart", nil), &cart)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, "M", cart.Items[0].SelectedSize)

	toolText(t, m.callTool("update_cart_quantity", CartLineInput{ProductID: "p1", Size: "M", Quantity: 0}), &cart)
	assert.Empty(t, cart.Items)
}

func TestMCPAddToCartUnknownSize(t *testing.T) {
	env := newTestEnv(t, testProduct("p1", "Kurta", "men", 100, "M"))
	c := env.client(t)
	c.login("shopper@example.com")
	m := c.mcp()

	result := m.callTool("add_to_cart", CartLineInput{ProductID: "p1", Size: "XL"})

	assert.True(t, result.IsError)
	assert.Contains(t, result.Content[0].Text, "VALIDATION_ERROR")
}

func TestMCPToggleWishlist(t *testing.T) {
	env := newTestEnv(t, testProduct("p1", "Kurta", "men", 100))
	c := env.client(t)
	c.login("shopper@example.com")
	m := c.mcp()

	var out struct {
		InWishlist bool `json:"in_wishlist"`
	}
	toolText(t, m.callTool("toggle_wishlist", ProductInput{ProductID: "p1"}), &out)
	assert.True(t, out.InWishlist)
	assert.Equal(t, []string{"p1"}, env.backend.ServerWishlist())

	var wl wishlistView
	toolText(t, m.callTool("view_wishlist", EmptyInput{}), &wl)
	assert.Equal(t, 1, wl.Count)
}

func TestMCPListOrdersRequiresSignIn(t *testing.T) {
	env := newTestEnv(t)
	m := env.client(t).mcp()

	result := m.callTool("list_orders", EmptyInput{})
	assert.True(t, result.IsError)
	assert.Zero(t, env.backend.CallCount("ListOrders"))
}

func TestMCPRequestsCounted(t *testing.T) {
	env := newTestEnv(t)
	env.client(t).mcp()

	w := env.client(t).do(http.MethodGet, "/metrics", nil)
	assert.Contains(t, w.Body.String(), `route="mcp"`)
}

// setMCPHeaders sets the required headers for MCP Streamable HTTP requests.
func setMCPHeaders(req *http.Request, sessionID string) {
	req.Header.Set("Content-Type", "application/json")
	// MCP Streamable HTTP requires Accept header with both json and event-stream
	req.Header.Set("Accept", "application/json, text/event-stream")
	if sessionID != "" {
		req.Header.Set("Mcp-Session-Id", sessionID)
	}
}

// parseSSEResponse extracts JSON data from SSE formatted response.
// SSE format: "event: message\ndata: {json}\n\n"
func parseSSEResponse(body string) []byte {
	for _, line := range strings.Split(body, "\n") {
		if strings.HasPrefix(line, "data: ") {
			return []byte(strings.TrimPrefix(line, "data: "))
		}
	}
	// If no SSE format found, assume plain JSON
	return []byte(body)
}
