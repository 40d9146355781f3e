package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/model"
)

// staticCreds is a fixed credential source.
type staticCreds struct {
	basic string
	token string
}

func (s staticCreds) BasicAuth(context.Context) (string, bool) { return s.basic, s.basic != "" }
func (s staticCreds) Token(context.Context) string             { return s.token }

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(Config{BaseURL: srv.URL})
	require.NoError(t, err)
	return c.WithCredentials(staticCreds{basic: "Basic dTpw", token: "tok"})
}

func TestNew_RequiresBaseURL(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}

func TestPublicReadSendsNoAuth(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		assert.Equal(t, "/api/products/", r.URL.Path)
		assert.Equal(t, "men", r.URL.Query().Get("category"))
		assert.Equal(t, "20", r.URL.Query().Get("limit"))
		_, _ = io.WriteString(w, `{"items":[{"id":"p1","title":"Kurta","price":1000,"discount":20}]}`)
	})

	products, err := c.ListProducts(context.Background(), model.ProductQuery{Category: "men", Limit: 20})
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.True(t, products[0].DiscountedPrice.Amount.Equal(decimal.NewFromInt(800)))
}

func TestBasicAuthAttached(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Basic dTpw", r.Header.Get("Authorization"))
		_, _ = io.WriteString(w, `[{"productId":"p1","selectedSize":"M","quantity":2},{"product_id":"p2","size":"L","quantity":"1"}]`)
	})

	refs, err := c.GetCart(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []model.CartItemRef{
		{ProductID: "p1", SelectedSize: "M", Quantity: 2},
		{ProductID: "p2", SelectedSize: "L", Quantity: 1},
	}, refs)
}

func TestLogoutUsesBearer(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/auth/logout", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusNoContent)
	})
	require.NoError(t, c.Logout(context.Background()))
}

func TestMissingCredentialsFailsBeforeNetwork(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	c, err := New(Config{BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = c.GetCart(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrAuthRequired))
	assert.Zero(t, hits.Load())
}

func TestErrorNormalization(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantMsg  string
		wantCode string
		sentinel error
	}{
		{"detail string", 401, `{"detail":"Invalid credentials"}`, "Invalid credentials", "UNAUTHORIZED", model.ErrUnauthorized},
		{"detail list", 422, `{"detail":[{"msg":"field required"},{"msg":"too short"}]}`, "field required; too short", "VALIDATION_ERROR", model.ErrInvalidRequest},
		{"message field", 404, `{"message":"No such product"}`, "No such product", "NOT_FOUND", model.ErrNotFound},
		{"non-json body", 500, `<html>oops</html>`, "Internal Server Error", "UPSTREAM_ERROR", model.ErrUpstreamError},
		{"forbidden", 403, `{}`, "Forbidden", "FORBIDDEN", model.ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})

			_, err := c.GetProduct(context.Background(), "p1")
			require.Error(t, err)

			var apiErr *model.APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.wantMsg, apiErr.Message)
			assert.Equal(t, tt.wantCode, apiErr.Code)
			assert.True(t, errors.Is(err, tt.sentinel))
			assert.True(t, IsStatus(err, tt.status))
		})
	}
}

func TestErrorBodyKept(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"detail":"bad","field":"email"}`)
	})
	_, err := c.Register(context.Background(), model.RegisterForm{Email: "x"})

	var apiErr *model.APIError
	require.True(t, errors.As(err, &apiErr))
	body, ok := apiErr.Body.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "email", body["field"])
}

func TestTransportErrorIsUpstream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	c, err := New(Config{BaseURL: url})
	require.NoError(t, err)
	_, err = c.ListProducts(context.Background(), model.ProductQuery{})
	assert.True(t, errors.Is(err, model.ErrUpstreamError))
}

func TestCartVerbs(t *testing.T) {
	type call struct {
		method, query string
		body          map[string]any
	}
	var calls []call
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/cart/", r.URL.Path)
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		calls = append(calls, call{r.Method, r.URL.RawQuery, body})
		w.WriteHeader(http.StatusOK)
	})
	ctx := context.Background()
	ref := model.CartItemRef{ProductID: "p1", SelectedSize: "M", Quantity: 3}

	require.NoError(t, c.AddCartItem(ctx, ref))
	require.NoError(t, c.UpdateCartItem(ctx, ref))
	require.NoError(t, c.RemoveCartItem(ctx, "p1", "M"))
	require.NoError(t, c.ClearCart(ctx))

	require.Len(t, calls, 4)
	assert.Equal(t, http.MethodPost, calls[0].method)
	assert.Equal(t, "p1", calls[0].body["productId"])
	assert.EqualValues(t, 3, calls[0].body["quantity"])
	assert.Equal(t, http.MethodPut, calls[1].method)
	assert.Equal(t, http.MethodDelete, calls[2].method)
	assert.Equal(t, "productId=p1&selectedSize=M", calls[2].query)
	assert.Equal(t, http.MethodDelete, calls[3].method)
	assert.Empty(t, calls[3].query)
}

func TestWishlistEndpoints(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/wishlist/":
			_, _ = io.WriteString(w, `["p1", 2, {"productId":"p3"}, {"product":{"_id":"p4"}}, "p1"]`)
		case r.Method == http.MethodPost && r.URL.Path == "/api/wishlist/toggle":
			assert.Equal(t, "p9", r.URL.Query().Get("productId"))
		case r.Method == http.MethodDelete && r.URL.Path == "/api/wishlist/":
			assert.Equal(t, "p9", r.URL.Query().Get("productId"))
		default:
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
	})
	ctx := context.Background()

	ids, err := c.GetWishlist(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"p1", "2", "p3", "p4"}, ids)
	require.NoError(t, c.ToggleWishlist(ctx, "p9"))
	require.NoError(t, c.RemoveWishlist(ctx, "p9"))
}

func TestCreateProductMultipart(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/products/admin", r.URL.Path)
		require.True(t, strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data"))
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "Kurta", r.FormValue("title"))
		assert.Equal(t, "1200", r.FormValue("price"))
		assert.Equal(t, `["S","M"]`, r.FormValue("sizes"))
		assert.Empty(t, r.MultipartForm.Value["discount"], "empty optional fields are omitted")

		files := r.MultipartForm.File["images"]
		require.Len(t, files, 1)
		assert.Equal(t, "front.jpg", files[0].Filename)

		_, _ = io.WriteString(w, `{"id":"new","title":"Kurta","price":1200}`)
	})

	p, err := c.CreateProduct(context.Background(), model.ProductForm{
		Title:    "Kurta",
		Category: "men",
		Price:    "1200",
		Sizes:    []string{"S", "M"},
		Images:   []model.Upload{{Filename: "front.jpg", ContentType: "image/jpeg", Data: []byte{0xff, 0xd8}}},
	})
	require.NoError(t, err)
	assert.Equal(t, "new", p.ID)
}

func TestBannerMultipartActiveFlag(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/hero-banners/b1", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "false", r.FormValue("is_active"))
		assert.Empty(t, r.MultipartForm.File["image"])
		_, _ = io.WriteString(w, `{}`)
	})

	inactive := false
	b, err := c.UpdateBanner(context.Background(), "b1", model.BannerForm{Title: "Sale", Active: &inactive})
	require.NoError(t, err)
	assert.Equal(t, "b1", b.ID)
}

func TestPlaceOrder(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body placeOrderBody
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Len(t, body.Items, 2)
		assert.Equal(t, "250", body.TotalAmount)
		assert.Equal(t, "cod", body.PaymentMethod)
		_, _ = io.WriteString(w, `{"id":"o1","status":"pending","total":250}`)
	})

	lines := []model.CartLine{
		{ProductID: "p1", Quantity: 2, Price: model.MoneyFromInt(100)},
		{ProductID: "p2", Quantity: 1, Price: model.MoneyFromInt(50)},
	}
	order, err := c.PlaceOrder(context.Background(), model.CheckoutForm{PaymentMethod: "cod"}, lines)
	require.NoError(t, err)
	assert.Equal(t, "o1", order.ID)
	assert.Equal(t, model.OrderPending, order.Status)
}

func TestPlaceOrderEmptyCart(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})
	_, err := c.PlaceOrder(context.Background(), model.CheckoutForm{}, nil)
	assert.True(t, errors.Is(err, model.ErrInvalidRequest))
}

func TestLogin(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		_, _ = io.WriteString(w, `{"access_token":"jwt","token_type":"bearer","user":{"id":1,"name":"Rina","email":"r@x.com"}}`)
	})
	res, err := c.Login(context.Background(), model.LoginForm{Email: "r@x.com", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "jwt", res.Token)
	require.NotNil(t, res.User)
	assert.Equal(t, "Rina", res.User.Name)
}

func TestPublicPaymentConfigHidesMerchantKeys(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"cod_enabled":true,"delivery_charge":"60","merchant_secret":"leaked"}`)
	})
	cfg, err := c.PaymentConfig(context.Background())
	require.NoError(t, err)
	assert.True(t, cfg.CODEnabled)
	assert.True(t, cfg.DeliveryCharge.Amount.Equal(decimal.NewFromInt(60)))
	assert.Empty(t, cfg.MerchantSecret)
}

func TestCategories(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[{"name":"men"},{"name":"women"}]`)
	})
	cats, err := c.Categories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"men", "women"}, cats)
}
