package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/ikkim/udonggeum-checkout/internal/app/repository"
	"github.com/ikkim/udonggeum-checkout/internal/app/service"
	"github.com/ikkim/udonggeum-checkout/internal/db"
	"github.com/ikkim/udonggeum-checkout/internal/engine/cart"
	"github.com/ikkim/udonggeum-checkout/internal/middleware"
	ws "github.com/ikkim/udonggeum-checkout/internal/websocket"
	"github.com/ikkim/udonggeum-checkout/pkg/redis"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type socketMessage struct {
	Type    string            `json:"type"`
	Version uint64            `json:"version"`
	Cart    *service.CartView `json:"cart"`
}

func setupCartSocketTest(t *testing.T) (*gin.Engine, *ws.Hub, *httptest.Server) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	catalogService := service.NewCatalogService(
		service.NewDBCatalogSource(repository.NewCatalogRepository(testDB)),
		redis.NewCatalogCache(nil, time.Minute),
		0,
	)
	couponService := service.NewCouponService(repository.NewCouponRepository(testDB))
	shipping := service.ShippingRuleFor(decimal.NewFromInt(50000), decimal.NewFromInt(3000))

	render := service.RenderCart(couponService, shipping)
	hub := ws.NewHub(func(shopperID string, snapshot cart.Snapshot) (interface{}, error) {
		return render(shopperID, snapshot)
	})
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	carts := service.NewCartRegistry(repository.NewCartRepository(testDB), hub, 99)
	shoppingService := service.NewShoppingService(catalogService, carts, couponService, shipping)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(middleware.LoggingMiddleware())
	shopper := router.Group("/", middleware.RequireShopper())
	shopper.POST("/products/:id/variants/cart", NewVariantController(shoppingService).AddToCart)
	shopper.GET("/ws/cart", NewCartSocketController(shoppingService, hub, []string{"http://localhost:5173"}).Connect)
	router.PUT("/admin/catalogs/:id", NewCatalogController(catalogService).PutCatalog)

	w := doRequest(router, http.MethodPut, "/admin/catalogs/phone-1", "application/json", []byte(phoneCatalogJSON))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	server := httptest.NewServer(router)
	t.Cleanup(func() {
		server.Close()
		cancel()
	})
	return router, hub, server
}

func dialCart(t *testing.T, server *httptest.Server, header http.Header) (*websocket.Conn, *http.Response, error) {
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/cart"
	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	if conn != nil {
		t.Cleanup(func() { conn.Close() })
	}
	return conn, resp, err
}

func readSocket(t *testing.T, conn *websocket.Conn) socketMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var msg socketMessage
	require.NoError(t, json.Unmarshal(data, &msg), string(data))
	return msg
}

func TestCartSocket_PushesCartChanges(t *testing.T) {
	router, hub, server := setupCartSocketTest(t)

	conn, _, err := dialCart(t, server, http.Header{middleware.ShopperIDHeader: {testShopper}})
	require.NoError(t, err)

	initial := readSocket(t, conn)
	assert.Equal(t, ws.CartSnapshotType, initial.Type)
	require.NotNil(t, initial.Cart)
	assert.Equal(t, 0, initial.Cart.LineCount)

	require.Eventually(t, func() bool { return hub.IsShopperOnline(testShopper) }, 2*time.Second, 10*time.Millisecond)
	w := doJSON(t, router, http.MethodPost, "/products/phone-1/variants/cart", nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	pushed := readSocket(t, conn)
	assert.Equal(t, ws.CartSnapshotType, pushed.Type)
	require.NotNil(t, pushed.Cart)
	assert.Equal(t, 1, pushed.Cart.LineCount)
	assert.Equal(t, pushed.Version, pushed.Cart.Version)
	assert.True(t, pushed.Cart.SelectedTotal.Equal(decimal.NewFromInt(3899)))
	assert.True(t, pushed.Cart.Pricing.Total.Equal(decimal.NewFromInt(6899)))
}

func TestCartSocket_Rejections(t *testing.T) {
	_, _, server := setupCartSocketTest(t)

	t.Run("Missing shopper", func(t *testing.T) {
		_, resp, err := dialCart(t, server, nil)
		require.Error(t, err)
		require.NotNil(t, resp)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("Foreign origin", func(t *testing.T) {
		_, resp, err := dialCart(t, server, http.Header{
			middleware.ShopperIDHeader: {testShopper},
			"Origin":                   {"https://evil.example"},
		})
		require.Error(t, err)
		require.NotNil(t, resp)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})
}
