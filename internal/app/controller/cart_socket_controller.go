package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/ikkim/udonggeum-checkout/internal/app/service"
	"github.com/ikkim/udonggeum-checkout/internal/middleware"
	ws "github.com/ikkim/udonggeum-checkout/internal/websocket"
)

type CartSocketController struct {
	shoppingService service.ShoppingService
	hub             *ws.Hub
	upgrader        websocket.Upgrader
}

func NewCartSocketController(shoppingService service.ShoppingService, hub *ws.Hub, allowedOrigins []string) *CartSocketController {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[origin] = true
	}

	return &CartSocketController{
		shoppingService: shoppingService,
		hub:             hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				// 브라우저가 아닌 클라이언트는 Origin을 보내지 않음
				return origin == "" || allowed["*"] || allowed[origin]
			},
		},
	}
}

// Connect upgrades to a websocket that receives the shopper's cart on every change
// GET /ws/cart
func (ctrl *CartSocketController) Connect(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	shopperID, ok := requireShopper(c)
	if !ok {
		return
	}

	view, err := ctrl.shoppingService.GetCart(shopperID)
	if err != nil {
		respondError(c, err, "get cart")
		return
	}

	conn, err := ctrl.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("Failed to upgrade to WebSocket", err)
		return
	}

	initial := ws.CartMessage{Type: ws.CartSnapshotType, Version: view.Version, Cart: view}
	if _, err := ctrl.hub.Attach(conn, shopperID, initial); err != nil {
		log.Error("Failed to attach WebSocket client", err)
		conn.Close()
		return
	}

	log.Info("WebSocket connection established", map[string]interface{}{
		"shopper_id": shopperID,
	})
}
