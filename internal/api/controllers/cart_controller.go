package controllers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"shoply/internal/models/request_models"
	"shoply/internal/services"
	"shoply/pkg/middleware"
	"shoply/pkg/pubsub"
	"shoply/pkg/utils"
)

type CartController struct {
	cartService services.CartService
	broker      *pubsub.Broker
}

func NewCartController(cartService services.CartService, broker *pubsub.Broker) *CartController {
	return &CartController{
		cartService: cartService,
		broker:      broker,
	}
}

func (cc *CartController) GetCart(c *gin.Context) {
	caller := middleware.CallerFromContext(c)
	cart, err := cc.cartService.GetOrCreate(c.Request.Context(), caller)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, cart, "Fetched cart")
}

func (cc *CartController) AddItem(c *gin.Context) {
	var request request_models.AddCartItemRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request payload")
		return
	}

	caller := middleware.CallerFromContext(c)
	cart, err := cc.cartService.AddItem(c.Request.Context(), caller, request)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, cart, "Item added to cart")
}

func (cc *CartController) UpdateQuantity(c *gin.Context) {
	itemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid item id")
		return
	}
	var request request_models.UpdateQuantityRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request payload")
		return
	}

	caller := middleware.CallerFromContext(c)
	cart, err := cc.cartService.UpdateQuantity(c.Request.Context(), caller, itemID, request.Quantity)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, cart, "Quantity updated")
}

func (cc *CartController) RemoveItem(c *gin.Context) {
	itemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid item id")
		return
	}

	caller := middleware.CallerFromContext(c)
	cart, err := cc.cartService.RemoveItem(c.Request.Context(), caller, itemID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, cart, "Item removed")
}

func (cc *CartController) Clear(c *gin.Context) {
	caller := middleware.CallerFromContext(c)
	if err := cc.cartService.Clear(c.Request.Context(), caller); err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, nil, "Cart cleared")
}

func (cc *CartController) SaveForLater(c *gin.Context) {
	itemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid item id")
		return
	}

	caller := middleware.CallerFromContext(c)
	cart, err := cc.cartService.SaveForLater(c.Request.Context(), caller, itemID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, cart, "Item saved for later")
}

func (cc *CartController) MoveToCart(c *gin.Context) {
	itemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid item id")
		return
	}

	caller := middleware.CallerFromContext(c)
	cart, err := cc.cartService.MoveToCart(c.Request.Context(), caller, itemID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, cart, "Item moved to cart")
}

// MergeGuestCart folds the guest cart identified by the session header into
// the now-authenticated caller's cart. Called once right after login.
func (cc *CartController) MergeGuestCart(c *gin.Context) {
	caller := middleware.CallerFromContext(c)
	if caller.OwnerID == nil {
		utils.RespondError(c, http.StatusUnauthorized, "Authorization header missing or invalid")
		return
	}
	sessionID := c.GetHeader("X-Session-ID")
	if sessionID == "" {
		utils.RespondError(c, http.StatusBadRequest, "X-Session-ID header required")
		return
	}

	if err := cc.cartService.MergeGuestCart(c.Request.Context(), sessionID, *caller.OwnerID); err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	cart, err := cc.cartService.GetOrCreate(c.Request.Context(), caller)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, cart, "Guest cart merged")
}

// StreamEvents pushes cart change notifications for the caller's owner
// channel over SSE. Delivery is best-effort; clients re-fetch the cart on
// every event rather than applying deltas.
func (cc *CartController) StreamEvents(c *gin.Context) {
	caller := middleware.CallerFromContext(c)
	ch, cancel := cc.broker.Subscribe(caller.Key())
	defer cancel()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")

	c.Stream(func(w io.Writer) bool {
		select {
		case ev, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent(ev.Type, ev)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
