package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"shoply/internal/models/request_models"
	"shoply/internal/services"
	"shoply/pkg/middleware"
	"shoply/pkg/utils"
)

type CheckoutController struct {
	intentService services.PurchaseIntentService
	orderService  services.OrderService
}

func NewCheckoutController(intentService services.PurchaseIntentService, orderService services.OrderService) *CheckoutController {
	return &CheckoutController{
		intentService: intentService,
		orderService:  orderService,
	}
}

func (cc *CheckoutController) CreateIntent(c *gin.Context) {
	var request request_models.CreateIntentRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request payload")
		return
	}

	caller := middleware.CallerFromContext(c)
	intent, err := cc.intentService.Create(c.Request.Context(), caller, request)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, intent, "Purchase intent created")
}

func (cc *CheckoutController) GetIntent(c *gin.Context) {
	intentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid intent id")
		return
	}

	caller := middleware.CallerFromContext(c)
	intent, err := cc.intentService.Get(c.Request.Context(), caller, intentID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, intent, "Fetched purchase intent")
}

func (cc *CheckoutController) AttachAddress(c *gin.Context) {
	intentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid intent id")
		return
	}
	var request request_models.AttachAddressRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request payload")
		return
	}

	caller := middleware.CallerFromContext(c)
	if err := cc.intentService.AttachAddress(c.Request.Context(), caller, intentID, request); err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, nil, "Address attached")
}

func (cc *CheckoutController) CompleteIntent(c *gin.Context) {
	intentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid intent id")
		return
	}
	var request request_models.CompleteIntentRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request payload")
		return
	}

	caller := middleware.CallerFromContext(c)
	result, err := cc.intentService.Complete(c.Request.Context(), caller, intentID, request.PaymentMethod)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, result, "Purchase intent completed")
}

func (cc *CheckoutController) CancelIntent(c *gin.Context) {
	intentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid intent id")
		return
	}

	caller := middleware.CallerFromContext(c)
	if err := cc.intentService.Cancel(c.Request.Context(), caller, intentID); err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, nil, "Purchase intent cancelled")
}

// ResolveRedirectToken exchanges the single-use token handed out at intent
// creation for the intent id, for the address-collection step.
func (cc *CheckoutController) ResolveRedirectToken(c *gin.Context) {
	token := c.Param("token")
	intentID, err := cc.intentService.ResolveRedirectToken(token)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, gin.H{"intent_id": intentID.String()}, "Token resolved")
}

func (cc *CheckoutController) CheckoutCart(c *gin.Context) {
	var request request_models.CartCheckoutRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request payload")
		return
	}

	caller := middleware.CallerFromContext(c)
	order, err := cc.orderService.CheckoutCart(c.Request.Context(), caller, request)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, order, "Order created")
}

func (cc *CheckoutController) GetOrder(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid order id")
		return
	}

	caller := middleware.CallerFromContext(c)
	order, err := cc.orderService.GetOrder(c.Request.Context(), caller, orderID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, order, "Fetched order")
}
