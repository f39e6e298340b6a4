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

type PaymentController struct {
	paymentService services.PaymentService
	threeDSService services.ThreeDSecureService
}

func NewPaymentController(paymentService services.PaymentService, threeDSService services.ThreeDSecureService) *PaymentController {
	return &PaymentController{
		paymentService: paymentService,
		threeDSService: threeDSService,
	}
}

func (pc *PaymentController) ProcessPayment(c *gin.Context) {
	var request request_models.ProcessPaymentRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request payload")
		return
	}

	caller := middleware.CallerFromContext(c)
	txn, err := pc.paymentService.ProcessPayment(c.Request.Context(), caller, request)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, txn, "Payment processed")
}

func (pc *PaymentController) Authorize(c *gin.Context) {
	var request request_models.AuthorizeRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request payload")
		return
	}

	caller := middleware.CallerFromContext(c)
	txn, err := pc.paymentService.Authorize(c.Request.Context(), caller, request)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, txn, "Payment authorized")
}

func (pc *PaymentController) Capture(c *gin.Context) {
	transactionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid transaction id")
		return
	}
	var request request_models.CaptureRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request payload")
		return
	}

	caller := middleware.CallerFromContext(c)
	txn, err := pc.paymentService.Capture(c.Request.Context(), caller, transactionID, request.AmountMinor)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, txn, "Payment captured")
}

func (pc *PaymentController) Refund(c *gin.Context) {
	transactionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid transaction id")
		return
	}
	var request request_models.RefundRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request payload")
		return
	}

	caller := middleware.CallerFromContext(c)
	refund, err := pc.paymentService.RefundTransaction(c.Request.Context(), caller, transactionID, request.AmountMinor, request.Reason)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, refund, "Refund processed")
}

func (pc *PaymentController) StartThreeDSecure(c *gin.Context) {
	transactionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid transaction id")
		return
	}
	var request request_models.StartThreeDSRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request payload")
		return
	}

	caller := middleware.CallerFromContext(c)
	challenge, err := pc.threeDSService.StartChallenge(c.Request.Context(), caller, transactionID, request.ReturnURL)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, challenge, "Authentication challenge created")
}

func (pc *PaymentController) CompleteThreeDSecure(c *gin.Context) {
	challengeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid challenge id")
		return
	}
	var request request_models.CompleteThreeDSRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request payload")
		return
	}

	txn, err := pc.threeDSService.CompleteChallenge(c.Request.Context(), challengeID, request.Succeeded)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, txn, "Authentication challenge resolved")
}

func (pc *PaymentController) WalletPay(c *gin.Context) {
	var request request_models.WalletPaymentRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request payload")
		return
	}

	caller := middleware.CallerFromContext(c)
	result, err := pc.paymentService.WalletPay(c.Request.Context(), caller, request)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, result, "Wallet payment processed")
}

func (pc *PaymentController) ConfirmCashDelivery(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid order id")
		return
	}

	caller := middleware.CallerFromContext(c)
	txn, err := pc.paymentService.ConfirmCashDelivery(c.Request.Context(), caller, orderID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, txn, "Cash payment confirmed")
}
