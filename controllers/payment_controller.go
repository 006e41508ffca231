package controllers

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/Govind-619/RentSphere/models"
	"github.com/Govind-619/RentSphere/payments"
	"github.com/Govind-619/RentSphere/services"
	"github.com/Govind-619/RentSphere/utils"
	"github.com/gin-gonic/gin"
)

// maxWebhookBody bounds the webhook body read into memory
const maxWebhookBody = 1 << 20

// PaymentController serves payment initiation and provider webhooks
type PaymentController struct {
	payments  *services.PaymentService
	providers payments.Registry
}

// NewPaymentController creates the payment handlers
func NewPaymentController(svc *services.PaymentService, providers payments.Registry) *PaymentController {
	return &PaymentController{payments: svc, providers: providers}
}

// InitiatePaymentRequest is the body of POST /v1/payments/initiate
type InitiatePaymentRequest struct {
	BookingID string `json:"bookingId" binding:"required"`
	Provider  string `json:"provider"`
}

// POST /v1/payments/initiate
func (pc *PaymentController) InitiatePayment(c *gin.Context) {
	utils.LogInfo("InitiatePayment called")
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req InitiatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError("Invalid payment request: %v", err)
		utils.BadRequest(c, utils.ErrInvalidRequest, err.Error())
		return
	}
	if valid, msg := utils.ValidateID(req.BookingID); !valid {
		utils.BadRequest(c, utils.ErrInvalidRequest, "bookingId "+msg)
		return
	}

	result, err := pc.payments.InitiatePayment(c.Request.Context(), actor, req.BookingID, models.PaymentProvider(req.Provider))
	if err != nil {
		utils.LogError("Payment initiation for booking %s failed: %v", req.BookingID, err)
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, utils.MsgPaymentInitiated, result)
}

// POST /v1/payments/webhook/:provider
// POST /v1/payments/webhook?provider=STRIPE
func (pc *PaymentController) PaymentWebhook(c *gin.Context) {
	utils.LogInfo("PaymentWebhook called")

	name := c.Param("provider")
	if name == "" {
		name = c.DefaultQuery("provider", string(models.ProviderStripe))
	}
	provider := models.PaymentProvider(name)
	client, ok := pc.providers.Get(models.PaymentProvider(strings.ToUpper(name)))
	if !ok {
		utils.RespondError(c, services.ErrUnsupportedProvider)
		return
	}

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody+1))
	if err != nil {
		utils.LogError("Failed to read %s webhook body: %v", name, err)
		utils.BadRequest(c, "Failed to read webhook body", nil)
		return
	}
	if len(body) > maxWebhookBody {
		utils.LogError("Rejected %s webhook: body exceeds %d bytes", name, maxWebhookBody)
		utils.Error(c, http.StatusRequestEntityTooLarge, "Webhook body too large", nil)
		return
	}
	signature := c.GetHeader(client.SignatureHeader())

	outcome, err := pc.payments.ApplyWebhookEvent(c.Request.Context(), provider, body, signature)
	if err != nil {
		if errors.Is(err, services.ErrSignatureInvalid) {
			utils.LogError("Webhook signature verification failed for %s", name)
		}
		utils.RespondError(c, err)
		return
	}

	utils.Success(c, utils.MsgWebhookReceived, gin.H{"received": true, "outcome": outcome})
}
