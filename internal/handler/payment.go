package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fusaf/fusaf-service/internal/service"
	"github.com/fusaf/fusaf-service/pkg/response"
)

type PaymentHandler struct {
	svc service.PaymentService
}

func NewPaymentHandler(svc service.PaymentService) *PaymentHandler { return &PaymentHandler{svc: svc} }

func (h *PaymentHandler) Register(r *gin.RouterGroup) {
	g := r.Group("/payments")
	{
		// LiqPay posts data+signature as a form; authenticity comes from the signature.
		g.POST("/callback", h.callback)
		g.GET("/:order_id", h.status)
	}
}

func (h *PaymentHandler) callback(c *gin.Context) {
	p, err := h.svc.HandleCallback(c.Request.Context(), c.PostForm("data"), c.PostForm("signature"))
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, gin.H{"order_id": p.OrderID, "status": p.Status})
}

// status is polled by the checkout page; it refreshes a pending payment once.
func (h *PaymentHandler) status(c *gin.Context) {
	p, err := h.svc.Refresh(c.Request.Context(), c.Param("order_id"))
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, p)
}
