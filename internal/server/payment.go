package server

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	paymentdomain "github.com/smallbiznis/utilibill/internal/payment/domain"
	"github.com/smallbiznis/utilibill/internal/report"
)

type payBillRequest struct {
	BillID        idString            `json:"BillID" binding:"required"`
	AmountPaid    decimal.NullDecimal `json:"AmountPaid"`
	PaymentMethod string              `json:"PaymentMethod" binding:"required"`
	ProcessedBy   idString            `json:"ProcessedBy"`
}

// PayBill records a payment and settles the bill. ProcessedBy defaults to the
// caller.
func (s *Server) PayBill(c *gin.Context) {
	var req payBillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, bindError(err))
		return
	}
	if !req.AmountPaid.Valid {
		AbortWithError(c, paymentdomain.ErrInvalidAmount)
		return
	}

	processedBy := string(req.ProcessedBy)
	if processedBy == "" {
		processedBy = currentUserID(c)
	}

	billID := string(req.BillID)
	c.Set("bill_id", billID)

	resp, err := s.processor.PayBill(c.Request.Context(), paymentdomain.PayBillRequest{
		BillID:        billID,
		AmountPaid:    req.AmountPaid.Decimal,
		PaymentMethod: strings.TrimSpace(req.PaymentMethod),
		ProcessedBy:   processedBy,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListPayments(c *gin.Context) {
	limit, err := parseOptionalInt(c.Query("limit"))
	if err != nil {
		AbortWithError(c, newValidationError("limit", "invalid_limit", "limit must be a number"))
		return
	}

	resp, err := s.paymentSvc.List(c.Request.Context(), paymentdomain.ListPaymentRequest{
		BillID: strings.TrimSpace(c.Query("bill_id")),
		Limit:  limit,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListBillPayments(c *gin.Context) {
	resp, err := s.paymentSvc.List(c.Request.Context(), paymentdomain.ListPaymentRequest{
		BillID: strings.TrimSpace(c.Param("id")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetPaymentStats(c *gin.Context) {
	resp, err := s.paymentSvc.Stats(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetPaymentByID(c *gin.Context) {
	resp, err := s.paymentSvc.GetByID(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetPaymentReceipt(c *gin.Context) {
	doc, err := s.reports.PaymentReceipt(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	writeDocument(c, doc)
}

func (s *Server) DeletePayment(c *gin.Context) {
	if err := s.paymentSvc.Delete(c.Request.Context(), strings.TrimSpace(c.Param("id"))); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func writeDocument(c *gin.Context, doc report.Document) {
	c.Header("Content-Disposition", `attachment; filename="`+doc.Filename+`"`)
	c.Header("Content-Type", doc.ContentType)
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, doc.Body); err != nil {
		_ = c.Error(err)
	}
}
