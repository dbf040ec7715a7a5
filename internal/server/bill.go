package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	billingdomain "github.com/smallbiznis/utilibill/internal/billing/domain"
)

type billStatusRequest struct {
	Status string `json:"Status" binding:"required"`
}

func (s *Server) ListBills(c *gin.Context) {
	year, err := parseOptionalInt(c.Query("year"))
	if err != nil {
		AbortWithError(c, billingdomain.ErrInvalidPeriod)
		return
	}
	month, err := parseOptionalInt(c.Query("month"))
	if err != nil {
		AbortWithError(c, billingdomain.ErrInvalidPeriod)
		return
	}
	limit, err := parseOptionalInt(c.Query("limit"))
	if err != nil {
		AbortWithError(c, newValidationError("limit", "invalid_limit", "limit must be a number"))
		return
	}

	resp, err := s.billSvc.List(c.Request.Context(), billingdomain.ListBillRequest{
		Status:     strings.TrimSpace(c.Query("status")),
		CustomerID: strings.TrimSpace(c.Query("customer_id")),
		Year:       year,
		Month:      month,
		Limit:      limit,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListCustomerBills(c *gin.Context) {
	resp, err := s.billSvc.List(c.Request.Context(), billingdomain.ListBillRequest{
		CustomerID: strings.TrimSpace(c.Param("id")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListUnpaidBills(c *gin.Context) {
	resp, err := s.billSvc.ListUnpaid(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetBillSummary(c *gin.Context) {
	resp, err := s.billSvc.Summary(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetBillByID(c *gin.Context) {
	resp, err := s.billSvc.GetByID(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateBillStatus(c *gin.Context) {
	var req billStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, bindError(err))
		return
	}

	resp, err := s.billSvc.UpdateStatus(c.Request.Context(), strings.TrimSpace(c.Param("id")), strings.TrimSpace(req.Status))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteBill(c *gin.Context) {
	if err := s.billSvc.Delete(c.Request.Context(), strings.TrimSpace(c.Param("id"))); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// MarkOverdueBills runs the overdue sweep on demand.
func (s *Server) MarkOverdueBills(c *gin.Context) {
	count, err := s.sweeper.MarkOverdueBills(c.Request.Context(), billingdomain.TriggerManual)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"count": count})
}
