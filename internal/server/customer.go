package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	billingdomain "github.com/smallbiznis/utilibill/internal/billing/domain"
	customerdomain "github.com/smallbiznis/utilibill/internal/customer/domain"
	meterdomain "github.com/smallbiznis/utilibill/internal/meter/domain"
	"github.com/smallbiznis/utilibill/pkg/db/pagination"
)

const customerRecentBills = 10

type createCustomerRequest struct {
	Name         string         `json:"Name" binding:"required"`
	Address      string         `json:"Address"`
	Phone        string         `json:"Phone"`
	Email        string         `json:"Email"`
	CustomerType string         `json:"CustomerType" binding:"required"`
	Metadata     map[string]any `json:"Metadata"`
}

type updateCustomerRequest struct {
	Name         *string        `json:"Name"`
	Address      *string        `json:"Address"`
	Phone        *string        `json:"Phone"`
	Email        *string        `json:"Email"`
	CustomerType *string        `json:"CustomerType"`
	Metadata     map[string]any `json:"Metadata"`
}

type customerDetails struct {
	customerdomain.Customer
	Meters      []meterdomain.MeterView    `json:"Meters"`
	RecentBills []billingdomain.BillView `json:"RecentBills"`
}

func (s *Server) CreateCustomer(c *gin.Context) {
	var req createCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, bindError(err))
		return
	}

	resp, err := s.customerSvc.Create(c.Request.Context(), customerdomain.CreateCustomerRequest{
		Name:         strings.TrimSpace(req.Name),
		Address:      strings.TrimSpace(req.Address),
		Phone:        strings.TrimSpace(req.Phone),
		Email:        strings.TrimSpace(req.Email),
		CustomerType: strings.TrimSpace(req.CustomerType),
		Metadata:     req.Metadata,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListCustomers(c *gin.Context) {
	var query struct {
		pagination.Pagination
		Search       string `form:"search"`
		CustomerType string `form:"customer_type"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.customerSvc.List(c.Request.Context(), customerdomain.ListCustomerRequest{
		PageToken:    query.PageToken,
		PageSize:     int32(query.PageSize),
		Search:       strings.TrimSpace(query.Search),
		CustomerType: strings.TrimSpace(query.CustomerType),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetCustomerByID(c *gin.Context) {
	resp, err := s.customerSvc.GetByID(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// GetCustomerDetails returns the customer with their meters and latest bills.
func (s *Server) GetCustomerDetails(c *gin.Context) {
	ctx := c.Request.Context()
	id := strings.TrimSpace(c.Param("id"))

	customer, err := s.customerSvc.GetByID(ctx, id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	meters, err := s.meterSvc.List(ctx, meterdomain.ListMeterRequest{CustomerID: id})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	bills, err := s.billSvc.List(ctx, billingdomain.ListBillRequest{CustomerID: id, Limit: customerRecentBills})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": customerDetails{
		Customer:    customer,
		Meters:      meters,
		RecentBills: bills,
	}})
}

func (s *Server) UpdateCustomer(c *gin.Context) {
	var req updateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, bindError(err))
		return
	}

	resp, err := s.customerSvc.Update(c.Request.Context(), customerdomain.UpdateCustomerRequest{
		ID:           strings.TrimSpace(c.Param("id")),
		Name:         trimStringPtr(req.Name),
		Address:      trimStringPtr(req.Address),
		Phone:        trimStringPtr(req.Phone),
		Email:        trimStringPtr(req.Email),
		CustomerType: trimStringPtr(req.CustomerType),
		Metadata:     req.Metadata,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteCustomer(c *gin.Context) {
	if err := s.customerSvc.Delete(c.Request.Context(), strings.TrimSpace(c.Param("id"))); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// GetCustomerStatement streams the monthly statement PDF.
func (s *Server) GetCustomerStatement(c *gin.Context) {
	year, err := parseOptionalInt(c.Query("year"))
	if err != nil {
		AbortWithError(c, newValidationError("year", "invalid_year", "year must be a number"))
		return
	}
	month, err := parseOptionalInt(c.Query("month"))
	if err != nil {
		AbortWithError(c, newValidationError("month", "invalid_month", "month must be a number"))
		return
	}

	customerID := strings.TrimSpace(c.Param("id"))
	c.Set("customer_id", customerID)

	doc, err := s.reports.CustomerStatement(c.Request.Context(), customerID, year, month)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	writeDocument(c, doc)
}
