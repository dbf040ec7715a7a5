package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	meterdomain "github.com/smallbiznis/utilibill/internal/meter/domain"
)

type createMeterRequest struct {
	SerialNumber     string   `json:"SerialNumber" binding:"required"`
	CustomerID       idString `json:"CustomerID" binding:"required"`
	UtilityTypeID    idString `json:"UtilityTypeID" binding:"required"`
	InstallationDate string   `json:"InstallationDate" binding:"required"`
	Status           string   `json:"Status"`
}

type updateMeterRequest struct {
	SerialNumber     *string   `json:"SerialNumber"`
	CustomerID       *idString `json:"CustomerID"`
	UtilityTypeID    *idString `json:"UtilityTypeID"`
	InstallationDate *string   `json:"InstallationDate"`
	Status           *string   `json:"Status"`
}

type meterStatusRequest struct {
	Status string `json:"Status" binding:"required"`
}

func (s *Server) CreateMeter(c *gin.Context) {
	var req createMeterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, bindError(err))
		return
	}

	installed, err := parseDate(req.InstallationDate)
	if err != nil {
		AbortWithError(c, meterdomain.ErrInvalidInstallationDate)
		return
	}

	resp, err := s.meterSvc.Create(c.Request.Context(), meterdomain.CreateMeterRequest{
		SerialNumber:     strings.TrimSpace(req.SerialNumber),
		CustomerID:       string(req.CustomerID),
		UtilityTypeID:    string(req.UtilityTypeID),
		InstallationDate: installed,
		Status:           strings.TrimSpace(req.Status),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListMeters(c *gin.Context) {
	resp, err := s.meterSvc.List(c.Request.Context(), meterdomain.ListMeterRequest{
		Status:     strings.TrimSpace(c.Query("status")),
		CustomerID: strings.TrimSpace(c.Query("customer_id")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListCustomerMeters(c *gin.Context) {
	resp, err := s.meterSvc.List(c.Request.Context(), meterdomain.ListMeterRequest{
		CustomerID: strings.TrimSpace(c.Param("id")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetMeterByID(c *gin.Context) {
	resp, err := s.meterSvc.GetByID(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateMeter(c *gin.Context) {
	var req updateMeterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, bindError(err))
		return
	}

	installed, err := parseOptionalDate(req.InstallationDate)
	if err != nil {
		AbortWithError(c, meterdomain.ErrInvalidInstallationDate)
		return
	}

	resp, err := s.meterSvc.Update(c.Request.Context(), meterdomain.UpdateMeterRequest{
		ID:               strings.TrimSpace(c.Param("id")),
		SerialNumber:     trimStringPtr(req.SerialNumber),
		CustomerID:       req.CustomerID.ptr(),
		UtilityTypeID:    req.UtilityTypeID.ptr(),
		InstallationDate: installed,
		Status:           trimStringPtr(req.Status),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) SetMeterStatus(c *gin.Context) {
	var req meterStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, bindError(err))
		return
	}

	resp, err := s.meterSvc.SetStatus(c.Request.Context(), strings.TrimSpace(c.Param("id")), strings.TrimSpace(req.Status))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteMeter(c *gin.Context) {
	if err := s.meterSvc.Delete(c.Request.Context(), strings.TrimSpace(c.Param("id"))); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
