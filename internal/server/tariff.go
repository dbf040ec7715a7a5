package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	tariffdomain "github.com/smallbiznis/utilibill/internal/tariff/domain"
)

type createTariffRequest struct {
	UtilityTypeID idString            `json:"UtilityTypeID" binding:"required"`
	CustomerType  string              `json:"CustomerType" binding:"required"`
	RatePerUnit   decimal.NullDecimal `json:"RatePerUnit"`
	FixedCharge   decimal.NullDecimal `json:"FixedCharge"`
}

type updateTariffRequest struct {
	UtilityTypeID *idString           `json:"UtilityTypeID"`
	CustomerType  *string             `json:"CustomerType"`
	RatePerUnit   decimal.NullDecimal `json:"RatePerUnit"`
	FixedCharge   decimal.NullDecimal `json:"FixedCharge"`
}

type utilityTypeRequest struct {
	TypeName      string `json:"TypeName" binding:"required"`
	UnitOfMeasure string `json:"UnitOfMeasure" binding:"required"`
}

func (s *Server) CreateTariff(c *gin.Context) {
	var req createTariffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, bindError(err))
		return
	}
	if !req.RatePerUnit.Valid {
		AbortWithError(c, tariffdomain.ErrInvalidRatePerUnit)
		return
	}

	resp, err := s.tariffSvc.CreateTariff(c.Request.Context(), tariffdomain.CreateTariffRequest{
		UtilityTypeID: string(req.UtilityTypeID),
		CustomerType:  strings.TrimSpace(req.CustomerType),
		RatePerUnit:   req.RatePerUnit.Decimal,
		FixedCharge:   parseOptionalDecimal(req.FixedCharge),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListTariffs(c *gin.Context) {
	resp, err := s.tariffSvc.ListTariffs(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetTariffByID(c *gin.Context) {
	resp, err := s.tariffSvc.GetTariff(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateTariff(c *gin.Context) {
	var req updateTariffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, bindError(err))
		return
	}

	resp, err := s.tariffSvc.UpdateTariff(c.Request.Context(), tariffdomain.UpdateTariffRequest{
		ID:            strings.TrimSpace(c.Param("id")),
		UtilityTypeID: req.UtilityTypeID.ptr(),
		CustomerType:  trimStringPtr(req.CustomerType),
		RatePerUnit:   parseOptionalDecimal(req.RatePerUnit),
		FixedCharge:   parseOptionalDecimal(req.FixedCharge),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteTariff(c *gin.Context) {
	if err := s.tariffSvc.DeleteTariff(c.Request.Context(), strings.TrimSpace(c.Param("id"))); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) CreateUtilityType(c *gin.Context) {
	var req utilityTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, bindError(err))
		return
	}

	resp, err := s.tariffSvc.CreateUtilityType(c.Request.Context(), tariffdomain.UtilityTypeRequest{
		TypeName:      strings.TrimSpace(req.TypeName),
		UnitOfMeasure: strings.TrimSpace(req.UnitOfMeasure),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListUtilityTypes(c *gin.Context) {
	resp, err := s.tariffSvc.ListUtilityTypes(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetUtilityTypeByID(c *gin.Context) {
	resp, err := s.tariffSvc.GetUtilityType(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateUtilityType(c *gin.Context) {
	var req utilityTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, bindError(err))
		return
	}

	resp, err := s.tariffSvc.UpdateUtilityType(c.Request.Context(), tariffdomain.UtilityTypeRequest{
		ID:            strings.TrimSpace(c.Param("id")),
		TypeName:      strings.TrimSpace(req.TypeName),
		UnitOfMeasure: strings.TrimSpace(req.UnitOfMeasure),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteUtilityType(c *gin.Context) {
	if err := s.tariffSvc.DeleteUtilityType(c.Request.Context(), strings.TrimSpace(c.Param("id"))); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
