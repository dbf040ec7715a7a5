package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	billingdomain "github.com/smallbiznis/utilibill/internal/billing/domain"
	readingdomain "github.com/smallbiznis/utilibill/internal/reading/domain"
)

type recordReadingRequest struct {
	MeterID         idString            `json:"MeterID" binding:"required"`
	ReadingDate     string              `json:"ReadingDate"`
	PreviousReading decimal.NullDecimal `json:"PreviousReading"`
	CurrentReading  decimal.NullDecimal `json:"CurrentReading"`
	ReadingTakenBy  idString            `json:"ReadingTakenBy"`
}

// RecordReading stores the reading and its bill in one step. ReadingTakenBy
// defaults to the caller.
func (s *Server) RecordReading(c *gin.Context) {
	var req recordReadingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, bindError(err))
		return
	}
	if !req.PreviousReading.Valid {
		AbortWithError(c, newValidationError("PreviousReading", "required", "PreviousReading is required"))
		return
	}
	if !req.CurrentReading.Valid {
		AbortWithError(c, newValidationError("CurrentReading", "required", "CurrentReading is required"))
		return
	}

	readingDate, err := parseDate(req.ReadingDate)
	if err != nil {
		AbortWithError(c, billingdomain.ErrInvalidReadingDate)
		return
	}

	takenBy := string(req.ReadingTakenBy)
	if takenBy == "" {
		takenBy = currentUserID(c)
	}

	meterID := string(req.MeterID)
	c.Set("meter_id", meterID)

	result, err := s.billingEngine.RecordReadingAndBill(c.Request.Context(), billingdomain.RecordReadingRequest{
		MeterID:         meterID,
		ReadingDate:     readingDate,
		PreviousReading: req.PreviousReading.Decimal,
		CurrentReading:  req.CurrentReading.Decimal,
		ReadingTakenBy:  takenBy,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": gin.H{
		"Reading": result.Reading,
		"Bill":    result.Bill,
	}})
}

func (s *Server) ListReadings(c *gin.Context) {
	limit, err := parseOptionalInt(c.Query("limit"))
	if err != nil {
		AbortWithError(c, newValidationError("limit", "invalid_limit", "limit must be a number"))
		return
	}

	resp, err := s.readingSvc.List(c.Request.Context(), readingdomain.ListReadingRequest{
		MeterID: strings.TrimSpace(c.Query("meter_id")),
		Limit:   limit,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListMeterReadings(c *gin.Context) {
	resp, err := s.readingSvc.List(c.Request.Context(), readingdomain.ListReadingRequest{
		MeterID: strings.TrimSpace(c.Param("id")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetLastMeterReading(c *gin.Context) {
	resp, err := s.readingSvc.Last(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetReadingByID(c *gin.Context) {
	resp, err := s.readingSvc.GetByID(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteReading(c *gin.Context) {
	if err := s.readingSvc.Delete(c.Request.Context(), strings.TrimSpace(c.Param("id"))); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
