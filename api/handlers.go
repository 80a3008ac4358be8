package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"apartment-estimator/apperrors"
	"apartment-estimator/features"
	"apartment-estimator/models"
	"apartment-estimator/services"
)

// numberOrString accepts a JSON number or string and keeps its text.
type numberOrString string

func (n *numberOrString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*n = numberOrString(s)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(b, &num); err != nil {
		return fmt.Errorf("expected number or string, got %s", b)
	}
	*n = numberOrString(num.String())
	return nil
}

// estimateRequest is one listing as posted by the form. Missing parking
// flags mean the amenity is absent.
type estimateRequest struct {
	Municipality   string         `json:"municipality"`
	AreaM2         numberOrString `json:"area_m2"`
	Rooms          float64        `json:"rooms"`
	Floor          string         `json:"floor"`
	Type           string         `json:"type"`
	Condition      string         `json:"condition"`
	Heating        string         `json:"heating"`
	ParkingGarage  *int           `json:"parking_garage"`
	ParkingOutdoor *int           `json:"parking_outdoor"`
}

func (r estimateRequest) record() *models.ListingRecord {
	flag := func(p *int) int {
		if p == nil {
			return 1
		}
		return *p
	}
	return &models.ListingRecord{
		Municipality:   r.Municipality,
		AreaM2:         string(r.AreaM2),
		Rooms:          r.Rooms,
		Floor:          r.Floor,
		Type:           r.Type,
		Condition:      r.Condition,
		Heating:        r.Heating,
		ParkingGarage:  flag(r.ParkingGarage),
		ParkingOutdoor: flag(r.ParkingOutdoor),
	}
}

type estimateResponse struct {
	models.Estimate
	Display string `json:"display"`
}

func (s *Server) handleHealth(c *gin.Context) {
	resp := gin.H{"status": "untrained"}
	if report, ok := s.pipeline.Report(); ok {
		resp = gin.H{
			"status":     "ok",
			"run_id":     report.RunID,
			"strategy":   report.Strategy,
			"trained_at": report.TrainedAt,
		}
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleModel(c *gin.Context) {
	info, ok := s.pipeline.Describe()
	if !ok {
		_ = c.Error(services.ErrNotTrained)
		return
	}
	c.JSON(http.StatusOK, info)
}

func (s *Server) handleVocabulary(c *gin.Context) {
	if !s.pipeline.Fitted() {
		_ = c.Error(services.ErrNotTrained)
		return
	}
	c.JSON(http.StatusOK, s.pipeline.Vocabulary())
}

func (s *Server) handleFloors(c *gin.Context) {
	total := 0
	if raw := c.Query("total"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			_ = c.Error(apperrors.NewValidationError("total must be a non-negative integer",
				map[string]string{"field": "total", "value": raw}))
			return
		}
		total = n
	}
	if total > features.MaxRomanFloor {
		total = features.MaxRomanFloor
	}
	c.JSON(http.StatusOK, gin.H{"total": total, "options": features.FloorOptions(total)})
}

func (s *Server) handleEstimate(c *gin.Context) {
	var req estimateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.NewValidationError("Invalid request body",
			map[string]string{"body": err.Error()}))
		return
	}
	if !s.pipeline.Fitted() {
		_ = c.Error(services.ErrNotTrained)
		return
	}

	est, err := s.pipeline.PredictTotal(req.record())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, estimateResponse{Estimate: est, Display: est.String()})
}

func (s *Server) handleRefresh(c *gin.Context) {
	if s.reload == nil {
		_ = c.Error(apperrors.NewConfigurationError("model refresh is not configured", nil))
		return
	}
	report, err := s.reload(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, report)
}
