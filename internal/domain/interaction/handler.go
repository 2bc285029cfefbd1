package interaction

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type Handler struct {
	evaluator *Evaluator
}

func NewHandler(evaluator *Evaluator) *Handler {
	return &Handler{evaluator: evaluator}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/interactions/check", h.CheckInteractions)
}

type checkRequest struct {
	PatientID      uuid.UUID  `json:"patient_id"`
	MedicationName string     `json:"medication_name"`
	MedicationID   *uuid.UUID `json:"medication_id,omitempty"`
}

// CheckInteractions runs an ad hoc safety evaluation without creating a
// prescription. Alerts found are persisted as usual.
func (h *Handler) CheckInteractions(c echo.Context) error {
	var req checkRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.PatientID == uuid.Nil {
		return echo.NewHTTPError(http.StatusBadRequest, "patient_id is required")
	}
	res, err := h.evaluator.Check(c.Request().Context(), req.PatientID, req.MedicationName, req.MedicationID)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, res)
}
