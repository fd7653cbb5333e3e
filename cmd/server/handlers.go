package main

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/epiforge/epidamp/internal/damping"
	apperrors "github.com/epiforge/epidamp/internal/errors"
	"github.com/epiforge/epidamp/internal/monitoring"
	"github.com/epiforge/epidamp/internal/scenario"
	"github.com/epiforge/epidamp/internal/seir"
	"github.com/epiforge/epidamp/internal/solver"
	"github.com/epiforge/epidamp/internal/store"
)

type handlers struct {
	store   *store.Store
	metrics *monitoring.Metrics
	logger  *monitoring.Logger
}

func newHandlers(st *store.Store, metrics *monitoring.Metrics, logger *monitoring.Logger) *handlers {
	return &handlers{store: st, metrics: metrics, logger: logger}
}

// simulateRequest carries the model configuration for one simulation run.
type simulateRequest struct {
	T0               float64     `json:"t0"`
	Tmax             float64     `json:"tmax" binding:"required"`
	LatentTime       float64     `json:"latent_time" binding:"required"`
	CarrierTime      float64     `json:"carrier_time" binding:"required"`
	InfectiousTime   float64     `json:"infectious_time" binding:"required"`
	TransmissionRisk float64     `json:"transmission_risk"`
	BaselineContacts [][]float64 `json:"baseline_contacts" binding:"required"`
	Population       []float64   `json:"population" binding:"required"`
	Exposed          []float64   `json:"exposed" binding:"required"`
}

func (h *handlers) createScenario(c *gin.Context) {
	var sc scenario.Scenario
	if err := c.ShouldBindJSON(&sc); err != nil {
		c.Error(apperrors.NewValidationError("invalid scenario payload", err))
		return
	}

	// building is the validation: shape errors surface here, not at query time
	if _, err := sc.Build(); err != nil {
		c.Error(apperrors.NewValidationError(err.Error(), err))
		return
	}

	id := uuid.NewString()
	if err := h.store.SaveScenario(id, &sc); err != nil {
		c.Error(apperrors.NewInternalError("failed to save scenario", err))
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": id})
}

func (h *handlers) listScenarios(c *gin.Context) {
	infos, err := h.store.ListScenarios()
	if err != nil {
		c.Error(apperrors.NewInternalError("failed to list scenarios", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"scenarios": infos})
}

func (h *handlers) getScenario(c *gin.Context) {
	id := c.Param("id")
	sc, err := h.store.GetScenario(id)
	if err == store.ErrNotFound {
		c.Error(apperrors.NewNotFoundError("scenario", id))
		return
	}
	if err != nil {
		c.Error(apperrors.NewInternalError("failed to load scenario", err))
		return
	}
	c.JSON(http.StatusOK, sc)
}

func (h *handlers) deleteScenario(c *gin.Context) {
	id := c.Param("id")
	err := h.store.DeleteScenario(id)
	if err == store.ErrNotFound {
		c.Error(apperrors.NewNotFoundError("scenario", id))
		return
	}
	if err != nil {
		c.Error(apperrors.NewInternalError("failed to delete scenario", err))
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) addDamping(c *gin.Context) {
	id := c.Param("id")
	var rec scenario.Record
	if err := c.ShouldBindJSON(&rec); err != nil {
		c.Error(apperrors.NewValidationError("invalid damping payload", err))
		return
	}

	sc, err := h.store.GetScenario(id)
	if err == store.ErrNotFound {
		c.Error(apperrors.NewNotFoundError("scenario", id))
		return
	}
	if err != nil {
		c.Error(apperrors.NewInternalError("failed to load scenario", err))
		return
	}

	if err := sc.Append(rec); err != nil {
		c.Error(apperrors.NewValidationError(err.Error(), err))
		return
	}
	if err := h.store.AddRecord(id, rec); err != nil {
		c.Error(apperrors.NewInternalError("failed to save damping record", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"dampings": len(sc.Dampings)})
}

func (h *handlers) getMatrix(c *gin.Context) {
	id := c.Param("id")
	t, err := strconv.ParseFloat(c.Query("t"), 64)
	if err != nil {
		c.Error(apperrors.NewValidationError("query parameter t must be a number", err))
		return
	}

	sc, err := h.store.GetScenario(id)
	if err == store.ErrNotFound {
		c.Error(apperrors.NewNotFoundError("scenario", id))
		return
	}
	if err != nil {
		c.Error(apperrors.NewInternalError("failed to load scenario", err))
		return
	}

	d, err := sc.Build()
	if err != nil {
		c.Error(apperrors.NewInternalError("stored scenario no longer builds", err))
		return
	}

	start := time.Now()
	m := d.ValueAt(t)
	elapsed := time.Since(start)
	h.metrics.RecordEvaluation(elapsed)
	h.logger.EvaluationLogger(id, t, d.NumEntries(), elapsed)

	c.JSON(http.StatusOK, gin.H{
		"t":      t,
		"rows":   m.Rows(),
		"cols":   m.Cols(),
		"matrix": matrixRows(m),
	})
}

func (h *handlers) simulate(c *gin.Context) {
	id := c.Param("id")
	var req simulateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.NewValidationError("invalid simulation payload", err))
		return
	}

	sc, err := h.store.GetScenario(id)
	if err == store.ErrNotFound {
		c.Error(apperrors.NewNotFoundError("scenario", id))
		return
	}
	if err != nil {
		c.Error(apperrors.NewInternalError("failed to load scenario", err))
		return
	}

	d, err := sc.Build()
	if err != nil {
		c.Error(apperrors.NewInternalError("stored scenario no longer builds", err))
		return
	}

	baseline, err := damping.MatrixFromRows(req.BaselineContacts)
	if err != nil {
		c.Error(apperrors.NewValidationError("invalid baseline contact matrix", err))
		return
	}

	model, err := seir.NewModel(seir.Parameters{
		Groups:           len(req.Population),
		LatentTime:       req.LatentTime,
		CarrierTime:      req.CarrierTime,
		InfectiousTime:   req.InfectiousTime,
		TransmissionRisk: req.TransmissionRisk,
		BaselineContacts: baseline,
	}, d, req.Population)
	if err != nil {
		c.Error(apperrors.NewValidationError(err.Error(), err))
		return
	}

	y0, err := model.InitialState(req.Exposed)
	if err != nil {
		c.Error(apperrors.NewValidationError(err.Error(), err))
		return
	}

	start := time.Now()
	ts, err := model.Simulate(y0, req.T0, req.Tmax, solver.DefaultConfig())
	if err != nil {
		c.Error(apperrors.NewValidationError(err.Error(), err))
		return
	}
	h.metrics.IncrementSimulation()
	h.logger.SimulationLogger(id, req.T0, req.Tmax, ts.NumTimePoints(), time.Since(start))

	times := make([]float64, ts.NumTimePoints())
	values := make([][]float64, ts.NumTimePoints())
	for i := 0; i < ts.NumTimePoints(); i++ {
		times[i] = ts.Time(i)
		values[i] = append([]float64(nil), ts.Value(i)...)
	}

	c.JSON(http.StatusOK, gin.H{
		"times":        times,
		"values":       values,
		"compartments": []string{"susceptible", "exposed", "carrier", "infected", "recovered"},
	})
}

func matrixRows(m *damping.Matrix) [][]float64 {
	rows := make([][]float64, m.Rows())
	for i := range rows {
		rows[i] = make([]float64, m.Cols())
		for j := 0; j < m.Cols(); j++ {
			rows[i][j] = m.At(i, j)
		}
	}
	return rows
}
