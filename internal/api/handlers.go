package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"quantsim/internal/config"
	"quantsim/internal/engine"
	"quantsim/internal/repository"
	"quantsim/strategies"

	"github.com/gin-gonic/gin"
)

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// runBacktest handles POST /api/v1/backtests
func (s *Server) runBacktest(c *gin.Context) {
	var req BacktestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "INVALID_REQUEST", err)
		return
	}

	e, err := s.newEngine(c.Request.Context(), req.Backtest, req.Strategy)
	if err != nil {
		abortWithEngineError(c, err)
		return
	}
	res, err := e.Run()
	if err != nil {
		abortWithEngineError(c, err)
		return
	}

	name := req.Name
	if name == "" {
		name = res.Strategy
	}
	resp := BacktestResponse{Name: name, Summary: newSummary(res)}
	if req.IncludeTrades {
		resp.Trades = res.TradeHistory
	}

	if s.runs != nil {
		rec := repository.NewRunRecord(name, res)
		if err := s.runs.SaveRun(c.Request.Context(), &rec); err != nil {
			s.log.Error().Err(err).Msg("save run")
			abortWithError(c, http.StatusInternalServerError, "STORAGE_ERROR", err)
			return
		}
		resp.ID = rec.ID
	}
	c.JSON(http.StatusCreated, resp)
}

// compareBacktests handles POST /api/v1/backtests/compare
func (s *Server) compareBacktests(c *gin.Context) {
	var req CompareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "INVALID_REQUEST", err)
		return
	}

	jobs := make([]engine.Job, 0, len(req.Strategies))
	for i, spec := range req.Strategies {
		e, err := s.newEngine(c.Request.Context(), req.Backtest, spec)
		if err != nil {
			abortWithEngineError(c, fmt.Errorf("strategy %d: %w", i, err))
			return
		}
		jobs = append(jobs, engine.Job{Name: e.Strategy().Name(), Engine: e})
	}

	results, err := engine.RunAll(c.Request.Context(), jobs, s.maxParallel)
	if err != nil {
		abortWithError(c, http.StatusServiceUnavailable, "CANCELLED", err)
		return
	}

	resp := CompareResponse{Comparison: make([]ComparisonResult, len(results))}
	for i, r := range results {
		resp.Comparison[i] = ComparisonResult{Name: r.Name}
		if r.Err != nil {
			resp.Comparison[i].Error = r.Err.Error()
			continue
		}
		summary := newSummary(r.Result)
		resp.Comparison[i].Summary = &summary
	}
	c.JSON(http.StatusOK, resp)
}

// listRuns handles GET /api/v1/runs?limit=N
func (s *Server) listRuns(c *gin.Context) {
	if s.runs == nil {
		c.JSON(http.StatusOK, []repository.RunRecord{})
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 {
		abortWithError(c, http.StatusBadRequest, "INVALID_REQUEST", fmt.Errorf("limit must be a positive integer"))
		return
	}
	runs, err := s.runs.ListRuns(c.Request.Context(), limit)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "STORAGE_ERROR", err)
		return
	}
	if runs == nil {
		runs = []repository.RunRecord{}
	}
	c.JSON(http.StatusOK, runs)
}

// getRun handles GET /api/v1/runs/:id
func (s *Server) getRun(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "INVALID_REQUEST", fmt.Errorf("invalid run id %q", c.Param("id")))
		return
	}
	if s.runs == nil {
		abortWithError(c, http.StatusNotFound, "NOT_FOUND", repository.ErrRunNotFound)
		return
	}
	run, err := s.runs.GetRun(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrRunNotFound) {
			abortWithError(c, http.StatusNotFound, "NOT_FOUND", err)
			return
		}
		abortWithError(c, http.StatusInternalServerError, "STORAGE_ERROR", err)
		return
	}
	c.JSON(http.StatusOK, run)
}

func (s *Server) newEngine(ctx context.Context, bt config.Backtest, spec strategies.Spec) (*engine.Engine, error) {
	cfg, err := bt.ToBacktestConfig()
	if err != nil {
		return nil, err
	}
	strat, err := strategies.New(spec)
	if err != nil {
		return nil, err
	}
	e, err := engine.NewEngine(cfg, strat, engine.WithLogger(s.log), engine.WithRecorder(s.recorder))
	if err != nil {
		return nil, err
	}
	if err := e.LoadFrom(ctx, s.source, bt.Benchmark); err != nil {
		return nil, err
	}
	return e, nil
}

func abortWithEngineError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, config.ErrInvalidConfig),
		errors.Is(err, engine.ErrInvalidConfiguration),
		errors.Is(err, strategies.ErrInvalidStrategy):
		abortWithError(c, http.StatusBadRequest, "INVALID_CONFIG", err)
	case errors.Is(err, repository.ErrAssetNotFound),
		errors.Is(err, repository.ErrNoBars):
		abortWithError(c, http.StatusNotFound, "DATA_NOT_FOUND", err)
	case errors.Is(err, engine.ErrInvalidPriceSeries),
		errors.Is(err, engine.ErrMissingPriceData):
		abortWithError(c, http.StatusUnprocessableEntity, "BAD_MARKET_DATA", err)
	default:
		abortWithError(c, http.StatusInternalServerError, "BACKTEST_FAILED", err)
	}
}

func abortWithError(c *gin.Context, status int, code string, err error) {
	c.AbortWithStatusJSON(status, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: err.Error(),
		},
	})
}
