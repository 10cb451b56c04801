package handlers

import (
	"context"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/protflow/internal/application/results"
	"github.com/turtacn/protflow/internal/domain/docking"
	"github.com/turtacn/protflow/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/protflow/pkg/errors"
	dto "github.com/turtacn/protflow/pkg/types/docking"
)

// DefaultBestN is the size of the best-affinity list when n is not given.
const DefaultBestN = 10

const maxBestN = 1000

// RunReader loads stored runs.  Satisfied by *postgres.ResultRepository.
type RunReader interface {
	ListRun(ctx context.Context, runID string) (*docking.Run, error)
}

// ResultsHandler serves the persisted tables under resultsDir and, when a
// store is configured, stored runs.
type ResultsHandler struct {
	resultsDir string
	runs       RunReader
	logger     logging.Logger
}

// NewResultsHandler creates a ResultsHandler.  runs may be nil.
func NewResultsHandler(resultsDir string, runs RunReader, logger logging.Logger) *ResultsHandler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &ResultsHandler{resultsDir: resultsDir, runs: runs, logger: logger.Named("api")}
}

// ListPockets handles GET /api/v1/pockets[?structure=<id>].
func (h *ResultsHandler) ListPockets(c *gin.Context) {
	pockets, err := readTable(h.resultsDir, results.PocketTableName, results.ReadPockets)
	if err != nil {
		writeAppError(c, err)
		return
	}
	if id := c.Query("structure"); id != "" {
		kept := pockets[:0]
		for _, p := range pockets {
			if p.StructureID() == id {
				kept = append(kept, p)
			}
		}
		pockets = kept
	}
	c.JSON(http.StatusOK, dto.PocketListResponse{Count: len(pockets), Pockets: dto.FromPockets(pockets)})
}

// ListResults handles GET /api/v1/results[?sort=rank].  The summary covers
// the whole table.
func (h *ResultsHandler) ListResults(c *gin.Context) {
	res, err := readTable(h.resultsDir, results.DockingTableName, results.ReadDocking)
	if err != nil {
		writeAppError(c, err)
		return
	}
	if c.Query("sort") == "rank" {
		results.SortByStructureRank(res)
	}
	c.JSON(http.StatusOK, dto.ResultListResponse{Summary: summary(res), Results: dto.FromResults(res)})
}

// BestResults handles GET /api/v1/results/best[?n=10].
func (h *ResultsHandler) BestResults(c *gin.Context) {
	res, err := readTable(h.resultsDir, results.DockingTableName, results.ReadDocking)
	if err != nil {
		writeAppError(c, err)
		return
	}
	n := parseLimit(c, "n", DefaultBestN, maxBestN)
	c.JSON(http.StatusOK, dto.ResultListResponse{Summary: summary(res), Results: dto.FromResults(results.Best(res, n))})
}

// GetRun handles GET /api/v1/runs/:id.
func (h *ResultsHandler) GetRun(c *gin.Context) {
	if h.runs == nil {
		writeAppError(c, errors.New(errors.ErrCodeFeatureDisabled, "result store is not enabled"))
		return
	}
	run, err := h.runs.ListRun(c.Request.Context(), c.Param("id"))
	if err != nil {
		if !errors.IsNotFound(err) {
			h.logger.Error("failed to load run", logging.String("run_id", c.Param("id")), logging.Err(err))
		}
		writeAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromRun(run))
}

// readTable loads name from dir.  A missing table is a not-found error.
func readTable[T any](dir, name string, read func(string) ([]T, error)) ([]T, error) {
	path := filepath.Join(dir, name)
	if _, err := os.Stat(path); err != nil {
		return nil, errors.NotFound("table not found").WithDetail(name)
	}
	return read(path)
}

func summary(res []docking.DockingResult) dto.SummaryDTO {
	s := results.Summarize(res)
	return dto.SummaryDTO{Total: s.Total, Succeeded: s.Succeeded, Failed: s.Failed, BestAffinity: s.Best}
}

//Personal.AI order the ending
