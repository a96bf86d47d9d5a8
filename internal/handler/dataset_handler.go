package handler

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/tableviz/internal/czml"
	"github.com/jengzang/tableviz/internal/dataset"
	"github.com/jengzang/tableviz/internal/loader"
	"github.com/jengzang/tableviz/internal/models"
	"github.com/jengzang/tableviz/internal/repository"
	"github.com/jengzang/tableviz/internal/service"
	"github.com/jengzang/tableviz/internal/viz"
	"github.com/jengzang/tableviz/pkg/response"
)

// DatasetHandler handles HTTP requests for datasets and their display output
type DatasetHandler struct {
	datasetService *service.DatasetService
	maxBodyBytes   int64
}

// NewDatasetHandler creates a new dataset handler. maxBodyBytes limits
// uploads after decompression; <= 0 disables the limit.
func NewDatasetHandler(datasetService *service.DatasetService, maxBodyBytes int64) *DatasetHandler {
	return &DatasetHandler{
		datasetService: datasetService,
		maxBodyBytes:   maxBodyBytes,
	}
}

// fail maps service errors to HTTP responses. Size and deadline errors are
// checked before the generic fetch failure that wraps them.
func fail(c *gin.Context, err error) {
	_ = c.Error(err)
	switch {
	case errors.Is(err, loader.ErrTooLarge):
		response.Error(c, http.StatusRequestEntityTooLarge, err.Error())
	case loader.IsTimeout(err):
		response.Error(c, http.StatusGatewayTimeout, err.Error())
	case errors.Is(err, repository.ErrNotFound):
		response.NotFound(c, "Dataset not found")
	case errors.Is(err, service.ErrInvalidInput), errors.Is(err, viz.ErrNoTimeData):
		response.BadRequest(c, err.Error())
	case errors.Is(err, loader.ErrSuperseded):
		response.Conflict(c, err.Error())
	case errors.Is(err, loader.ErrFetchFailed):
		response.Error(c, http.StatusBadGateway, err.Error())
	default:
		response.InternalError(c, err.Error())
	}
}

// readBody returns the request body as text, decompressing gzip payloads.
// The limit applies to the body as sent and again after inflation.
func (h *DatasetHandler) readBody(c *gin.Context) (string, error) {
	var r io.Reader = c.Request.Body
	if h.maxBodyBytes > 0 {
		r = io.LimitReader(r, h.maxBodyBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	if h.maxBodyBytes > 0 && int64(len(data)) > h.maxBodyBytes {
		return "", loader.ErrTooLarge
	}
	if loader.IsGzip(data) || strings.EqualFold(c.GetHeader("Content-Encoding"), "gzip") {
		return loader.Decompress(data, h.maxBodyBytes)
	}
	return string(data), nil
}

// CreateDataset handles POST /api/v1/datasets. A JSON body is a
// CreateDatasetRequest; any other body is CSV text named by ?name=.
func (h *DatasetHandler) CreateDataset(c *gin.Context) {
	var req models.CreateDatasetRequest
	if c.ContentType() == gin.MIMEJSON {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, "Invalid request body")
			return
		}
	} else {
		text, err := h.readBody(c)
		if errors.Is(err, loader.ErrTooLarge) {
			fail(c, err)
			return
		}
		if err != nil {
			response.BadRequest(c, "Invalid request body")
			return
		}
		req = models.CreateDatasetRequest{Name: c.Query("name"), Content: text}
	}

	ds, err := h.datasetService.Create(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	response.Created(c, ds)
}

// ListDatasets handles GET /api/v1/datasets
func (h *DatasetHandler) ListDatasets(c *gin.Context) {
	var filter models.DatasetFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}

	result, err := h.datasetService.List(filter)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, result)
}

// GetDataset handles GET /api/v1/datasets/:id
func (h *DatasetHandler) GetDataset(c *gin.Context) {
	ds, err := h.datasetService.Get(c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, ds)
}

// DeleteDataset handles DELETE /api/v1/datasets/:id
func (h *DatasetHandler) DeleteDataset(c *gin.Context) {
	if err := h.datasetService.Delete(c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	response.Success(c, gin.H{"id": c.Param("id")})
}

// ReloadDataset handles POST /api/v1/datasets/:id/reload
func (h *DatasetHandler) ReloadDataset(c *gin.Context) {
	ds, err := h.datasetService.Reload(c.Request.Context(), c.Param("id"), models.LoadSourceURL)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, ds)
}

// GetLoads handles GET /api/v1/datasets/:id/loads
func (h *DatasetHandler) GetLoads(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil {
		response.BadRequest(c, "Invalid limit parameter")
		return
	}

	loads, err := h.datasetService.Loads(c.Param("id"), limit)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, gin.H{
		"data":  loads,
		"count": len(loads),
	})
}

// GetStyle handles GET /api/v1/datasets/:id/style
func (h *DatasetHandler) GetStyle(c *gin.Context) {
	style, err := h.datasetService.Style(c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, style)
}

// UpdateStyle handles PUT /api/v1/datasets/:id/style
func (h *DatasetHandler) UpdateStyle(c *gin.Context) {
	var patch models.StylePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		response.BadRequest(c, "Invalid style")
		return
	}

	style, err := h.datasetService.UpdateStyle(c.Param("id"), patch)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, style)
}

// GetRecords handles GET /api/v1/datasets/:id/records
func (h *DatasetHandler) GetRecords(c *gin.Context) {
	result, err := h.datasetService.Records(c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, result)
}

// GetCZML handles GET /api/v1/datasets/:id/czml
func (h *DatasetHandler) GetCZML(c *gin.Context) {
	packets, err := h.datasetService.CZML(c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}

	var buf bytes.Buffer
	if err := czml.Encode(&buf, packets); err != nil {
		fail(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json", buf.Bytes())
}

// GetLegend handles GET /api/v1/datasets/:id/legend.png. Fixed-color styles
// have no legend and answer 204.
func (h *DatasetHandler) GetLegend(c *gin.Context) {
	png, err := h.datasetService.Legend(c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	if png == nil {
		c.Status(http.StatusNoContent)
		return
	}
	if c.Query("format") == "uri" {
		response.Success(c, gin.H{"uri": viz.DataURI(png)})
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

// GetPoints handles GET /api/v1/datasets/:id/points?time=
func (h *DatasetHandler) GetPoints(c *gin.Context) {
	t, ok := dataset.ParseTime(c.Query("time"))
	if !ok {
		response.BadRequest(c, "Invalid time parameter")
		return
	}

	rows, err := h.datasetService.PointsAt(c.Param("id"), t)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, gin.H{
		"time":  t,
		"rows":  rows,
		"count": len(rows),
	})
}

// GetSlice handles GET /api/v1/datasets/:id/slice?time=
func (h *DatasetHandler) GetSlice(c *gin.Context) {
	t, ok := dataset.ParseTime(c.Query("time"))
	if !ok {
		response.BadRequest(c, "Invalid time parameter")
		return
	}

	iv, err := h.datasetService.TimeSlice(c.Param("id"), t)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, gin.H{
		"start":    iv.Start,
		"finish":   iv.Finish,
		"interval": iv.ISO8601(),
	})
}

// GetSummary handles GET /api/v1/datasets/:id/summary
func (h *DatasetHandler) GetSummary(c *gin.Context) {
	sum, err := h.datasetService.Summary(c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, sum)
}
