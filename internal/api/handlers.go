package api

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/udisondev/opdps/internal/dataio"
	"github.com/udisondev/opdps/internal/model"
	"github.com/udisondev/opdps/internal/report"
	"github.com/udisondev/opdps/internal/service"
)

const (
	mimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	mimePNG  = "image/png"
)

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) listOperators(c *gin.Context) {
	recs, err := s.calc.Operators(c.Request.Context(), c.Query("class"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, recs)
}

func (s *Server) createOperator(c *gin.Context) {
	var rec model.OperatorRecord
	if !bind(c, &rec) {
		return
	}
	rec.Profile.ID = 0
	out, err := s.calc.CreateOperator(c.Request.Context(), rec)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, out)
}

func (s *Server) getOperator(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	rec, err := s.calc.Operator(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (s *Server) updateOperator(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var rec model.OperatorRecord
	if !bind(c, &rec) {
		return
	}
	rec.Profile.ID = id
	out, err := s.calc.UpdateOperator(c.Request.Context(), rec)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) deleteOperator(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := s.calc.DeleteOperator(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) calculate(c *gin.Context) {
	var req service.CalculateRequest
	if !bind(c, &req) {
		return
	}
	out, err := s.calc.Calculate(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// compare answers with JSON, or with a report workbook (?format=xlsx) or a
// ranking bar chart (?format=png).
func (s *Server) compare(c *gin.Context) {
	var req service.CompareRequest
	if !bind(c, &req) {
		return
	}
	out, err := s.calc.Compare(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}

	switch c.DefaultQuery("format", "json") {
	case "xlsx":
		var buf bytes.Buffer
		if err := report.WriteComparisonXLSX(&buf, out); err != nil {
			writeError(c, err)
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="comparison-%s.xlsx"`, out.ID))
		c.Data(http.StatusOK, mimeXLSX, buf.Bytes())
	case "png":
		img, err := report.ComparisonBarChart(out)
		if err != nil {
			writeError(c, err)
			return
		}
		c.Data(http.StatusOK, mimePNG, img)
	case "timeline":
		img, err := report.LineChart("Cumulative damage", "time (s)", "damage", report.TimelineSeries(out))
		if err != nil {
			writeError(c, err)
			return
		}
		c.Data(http.StatusOK, mimePNG, img)
	default:
		c.JSON(http.StatusOK, out)
	}
}

// curve answers with JSON or a line chart (?format=png).
func (s *Server) curve(c *gin.Context) {
	var req service.CurveRequest
	if !bind(c, &req) {
		return
	}
	out, err := s.calc.Curve(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}

	if c.Query("format") != "png" {
		c.JSON(http.StatusOK, out)
		return
	}
	series := report.Series{Name: out.Operator, Points: make([]report.Point, len(out.Points))}
	for i, p := range out.Points {
		series.Points[i] = report.Point{X: p.Value, Y: p.Dps}
	}
	img, err := report.LineChart(fmt.Sprintf("DPS by enemy %s", out.Kind), out.Kind, "dps", []report.Series{series})
	if err != nil {
		writeError(c, err)
		return
	}
	c.Data(http.StatusOK, mimePNG, img)
}

func (s *Server) history(c *gin.Context) {
	limit, ok := queryLimit(c)
	if !ok {
		return
	}
	recs, err := s.calc.History(c.Request.Context(), c.Query("kind"), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, recs)
}

func (s *Server) imports(c *gin.Context) {
	limit, ok := queryLimit(c)
	if !ok {
		return
	}
	recs, err := s.calc.Imports(c.Request.Context(), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, recs)
}

// importFile accepts a multipart upload in field "file". The format comes
// from ?format= or the file extension.
func (s *Server) importFile(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart field \"file\" is required"})
		return
	}
	name := filepath.Base(fh.Filename)
	format, err := dataio.ParseFormat(c.DefaultQuery("format", filepath.Ext(name)))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	f, err := fh.Open()
	if err != nil {
		writeError(c, err)
		return
	}
	defer f.Close()

	summary, err := s.calc.Import(c.Request.Context(), f, format, name)
	if err != nil {
		if summary.Status == model.ImportFailed {
			c.JSON(http.StatusBadRequest, summary)
			return
		}
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (s *Server) export(c *gin.Context) {
	format, err := dataio.ParseFormat(c.DefaultQuery("format", "csv"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var buf bytes.Buffer
	if _, err := s.calc.Export(c.Request.Context(), &buf, format, c.Query("class")); err != nil {
		writeError(c, err)
		return
	}

	mime := "text/csv; charset=utf-8"
	switch format {
	case dataio.FormatJSON:
		mime = "application/json"
	case dataio.FormatXLSX:
		mime = mimeXLSX
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="operators.%s"`, format))
	c.Data(http.StatusOK, mime, buf.Bytes())
}

func bind(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return false
	}
	return true
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid operator id"})
		return 0, false
	}
	return id, true
}

func queryLimit(c *gin.Context) (int, bool) {
	raw := c.Query("limit")
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
		return 0, false
	}
	return n, true
}

// writeError maps domain errors to status codes. Anything unrecognized is
// logged and reported as 500.
func writeError(c *gin.Context, err error) {
	var (
		modErr   *model.InvalidModifierError
		dtErr    *model.UnknownDamageTypeError
		scErr    *model.InvalidScenarioError
		emptyErr *model.EmptyOperatorSetError
		profErr  *model.InvalidProfileError
		dupErr   *model.DuplicateOperatorError
	)

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrOperatorNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrInvalidRequest):
		status = http.StatusBadRequest
	case errors.As(err, &dupErr):
		status = http.StatusConflict
	case errors.As(err, &modErr), errors.As(err, &dtErr), errors.As(err, &scErr),
		errors.As(err, &emptyErr), errors.As(err, &profErr):
		status = http.StatusBadRequest
	}

	if status == http.StatusInternalServerError {
		slog.Error("request failed", "path", c.FullPath(), "error", err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
