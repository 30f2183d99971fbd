package server

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzip"

	"github.com/ccollicutt/driverlog/pkg/detector"
	"github.com/ccollicutt/driverlog/pkg/output"
	"github.com/ccollicutt/driverlog/pkg/parser"
)

// DetectResponse is the wire shape of a detection result.
type DetectResponse struct {
	Dialect  string `json:"dialect"`
	Rule     string `json:"rule"`
	Marker   string `json:"marker,omitempty"`
	Fallback bool   `json:"fallback"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"version": s.version,
	})
}

func (s *Server) handleDetect(c *gin.Context) {
	_, text, err := s.readLogText(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res := s.detector.Detect(text)
	c.JSON(http.StatusOK, DetectResponse{
		Dialect:  string(res.Dialect),
		Rule:     res.Rule,
		Marker:   res.Marker,
		Fallback: res.Fallback,
	})
}

func (s *Server) handleParse(c *gin.Context) {
	name, text, err := s.readLogText(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var (
		entries []*parser.LogEntry
		dialect parser.Dialect
		rule    string
	)
	if forced := c.Query("dialect"); forced != "" && forced != "auto" {
		d, err := parser.ParseDialect(forced)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		dialect, rule = d, "forced"
		entries = parser.New(d).Parse(text)
	} else {
		var res detector.Result
		entries, res = s.detector.ParseText(text)
		dialect, rule = res.Dialect, res.Rule
	}

	c.JSON(http.StatusOK, output.NewReport(name, dialect, rule, entries))
}

// readLogText extracts the raw log text from the request body. Bodies may be
// gzip-encoded, and JSON requests carry a {"name", "content"} envelope.
func (s *Server) readLogText(c *gin.Context) (name, text string, err error) {
	var body io.Reader = http.MaxBytesReader(c.Writer, c.Request.Body, s.maxBodyBytes())

	if strings.EqualFold(c.GetHeader("Content-Encoding"), "gzip") {
		gz, err := gzip.NewReader(body)
		if err != nil {
			return "", "", fmt.Errorf("decoding gzip body: %w", err)
		}
		defer gz.Close()
		body = gz
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return "", "", fmt.Errorf("reading request body: %w", err)
	}

	name = "request"
	if c.ContentType() == "application/json" {
		p := s.parsers.Get()
		defer s.parsers.Put(p)

		v, err := p.ParseBytes(data)
		if err != nil {
			return "", "", fmt.Errorf("decoding envelope: %w", err)
		}
		if n := string(v.GetStringBytes("name")); n != "" {
			name = n
		}
		content := v.GetStringBytes("content")
		if content == nil {
			return "", "", fmt.Errorf("envelope is missing %q", "content")
		}
		return name, string(content), nil
	}

	return name, string(data), nil
}
