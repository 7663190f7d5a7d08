// Package api provides the REST API server for dx7syx
package api

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/james-see/dx7syx/pkg/converter"
	"github.com/james-see/dx7syx/pkg/converter/devices"
	"github.com/james-see/dx7syx/pkg/diag"
	"github.com/james-see/dx7syx/pkg/transform"
	"github.com/james-see/dx7syx/pkg/voice"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title dx7syx API
// @version 1.0
// @description API for decoding, converting and transforming Yamaha DX7 voice banks
// @host localhost:8080
// @BasePath /api/v1

// Options configures the handlers
type Options struct {
	Port            int
	Limit           int
	LenientChecksum bool
	Staccato        transform.StaccatoParameters
	Logger          *log.Logger
}

// Diagnostic is a diagnostic event as rendered in responses
type Diagnostic struct {
	diag.Event
	Cause string `json:"cause,omitempty"`
}

// ParseResponse is the body returned by the parse endpoint
type ParseResponse struct {
	Source      string             `json:"source"`
	Format      converter.Format   `json:"format"`
	Voices      []voice.NamedVoice `json:"voices"`
	Diagnostics []Diagnostic       `json:"diagnostics"`
	Errors      int                `json:"errors"`
	Warnings    int                `json:"warnings"`
}

type server struct {
	opts Options
}

// NewRouter builds the gin engine serving the API
func NewRouter(opts Options) *gin.Engine {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	s := &server{opts: opts}

	r := gin.Default()

	// CORS middleware
	r.Use(corsMiddleware())

	// Health check
	r.GET("/health", healthCheck)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		v1.GET("/health", healthCheck)
		v1.GET("/formats", listFormats)
		v1.GET("/devices", listDevices)
		v1.GET("/algorithms", listAlgorithms)
		v1.GET("/algorithms/:id", getAlgorithm)
		v1.POST("/parse", s.handleParse)
		v1.POST("/convert", s.handleConvert)
		v1.POST("/transform/staccato", s.handleStaccato)
	}

	// Swagger docs
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}

// StartServer starts the API server on opts.Port
func StartServer(opts Options) error {
	return NewRouter(opts).Run(fmt.Sprintf(":%d", opts.Port))
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// healthCheck godoc
// @Summary Health check endpoint
// @Description Returns the health status of the API
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "dx7syx",
	})
}

// listFormats godoc
// @Summary List supported formats
// @Description Returns a list of supported file formats
// @Tags info
// @Produce json
// @Success 200 {object} map[string][]string
// @Router /formats [get]
func listFormats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"formats":     converter.Formats(),
		"conversions": converter.GetSupportedConversions(),
	})
}

// listDevices godoc
// @Summary List supported devices
// @Description Returns a list of supported synthesizers
// @Tags info
// @Produce json
// @Success 200 {object} map[string][]map[string]string
// @Router /devices [get]
func listDevices(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"devices": []map[string]string{
			{"id": "dx7", "name": devices.NewDX7().Name(), "description": "32-voice bulk dump"},
		},
	})
}

// listAlgorithms godoc
// @Summary List algorithms
// @Description Returns the carrier and modulator operators of all 32 algorithms
// @Tags info
// @Produce json
// @Success 200 {array} voice.AlgorithmInfo
// @Router /algorithms [get]
func listAlgorithms(c *gin.Context) {
	c.JSON(http.StatusOK, voice.Algorithms())
}

// getAlgorithm godoc
// @Summary Describe one algorithm
// @Tags info
// @Produce json
// @Param id path int true "Algorithm number (1-32)"
// @Success 200 {object} voice.AlgorithmInfo
// @Failure 400 {object} map[string]string
// @Router /algorithms/{id} [get]
func getAlgorithm(c *gin.Context) {
	n, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "algorithm must be a number"})
		return
	}
	a, err := voice.NewAlgorithmID(n)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, voice.DescribeAlgorithm(a))
}

// handleParse godoc
// @Summary Decode a voice bank
// @Description Upload a bank and receive its voices and decode diagnostics as JSON
// @Tags voices
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Bank to decode"
// @Param from query string false "Input format (sysex-32, xml, xml.gz, midi); inferred when omitted"
// @Success 200 {object} ParseResponse
// @Failure 400 {object} map[string]string
// @Router /parse [post]
func (s *server) handleParse(c *gin.Context) {
	up, ok := s.readUpload(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, up.response())
}

// handleConvert godoc
// @Summary Convert a voice bank
// @Description Upload a bank and receive it re-encoded in another format
// @Tags convert
// @Accept multipart/form-data
// @Produce application/octet-stream
// @Param file formData file true "Bank to convert"
// @Param from query string false "Input format; inferred when omitted"
// @Param to query string true "Output format (sysex-32, xml, xml.gz, midi)"
// @Success 200 {file} binary
// @Failure 400 {object} map[string]string
// @Router /convert [post]
func (s *server) handleConvert(c *gin.Context) {
	to, err := converter.ParseFormat(c.Query("to"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	in, ok := receive(c)
	if !ok {
		return
	}
	result, err := s.converter(diag.Discard).Convert(in.data, in.format, to, in.filename)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var log diag.Log
	for _, e := range result.Diagnostics {
		log.Receive(e)
	}
	s.opts.Logger.Info("converted upload", "file", in.filename, "from", in.format, "to", to,
		"voices", result.Voices, "errors", len(log.Errors()), "warnings", len(log.Warnings()))
	respond(c, result.Data, result.Filename, to, result.Voices, &log)
}

// handleStaccato godoc
// @Summary Apply the staccato transform
// @Description Sets the attack and/or release rate of the selected operators to 99
// @Tags transform
// @Accept multipart/form-data
// @Produce application/octet-stream
// @Param file formData file true "Bank to transform"
// @Param from query string false "Input format; inferred when omitted"
// @Param to query string false "Output format; defaults to the input format"
// @Param affect query string false "carriers, modulators or all"
// @Param attack query bool false "Modify the attack rate"
// @Param release query bool false "Modify the release rate"
// @Success 200 {file} binary
// @Failure 400 {object} map[string]string
// @Router /transform/staccato [post]
func (s *server) handleStaccato(c *gin.Context) {
	p := s.opts.Staccato
	if v := c.Query("affect"); v != "" {
		a, err := transform.ParseAffect(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		p.Affect = a
	}
	for name, dst := range map[string]*bool{"attack": &p.ModifyAttack, "release": &p.ModifyRelease} {
		if v := c.Query(name); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("%s must be true or false", name)})
				return
			}
			*dst = b
		}
	}

	up, ok := s.readUpload(c)
	if !ok {
		return
	}
	to := up.format
	if v := c.Query("to"); v != "" {
		f, err := converter.ParseFormat(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		to = f
	}
	s.respondVoices(c, up, transform.Apply(up.voices, transform.Staccato(p)), to)
}

type upload struct {
	filename string
	format   converter.Format
	voices   []voice.NamedVoice
	log      diag.Log
}

func (u *upload) response() ParseResponse {
	resp := ParseResponse{
		Source:      u.filename,
		Format:      u.format,
		Voices:      u.voices,
		Diagnostics: make([]Diagnostic, 0, len(u.log.Events())),
		Errors:      len(u.log.Errors()),
		Warnings:    len(u.log.Warnings()),
	}
	if resp.Voices == nil {
		resp.Voices = []voice.NamedVoice{}
	}
	for _, e := range u.log.Events() {
		d := Diagnostic{Event: e}
		if e.Cause != nil {
			d.Cause = e.Cause.Error()
		}
		resp.Diagnostics = append(resp.Diagnostics, d)
	}
	return resp
}

func (s *server) converter(l diag.Listener) *converter.Converter {
	conv := converter.New(&devices.DX7{
		Limit:           s.opts.Limit,
		LenientChecksum: s.opts.LenientChecksum,
		Logger:          s.opts.Logger,
	})
	conv.SetListener(l)
	return conv
}

type received struct {
	filename string
	format   converter.Format
	data     []byte
}

// receive reads the multipart "file" field and settles its format from the
// "from" query, the file name or the content. It writes the error response
// itself and reports whether the handler should continue.
func receive(c *gin.Context) (*received, bool) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return nil, false
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read file"})
		return nil, false
	}

	in := &received{filename: header.Filename, data: data}
	if v := c.Query("from"); v != "" {
		if in.format, err = converter.ParseFormat(v); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return nil, false
		}
		return in, true
	}
	in.format = converter.DetectFormat(header.Filename)
	if in.format == converter.FormatUnknown {
		in.format = converter.DetectFormatFromContent(data)
	}
	if in.format == converter.FormatUnknown {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot determine input format"})
		return nil, false
	}
	return in, true
}

// readUpload receives the upload and decodes its voices
func (s *server) readUpload(c *gin.Context) (*upload, bool) {
	in, ok := receive(c)
	if !ok {
		return nil, false
	}
	up := &upload{filename: in.filename, format: in.format}
	var err error
	up.voices, err = s.converter(&up.log).Read(in.data, in.format, in.filename)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}
	s.opts.Logger.Info("decoded upload", "file", in.filename, "format", up.format,
		"voices", len(up.voices), "errors", len(up.log.Errors()), "warnings", len(up.log.Warnings()))
	return up, true
}

func (s *server) respondVoices(c *gin.Context, up *upload, voices []voice.NamedVoice, to converter.Format) {
	result, err := s.converter(diag.Discard).Write(voices, to)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	respond(c, result, converter.OutputName(up.filename, to), to, len(voices), &up.log)
}

func respond(c *gin.Context, data []byte, filename string, to converter.Format, voices int, log *diag.Log) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filepath.Base(filename)))
	c.Header("X-Voice-Count", strconv.Itoa(voices))
	c.Header("X-Diagnostic-Errors", strconv.Itoa(len(log.Errors())))
	c.Header("X-Diagnostic-Warnings", strconv.Itoa(len(log.Warnings())))
	c.Data(http.StatusOK, contentType(to), data)
}

func contentType(f converter.Format) string {
	switch f {
	case converter.FormatMIDI:
		return "audio/midi"
	case converter.FormatXML:
		return "application/xml"
	case converter.FormatXMLGz:
		return "application/gzip"
	default:
		return "application/octet-stream"
	}
}
