package service

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/gorilla/mux"

	"lazyframe/pkg/engine"
)

// A Route defines the parameters for an api endpoint
type Route struct {
	Method      string
	Pattern     string
	HandlerFunc http.HandlerFunc
}

// Routes is a map of defined api endpoints
type Routes map[string]Route

// Router defines the required methods for retrieving api routes
type Router interface {
	Routes() Routes
}

// NewRouter creates a new router for any number of api routers
func NewRouter(logger log.Logger, routers ...Router) *mux.Router {
	router := mux.NewRouter().StrictSlash(true)
	for _, api := range routers {
		for name, route := range api.Routes() {
			var handler http.Handler = route.HandlerFunc
			handler = Logger(logger, handler, name)

			router.
				Methods(route.Method).
				Path(route.Pattern).
				Name(name).
				Handler(handler)
		}
	}
	return router
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Logger logs every request handled by inner.
func Logger(logger log.Logger, inner http.Handler, name string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		inner.ServeHTTP(rec, r)

		lvl := level.Debug
		if rec.status >= http.StatusInternalServerError {
			lvl = level.Warn
		}
		lvl(logger).Log(
			"msg", "request",
			"method", r.Method,
			"uri", r.RequestURI,
			"route", name,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}

// FramesAPIController binds http requests to the frames service.
type FramesAPIController struct {
	service *FramesAPIService
	logger  log.Logger
}

func NewFramesAPIController(s *FramesAPIService, logger log.Logger) *FramesAPIController {
	return &FramesAPIController{service: s, logger: logger}
}

func (c *FramesAPIController) Routes() Routes {
	return Routes{
		"GetFrames":     Route{http.MethodGet, "/frames", c.GetFrames},
		"LoadFrame":     Route{http.MethodPost, "/frames", c.LoadFrame},
		"GetFrame":      Route{http.MethodGet, "/frames/{var}", c.GetFrame},
		"DeleteFrame":   Route{http.MethodDelete, "/frames/{var}", c.DeleteFrame},
		"KeepColumns":   Route{http.MethodPost, "/frames/{var}/keep", c.KeepColumns},
		"Pipeline":      Route{http.MethodPost, "/frames/{var}/pipeline", c.Pipeline},
		"FindColumn":    Route{http.MethodGet, "/frames/{var}/find", c.FindColumn},
		"GetColumnType": Route{http.MethodGet, "/frames/{var}/types/{index}", c.GetColumnType},
		"SaveFrame":     Route{http.MethodPost, "/frames/{var}/save", c.SaveFrame},
		"PreviewFrame":  Route{http.MethodGet, "/frames/{var}/preview", c.PreviewFrame},
	}
}

func (c *FramesAPIController) GetFrames(w http.ResponseWriter, r *http.Request) {
	result, err := c.service.GetFrames(r.Context())
	c.respond(w, result, err)
}

func (c *FramesAPIController) LoadFrame(w http.ResponseWriter, r *http.Request) {
	var req LoadFrameRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		c.respond(w, errorResponse(err), nil)
		return
	}
	result, err := c.service.LoadFrame(r.Context(), req)
	c.respond(w, result, err)
}

func (c *FramesAPIController) GetFrame(w http.ResponseWriter, r *http.Request) {
	result, err := c.service.GetFrame(r.Context(), mux.Vars(r)["var"])
	c.respond(w, result, err)
}

func (c *FramesAPIController) DeleteFrame(w http.ResponseWriter, r *http.Request) {
	result, err := c.service.DeleteFrame(r.Context(), mux.Vars(r)["var"])
	c.respond(w, result, err)
}

func (c *FramesAPIController) KeepColumns(w http.ResponseWriter, r *http.Request) {
	var req KeepColumnsRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		c.respond(w, errorResponse(err), nil)
		return
	}
	result, err := c.service.KeepColumns(r.Context(), mux.Vars(r)["var"], req)
	c.respond(w, result, err)
}

func (c *FramesAPIController) Pipeline(w http.ResponseWriter, r *http.Request) {
	var req PipelineRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		c.respond(w, errorResponse(err), nil)
		return
	}
	result, err := c.service.Pipeline(r.Context(), mux.Vars(r)["var"], req)
	c.respond(w, result, err)
}

func (c *FramesAPIController) FindColumn(w http.ResponseWriter, r *http.Request) {
	result, err := c.service.FindColumn(r.Context(), mux.Vars(r)["var"], r.URL.Query().Get("name"))
	c.respond(w, result, err)
}

func (c *FramesAPIController) GetColumnType(w http.ResponseWriter, r *http.Request) {
	params := mux.Vars(r)
	index, err := strconv.Atoi(params["index"])
	if err != nil {
		c.respond(w, errorResponse(NewVErr("index must be an integer", params["index"])), nil)
		return
	}
	result, err := c.service.GetColumnType(r.Context(), params["var"], index)
	c.respond(w, result, err)
}

func (c *FramesAPIController) SaveFrame(w http.ResponseWriter, r *http.Request) {
	var req SaveFrameRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		c.respond(w, errorResponse(err), nil)
		return
	}
	result, err := c.service.SaveFrame(r.Context(), mux.Vars(r)["var"], req)
	c.respond(w, result, err)
}

func (c *FramesAPIController) PreviewFrame(w http.ResponseWriter, r *http.Request) {
	var limit uint64
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			c.respond(w, errorResponse(NewVErr("limit must be a non-negative integer", raw)), nil)
			return
		}
		limit = n
	}
	result, err := c.service.PreviewFrame(r.Context(), mux.Vars(r)["var"], limit)
	c.respond(w, result, err)
}

func (c *FramesAPIController) respond(w http.ResponseWriter, result ImplResponse, err error) {
	respond(c.logger, w, result, err)
}

// TablesAPIController binds http requests to the tables service.
type TablesAPIController struct {
	service *TablesAPIService
	logger  log.Logger
}

func NewTablesAPIController(s *TablesAPIService, logger log.Logger) *TablesAPIController {
	return &TablesAPIController{service: s, logger: logger}
}

func (c *TablesAPIController) Routes() Routes {
	return Routes{
		"GetTables":   Route{http.MethodGet, "/tables", c.GetTables},
		"CreateTable": Route{http.MethodPost, "/tables", c.CreateTable},
		"DeleteTable": Route{http.MethodDelete, "/tables/{name}", c.DeleteTable},
		"InsertData":  Route{http.MethodPost, "/tables/{name}/data", c.InsertData},
	}
}

func (c *TablesAPIController) GetTables(w http.ResponseWriter, r *http.Request) {
	result, err := c.service.GetTables(r.Context())
	respond(c.logger, w, result, err)
}

func (c *TablesAPIController) CreateTable(w http.ResponseWriter, r *http.Request) {
	var schema TableSchema
	if err := decodeJSON(r.Body, &schema); err != nil {
		respond(c.logger, w, errorResponse(err), nil)
		return
	}
	result, err := c.service.CreateTable(r.Context(), schema)
	respond(c.logger, w, result, err)
}

func (c *TablesAPIController) DeleteTable(w http.ResponseWriter, r *http.Request) {
	result, err := c.service.DeleteTable(r.Context(), mux.Vars(r)["name"])
	respond(c.logger, w, result, err)
}

func (c *TablesAPIController) InsertData(w http.ResponseWriter, r *http.Request) {
	var data engine.ColumnarResult
	if err := decodeJSON(r.Body, &data); err != nil {
		respond(c.logger, w, errorResponse(err), nil)
		return
	}
	result, err := c.service.InsertData(r.Context(), mux.Vars(r)["name"], data)
	respond(c.logger, w, result, err)
}

// SystemAPIController serves the system information endpoint.
type SystemAPIController struct {
	service *SystemAPIService
	logger  log.Logger
}

func NewSystemAPIController(s *SystemAPIService, logger log.Logger) *SystemAPIController {
	return &SystemAPIController{service: s, logger: logger}
}

func (c *SystemAPIController) Routes() Routes {
	return Routes{
		"GetSystemInfo": Route{http.MethodGet, "/system/info", c.GetSystemInfo},
	}
}

func (c *SystemAPIController) GetSystemInfo(w http.ResponseWriter, r *http.Request) {
	result, err := c.service.GetSystemInfo(r.Context())
	respond(c.logger, w, result, err)
}

func respond(logger log.Logger, w http.ResponseWriter, result ImplResponse, err error) {
	if err != nil {
		result = errorResponse(err)
	}
	if result.Code >= http.StatusInternalServerError {
		level.Error(logger).Log("msg", "request failed", "status", result.Code, "body", result.Body)
	}
	if err := EncodeJSONResponse(result.Body, result.Code, w); err != nil {
		level.Error(logger).Log("msg", "failed to encode response", "err", err)
	}
}
