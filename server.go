package main

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/whereami-sh/whereami/geolib"
)

const maxBatchSize = 256

type application struct {
	engine *geolib.Engine
}

func (app *application) handleSelf(w http.ResponseWriter, req *http.Request) {
	app.resolveOne(w, req, remoteAddress(req))
}

func (app *application) handleAddress(w http.ResponseWriter, req *http.Request) {
	app.resolveOne(w, req, chi.URLParam(req, "ip"))
}

func (app *application) resolveOne(w http.ResponseWriter, req *http.Request, addr string) {
	record, err := app.engine.Resolve(req.Context(), addr)

	switch {
	case err == nil:
	case errors.Is(err, geolib.ErrAddressNotUsable),
		errors.Is(err, geolib.ErrAllProvidersExhausted):
		// geolocation is an enhancement: a degraded record is still a
		// usable answer, not an error page
		record = app.engine.DegradedRecord(addr, err)
	default:
		abort(w, http.StatusServiceUnavailable, "Cannot resolve IP address")

		return
	}

	encodeJSON(w, struct {
		Result geolib.Record `json:"result"`
	}{
		Result: record,
	})
}

func (app *application) handleBatch(w http.ResponseWriter, req *http.Request) {
	request := struct {
		IPs []string `json:"ips"`
	}{}

	if err := json.NewDecoder(req.Body).Decode(&request); err != nil {
		abort(w, http.StatusBadRequest, "Cannot parse a request body")

		return
	}

	if len(request.IPs) == 0 || len(request.IPs) > maxBatchSize {
		abort(w, http.StatusBadRequest, "A batch must have between 1 and 256 addresses")

		return
	}

	records, err := app.engine.ResolveAll(req.Context(), request.IPs)
	if err != nil {
		abort(w, http.StatusServiceUnavailable, "Cannot resolve IP addresses")

		return
	}

	encodeJSON(w, struct {
		Results []geolib.Record `json:"results"`
	}{
		Results: records,
	})
}

func (app *application) handleStats(w http.ResponseWriter, req *http.Request) {
	encodeJSON(w, struct {
		Results []*geolib.UsageStats `json:"results"`
	}{
		Results: app.engine.UsageStats(),
	})
}

// remoteAddress tolerates both host:port remote addresses and the
// bare host which chi's RealIP middleware leaves behind.
func remoteAddress(req *http.Request) string {
	if host, _, err := net.SplitHostPort(req.RemoteAddr); err == nil {
		return host
	}

	return req.RemoteAddr
}

func encodeJSON(w http.ResponseWriter, data interface{}) {
	encoder := json.NewEncoder(w)

	w.Header().Add("Content-Type", "application/json")
	encoder.SetEscapeHTML(false)
	encoder.Encode(data) // nolint: errcheck
}

func abort(w http.ResponseWriter, code int, message string) {
	msg, _ := json.Marshal(map[string]string{"error": message})
	http.Error(w, string(msg), code)
}

func makeServer(engine *geolib.Engine) *chi.Mux {
	app := &application{
		engine: engine,
	}

	router := chi.NewRouter()

	router.Use(middleware.StripSlashes)
	router.Use(middleware.Timeout(60 * time.Second))
	router.Use(middleware.Recoverer)
	router.Use(middleware.RealIP)

	router.Get("/", app.handleSelf)
	router.Get("/stats", app.handleStats)
	router.Get("/{ip}", app.handleAddress)
	router.Post("/", app.handleBatch)

	return router
}
