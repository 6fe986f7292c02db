package core

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	m "bardata/models"
)

// public
const (
	DefaultAddr = ":8080"
)

// private
const (
	defaultLength = 30
)

type BarsResponse struct {
	Source string         `json:"source"`
	Symbol string         `json:"symbol"`
	Bars   []m.SeriesData `json:"bars"`
}

type MomentumResponse struct {
	Symbol       string  `json:"symbol"`
	Momentum     float64 `json:"momentum"`
	TotalVolume  float64 `json:"total_volume"`
	LastPrice    float64 `json:"last_price"`
	LastDividend float64 `json:"last_dividend"`
}

func GetHttpServer(sc ServiceContext, addr string) *http.Server {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	router.Get("/api/ping", func(w http.ResponseWriter, r *http.Request) { ping(w, r, sc) })
	router.Get("/api/bars", func(w http.ResponseWriter, r *http.Request) { getBatchBars(w, r, sc) })
	router.Get("/api/bars/{symbol}", func(w http.ResponseWriter, r *http.Request) { getBars(w, r, sc) })
	router.Get("/api/bars/{symbol}/momentum", func(w http.ResponseWriter, r *http.Request) { getMomentum(w, r, sc) })
	router.Get("/api/bars/{symbol}/statistics", func(w http.ResponseWriter, r *http.Request) { getStatistics(w, r, sc) })

	server := &http.Server{
		Addr:           addr,
		Handler:        router,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	return server
}

func ping(w http.ResponseWriter, r *http.Request, sc ServiceContext) {
	render.JSON(w, r, map[string]string{"message": "pong"})
}

func getBars(w http.ResponseWriter, r *http.Request, sc ServiceContext) {
	request, err := parseBarsRequest(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}

	sc.Context = r.Context()

	bars, err := sc.GetSymbolBars(request.asset, request.length, request.timestep, request.timeshift)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	if request.frequency != "" {
		bars, err = bars.AggregateBars(request.frequency)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
	}

	response := BarsResponse{
		Source: bars.Source,
		Symbol: bars.Symbol,
		Bars:   bars.Filter(request.start, request.end),
	}

	writeOk(w, r, &response)
}

func getBatchBars(w http.ResponseWriter, r *http.Request, sc ServiceContext) {
	request, err := parseBarsRequest(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}

	assets := parseSymbolList(r.URL.Query().Get("symbols"))
	if len(assets) == 0 {
		writeError(w, r, http.StatusBadRequest, errors.New("error parsing request, symbols parameter is required"))
		return
	}

	sc.Context = r.Context()

	series, err := sc.GetBars(assets, request.length, request.timestep, request.timeshift)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	response := make(map[string]BarsResponse, len(series))
	for symbol, bars := range series {
		response[symbol] = BarsResponse{
			Source: bars.Source,
			Symbol: bars.Symbol,
			Bars:   bars.Filter(request.start, request.end),
		}
	}

	writeOk(w, r, &response)
}

func getMomentum(w http.ResponseWriter, r *http.Request, sc ServiceContext) {
	request, err := parseBarsRequest(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}

	sc.Context = r.Context()

	bars, err := sc.GetSymbolBars(request.asset, request.length, request.timestep, request.timeshift)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	response := MomentumResponse{
		Symbol:       bars.Symbol,
		Momentum:     bars.GetMomentum(request.start, request.end),
		TotalVolume:  bars.GetTotalVolume(request.start, request.end),
		LastPrice:    bars.GetLastPrice(),
		LastDividend: bars.GetLastDividend(),
	}

	writeOk(w, r, &response)
}

func getStatistics(w http.ResponseWriter, r *http.Request, sc ServiceContext) {
	request, err := parseBarsRequest(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}

	// resolve the granularity once up front, the annualization and the
	// pull both depend on it
	timestep := MinTimestep
	if request.timestep != "" {
		timestep, err = parseTimestep(request.timestep)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
	}

	sc.Context = r.Context()

	frame, err := sc.PullSymbolBars(request.asset, request.length, timestep, request.timeshift)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	bars, err := sc.ParseSymbolBars(frame, request.asset)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	response := GetSeriesStatistics(bars, AnnualizationFactor(timestep))

	writeOk(w, r, response)
}

type barsRequest struct {
	asset     m.Asset
	length    int
	timestep  string
	timeshift time.Duration
	start     time.Time
	end       time.Time
	frequency string
}

func parseBarsRequest(r *http.Request) (barsRequest, error) {
	request := barsRequest{
		asset:     m.NewAsset(chi.URLParam(r, "symbol")),
		length:    defaultLength,
		timestep:  r.URL.Query().Get("timestep"),
		frequency: r.URL.Query().Get("frequency"),
	}

	if lengthStr := r.URL.Query().Get("length"); lengthStr != "" {
		length, err := strconv.Atoi(lengthStr)
		if err != nil {
			return request, fmt.Errorf("error parsing length %q: %w", lengthStr, err)
		}
		if length < 1 {
			return request, fmt.Errorf("error parsing length %q: must be a positive integer", lengthStr)
		}
		request.length = length
	}

	if timeshiftStr := r.URL.Query().Get("timeshift"); timeshiftStr != "" {
		timeshift, err := time.ParseDuration(timeshiftStr)
		if err != nil {
			return request, fmt.Errorf("error parsing timeshift %q: %w", timeshiftStr, err)
		}
		request.timeshift = timeshift
	}

	if startStr := r.URL.Query().Get("start"); startStr != "" {
		start, err := time.Parse(time.RFC3339, startStr)
		if err != nil {
			return request, fmt.Errorf("error parsing start %q: %w", startStr, err)
		}
		request.start = start
	}

	if endStr := r.URL.Query().Get("end"); endStr != "" {
		end, err := time.Parse(time.RFC3339, endStr)
		if err != nil {
			return request, fmt.Errorf("error parsing end %q: %w", endStr, err)
		}
		request.end = end
	}

	return request, nil
}

func parseSymbolList(symbols string) []m.Asset {
	assets := make([]m.Asset, 0)
	for _, symbol := range strings.Split(symbols, ",") {
		if symbol = strings.TrimSpace(symbol); symbol != "" {
			assets = append(assets, m.NewAsset(symbol))
		}
	}
	return assets
}

// writeServiceError maps domain errors onto status codes. Anything
// unrecognized is assumed to have come from the upstream source.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var noData m.NoBarDataError
	var badTimestep m.UnknownTimestepError
	var badFrequency m.UnknownFrequencyError

	switch {
	case errors.As(err, &noData):
		writeError(w, r, http.StatusNotFound, err)
	case errors.As(err, &badTimestep), errors.As(err, &badFrequency):
		writeError(w, r, http.StatusBadRequest, err)
	default:
		writeError(w, r, http.StatusBadGateway, err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	render.Status(r, status)
	render.JSON(w, r, m.GetServiceResponseError(err.Error()))
}

func writeOk[T any](w http.ResponseWriter, r *http.Request, data *T) {
	render.Status(r, http.StatusOK)
	render.JSON(w, r, m.GetServiceResponseOk(data))
}
