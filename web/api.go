package web

import (
	"arcgo/feature"
	ownIo "arcgo/io"
	"bytes"
	"encoding/json"
	"fmt"
	"github.com/gorilla/mux"
	"github.com/hauke96/sigolo/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"io"
	"net/http"
	"strings"
)

const maxLengthOfPrintedQuery = 10000

type ErrorResponse struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

func StartServer(port string, mapFile string, layer *feature.Layer, gatherer prometheus.Gatherer) {
	r := initRouter(mapFile, layer, gatherer)
	sigolo.Infof("Start server without TLS support on port %s", port)
	err := http.ListenAndServe(":"+port, r)
	sigolo.FatalCheck(err)
}

func StartServerTls(port string, certFile string, keyFile string, mapFile string, layer *feature.Layer, gatherer prometheus.Gatherer) {
	r := initRouter(mapFile, layer, gatherer)
	sigolo.Infof("Start server with TLS support on port %s", port)
	err := http.ListenAndServeTLS(":"+port, certFile, keyFile, r)
	sigolo.FatalCheck(err)
}

func initRouter(mapFile string, layer *feature.Layer, gatherer prometheus.Gatherer) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/app", func(writer http.ResponseWriter, request *http.Request) {
		sigolo.Infof("Serve %s", mapFile)
		http.ServeFile(writer, request, mapFile)
	}).Methods(http.MethodGet)
	r.HandleFunc("/query", func(writer http.ResponseWriter, request *http.Request) {
		handleQuery(writer, request, layer)
	}).Methods(http.MethodPost)
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	return r
}

// handleQuery takes a where clause as request body and answers with the matching features of the layer as GeoJSON.
func handleQuery(writer http.ResponseWriter, request *http.Request, layer *feature.Layer) {
	writer.Header().Set("Access-Control-Allow-Origin", "*")

	queryBytes, err := io.ReadAll(request.Body)
	if err != nil {
		sigolo.Errorf("Error reading HTTP body of request to '/query': %+v", err)
		writeError(writer, http.StatusInternalServerError, "Error reading HTTP body.")
		return
	}

	where := strings.TrimSpace(string(queryBytes))

	trimmedWhere := where
	whereRunes := []rune(where)
	if len(whereRunes) > maxLengthOfPrintedQuery {
		trimmedWhere = string(whereRunes[:maxLengthOfPrintedQuery]) + "... [truncated]"
	}
	sigolo.Infof("Query:\n%s", trimmedWhere)

	featureSet, err := layer.Query(request.Context(), feature.Query{Where: where, ReturnGeometry: true})
	if err != nil {
		sigolo.Errorf("Error executing query: %+v", err)
		writeError(writer, http.StatusBadGateway, fmt.Sprintf("Error executing query: %s", err))
		return
	}

	sigolo.Debugf("Found %d features", len(featureSet.Features))

	// Buffered so that a failed encoding can still be answered with an error status.
	var buffer bytes.Buffer
	err = ownIo.WriteFeaturesAsGeoJson(featureSet, &buffer)
	if err != nil {
		sigolo.Errorf("Error writing query result: %+v", err)
		writeError(writer, http.StatusInternalServerError, fmt.Sprintf("Error writing query result: %s", err))
		return
	}

	writer.Header().Set("Content-Type", "application/geo+json")
	_, err = writer.Write(buffer.Bytes())
	if err != nil {
		sigolo.Errorf("Error writing response: %+v", err)
	}
}

func writeError(writer http.ResponseWriter, status int, message string) {
	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(status)
	err := json.NewEncoder(writer).Encode(ErrorResponse{Status: status, Message: message})
	if err != nil {
		sigolo.Errorf("Error writing error response: %+v", err)
	}
}
