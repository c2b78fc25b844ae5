package checker

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/OpenTransitTools/journeycheck/business/schedule"
	"github.com/gorilla/mux"
)

// LineLister provides the line names of a mode's schedule
type LineLister interface {
	Lines(mode string) ([]string, error)
}

// StatusCheck reports whether a dependency of the service can be reached
type StatusCheck func(ctx context.Context) error

//defaultHttpHandler simple default http handler for default route, reporting statusCheck failures when set
type defaultHttpHandler struct {
	log         *log.Logger
	statusCheck StatusCheck
}

//ServeHTTP implements defaultHttpHandler http.Handler interface
func (h *defaultHttpHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.statusCheck != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.statusCheck(ctx); err != nil {
			h.log.Printf("Status check failed: %v", err)
			w.Header().Add("Application-Status", "ERROR")
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
	}
	w.Header().Add("Application-Status", "OK")
}

// linesHandler responds with the line names loaded for the mode in the request path
type linesHandler struct {
	log    *log.Logger
	lister LineLister
}

// linesResponse is the json body of a lines request
type linesResponse struct {
	Mode  string   `json:"mode"`
	Lines []string `json:"lines"`
}

//ServeHTTP implements linesHandler http.Handler interface
func (h *linesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	mode := mux.Vars(r)["mode"]
	lines, err := h.lister.Lines(mode)
	if err != nil {
		if schedule.IsLookupError(err) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		h.log.Printf("Error loading %s lines: %v", mode, err)
		http.Error(w, "Error serving request", http.StatusInternalServerError)
		return
	}
	jsonData, err := json.Marshal(linesResponse{Mode: mode, Lines: lines})
	if err != nil {
		h.log.Printf("Error marshaling lines to json: error:%v\n", err)
		http.Error(w, "Error serving request", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if _, err = w.Write(jsonData); err != nil {
		h.log.Printf("Error writing json response: %s", err)
	}
}

//createServer creates configured http.Server for status, schedule lines and metrics requests
func createServer(log *log.Logger, lister LineLister, statusCheck StatusCheck, metrics *Metrics,
	httpPort int) *http.Server {
	r := mux.NewRouter()
	r.Handle("/", &defaultHttpHandler{log: log, statusCheck: statusCheck})
	r.Handle("/lines/{mode}", &linesHandler{log: log, lister: lister}).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler())
	return &http.Server{
		Addr:         strings.Join([]string{"0.0.0.0", strconv.Itoa(httpPort)}, ":"),
		WriteTimeout: time.Second * 15,
		ReadTimeout:  time.Second * 15,
		IdleTimeout:  time.Second * 60,
		Handler:      r,
	}
}

//runWebService starts up the web service, and terminates on shutdown signal
func runWebService(log *log.Logger,
	wg *sync.WaitGroup,
	lister LineLister,
	statusCheck StatusCheck,
	metrics *Metrics,
	httpPort int,
	shutdownSignal chan bool,
) {
	defer wg.Done()
	srv := createServer(log, lister, statusCheck, metrics, httpPort)
	log.Printf("Starting server on port %d", httpPort)
	go func() {
		if err := srv.ListenAndServe(); err != nil {
			log.Printf("server ListenAndServe ended. %s", err)
		}
	}()

	<-shutdownSignal
	log.Printf("ending webservice on shutdown signal")
	shutdownCtx, serverCancelFunc := context.WithTimeout(context.Background(), time.Duration(5)*time.Second)
	defer serverCancelFunc()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("error shutting down webservice, error:%s", err)
	}
}
