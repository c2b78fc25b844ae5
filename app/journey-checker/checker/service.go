package checker

import (
	"log"
	"os"
	"sync"

	"github.com/nats-io/nats.go"
)

//StartServices brings up the check request listener and web service. Returns on shutdown signal once both stopped.
//statusCheck may be nil when the service has no dependency to report on
func StartServices(log *log.Logger,
	natsConn *nats.Conn,
	cfg ListenerConfig,
	httpPort int,
	checker *Checker,
	lister LineLister,
	statusCheck StatusCheck,
	metrics *Metrics,
	shutdownSignal chan os.Signal) {

	wg := sync.WaitGroup{}

	publisher := makeResultsPublisher(log, natsConn, cfg.ResultsSubject, metrics)
	processor := makeCheckRequestProcessor(log, checker, publisher, metrics)

	//create shutdown channels
	listenerShutdown := make(chan bool, 1)
	webServiceShutdown := make(chan bool, 1)

	//start all child services
	wg.Add(2)
	go runCheckRequestListener(log, &wg, natsConn, cfg, processor, listenerShutdown)
	go runWebService(log, &wg, lister, statusCheck, metrics, httpPort, webServiceShutdown)

	<-shutdownSignal
	log.Printf("Exiting on shutdown signal, shutting down subroutines")
	listenerShutdown <- true
	webServiceShutdown <- true
	wg.Wait()
	log.Printf("Subroutines shut down, exiting journey checker service")
}
