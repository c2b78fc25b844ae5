package checker

import (
	"log"
	"sync"

	"github.com/OpenTransitTools/journeycheck/business/journey"
	"github.com/nats-io/nats.go"
)

// ListenerConfig names the NATS subjects the listener uses
type ListenerConfig struct {
	RequestSubject string
	QueueGroup     string
	ResultsSubject string
}

// runCheckRequestListener checks the journeys received on the request subject and publishes their results.
// Uses a queue group so more than one journey-checker process can share requests.
// Drains the subscription on shutdownSignal and returns once every received request was checked.
func runCheckRequestListener(
	log *log.Logger,
	wg *sync.WaitGroup,
	natsConn *nats.Conn,
	cfg ListenerConfig,
	processor *checkRequestProcessor,
	shutdownSignal chan bool) {
	defer wg.Done()

	ch := make(chan *nats.Msg, 64)
	log.Printf("Subscribing to %s in queue group %s on nats: %v\n", cfg.RequestSubject, cfg.QueueGroup,
		natsConn.Servers())
	sub, err := natsConn.ChanQueueSubscribe(cfg.RequestSubject, cfg.QueueGroup, ch)
	if err != nil {
		log.Printf("Unable to establish subscription to nats server: %v\n", err)
		return
	}

	handleCheckRequests(log, ch, processor, shutdownSignal, func() {
		drain(log, sub, cfg.RequestSubject)
	})
}

// handleCheckRequests processes each message received on ch until shutdownSignal.
// On shutdown it calls stop to end delivery, processes the messages still buffered in ch
// and returns once all checks completed.
func handleCheckRequests(log *log.Logger,
	ch chan *nats.Msg,
	processor *checkRequestProcessor,
	shutdownSignal chan bool,
	stop func()) {

	checkWG := sync.WaitGroup{}
	start := func(msg *nats.Msg) {
		checkWG.Add(1)
		go func() {
			defer checkWG.Done()
			processor.process(msg.Subject, msg.Data)
		}()
	}

	for {
		select {
		case msg := <-ch:
			start(msg)
		case <-shutdownSignal:
			log.Printf("ending check request listener on shutdown signal\n")
			stop()
			pending := 0
			for buffered := true; buffered; {
				select {
				case msg := <-ch:
					start(msg)
					pending++
				default:
					buffered = false
				}
			}
			log.Printf("waiting for pending checks to complete, %d received after shutdown\n", pending)
			checkWG.Wait()
			log.Printf("exiting check request listener\n")
			return
		}
	}
}

// drain convenience function for draining a NATS subscription, and logging the results.
func drain(log *log.Logger, sub *nats.Subscription, subject string) {
	if !sub.IsValid() {
		return
	}
	log.Printf("Draining subscription to %s\n", subject)
	if err := sub.Drain(); err != nil {
		log.Printf("error when attempting to drain %s: %v\n", subject, err)
	}
}

// checkRequestProcessor turns check request payloads into published results
type checkRequestProcessor struct {
	log       *log.Logger
	checker   *Checker
	publisher *resultsPublisher
	metrics   *Metrics
}

// makeCheckRequestProcessor builds checkRequestProcessor
func makeCheckRequestProcessor(log *log.Logger,
	checker *Checker,
	publisher *resultsPublisher,
	metrics *Metrics) *checkRequestProcessor {
	return &checkRequestProcessor{
		log:       log,
		checker:   checker,
		publisher: publisher,
		metrics:   metrics,
	}
}

// process decodes a journey document received on subject, checks it and publishes the result.
// Undecodable payloads are answered with a result holding the error.
func (p *checkRequestProcessor) process(subject string, data []byte) *Result {
	p.metrics.RequestsReceived.Inc()
	j, err := journey.DecodeJSON(data)
	if err != nil {
		p.log.Printf("error parsing journey: %v, payload of %d bytes", err, len(data))
		result := &Result{Source: subject, Error: err.Error()}
		p.metrics.JourneysChecked.WithLabelValues(result.outcome()).Inc()
		p.publisher.publish(result)
		return result
	}
	result := p.checker.Check(subject, j)
	p.publisher.publish(result)
	return result
}
