package checker

import (
	"encoding/json"
	"log"
)

// messagePublisher is the part of *nats.Conn used to send results
type messagePublisher interface {
	Publish(subject string, data []byte) error
}

// resultsPublisher sends check results as json over NATS
type resultsPublisher struct {
	log     *log.Logger
	conn    messagePublisher
	subject string
	metrics *Metrics
}

// makeResultsPublisher creates resultsPublisher sending on subject
func makeResultsPublisher(log *log.Logger, conn messagePublisher, subject string, metrics *Metrics) *resultsPublisher {
	return &resultsPublisher{
		log:     log,
		conn:    conn,
		subject: subject,
		metrics: metrics,
	}
}

// publish sends result, failures are logged and counted
func (p *resultsPublisher) publish(result *Result) {
	jsonData, err := json.Marshal(result)
	if err != nil {
		p.log.Printf("failed to marshal check result of journey %s, error:%v", result.JourneyId, err)
		p.metrics.PublishErrors.Inc()
		return
	}
	err = p.conn.Publish(p.subject, jsonData)
	if err != nil {
		p.log.Printf("failed to send check result of journey %s on %s, error:%v", result.JourneyId, p.subject, err)
		p.metrics.PublishErrors.Inc()
		return
	}
	p.metrics.ResultsPublished.Inc()
}
