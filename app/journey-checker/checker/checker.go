// Package checker runs journey verification for the journey-checker application, over batches of files
// or requests received through NATS
package checker

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/OpenTransitTools/journeycheck/business/journey"
	"github.com/sourcegraph/conc/pool"
)

// Result is the outcome of checking one journey
type Result struct {
	// Source names where the journey came from, a file path or a NATS subject
	Source    string           `json:"source,omitempty"`
	JourneyId string           `json:"id"`
	Valid     bool             `json:"valid"`
	Verdict   *journey.Verdict `json:"verdict,omitempty"`
	Error     string           `json:"error,omitempty"`

	rejected bool
	index    int
}

func (r *Result) outcome() string {
	switch {
	case r.rejected:
		return outcomeRejected
	case r.Verdict == nil:
		return outcomeError
	case r.Valid:
		return outcomeValid
	}
	return outcomeInvalid
}

// Checker verifies journeys and records metrics about them. It is safe for concurrent use.
type Checker struct {
	log      *log.Logger
	verifier *journey.Verifier
	metrics  *Metrics
}

// NewChecker creates a Checker
func NewChecker(log *log.Logger, verifier *journey.Verifier, metrics *Metrics) *Checker {
	return &Checker{
		log:      log,
		verifier: verifier,
		metrics:  metrics,
	}
}

// Check verifies j. Journeys failing journey.Journey.Validate are rejected without verification.
func (c *Checker) Check(source string, j *journey.Journey) *Result {
	result := Result{Source: source, JourneyId: j.Id}
	start := time.Now()
	if err := j.Validate(); err != nil {
		result.Error = err.Error()
		result.rejected = true
	} else if verdict, err := c.verifier.Verify(j); err != nil {
		c.log.Printf("unable to verify journey %s from %s: %v", j.Id, source, err)
		result.Error = err.Error()
	} else {
		result.Verdict = verdict
		result.Valid = verdict.Valid()
	}
	c.metrics.observe(j, &result, time.Since(start))
	return &result
}

// CheckFile loads and verifies the journey file at path
func (c *Checker) CheckFile(path string) *Result {
	j, err := journey.ReadFile(path)
	if err != nil {
		c.log.Printf("unable to read journey: %v", err)
		result := Result{Source: path, JourneyId: filepath.Base(path), Error: err.Error()}
		c.metrics.JourneysChecked.WithLabelValues(result.outcome()).Inc()
		return &result
	}
	return c.Check(path, j)
}

// CheckFiles verifies every file in paths with at most maxGoroutines running at once.
// Results are returned in the order of paths.
func (c *Checker) CheckFiles(paths []string, maxGoroutines int) []*Result {
	p := pool.NewWithResults[*Result]()
	if maxGoroutines > 0 {
		p = p.WithMaxGoroutines(maxGoroutines)
	}
	for i, path := range paths {
		i, path := i, path
		p.Go(func() *Result {
			result := c.CheckFile(path)
			result.index = i
			return result
		})
	}
	results := p.Wait()
	sort.Slice(results, func(a, b int) bool {
		return results[a].index < results[b].index
	})
	return results
}

// isJourneyFile reports whether name has an extension journey.ReadFile understands
func isJourneyFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json", ".csv":
		return true
	}
	return false
}

// ExpandPaths replaces every directory in paths by the journey files found beneath it, sorted by name.
// Files named explicitly are kept whatever their extension.
func ExpandPaths(paths []string) ([]string, error) {
	results := make([]string, 0, len(paths))
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			results = append(results, path)
			continue
		}
		found := make([]string, 0)
		err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && isJourneyFile(d.Name()) {
				found = append(found, p)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("unable to list journeys in %s: %w", path, err)
		}
		sort.Strings(found)
		results = append(results, found...)
	}
	if len(results) == 0 {
		return nil, errors.New("no journey files found")
	}
	return results, nil
}
