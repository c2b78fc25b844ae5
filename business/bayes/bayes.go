// Package bayes decides whether a sequence of speeds looks like walking, cycling or something else
// with a sequential Bayesian update over a table of speed likelihoods.
package bayes

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/gocarina/gocsv"
)

// Category is one of the movement classes speeds are classified into
type Category int

// Categories index every Vector
const (
	Walk Category = iota
	Bike
	Other
)

func (c Category) String() string {
	switch c {
	case Walk:
		return "walk"
	case Bike:
		return "bike"
	case Other:
		return "other"
	}
	return fmt.Sprintf("Category(%d)", int(c))
}

const (
	// Buckets is the number of speed ranges in a Table
	Buckets = 24
	// BucketWidth is the width of each speed range in km/h
	BucketWidth = 2.0
	// degenerateDotProduct is the largest normalising factor treated as no information
	degenerateDotProduct = 1e-12
)

// Vector holds one value per Category
type Vector [3]float64

// Prior is the belief before any speed is seen. Ties between walk and bike go to other.
var Prior = Vector{0.33, 0.33, 0.34}

// Argmax returns the Category with the greatest value, the lowest Category wins a tie
func (v Vector) Argmax() Category {
	best := Walk
	for c := Bike; c <= Other; c++ {
		if v[c] > v[best] {
			best = c
		}
	}
	return best
}

// Table holds P(speed bucket | category) for every bucket.
// Columns are not required to sum to 1.
type Table [Buckets]Vector

// Bucket returns the Table row for speed in km/h. Speeds of 46 km/h and above share the top bucket,
// negative or invalid speeds fall in the first.
func Bucket(speed float64) int {
	if math.IsNaN(speed) || speed <= 0 {
		return 0
	}
	if speed >= Buckets*BucketWidth {
		return Buckets - 1
	}
	return int(math.Floor(speed / BucketWidth))
}

// Classifier classifies speed sequences with a Table
type Classifier struct {
	table Table
}

// NewClassifier creates a Classifier using table
func NewClassifier(table Table) *Classifier {
	return &Classifier{table: table}
}

// Classify returns the posterior over categories after observing speeds in order, rounded to 2 decimals.
// A speed whose likelihoods carry no information leaves the posterior unchanged.
func (c *Classifier) Classify(speeds []float64) Vector {
	posterior := Prior
	for _, speed := range speeds {
		likelihood := c.table[Bucket(speed)]
		dot := 0.0
		for i := range posterior {
			dot += posterior[i] * likelihood[i]
		}
		if dot <= degenerateDotProduct {
			continue
		}
		for i := range posterior {
			posterior[i] = posterior[i] * likelihood[i] / dot
		}
	}
	for i := range posterior {
		posterior[i] = roundProbability(posterior[i])
	}
	return posterior
}

// roundProbability rounds p to 2 decimals, halves to even
func roundProbability(p float64) float64 {
	return math.RoundToEven(p*100) / 100
}

// Check reports whether speeds are most likely of the expected Category
func (c *Classifier) Check(speeds []float64, expected Category) bool {
	return c.Classify(speeds).Argmax() == expected
}

//go:embed probability_wco.csv
var defaultTable []byte

// tableRow is a row of a probability table csv file
type tableRow struct {
	Walk  float64 `csv:"walk"`
	Cycle float64 `csv:"cycle"`
	Other float64 `csv:"other"`
}

// DefaultTable returns the built in probability table
func DefaultTable() (Table, error) {
	return ReadTable(bytes.NewReader(defaultTable))
}

// LoadTable reads a probability table from the csv file at path
func LoadTable(path string) (Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return Table{}, fmt.Errorf("unable to open probability table: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()
	table, err := ReadTable(f)
	if err != nil {
		return Table{}, fmt.Errorf("%s: %w", path, err)
	}
	return table, nil
}

// ReadTable reads a probability table in csv form with columns walk, cycle and other,
// one row per speed bucket starting at 0 km/h
func ReadTable(r io.Reader) (Table, error) {
	var rows []*tableRow
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return Table{}, fmt.Errorf("unable to parse probability table: %w", err)
	}
	if len(rows) != Buckets {
		return Table{}, fmt.Errorf("probability table has %d rows, expected %d", len(rows), Buckets)
	}
	var table Table
	for i, row := range rows {
		if row.Walk < 0 || row.Cycle < 0 || row.Other < 0 {
			return Table{}, fmt.Errorf("probability table row %d has a negative likelihood", i+1)
		}
		table[i] = Vector{row.Walk, row.Cycle, row.Other}
	}
	return table, nil
}
