// Package schedule provides read only, lazily loaded access to the static schedules of public transport modes
package schedule

import (
	"errors"
	"fmt"
	"sort"
)

// LookupError is returned when a mode has no schedule or a line has no route
type LookupError struct {
	Mode string
	Line string
}

func (e *LookupError) Error() string {
	if len(e.Line) == 0 {
		return fmt.Sprintf("no schedule available for mode %q", e.Mode)
	}
	return fmt.Sprintf("no route named %q in the %s schedule", e.Line, e.Mode)
}

// IsLookupError reports whether err was caused by an unknown mode or line
func IsLookupError(err error) bool {
	var lookupError *LookupError
	return errors.As(err, &lookupError)
}

// Repository holds the schedule Feed of every public transport mode.
// It is safe for concurrent use.
type Repository struct {
	feeds map[string]*Feed
}

// NewRepository creates a Repository from feeds, keyed by their mode
func NewRepository(feeds ...*Feed) *Repository {
	r := Repository{feeds: make(map[string]*Feed, len(feeds))}
	for _, feed := range feeds {
		r.feeds[feed.Mode()] = feed
	}
	return &r
}

// Feed returns the Feed of mode, or a *LookupError if there is none
func (r *Repository) Feed(mode string) (*Feed, error) {
	feed, present := r.feeds[mode]
	if !present {
		return nil, &LookupError{Mode: mode}
	}
	return feed, nil
}

// Modes returns the sorted modes with a schedule
func (r *Repository) Modes() []string {
	modes := make([]string, 0, len(r.feeds))
	for mode := range r.feeds {
		modes = append(modes, mode)
	}
	sort.Strings(modes)
	return modes
}

// RouteVariants returns the route variants of line in mode's schedule
func (r *Repository) RouteVariants(mode string, line string) ([]RouteVariant, error) {
	feed, err := r.Feed(mode)
	if err != nil {
		return nil, err
	}
	return feed.RouteVariants(line)
}

// Lines returns the line names available in mode's schedule
func (r *Repository) Lines(mode string) ([]string, error) {
	feed, err := r.Feed(mode)
	if err != nil {
		return nil, err
	}
	return feed.Lines()
}
