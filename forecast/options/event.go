package options

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/aouyang1/go-revenue-forecaster/feature"
	"github.com/aouyang1/go-revenue-forecaster/forecast/util"
	"github.com/aouyang1/go-revenue-forecaster/timedataset"
	"github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/us"
)

var (
	ErrStartAfterEnd      = errors.New("event start time is after end time")
	ErrUnsetTime          = errors.New("unset event start or end time")
	ErrNoEventName        = errors.New("no event name")
	ErrUnsupportedCountry = errors.New("unsupported holiday country")
)

const CountryUS = "US"

var nonWordRe = regexp.MustCompile(`[^A-Za-z0-9]+`)

// Event represents a time span to model as a separate level shift. Events sharing the same name
// are modelled by a single feature.
type Event struct {
	Name  string    `json:"name"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func NewEvent(name string, start, end time.Time) Event {
	return Event{
		Name:  name,
		Start: start,
		End:   end,
	}
}

func (e *Event) Valid() error {
	if e.Start.IsZero() || e.End.IsZero() {
		return ErrUnsetTime
	}
	if e.Start.After(e.End) {
		return ErrStartAfterEnd
	}
	if e.Name == "" {
		return ErrNoEventName
	}
	return nil
}

// Holiday returns an event for every observed occurrence of the holiday overlapping start and
// end. The event spans the observed day in start's location padded by durBefore and
// durAfter.
func Holiday(hol *cal.Holiday, start, end time.Time, durBefore, durAfter time.Duration) []Event {
	loc := start.Location()
	name := strings.Trim(nonWordRe.ReplaceAllString(hol.Name, "_"), "_")

	events := []Event{}
	for i := start.Year(); i <= end.Year()+1; i++ {
		_, observed := hol.Calc(i)
		if observed.IsZero() {
			continue
		}
		day := time.Date(observed.Year(), observed.Month(), observed.Day(), 0, 0, 0, 0, loc)
		evStart := day.Add(-durBefore)
		evEnd := day.Add(24 * time.Hour).Add(durAfter)
		if !evEnd.After(start) || evStart.After(end) {
			continue
		}
		events = append(events, Event{
			Name:  name,
			Start: evStart,
			End:   evEnd,
		})
	}
	return events
}

// HolidayOptions enables country holidays as events. Each holiday is a single feature shared
// across years.
type HolidayOptions struct {
	Country    string `json:"country"`
	DaysBefore int    `json:"days_before"`
	DaysAfter  int    `json:"days_after"`
}

func countryHolidays(country string) ([]*cal.Holiday, error) {
	switch strings.ToUpper(country) {
	case "":
		return nil, nil
	case CountryUS:
		return []*cal.Holiday{
			us.NewYear,
			us.MemorialDay,
			us.IndependenceDay,
			us.LaborDay,
			us.ThanksgivingDay,
			us.ChristmasDay,
		}, nil
	}
	return nil, fmt.Errorf("%q, %w", country, ErrUnsupportedCountry)
}

// Validate checks the holiday country is supported
func (h HolidayOptions) Validate() error {
	_, err := countryHolidays(h.Country)
	return err
}

// Events returns the holiday events overlapping the range of t
func (h HolidayOptions) Events(t []time.Time) ([]Event, error) {
	hols, err := countryHolidays(h.Country)
	if err != nil {
		return nil, err
	}
	if len(hols) == 0 || len(t) == 0 {
		return nil, nil
	}

	ds, err := timedataset.NewUnivariateDataset(t, make([]float64, len(t)))
	if err != nil {
		return nil, err
	}
	ts := timedataset.TimeSlice(ds.T)
	before := time.Duration(h.DaysBefore) * 24 * time.Hour
	after := time.Duration(h.DaysAfter) * 24 * time.Hour

	var events []Event
	for _, hol := range hols {
		events = append(events, Holiday(hol, ts.StartTime(), ts.EndTime(), before, after)...)
	}
	return events, nil
}

func (h HolidayOptions) TablePrint(w io.Writer, prefix, indent string, indentGrowth int) error {
	country := h.Country
	if country == "" {
		country = "None"
	}
	_, err := fmt.Fprintf(w, "%s%sHolidays: %s\n", prefix, util.IndentExpand(indent, indentGrowth), country)
	return err
}

type EventOptions struct {
	Events []Event `json:"events"`
}

// GenerateEventFeatures builds one mask feature per distinct event name. Invalid events are
// skipped with a warning.
func GenerateEventFeatures(t []time.Time, events []Event) *feature.Set {
	spans := make(map[string][]feature.Span)
	var names []string
	for _, ev := range events {
		if err := ev.Valid(); err != nil {
			slog.Warn("not separately modelling invalid event", "name", ev.Name, "error", err.Error())
			continue
		}
		name := strings.ReplaceAll(ev.Name, " ", "_")
		if _, exists := spans[name]; !exists {
			names = append(names, name)
		}
		spans[name] = append(spans[name], feature.Span{Start: ev.Start, End: ev.End})
	}

	eFeat := feature.NewSet()
	for _, name := range names {
		f := feature.NewEvent(name)
		eFeat.Set(f, f.Generate(t, spans[name]))
	}
	return eFeat
}

func (e EventOptions) TablePrint(w io.Writer, prefix, indent string, indentGrowth int) error {
	tbl := tabwriter.NewWriter(w, 0, 0, 1, ' ', tabwriter.AlignRight)
	noCfg := " None"
	if len(e.Events) > 0 {
		noCfg = ""
		if _, err := fmt.Fprintf(tbl, "%s%sName\tStart\tEnd\t\n", prefix, util.IndentExpand(indent, indentGrowth+1)); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, "%s%sEvents:%s\n", prefix, util.IndentExpand(indent, indentGrowth), noCfg); err != nil {
		return err
	}
	for _, ev := range e.Events {
		if _, err := fmt.Fprintf(tbl, "%s%s%s\t%s\t%s\t\n",
			prefix, util.IndentExpand(indent, indentGrowth+1),
			ev.Name, ev.Start, ev.End); err != nil {
			return err
		}
	}
	return tbl.Flush()
}
