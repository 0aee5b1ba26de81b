// Package feature defines the labelled columns of a forecast design matrix
package feature

import (
	"errors"
	"fmt"
	"strconv"
)

var ErrUnknownFeatureType = errors.New("unknown feature type")

type FeatureType int

const (
	FeatureTypeTime FeatureType = iota
	FeatureTypeGrowth
	FeatureTypeChangepoint
	FeatureTypeSeasonality
	FeatureTypeEvent
)

func (f FeatureType) String() string {
	switch f {
	case FeatureTypeTime:
		return "time"
	case FeatureTypeGrowth:
		return "growth"
	case FeatureTypeChangepoint:
		return "changepoint"
	case FeatureTypeSeasonality:
		return "seasonality"
	case FeatureTypeEvent:
		return "event"
	}
	return "unknown"
}

// Feature is a single named column of the design matrix
type Feature interface {
	String() string
	Get(string) (string, bool)
	Type() FeatureType
	Decode() map[string]string
}

// FromLabels rebuilds a feature from its type and decoded labels
func FromLabels(ftype FeatureType, labels map[string]string) (Feature, error) {
	switch ftype {
	case FeatureTypeTime:
		return NewTime(labels["name"]), nil
	case FeatureTypeGrowth:
		return NewGrowth(labels["name"]), nil
	case FeatureTypeChangepoint:
		return NewChangepoint(labels["name"], ChangepointComp(labels["changepoint_component"])), nil
	case FeatureTypeSeasonality:
		order, err := strconv.Atoi(labels["order"])
		if err != nil {
			return nil, fmt.Errorf("unable to parse seasonality order, %w", err)
		}
		return NewSeasonality(labels["name"], FourierComp(labels["fourier_component"]), order), nil
	case FeatureTypeEvent:
		return NewEvent(labels["name"]), nil
	}
	return nil, fmt.Errorf("%d, %w", ftype, ErrUnknownFeatureType)
}
