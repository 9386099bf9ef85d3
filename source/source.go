// Package source fetches raw building records and prediction history from
// the emissions backend or a local CSV export.
package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spektr-org/carbonlens/record"
)

// ErrMalformedPayload is returned when a response body does not have the
// expected envelope.
var ErrMalformedPayload = errors.New("malformed payload")

// Source yields the raw record set and the stored prediction history.
type Source interface {
	FetchRecords(ctx context.Context) ([]record.RawRecord, error)
	FetchPredictions(ctx context.Context, limit int) ([]Prediction, error)
}

// Predictor requests a single CO2 estimate.
type Predictor interface {
	Predict(ctx context.Context, in PredictionInput) (float64, error)
}

// FetchObserver receives one call per upstream request.
type FetchObserver interface {
	SourceRequest(endpoint string, d time.Duration, success bool)
}

// ============================================================================
// PREDICTIONS
// ============================================================================

// PredictionInput is the feature set the prediction endpoint accepts.
type PredictionInput struct {
	NumberOfFloors      int      `json:"NumberofFloors"`
	NumberOfBuildings   int      `json:"NumberofBuildings"`
	Age                 float64  `json:"Age"`
	EnergyStarScore     *float64 `json:"ENERGYSTARScore"`
	PrimaryPropertyType string   `json:"PrimaryPropertyType"`
	BuildingType        string   `json:"BuildingType"`
	Neighborhood        string   `json:"Neighborhood"`
	Latitude            float64  `json:"Latitude"`
	Longitude           float64  `json:"Longitude"`
	HasParking          int      `json:"Has_Parking"`
	HasGas              int      `json:"Has_Gas"`
	HasSteam            int      `json:"Has_Steam"`
	PropertyGFATotal    *float64 `json:"PropertyGFATotal"`
	PropertyGFAParking  *float64 `json:"PropertyGFAParking"`
}

// Validate checks the fields the model cannot impute.
func (in PredictionInput) Validate() error {
	switch {
	case in.PrimaryPropertyType == "":
		return errors.New("PrimaryPropertyType is required")
	case in.Neighborhood == "":
		return errors.New("Neighborhood is required")
	case in.NumberOfBuildings < 0 || in.NumberOfFloors < 0:
		return errors.New("building and floor counts must not be negative")
	case in.Age < 0:
		return errors.New("Age must not be negative")
	}
	return nil
}

// Prediction is one stored prediction: the submitted input plus the
// predicted CO2 and the time it was made.
type Prediction struct {
	PredictedCO2 float64
	Timestamp    string
	Input        map[string]any
}

// UnmarshalJSON accepts the flat stored row.
func (p *Prediction) UnmarshalJSON(b []byte) error {
	var row map[string]any
	if err := json.Unmarshal(b, &row); err != nil {
		return err
	}
	v, ok := row["predicted_CO2"].(float64)
	if !ok {
		return fmt.Errorf("%w: prediction without predicted_CO2", ErrMalformedPayload)
	}
	p.PredictedCO2 = v
	p.Timestamp, _ = row["timestamp"].(string)
	delete(row, "predicted_CO2")
	delete(row, "timestamp")
	p.Input = row
	return nil
}

// MarshalJSON writes the flat stored row back out.
func (p Prediction) MarshalJSON() ([]byte, error) {
	row := make(map[string]any, len(p.Input)+2)
	for k, v := range p.Input {
		row[k] = v
	}
	row["predicted_CO2"] = p.PredictedCO2
	if p.Timestamp != "" {
		row["timestamp"] = p.Timestamp
	}
	return json.Marshal(row)
}

// PredictionMetrics summarizes the prediction history.
type PredictionMetrics struct {
	Total      int      `json:"total_predictions"`
	AverageCO2 *float64 `json:"average_CO2"` // nil when there are no predictions
}

// Summarize counts predictions and averages their predicted CO2.
func Summarize(preds []Prediction) PredictionMetrics {
	m := PredictionMetrics{Total: len(preds)}
	if len(preds) == 0 {
		return m
	}
	var sum float64
	for _, p := range preds {
		sum += p.PredictedCO2
	}
	avg := sum / float64(len(preds))
	m.AverageCO2 = &avg
	return m
}

// LastN keeps the most recent limit predictions. limit <= 0 keeps all.
func LastN(preds []Prediction, limit int) []Prediction {
	if limit <= 0 || len(preds) <= limit {
		return preds
	}
	return preds[len(preds)-limit:]
}
