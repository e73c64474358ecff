package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// SolveRequest is the request submitted to the solver backend and the
// parameter record stored with each history entry. The JSON key set
// is shared with the backend's database schema and must not change.
type SolveRequest struct {
	Method            string    `json:"method"`
	Order             int       `json:"order"`
	UserEquation      string    `json:"userEquation"`
	FormattedEquation string    `json:"formattedEquation"`
	InitialX          float64   `json:"initialX"`
	InitialY          []float64 `json:"initialY"`
	ReachPoint        float64   `json:"reachPoint"`
	StepSize          float64   `json:"stepSize"`
}

// YSeries is the solved y series: one row per x value, one component
// per equation order. The backend emits a flat number array for
// first-order equations and an array of tuples otherwise; both decode
// into the row form.
type YSeries [][]float64

// UnmarshalJSON accepts either []float64 or [][]float64.
func (ys *YSeries) UnmarshalJSON(data []byte) error {
	var rows [][]float64
	if err := json.Unmarshal(data, &rows); err == nil {
		*ys = rows
		return nil
	}

	var flat []float64
	if err := json.Unmarshal(data, &flat); err != nil {
		return fmt.Errorf("yvalues is neither a number array nor a tuple array: %w", err)
	}
	rows = make([][]float64, len(flat))
	for i, v := range flat {
		rows[i] = []float64{v}
	}
	*ys = rows
	return nil
}

// MarshalJSON emits the backend's wire form: flat for single-component
// series, tuples otherwise.
func (ys YSeries) MarshalJSON() ([]byte, error) {
	flat := len(ys) > 0
	for _, row := range ys {
		if len(row) != 1 {
			flat = false
			break
		}
	}
	if !flat {
		return json.Marshal([][]float64(ys))
	}
	values := make([]float64, len(ys))
	for i, row := range ys {
		values[i] = row[0]
	}
	return json.Marshal(values)
}

// Result is the outcome of one completed solve job. Immutable once
// produced.
type Result struct {
	XValues  []float64 `json:"xvalues"`
	YValues  YSeries   `json:"yvalues"`
	Solution string    `json:"solution"`
}

// Application is one stored solve submission: the serialized request
// plus its processing status.
type Application struct {
	ID         int64
	UserID     int64
	Parameters string
	Status     string
	CreatedAt  time.Time
}

// ResultRow is one stored result payload for an application.
type ResultRow struct {
	ID            int64
	ApplicationID int64
	Data          string
	CreatedAt     time.Time
}

// HistoryEntry pairs a past application with its parsed request.
// Entries are addressed by position in the recent-first list the
// store returns; positions are not stable across store mutations.
type HistoryEntry struct {
	ID      int64
	Request SolveRequest
}

// Entry parses the stored parameters into a HistoryEntry. A record
// with unparseable parameters still yields an entry so history
// buttons render; its request fields are simply zero.
func (a Application) Entry() HistoryEntry {
	entry := HistoryEntry{ID: a.ID}
	_ = json.Unmarshal([]byte(a.Parameters), &entry.Request)
	return entry
}
