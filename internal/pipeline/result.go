package pipeline

import (
	"encoding/json"
	"math"
	"time"

	"texthighlight/internal/ctm"
)

// Result is the single externally visible outcome of a run.
type Result struct {
	Status  bool
	Marks   []ctm.Mark
	Message string
	Time    float64
}

type resultJSON struct {
	Status  bool        `json:"status"`
	Marks   *[]ctm.Mark `json:"marks,omitempty"`
	Message *string     `json:"message,omitempty"`
	Time    float64     `json:"time"`
}

// MarshalJSON emits marks only for successful results and message only for
// failed ones. A successful run with no words still carries an empty marks
// array.
func (r Result) MarshalJSON() ([]byte, error) {
	out := resultJSON{Status: r.Status, Time: r.Time}
	if r.Status {
		marks := r.Marks
		if marks == nil {
			marks = []ctm.Mark{}
		}
		out.Marks = &marks
	} else {
		msg := r.Message
		out.Message = &msg
	}
	return json.Marshal(out)
}

// UnmarshalJSON accepts the shape produced by MarshalJSON.
func (r *Result) UnmarshalJSON(data []byte) error {
	var in resultJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*r = Result{Status: in.Status, Time: in.Time}
	if in.Marks != nil {
		r.Marks = *in.Marks
	}
	if in.Message != nil {
		r.Message = *in.Message
	}
	return nil
}

// ElapsedSeconds rounds d to two decimal places.
func ElapsedSeconds(d time.Duration) float64 {
	return math.Round(d.Seconds()*100) / 100
}
