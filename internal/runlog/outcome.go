package runlog

import (
	"encoding/json"
	"fmt"
)

// Artifact kinds produced for a successfully mirrored record.
const (
	KindGLB       = "glb"
	KindMetadata  = "metadata"
	KindThumbnail = "thumbnail"
)

// Artifacts maps artifact kinds to the paths produced for one UID. GLB and
// Thumbnail are nil when the underlying file does not exist after the
// operation; Metadata is always set on success.
type Artifacts struct {
	GLB       *string `json:"glb"`
	Metadata  string  `json:"metadata"`
	Thumbnail *string `json:"thumbnail"`
}

// Outcome is the result of attempting one UID. It is exactly one of success
// (Artifacts set) or failure (Err set). On the wire, success is encoded as
// the bare artifacts object and failure as {"error": "..."}; consumers test
// for the presence of the error key, not a status field.
type Outcome struct {
	Artifacts *Artifacts
	Err       string
}

// Success returns a successful outcome carrying the produced artifacts.
func Success(a Artifacts) Outcome {
	return Outcome{Artifacts: &a}
}

// Failure returns a failed outcome carrying the error text.
func Failure(errText string) Outcome {
	return Outcome{Err: errText}
}

// Failed reports whether the outcome is the failure variant.
func (o Outcome) Failed() bool {
	return o.Err != ""
}

// MarshalJSON encodes the outcome in the wire format described above.
func (o Outcome) MarshalJSON() ([]byte, error) {
	if o.Failed() {
		return json.Marshal(struct {
			Error string `json:"error"`
		}{Error: o.Err})
	}
	if o.Artifacts == nil {
		return nil, fmt.Errorf("runlog: outcome has neither artifacts nor error")
	}
	return json.Marshal(o.Artifacts)
}

// UnmarshalJSON decodes either variant, detecting failure by the presence of
// the error key.
func (o *Outcome) UnmarshalJSON(data []byte) error {
	var probe struct {
		Error *string `json:"error"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}
	if probe.Error != nil {
		*o = Outcome{Err: *probe.Error}
		return nil
	}
	var a Artifacts
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*o = Outcome{Artifacts: &a}
	return nil
}

// Retry statuses recorded by the retry driver.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// RetryOutcome is the per-UID record produced by the retry driver. The
// original failure's error text is kept for lineage even after an eventual
// success, and Attempts counts the attempts actually used.
type RetryOutcome struct {
	Status        string     `json:"status"`
	Attempts      int        `json:"attempts"`
	OriginalError string     `json:"original_error,omitempty"`
	Result        *Artifacts `json:"result,omitempty"`
	FinalError    string     `json:"final_error,omitempty"`
}

// Failed reports whether the UID remained failed after all attempts.
func (o RetryOutcome) Failed() bool {
	return o.Status != StatusSuccess
}
