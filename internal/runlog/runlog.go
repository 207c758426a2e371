package runlog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Summary holds the aggregate counts of a run. Older producers wrote the
// failure count under "error" and some wrote "success_count"/"failure_count";
// all spellings are accepted on load, and "success"/"failed" are written.
type Summary struct {
	Total   int
	Success int
	Failed  int
}

// MarshalJSON writes the canonical key spelling.
func (s Summary) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Total   int `json:"total"`
		Success int `json:"success"`
		Failed  int `json:"failed"`
	}{s.Total, s.Success, s.Failed})
}

// UnmarshalJSON accepts every key spelling emitted by past producers.
func (s *Summary) UnmarshalJSON(data []byte) error {
	var raw struct {
		Total        int  `json:"total"`
		Success      *int `json:"success"`
		SuccessCount *int `json:"success_count"`
		Failed       *int `json:"failed"`
		FailureCount *int `json:"failure_count"`
		Error        *int `json:"error"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	s.Total = raw.Total
	switch {
	case raw.Success != nil:
		s.Success = *raw.Success
	case raw.SuccessCount != nil:
		s.Success = *raw.SuccessCount
	}
	switch {
	case raw.Failed != nil:
		s.Failed = *raw.Failed
	case raw.FailureCount != nil:
		s.Failed = *raw.FailureCount
	case raw.Error != nil:
		s.Failed = *raw.Error
	}
	return nil
}

// RunLog is the durable record of one shard or fetch run: the invocation
// arguments recorded verbatim, one Outcome per attempted UID, and the
// summary counts. A RunLog is never mutated once written; follow-up runs
// produce new logs that reference the prior log path via OriginalLog.
type RunLog struct {
	OriginalLog string             `json:"original_log,omitempty"`
	Args        map[string]any     `json:"args"`
	Results     map[string]Outcome `json:"results"`
	Summary     Summary            `json:"summary"`
}

// New assembles a RunLog from the collected outcomes and computes the
// summary from them.
func New(args map[string]any, results map[string]Outcome) *RunLog {
	l := &RunLog{
		Args:    args,
		Results: results,
	}
	l.Summary.Total = len(results)
	for _, o := range results {
		if o.Failed() {
			l.Summary.Failed++
		} else {
			l.Summary.Success++
		}
	}
	return l
}

// FailedUIDs returns the UIDs whose outcome is the failure variant, sorted
// for stable iteration order.
func (l *RunLog) FailedUIDs() []string {
	var uids []string
	for uid, o := range l.Results {
		if o.Failed() {
			uids = append(uids, uid)
		}
	}
	sort.Strings(uids)
	return uids
}

// RetryLog is the durable record of one retry pass, chained to the log it
// was derived from.
type RetryLog struct {
	OriginalLog string                  `json:"original_log"`
	Args        map[string]any          `json:"args"`
	Results     map[string]RetryOutcome `json:"results"`
	Summary     Summary                 `json:"summary"`
}

// NewRetryLog assembles a RetryLog and computes the summary.
func NewRetryLog(originalLog string, args map[string]any, results map[string]RetryOutcome) *RetryLog {
	l := &RetryLog{
		OriginalLog: originalLog,
		Args:        args,
		Results:     results,
	}
	l.Summary.Total = len(results)
	for _, o := range results {
		if o.Failed() {
			l.Summary.Failed++
		} else {
			l.Summary.Success++
		}
	}
	return l
}

// FailedUIDs returns the UIDs still failed after the retry pass, sorted.
func (l *RetryLog) FailedUIDs() []string {
	var uids []string
	for uid, o := range l.Results {
		if o.Failed() {
			uids = append(uids, uid)
		}
	}
	sort.Strings(uids)
	return uids
}

// Save writes v as pretty-printed JSON to path. v is any of the log types
// in this package.
func Save(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("runlog: marshal: %w", err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("runlog: write %s: %w", path, err)
	}
	return nil
}

// Load reads a RunLog from path.
func Load(path string) (*RunLog, error) {
	var l RunLog
	if err := loadJSON(path, &l); err != nil {
		return nil, err
	}
	return &l, nil
}

// LoadRetryLog reads a RetryLog from path.
func LoadRetryLog(path string) (*RetryLog, error) {
	var l RetryLog
	if err := loadJSON(path, &l); err != nil {
		return nil, err
	}
	return &l, nil
}

func loadJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("runlog: read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("runlog: parse %s: %w", path, err)
	}
	return nil
}

// ShardLogName returns the conventional log filename for a shard run.
func ShardLogName(start, end int) string {
	return fmt.Sprintf("download_log_%d_%d.json", start, end)
}

// RetryLogName derives the retry log path from the log it retries:
// retry_<stem>.json in the same directory.
func RetryLogName(logPath string) string {
	dir := filepath.Dir(logPath)
	stem := strings.TrimSuffix(filepath.Base(logPath), filepath.Ext(logPath))
	return filepath.Join(dir, "retry_"+stem+".json")
}

// FilteredLogName derives the filtered log path from the source log:
// filtered_success_<stem>.json or filtered_failed_<stem>.json.
func FilteredLogName(logPath string, keepSuccess bool) string {
	dir := filepath.Dir(logPath)
	stem := strings.TrimSuffix(filepath.Base(logPath), filepath.Ext(logPath))
	kind := "failed"
	if keepSuccess {
		kind = "success"
	}
	return filepath.Join(dir, "filtered_"+kind+"_"+stem+".json")
}
