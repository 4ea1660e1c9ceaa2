package exporter

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

// Issue records one file that failed extraction. The batch keeps going; the
// issue report is how those files reach a human.
type Issue struct {
	FileName    string
	ErrorType   string
	Description string
	Timestamp   time.Time
}

// IssueReport collects per-file failures over one batch run.
type IssueReport struct {
	RunID  string
	Issues []Issue
}

// NewIssueReport starts an empty report with a fresh run identifier.
func NewIssueReport() *IssueReport {
	return &IssueReport{RunID: uuid.NewString()}
}

// Add appends a failure, stamped now.
func (r *IssueReport) Add(fileName, errorType, description string) {
	r.Issues = append(r.Issues, Issue{
		FileName:    fileName,
		ErrorType:   errorType,
		Description: description,
		Timestamp:   time.Now(),
	})
}

// Len returns the number of recorded failures.
func (r *IssueReport) Len() int {
	return len(r.Issues)
}

var issueColumns = []string{"file_name", "error_type", "error_description", "timestamp", "run_id"}

// Write persists the report as problematic_files_<processType>.csv in the
// output directory, newest first. Writing nothing when the report is empty
// keeps stale reports from previous runs visible.
func (r *IssueReport) Write(w *CSVWriter, processType string) (string, error) {
	if len(r.Issues) == 0 {
		return "", nil
	}
	sorted := make([]Issue, len(r.Issues))
	copy(sorted, r.Issues)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.After(sorted[j].Timestamp)
	})

	records := make([][]string, 0, len(sorted))
	for _, issue := range sorted {
		records = append(records, []string{
			issue.FileName,
			issue.ErrorType,
			issue.Description,
			issue.Timestamp.Format("2006-01-02 15:04:05"),
			r.RunID,
		})
	}
	fileName := fmt.Sprintf("problematic_files_%s.csv", processType)
	if err := w.WriteCSV(fileName, WriteOptions{
		Headers:   issueColumns,
		Records:   records,
		BOMPrefix: true,
	}); err != nil {
		return "", err
	}
	return w.resolvePath(fileName), nil
}
