// Package errors defines the typed error taxonomy for the extraction pipeline.
//
// Per-file failures (NoMatchingSheet, SectionNotFound, NoDataExtracted) are caught
// at the batch-runner boundary and recorded as issues; run-level failures
// (ConfigurationError, NoFilesProcessed) terminate the whole run.
package errors

import (
	"fmt"
	"strings"
)

// Kind classifies an extraction error.
type Kind string

const (
	// KindNoMatchingSheet means no sheet satisfied the naming/content patterns.
	KindNoMatchingSheet Kind = "no_matching_sheet"
	// KindSectionNotFound means a required anchor marker was absent.
	KindSectionNotFound Kind = "section_not_found"
	// KindNoDataExtracted means the anchor was found but zero items matched the
	// expected structure. Surfaced distinctly from KindSectionNotFound since it
	// implies template drift rather than a missing section.
	KindNoDataExtracted Kind = "no_data_extracted"
	// KindConfiguration means the structure spec or app config is malformed.
	// Fatal for the whole run, not just one file.
	KindConfiguration Kind = "configuration_error"
	// KindNoFilesProcessed means the batch as a whole yielded nothing.
	KindNoFilesProcessed Kind = "no_files_processed"
	// KindIO covers file open/read failures.
	KindIO Kind = "io_error"
)

// ExtractionError is the error type returned across package boundaries.
type ExtractionError struct {
	Kind    Kind
	Message string
	Cause   error
	Context map[string]string
}

func (e *ExtractionError) Error() string {
	if e == nil {
		return "unknown extraction error"
	}
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

// Unwrap returns the underlying error.
func (e *ExtractionError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// KindOf returns the kind of an error, or an empty kind for nil and foreign errors.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	if xerr, ok := err.(*ExtractionError); ok {
		return xerr.Kind
	}
	return ""
}

// IsFileError reports whether the error should be isolated to a single input file.
func IsFileError(err error) bool {
	switch KindOf(err) {
	case KindNoMatchingSheet, KindSectionNotFound, KindNoDataExtracted, KindIO:
		return true
	}
	return false
}

// NewNoMatchingSheet reports that none of the patterns matched any sheet.
// The available sheet names are carried in the message so a failed file can be
// diagnosed from the issue log alone.
func NewNoMatchingSheet(patterns, available []string) *ExtractionError {
	return &ExtractionError{
		Kind: KindNoMatchingSheet,
		Message: fmt.Sprintf("no sheet matching patterns [%s]; available sheets: [%s]",
			strings.Join(patterns, ", "), strings.Join(available, ", ")),
	}
}

// NewSectionNotFound reports a missing anchor marker on a sheet.
func NewSectionNotFound(marker, sheet string) *ExtractionError {
	return &ExtractionError{
		Kind:    KindSectionNotFound,
		Message: fmt.Sprintf("marker %q not found on sheet %q", marker, sheet),
		Context: map[string]string{"marker": marker, "sheet": sheet},
	}
}

// NewNoDataExtracted reports that a located section yielded zero matching items.
func NewNoDataExtracted(section, sheet string) *ExtractionError {
	return &ExtractionError{
		Kind:    KindNoDataExtracted,
		Message: fmt.Sprintf("section %q on sheet %q matched no expected items", section, sheet),
		Context: map[string]string{"section": section, "sheet": sheet},
	}
}

// NewConfiguration reports a malformed or incomplete configuration.
func NewConfiguration(message string, cause error) *ExtractionError {
	return &ExtractionError{Kind: KindConfiguration, Message: message, Cause: cause}
}

// NewNoFilesProcessed reports that the whole batch produced no data.
func NewNoFilesProcessed(message string) *ExtractionError {
	return &ExtractionError{Kind: KindNoFilesProcessed, Message: message}
}

// NewIO wraps a filesystem or workbook-open failure.
func NewIO(message string, cause error) *ExtractionError {
	return &ExtractionError{Kind: KindIO, Message: message, Cause: cause}
}
