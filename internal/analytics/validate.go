package analytics

import (
	stderrors "errors"
	"strings"

	"github.com/rohankatakam/devpulse/internal/errors"
	"github.com/rohankatakam/devpulse/internal/models"
)

// Rejection reasons reported in Report.RejectedByReason
const (
	ReasonMissingSHA       = "missing_sha"
	ReasonMissingAuthor    = "missing_author"
	ReasonMissingTimestamp = "missing_timestamp"
	ReasonNegativeSize     = "negative_size"
	ReasonTotalMismatch    = "total_changes_mismatch"
)

// ValidateRaw checks one raw record. An empty message is valid; it is
// scored like any other. The returned error is a data quality error whose
// "reason" context key is one of the Reason constants.
func ValidateRaw(c models.RawCommit) error {
	switch {
	case strings.TrimSpace(c.SHA) == "":
		return reject(c, ReasonMissingSHA, "commit has no sha")
	case strings.TrimSpace(c.Author) == "":
		return reject(c, ReasonMissingAuthor, "commit %s has no author", c.SHA)
	case c.Timestamp.IsZero():
		return reject(c, ReasonMissingTimestamp, "commit %s has no timestamp", c.SHA)
	case c.Additions < 0 || c.Deletions < 0 || c.TotalChanges < 0:
		return reject(c, ReasonNegativeSize, "commit %s has negative line counts (+%d -%d =%d)",
			c.SHA, c.Additions, c.Deletions, c.TotalChanges)
	case c.TotalChanges != c.Additions+c.Deletions:
		return reject(c, ReasonTotalMismatch, "commit %s total_changes %d != additions %d + deletions %d",
			c.SHA, c.TotalChanges, c.Additions, c.Deletions)
	}
	return nil
}

func reject(c models.RawCommit, reason, format string, args ...interface{}) error {
	return errors.DataQualityErrorf(format, args...).
		WithContext("reason", reason).
		WithContext("repository", c.Repository)
}

// reasonOf extracts the rejection reason from a ValidateRaw error
func reasonOf(err error) string {
	var e *errors.Error
	if stderrors.As(err, &e) {
		if r, ok := e.Context["reason"].(string); ok {
			return r
		}
	}
	return "unknown"
}
