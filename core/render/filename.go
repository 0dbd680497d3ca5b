package render

import (
	"fmt"
	"time"

	"github.com/gaurav-prasanna/schedpdf/core"
)

// Filename names a rendered schedule:
// schedule_{project_number}_v{version}_{YYYYMMDD}{ext}, dated by at.
// Two renders of the same version on the same day share a name; callers that
// need uniqueness also carry the schedule ID.
func Filename(doc core.ScheduleDocument, at time.Time, ext string) string {
	return fmt.Sprintf("schedule_%d_v%d_%s%s",
		doc.ProjectInfo.ProjectNumber, doc.Version, at.Format("20060102"), ext)
}
