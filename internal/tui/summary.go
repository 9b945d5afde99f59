package tui

import (
	"fmt"
	"strings"

	"jobtail/internal/model"
)

// Summary renders one line per job with its last known status.
func Summary(jobs []model.Job, status func(id int) model.Status) string {
	var b strings.Builder
	for _, j := range jobs {
		name := j.Name
		if j.Stage != "" {
			name = j.Stage + "/" + j.Name
		}
		fmt.Fprintf(&b, "%s %s  %s\n",
			dimStyle.Render(fmt.Sprintf("#%d", j.ID)), name, StatusLabel(status(j.ID)))
	}
	return b.String()
}

// StatusLabel renders a job status for the summary.
func StatusLabel(status model.Status) string {
	switch status {
	case model.StatusSuccess:
		return okStyle.Render("✅ passed")
	case model.StatusFailed:
		return errStyle.Render("❌ failed")
	case model.StatusRunning:
		return warnStyle.Render("⏳ running")
	case model.StatusPending, model.StatusCreated, "waiting_for_resource", "preparing", "scheduled":
		return warnStyle.Render("⏳ pending")
	case model.StatusCanceled:
		return dimStyle.Render("⊘ canceled")
	case model.StatusSkipped:
		return dimStyle.Render("— skipped")
	case "":
		return dimStyle.Render("—")
	default:
		return dimStyle.Render(string(status))
	}
}
