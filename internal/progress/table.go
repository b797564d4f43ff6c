package progress

import (
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
)

// RangeRow is one row of a `list` table.
type RangeRow struct {
	RangeID string
	Status  string
	Guests  int
	Owner   string
}

// PrintRangeTable renders the `cyris list` output (§6 CLI surface).
func PrintRangeTable(out io.Writer, rows []RangeRow) {
	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"RANGE ID", "STATUS", "GUESTS", "OWNER"})

	for _, r := range rows {
		table.Append([]string{r.RangeID, r.Status, strconv.Itoa(r.Guests), r.Owner})
	}

	table.Render()
}

// TaskRow is one row of a per-task results table.
type TaskRow struct {
	VMName       string
	TaskType     string
	Success      string
	Verification string
	Message      string
}

// PrintTaskTable renders per-task results as a table. `cyris status
// --verbose` prints its task results as plain lines and does not call it.
func PrintTaskTable(out io.Writer, rows []TaskRow) {
	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"VM", "TASK", "SUCCESS", "VERIFIED", "MESSAGE"})

	for _, r := range rows {
		table.Append([]string{r.VMName, r.TaskType, r.Success, r.Verification, r.Message})
	}

	table.Render()
}
