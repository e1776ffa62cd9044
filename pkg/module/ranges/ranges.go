// Package ranges invalidates physically implausible sensor values. Cells
// outside a channel's declared range become missing markers; rows are never
// dropped here.
package ranges

import (
	"math"

	"github.com/oceanlens/enginewatch/pkg/frame"
	"github.com/oceanlens/enginewatch/pkg/model"
)

type Report struct {
	ReplacedByChannel map[string]int `json:"replaced_by_channel"`
	TotalReplaced     int            `json:"total_replaced"`
}

// Validate replaces values strictly outside their channel's [min, max] with
// NaN, in place, independently per channel. Channels absent from the frame
// are skipped. Running it twice is a no-op.
func Validate(f *frame.Frame, physical map[string]model.Range) Report {
	report := Report{ReplacedByChannel: make(map[string]int, len(physical))}
	for channel, r := range physical {
		if !f.HasColumn(channel) {
			continue
		}
		col := f.Col(channel)
		replaced := 0
		for i, v := range col {
			if math.IsNaN(v) {
				continue
			}
			if v < r.Min || v > r.Max {
				col[i] = math.NaN()
				replaced++
			}
		}
		report.ReplacedByChannel[channel] = replaced
		report.TotalReplaced += replaced
	}
	return report
}
