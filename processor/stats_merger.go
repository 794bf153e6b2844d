package processor

import (
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/forestwatch/fcs/utils"
	"golang.org/x/net/context"
)

// StatsMerger collects every region row, restores request order and
// renders the CSV document. Failed regions keep their identity columns
// and carry the failure message in the error column.
type StatsMerger struct {
	Context context.Context
	In      chan *RegionStats
	Out     chan string
	Error   chan error
}

func NewStatsMerger(ctx context.Context, errChan chan error) *StatsMerger {
	return &StatsMerger{
		Context: ctx,
		In:      make(chan *RegionStats, 100),
		Out:     make(chan string),
		Error:   errChan,
	}
}

func (sm *StatsMerger) Run(bandNames []string, columnExpr *utils.BandExpressions, verbose bool) {
	if verbose {
		defer log.Printf("Stats Merger done")
	}
	defer close(sm.Out)

	var collected []*RegionStats
	for regionStats := range sm.In {
		collected = append(collected, regionStats)
	}
	sort.Slice(collected, func(i, j int) bool { return collected[i].Index < collected[j].Index })

	hasDerived := columnExpr != nil && len(columnExpr.Expressions) > 0

	var csv strings.Builder
	fmt.Fprint(&csv, "GID_0,NAME_0,ha")
	for _, name := range bandNames {
		fmt.Fprintf(&csv, ",%s", name)
	}
	if hasDerived {
		for _, name := range columnExpr.ExprNames {
			fmt.Fprintf(&csv, ",%s", name)
		}
	}
	fmt.Fprint(&csv, ",error\n")

	for _, regionStats := range collected {
		row := regionStats.Row
		fmt.Fprintf(&csv, "%s,%s,%f", csvField(row.Code), csvField(row.Name), row.Ha)

		if len(row.Error) > 0 {
			for i := 0; i < len(bandNames); i++ {
				fmt.Fprint(&csv, ",")
			}
			if hasDerived {
				for i := 0; i < len(columnExpr.ExprNames); i++ {
					fmt.Fprint(&csv, ",")
				}
			}
			fmt.Fprintf(&csv, ",%s\n", csvField(row.Error))
			continue
		}

		values := make(map[string]float64, len(bandNames))
		for i, name := range bandNames {
			if i < len(row.Sums) {
				values[name] = row.Sums[i]
			}
			fmt.Fprint(&csv, ",")
			if i < len(row.Sums) {
				fmt.Fprintf(&csv, "%f", row.Sums[i])
			}
		}

		if hasDerived {
			for ix, expr := range columnExpr.Expressions {
				noData := false
				for _, variable := range columnExpr.ExprVarRef[ix] {
					if _, ok := values[variable]; !ok {
						noData = true
						break
					}
				}

				fmt.Fprint(&csv, ",")

				if noData {
					continue
				}

				parameters := make(map[string]interface{}, len(columnExpr.ExprVarRef[ix]))
				for _, variable := range columnExpr.ExprVarRef[ix] {
					parameters[variable] = values[variable]
				}

				result, err := expr.Evaluate(parameters)
				if err != nil {
					sm.sendError(fmt.Errorf("FCS: Eval '%v' error: %v", columnExpr.ExprText[ix], err))
					return
				}

				val, ok := result.(float32)
				if !ok {
					sm.sendError(fmt.Errorf("FCS: Failed to cast eval results '%v' to float32, %v", val, columnExpr.ExprText[ix]))
					return
				}

				fmt.Fprintf(&csv, "%f", float64(val))
			}
		}

		fmt.Fprint(&csv, ",\n")
	}

	if sm.checkCancellation() {
		return
	}
	sm.Out <- csv.String()
}

// csvField quotes a value when it would break the row. Region names from
// real boundary sets occasionally contain commas.
func csvField(field string) string {
	if strings.ContainsAny(field, ",\"\n") {
		return `"` + strings.Replace(field, `"`, `""`, -1) + `"`
	}
	return field
}

func (sm *StatsMerger) sendError(err error) {
	select {
	case sm.Error <- err:
	default:
	}
}

func (sm *StatsMerger) checkCancellation() bool {
	select {
	case <-sm.Context.Done():
		sm.sendError(fmt.Errorf("Stats Merger: context has been cancel: %v", sm.Context.Err()))
		return true
	case err := <-sm.Error:
		sm.sendError(err)
		return true
	default:
		return false
	}
}
