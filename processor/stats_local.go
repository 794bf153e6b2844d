package processor

import (
	"fmt"
	"time"

	"github.com/forestwatch/fcs/carbon"
	"github.com/forestwatch/fcs/raster"
	"golang.org/x/net/context"
)

// StatsLocal computes region rows in-process against a layer store. It
// serves deployments without worker nodes; rows match the gRPC path since
// both run the same accounting pipeline. The stack is built once per
// parameter set and reused across tasks.
type StatsLocal struct {
	Context context.Context
	In      chan *RegionTask
	Out     chan *RegionStats
	Error   chan error
	Store   carbon.LayerStore
}

func NewStatsLocal(ctx context.Context, store carbon.LayerStore, errChan chan error) *StatsLocal {
	return &StatsLocal{
		Context: ctx,
		In:      make(chan *RegionTask, 100),
		Out:     make(chan *RegionStats, 100),
		Error:   errChan,
		Store:   store,
	}
}

func (sl *StatsLocal) Run() {
	defer close(sl.Out)

	var stack *raster.Stack
	var stackParams carbon.Params

	for task := range sl.In {
		select {
		case <-sl.Context.Done():
			sl.Error <- fmt.Errorf("Stats local context has been cancel: %v", sl.Context.Err())
			return
		default:
		}

		t0 := time.Now()
		if stack == nil || stackParams != *task.Params {
			s, err := carbon.BuildAccountingStack(sl.Store, task.Params)
			if err != nil {
				sl.Error <- err
				return
			}
			stack = s
			stackParams = *task.Params
		}

		row := carbon.ZonalSum(stack, task.Region)
		if task.MetricsCollector != nil {
			task.MetricsCollector.Info.RPC.Duration += time.Since(t0)
			task.MetricsCollector.Info.RPC.NumRegions++
		}
		sl.Out <- &RegionStats{Index: task.Index, Row: row}
	}
}
