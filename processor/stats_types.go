package processor

import (
	"github.com/forestwatch/fcs/carbon"
	"github.com/forestwatch/fcs/metrics"
	"github.com/forestwatch/fcs/regions"
)

// StatsRequest is one validated Execute request: the resolved regions and
// the accounting parameters to summarise them with.
type StatsRequest struct {
	Regions          []*regions.Region
	Params           *carbon.Params
	MetricsCollector *metrics.MetricsCollector
}

// RegionTask is a single region fanned out of a StatsRequest. Index is the
// region's position in the request, used to restore order after the
// concurrent stages.
type RegionTask struct {
	Index            int
	Region           *regions.Region
	Params           *carbon.Params
	MetricsCollector *metrics.MetricsCollector
}

// RegionStats pairs a computed row with its request position.
type RegionStats struct {
	Index int
	Row   *carbon.StatsRow
}
