package processor

// RegionSplitter fans a StatsRequest out into one RegionTask per region.
type RegionSplitter struct {
	In    chan *StatsRequest
	Out   chan *RegionTask
	Error chan error
}

func NewRegionSplitter(errChan chan error) *RegionSplitter {
	return &RegionSplitter{
		In:    make(chan *StatsRequest, 100),
		Out:   make(chan *RegionTask, 100),
		Error: errChan,
	}
}

func (rs *RegionSplitter) Run() {
	defer close(rs.Out)
	for statsReq := range rs.In {
		for i, region := range statsReq.Regions {
			rs.Out <- &RegionTask{
				Index:            i,
				Region:           region,
				Params:           statsReq.Params,
				MetricsCollector: statsReq.MetricsCollector,
			}
		}
	}
}
