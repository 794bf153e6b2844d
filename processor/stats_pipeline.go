package processor

import (
	"github.com/forestwatch/fcs/carbon"
	"github.com/forestwatch/fcs/utils"
	"golang.org/x/net/context"
)

// StatsPipeline wires the region stages together for one Execute request.
// With worker nodes configured the zonal stage runs over gRPC, otherwise
// in-process against Store.
type StatsPipeline struct {
	Context            context.Context
	Error              chan error
	RPCAddrs           []string
	MaxGrpcRecvMsgSize int
	Store              carbon.LayerStore
}

func InitStatsPipeline(ctx context.Context, rpcAddrs []string, maxGrpcRecvMsgSize int, store carbon.LayerStore, errChan chan error) *StatsPipeline {
	return &StatsPipeline{
		Context:            ctx,
		Error:              errChan,
		RPCAddrs:           rpcAddrs,
		MaxGrpcRecvMsgSize: maxGrpcRecvMsgSize,
		Store:              store,
	}
}

func (sp *StatsPipeline) Process(statsReq *StatsRequest, bandNames []string, columnExpr *utils.BandExpressions, verbose bool) chan string {
	splt := NewRegionSplitter(sp.Error)
	go func() {
		splt.In <- statsReq
		close(splt.In)
	}()

	sm := NewStatsMerger(sp.Context, sp.Error)

	if len(sp.RPCAddrs) > 0 {
		rpc := NewStatsRPC(sp.Context, sp.RPCAddrs, sp.MaxGrpcRecvMsgSize, sp.Error)
		rpc.In = splt.Out
		sm.In = rpc.Out
		go rpc.Run(verbose)
	} else {
		local := NewStatsLocal(sp.Context, sp.Store, sp.Error)
		local.In = splt.Out
		sm.In = local.Out
		go local.Run()
	}

	go splt.Run()
	go sm.Run(bandNames, columnExpr, verbose)

	return sm.Out
}
