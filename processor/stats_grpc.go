package processor

import (
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/forestwatch/fcs/carbon"
	pb "github.com/forestwatch/fcs/worker/statservice"
	geo "github.com/nci/geometry"
	"golang.org/x/net/context"
	"google.golang.org/grpc"
)

// StatsRPC distributes region tasks across the configured worker nodes.
// Each task goes to a randomly picked connection with at most 16 in
// flight; rows come back unordered.
type StatsRPC struct {
	Context            context.Context
	In                 chan *RegionTask
	Out                chan *RegionStats
	Error              chan error
	Clients            []string
	MaxGrpcRecvMsgSize int
}

func NewStatsRPC(ctx context.Context, serverAddress []string, maxGrpcRecvMsgSize int, errChan chan error) *StatsRPC {
	return &StatsRPC{
		Context:            ctx,
		In:                 make(chan *RegionTask, 100),
		Out:                make(chan *RegionStats, 100),
		Error:              errChan,
		Clients:            serverAddress,
		MaxGrpcRecvMsgSize: maxGrpcRecvMsgSize,
	}
}

func (sr *StatsRPC) Run(verbose bool) {
	defer close(sr.Out)

	conns := make([]*grpc.ClientConn, len(sr.Clients))
	for i, client := range sr.Clients {
		conn, err := grpc.Dial(client, grpc.WithInsecure(),
			grpc.WithDefaultCallOptions(grpc.MaxCallRecvMsgSize(sr.MaxGrpcRecvMsgSize)))
		if err != nil {
			log.Fatalf("gRPC connection problem: %v", err)
		}
		defer conn.Close()
		conns[i] = conn
	}

	cLimiter := NewConcLimiter(16)
	start := time.Now()
	i := 0
	for task := range sr.In {
		i++
		select {
		case <-sr.Context.Done():
			sr.Error <- fmt.Errorf("Stats gRPC context has been cancel: %v", sr.Context.Err())
			return
		default:
			cLimiter.Increase()
			go func(t *RegionTask, conc *ConcLimiter) {
				defer conc.Decrease()
				if t.MetricsCollector != nil {
					t0 := time.Now()
					defer func() {
						t.MetricsCollector.Info.RPC.Duration += time.Since(t0)
						t.MetricsCollector.Info.RPC.NumRegions++
					}()
				}

				if t.Region.Err != nil {
					sr.Out <- &RegionStats{Index: t.Index, Row: &carbon.StatsRow{Code: t.Region.Code, Name: t.Region.Name, Ha: t.Region.Ha, Error: t.Region.Err.Error()}}
					return
				}

				request, err := regionRequest(t)
				if err != nil {
					sr.Error <- err
					return
				}
				c := pb.NewStatsClient(conns[rand.Intn(len(conns))])
				r, err := c.Aggregate(sr.Context, request)
				if err != nil {
					sr.Error <- err
					return
				}
				sr.Out <- &RegionStats{Index: t.Index, Row: pb.Row(r)}
			}(task, cLimiter)
		}
	}
	cLimiter.Wait()
	if verbose {
		log.Println("gRPC Time", time.Since(start), "Processed:", i)
	}
}

func regionRequest(t *RegionTask) (*pb.RegionRequest, error) {
	feat, err := json.Marshal(&geo.Feature{Type: "Feature", Geometry: t.Region.Geometry})
	if err != nil {
		return nil, fmt.Errorf("error encoding geometry for region %s: %v", t.Region.Code, err)
	}
	return &pb.RegionRequest{
		Code:       t.Region.Code,
		Name:       t.Region.Name,
		Geometry:   string(feat),
		StartYear:  int32(t.Params.StartYear),
		EndYear:    int32(t.Params.EndYear),
		Threshold:  t.Params.Threshold,
		CoverLayer: t.Params.CoverLayer,
		LossLayer:  t.Params.LossLayer,
		AgbLayer:   t.Params.AGBLayer,
	}, nil
}
