package main

import (
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"

	"github.com/forestwatch/fcs/catalog"
	pb "github.com/forestwatch/fcs/worker/statservice"

	_ "net/http/pprof"

	"golang.org/x/net/context"
	"google.golang.org/grpc"
	"os"
	"os/signal"
	"syscall"
)

type server struct {
	Aggregator *pb.Aggregator
}

// Aggregate never returns a transport error for a bad region: failures
// travel in the result's Error field so one region cannot abort a batch.
func (s *server) Aggregate(ctx context.Context, in *pb.RegionRequest) (*pb.RegionResult, error) {
	return s.Aggregator.Aggregate(in), nil
}

func main() {
	port := flag.Int("p", 6000, "gRPC server listening port.")
	catalogFile := flag.String("catalog", "catalog.yaml", "Layer catalog filepath.")
	maxRecvMsgSize := flag.Int("max_recv_msg_size", 10*1024*1024, "Maximum gRPC receive message size in bytes.")
	flag.Parse()

	store, err := catalog.Load(*catalogFile)
	if err != nil {
		log.Printf("Failed to load layer catalog: %v", err)
		os.Exit(2)
	}

	go func() {
		log.Println(http.ListenAndServe("localhost:6060", nil))
	}()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		for {
			select {
			case <-signals:
				os.Exit(1)
			}
		}
	}()

	s := grpc.NewServer(grpc.MaxRecvMsgSize(*maxRecvMsgSize))
	pb.RegisterStatsServer(s, &server{Aggregator: pb.NewAggregator(store)})

	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", *port))
	if err != nil {
		log.Fatalf("failed to listen: %v", err)
	}

	log.Printf("FCS stats worker listening on port %d, serving %d layers", *port, len(store.LayerNames()))
	if err := s.Serve(lis); err != nil {
		log.Fatalf("failed to serve: %v", err)
	}
}
