package server

import (
	"net/http"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const ServicePath = "/storyspark.v1.StoryService/"

const (
	ProcGetOptions        = ServicePath + "GetOptions"
	ProcGetState          = ServicePath + "GetState"
	ProcGenerate          = ServicePath + "Generate"
	ProcApproveProposal   = ServicePath + "ApproveProposal"
	ProcLoadFromHistory   = ServicePath + "LoadFromHistory"
	ProcDeleteFromHistory = ServicePath + "DeleteFromHistory"
	ProcListHistory       = ServicePath + "ListHistory"
	ProcClearHistory      = ServicePath + "ClearHistory"
	ProcReset             = ServicePath + "Reset"
	ProcDismissError      = ServicePath + "DismissError"
	ProcSetHistoryOpen    = ServicePath + "SetHistoryOpen"
)

// ClientOptions are the options a connect client needs to talk to the mux.
func ClientOptions() []connect.ClientOption {
	return []connect.ClientOption{connect.WithCodec(jsonCodec{})}
}

func NewMux(svc *StoryService, watch *WatchHandler, exp *ExportHandler, log *zap.Logger) http.Handler {
	mux := http.NewServeMux()
	opts := []connect.HandlerOption{
		connect.WithCodec(jsonCodec{}),
		connect.WithInterceptors(newObserveInterceptor(log)),
	}

	// RPC Handlers
	mux.Handle(ProcGetOptions, connect.NewUnaryHandler(ProcGetOptions, svc.GetOptions, opts...))
	mux.Handle(ProcGetState, connect.NewUnaryHandler(ProcGetState, svc.GetState, opts...))
	mux.Handle(ProcGenerate, connect.NewUnaryHandler(ProcGenerate, svc.Generate, opts...))
	mux.Handle(ProcApproveProposal, connect.NewUnaryHandler(ProcApproveProposal, svc.ApproveProposal, opts...))
	mux.Handle(ProcLoadFromHistory, connect.NewUnaryHandler(ProcLoadFromHistory, svc.LoadFromHistory, opts...))
	mux.Handle(ProcDeleteFromHistory, connect.NewUnaryHandler(ProcDeleteFromHistory, svc.DeleteFromHistory, opts...))
	mux.Handle(ProcListHistory, connect.NewUnaryHandler(ProcListHistory, svc.ListHistory, opts...))
	mux.Handle(ProcClearHistory, connect.NewUnaryHandler(ProcClearHistory, svc.ClearHistory, opts...))
	mux.Handle(ProcReset, connect.NewUnaryHandler(ProcReset, svc.Reset, opts...))
	mux.Handle(ProcDismissError, connect.NewUnaryHandler(ProcDismissError, svc.DismissError, opts...))
	mux.Handle(ProcSetHistoryOpen, connect.NewUnaryHandler(ProcSetHistoryOpen, svc.SetHistoryOpen, opts...))

	// Plain HTTP
	mux.HandleFunc("/ws/state", watch.HandleStateWS)
	mux.HandleFunc("/export", exp.HandleExport)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})

	// Middleware
	return CORS(mux)
}
