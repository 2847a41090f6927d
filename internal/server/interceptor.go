package server

import (
	"context"
	"time"

	"connectrpc.com/connect"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"storyspark/internal/logger"
	"storyspark/internal/tracer"
)

// newObserveInterceptor logs and traces every unary call.
func newObserveInterceptor(log *zap.Logger) connect.UnaryInterceptorFunc {
	log = logger.OrNop(log)
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			procedure := req.Spec().Procedure
			ctx, span := tracer.Start(ctx, procedure)
			defer span.End()
			start := time.Now()

			resp, err := next(ctx, req)

			fields := []zap.Field{
				zap.String("procedure", procedure),
				zap.Duration("elapsed", time.Since(start)),
			}
			if id := tracer.TraceID(ctx); id != "" {
				fields = append(fields, zap.String("trace_id", id))
			}
			if err != nil {
				code := connect.CodeOf(err)
				span.SetAttributes(attribute.String("rpc.connect.code", code.String()))
				span.SetStatus(codes.Error, err.Error())
				log.Warn("rpc failed", append(fields, zap.String("code", code.String()), zap.Error(err))...)
				return resp, err
			}
			log.Info("rpc", fields...)
			return resp, nil
		}
	}
}
