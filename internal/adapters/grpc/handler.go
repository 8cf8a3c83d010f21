package grpc

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/quentinrf/lightlevel/internal/channel"
	"github.com/quentinrf/lightlevel/internal/metrics"
	"github.com/quentinrf/lightlevel/pkg/channelpb"
)

// detailsKey is the ErrorInfo metadata key carrying channel.Error details
const detailsKey = "details"

// Invoker dispatches a method call to a named channel
type Invoker interface {
	Invoke(ctx context.Context, name string, call channel.MethodCall) (any, error)
}

// MethodChannelHandler implements the gRPC MethodChannel service
type MethodChannelHandler struct {
	channelpb.UnimplementedMethodChannelServer
	invoker Invoker
}

// NewMethodChannelHandler creates a new gRPC handler
func NewMethodChannelHandler(invoker Invoker) *MethodChannelHandler {
	return &MethodChannelHandler{
		invoker: invoker,
	}
}

// Invoke forwards one method call to the channel named in the request
func (h *MethodChannelHandler) Invoke(ctx context.Context, req *structpb.Struct) (*structpb.Value, error) {
	name, method, args, err := channelpb.ParseInvokeRequest(req)
	if err != nil {
		log.Warn().Err(err).Msg("malformed invoke request")
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	logger := log.With().
		Str("call_id", uuid.NewString()).
		Str("channel", name).
		Str("method", method).
		Logger()
	logger.Info().Msg("Invoke called")

	result, err := h.invoker.Invoke(ctx, name, channel.MethodCall{Method: method, Arguments: args})
	countCall(name, method, err)
	if err != nil {
		return nil, toStatus(name, err, &logger)
	}

	value, err := structpb.NewValue(result)
	if err != nil {
		logger.Error().Err(err).Msg("failed to encode result")
		return nil, status.Error(codes.Internal, "failed to encode result")
	}

	return value, nil
}

// toStatus converts a channel failure into a gRPC status
func toStatus(name string, err error, logger *zerolog.Logger) error {
	var chErr *channel.Error

	switch {
	case errors.Is(err, channel.ErrNotImplemented):
		return status.Error(codes.Unimplemented, err.Error())

	case errors.Is(err, channel.ErrNoHandler):
		return status.Error(codes.NotFound, err.Error())

	case errors.As(err, &chErr):
		logger.Error().Err(err).Msg("method call failed")

		st := status.New(codes.Unavailable, chErr.Message)
		info := &errdetails.ErrorInfo{Reason: chErr.Code, Domain: name}
		if details, ok := chErr.Details.(string); ok && details != "" {
			info.Metadata = map[string]string{detailsKey: details}
		}
		withInfo, detailErr := st.WithDetails(info)
		if detailErr != nil {
			logger.Warn().Err(detailErr).Msg("failed to attach error info")
			return st.Err()
		}
		return withInfo.Err()

	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return status.FromContextError(err).Err()
	}

	logger.Error().Err(err).Msg("method call failed")
	return status.Error(codes.Internal, "method call failed")
}

// countCall records the call; unknown channels and methods share one label
// so callers cannot grow the metric's cardinality.
func countCall(name, method string, err error) {
	result := "ok"
	var chErr *channel.Error

	switch {
	case err == nil:
	case errors.Is(err, channel.ErrNoHandler):
		name, method, result = "unknown", "unknown", "no_handler"
	case errors.Is(err, channel.ErrNotImplemented):
		method, result = "unknown", "not_implemented"
	case errors.As(err, &chErr):
		result = chErr.Code
	default:
		result = "error"
	}

	metrics.MethodCalls.WithLabelValues(name, method, result).Inc()
}
