package grpc

import (
	"context"
	"fmt"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/status"

	"github.com/quentinrf/lightlevel/internal/channel"
	"github.com/quentinrf/lightlevel/pkg/channelpb"
)

// Client invokes method channels on a remote daemon
type Client struct {
	conn *grpc.ClientConn
	rpc  channelpb.MethodChannelClient
}

// NewClient creates a client for addr; no connection is made until the first call
func NewClient(addr string, creds credentials.TransportCredentials) (*Client, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(creds))
	if err != nil {
		return nil, fmt.Errorf("create client for %s: %w", addr, err)
	}

	return &Client{
		conn: conn,
		rpc:  channelpb.NewMethodChannelClient(conn),
	}, nil
}

// Invoke calls a method on the named channel. Failures come back as the
// channel package's errors: ErrNotImplemented, ErrNoHandler or *channel.Error.
func (c *Client) Invoke(ctx context.Context, name string, call channel.MethodCall) (any, error) {
	req, err := channelpb.NewInvokeRequest(name, call.Method, call.Arguments)
	if err != nil {
		return nil, err
	}

	resp, err := c.rpc.Invoke(ctx, req)
	if err != nil {
		return nil, fromStatus(err)
	}

	return resp.AsInterface(), nil
}

// Close closes the connection
func (c *Client) Close() error {
	return c.conn.Close()
}

// fromStatus converts a gRPC status back into a channel failure
func fromStatus(err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return err
	}

	switch st.Code() {
	case codes.Unimplemented:
		return fmt.Errorf("%w: %s", channel.ErrNotImplemented, st.Message())

	case codes.NotFound:
		return fmt.Errorf("%w: %s", channel.ErrNoHandler, st.Message())

	case codes.Unavailable:
		for _, d := range st.Details() {
			if info, ok := d.(*errdetails.ErrorInfo); ok {
				chErr := &channel.Error{Code: info.GetReason(), Message: st.Message()}
				if details, ok := info.GetMetadata()[detailsKey]; ok {
					chErr.Details = details
				}
				return chErr
			}
		}
	}

	return err
}
