package grpc

import (
	"context"
	"time"

	"lemmy-automod/utils"

	grpc "google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/structpb"
)

// Client wraps a connection to the operator API.
type Client struct {
	conn          *grpc.ClientConn
	serverAddress string
	apiKey        string
	timeout       time.Duration
}

// NewClient creates a client for the operator API at serverAddress.
func NewClient(serverAddress, apiKey string, timeout time.Duration, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(serverAddress, opts...)
	if err != nil {
		return nil, err
	}

	return &Client{
		conn:          conn,
		serverAddress: serverAddress,
		apiKey:        apiKey,
		timeout:       timeout,
	}, nil
}

// Close closes the connection.
func (c *Client) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// GetServerAddress returns the server address.
func (c *Client) GetServerAddress() string {
	return c.serverAddress
}

func (c *Client) invoke(ctx context.Context, method string, req *structpb.Struct) (*structpb.Struct, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	if c.apiKey != "" {
		ctx = metadata.AppendToOutgoingContext(ctx, APIKeyHeader, c.apiKey)
	}

	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, method, req, out); err != nil {
		utils.Warn("gRPC", method, err.Error())
		return nil, err
	}
	return out, nil
}

// SubmitRules submits document as the named platform user.
func (c *Client) SubmitRules(ctx context.Context, submitter, document string) (*structpb.Struct, error) {
	req, err := structpb.NewStruct(map[string]any{"submitter": submitter, "document": document})
	if err != nil {
		return nil, err
	}
	return c.invoke(ctx, submitRulesMethod, req)
}

// ListRules fetches the stored rules of a community.
func (c *Client) ListRules(ctx context.Context, community string) (*structpb.Struct, error) {
	req, err := structpb.NewStruct(map[string]any{"community": community})
	if err != nil {
		return nil, err
	}
	return c.invoke(ctx, listRulesMethod, req)
}
