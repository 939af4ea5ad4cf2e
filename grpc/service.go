package grpc

import (
	"context"

	grpc "google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	serviceName       = "automod.v1.Automod"
	submitRulesMethod = "/" + serviceName + "/SubmitRules"
	listRulesMethod   = "/" + serviceName + "/ListRules"
)

// AutomodServer is the operator API. Requests and responses are
// google.protobuf.Struct values so the service needs no generated code.
type AutomodServer interface {
	// SubmitRules takes {submitter, document} and returns the submission report.
	SubmitRules(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	// ListRules takes {community} and returns its stored rules.
	ListRules(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

func submitRulesHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AutomodServer).SubmitRules(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: submitRulesMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(AutomodServer).SubmitRules(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func listRulesHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AutomodServer).ListRules(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: listRulesMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(AutomodServer).ListRules(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

var automodServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*AutomodServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "SubmitRules", Handler: submitRulesHandler},
		{MethodName: "ListRules", Handler: listRulesHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "automod.proto",
}

// RegisterAutomodServer registers srv on s.
func RegisterAutomodServer(s grpc.ServiceRegistrar, srv AutomodServer) {
	s.RegisterService(&automodServiceDesc, srv)
}
