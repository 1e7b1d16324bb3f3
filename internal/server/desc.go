package server

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const serviceName = "bizscan.v1.BatchService"

// Full method names.
const (
	MethodGetBatch          = "/" + serviceName + "/GetBatch"
	MethodListBatches       = "/" + serviceName + "/ListBatches"
	MethodPauseBatch        = "/" + serviceName + "/PauseBatch"
	MethodResumeBatch       = "/" + serviceName + "/ResumeBatch"
	MethodExportWorkbook    = "/" + serviceName + "/ExportWorkbook"
	MethodCheckAvailability = "/" + serviceName + "/CheckAvailability"
)

// BatchServiceServer is the server API. Messages are well-known types so no
// generated code is needed on either side.
type BatchServiceServer interface {
	GetBatch(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ListBatches(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	PauseBatch(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ResumeBatch(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ExportWorkbook(ctx context.Context, req *structpb.Struct) (*wrapperspb.BytesValue, error)
	CheckAvailability(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

func RegisterBatchServiceServer(s grpc.ServiceRegistrar, srv BatchServiceServer) {
	s.RegisterService(&BatchService_ServiceDesc, srv)
}

// unary builds a method handler that decodes a Struct request and calls call.
func unary[Resp any](fullMethod string, call func(BatchServiceServer, context.Context, *structpb.Struct) (Resp, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			resp, err := call(srv.(BatchServiceServer), ctx, in)
			return resp, err
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			resp, err := call(srv.(BatchServiceServer), ctx, req.(*structpb.Struct))
			return resp, err
		}
		return interceptor(ctx, in, info, handler)
	}
}

var BatchService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*BatchServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetBatch", Handler: unary(MethodGetBatch, BatchServiceServer.GetBatch)},
		{MethodName: "ListBatches", Handler: unary(MethodListBatches, BatchServiceServer.ListBatches)},
		{MethodName: "PauseBatch", Handler: unary(MethodPauseBatch, BatchServiceServer.PauseBatch)},
		{MethodName: "ResumeBatch", Handler: unary(MethodResumeBatch, BatchServiceServer.ResumeBatch)},
		{MethodName: "ExportWorkbook", Handler: unary(MethodExportWorkbook, BatchServiceServer.ExportWorkbook)},
		{MethodName: "CheckAvailability", Handler: unary(MethodCheckAvailability, BatchServiceServer.CheckAvailability)},
	},
	Streams: []grpc.StreamDesc{},
}
