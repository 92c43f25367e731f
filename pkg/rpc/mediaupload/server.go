package mediaupload

import (
	"context"

	"google.golang.org/grpc"
)

// MediaUploadServer is implemented by the ingestion service.
type MediaUploadServer interface {
	UploadVideo(MediaUploadService_UploadVideoServer) error
	GetQueueStatus(context.Context, *QueueStatusRequest) (*QueueStatusResponse, error)
	GetStatistics(context.Context, *StatisticsRequest) (*StatisticsResponse, error)
}

// MediaUploadService_UploadVideoServer is the server view of the upload
// stream: Recv chunks until io.EOF or an IsLast chunk, then SendAndClose
// exactly one response.
type MediaUploadService_UploadVideoServer interface {
	Recv() (*VideoChunk, error)
	SendAndClose(*UploadResponse) error
	grpc.ServerStream
}

type uploadVideoServer struct {
	grpc.ServerStream
}

func (s *uploadVideoServer) Recv() (*VideoChunk, error) {
	c := new(VideoChunk)
	if err := s.ServerStream.RecvMsg(c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *uploadVideoServer) SendAndClose(resp *UploadResponse) error {
	return s.ServerStream.SendMsg(resp)
}

// RegisterMediaUploadServer attaches the service implementation to a gRPC
// server.
func RegisterMediaUploadServer(s grpc.ServiceRegistrar, srv MediaUploadServer) {
	s.RegisterService(&MediaUploadService_ServiceDesc, srv)
}

func _MediaUpload_UploadVideo_Handler(srv any, stream grpc.ServerStream) error {
	return srv.(MediaUploadServer).UploadVideo(&uploadVideoServer{stream})
}

func _MediaUpload_GetQueueStatus_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(QueueStatusRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(MediaUploadServer).GetQueueStatus(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: "/" + ServiceName + "/GetQueueStatus",
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(MediaUploadServer).GetQueueStatus(ctx, req.(*QueueStatusRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _MediaUpload_GetStatistics_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(StatisticsRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(MediaUploadServer).GetStatistics(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: "/" + ServiceName + "/GetStatistics",
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(MediaUploadServer).GetStatistics(ctx, req.(*StatisticsRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// MediaUploadService_ServiceDesc is the grpc.ServiceDesc for the service.
var MediaUploadService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*MediaUploadServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "GetQueueStatus",
			Handler:    _MediaUpload_GetQueueStatus_Handler,
		},
		{
			MethodName: "GetStatistics",
			Handler:    _MediaUpload_GetStatistics_Handler,
		},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "UploadVideo",
			Handler:       _MediaUpload_UploadVideo_Handler,
			ClientStreams: true,
		},
	},
}
