package mediaupload

import (
	"context"

	"google.golang.org/grpc"
)

// MediaUploadClient is the client API for the media upload service.
type MediaUploadClient interface {
	UploadVideo(ctx context.Context, opts ...grpc.CallOption) (MediaUploadService_UploadVideoClient, error)
	GetQueueStatus(ctx context.Context, in *QueueStatusRequest, opts ...grpc.CallOption) (*QueueStatusResponse, error)
	GetStatistics(ctx context.Context, in *StatisticsRequest, opts ...grpc.CallOption) (*StatisticsResponse, error)
}

// MediaUploadService_UploadVideoClient is the client view of the upload
// stream.
type MediaUploadService_UploadVideoClient interface {
	Send(*VideoChunk) error
	CloseAndRecv() (*UploadResponse, error)
	grpc.ClientStream
}

type mediaUploadClient struct {
	cc grpc.ClientConnInterface
}

// NewMediaUploadClient builds a client on an established connection. The
// connection must be dialed with CallOption() as a default call option so
// the JSON codec is negotiated.
func NewMediaUploadClient(cc grpc.ClientConnInterface) MediaUploadClient {
	return &mediaUploadClient{cc}
}

func (c *mediaUploadClient) UploadVideo(ctx context.Context, opts ...grpc.CallOption) (MediaUploadService_UploadVideoClient, error) {
	stream, err := c.cc.NewStream(ctx, &MediaUploadService_ServiceDesc.Streams[0], "/"+ServiceName+"/UploadVideo", opts...)
	if err != nil {
		return nil, err
	}
	return &uploadVideoClient{stream}, nil
}

type uploadVideoClient struct {
	grpc.ClientStream
}

func (s *uploadVideoClient) Send(c *VideoChunk) error {
	return s.ClientStream.SendMsg(c)
}

func (s *uploadVideoClient) CloseAndRecv() (*UploadResponse, error) {
	if err := s.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	resp := new(UploadResponse)
	if err := s.ClientStream.RecvMsg(resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *mediaUploadClient) GetQueueStatus(ctx context.Context, in *QueueStatusRequest, opts ...grpc.CallOption) (*QueueStatusResponse, error) {
	out := new(QueueStatusResponse)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/GetQueueStatus", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *mediaUploadClient) GetStatistics(ctx context.Context, in *StatisticsRequest, opts ...grpc.CallOption) (*StatisticsResponse, error) {
	out := new(StatisticsResponse)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/GetStatistics", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
