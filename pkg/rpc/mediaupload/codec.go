package mediaupload

import (
	"encoding/json"

	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"
)

// CodecName is the gRPC content-subtype under which the JSON codec is
// registered. Clients select it per connection with CallOption.
const CodecName = "json"

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

// jsonCodec serializes RPC messages with encoding/json. Byte slices (chunk
// payloads) ride as base64 strings, which is acceptable at the chunk sizes
// the producer uses.
type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func (jsonCodec) Name() string {
	return CodecName
}

// CallOption selects the JSON codec for outbound calls; pass it through
// grpc.WithDefaultCallOptions when dialing.
func CallOption() grpc.CallOption {
	return grpc.CallContentSubtype(CodecName)
}
