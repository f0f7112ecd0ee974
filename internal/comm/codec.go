package comm

import (
	"bytes"
	"encoding/gob"
	"sync"

	"google.golang.org/grpc/encoding"
)

// gobCodecName is negotiated as the gRPC content-subtype
// ("application/grpc+gob"); registering a non-"proto" codec.Codec is the
// extension point grpc-go documents for messages that are not
// protoc-generated proto.Message values.
const gobCodecName = "gob"

func init() {
	encoding.RegisterCodec(gobCodec{})
}

type gobCodec struct{}

func (gobCodec) Name() string { return gobCodecName }

var bufPool = sync.Pool{New: func() any { return new(bytes.Buffer) }}

func (gobCodec) Marshal(v any) ([]byte, error) {
	buf := bufPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer bufPool.Put(buf)
	if err := gob.NewEncoder(buf).Encode(v); err != nil {
		return nil, err
	}
	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())
	return out, nil
}

func (gobCodec) Unmarshal(data []byte, v any) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(v)
}
