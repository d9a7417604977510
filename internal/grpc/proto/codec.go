package proto

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
)

// CodecName - подтип содержимого gRPC для JSON-сообщений
const CodecName = "json"

// JSONCodec кодирует сообщения сервиса в JSON
type JSONCodec struct{}

// Marshal реализует encoding.Codec
func (JSONCodec) Marshal(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

// Unmarshal реализует encoding.Codec
func (JSONCodec) Unmarshal(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

// Name реализует encoding.Codec
func (JSONCodec) Name() string {
	return CodecName
}

func init() {
	encoding.RegisterCodec(JSONCodec{})
}
