package prefs

import (
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// encodeValue serializes v as the protobuf wrapper message of its kind.
func encodeValue(k Key, v any) ([]byte, error) {
	if err := k.check(v); err != nil {
		return nil, err
	}
	var msg proto.Message
	switch k.Kind {
	case KindInt:
		msg = wrapperspb.Int32(v.(int32))
	case KindLong:
		msg = wrapperspb.Int64(v.(int64))
	case KindFloat:
		msg = wrapperspb.Float(v.(float32))
	case KindBoolean:
		msg = wrapperspb.Bool(v.(bool))
	case KindString:
		msg = wrapperspb.String(v.(string))
	}
	data, err := proto.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", k, err)
	}
	if data == nil {
		// zero values marshal to nothing
		data = []byte{}
	}
	return data, nil
}

// decodeValue is the inverse of encodeValue.
func decodeValue(kind Kind, data []byte) (any, error) {
	switch kind {
	case KindInt:
		var w wrapperspb.Int32Value
		if err := proto.Unmarshal(data, &w); err != nil {
			return nil, err
		}
		return w.GetValue(), nil
	case KindLong:
		var w wrapperspb.Int64Value
		if err := proto.Unmarshal(data, &w); err != nil {
			return nil, err
		}
		return w.GetValue(), nil
	case KindFloat:
		var w wrapperspb.FloatValue
		if err := proto.Unmarshal(data, &w); err != nil {
			return nil, err
		}
		return w.GetValue(), nil
	case KindBoolean:
		var w wrapperspb.BoolValue
		if err := proto.Unmarshal(data, &w); err != nil {
			return nil, err
		}
		return w.GetValue(), nil
	case KindString:
		var w wrapperspb.StringValue
		if err := proto.Unmarshal(data, &w); err != nil {
			return nil, err
		}
		return w.GetValue(), nil
	}
	return nil, fmt.Errorf("%w: %d", ErrUnknownKind, uint8(kind))
}
