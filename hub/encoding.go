package hub

import (
	"encoding/json"

	"github.com/fxamacker/cbor/v2"
	"github.com/pkg/errors"
)

// Encoder serializes the telemetry pushed on every tick. Binary encoders are
// sent as binary websocket frames, the others as text frames.
type Encoder struct {
	Name    string
	Binary  bool
	Marshal func(v interface{}) ([]byte, error)
}

var (
	JSON = Encoder{
		Name:    "json",
		Marshal: json.Marshal,
	}
	// CBOR uses the json field names
	CBOR = Encoder{
		Name:    "cbor",
		Binary:  true,
		Marshal: cbor.Marshal,
	}
)

func EncoderByName(name string) (Encoder, error) {
	switch name {
	case JSON.Name:
		return JSON, nil
	case CBOR.Name:
		return CBOR, nil
	}
	return Encoder{}, errors.Errorf("unknown encoding %q", name)
}
