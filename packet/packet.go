package packet

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/jd3nn1s/forzadash"
	"github.com/pkg/errors"
)

const (
	// Size of a Data Out packet in bytes
	Size = 331

	// SpeedConversion turns the metres per second sent by the game into mph.
	SpeedConversion = 2.23694
)

// DecodeError is returned for buffers that are not exactly Size bytes long.
type DecodeError struct {
	Length int
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("invalid packet length %d, expected %d", e.Length, Size)
}

func IsDecodeError(err error) bool {
	_, ok := errors.Cause(err).(*DecodeError)
	return ok
}

// Decode parses a little-endian Data Out packet.
func Decode(buf []byte) (*forzadash.Telemetry, error) {
	if len(buf) != Size {
		return nil, &DecodeError{Length: len(buf)}
	}
	telem := &forzadash.Telemetry{}
	if err := binary.Read(bytes.NewReader(buf), binary.LittleEndian, telem); err != nil {
		return nil, errors.Wrap(err, "unable to read telemetry packet")
	}
	telem.Speed *= SpeedConversion
	return telem, nil
}

// Encode writes telemetry back into the wire format, converting speed to m/s.
func Encode(telem *forzadash.Telemetry) ([]byte, error) {
	raw := *telem
	raw.Speed /= SpeedConversion
	buf := bytes.NewBuffer(make([]byte, 0, Size))
	if err := binary.Write(buf, binary.LittleEndian, &raw); err != nil {
		return nil, errors.Wrap(err, "unable to write telemetry packet")
	}
	return buf.Bytes(), nil
}
