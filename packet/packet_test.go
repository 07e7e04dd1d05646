package packet

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/jd3nn1s/forzadash"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fieldKind int

const (
	kindF32 fieldKind = iota
	kindI32
	kindU32
	kindU16
	kindU8
	kindI8
)

type field struct {
	offset int
	kind   fieldKind
	get    func(t *forzadash.Telemetry) float64
}

func f32(offset int, get func(t *forzadash.Telemetry) float32) field {
	return field{offset, kindF32, func(t *forzadash.Telemetry) float64 { return float64(get(t)) }}
}

func i32(offset int, get func(t *forzadash.Telemetry) int32) field {
	return field{offset, kindI32, func(t *forzadash.Telemetry) float64 { return float64(get(t)) }}
}

var layout = []field{
	i32(0, func(t *forzadash.Telemetry) int32 { return t.IsRaceOn }),
	{4, kindU32, func(t *forzadash.Telemetry) float64 { return float64(t.TimestampMS) }},
	f32(8, func(t *forzadash.Telemetry) float32 { return t.EngineMaxRpm }),
	f32(12, func(t *forzadash.Telemetry) float32 { return t.EngineIdleRpm }),
	f32(16, func(t *forzadash.Telemetry) float32 { return t.CurrentEngineRpm }),
	f32(20, func(t *forzadash.Telemetry) float32 { return t.AccelerationX }),
	f32(24, func(t *forzadash.Telemetry) float32 { return t.AccelerationY }),
	f32(28, func(t *forzadash.Telemetry) float32 { return t.AccelerationZ }),
	f32(32, func(t *forzadash.Telemetry) float32 { return t.VelocityX }),
	f32(36, func(t *forzadash.Telemetry) float32 { return t.VelocityY }),
	f32(40, func(t *forzadash.Telemetry) float32 { return t.VelocityZ }),
	f32(44, func(t *forzadash.Telemetry) float32 { return t.AngularVelocityX }),
	f32(48, func(t *forzadash.Telemetry) float32 { return t.AngularVelocityY }),
	f32(52, func(t *forzadash.Telemetry) float32 { return t.AngularVelocityZ }),
	f32(56, func(t *forzadash.Telemetry) float32 { return t.Yaw }),
	f32(60, func(t *forzadash.Telemetry) float32 { return t.Pitch }),
	f32(64, func(t *forzadash.Telemetry) float32 { return t.Roll }),
	f32(68, func(t *forzadash.Telemetry) float32 { return t.NormalizedSuspensionTravelFrontLeft }),
	f32(72, func(t *forzadash.Telemetry) float32 { return t.NormalizedSuspensionTravelFrontRight }),
	f32(76, func(t *forzadash.Telemetry) float32 { return t.NormalizedSuspensionTravelRearLeft }),
	f32(80, func(t *forzadash.Telemetry) float32 { return t.NormalizedSuspensionTravelRearRight }),
	f32(84, func(t *forzadash.Telemetry) float32 { return t.TireSlipRatioFrontLeft }),
	f32(88, func(t *forzadash.Telemetry) float32 { return t.TireSlipRatioFrontRight }),
	f32(92, func(t *forzadash.Telemetry) float32 { return t.TireSlipRatioRearLeft }),
	f32(96, func(t *forzadash.Telemetry) float32 { return t.TireSlipRatioRearRight }),
	f32(100, func(t *forzadash.Telemetry) float32 { return t.WheelRotationSpeedFrontLeft }),
	f32(104, func(t *forzadash.Telemetry) float32 { return t.WheelRotationSpeedFrontRight }),
	f32(108, func(t *forzadash.Telemetry) float32 { return t.WheelRotationSpeedRearLeft }),
	f32(112, func(t *forzadash.Telemetry) float32 { return t.WheelRotationSpeedRearRight }),
	i32(116, func(t *forzadash.Telemetry) int32 { return t.WheelOnRumbleStripFrontLeft }),
	i32(120, func(t *forzadash.Telemetry) int32 { return t.WheelOnRumbleStripFrontRight }),
	i32(124, func(t *forzadash.Telemetry) int32 { return t.WheelOnRumbleStripRearLeft }),
	i32(128, func(t *forzadash.Telemetry) int32 { return t.WheelOnRumbleStripRearRight }),
	f32(132, func(t *forzadash.Telemetry) float32 { return t.WheelInPuddleDepthFrontLeft }),
	f32(136, func(t *forzadash.Telemetry) float32 { return t.WheelInPuddleDepthFrontRight }),
	f32(140, func(t *forzadash.Telemetry) float32 { return t.WheelInPuddleDepthRearLeft }),
	f32(144, func(t *forzadash.Telemetry) float32 { return t.WheelInPuddleDepthRearRight }),
	f32(148, func(t *forzadash.Telemetry) float32 { return t.SurfaceRumbleFrontLeft }),
	f32(152, func(t *forzadash.Telemetry) float32 { return t.SurfaceRumbleFrontRight }),
	f32(156, func(t *forzadash.Telemetry) float32 { return t.SurfaceRumbleRearLeft }),
	f32(160, func(t *forzadash.Telemetry) float32 { return t.SurfaceRumbleRearRight }),
	f32(164, func(t *forzadash.Telemetry) float32 { return t.TireSlipAngleFrontLeft }),
	f32(168, func(t *forzadash.Telemetry) float32 { return t.TireSlipAngleFrontRight }),
	f32(172, func(t *forzadash.Telemetry) float32 { return t.TireSlipAngleRearLeft }),
	f32(176, func(t *forzadash.Telemetry) float32 { return t.TireSlipAngleRearRight }),
	f32(180, func(t *forzadash.Telemetry) float32 { return t.TireCombinedSlipFrontLeft }),
	f32(184, func(t *forzadash.Telemetry) float32 { return t.TireCombinedSlipFrontRight }),
	f32(188, func(t *forzadash.Telemetry) float32 { return t.TireCombinedSlipRearLeft }),
	f32(192, func(t *forzadash.Telemetry) float32 { return t.TireCombinedSlipRearRight }),
	f32(196, func(t *forzadash.Telemetry) float32 { return t.SuspensionTravelMetersFrontLeft }),
	f32(200, func(t *forzadash.Telemetry) float32 { return t.SuspensionTravelMetersFrontRight }),
	f32(204, func(t *forzadash.Telemetry) float32 { return t.SuspensionTravelMetersRearLeft }),
	f32(208, func(t *forzadash.Telemetry) float32 { return t.SuspensionTravelMetersRearRight }),
	i32(212, func(t *forzadash.Telemetry) int32 { return t.CarOrdinal }),
	i32(216, func(t *forzadash.Telemetry) int32 { return t.CarClass }),
	i32(220, func(t *forzadash.Telemetry) int32 { return t.CarPerformanceIndex }),
	i32(224, func(t *forzadash.Telemetry) int32 { return t.DrivetrainType }),
	i32(228, func(t *forzadash.Telemetry) int32 { return t.NumCylinders }),
	f32(232, func(t *forzadash.Telemetry) float32 { return t.PositionX }),
	f32(236, func(t *forzadash.Telemetry) float32 { return t.PositionY }),
	f32(240, func(t *forzadash.Telemetry) float32 { return t.PositionZ }),
	// 244 speed is converted, checked separately
	f32(248, func(t *forzadash.Telemetry) float32 { return t.Power }),
	f32(252, func(t *forzadash.Telemetry) float32 { return t.Torque }),
	f32(256, func(t *forzadash.Telemetry) float32 { return t.TireTempFrontLeft }),
	f32(260, func(t *forzadash.Telemetry) float32 { return t.TireTempFrontRight }),
	f32(264, func(t *forzadash.Telemetry) float32 { return t.TireTempRearLeft }),
	f32(268, func(t *forzadash.Telemetry) float32 { return t.TireTempRearRight }),
	f32(272, func(t *forzadash.Telemetry) float32 { return t.Boost }),
	f32(276, func(t *forzadash.Telemetry) float32 { return t.Fuel }),
	f32(280, func(t *forzadash.Telemetry) float32 { return t.DistanceTraveled }),
	f32(284, func(t *forzadash.Telemetry) float32 { return t.BestLap }),
	f32(288, func(t *forzadash.Telemetry) float32 { return t.LastLap }),
	f32(292, func(t *forzadash.Telemetry) float32 { return t.CurrentLap }),
	f32(296, func(t *forzadash.Telemetry) float32 { return t.CurrentRaceTime }),
	{300, kindU16, func(t *forzadash.Telemetry) float64 { return float64(t.LapNumber) }},
	{302, kindU8, func(t *forzadash.Telemetry) float64 { return float64(t.RacePosition) }},
	{303, kindU8, func(t *forzadash.Telemetry) float64 { return float64(t.Accel) }},
	{304, kindU8, func(t *forzadash.Telemetry) float64 { return float64(t.Brake) }},
	{305, kindU8, func(t *forzadash.Telemetry) float64 { return float64(t.Clutch) }},
	{306, kindU8, func(t *forzadash.Telemetry) float64 { return float64(t.HandBrake) }},
	{307, kindU8, func(t *forzadash.Telemetry) float64 { return float64(t.Gear) }},
	{308, kindI8, func(t *forzadash.Telemetry) float64 { return float64(t.Steer) }},
	{309, kindI8, func(t *forzadash.Telemetry) float64 { return float64(t.NormalizedDrivingLine) }},
	{310, kindI8, func(t *forzadash.Telemetry) float64 { return float64(t.NormalizedAIBrakeDifference) }},
	f32(311, func(t *forzadash.Telemetry) float32 { return t.TireWearFrontLeft }),
	f32(315, func(t *forzadash.Telemetry) float32 { return t.TireWearFrontRight }),
	f32(319, func(t *forzadash.Telemetry) float32 { return t.TireWearRearLeft }),
	f32(323, func(t *forzadash.Telemetry) float32 { return t.TireWearRearRight }),
	i32(327, func(t *forzadash.Telemetry) int32 { return t.TrackOrdinal }),
}

// expected returns a distinct, exactly representable value for each offset.
func expected(f field) float64 {
	switch f.kind {
	case kindF32:
		return float64(f.offset) + 0.25
	case kindI32:
		return -float64(f.offset)
	case kindI8:
		return -float64(f.offset - 300)
	case kindU8:
		return float64(f.offset - 300)
	}
	return float64(f.offset)
}

func put(buf []byte, f field, v float64) {
	b := buf[f.offset:]
	switch f.kind {
	case kindF32:
		binary.LittleEndian.PutUint32(b, math.Float32bits(float32(v)))
	case kindI32:
		binary.LittleEndian.PutUint32(b, uint32(int32(v)))
	case kindU32:
		binary.LittleEndian.PutUint32(b, uint32(v))
	case kindU16:
		binary.LittleEndian.PutUint16(b, uint16(v))
	case kindU8:
		b[0] = uint8(v)
	case kindI8:
		b[0] = uint8(int8(v))
	}
}

func layoutBuffer() []byte {
	buf := make([]byte, Size)
	for _, f := range layout {
		put(buf, f, expected(f))
	}
	binary.LittleEndian.PutUint32(buf[244:], math.Float32bits(44.7))
	return buf
}

func TestTelemetryWireSize(t *testing.T) {
	assert.Equal(t, Size, binary.Size(forzadash.Telemetry{}))
}

func TestDecodeLayout(t *testing.T) {
	telem, err := Decode(layoutBuffer())
	require.NoError(t, err)
	for _, f := range layout {
		assert.Equal(t, expected(f), f.get(telem), "field at offset %d", f.offset)
	}
	assert.InDelta(t, 44.7*SpeedConversion, telem.Speed, 0.001)
}

func TestDecodeRaceOnAndSpeed(t *testing.T) {
	buf := make([]byte, Size)
	copy(buf[0:4], []byte{0x01, 0x00, 0x00, 0x00})
	binary.LittleEndian.PutUint32(buf[244:], math.Float32bits(44.7))

	telem, err := Decode(buf)
	require.NoError(t, err)
	assert.Equal(t, int32(1), telem.IsRaceOn)
	assert.True(t, telem.RaceOn())
	assert.InDelta(t, 99.99, telem.Speed, 0.01)
}

func TestDecodeSignedBytes(t *testing.T) {
	buf := make([]byte, Size)
	buf[307] = 255
	buf[308] = 0x81
	telem, err := Decode(buf)
	require.NoError(t, err)
	assert.Equal(t, uint8(255), telem.Gear)
	assert.Equal(t, int8(-127), telem.Steer)
}

func TestDecodeDeterministic(t *testing.T) {
	buf := layoutBuffer()
	a, err := Decode(buf)
	require.NoError(t, err)
	b, err := Decode(buf)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestDecodeWrongLength(t *testing.T) {
	for _, n := range []int{0, 1, 4, Size - 1, Size + 1, 1024} {
		telem, err := Decode(make([]byte, n))
		assert.Nil(t, telem)
		assert.Error(t, err)
		assert.True(t, IsDecodeError(err), "length %d", n)
		assert.Equal(t, n, err.(*DecodeError).Length)
	}
	_, err := Decode(nil)
	assert.True(t, IsDecodeError(err))
}

func TestEncode(t *testing.T) {
	orig, err := Decode(layoutBuffer())
	require.NoError(t, err)

	buf, err := Encode(orig)
	require.NoError(t, err)
	assert.Len(t, buf, Size)

	decoded, err := Decode(buf)
	require.NoError(t, err)
	assert.InDelta(t, orig.Speed, decoded.Speed, 0.0001)
	decoded.Speed = orig.Speed
	assert.Equal(t, orig, decoded)
	assert.Equal(t, layoutBuffer()[:244], buf[:244])
}
