package forzadash

import (
	"bytes"
	"encoding/json"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Telemetry is one decoded Data Out packet. Field order and widths match the
// wire layout so the struct can be read and written with encoding/binary.
// Speed holds miles per hour, the other fields are as sent by the game.
type Telemetry struct {
	IsRaceOn    int32  `json:"is_race_on"`
	TimestampMS uint32 `json:"timestamp_ms"`

	EngineMaxRpm     float32 `json:"engine_max_rpm"`
	EngineIdleRpm    float32 `json:"engine_idle_rpm"`
	CurrentEngineRpm float32 `json:"current_engine_rpm"`

	AccelerationX float32 `json:"acceleration_x"`
	AccelerationY float32 `json:"acceleration_y"`
	AccelerationZ float32 `json:"acceleration_z"`

	VelocityX float32 `json:"velocity_x"`
	VelocityY float32 `json:"velocity_y"`
	VelocityZ float32 `json:"velocity_z"`

	AngularVelocityX float32 `json:"angular_velocity_x"`
	AngularVelocityY float32 `json:"angular_velocity_y"`
	AngularVelocityZ float32 `json:"angular_velocity_z"`

	Yaw   float32 `json:"yaw"`
	Pitch float32 `json:"pitch"`
	Roll  float32 `json:"roll"`

	NormalizedSuspensionTravelFrontLeft  float32 `json:"normalized_suspension_travel_front_left"`
	NormalizedSuspensionTravelFrontRight float32 `json:"normalized_suspension_travel_front_right"`
	NormalizedSuspensionTravelRearLeft   float32 `json:"normalized_suspension_travel_rear_left"`
	NormalizedSuspensionTravelRearRight  float32 `json:"normalized_suspension_travel_rear_right"`

	TireSlipRatioFrontLeft  float32 `json:"tire_slip_ratio_front_left"`
	TireSlipRatioFrontRight float32 `json:"tire_slip_ratio_front_right"`
	TireSlipRatioRearLeft   float32 `json:"tire_slip_ratio_rear_left"`
	TireSlipRatioRearRight  float32 `json:"tire_slip_ratio_rear_right"`

	WheelRotationSpeedFrontLeft  float32 `json:"wheel_rotation_speed_front_left"`
	WheelRotationSpeedFrontRight float32 `json:"wheel_rotation_speed_front_right"`
	WheelRotationSpeedRearLeft   float32 `json:"wheel_rotation_speed_rear_left"`
	WheelRotationSpeedRearRight  float32 `json:"wheel_rotation_speed_rear_right"`

	WheelOnRumbleStripFrontLeft  int32 `json:"wheel_on_rumble_strip_front_left"`
	WheelOnRumbleStripFrontRight int32 `json:"wheel_on_rumble_strip_front_right"`
	WheelOnRumbleStripRearLeft   int32 `json:"wheel_on_rumble_strip_rear_left"`
	WheelOnRumbleStripRearRight  int32 `json:"wheel_on_rumble_strip_rear_right"`

	WheelInPuddleDepthFrontLeft  float32 `json:"wheel_in_puddle_depth_front_left"`
	WheelInPuddleDepthFrontRight float32 `json:"wheel_in_puddle_depth_front_right"`
	WheelInPuddleDepthRearLeft   float32 `json:"wheel_in_puddle_depth_rear_left"`
	WheelInPuddleDepthRearRight  float32 `json:"wheel_in_puddle_depth_rear_right"`

	SurfaceRumbleFrontLeft  float32 `json:"surface_rumble_front_left"`
	SurfaceRumbleFrontRight float32 `json:"surface_rumble_front_right"`
	SurfaceRumbleRearLeft   float32 `json:"surface_rumble_rear_left"`
	SurfaceRumbleRearRight  float32 `json:"surface_rumble_rear_right"`

	TireSlipAngleFrontLeft  float32 `json:"tire_slip_angle_front_left"`
	TireSlipAngleFrontRight float32 `json:"tire_slip_angle_front_right"`
	TireSlipAngleRearLeft   float32 `json:"tire_slip_angle_rear_left"`
	TireSlipAngleRearRight  float32 `json:"tire_slip_angle_rear_right"`

	TireCombinedSlipFrontLeft  float32 `json:"tire_combined_slip_front_left"`
	TireCombinedSlipFrontRight float32 `json:"tire_combined_slip_front_right"`
	TireCombinedSlipRearLeft   float32 `json:"tire_combined_slip_rear_left"`
	TireCombinedSlipRearRight  float32 `json:"tire_combined_slip_rear_right"`

	SuspensionTravelMetersFrontLeft  float32 `json:"suspension_travel_meters_front_left"`
	SuspensionTravelMetersFrontRight float32 `json:"suspension_travel_meters_front_right"`
	SuspensionTravelMetersRearLeft   float32 `json:"suspension_travel_meters_rear_left"`
	SuspensionTravelMetersRearRight  float32 `json:"suspension_travel_meters_rear_right"`

	CarOrdinal          int32 `json:"car_ordinal"`
	CarClass            int32 `json:"car_class"`
	CarPerformanceIndex int32 `json:"car_performance_index"`
	DrivetrainType      int32 `json:"drivetrain_type"`
	NumCylinders        int32 `json:"num_cylinders"`

	PositionX float32 `json:"position_x"`
	PositionY float32 `json:"position_y"`
	PositionZ float32 `json:"position_z"`

	Speed  float32 `json:"speed"`
	Power  float32 `json:"power"`
	Torque float32 `json:"torque"`

	TireTempFrontLeft  float32 `json:"tire_temp_front_left"`
	TireTempFrontRight float32 `json:"tire_temp_front_right"`
	TireTempRearLeft   float32 `json:"tire_temp_rear_left"`
	TireTempRearRight  float32 `json:"tire_temp_rear_right"`

	Boost            float32 `json:"boost"`
	Fuel             float32 `json:"fuel"`
	DistanceTraveled float32 `json:"distance_traveled"`
	BestLap          float32 `json:"best_lap"`
	LastLap          float32 `json:"last_lap"`
	CurrentLap       float32 `json:"current_lap"`
	CurrentRaceTime  float32 `json:"current_race_time"`

	LapNumber    uint16 `json:"lap_number"`
	RacePosition uint8  `json:"race_position"`
	Accel        uint8  `json:"accel"`
	Brake        uint8  `json:"brake"`
	Clutch       uint8  `json:"clutch"`
	HandBrake    uint8  `json:"hand_brake"`
	Gear         uint8  `json:"gear"`

	Steer                       int8 `json:"steer"`
	NormalizedDrivingLine       int8 `json:"normalized_driving_line"`
	NormalizedAIBrakeDifference int8 `json:"normalized_aibrake_difference"`

	TireWearFrontLeft  float32 `json:"tire_wear_front_left"`
	TireWearFrontRight float32 `json:"tire_wear_front_right"`
	TireWearRearLeft   float32 `json:"tire_wear_rear_left"`
	TireWearRearRight  float32 `json:"tire_wear_rear_right"`

	TrackOrdinal int32 `json:"track_ordinal"`
}

func (t *Telemetry) RaceOn() bool {
	return t.IsRaceOn != 0
}

// MarshalJSON writes the fields in wire order. NaN and infinite floats, which
// the game sends for some sensors, are written as null.
func (t Telemetry) MarshalJSON() ([]byte, error) {
	v := reflect.ValueOf(t)
	typ := v.Type()

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i := 0; i < v.NumField(); i++ {
		if i > 0 {
			buf.WriteByte(',')
		}
		name := strings.Split(typ.Field(i).Tag.Get("json"), ",")[0]
		buf.WriteString(strconv.Quote(name))
		buf.WriteByte(':')

		field := v.Field(i)
		if field.Kind() == reflect.Float32 {
			f := field.Float()
			if math.IsNaN(f) || math.IsInf(f, 0) {
				buf.WriteString("null")
				continue
			}
		}
		b, err := json.Marshal(field.Interface())
		if err != nil {
			return nil, errors.Wrapf(err, "unable to marshal %s", name)
		}
		buf.Write(b)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
