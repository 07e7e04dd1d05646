package forzadash

import (
	"math"
	"sync/atomic"

	log "github.com/sirupsen/logrus"
)

// StaticSnapshot holds values that stay constant for a race session.
type StaticSnapshot struct {
	CarOrdinal          int32  `json:"Car Ordinal ID"`
	Car                 string `json:"Car Ordinal"`
	CarClass            string `json:"Car Class"`
	CarPerformanceIndex int32  `json:"Car PI"`
	Drivetrain          string `json:"Drivetrain"`
	Cylinders           int32  `json:"Cylinders"`
	TrackOrdinal        int32  `json:"Track Ordinal"`
	MaxRPM              int    `json:"Max RPM"`
	IdleRPM             int    `json:"Idle RPM"`
}

// StaticExtractor captures a StaticSnapshot when a race starts and re-arms
// when it ends. Observe must only be called from one goroutine; Snapshot may
// be called from any.
type StaticExtractor struct {
	info     CarInfo
	captured bool
	snapshot atomic.Pointer[StaticSnapshot]
	// called after every capture, for logging and tests
	OnCapture func(StaticSnapshot)
}

func NewStaticExtractor(info CarInfo) *StaticExtractor {
	return &StaticExtractor{
		info: info,
	}
}

// Observe advances the state machine with a new packet and reports whether a
// snapshot was captured from it.
func (e *StaticExtractor) Observe(t *Telemetry) bool {
	raceOn := t.RaceOn()
	if e.captured {
		if !raceOn {
			e.captured = false
			log.Debug("race ended, static snapshot re-armed")
		}
		return false
	}
	if !raceOn {
		return false
	}

	snap := e.extract(t)
	e.snapshot.Store(&snap)
	e.captured = true
	log.WithField("car", snap.Car).
		WithField("class", snap.CarClass).
		WithField("track", snap.TrackOrdinal).
		Info("captured static snapshot")
	if e.OnCapture != nil {
		e.OnCapture(snap)
	}
	return true
}

// Snapshot returns the most recent capture. It stays available after the race
// ends until the next capture replaces it.
func (e *StaticExtractor) Snapshot() (StaticSnapshot, bool) {
	p := e.snapshot.Load()
	if p == nil {
		return StaticSnapshot{}, false
	}
	return *p, true
}

func (e *StaticExtractor) extract(t *Telemetry) StaticSnapshot {
	snap := StaticSnapshot{
		CarOrdinal:          t.CarOrdinal,
		CarPerformanceIndex: t.CarPerformanceIndex,
		Cylinders:           t.NumCylinders,
		TrackOrdinal:        t.TrackOrdinal,
		MaxRPM:              int(math.Round(float64(t.EngineMaxRpm))),
		IdleRPM:             int(math.Round(float64(t.EngineIdleRpm))),
	}

	if car, err := e.info.LookupCar(t.CarOrdinal); err != nil {
		snap.Car = sentinel("car", err)
	} else {
		snap.Car = car.String()
	}

	var err error
	if snap.CarClass, err = e.info.ClassLabel(t.CarClass); err != nil {
		snap.CarClass = sentinel("class", err)
	}
	if snap.Drivetrain, err = e.info.DrivetrainLabel(t.DrivetrainType); err != nil {
		snap.Drivetrain = sentinel("drivetrain", err)
	}
	return snap
}

func sentinel(field string, err error) string {
	log.WithField("err", err).Warnf("unable to resolve %s", field)
	return "Error: " + err.Error()
}
