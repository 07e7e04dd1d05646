package main

import (
	"context"
	"net"
	"time"

	"github.com/jd3nn1s/forzadash"
	"github.com/jd3nn1s/forzadash/packet"
	log "github.com/sirupsen/logrus"
)

const (
	packetRate = 60

	// a race lasts raceTicks packets followed by pauseTicks packets in the menus
	raceTicks  = 30 * packetRate
	pauseTicks = 3 * packetRate
)

type generator struct {
	telem forzadash.Telemetry
	down  bool
	tick  int
}

func newGenerator() *generator {
	return &generator{
		telem: forzadash.Telemetry{
			EngineMaxRpm:        7200,
			EngineIdleRpm:       900,
			CurrentEngineRpm:    900,
			CarOrdinal:          2352,
			CarClass:            6,
			CarPerformanceIndex: 871,
			DrivetrainType:      1,
			NumCylinders:        6,
			TrackOrdinal:        860,
			Gear:                1,
			Fuel:                1,
		},
	}
}

func (g *generator) next() *forzadash.Telemetry {
	t := &g.telem
	cycle := g.tick % (raceTicks + pauseTicks)
	g.tick++

	if cycle >= raceTicks {
		t.IsRaceOn = 0
		return t
	}
	if cycle == 0 {
		t.LapNumber = 0
		t.CurrentRaceTime = 0
		t.Fuel = 1
	}
	t.IsRaceOn = 1
	t.TimestampMS += 1000 / packetRate
	t.CurrentRaceTime += 1.0 / packetRate
	t.CurrentLap += 1.0 / packetRate
	t.Fuel -= 0.00005

	if g.down {
		t.CurrentEngineRpm -= 50
		t.Speed -= 0.5
		t.Accel = 0
		t.Brake = 200
	} else {
		t.CurrentEngineRpm += 50
		t.Speed += 0.5
		t.Accel = 255
		t.Brake = 0
	}

	if t.CurrentEngineRpm >= t.EngineMaxRpm {
		if t.Gear < 6 {
			t.Gear++
			t.CurrentEngineRpm = 4500
		} else {
			g.down = true
		}
	} else if t.CurrentEngineRpm <= t.EngineIdleRpm {
		t.Gear = 1
		t.Speed = 0
		t.LapNumber++
		t.LastLap = t.CurrentLap
		if t.BestLap == 0 || t.LastLap < t.BestLap {
			t.BestLap = t.LastLap
		}
		t.CurrentLap = 0
		g.down = false
	}
	return t
}

// runTestMode feeds synthetic packets to the listener at the game's rate.
func runTestMode(ctx context.Context, addr string) {
	conn, err := net.Dial("udp", addr)
	if err != nil {
		log.WithField("err", err).Error("test mode: unable to connect to listener")
		return
	}
	defer conn.Close()
	log.WithField("addr", addr).Info("test mode: sending synthetic telemetry")

	gen := newGenerator()
	ticker := time.NewTicker(time.Second / packetRate)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return
		}
		buf, err := packet.Encode(gen.next())
		if err != nil {
			log.WithField("err", err).Error("test mode: unable to encode packet")
			return
		}
		if _, err = conn.Write(buf); err != nil {
			log.WithField("err", err).Warn("test mode: unable to send packet")
		}
	}
}
