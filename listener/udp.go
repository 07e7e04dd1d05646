package listener

import (
	"context"
	"fmt"
	"net"
	"sync/atomic"

	"github.com/jd3nn1s/forzadash"
	"github.com/jd3nn1s/forzadash/config"
	"github.com/jd3nn1s/forzadash/netaddr"
	"github.com/jd3nn1s/forzadash/packet"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// large enough to tell over-length datagrams apart from valid packets
const readSize = 2048

// UDPListener receives Data Out packets and keeps the live state and the
// static snapshot up to date.
type UDPListener struct {
	Config *config.ListenerConfig

	conn   *net.UDPConn
	state  *forzadash.LiveState
	static *forzadash.StaticExtractor

	packets  atomic.Uint64
	rejected atomic.Uint64
}

// to allow testing
var firstIPv4 = netaddr.FirstIPv4

// Listen binds the UDP socket. An empty address binds to the first
// non-loopback IPv4 address of the host.
func Listen(cfg *config.ListenerConfig, state *forzadash.LiveState, static *forzadash.StaticExtractor) (*UDPListener, error) {
	udp := &UDPListener{
		Config: cfg,
		state:  state,
		static: static,
	}
	if err := udp.bind(); err != nil {
		return nil, err
	}
	return udp, nil
}

func (udp *UDPListener) bind() error {
	host := udp.Config.Address
	if host == "" {
		ip, err := firstIPv4()
		if err != nil {
			return errors.Wrap(err, "unable to determine listen address")
		}
		host = ip.String()
	}

	addr, err := net.ResolveUDPAddr("udp4", fmt.Sprintf("%s:%d", host, udp.Config.Port))
	if err != nil {
		return errors.Wrapf(err, "unable to resolve %s:%d", host, udp.Config.Port)
	}
	conn, err := net.ListenUDP("udp4", addr)
	if err != nil {
		return errors.Wrapf(err, "unable to listen on %v", addr)
	}
	if udp.Config.ReadBuffer > 0 {
		if err = conn.SetReadBuffer(udp.Config.ReadBuffer); err != nil {
			conn.Close()
			return errors.Wrapf(err, "unable to set OS read buffer to %v", udp.Config.ReadBuffer)
		}
	}
	udp.conn = conn
	log.WithField("addr", conn.LocalAddr()).Info("listening for telemetry")
	return nil
}

func (udp *UDPListener) Name() string {
	return "udp-listener"
}

func (udp *UDPListener) Addr() net.Addr {
	return udp.conn.LocalAddr()
}

// Stats returns the number of accepted and dropped packets.
func (udp *UDPListener) Stats() (packets, rejected uint64) {
	return udp.packets.Load(), udp.rejected.Load()
}

func (udp *UDPListener) Close() error {
	return udp.conn.Close()
}

// Start runs the receive loop until the socket fails or ctx is done.
func (udp *UDPListener) Start(ctx context.Context) error {
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			if err := udp.conn.Close(); err != nil {
				log.WithField("err", err).Warn("unable to close udp listener after context")
			}
		case <-stop:
		}
	}()

	buf := make([]byte, readSize)
	for {
		n, _, err := udp.conn.ReadFromUDP(buf)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return errors.Wrap(err, "unable to read telemetry packet")
		}
		udp.handle(buf[:n])
	}
}

func (udp *UDPListener) handle(buf []byte) {
	telem, err := packet.Decode(buf)
	if err != nil {
		udp.rejected.Add(1)
		log.WithField("err", err).Warn("dropping packet")
		return
	}
	udp.packets.Add(1)
	udp.state.Update(telem)
	udp.static.Observe(telem)
	if telem.HandBrake == 255 {
		log.WithField("lap", telem.LapNumber).
			WithField("position", telem.RacePosition).
			WithField("speed", telem.Speed).
			Debug("hand brake engaged")
	}
}
