package actuator

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/go-daq/canbus"
	"github.com/golang/geo/s1"
	"github.com/rs/zerolog"
	"github.com/san-kum/swervesim/internal/kinematics"
)

// Frame layout, little endian, 8 bytes:
//
//	byte 0    drive request (low nibble) | steer request (high nibble)
//	byte 1-2  wheel speed, int16, mm/s
//	byte 3-4  steering angle, int16, hundredths of a degree in (-180, 180]
//	byte 5-7  reserved
const frameLen = 8

var ErrFrameLength = errors.New("actuator: bad frame length")

// Sender is the part of a CAN socket the actuator writes to.
type Sender interface {
	Send(frame canbus.Frame) (int, error)
}

// CAN sends one extended frame per module command. Module i uses
// BaseID + i as its arbitration ID.
type CAN struct {
	sender Sender
	baseID uint32
	logger zerolog.Logger
	closer func() error
}

func NewCAN(sender Sender, baseID uint32, logger zerolog.Logger) *CAN {
	return &CAN{
		sender: sender,
		baseID: baseID,
		logger: logger,
		closer: func() error { return nil },
	}
}

// DialCAN opens a raw CAN socket bound to iface (e.g. "can0").
func DialCAN(iface string, baseID uint32, logger zerolog.Logger) (*CAN, error) {
	sock, err := canbus.New()
	if err != nil {
		return nil, fmt.Errorf("open can socket: %w", err)
	}
	if err := sock.Bind(iface); err != nil {
		sock.Close()
		return nil, fmt.Errorf("bind can socket to %s: %w", iface, err)
	}

	c := NewCAN(sock, baseID, logger)
	c.closer = sock.Close
	return c, nil
}

func (c *CAN) Apply(module int, cmd ModuleCommand) {
	frame := EncodeFrame(c.baseID+uint32(module), cmd)
	if _, err := c.sender.Send(frame); err != nil {
		c.logger.Error().Err(err).
			Str("module", kinematics.ModuleNames[module]).
			Uint32("id", frame.ID).
			Msg("Module command send error")
		return
	}
	c.logger.Trace().Uint32("id", frame.ID).Hex("data", frame.Data).Msg("frame")
}

func (c *CAN) Close() error {
	return c.closer()
}

// EncodeFrame packs cmd into a CAN frame. Values outside the int16 range
// saturate.
func EncodeFrame(id uint32, cmd ModuleCommand) canbus.Frame {
	data := make([]byte, frameLen)
	data[0] = byte(cmd.Drive&0x0f) | byte(cmd.Steer&0x0f)<<4

	speed := saturateInt16(cmd.State.Speed * 1000)
	binary.LittleEndian.PutUint16(data[1:3], uint16(speed))

	angle := saturateInt16(cmd.State.Angle.Normalized().Degrees() * 100)
	binary.LittleEndian.PutUint16(data[3:5], uint16(angle))

	return canbus.Frame{
		ID:   id,
		Data: data,
		Kind: canbus.EFF,
	}
}

// DecodeFrame is the inverse of EncodeFrame, up to the frame's resolution.
func DecodeFrame(frame canbus.Frame) (ModuleCommand, error) {
	if len(frame.Data) != frameLen {
		return ModuleCommand{}, fmt.Errorf("%w: %d", ErrFrameLength, len(frame.Data))
	}

	speed := int16(binary.LittleEndian.Uint16(frame.Data[1:3]))
	angle := int16(binary.LittleEndian.Uint16(frame.Data[3:5]))

	return ModuleCommand{
		State: kinematics.ModuleState{
			Speed: float64(speed) / 1000,
			Angle: s1.Angle(float64(angle)/100) * s1.Degree,
		},
		Drive: DriveRequest(frame.Data[0] & 0x0f),
		Steer: SteerRequest(frame.Data[0] >> 4),
	}, nil
}

func saturateInt16(v float64) int16 {
	v = math.Round(v)
	switch {
	case v > math.MaxInt16:
		return math.MaxInt16
	case v < math.MinInt16:
		return math.MinInt16
	}
	return int16(v)
}
