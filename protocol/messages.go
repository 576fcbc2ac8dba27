package protocol

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
)

var (
	errStringTooLong = errors.New("protocol: string exceeds 64KB limit")
	errPayloadShort  = errors.New("protocol: payload too short")
)

// Toggle enables or disables the focus ruler, optionally carrying settings
// for the enable path.
type Toggle struct {
	Enabled     bool
	HasSettings bool
	Thickness   float64
	Intensity   float64
}

// UpdateSettings is a sparse live update; the Has flags mark which fields
// are present.
type UpdateSettings struct {
	HasThickness bool
	Thickness    float64
	HasIntensity bool
	Intensity    float64
}

// StateReply answers a MsgGetState query.
type StateReply struct {
	Enabled bool
	CursorY int32
}

// ReapplyState carries the complete persisted snapshot, issued after the
// hosted session restarts.
type ReapplyState struct {
	RulerEnabled   bool
	RulerThickness float64
	RulerIntensity float64
	TintEnabled    bool
	TintColor      string
	TintIntensity  float64
	DarkMode       bool
	Vision         string
}

// SetTint configures the tint overlay.
type SetTint struct {
	Enabled   bool
	Color     string
	Intensity float64
}

// SetDarkMode toggles luminance inversion.
type SetDarkMode struct {
	Enabled bool
}

// SetVision selects the color-vision simulation mode by name.
type SetVision struct {
	Mode string
}

// ProfileRef names a stored profile for save/load.
type ProfileRef struct {
	Name string
}

// ProfileListReply returns the stored profile names.
type ProfileListReply struct {
	Names []string
}

// ErrorFrame communicates command failures back to the caller.
type ErrorFrame struct {
	Code    uint16
	Message string
}

func encodeBool(buf *bytes.Buffer, v bool) {
	if v {
		buf.WriteByte(1)
	} else {
		buf.WriteByte(0)
	}
}

func decodeBool(b []byte) (bool, []byte, error) {
	if len(b) < 1 {
		return false, nil, errPayloadShort
	}
	return b[0] != 0, b[1:], nil
}

func encodeFloat(buf *bytes.Buffer, v float64) {
	var scratch [8]byte
	binary.LittleEndian.PutUint64(scratch[:], math.Float64bits(v))
	buf.Write(scratch[:])
}

func decodeFloat(b []byte) (float64, []byte, error) {
	if len(b) < 8 {
		return 0, nil, errPayloadShort
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(b[:8])), b[8:], nil
}

func encodeString(buf *bytes.Buffer, value string) error {
	if len(value) > 0xFFFF {
		return errStringTooLong
	}
	var scratch [2]byte
	binary.LittleEndian.PutUint16(scratch[:], uint16(len(value)))
	buf.Write(scratch[:])
	if len(value) > 0 {
		buf.WriteString(value)
	}
	return nil
}

func decodeString(b []byte) (string, []byte, error) {
	if len(b) < 2 {
		return "", nil, errPayloadShort
	}
	length := int(binary.LittleEndian.Uint16(b[:2]))
	b = b[2:]
	if len(b) < length {
		return "", nil, errPayloadShort
	}
	return string(b[:length]), b[length:], nil
}

func EncodeToggle(t Toggle) []byte {
	buf := bytes.NewBuffer(make([]byte, 0, 18))
	encodeBool(buf, t.Enabled)
	encodeBool(buf, t.HasSettings)
	encodeFloat(buf, t.Thickness)
	encodeFloat(buf, t.Intensity)
	return buf.Bytes()
}

func DecodeToggle(b []byte) (Toggle, error) {
	var t Toggle
	var err error
	if t.Enabled, b, err = decodeBool(b); err != nil {
		return t, err
	}
	if t.HasSettings, b, err = decodeBool(b); err != nil {
		return t, err
	}
	if t.Thickness, b, err = decodeFloat(b); err != nil {
		return t, err
	}
	if t.Intensity, _, err = decodeFloat(b); err != nil {
		return t, err
	}
	return t, nil
}

func EncodeUpdateSettings(u UpdateSettings) []byte {
	buf := bytes.NewBuffer(make([]byte, 0, 18))
	encodeBool(buf, u.HasThickness)
	encodeFloat(buf, u.Thickness)
	encodeBool(buf, u.HasIntensity)
	encodeFloat(buf, u.Intensity)
	return buf.Bytes()
}

func DecodeUpdateSettings(b []byte) (UpdateSettings, error) {
	var u UpdateSettings
	var err error
	if u.HasThickness, b, err = decodeBool(b); err != nil {
		return u, err
	}
	if u.Thickness, b, err = decodeFloat(b); err != nil {
		return u, err
	}
	if u.HasIntensity, b, err = decodeBool(b); err != nil {
		return u, err
	}
	if u.Intensity, _, err = decodeFloat(b); err != nil {
		return u, err
	}
	return u, nil
}

func EncodeStateReply(s StateReply) []byte {
	buf := bytes.NewBuffer(make([]byte, 0, 5))
	encodeBool(buf, s.Enabled)
	var scratch [4]byte
	binary.LittleEndian.PutUint32(scratch[:], uint32(s.CursorY))
	buf.Write(scratch[:])
	return buf.Bytes()
}

func DecodeStateReply(b []byte) (StateReply, error) {
	var s StateReply
	var err error
	if s.Enabled, b, err = decodeBool(b); err != nil {
		return s, err
	}
	if len(b) < 4 {
		return s, errPayloadShort
	}
	s.CursorY = int32(binary.LittleEndian.Uint32(b[:4]))
	return s, nil
}

func EncodeReapplyState(r ReapplyState) ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, 64))
	encodeBool(buf, r.RulerEnabled)
	encodeFloat(buf, r.RulerThickness)
	encodeFloat(buf, r.RulerIntensity)
	encodeBool(buf, r.TintEnabled)
	if err := encodeString(buf, r.TintColor); err != nil {
		return nil, err
	}
	encodeFloat(buf, r.TintIntensity)
	encodeBool(buf, r.DarkMode)
	if err := encodeString(buf, r.Vision); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func DecodeReapplyState(b []byte) (ReapplyState, error) {
	var r ReapplyState
	var err error
	if r.RulerEnabled, b, err = decodeBool(b); err != nil {
		return r, err
	}
	if r.RulerThickness, b, err = decodeFloat(b); err != nil {
		return r, err
	}
	if r.RulerIntensity, b, err = decodeFloat(b); err != nil {
		return r, err
	}
	if r.TintEnabled, b, err = decodeBool(b); err != nil {
		return r, err
	}
	if r.TintColor, b, err = decodeString(b); err != nil {
		return r, err
	}
	if r.TintIntensity, b, err = decodeFloat(b); err != nil {
		return r, err
	}
	if r.DarkMode, b, err = decodeBool(b); err != nil {
		return r, err
	}
	if r.Vision, _, err = decodeString(b); err != nil {
		return r, err
	}
	return r, nil
}

func EncodeSetTint(s SetTint) ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, 24))
	encodeBool(buf, s.Enabled)
	if err := encodeString(buf, s.Color); err != nil {
		return nil, err
	}
	encodeFloat(buf, s.Intensity)
	return buf.Bytes(), nil
}

func DecodeSetTint(b []byte) (SetTint, error) {
	var s SetTint
	var err error
	if s.Enabled, b, err = decodeBool(b); err != nil {
		return s, err
	}
	if s.Color, b, err = decodeString(b); err != nil {
		return s, err
	}
	if s.Intensity, _, err = decodeFloat(b); err != nil {
		return s, err
	}
	return s, nil
}

func EncodeSetDarkMode(s SetDarkMode) []byte {
	buf := bytes.NewBuffer(make([]byte, 0, 1))
	encodeBool(buf, s.Enabled)
	return buf.Bytes()
}

func DecodeSetDarkMode(b []byte) (SetDarkMode, error) {
	var s SetDarkMode
	var err error
	if s.Enabled, _, err = decodeBool(b); err != nil {
		return s, err
	}
	return s, nil
}

func EncodeSetVision(s SetVision) ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, 16))
	if err := encodeString(buf, s.Mode); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func DecodeSetVision(b []byte) (SetVision, error) {
	var s SetVision
	var err error
	if s.Mode, _, err = decodeString(b); err != nil {
		return s, err
	}
	return s, nil
}

func EncodeProfileRef(p ProfileRef) ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, 2+len(p.Name)))
	if err := encodeString(buf, p.Name); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func DecodeProfileRef(b []byte) (ProfileRef, error) {
	var p ProfileRef
	var err error
	if p.Name, _, err = decodeString(b); err != nil {
		return p, err
	}
	return p, nil
}

func EncodeProfileListReply(p ProfileListReply) ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, 32))
	var scratch [2]byte
	binary.LittleEndian.PutUint16(scratch[:], uint16(len(p.Names)))
	buf.Write(scratch[:])
	for _, name := range p.Names {
		if err := encodeString(buf, name); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

func DecodeProfileListReply(b []byte) (ProfileListReply, error) {
	var p ProfileListReply
	if len(b) < 2 {
		return p, errPayloadShort
	}
	count := int(binary.LittleEndian.Uint16(b[:2]))
	b = b[2:]
	var err error
	for i := 0; i < count; i++ {
		var name string
		if name, b, err = decodeString(b); err != nil {
			return p, err
		}
		p.Names = append(p.Names, name)
	}
	return p, nil
}

func EncodeErrorFrame(e ErrorFrame) ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, 4+len(e.Message)))
	var scratch [2]byte
	binary.LittleEndian.PutUint16(scratch[:], e.Code)
	buf.Write(scratch[:])
	if err := encodeString(buf, e.Message); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func DecodeErrorFrame(b []byte) (ErrorFrame, error) {
	var e ErrorFrame
	if len(b) < 2 {
		return e, errPayloadShort
	}
	e.Code = binary.LittleEndian.Uint16(b[:2])
	var err error
	if e.Message, _, err = decodeString(b[2:]); err != nil {
		return e, err
	}
	return e, nil
}
