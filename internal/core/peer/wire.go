package peer

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/quorumnet/overlay/internal/core/endpoint"
	"github.com/quorumnet/overlay/pkg/types"
)

// HelloMessage is the wire fragment sent by sendHELLO (spec §6): protocol
// and product version, current time, the local identity's public key, the
// destination address as observed, and the current world descriptor.
type HelloMessage struct {
	ProtoVersion    uint8
	VerMajor        uint8
	VerMinor        uint8
	VerRevision     uint16
	Now             uint64
	LocalPublicKey  []byte // raw Ed25519 public key, 32 bytes
	DestAddress     endpoint.Endpoint
	WorldID         uint64
	WorldTimestamp  uint64
}

// Encode serializes a HelloMessage. HELLO is MAC-armored without
// encryption by the caller ("sent in the clear", spec §6); this method
// only produces the plaintext payload.
func (m *HelloMessage) Encode() ([]byte, error) {
	rawIP, err := m.DestAddress.RawIP()
	if err != nil {
		return nil, fmt.Errorf("peer: encode hello: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteByte(m.ProtoVersion)
	buf.WriteByte(m.VerMajor)
	buf.WriteByte(m.VerMinor)
	_ = binary.Write(&buf, binary.BigEndian, m.VerRevision)
	_ = binary.Write(&buf, binary.BigEndian, m.Now)

	buf.WriteByte(uint8(len(m.LocalPublicKey)))
	buf.Write(m.LocalPublicKey)

	buf.WriteByte(uint8(m.DestAddress.Family()))
	buf.WriteByte(uint8(len(rawIP)))
	buf.Write(rawIP)
	_ = binary.Write(&buf, binary.BigEndian, m.DestAddress.Port)

	_ = binary.Write(&buf, binary.BigEndian, m.WorldID)
	_ = binary.Write(&buf, binary.BigEndian, m.WorldTimestamp)
	return buf.Bytes(), nil
}

// DecodeHello parses a HelloMessage payload produced by Encode.
func DecodeHello(b []byte) (*HelloMessage, error) {
	r := bytes.NewReader(b)
	m := &HelloMessage{}

	var err error
	if m.ProtoVersion, err = r.ReadByte(); err != nil {
		return nil, ErrMalformedWireMessage
	}
	if m.VerMajor, err = r.ReadByte(); err != nil {
		return nil, ErrMalformedWireMessage
	}
	if m.VerMinor, err = r.ReadByte(); err != nil {
		return nil, ErrMalformedWireMessage
	}
	if err := binary.Read(r, binary.BigEndian, &m.VerRevision); err != nil {
		return nil, ErrMalformedWireMessage
	}
	if err := binary.Read(r, binary.BigEndian, &m.Now); err != nil {
		return nil, ErrMalformedWireMessage
	}

	pkLen, err := r.ReadByte()
	if err != nil {
		return nil, ErrMalformedWireMessage
	}
	m.LocalPublicKey = make([]byte, pkLen)
	if _, err := readFull(r, m.LocalPublicKey); err != nil {
		return nil, ErrMalformedWireMessage
	}

	addrType, err := r.ReadByte()
	if err != nil {
		return nil, ErrMalformedWireMessage
	}
	ipLen, err := r.ReadByte()
	if err != nil {
		return nil, ErrMalformedWireMessage
	}
	ip := make([]byte, ipLen)
	if _, err := readFull(r, ip); err != nil {
		return nil, ErrMalformedWireMessage
	}
	var port uint16
	if err := binary.Read(r, binary.BigEndian, &port); err != nil {
		return nil, ErrMalformedWireMessage
	}
	_ = addrType
	m.DestAddress = endpoint.New(ip, port)

	if err := binary.Read(r, binary.BigEndian, &m.WorldID); err != nil {
		return nil, ErrMalformedWireMessage
	}
	if err := binary.Read(r, binary.BigEndian, &m.WorldTimestamp); err != nil {
		return nil, ErrMalformedWireMessage
	}
	return m, nil
}

// EncodeEcho returns ECHO's empty payload. The caller MAC-armors and
// encrypts it (spec §6).
func EncodeEcho() []byte {
	return nil
}

// pushDirectPathRecordHeaderSize is the fixed non-address portion of a
// PUSH_DIRECT_PATHS record: flags(1) + extLen(2) + addrType(1) + addrLen(1).
const pushDirectPathRecordHeaderSize = 5

// PushDirectPathRecord is one advertised address in a PUSH_DIRECT_PATHS
// packet (spec §6).
type PushDirectPathRecord struct {
	Flags    uint8
	Endpoint endpoint.Endpoint
}

func (rec *PushDirectPathRecord) encodedSize() (int, error) {
	rawIP, err := rec.Endpoint.RawIP()
	if err != nil {
		return 0, err
	}
	return pushDirectPathRecordHeaderSize + len(rawIP) + 2, nil // +2 for port
}

func (rec *PushDirectPathRecord) encode(buf *bytes.Buffer) error {
	rawIP, err := rec.Endpoint.RawIP()
	if err != nil {
		return err
	}
	addrType := uint8(4)
	addrLen := uint8(6)
	if rec.Endpoint.Family() == endpoint.FamilyV6 {
		addrType = 6
		addrLen = 18
	}

	buf.WriteByte(rec.Flags)
	_ = binary.Write(buf, binary.BigEndian, uint16(0)) // extLen, always 0
	buf.WriteByte(addrType)
	buf.WriteByte(addrLen)
	buf.Write(rawIP)
	_ = binary.Write(buf, binary.BigEndian, rec.Endpoint.Port)
	return nil
}

func decodePushDirectPathRecord(r *bytes.Reader) (*PushDirectPathRecord, error) {
	flags, err := r.ReadByte()
	if err != nil {
		return nil, ErrMalformedWireMessage
	}
	var extLen uint16
	if err := binary.Read(r, binary.BigEndian, &extLen); err != nil {
		return nil, ErrMalformedWireMessage
	}
	if _, err := r.Seek(int64(extLen), 1); err != nil {
		return nil, ErrMalformedWireMessage
	}
	addrType, err := r.ReadByte()
	if err != nil {
		return nil, ErrMalformedWireMessage
	}
	addrLen, err := r.ReadByte()
	if err != nil {
		return nil, ErrMalformedWireMessage
	}

	var ipLen int
	switch addrType {
	case 4:
		ipLen = 4
	case 6:
		ipLen = 16
	default:
		return nil, fmt.Errorf("%w: address type %d", ErrUnknownAddressFamily, addrType)
	}
	if int(addrLen) != ipLen+2 {
		return nil, ErrMalformedWireMessage
	}

	ip := make([]byte, ipLen)
	if _, err := readFull(r, ip); err != nil {
		return nil, ErrMalformedWireMessage
	}
	var port uint16
	if err := binary.Read(r, binary.BigEndian, &port); err != nil {
		return nil, ErrMalformedWireMessage
	}

	return &PushDirectPathRecord{Flags: flags, Endpoint: endpoint.New(ip, port)}, nil
}

// EncodePushDirectPathsPackets splits records across one or more packet
// payloads, each bounded by maxPushDirectPathsPacketBytes and beginning
// with a u16 record count back-patched to the number of records actually
// written to that packet (spec §4.6, §6).
func EncodePushDirectPathsPackets(records []PushDirectPathRecord) ([][]byte, error) {
	var packets [][]byte
	i := 0
	for i < len(records) {
		var buf bytes.Buffer
		_ = binary.Write(&buf, binary.BigEndian, uint16(0)) // placeholder count

		count := uint16(0)
		for i < len(records) {
			size, err := records[i].encodedSize()
			if err != nil {
				// Non-IP families are skipped silently (spec §7).
				i++
				continue
			}
			if buf.Len()+size > maxPushDirectPathsPacketBytes && count > 0 {
				break
			}
			if err := records[i].encode(&buf); err != nil {
				return nil, err
			}
			count++
			i++
		}

		if count == 0 {
			break
		}
		packet := buf.Bytes()
		binary.BigEndian.PutUint16(packet[0:2], count)
		packets = append(packets, packet)
	}
	return packets, nil
}

// DecodePushDirectPaths parses a single PUSH_DIRECT_PATHS packet payload.
func DecodePushDirectPaths(b []byte) ([]PushDirectPathRecord, error) {
	r := bytes.NewReader(b)
	var count uint16
	if err := binary.Read(r, binary.BigEndian, &count); err != nil {
		return nil, ErrMalformedWireMessage
	}
	records := make([]PushDirectPathRecord, 0, count)
	for i := uint16(0); i < count; i++ {
		rec, err := decodePushDirectPathRecord(r)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, nil
}

// RendezvousMessage is the legacy cluster-redirect wire fragment for peers
// reporting protoVersion < 5 (spec §6).
type RendezvousMessage struct {
	Flags               uint8
	LocalIdentityAddress types.PeerID
	RedirectEndpoint    endpoint.Endpoint
}

func (m *RendezvousMessage) Encode() ([]byte, error) {
	rawIP, err := m.RedirectEndpoint.RawIP()
	if err != nil {
		return nil, fmt.Errorf("peer: encode rendezvous: %w", err)
	}
	var buf bytes.Buffer
	buf.WriteByte(m.Flags)
	buf.Write(m.LocalIdentityAddress.Bytes())
	_ = binary.Write(&buf, binary.BigEndian, m.RedirectEndpoint.Port)
	buf.WriteByte(uint8(len(rawIP)))
	buf.Write(rawIP)
	return buf.Bytes(), nil
}

func DecodeRendezvous(b []byte) (*RendezvousMessage, error) {
	r := bytes.NewReader(b)
	m := &RendezvousMessage{}

	flags, err := r.ReadByte()
	if err != nil {
		return nil, ErrMalformedWireMessage
	}
	m.Flags = flags

	idBytes := make([]byte, 32)
	if _, err := readFull(r, idBytes); err != nil {
		return nil, ErrMalformedWireMessage
	}
	id, err := types.PeerIDFromBytes(idBytes)
	if err != nil {
		return nil, ErrMalformedWireMessage
	}
	m.LocalIdentityAddress = id

	var port uint16
	if err := binary.Read(r, binary.BigEndian, &port); err != nil {
		return nil, ErrMalformedWireMessage
	}
	addrLen, err := r.ReadByte()
	if err != nil {
		return nil, ErrMalformedWireMessage
	}
	ip := make([]byte, addrLen)
	if _, err := readFull(r, ip); err != nil {
		return nil, ErrMalformedWireMessage
	}
	m.RedirectEndpoint = endpoint.New(ip, port)
	return m, nil
}

func readFull(r *bytes.Reader, buf []byte) (int, error) {
	n := 0
	for n < len(buf) {
		m, err := r.Read(buf[n:])
		n += m
		if err != nil {
			return n, err
		}
	}
	return n, nil
}
