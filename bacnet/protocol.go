// Copyright 2025 Edgeo SCADA
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package bacnet

import (
	"encoding/binary"
	"fmt"
	"math"
)

// BVLC Header (BACnet Virtual Link Control)
type BVLCHeader struct {
	Type     BVLCType
	Function BVLCFunction
	Length   uint16
}

// EncodeBVLC encodes a BVLC header
func EncodeBVLC(function BVLCFunction, npduLength int) []byte {
	totalLength := 4 + npduLength // BVLC header is 4 bytes
	buf := make([]byte, 4)
	buf[0] = byte(BVLCTypeBACnetIP)
	buf[1] = byte(function)
	binary.BigEndian.PutUint16(buf[2:], uint16(totalLength))
	return buf
}

// DecodeBVLC decodes a BVLC header
func DecodeBVLC(data []byte) (*BVLCHeader, error) {
	if len(data) < 4 {
		return nil, ErrInvalidBVLC
	}
	h := &BVLCHeader{
		Type:     BVLCType(data[0]),
		Function: BVLCFunction(data[1]),
		Length:   binary.BigEndian.Uint16(data[2:4]),
	}
	if h.Type != BVLCTypeBACnetIP {
		return nil, fmt.Errorf("%w: type %#02x", ErrInvalidBVLC, uint8(h.Type))
	}
	return h, nil
}

// EncodeFrame wraps an APDU into a unicast BVLC/NPDU frame
func EncodeFrame(apdu []byte, expectingReply bool) []byte {
	npdu := EncodeNPDU(expectingReply, NPDUControlPriorityNormal)
	bvlc := EncodeBVLC(BVLCOriginalUnicastNPDU, len(npdu)+len(apdu))

	packet := make([]byte, 0, len(bvlc)+len(npdu)+len(apdu))
	packet = append(packet, bvlc...)
	packet = append(packet, npdu...)
	packet = append(packet, apdu...)
	return packet
}

// DecodeFrame strips the BVLC and NPDU layers and returns the APDU bytes.
// Network layer messages carry no APDU and are reported with a nil slice
func DecodeFrame(data []byte) (*NPDU, []byte, error) {
	bvlc, err := DecodeBVLC(data)
	if err != nil {
		return nil, nil, err
	}
	if int(bvlc.Length) != len(data) {
		return nil, nil, fmt.Errorf("%w: length %d, got %d bytes", ErrInvalidBVLC, bvlc.Length, len(data))
	}

	npduData := data[4:]
	switch bvlc.Function {
	case BVLCOriginalUnicastNPDU, BVLCOriginalBroadcastNPDU:
	case BVLCForwardedNPDU:
		// Skip the originating B/IP address (6 bytes)
		if len(npduData) < 6 {
			return nil, nil, ErrInvalidBVLC
		}
		npduData = npduData[6:]
	default:
		return nil, nil, fmt.Errorf("%w: function %#02x carries no NPDU", ErrInvalidBVLC, uint8(bvlc.Function))
	}

	npdu, offset, err := DecodeNPDU(npduData)
	if err != nil {
		return nil, nil, err
	}
	if npdu.Control&NPDUControlNetworkLayerMessage != 0 {
		return npdu, nil, nil
	}
	return npdu, npduData[offset:], nil
}

// NPDU (Network Protocol Data Unit)
type NPDU struct {
	Version      uint8
	Control      NPDUControl
	DestNet      uint16
	DestAddr     []byte
	DestHopCount uint8
	SrcNet       uint16
	SrcAddr      []byte
	MessageType  uint8
	VendorID     uint16
	Data         []byte
}

// EncodeNPDU encodes an NPDU for unicast without routing
func EncodeNPDU(expectingReply bool, priority NPDUControl) []byte {
	control := priority
	if expectingReply {
		control |= NPDUControlExpectingReply
	}
	return []byte{
		0x01, // Version
		byte(control),
	}
}

// DecodeNPDU decodes an NPDU
func DecodeNPDU(data []byte) (*NPDU, int, error) {
	if len(data) < 2 {
		return nil, 0, ErrInvalidNPDU
	}

	npdu := &NPDU{
		Version: data[0],
		Control: NPDUControl(data[1]),
	}

	if npdu.Version != 0x01 {
		return nil, 0, fmt.Errorf("%w: unsupported version %d", ErrInvalidNPDU, npdu.Version)
	}

	offset := 2

	if npdu.Control&NPDUControlDestSpecifier != 0 {
		if len(data) < offset+3 {
			return nil, 0, ErrInvalidNPDU
		}
		npdu.DestNet = binary.BigEndian.Uint16(data[offset:])
		offset += 2

		addrLen := int(data[offset])
		offset++

		if len(data) < offset+addrLen {
			return nil, 0, ErrInvalidNPDU
		}
		npdu.DestAddr = append([]byte(nil), data[offset:offset+addrLen]...)
		offset += addrLen
	}

	if npdu.Control&NPDUControlSourceSpecifier != 0 {
		if len(data) < offset+3 {
			return nil, 0, ErrInvalidNPDU
		}
		npdu.SrcNet = binary.BigEndian.Uint16(data[offset:])
		offset += 2

		addrLen := int(data[offset])
		offset++

		if len(data) < offset+addrLen {
			return nil, 0, ErrInvalidNPDU
		}
		npdu.SrcAddr = append([]byte(nil), data[offset:offset+addrLen]...)
		offset += addrLen
	}

	// The hop count follows the source specifier when both are present
	if npdu.Control&NPDUControlDestSpecifier != 0 {
		if len(data) < offset+1 {
			return nil, 0, ErrInvalidNPDU
		}
		npdu.DestHopCount = data[offset]
		offset++
	}

	if npdu.Control&NPDUControlNetworkLayerMessage != 0 {
		if len(data) < offset+1 {
			return nil, 0, ErrInvalidNPDU
		}
		npdu.MessageType = data[offset]
		offset++

		// Vendor-specific message types have vendor ID
		if npdu.MessageType >= 0x80 {
			if len(data) < offset+2 {
				return nil, 0, ErrInvalidNPDU
			}
			npdu.VendorID = binary.BigEndian.Uint16(data[offset:])
			offset += 2
		}
	}

	npdu.Data = data[offset:]
	return npdu, offset, nil
}

// APDU (Application Protocol Data Unit). For Reject and Abort PDUs the
// reason is carried in Service
type APDU struct {
	Type        PDUType
	Segmented   bool
	MoreFollows bool
	Server      bool
	MaxSegments uint8
	MaxAPDU     uint8
	InvokeID    uint8
	SequenceNum uint8
	WindowSize  uint8
	Service     uint8
	Data        []byte
}

// EncodeConfirmedRequest encodes a confirmed service request APDU
func EncodeConfirmedRequest(invokeID uint8, service ConfirmedServiceChoice, data []byte, maxSegments, maxAPDU uint8) []byte {
	buf := make([]byte, 0, 4+len(data))
	buf = append(buf, byte(PDUTypeConfirmedRequest))
	buf = append(buf, (maxSegments<<4)|maxAPDU)
	buf = append(buf, invokeID)
	buf = append(buf, byte(service))
	buf = append(buf, data...)
	return buf
}

// EncodeComplexAck encodes an unsegmented complex acknowledgement
func EncodeComplexAck(invokeID uint8, service ConfirmedServiceChoice, data []byte) []byte {
	buf := make([]byte, 0, 3+len(data))
	buf = append(buf, byte(PDUTypeComplexAck), invokeID, byte(service))
	return append(buf, data...)
}

// EncodeErrorPDU encodes an Error PDU with its class and code
func EncodeErrorPDU(invokeID uint8, service ConfirmedServiceChoice, class ErrorClass, code ErrorCode) []byte {
	buf := []byte{byte(PDUTypeError), invokeID, byte(service)}
	buf = append(buf, EncodeEnumeratedTag(uint32(class))...)
	return append(buf, EncodeEnumeratedTag(uint32(code))...)
}

// EncodeRejectPDU encodes a Reject PDU
func EncodeRejectPDU(invokeID uint8, reason RejectReason) []byte {
	return []byte{byte(PDUTypeReject), invokeID, byte(reason)}
}

// EncodeAbortPDU encodes an Abort PDU sent by the server
func EncodeAbortPDU(invokeID uint8, reason AbortReason) []byte {
	return []byte{byte(PDUTypeAbort) | 0x01, invokeID, byte(reason)}
}

// DecodeAPDU decodes an APDU
func DecodeAPDU(data []byte) (*APDU, error) {
	if len(data) < 1 {
		return nil, ErrInvalidAPDU
	}

	switch t := PDUType(data[0] & 0xF0); t {
	case PDUTypeConfirmedRequest:
		return decodeConfirmedRequest(data)
	case PDUTypeUnconfirmedRequest:
		return decodeUnconfirmedRequest(data)
	case PDUTypeSimpleAck:
		return decodeSimpleAck(data)
	case PDUTypeComplexAck:
		return decodeComplexAck(data)
	case PDUTypeError:
		return decodeErrorAPDU(data)
	case PDUTypeReject, PDUTypeAbort:
		return decodeRejectOrAbort(t, data)
	default:
		return nil, fmt.Errorf("%w: unknown PDU type %02x", ErrInvalidAPDU, uint8(t))
	}
}

func decodeConfirmedRequest(data []byte) (*APDU, error) {
	if len(data) < 4 {
		return nil, ErrInvalidAPDU
	}

	apdu := &APDU{
		Type:        PDUTypeConfirmedRequest,
		Segmented:   data[0]&0x08 != 0,
		MoreFollows: data[0]&0x04 != 0,
		MaxSegments: (data[1] >> 4) & 0x07,
		MaxAPDU:     data[1] & 0x0F,
		InvokeID:    data[2],
		Service:     data[3],
		Data:        data[4:],
	}

	if apdu.Segmented {
		if len(data) < 6 {
			return nil, ErrInvalidAPDU
		}
		apdu.SequenceNum = data[3]
		apdu.WindowSize = data[4]
		apdu.Service = data[5]
		apdu.Data = data[6:]
	}

	return apdu, nil
}

func decodeUnconfirmedRequest(data []byte) (*APDU, error) {
	if len(data) < 2 {
		return nil, ErrInvalidAPDU
	}

	return &APDU{
		Type:    PDUTypeUnconfirmedRequest,
		Service: data[1],
		Data:    data[2:],
	}, nil
}

func decodeSimpleAck(data []byte) (*APDU, error) {
	if len(data) < 3 {
		return nil, ErrInvalidAPDU
	}

	return &APDU{
		Type:     PDUTypeSimpleAck,
		InvokeID: data[1],
		Service:  data[2],
	}, nil
}

func decodeComplexAck(data []byte) (*APDU, error) {
	if len(data) < 3 {
		return nil, ErrInvalidAPDU
	}

	apdu := &APDU{
		Type:        PDUTypeComplexAck,
		Segmented:   data[0]&0x08 != 0,
		MoreFollows: data[0]&0x04 != 0,
		InvokeID:    data[1],
		Service:     data[2],
		Data:        data[3:],
	}

	if apdu.Segmented {
		if len(data) < 5 {
			return nil, ErrInvalidAPDU
		}
		apdu.SequenceNum = data[2]
		apdu.WindowSize = data[3]
		apdu.Service = data[4]
		apdu.Data = data[5:]
	}

	return apdu, nil
}

func decodeErrorAPDU(data []byte) (*APDU, error) {
	if len(data) < 3 {
		return nil, ErrInvalidAPDU
	}

	return &APDU{
		Type:     PDUTypeError,
		InvokeID: data[1],
		Service:  data[2],
		Data:     data[3:],
	}, nil
}

func decodeRejectOrAbort(t PDUType, data []byte) (*APDU, error) {
	if len(data) < 3 {
		return nil, ErrInvalidAPDU
	}

	return &APDU{
		Type:     t,
		Server:   data[0]&0x01 != 0,
		InvokeID: data[1],
		Service:  data[2],
	}, nil
}

// DecodeErrorPayload decodes the error-class and error-code pair of an Error
// PDU or of a property access error. It returns the number of bytes consumed
func DecodeErrorPayload(data []byte) (*BACnetError, int, error) {
	r := NewTagReader(data)

	class, err := r.ReadEnumerated()
	if err != nil {
		return nil, 0, fmt.Errorf("%w: error class: %v", ErrInvalidResponse, err)
	}
	code, err := r.ReadEnumerated()
	if err != nil {
		return nil, 0, fmt.Errorf("%w: error code: %v", ErrInvalidResponse, err)
	}
	return NewBACnetError(ErrorClass(class), ErrorCode(code)), r.Offset(), nil
}

// Tag encoding helpers

// EncodeTag encodes a BACnet tag header
func EncodeTag(tagNum uint8, class TagClass, length int) []byte {
	lenField := uint8(length)
	if length >= 5 {
		lenField = 5
	}

	buf := make([]byte, 0, 7)
	if tagNum >= 15 {
		buf = append(buf, 0xF0|(uint8(class)<<3)|lenField, tagNum)
	} else {
		buf = append(buf, (tagNum<<4)|(uint8(class)<<3)|lenField)
	}

	if length >= 5 {
		switch {
		case length < 254:
			buf = append(buf, byte(length))
		case length < 65536:
			buf = append(buf, 254, byte(length>>8), byte(length))
		default:
			buf = append(buf, 255, byte(length>>24), byte(length>>16), byte(length>>8), byte(length))
		}
	}

	return buf
}

// EncodeContextTag encodes a context-specific tag
func EncodeContextTag(tagNum uint8, data []byte) []byte {
	tag := EncodeTag(tagNum, TagClassContext, len(data))
	return append(tag, data...)
}

// EncodeApplicationTag encodes an application tag with its content
func EncodeApplicationTag(tag ApplicationTag, data []byte) []byte {
	header := EncodeTag(uint8(tag), TagClassApplication, len(data))
	return append(header, data...)
}

// EncodeOpeningTag encodes an opening tag for constructed data
func EncodeOpeningTag(tagNum uint8) []byte {
	if tagNum < 15 {
		return []byte{(tagNum << 4) | 0x0E}
	}
	return []byte{0xFE, tagNum}
}

// EncodeClosingTag encodes a closing tag for constructed data
func EncodeClosingTag(tagNum uint8) []byte {
	if tagNum < 15 {
		return []byte{(tagNum << 4) | 0x0F}
	}
	return []byte{0xFF, tagNum}
}

// EncodeUnsigned encodes an unsigned integer
func EncodeUnsigned(value uint32) []byte {
	switch {
	case value < 0x100:
		return []byte{byte(value)}
	case value < 0x10000:
		return []byte{byte(value >> 8), byte(value)}
	case value < 0x1000000:
		return []byte{byte(value >> 16), byte(value >> 8), byte(value)}
	}
	return []byte{byte(value >> 24), byte(value >> 16), byte(value >> 8), byte(value)}
}

// EncodeUnsignedTag encodes an unsigned integer with application tag
func EncodeUnsignedTag(value uint32) []byte {
	return EncodeApplicationTag(TagUnsignedInt, EncodeUnsigned(value))
}

// EncodeContextUnsigned encodes an unsigned integer with context tag
func EncodeContextUnsigned(tagNum uint8, value uint32) []byte {
	return EncodeContextTag(tagNum, EncodeUnsigned(value))
}

// EncodeSigned encodes a signed integer
func EncodeSigned(value int32) []byte {
	switch {
	case value >= -128 && value < 128:
		return []byte{byte(value)}
	case value >= -32768 && value < 32768:
		return []byte{byte(value >> 8), byte(value)}
	case value >= -8388608 && value < 8388608:
		return []byte{byte(value >> 16), byte(value >> 8), byte(value)}
	}
	return []byte{byte(value >> 24), byte(value >> 16), byte(value >> 8), byte(value)}
}

// EncodeSignedTag encodes a signed integer with application tag
func EncodeSignedTag(value int32) []byte {
	return EncodeApplicationTag(TagSignedInt, EncodeSigned(value))
}

// EncodeReal encodes a float32
func EncodeReal(value float32) []byte {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, math.Float32bits(value))
	return buf
}

// EncodeRealTag encodes a float32 with application tag
func EncodeRealTag(value float32) []byte {
	return EncodeApplicationTag(TagReal, EncodeReal(value))
}

// EncodeDouble encodes a float64
func EncodeDouble(value float64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, math.Float64bits(value))
	return buf
}

// EncodeDoubleTag encodes a float64 with application tag
func EncodeDoubleTag(value float64) []byte {
	return EncodeApplicationTag(TagDouble, EncodeDouble(value))
}

// EncodeBooleanTag encodes a boolean with application tag. The value lives in
// the length field and the tag has no content
func EncodeBooleanTag(value bool) []byte {
	if value {
		return []byte{0x11}
	}
	return []byte{0x10}
}

// EncodeNullTag encodes an application null
func EncodeNullTag() []byte {
	return []byte{0x00}
}

// EncodeEnumerated encodes an enumerated value
func EncodeEnumerated(value uint32) []byte {
	return EncodeUnsigned(value)
}

// EncodeEnumeratedTag encodes an enumerated value with application tag
func EncodeEnumeratedTag(value uint32) []byte {
	return EncodeApplicationTag(TagEnumerated, EncodeEnumerated(value))
}

// EncodeContextEnumerated encodes an enumerated value with context tag
func EncodeContextEnumerated(tagNum uint8, value uint32) []byte {
	return EncodeContextTag(tagNum, EncodeEnumerated(value))
}

// EncodeObjectIdentifier encodes an object identifier
func EncodeObjectIdentifier(oid ObjectIdentifier) []byte {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, oid.Encode())
	return buf
}

// EncodeObjectIdentifierTag encodes an object identifier with application tag
func EncodeObjectIdentifierTag(oid ObjectIdentifier) []byte {
	return EncodeApplicationTag(TagObjectID, EncodeObjectIdentifier(oid))
}

// EncodeContextObjectIdentifier encodes an object identifier with context tag
func EncodeContextObjectIdentifier(tagNum uint8, oid ObjectIdentifier) []byte {
	return EncodeContextTag(tagNum, EncodeObjectIdentifier(oid))
}

// EncodeCharacterString encodes a character string (UTF-8)
func EncodeCharacterString(s string) []byte {
	data := make([]byte, 1+len(s))
	data[0] = CharsetUTF8
	copy(data[1:], s)
	return data
}

// EncodeCharacterStringTag encodes a character string with application tag
func EncodeCharacterStringTag(s string) []byte {
	return EncodeApplicationTag(TagCharacterString, EncodeCharacterString(s))
}

// EncodeOctetStringTag encodes an octet string with application tag
func EncodeOctetStringTag(b []byte) []byte {
	return EncodeApplicationTag(TagOctetString, b)
}

// EncodeBitStringTag encodes a bit string with application tag. Bit 0 is the
// most significant bit of the first octet
func EncodeBitStringTag(bits []bool) []byte {
	n := (len(bits) + 7) / 8
	data := make([]byte, 1+n)
	data[0] = byte(n*8 - len(bits))
	for i, set := range bits {
		if set {
			data[1+i/8] |= 0x80 >> (i % 8)
		}
	}
	return EncodeApplicationTag(TagBitString, data)
}

// EncodeDateTag encodes a date (year-1900, month, day, weekday) with
// application tag. 0xFF marks an unspecified field
func EncodeDateTag(yearOffset, month, day, weekday uint8) []byte {
	return EncodeApplicationTag(TagDate, []byte{yearOffset, month, day, weekday})
}

// EncodeTimeTag encodes a time (hour, minute, second, hundredths) with
// application tag
func EncodeTimeTag(hour, minute, second, hundredths uint8) []byte {
	return EncodeApplicationTag(TagTime, []byte{hour, minute, second, hundredths})
}

// Character sets of a CharacterString
const (
	CharsetUTF8     = 0
	CharsetUCS4     = 3
	CharsetUCS2     = 4
	CharsetISO88591 = 5
)

// DecodeUnsigned decodes an unsigned integer from data
func DecodeUnsigned(data []byte) uint32 {
	switch len(data) {
	case 1:
		return uint32(data[0])
	case 2:
		return uint32(binary.BigEndian.Uint16(data))
	case 3:
		return uint32(data[0])<<16 | uint32(data[1])<<8 | uint32(data[2])
	case 4:
		return binary.BigEndian.Uint32(data)
	default:
		return 0
	}
}

// DecodeSigned decodes a signed integer from data
func DecodeSigned(data []byte) int32 {
	switch len(data) {
	case 1:
		return int32(int8(data[0]))
	case 2:
		return int32(int16(binary.BigEndian.Uint16(data)))
	case 3:
		v := uint32(data[0])<<16 | uint32(data[1])<<8 | uint32(data[2])
		if data[0]&0x80 != 0 {
			v |= 0xFF000000
		}
		return int32(v)
	case 4:
		return int32(binary.BigEndian.Uint32(data))
	default:
		return 0
	}
}

// DecodeReal decodes a float32 from data
func DecodeReal(data []byte) float32 {
	if len(data) != 4 {
		return 0
	}
	return math.Float32frombits(binary.BigEndian.Uint32(data))
}

// DecodeDouble decodes a float64 from data
func DecodeDouble(data []byte) float64 {
	if len(data) != 8 {
		return 0
	}
	return math.Float64frombits(binary.BigEndian.Uint64(data))
}

// DecodeCharacterString decodes a character string. UTF-8, UCS-2 and
// ISO 8859-1 are supported
func DecodeCharacterString(data []byte) (string, error) {
	if len(data) < 1 {
		return "", fmt.Errorf("%w: empty character string", ErrInvalidTag)
	}
	body := data[1:]
	switch data[0] {
	case CharsetUTF8:
		return string(body), nil
	case CharsetUCS2:
		if len(body)%2 != 0 {
			return "", fmt.Errorf("%w: odd UCS-2 length %d", ErrInvalidTag, len(body))
		}
		runes := make([]rune, 0, len(body)/2)
		for i := 0; i < len(body); i += 2 {
			runes = append(runes, rune(binary.BigEndian.Uint16(body[i:])))
		}
		return string(runes), nil
	case CharsetISO88591:
		runes := make([]rune, len(body))
		for i, b := range body {
			runes[i] = rune(b)
		}
		return string(runes), nil
	}
	return "", fmt.Errorf("%w: unsupported character set %d", ErrInvalidTag, data[0])
}

// DecodeBitString decodes a bit string into its bits, first bit first
func DecodeBitString(data []byte) ([]bool, error) {
	if len(data) < 1 {
		return nil, fmt.Errorf("%w: empty bit string", ErrInvalidTag)
	}
	unused := int(data[0])
	total := (len(data)-1)*8 - unused
	if unused > 7 || total < 0 {
		return nil, fmt.Errorf("%w: %d unused bits in %d octets", ErrInvalidTag, unused, len(data)-1)
	}
	bits := make([]bool, total)
	for i := range bits {
		bits[i] = data[1+i/8]&(0x80>>(i%8)) != 0
	}
	return bits, nil
}

// DecodeObjectIdentifierFromBytes decodes an object identifier from bytes
func DecodeObjectIdentifierFromBytes(data []byte) ObjectIdentifier {
	if len(data) != 4 {
		return ObjectIdentifier{}
	}
	return DecodeObjectIdentifier(binary.BigEndian.Uint32(data))
}
