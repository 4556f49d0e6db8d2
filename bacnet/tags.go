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
)

// Tag is a decoded tag header
type Tag struct {
	Number    uint8
	Class     TagClass
	Length    int // content length in bytes
	HeaderLen int
	Opening   bool
	Closing   bool
	Bool      bool // value of an application Boolean, which has no content
}

// IsApplication reports whether t is the application tag a
func (t Tag) IsApplication(a ApplicationTag) bool {
	return t.Class == TagClassApplication && t.Number == uint8(a)
}

// IsContext reports whether t is the primitive context tag n
func (t Tag) IsContext(n uint8) bool {
	return t.Class == TagClassContext && t.Number == n && !t.Opening && !t.Closing
}

func (t Tag) String() string {
	switch {
	case t.Opening:
		return fmt.Sprintf("opening[%d]", t.Number)
	case t.Closing:
		return fmt.Sprintf("closing[%d]", t.Number)
	case t.Class == TagClassContext:
		return fmt.Sprintf("context[%d]", t.Number)
	}
	return ApplicationTag(t.Number).String()
}

// DecodeTag decodes the tag header at the start of data
func DecodeTag(data []byte) (Tag, error) {
	if len(data) < 1 {
		return Tag{}, fmt.Errorf("%w: truncated header", ErrInvalidTag)
	}

	t := Tag{
		Number:    data[0] >> 4,
		Class:     TagClass((data[0] >> 3) & 0x01),
		HeaderLen: 1,
	}
	lenField := data[0] & 0x07

	if t.Number == 0x0F {
		if len(data) < 2 {
			return Tag{}, fmt.Errorf("%w: truncated extended tag number", ErrInvalidTag)
		}
		t.Number = data[1]
		t.HeaderLen = 2
	}

	if t.Class == TagClassContext {
		switch lenField {
		case 6:
			t.Opening = true
			return t, nil
		case 7:
			t.Closing = true
			return t, nil
		}
	} else if t.Number == uint8(TagBoolean) {
		t.Bool = lenField != 0
		return t, nil
	}

	t.Length = int(lenField)
	if lenField == 5 {
		if len(data) < t.HeaderLen+1 {
			return Tag{}, fmt.Errorf("%w: truncated extended length", ErrInvalidTag)
		}
		ext := data[t.HeaderLen]
		t.HeaderLen++
		switch {
		case ext < 254:
			t.Length = int(ext)
		case ext == 254:
			if len(data) < t.HeaderLen+2 {
				return Tag{}, fmt.Errorf("%w: truncated extended length", ErrInvalidTag)
			}
			t.Length = int(binary.BigEndian.Uint16(data[t.HeaderLen:]))
			t.HeaderLen += 2
		default:
			if len(data) < t.HeaderLen+4 {
				return Tag{}, fmt.Errorf("%w: truncated extended length", ErrInvalidTag)
			}
			t.Length = int(binary.BigEndian.Uint32(data[t.HeaderLen:]))
			t.HeaderLen += 4
		}
	}

	if t.Length < 0 || len(data) < t.HeaderLen+t.Length {
		return Tag{}, fmt.Errorf("%w: %s needs %d content bytes, %d left", ErrInvalidTag, t, t.Length, len(data)-t.HeaderLen)
	}
	return t, nil
}

// TagReader walks a sequence of encoded tags
type TagReader struct {
	data []byte
	off  int
}

// NewTagReader returns a reader positioned at the start of data
func NewTagReader(data []byte) *TagReader {
	return &TagReader{data: data}
}

// Offset returns the number of bytes consumed so far
func (r *TagReader) Offset() int { return r.off }

// Done reports whether all data has been consumed
func (r *TagReader) Done() bool { return r.off >= len(r.data) }

// Remaining returns the unread bytes
func (r *TagReader) Remaining() []byte { return r.data[r.off:] }

// Peek decodes the next tag without consuming it
func (r *TagReader) Peek() (Tag, error) {
	return DecodeTag(r.data[r.off:])
}

// Next consumes the next tag and returns it with its content
func (r *TagReader) Next() (Tag, []byte, error) {
	t, err := r.Peek()
	if err != nil {
		return Tag{}, nil, err
	}
	start := r.off + t.HeaderLen
	r.off = start + t.Length
	return t, r.data[start:r.off], nil
}

// PeekOpening reports whether the next tag is opening tag n
func (r *TagReader) PeekOpening(n uint8) bool {
	t, err := r.Peek()
	return err == nil && t.Opening && t.Number == n
}

// PeekClosing reports whether the next tag is closing tag n
func (r *TagReader) PeekClosing(n uint8) bool {
	t, err := r.Peek()
	return err == nil && t.Closing && t.Number == n
}

// PeekContext reports whether the next tag is primitive context tag n
func (r *TagReader) PeekContext(n uint8) bool {
	t, err := r.Peek()
	return err == nil && t.IsContext(n)
}

// ExpectOpening consumes opening tag n
func (r *TagReader) ExpectOpening(n uint8) error {
	t, _, err := r.Next()
	if err != nil {
		return err
	}
	if !t.Opening || t.Number != n {
		return fmt.Errorf("%w: expected opening[%d], got %s", ErrInvalidTag, n, t)
	}
	return nil
}

// ExpectClosing consumes closing tag n
func (r *TagReader) ExpectClosing(n uint8) error {
	t, _, err := r.Next()
	if err != nil {
		return err
	}
	if !t.Closing || t.Number != n {
		return fmt.Errorf("%w: expected closing[%d], got %s", ErrInvalidTag, n, t)
	}
	return nil
}

// ReadContext consumes primitive context tag n and returns its content
func (r *TagReader) ReadContext(n uint8) ([]byte, error) {
	t, content, err := r.Next()
	if err != nil {
		return nil, err
	}
	if !t.IsContext(n) {
		return nil, fmt.Errorf("%w: expected context[%d], got %s", ErrInvalidTag, n, t)
	}
	return content, nil
}

// ReadContextUnsigned consumes context tag n holding an unsigned value
func (r *TagReader) ReadContextUnsigned(n uint8) (uint32, error) {
	content, err := r.ReadContext(n)
	if err != nil {
		return 0, err
	}
	if len(content) == 0 || len(content) > 4 {
		return 0, fmt.Errorf("%w: context[%d] unsigned of %d bytes", ErrInvalidTag, n, len(content))
	}
	return DecodeUnsigned(content), nil
}

// ReadContextObjectIdentifier consumes context tag n holding an object
// identifier
func (r *TagReader) ReadContextObjectIdentifier(n uint8) (ObjectIdentifier, error) {
	content, err := r.ReadContext(n)
	if err != nil {
		return ObjectIdentifier{}, err
	}
	if len(content) != 4 {
		return ObjectIdentifier{}, fmt.Errorf("%w: context[%d] object identifier of %d bytes", ErrInvalidTag, n, len(content))
	}
	return DecodeObjectIdentifierFromBytes(content), nil
}

// ReadEnumerated consumes an application Enumerated tag
func (r *TagReader) ReadEnumerated() (uint32, error) {
	t, content, err := r.Next()
	if err != nil {
		return 0, err
	}
	if !t.IsApplication(TagEnumerated) || len(content) == 0 || len(content) > 4 {
		return 0, fmt.Errorf("%w: expected enumerated, got %s", ErrInvalidTag, t)
	}
	return DecodeUnsigned(content), nil
}

// ReadEnclosed consumes opening tag n, everything up to the matching closing
// tag n, and the closing tag. It returns the bytes in between
func (r *TagReader) ReadEnclosed(n uint8) ([]byte, error) {
	if err := r.ExpectOpening(n); err != nil {
		return nil, err
	}
	start := r.off
	depth := 0
	for {
		if r.Done() {
			return nil, fmt.Errorf("%w: unterminated opening[%d]", ErrInvalidTag, n)
		}
		end := r.off
		t, _, err := r.Next()
		if err != nil {
			return nil, err
		}
		switch {
		case t.Opening:
			depth++
		case t.Closing && depth > 0:
			depth--
		case t.Closing:
			if t.Number != n {
				return nil, fmt.Errorf("%w: expected closing[%d], got %s", ErrInvalidTag, n, t)
			}
			return r.data[start:end], nil
		}
	}
}
