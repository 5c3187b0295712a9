package row

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/joeandaverde/tinytable/internal/dberr"
)

// Column limits in bytes
const (
	MaxUsernameLen = 32
	MaxEmailLen    = 255
)

// Row layout
// Offset	Size	Description
// 0		4		id, little endian uint32
// 4		33		username, zero padded
// 37		256		email, zero padded
const (
	idSize       = 4
	usernameSize = MaxUsernameLen + 1
	emailSize    = MaxEmailLen + 1

	idOffset       = 0
	usernameOffset = idOffset + idSize
	emailOffset    = usernameOffset + usernameSize

	// Size is the width of every serialized row
	Size = idSize + usernameSize + emailSize
)

// Error messages reported for rows that cannot be stored
const (
	MsgInvalidID     = "ID must be a positive number."
	MsgStringTooLong = "String is too long."
)

// Row is a single record of the table
type Row struct {
	ID       uint32
	Username string
	Email    string
}

func (r Row) String() string {
	return fmt.Sprintf("(%d, %s, %s)", r.ID, r.Username, r.Email)
}

// Validate checks the row fits the fixed width layout
func (r Row) Validate() error {
	if r.ID == 0 {
		return dberr.Validation(MsgInvalidID)
	}

	if len(r.Username) > MaxUsernameLen || len(r.Email) > MaxEmailLen {
		return dberr.Validation(MsgStringTooLong)
	}

	return nil
}

// Serialize encodes a row into a new buffer of Size bytes
func Serialize(r Row) ([]byte, error) {
	buf := make([]byte, Size)
	if err := SerializeInto(buf, r); err != nil {
		return nil, err
	}
	return buf, nil
}

// SerializeInto encodes a row into dst which must be exactly Size bytes.
// Padding is always zeroed so a slot is fully overwritten.
func SerializeInto(dst []byte, r Row) error {
	if err := r.Validate(); err != nil {
		return err
	}

	if len(dst) != Size {
		return fmt.Errorf("row: destination is %d bytes, expected %d", len(dst), Size)
	}

	binary.LittleEndian.PutUint32(dst[idOffset:usernameOffset], r.ID)
	putString(dst[usernameOffset:emailOffset], r.Username)
	putString(dst[emailOffset:Size], r.Email)

	return nil
}

// Deserialize decodes a row from exactly Size bytes
func Deserialize(src []byte) (Row, error) {
	if len(src) != Size {
		return Row{}, fmt.Errorf("row: source is %d bytes, expected %d", len(src), Size)
	}

	return Row{
		ID:       binary.LittleEndian.Uint32(src[idOffset:usernameOffset]),
		Username: getString(src[usernameOffset:emailOffset]),
		Email:    getString(src[emailOffset:Size]),
	}, nil
}

func putString(field []byte, s string) {
	n := copy(field, s)
	for i := n; i < len(field); i++ {
		field[i] = 0
	}
}

func getString(field []byte) string {
	if i := bytes.IndexByte(field, 0); i >= 0 {
		field = field[:i]
	}
	return string(field)
}
