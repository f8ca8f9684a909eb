// Package pickup encodes the QR code a resident shows at the front desk.
//
// The payload only points at a parcel. It carries no signature, so holding
// the image grants nothing; collection is authorized from the scanning
// staff member's own token and the parcel's state at scan time.
package pickup

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	qrcode "github.com/skip2/go-qrcode"
)

// Purpose marks a payload as a parcel collection handshake.
const Purpose = "parcel_collection"

const defaultSize = 256

// ErrInvalidCode is returned for anything that is not a well-formed pickup payload.
var ErrInvalidCode = errors.New("invalid pickup code")

// Payload is the JSON carried inside the QR image.
type Payload struct {
	ParcelID int64      `json:"parcel_id"`
	Type     string     `json:"type"`
	IssuedAt *time.Time `json:"timestamp,omitempty"`
}

// Code is a rendered pickup code.
type Code struct {
	ParcelID int64
	Payload  string
	PNG      []byte
}

// DataURL renders the PNG as an inline data URL.
func (c Code) DataURL() string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(c.PNG)
}

// Codec renders and parses pickup codes.
type Codec struct {
	size  int
	level qrcode.RecoveryLevel
	now   func() time.Time
}

// NewCodec returns a codec producing size x size pixel images.
func NewCodec(size int) *Codec {
	if size <= 0 {
		size = defaultSize
	}
	return &Codec{size: size, level: qrcode.Medium, now: time.Now}
}

// Encode renders the pickup code for parcelID. Codes can be regenerated any
// number of times; each one resolves to the parcel's state when scanned.
func (c *Codec) Encode(parcelID int64) (Code, error) {
	if parcelID <= 0 {
		return Code{}, fmt.Errorf("encode pickup code: parcel id %d: %w", parcelID, ErrInvalidCode)
	}
	issuedAt := c.now().UTC()
	raw, err := json.Marshal(Payload{ParcelID: parcelID, Type: Purpose, IssuedAt: &issuedAt})
	if err != nil {
		return Code{}, fmt.Errorf("encode pickup payload: %w", err)
	}
	png, err := qrcode.Encode(string(raw), c.level, c.size)
	if err != nil {
		return Code{}, fmt.Errorf("render pickup code: %w", err)
	}
	return Code{ParcelID: parcelID, Payload: string(raw), PNG: png}, nil
}

// wirePayload accepts parcel_id as a JSON number or a numeric string; older
// codes carried the id as a string.
type wirePayload struct {
	ParcelID json.RawMessage `json:"parcel_id"`
	Type     string          `json:"type"`
	IssuedAt *time.Time      `json:"timestamp,omitempty"`
}

// Decode parses scanned text back into a payload.
func (c *Codec) Decode(scanned string) (Payload, error) {
	var wire wirePayload
	if err := json.Unmarshal([]byte(strings.TrimSpace(scanned)), &wire); err != nil {
		return Payload{}, ErrInvalidCode
	}
	if wire.Type != Purpose || len(wire.ParcelID) == 0 {
		return Payload{}, ErrInvalidCode
	}

	id, err := parseParcelID(wire.ParcelID)
	if err != nil || id <= 0 {
		return Payload{}, ErrInvalidCode
	}
	return Payload{ParcelID: id, Type: wire.Type, IssuedAt: wire.IssuedAt}, nil
}

func parseParcelID(raw json.RawMessage) (int64, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, err
		}
		return strconv.ParseInt(s, 10, 64)
	}
	var id int64
	if err := json.Unmarshal(raw, &id); err != nil {
		return 0, err
	}
	return id, nil
}
