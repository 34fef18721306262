package happiness

import (
	"bytes"
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
)

// DecodePayload parses a backend response body. Unknown fields such as the
// raw statistics tables are ignored, and a malformed results field only
// blanks that field.
func DecodePayload(data []byte) (*Payload, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, eris.New("decode payload: empty body")
	}

	var payload Payload
	if err := json.NewDecoder(bytes.NewReader(data)).Decode(&payload); err != nil {
		return nil, eris.Wrap(err, "decode payload")
	}
	return &payload, nil
}

// ReadPayloadFile loads a saved backend response from disk.
func ReadPayloadFile(path string) (*Payload, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "read payload file %s", path)
	}
	payload, err := DecodePayload(raw)
	if err != nil {
		return nil, eris.Wrapf(err, "payload file %s", path)
	}
	return payload, nil
}
