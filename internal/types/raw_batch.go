// raw_batch.go
//
// Database classification intake and owner-manager review notifications
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of dbreview.
// dbreview is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// dbreview is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with dbreview.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

package types

import (
	"bytes"
	"encoding/json"
	"errors"
)

// ErrNotBatch is returned when a payload is neither a JSON array nor a JSON object
var ErrNotBatch = errors.New("payload must be a JSON array or object")

// RawBatch holds the entries of an upload exactly as they were received.
// An array yields one entry per element, a lone object is a batch of one.
type RawBatch []json.RawMessage

// UnmarshalJSON implements the json.Unmarshaler interface.
func (b *RawBatch) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return ErrNotBatch
	}

	switch data[0] {
	case '[':
		var entries []json.RawMessage
		if err := json.Unmarshal(data, &entries); err != nil {
			return err
		}
		*b = RawBatch(entries)
	case '{':
		if !json.Valid(data) {
			return errors.New("malformed JSON object")
		}
		*b = RawBatch{append(json.RawMessage(nil), data...)}
	default:
		return ErrNotBatch
	}
	return nil
}

// Entries returns the raw entries, never nil
func (b RawBatch) Entries() []json.RawMessage {
	if b == nil {
		return []json.RawMessage{}
	}
	return []json.RawMessage(b)
}
