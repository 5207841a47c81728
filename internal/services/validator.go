// validator.go
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

package services

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/localnerve/dbreview/internal/models"
)

// RawRecord is one untrusted batch entry. Numbers are kept as json.Number
// so integers can be told apart from floats.
type RawRecord map[string]any

const (
	keyDBName         = "db_name"
	keyOwnerID        = "owner_id"
	keyClassification = "classification"
)

var requiredKeys = [...]string{keyDBName, keyOwnerID, keyClassification}

// ValidateDatabaseRecord reports whether raw is a well-formed database entry.
// An empty db_name is accepted; the normalizer synthesizes a name for it.
func ValidateDatabaseRecord(raw RawRecord) bool {
	for _, key := range requiredKeys {
		if value, ok := raw[key]; !ok || value == nil {
			return false
		}
	}

	if _, ok := raw[keyDBName].(string); !ok {
		return false
	}

	ownerID, ok := integerValue(raw[keyOwnerID])
	if !ok || ownerID <= 0 {
		return false
	}

	classification, ok := integerValue(raw[keyClassification])
	if !ok {
		return false
	}
	_, ok = models.ClassificationFromInt(classification)
	return ok
}

// integerValue accepts JSON integers and native Go integers, signed or unsigned,
// that fit in an int64. Floats, numeric strings and booleans are not integers.
func integerValue(value any) (int64, bool) {
	switch v := value.(type) {
	case json.Number:
		s := v.String()
		if strings.ContainsAny(s, ".eE") {
			return 0, false
		}
		n, err := v.Int64()
		return n, err == nil
	case int:
		return int64(v), true
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case uint:
		return unsignedValue(uint64(v))
	case uint8:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint32:
		return int64(v), true
	case uint64:
		return unsignedValue(v)
	}
	return 0, false
}

func unsignedValue(v uint64) (int64, bool) {
	if v > math.MaxInt64 {
		return 0, false
	}
	return int64(v), true
}
