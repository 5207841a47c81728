// normalizer.go
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
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/localnerve/dbreview/internal/models"
)

// Normalizer turns validated raw records into DatabaseRecords.
// Synthetic names are distinct for the lifetime of a Normalizer; use one per batch.
// Not safe for concurrent use.
type Normalizer struct {
	Now func() time.Time

	issued map[string]struct{}
}

// NewNormalizer returns a Normalizer using the wall clock
func NewNormalizer() *Normalizer {
	return &Normalizer{Now: time.Now}
}

// Normalize applies the defaulting rules: absent owner_id becomes 0, absent
// classification becomes Unclassified, absent or empty db_name is synthesized.
func (n *Normalizer) Normalize(raw RawRecord) models.DatabaseRecord {
	record := models.DatabaseRecord{
		Classification: models.Unclassified,
	}

	if value := raw[keyOwnerID]; value != nil {
		record.OwnerID, _ = integerValue(value)
	}

	if value := raw[keyClassification]; value != nil {
		if ordinal, ok := integerValue(value); ok {
			if c, ok := models.ClassificationFromInt(ordinal); ok {
				record.Classification = c
			}
		}
	}

	switch name := raw[keyDBName].(type) {
	case nil:
	case string:
		record.Name = name
	default:
		record.Name = fmt.Sprint(name)
	}

	if record.Name == "" {
		record.Name = n.syntheticName(record.OwnerID, record.Classification)
	}

	return record
}

// syntheticName moves the timestamp forward a second at a time until the name
// has not been handed out yet, so equal entries within a batch stay distinct
func (n *Normalizer) syntheticName(ownerID int64, classification models.Classification) string {
	ts := n.now().Unix()
	name := SyntheticName(ts, ownerID, classification)
	if n == nil {
		return name
	}
	if n.issued == nil {
		n.issued = make(map[string]struct{})
	}
	for {
		if _, taken := n.issued[name]; !taken {
			break
		}
		ts++
		name = SyntheticName(ts, ownerID, classification)
	}
	n.issued[name] = struct{}{}
	return name
}

func (n *Normalizer) now() time.Time {
	if n == nil || n.Now == nil {
		return time.Now()
	}
	return n.Now()
}

// SyntheticName is the hex SHA-256 of "{unix_timestamp};{owner_id};{classification}"
func SyntheticName(unixTimestamp, ownerID int64, classification models.Classification) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%d;%d;%d", unixTimestamp, ownerID, int(classification))))
	return hex.EncodeToString(sum[:])
}
