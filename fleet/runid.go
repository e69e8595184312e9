// Copyright 2025 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package fleet

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// RunID computes the deterministic run identifier of §4.6/§6:
// "{fleet_id}-{YYYYMMDD-HHMMSS}-{first_8_hex_of_hash(fleet_id)}". It is deterministic given
// fleetID and ts, and unique across calendar seconds for a fixed fleetID.
func RunID(fleetID string, ts time.Time) string {
	sum := sha256.Sum256([]byte(fleetID))
	hash8 := hex.EncodeToString(sum[:])[:8]
	return fmt.Sprintf("%s-%s-%s", fleetID, ts.UTC().Format("20060102-150405"), hash8)
}
