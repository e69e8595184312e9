// Copyright 2025 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package dataset

import "os"

func writeFile(path string, b []byte) error {
	return os.WriteFile(path, b, 0o644)
}
