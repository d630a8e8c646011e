// Copyright 2026 Blink Labs Software
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

package asset

import "strings"

// DisplayName renders a hex-encoded asset name for display. Each byte pair
// maps directly to the character with that code point. Scanning stops at the
// first "00" pair, so anything after an embedded null is dropped. A
// non-hex pair or a dangling nibble also ends the scan.
func DisplayName(nameHex string) string {
	var sb strings.Builder
	for i := 0; i+1 < len(nameHex); i += 2 {
		hi, ok := fromHexChar(nameHex[i])
		if !ok {
			break
		}
		lo, ok := fromHexChar(nameHex[i+1])
		if !ok {
			break
		}
		b := hi<<4 | lo
		if b == 0 {
			break
		}
		sb.WriteRune(rune(b))
	}
	return sb.String()
}

// DisplayNameBytes is DisplayName for a raw asset name.
func DisplayNameBytes(name []byte) string {
	var sb strings.Builder
	for _, b := range name {
		if b == 0 {
			break
		}
		sb.WriteRune(rune(b))
	}
	return sb.String()
}

func fromHexChar(c byte) (byte, bool) {
	switch {
	case '0' <= c && c <= '9':
		return c - '0', true
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10, true
	case 'A' <= c && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}
