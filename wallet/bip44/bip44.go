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

// Package bip44 builds and parses BIP44 derivation paths for Cardano wallets
package bip44

import (
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
)

const (
	Purpose  uint32 = 0x8000002C
	CoinType uint32 = 0x80000717

	// Components at or above this index are hardened
	HardenedKeyStart uint32 = hdkeychain.HardenedKeyStart

	PathLength = 5
)

// AddressType selects the change level of a path
type AddressType uint32

const (
	AddressTypeExternal AddressType = 0
	AddressTypeInternal AddressType = 1
)

func (t AddressType) String() string {
	if t == AddressTypeExternal {
		return "external"
	}
	return "internal"
}

// Path is a derivation path, one component per level
type Path []uint32

// String renders the path in the usual m/44'/1815'/... notation
func (p Path) String() string {
	var ret strings.Builder
	ret.WriteString("m")
	for _, component := range p {
		if component >= HardenedKeyStart {
			fmt.Fprintf(&ret, "/%d'", component-HardenedKeyStart)
		} else {
			fmt.Fprintf(&ret, "/%d", component)
		}
	}
	return ret.String()
}

// Addressing identifies an address by account, change level and index
type Addressing struct {
	Account uint32 `json:"account"`
	Change  uint32 `json:"change"`
	Index   uint32 `json:"index"`
}

// NewAddressing returns the first address of the given account. The account is
// hardened
func NewAddressing(account uint32, addrType AddressType) Addressing {
	return Addressing{
		Account: HardenedKeyStart | account,
		Change:  uint32(addrType),
	}
}

// AddressingFromPath parses a full 5-level path. It returns false if the path has the
// wrong length, the wrong purpose or coin type, or an account that isn't hardened
func AddressingFromPath(path Path) (Addressing, bool) {
	if len(path) != PathLength {
		return Addressing{}, false
	}
	if path[0] != Purpose || path[1] != CoinType {
		return Addressing{}, false
	}
	if path[2] < HardenedKeyStart {
		return Addressing{}, false
	}
	return Addressing{
		Account: path[2],
		Change:  path[3],
		Index:   path[4],
	}, true
}

func (a Addressing) ToPath() Path {
	return Path{Purpose, CoinType, a.Account, a.Change, a.Index}
}

func (a Addressing) AddressType() AddressType {
	if a.Change == 0 {
		return AddressTypeExternal
	}
	return AddressTypeInternal
}

// Incr returns a copy with the index advanced by n. It returns false when n is in the
// hardened range. The resulting index is not checked for overflow
func (a Addressing) Incr(n uint32) (Addressing, bool) {
	if n >= HardenedKeyStart {
		return Addressing{}, false
	}
	a.Index += n
	return a, true
}

// NextChunks returns up to count successive addresses starting with a
func (a Addressing) NextChunks(count int) []Addressing {
	ret := make([]Addressing, 0, count)
	for i := range count {
		next, ok := a.Incr(uint32(i))
		if !ok {
			break
		}
		ret = append(ret, next)
	}
	return ret
}

func (a Addressing) String() string {
	return a.ToPath().String()
}
