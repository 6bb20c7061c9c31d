package keeper

import (
	"encoding/binary"

	sdk "github.com/cosmos/cosmos-sdk/types"
)

var (
	// PoolKeyPrefix is the prefix for pool store keys
	PoolKeyPrefix = []byte{0x01}

	// PoolCountKey is the key for the next pool ID counter
	PoolCountKey = []byte{0x02}

	// PoolByTokensKeyPrefix is the prefix for indexing pools by token pair
	PoolByTokensKeyPrefix = []byte{0x03}

	// PositionKeyPrefix is the prefix for liquidity position store keys
	PositionKeyPrefix = []byte{0x04}

	// ParamsKey is the key for module parameters
	ParamsKey = []byte{0x05}

	// ObservationKeyPrefix is the prefix for pool observation rings
	ObservationKeyPrefix = []byte{0x06}
)

func poolIDBytes(poolID uint64) []byte {
	bz := make([]byte, 8)
	binary.BigEndian.PutUint64(bz, poolID)
	return bz
}

// PoolKey returns the store key for a pool by ID
func PoolKey(poolID uint64) []byte {
	return append(append([]byte{}, PoolKeyPrefix...), poolIDBytes(poolID)...)
}

// PoolByTokensKey returns the store key for indexing a pool by its token pair
func PoolByTokensKey(tokenA, tokenB string) []byte {
	if tokenA > tokenB {
		tokenA, tokenB = tokenB, tokenA
	}
	key := append([]byte{}, PoolByTokensKeyPrefix...)
	key = append(key, []byte(tokenA)...)
	key = append(key, '/')
	key = append(key, []byte(tokenB)...)
	return key
}

// PositionKey returns the store key for a liquidity position
func PositionKey(poolID uint64, owner sdk.AccAddress) []byte {
	key := PositionKeyByPoolPrefix(poolID)
	return append(key, owner.Bytes()...)
}

// PositionKeyByPoolPrefix returns the prefix for all positions in a pool
func PositionKeyByPoolPrefix(poolID uint64) []byte {
	return append(append([]byte{}, PositionKeyPrefix...), poolIDBytes(poolID)...)
}

// ObservationKey returns the store key for a pool's observation ring
func ObservationKey(poolID uint64) []byte {
	return append(append([]byte{}, ObservationKeyPrefix...), poolIDBytes(poolID)...)
}

func poolIDFromKey(bz []byte) uint64 {
	if len(bz) < 8 {
		return 0
	}
	return binary.BigEndian.Uint64(bz[:8])
}
