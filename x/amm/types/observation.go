package types

import (
	"encoding/binary"
	"fmt"
	"math/big"

	sdkmath "cosmossdk.io/math"
)

const (
	// ObservationNum is the capacity of a pool's observation ring.
	ObservationNum = 100

	// DefaultVolatilityWindow is the trailing window, in seconds, the fee engine reads.
	DefaultVolatilityWindow uint64 = 3600

	observationHeaderSize = 8
	observationSlotSize   = 40

	// ObservationBufferSize is the encoded size of an ObservationBuffer.
	ObservationBufferSize = observationHeaderSize + ObservationNum*observationSlotSize
)

// Q32 scales prices to 32 fractional bits.
var Q32 = sdkmath.NewIntFromUint64(1 << 32)

// Observation is one sample of the cumulative price integrals.
// A slot with Timestamp zero has never been written.
type Observation struct {
	Timestamp           uint64      `json:"timestamp"`
	CumulativePrice0X32 sdkmath.Int `json:"cumulative_price_0_x32"`
	CumulativePrice1X32 sdkmath.Int `json:"cumulative_price_1_x32"`
}

// IsWritten reports whether the slot holds a sample.
func (o Observation) IsWritten() bool {
	return o.Timestamp != 0
}

func (o Observation) cumulative0() sdkmath.Int {
	if o.CumulativePrice0X32.IsNil() {
		return sdkmath.ZeroInt()
	}
	return o.CumulativePrice0X32
}

func (o Observation) cumulative1() sdkmath.Int {
	if o.CumulativePrice1X32.IsNil() {
		return sdkmath.ZeroInt()
	}
	return o.CumulativePrice1X32
}

// ObservationBuffer is the fixed-capacity price ring of a pool.
// Cursor is the slot the next Update writes.
type ObservationBuffer struct {
	Observations [ObservationNum]Observation `json:"observations"`
	Cursor       uint16                      `json:"cursor"`
	Initialized  bool                        `json:"initialized"`
}

// NewObservationBuffer returns an empty ring.
func NewObservationBuffer() *ObservationBuffer {
	b := &ObservationBuffer{}
	for i := range b.Observations {
		b.Observations[i] = Observation{
			CumulativePrice0X32: sdkmath.ZeroInt(),
			CumulativePrice1X32: sdkmath.ZeroInt(),
		}
	}
	return b
}

func prevIndex(i int) int {
	if i == 0 {
		return ObservationNum - 1
	}
	return i - 1
}

// Last returns the most recently written observation, if any.
func (b *ObservationBuffer) Last() (Observation, bool) {
	if !b.Initialized {
		return Observation{}, false
	}
	last := b.Observations[prevIndex(int(b.Cursor))]
	return last, last.IsWritten()
}

// Len returns the number of written slots.
func (b *ObservationBuffer) Len() int {
	n := 0
	for _, o := range b.Observations {
		if o.IsWritten() {
			n++
		}
	}
	return n
}

// Update writes a sample at the cursor and advances it. The cumulative prices
// extend the previous slot by price*elapsed, elapsed saturating at zero when
// timestamps go backwards. The first write starts both integrals at zero.
// Accumulators wrap modulo 2^128.
//
// A zero timestamp marks an unwritten slot, so Update ignores it and the
// ring is left as it was.
func (b *ObservationBuffer) Update(timestamp uint64, price0X32, price1X32 sdkmath.Int) {
	if timestamp == 0 {
		return
	}
	idx := int(b.Cursor) % ObservationNum

	next := Observation{
		Timestamp:           timestamp,
		CumulativePrice0X32: sdkmath.ZeroInt(),
		CumulativePrice1X32: sdkmath.ZeroInt(),
	}

	if b.Initialized {
		prev := b.Observations[prevIndex(idx)]
		elapsed := U128(SaturatingSubUint64(timestamp, prev.Timestamp))
		next.CumulativePrice0X32 = WrappingAdd128(prev.cumulative0(), WrappingMul128(price0X32, elapsed))
		next.CumulativePrice1X32 = WrappingAdd128(prev.cumulative1(), WrappingMul128(price1X32, elapsed))
	}

	b.Observations[idx] = next
	b.Cursor = uint16((idx + 1) % ObservationNum)
	b.Initialized = true
}

// ObservationWindow iterates the written observations of a ring inside a
// trailing time window, oldest write first. It is single-pass.
type ObservationWindow struct {
	buf    *ObservationBuffer
	now    uint64
	window uint64

	// remaining slots to visit, counted from the oldest write position
	remaining int
	pos       int
	valid     bool
}

// Window returns an iterator over observations with now-ts <= window.
func (b *ObservationBuffer) Window(now, window uint64) *ObservationWindow {
	w := &ObservationWindow{
		buf:    b,
		now:    now,
		window: window,
	}
	if !b.Initialized {
		return w
	}
	// the cursor slot is the oldest write once the ring has wrapped
	w.pos = int(b.Cursor) % ObservationNum
	w.remaining = ObservationNum
	w.advance()
	return w
}

func (w *ObservationWindow) qualifies(o Observation) bool {
	return o.IsWritten() && SaturatingSubUint64(w.now, o.Timestamp) <= w.window
}

func (w *ObservationWindow) advance() {
	w.valid = false
	for w.remaining > 0 {
		o := w.buf.Observations[w.pos]
		if w.qualifies(o) {
			w.valid = true
			return
		}
		w.pos = (w.pos + 1) % ObservationNum
		w.remaining--
	}
}

// Valid reports whether the iterator points at an observation.
func (w *ObservationWindow) Valid() bool {
	return w.valid
}

// Next moves to the next qualifying observation.
func (w *ObservationWindow) Next() {
	if !w.valid {
		return
	}
	w.pos = (w.pos + 1) % ObservationNum
	w.remaining--
	w.advance()
}

// Observation returns the current observation.
func (w *ObservationWindow) Observation() Observation {
	return w.buf.Observations[w.pos]
}

// Predecessor returns the slot written immediately before the current one.
// It may lie outside the window or be unwritten.
func (w *ObservationWindow) Predecessor() Observation {
	return w.buf.Observations[prevIndex(w.pos)]
}

// PriceRange is the oracle signal read by the fee engine.
type PriceRange struct {
	Min  sdkmath.Int
	Max  sdkmath.Int
	TWAP sdkmath.Int
}

// IsSentinel reports the (0,0,0) "not enough data" range.
func (r PriceRange) IsSentinel() bool {
	return r.Min.IsZero() && r.Max.IsZero() && r.TWAP.IsZero()
}

// SentinelPriceRange is returned when the window holds fewer than two samples.
func SentinelPriceRange() PriceRange {
	return PriceRange{Min: sdkmath.ZeroInt(), Max: sdkmath.ZeroInt(), TWAP: sdkmath.ZeroInt()}
}

// GetPriceRange returns the token_0 price range over the trailing window.
//
// TWAP comes from the oldest and newest qualifying observations. Min and max
// come from each qualifying observation and the slot written right before it,
// skipping intervals with zero elapsed time or an unwritten predecessor.
func (b *ObservationBuffer) GetPriceRange(now, window uint64) PriceRange {
	var (
		oldest, newest Observation
		count          int
		minPrice       sdkmath.Int
		maxPrice       sdkmath.Int
		haveSpot       bool
	)

	for it := b.Window(now, window); it.Valid(); it.Next() {
		obs := it.Observation()
		if count == 0 {
			oldest = obs
		}
		newest = obs
		count++

		prev := it.Predecessor()
		if !prev.IsWritten() || obs.Timestamp <= prev.Timestamp {
			continue
		}
		elapsed := U128(obs.Timestamp - prev.Timestamp)
		spot := WrappingSub128(obs.cumulative0(), prev.cumulative0()).Quo(elapsed)
		if !haveSpot {
			minPrice, maxPrice = spot, spot
			haveSpot = true
			continue
		}
		if spot.LT(minPrice) {
			minPrice = spot
		}
		if spot.GT(maxPrice) {
			maxPrice = spot
		}
	}

	if count < 2 || newest.Timestamp <= oldest.Timestamp {
		return SentinelPriceRange()
	}

	elapsed := U128(newest.Timestamp - oldest.Timestamp)
	twap := WrappingSub128(newest.cumulative0(), oldest.cumulative0()).Quo(elapsed)

	if !haveSpot {
		minPrice, maxPrice = twap, twap
	}
	return PriceRange{Min: minPrice, Max: maxPrice, TWAP: twap}
}

// TokenPriceX32 returns the instantaneous prices of both tokens with 32
// fractional bits: price0 = reserve1/reserve0, price1 = reserve0/reserve1.
func TokenPriceX32(reserve0, reserve1 uint64) (sdkmath.Int, sdkmath.Int, error) {
	if err := ValidateSupply(reserve0, reserve1); err != nil {
		return sdkmath.ZeroInt(), sdkmath.ZeroInt(), err
	}
	p0, ok := FloorDiv(U128(reserve1), Q32, U128(reserve0))
	if !ok {
		return sdkmath.ZeroInt(), sdkmath.ZeroInt(), ErrMathOverflow.Wrap("token_0 price")
	}
	p1, ok := FloorDiv(U128(reserve0), Q32, U128(reserve1))
	if !ok {
		return sdkmath.ZeroInt(), sdkmath.ZeroInt(), ErrMathOverflow.Wrap("token_1 price")
	}
	return p0, p1, nil
}

// Validate checks the write-order timestamps of the ring.
func (b *ObservationBuffer) Validate() error {
	if int(b.Cursor) >= ObservationNum {
		return fmt.Errorf("observation cursor %d out of range", b.Cursor)
	}
	if !b.Initialized {
		if b.Len() != 0 {
			return fmt.Errorf("uninitialized observation buffer holds samples")
		}
		return nil
	}
	var last uint64
	for i := 0; i < ObservationNum; i++ {
		o := b.Observations[(int(b.Cursor)+i)%ObservationNum]
		if !o.IsWritten() {
			continue
		}
		if o.Timestamp < last {
			return fmt.Errorf("observation timestamps decrease in write order: %d after %d", o.Timestamp, last)
		}
		last = o.Timestamp
	}
	return nil
}

// MarshalBinary encodes the ring in its fixed layout. All integers are big-endian.
//
//	offset  size  field
//	0       2     cursor
//	2       1     initialized (0 or 1)
//	3       5     reserved, zero
//	8       40*N  slots: timestamp (8), cumulative_price_0_x32 (16), cumulative_price_1_x32 (16)
func (b *ObservationBuffer) MarshalBinary() ([]byte, error) {
	out := make([]byte, ObservationBufferSize)
	binary.BigEndian.PutUint16(out[0:2], b.Cursor)
	if b.Initialized {
		out[2] = 1
	}
	for i, o := range b.Observations {
		slot := out[observationHeaderSize+i*observationSlotSize:]
		binary.BigEndian.PutUint64(slot[0:8], o.Timestamp)
		if err := putUint128(slot[8:24], o.cumulative0()); err != nil {
			return nil, err
		}
		if err := putUint128(slot[24:40], o.cumulative1()); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// UnmarshalBinary decodes the layout written by MarshalBinary.
func (b *ObservationBuffer) UnmarshalBinary(data []byte) error {
	if len(data) != ObservationBufferSize {
		return fmt.Errorf("observation buffer: expected %d bytes, got %d", ObservationBufferSize, len(data))
	}
	cursor := binary.BigEndian.Uint16(data[0:2])
	if int(cursor) >= ObservationNum {
		return fmt.Errorf("observation buffer: cursor %d out of range", cursor)
	}
	if data[2] > 1 {
		return fmt.Errorf("observation buffer: bad initialized flag %d", data[2])
	}
	b.Cursor = cursor
	b.Initialized = data[2] == 1
	for i := range b.Observations {
		slot := data[observationHeaderSize+i*observationSlotSize:]
		b.Observations[i] = Observation{
			Timestamp:           binary.BigEndian.Uint64(slot[0:8]),
			CumulativePrice0X32: sdkmath.NewIntFromBigInt(new(big.Int).SetBytes(slot[8:24])),
			CumulativePrice1X32: sdkmath.NewIntFromBigInt(new(big.Int).SetBytes(slot[24:40])),
		}
	}
	return nil
}

func putUint128(dst []byte, v sdkmath.Int) error {
	if v.IsNegative() || v.GT(MaxUint128) {
		return ErrMathOverflow.Wrapf("cumulative price %s does not fit in 128 bits", v)
	}
	v.BigInt().FillBytes(dst[:16])
	return nil
}
