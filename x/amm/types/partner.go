package types

import (
	sdkmath "cosmossdk.io/math"
)

const (
	// MaxPartners is the number of partner slots a pool carries.
	MaxPartners = 4

	// partnerShareDenominator scales a partner's share of LP supply.
	partnerShareDenominator uint64 = 100_000
)

// PartnerInfo tracks the LP supply and protocol fees attributable to one
// partner channel. A slot with PartnerID zero is free.
type PartnerInfo struct {
	PartnerID                   uint8  `json:"partner_id"`
	LPLinkedToPartner           uint64 `json:"lp_linked_to_partner"`
	CumulativeProtocolFeeShare0 uint64 `json:"cumulative_protocol_fee_share_0"`
	CumulativeProtocolFeeShare1 uint64 `json:"cumulative_protocol_fee_share_1"`
}

// PartnerTable is the fixed-capacity partner slots of a pool.
type PartnerTable [MaxPartners]PartnerInfo

// NewPartnerTable seeds one slot per channel id.
func NewPartnerTable(channels []uint8) (PartnerTable, error) {
	var t PartnerTable
	if len(channels) > MaxPartners {
		return t, ErrInvalidPartner.Wrapf("%d channels exceed capacity %d", len(channels), MaxPartners)
	}
	for i, id := range channels {
		if id == 0 {
			return t, ErrInvalidPartner.Wrap("partner id zero is reserved")
		}
		if _, found := t.Find(id); found {
			return t, ErrInvalidPartner.Wrapf("duplicate partner %d", id)
		}
		t[i] = PartnerInfo{PartnerID: id}
	}
	return t, nil
}

// Find returns the slot index of partnerID.
func (t *PartnerTable) Find(partnerID uint8) (int, bool) {
	if partnerID == 0 {
		return 0, false
	}
	for i := range t {
		if t[i].PartnerID == partnerID {
			return i, true
		}
	}
	return 0, false
}

// LinkLP adds amount to a partner's linked LP. Unknown partners are ignored.
func (t *PartnerTable) LinkLP(partnerID uint8, amount uint64) error {
	i, ok := t.Find(partnerID)
	if !ok {
		return nil
	}
	linked, err := AddUint64(t[i].LPLinkedToPartner, amount)
	if err != nil {
		return err
	}
	t[i].LPLinkedToPartner = linked
	return nil
}

// UnlinkLP removes amount from a partner's linked LP.
func (t *PartnerTable) UnlinkLP(partnerID uint8, amount uint64) error {
	i, ok := t.Find(partnerID)
	if !ok {
		return nil
	}
	linked, err := SubUint64(t[i].LPLinkedToPartner, amount)
	if err != nil {
		return ErrInvalidPartner.Wrapf("partner %d unlinks %d of %d LP", partnerID, amount, t[i].LPLinkedToPartner)
	}
	t[i].LPLinkedToPartner = linked
	return nil
}

// AttributeProtocolFee credits every partner with its share of a swap's
// protocol fee, proportional to linked LP over lpSupply. The fee is in the
// input token of the swap.
func (t *PartnerTable) AttributeProtocolFee(protocolFee sdkmath.Int, lpSupply uint64, inputIsToken0 bool) error {
	if lpSupply == 0 || protocolFee.IsZero() {
		return nil
	}
	for i := range t {
		p := &t[i]
		if p.PartnerID == 0 || p.LPLinkedToPartner == 0 {
			continue
		}
		share, ok := FloorDiv(U128(p.LPLinkedToPartner), U128(partnerShareDenominator), U128(lpSupply))
		if !ok {
			return ErrMathOverflow.Wrapf("partner %d share", p.PartnerID)
		}
		amount, ok := FloorDiv(protocolFee, share, U128(partnerShareDenominator))
		if !ok {
			return ErrMathOverflow.Wrapf("partner %d fee share", p.PartnerID)
		}
		delta, err := ToUint64(amount)
		if err != nil {
			return err
		}
		if inputIsToken0 {
			p.CumulativeProtocolFeeShare0, err = AddUint64(p.CumulativeProtocolFeeShare0, delta)
		} else {
			p.CumulativeProtocolFeeShare1, err = AddUint64(p.CumulativeProtocolFeeShare1, delta)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// TotalLinkedLP sums linked LP across partners.
func (t *PartnerTable) TotalLinkedLP() (uint64, error) {
	var total uint64
	for _, p := range t {
		var err error
		total, err = AddUint64(total, p.LPLinkedToPartner)
		if err != nil {
			return 0, err
		}
	}
	return total, nil
}
