package models

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// PolicyThreshold maps a minimum notice window to a charge type.
type PolicyThreshold struct {
	Notice     time.Duration
	ChargeType CancellationChargeType
}

// CancellationPolicy resolves the provisional charge type for a cancellation
// from the notice the client gave. It is configuration, passed explicitly,
// never a package-level constant.
type CancellationPolicy struct {
	Thresholds    []PolicyThreshold
	LateFeeAmount float64
}

// ParseCancellationPolicy reads a policy table of the form
// "24h:none,2h:late_fee,0:full". Thresholds are sorted descending by notice.
func ParseCancellationPolicy(table string, lateFee float64) (CancellationPolicy, error) {
	if strings.TrimSpace(table) == "" {
		return CancellationPolicy{}, fmt.Errorf("empty cancellation policy table")
	}
	var thresholds []PolicyThreshold
	for _, entry := range strings.Split(table, ",") {
		parts := strings.SplitN(strings.TrimSpace(entry), ":", 2)
		if len(parts) != 2 {
			return CancellationPolicy{}, fmt.Errorf("malformed policy entry %q", entry)
		}
		var notice time.Duration
		if parts[0] != "0" {
			var err error
			notice, err = time.ParseDuration(parts[0])
			if err != nil {
				return CancellationPolicy{}, fmt.Errorf("invalid notice window %q: %w", parts[0], err)
			}
		}
		chargeType := CancellationChargeType(parts[1])
		if !ValidChargeType(chargeType) {
			return CancellationPolicy{}, fmt.Errorf("invalid charge type %q", parts[1])
		}
		thresholds = append(thresholds, PolicyThreshold{Notice: notice, ChargeType: chargeType})
	}
	sort.Slice(thresholds, func(i, j int) bool {
		return thresholds[i].Notice > thresholds[j].Notice
	})
	return CancellationPolicy{Thresholds: thresholds, LateFeeAmount: lateFee}, nil
}

// ChargeTypeFor returns the charge type for the given notice window. Falls
// back to the least generous threshold when no entry matches.
func (p CancellationPolicy) ChargeTypeFor(notice time.Duration) CancellationChargeType {
	if notice < 0 {
		notice = 0
	}
	for _, t := range p.Thresholds {
		if notice >= t.Notice {
			return t.ChargeType
		}
	}
	if len(p.Thresholds) > 0 {
		return p.Thresholds[len(p.Thresholds)-1].ChargeType
	}
	return ChargeTypeFull
}

// ChargeAmountFor computes the fee for a charge type against the session
// type's price, honouring an explicit override amount when supplied.
func (p CancellationPolicy) ChargeAmountFor(chargeType CancellationChargeType, price float64, override *float64) float64 {
	switch chargeType {
	case ChargeTypeNone:
		return 0
	case ChargeTypeFull:
		return price
	case ChargeTypePartial:
		if override != nil && *override > 0 {
			return *override
		}
		return price / 2
	case ChargeTypeLateFee:
		if override != nil && *override > 0 {
			return *override
		}
		return p.LateFeeAmount
	}
	return 0
}
