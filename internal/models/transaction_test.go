package models

import (
	"testing"

	"github.com/google/uuid"
)

func TestMetadataRoundTrip(t *testing.T) {
	in := Metadata{
		Kind: MetaRepair,
		Repair: &RepairMeta{
			RepairAmount: 150,
			BaseReward:   25,
			TierBonus:    20,
			OldTier:      "silver",
			NewTier:      "silver",
		},
	}

	out, err := DecodeMetadata(in.Encode())
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if out.Kind != MetaRepair || out.Repair == nil {
		t.Fatalf("kind lost in round trip: %+v", out)
	}
	if *out.Repair != *in.Repair {
		t.Fatalf("repair meta = %+v, want %+v", *out.Repair, *in.Repair)
	}
	if out.Referral != nil || out.Promo != nil || out.Gift != nil || out.Redemption != nil {
		t.Fatalf("unrelated variants should stay nil: %+v", out)
	}
}

func TestMetadataRedemption(t *testing.T) {
	id := uuid.New()
	in := Metadata{
		Kind:       MetaRedemption,
		Redemption: &RedemptionMeta{SessionID: id, IsHomeShop: true},
	}

	out, err := DecodeMetadata(in.Encode())
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if out.Redemption == nil || out.Redemption.SessionID != id || !out.Redemption.IsHomeShop {
		t.Fatalf("redemption meta lost: %+v", out)
	}
}

func TestDecodeMetadataEmpty(t *testing.T) {
	out, err := DecodeMetadata(nil)
	if err != nil {
		t.Fatalf("empty blob should decode: %v", err)
	}
	if out.Kind != "" {
		t.Fatalf("empty blob should have no kind, got %q", out.Kind)
	}
}
