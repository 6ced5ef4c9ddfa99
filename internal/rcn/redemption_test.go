package rcn

import (
	"testing"

	"github.com/google/uuid"
)

var (
	shopA = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	shopB = uuid.MustParse("22222222-2222-2222-2222-222222222222")
)

func TestDecideHomeShopFullBalance(t *testing.T) {
	d := Decide(100, &shopA, shopA, 100)
	if !d.IsHomeShop {
		t.Fatal("expected home shop")
	}
	if d.MaxRedeemable != 100 {
		t.Fatalf("home shop max = %d, want 100", d.MaxRedeemable)
	}
	if !d.CanRedeem {
		t.Fatalf("full-balance redemption at home shop should pass: %s", d.Message)
	}
}

func TestDecideCrossShopTwentyPercent(t *testing.T) {
	cases := []struct {
		earned int64
		max    int64
	}{
		{100, 20},
		{55, 11},
		{0, 0},
		{4, 0},
	}

	for _, tc := range cases {
		d := Decide(tc.earned, &shopA, shopB, 1)
		if d.IsHomeShop {
			t.Fatal("shop B must not be the home shop")
		}
		if d.MaxRedeemable != tc.max {
			t.Fatalf("earned=%d: cross-shop max = %d, want %d", tc.earned, d.MaxRedeemable, tc.max)
		}
	}
}

func TestDecideBoundary(t *testing.T) {
	if d := Decide(100, &shopA, shopB, 20); !d.CanRedeem {
		t.Fatalf("requesting exactly the cap should pass: %s", d.Message)
	}
	if d := Decide(100, &shopA, shopB, 21); d.CanRedeem {
		t.Fatal("requesting one over the cap should be denied")
	}
}

func TestDecideNoHomeShop(t *testing.T) {
	// Gifted- or market-only customers get the cross-shop cap everywhere,
	// including the shop they visit most.
	d := Decide(100, nil, shopA, 25)
	if d.IsHomeShop {
		t.Fatal("customer without redeemable shop earnings has no home shop")
	}
	if d.MaxRedeemable != 20 {
		t.Fatalf("max = %d, want 20", d.MaxRedeemable)
	}
	if d.CanRedeem {
		t.Fatal("request over the uniform cross-shop cap should be denied")
	}
}

func TestDecideNonPositiveRequest(t *testing.T) {
	if d := Decide(100, &shopA, shopA, 0); d.CanRedeem {
		t.Fatal("zero request should be denied")
	}
	if d := Decide(100, &shopA, shopA, -3); d.CanRedeem {
		t.Fatal("negative request should be denied")
	}
}

func TestDecideEarnedOnlyBasis(t *testing.T) {
	// A customer with 100 earned + 50 gifted has earned=100 at the ledger
	// level; the cross-shop cap is floor(100*0.20)=20, never 30.
	d := Decide(100, &shopA, shopB, 20)
	if d.MaxRedeemable != 20 {
		t.Fatalf("cap computed from earned balance should be 20, got %d", d.MaxRedeemable)
	}
	if home := Decide(100, &shopA, shopA, 100); home.MaxRedeemable != 100 {
		t.Fatalf("home cap should be 100, got %d", home.MaxRedeemable)
	}
}
