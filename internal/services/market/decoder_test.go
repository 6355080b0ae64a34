package market

import (
	"testing"

	"bdo-market/internal/apperrors"
)

func TestDecodeDropsTrailingSeparator(t *testing.T) {
	recs, err := DecodeAll("7913-15000-912345-480|7961-200-1500-350|", ListingGrammar)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 2 {
		t.Fatalf("got %d records, want 2", len(recs))
	}
	if recs[1].Get("item_id") != "7961" || recs[1].Get("base_price") != "350" {
		t.Fatalf("second record = %v", recs[1].Values())
	}
	if recs[1].Index() != 1 {
		t.Fatalf("index = %d", recs[1].Index())
	}
}

func TestDecodeWithoutTrailingSeparator(t *testing.T) {
	recs, err := DecodeAll("100-0-3", BiddingGrammar)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 || recs[0].Get("buy_count") != "3" {
		t.Fatalf("unexpected records %v", recs)
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		grammar Grammar
	}{
		{"empty", "", ListingGrammar},
		{"only separator", "|", ListingGrammar},
		{"too few fields", "7913-15000-912345|", ListingGrammar},
		{"too many fields", "100-0-3-9|", BiddingGrammar},
		{"empty middle record", "100-0-3||200-1-0|", BiddingGrammar},
		{"detail short", "7913-0-0-480-15000-912345-300-700-470|", DetailGrammar},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeAll(tt.payload, tt.grammar)
			if !apperrors.IsDecodeError(err) {
				t.Fatalf("expected decode error, got %v", err)
			}
		})
	}
}

func TestDecodeIsLazy(t *testing.T) {
	// the malformed second record is never reached
	n := 0
	for rec, err := range Decode("100-0-3|bad|", BiddingGrammar) {
		if err != nil {
			t.Fatal(err)
		}
		n++
		if rec.Get("price_level") != "100" {
			t.Fatalf("unexpected record %v", rec.Values())
		}
		break
	}
	if n != 1 {
		t.Fatalf("yielded %d records", n)
	}
}

func TestRecordInt(t *testing.T) {
	recs, err := DecodeAll("7913-x-1-2|", ListingGrammar)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := recs[0].Int("current_stock"); !apperrors.IsDecodeError(err) {
		t.Fatalf("expected decode error, got %v", err)
	}
	if n, err := recs[0].Int("base_price"); err != nil || n != 2 {
		t.Fatalf("base_price = %d, %v", n, err)
	}
	if recs[0].Get("no_such_field") != "" {
		t.Fatal("unknown field must read as empty")
	}
}

func TestParseListingKeysMatchInput(t *testing.T) {
	ids := []string{"7913", "7961", "7925", "7901"}
	payload := ""
	for i, id := range ids {
		payload += id + "-1000-" + string(rune('1'+i)) + "-300|"
	}

	got, err := parseListing(payload)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != len(ids) {
		t.Fatalf("got %d summaries, want %d", len(got), len(ids))
	}
	for _, id := range ids {
		s, ok := got[id]
		if !ok {
			t.Fatalf("missing %s", id)
		}
		if s.ItemID != id || s.CurrentStock != 1000 || s.BasePrice != 300 {
			t.Fatalf("summary %+v", s)
		}
	}
}
