package market

import (
	"fmt"
	"iter"
	"strconv"
	"strings"

	"bdo-market/internal/apperrors"
)

const (
	recordSeparator = "|"
	fieldSeparator  = "-"
)

// Grammar names the positional fields of one endpoint's records.
type Grammar struct {
	Endpoint string
	Fields   []string
}

var (
	ListingGrammar = Grammar{
		Endpoint: "GetWorldMarketList",
		Fields:   []string{"item_id", "current_stock", "total_trades", "base_price"},
	}
	DetailGrammar = Grammar{
		Endpoint: "GetWorldMarketSubList",
		Fields: []string{"id", "min_enhance", "max_enhance", "base_price", "current_stock",
			"total_trades", "price_hardcap_min", "price_hardcap_max", "last_sale_price", "last_sale_time"},
	}
	BiddingGrammar = Grammar{
		Endpoint: "GetBiddingInfoList",
		Fields:   []string{"price_level", "sale_count", "buy_count"},
	}
)

func (g Grammar) index(field string) int {
	for i, f := range g.Fields {
		if f == field {
			return i
		}
	}
	return -1
}

// Record is one decoded record. Values are the raw strings from the wire.
type Record struct {
	grammar Grammar
	pos     int
	values  []string
}

// Index is the record's position in the payload.
func (r Record) Index() int { return r.pos }

func (r Record) Values() []string { return r.values }

// Get returns the named field, or "" for a field the grammar does not have.
func (r Record) Get(field string) string {
	i := r.grammar.index(field)
	if i < 0 {
		return ""
	}
	return r.values[i]
}

// Int converts the named field. Upstream errors sometimes surface as
// non-numeric fields, so a failed conversion is a decode error.
func (r Record) Int(field string) (int64, error) {
	raw := r.Get(field)
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, apperrors.NewDecodeError("market.Decode",
			fmt.Sprintf("%s record %d: field %s=%q is not an integer", r.grammar.Endpoint, r.pos, field, raw), err)
	}
	return n, nil
}

// Decode lazily splits payload into records of grammar g. A single trailing
// record separator is dropped. Iteration stops after the first error.
func Decode(payload string, g Grammar) iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		body := strings.TrimSuffix(payload, recordSeparator)
		if body == "" {
			yield(Record{}, apperrors.NewDecodeError("market.Decode", g.Endpoint+": empty payload", nil))
			return
		}

		pos := 0
		for rec := range strings.SplitSeq(body, recordSeparator) {
			fields := strings.Split(rec, fieldSeparator)
			if len(fields) != len(g.Fields) {
				yield(Record{}, apperrors.NewDecodeError("market.Decode",
					fmt.Sprintf("%s record %d: %d fields, want %d [%s]", g.Endpoint, pos, len(fields), len(g.Fields), rec), nil))
				return
			}
			if !yield(Record{grammar: g, pos: pos, values: fields}, nil) {
				return
			}
			pos++
		}
	}
}

// DecodeAll collects every record, failing on the first malformed one.
func DecodeAll(payload string, g Grammar) ([]Record, error) {
	var out []Record
	for rec, err := range Decode(payload, g) {
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}
