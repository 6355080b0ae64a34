package config

import (
	"fmt"
	"sort"

	"github.com/spf13/viper"

	"bdo-market/internal/apperrors"
)

// CategoryPayload is the fixed request body of a GetWorldMarketList call.
type CategoryPayload struct {
	KeyType      int `json:"keyType" mapstructure:"key_type"`
	MainCategory int `json:"mainCategory" mapstructure:"main_category"`
	SubCategory  int `json:"subCategory" mapstructure:"sub_category"`
}

// Tables holds the static lookup data: which categories to poll, which items
// substitute for each other, and their display names.
type Tables struct {
	Categories map[string]CategoryPayload `mapstructure:"categories"`
	// Group name -> interchangeable item ids; the first id is the canonical one.
	Groups map[string][]string `mapstructure:"groups"`
	Names  map[string]string   `mapstructure:"names"`
}

// LoadTables reads the tables from a yaml/json/toml file. An empty path
// returns DefaultTables. The result is always validated.
func LoadTables(path string) (*Tables, error) {
	if path == "" {
		t := DefaultTables()
		return t, t.Validate()
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, apperrors.NewConfigError("config.LoadTables", "read "+path, err)
	}

	var t Tables
	if err := v.Unmarshal(&t); err != nil {
		return nil, apperrors.NewConfigError("config.LoadTables", "decode "+path, err)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

// Validate enforces that every group is non-empty and that every group member
// has a display name.
func (t *Tables) Validate() error {
	for _, group := range t.GroupNames() {
		members := t.Groups[group]
		if len(members) == 0 {
			return apperrors.NewConfigError("config.Validate", fmt.Sprintf("group %q has no members", group), nil)
		}
		for _, id := range members {
			if _, ok := t.Names[id]; !ok {
				return apperrors.NewConfigError("config.Validate", fmt.Sprintf("group %q: item %s has no name", group, id), nil)
			}
		}
	}
	return nil
}

// Category returns the request payload for a category key.
func (t *Tables) Category(key string) (CategoryPayload, error) {
	p, ok := t.Categories[key]
	if !ok {
		return CategoryPayload{}, apperrors.NewConfigError("config.Category", fmt.Sprintf("unknown category %q", key), nil)
	}
	return p, nil
}

// Name returns the display name of an item.
func (t *Tables) Name(itemID string) (string, error) {
	name, ok := t.Names[itemID]
	if !ok {
		return "", apperrors.NewConfigError("config.Name", fmt.Sprintf("item %s has no name", itemID), nil)
	}
	return name, nil
}

// CategoryKeys returns the configured category keys in sorted order.
func (t *Tables) CategoryKeys() []string {
	return sortedKeys(t.Categories)
}

// GroupNames returns the configured group names in sorted order.
func (t *Tables) GroupNames() []string {
	return sortedKeys(t.Groups)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// DefaultTables returns the trade market tables for raw materials and
// consumables, with the blood, meat and potato families used for cheapest
// lookups.
func DefaultTables() *Tables {
	return &Tables{
		Categories: map[string]CategoryPayload{
			"ore":     {KeyType: 0, MainCategory: 25, SubCategory: 1},
			"plants":  {KeyType: 0, MainCategory: 25, SubCategory: 2},
			"seed":    {KeyType: 0, MainCategory: 25, SubCategory: 3},
			"leather": {KeyType: 0, MainCategory: 25, SubCategory: 4},
			"blood":   {KeyType: 0, MainCategory: 25, SubCategory: 5},
			"meat":    {KeyType: 0, MainCategory: 25, SubCategory: 6},
			"seafood": {KeyType: 0, MainCategory: 25, SubCategory: 7},
			"misc":    {KeyType: 0, MainCategory: 25, SubCategory: 8},

			"offensive_elixir":  {KeyType: 0, MainCategory: 35, SubCategory: 1},
			"defensive_elixir":  {KeyType: 0, MainCategory: 35, SubCategory: 2},
			"functional_elixir": {KeyType: 0, MainCategory: 35, SubCategory: 3},
			"food":              {KeyType: 0, MainCategory: 35, SubCategory: 4},
			"portion_elixir":    {KeyType: 0, MainCategory: 35, SubCategory: 5},
		},
		Groups: map[string][]string{
			"deer":   {"6201", "6202", "6206", "6215", "6205", "6227", "6228"},
			"wolf":   {"6214", "6204", "6216", "6218"},
			"fox":    {"6203", "6210", "6211", "6212", "6224", "6226"},
			"bear":   {"6213", "6223", "6220", "6221", "6207", "6225"},
			"lizard": {"6208", "6209", "6219", "6217", "6222"},

			"meat":   {"7913", "7961", "7925", "7901", "7960", "7904", "7911", "7910", "7912", "7905", "7957", "7903", "7906", "7902"},
			"grain":  {"7003"},
			"powder": {"7103"},
			"dough":  {"7203"},
		},
		Names: map[string]string{
			"6201": "사슴 피", "6202": "양 피", "6206": "소 피", "6215": "와라곤 피", "6205": "돼지 피", "6227": "라마 피", "6228": "염소 피",
			"6214": "늑대 피", "6204": "코뿔소 피", "6216": "치타룡 피", "6218": "홍학 피",
			"6203": "여우 피", "6210": "너구리 피", "6211": "원숭이 피", "6212": "족제비 피", "6224": "전갈 피", "6226": "마못 피",
			"6213": "곰 피", "6223": "사자 피", "6220": "트롤 피", "6221": "오우거 피", "6207": "공룡 피", "6225": "야크 피",
			"6208": "도마뱀 피", "6209": "웜 피", "6219": "박쥐 피", "6217": "쿠쿠새 피", "6222": "코브라 피",

			"7913": "늑대 고기", "7961": "토끼 고기", "7925": "가젤 고기", "7901": "사슴 고기", "7960": "강치 고기",
			"7904": "코뿔소 고기", "7911": "족제비 고기", "7910": "너구리 고기", "7912": "곰 고기", "7905": "돼지 고기",
			"7957": "염소 고기", "7903": "여우 고기", "7906": "소 고기", "7902": "양 고기",

			"7003": "감자",
			"7103": "감자 가루",
			"7203": "감자 반죽",
		},
	}
}
