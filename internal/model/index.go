package model

import (
	"encoding/json"
	"sort"
	"time"
)

// Index 已分析日期索引，dates 始终升序
type Index struct {
	Dates     []string  `json:"dates"`
	Latest    string    `json:"latest"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewIndex 校验日期、去重排序，并要求 latest 属于 dates
func NewIndex(dates []string, latest string, updatedAt time.Time) (*Index, error) {
	set := make(map[string]struct{}, len(dates))
	sorted := make([]string, 0, len(dates))
	for _, d := range dates {
		if _, err := ParseDate(d); err != nil {
			return nil, invalid("index.dates", "invalid date %q", d)
		}
		if _, ok := set[d]; ok {
			continue
		}
		set[d] = struct{}{}
		sorted = append(sorted, d)
	}
	sort.Strings(sorted)

	if len(sorted) > 0 {
		if _, ok := set[latest]; !ok {
			return nil, invalid("index.latest", "%q is not in dates", latest)
		}
	}

	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}
	return &Index{Dates: sorted, Latest: latest, UpdatedAt: updatedAt}, nil
}

// EmptyIndex 返回空索引
func EmptyIndex() *Index {
	return &Index{Dates: []string{}, UpdatedAt: time.Now()}
}

// Add 加入日期并设为最新
func (idx *Index) Add(date string, now time.Time) error {
	next, err := NewIndex(append(append([]string{}, idx.Dates...), date), date, now)
	if err != nil {
		return err
	}
	*idx = *next
	return nil
}

// Contains 判断日期是否已在索引中
func (idx *Index) Contains(date string) bool {
	i := sort.SearchStrings(idx.Dates, date)
	return i < len(idx.Dates) && idx.Dates[i] == date
}

// Descending 按日期倒序返回，limit <= 0 表示全部
func (idx *Index) Descending(limit int) []string {
	out := make([]string, 0, len(idx.Dates))
	for i := len(idx.Dates) - 1; i >= 0; i-- {
		out = append(out, idx.Dates[i])
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

type indexJSON struct {
	Dates     []string `json:"dates"`
	Latest    string   `json:"latest"`
	UpdatedAt string   `json:"updated_at"`
}

// UnmarshalJSON 通过 NewIndex 构造
func (idx *Index) UnmarshalJSON(data []byte) error {
	var raw indexJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	var updatedAt time.Time
	if raw.UpdatedAt != "" {
		t, err := parseTimestamp(raw.UpdatedAt)
		if err != nil {
			return invalid("index.updated_at", "%v", err)
		}
		updatedAt = t
	}

	v, err := NewIndex(raw.Dates, raw.Latest, updatedAt)
	if err != nil {
		return err
	}
	*idx = *v
	return nil
}
