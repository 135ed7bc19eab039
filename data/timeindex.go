package data

import (
	"sort"
	"time"
)

// BuildTimeIndex unions the candle timestamps of every loaded symbol into a
// single ascending sequence without duplicates. Books and trades do not
// create steps
func BuildTimeIndex(h Holder) []time.Time {
	if h == nil {
		return nil
	}
	seen := make(map[int64]struct{})
	var resp []time.Time
	for _, s := range h.GetAllData() {
		for i := range s.Candles {
			k := s.Candles[i].Time.UnixNano()
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			resp = append(resp, s.Candles[i].Time)
		}
	}
	sort.Slice(resp, func(i, j int) bool {
		return resp[i].Before(resp[j])
	})
	return resp
}
