package rest

import (
	"net/url"
	"strconv"
	"strings"
)

type query struct {
	v url.Values
}

func newQuery() *query {
	return &query{v: url.Values{}}
}

func (q *query) str(key string, val string) *query {
	if val != "" {
		q.v.Set(key, val)
	}
	return q
}

func (q *query) i64(key string, val *int64) *query {
	if val != nil {
		q.v.Set(key, strconv.FormatInt(*val, 10))
	}
	return q
}

func (q *query) u32(key string, val *uint32) *query {
	if val != nil {
		q.v.Set(key, strconv.FormatUint(uint64(*val), 10))
	}
	return q
}

func (q *query) limit(val int) *query {
	if val > 0 {
		q.v.Set("limit", strconv.Itoa(val))
	}
	return q
}

func (q *query) flag(key string, val *bool) *query {
	if val != nil {
		q.v.Set(key, strconv.FormatBool(*val))
	}
	return q
}

// csv joins list parameters with commas, the form the venue expects.
func (q *query) csv(key string, vals []string) *query {
	kept := make([]string, 0, len(vals))
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			kept = append(kept, v)
		}
	}
	if len(kept) > 0 {
		q.v.Set(key, strings.Join(kept, ","))
	}
	return q
}

func (q *query) values() url.Values {
	return q.v
}
