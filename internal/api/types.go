// Package api holds the request and response messages shared by the service
// handlers and the HTTP gateway.
package api

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Number decodes any JSON number, numeric string, blank string or null.
// Anything that does not parse becomes 0.
type Number float64

func (n *Number) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if unq, err := strconv.Unquote(s); err == nil {
		s = strings.TrimSpace(unq)
	}
	if s == "" || s == "null" {
		*n = 0
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		*n = 0
		return nil
	}
	*n = Number(f)
	return nil
}

func (n Number) Float64() float64 {
	return float64(n)
}

// ID is a numeric identity that also accepts its string form, so "12" and 12
// name the same row. Blank strings and null decode to 0.
type ID int64

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	s := string(b)
	if unq, err := strconv.Unquote(s); err == nil {
		s = strings.TrimSpace(unq)
	}
	if s == "" || s == "null" {
		*id = 0
		return nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid id %q", s)
	}
	*id = ID(v)
	return nil
}

func (id ID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// ListResult is the envelope every list endpoint answers with.
type ListResult[T any] struct {
	Results []T   `json:"results"`
	Total   int64 `json:"total"`
}

type Page struct {
	Skip  int
	Limit int
}

// Normalize clamps skip to >= 0 and limit into [1, max], using def when the
// caller gave none.
func (p Page) Normalize(def, max int) Page {
	if p.Skip < 0 {
		p.Skip = 0
	}
	if p.Limit <= 0 {
		p.Limit = def
	}
	if max > 0 && p.Limit > max {
		p.Limit = max
	}
	return p
}

// TotalUnknown marks a page whose envelope carried no total.
const TotalUnknown int64 = -1

// CollectAll pages through a list endpoint until total items were read or a
// page comes back empty. When the total is TotalUnknown it stops at the first
// page whose size differs from the limit; a longer page means the endpoint
// ignored paging and already returned everything.
func CollectAll[T any](fetch func(Page) (*ListResult[T], error), pageSize int) ([]T, error) {
	var out []T
	page := Page{Limit: pageSize}
	for {
		res, err := fetch(page)
		if err != nil {
			return nil, err
		}
		out = append(out, res.Results...)
		if len(res.Results) == 0 {
			return out, nil
		}
		if res.Total == TotalUnknown {
			if len(res.Results) != page.Limit {
				return out, nil
			}
		} else if int64(len(out)) >= res.Total {
			return out, nil
		}
		page.Skip += len(res.Results)
	}
}
