package game

import "encoding/json"

// Ring keeps the newest Cap items; pushing onto a full ring evicts the oldest.
type Ring[T any] struct {
	buf   []T
	head  int
	size  int
	limit int
}

func NewRing[T any](capacity int) *Ring[T] {
	if capacity <= 0 {
		capacity = HistoryCap
	}
	return &Ring[T]{buf: make([]T, capacity), limit: capacity}
}

func (r *Ring[T]) Cap() int { return r.limit }

func (r *Ring[T]) Len() int {
	if r == nil {
		return 0
	}
	return r.size
}

func (r *Ring[T]) Push(v T) {
	if r.limit == 0 {
		*r = *NewRing[T](HistoryCap)
	}
	idx := (r.head + r.size) % r.limit
	r.buf[idx] = v
	if r.size < r.limit {
		r.size++
		return
	}
	r.head = (r.head + 1) % r.limit
}

// Items returns a copy, oldest first.
func (r *Ring[T]) Items() []T {
	if r == nil {
		return nil
	}
	out := make([]T, r.size)
	for i := 0; i < r.size; i++ {
		out[i] = r.buf[(r.head+i)%r.limit]
	}
	return out
}

// Last returns up to n of the newest items, oldest first.
func (r *Ring[T]) Last(n int) []T {
	items := r.Items()
	if n >= len(items) || n < 0 {
		return items
	}
	return items[len(items)-n:]
}

type ringJSON[T any] struct {
	Cap   int `json:"cap"`
	Items []T `json:"items"`
}

func (r *Ring[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(ringJSON[T]{Cap: r.limit, Items: r.Items()})
}

func (r *Ring[T]) UnmarshalJSON(raw []byte) error {
	var in ringJSON[T]
	if err := json.Unmarshal(raw, &in); err != nil {
		return err
	}
	*r = *NewRing[T](in.Cap)
	for _, v := range in.Items {
		r.Push(v)
	}
	return nil
}
