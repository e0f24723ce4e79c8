// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package arraysim

// history is a fixed capacity ring buffer of samples. Once full, each push
// evicts the oldest sample.
//
type history struct {
	buf  []float64
	head int // index of the next write
	n    int
}

func newHistory(capacity int) *history {
	return &history{buf: make([]float64, capacity)}
}

func (h *history) push(v float64) {
	h.buf[h.head] = v
	h.head++
	if h.head == len(h.buf) {
		h.head = 0
	}
	if h.n < len(h.buf) {
		h.n++
	}
}

func (h *history) len() int { return h.n }

// at returns the sample pushed back pushes before the newest one. at(0) is
// the newest sample. back must be in [0, h.len()).
//
func (h *history) at(back int) float64 {
	i := h.head - 1 - back
	if i < 0 {
		i += len(h.buf)
	}
	return h.buf[i]
}
