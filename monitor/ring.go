package monitor

// ring is a fixed-capacity sample window. Once full, each push overwrites
// the oldest sample, so statistics computed from it cover the most recent
// capacity samples and memory stays bounded no matter how long the
// process runs.
type ring struct {
	buf  []float64
	head int
	size int
}

func newRing(capacity int) *ring {
	return &ring{buf: make([]float64, capacity)}
}

func (r *ring) push(v float64) {
	r.buf[r.head] = v
	r.head = (r.head + 1) % len(r.buf)
	if r.size < len(r.buf) {
		r.size++
	}
}

func (r *ring) len() int {
	return r.size
}

// summarize returns mean, max, and min over the window. Empty windows
// return zeros.
func (r *ring) summarize() (mean, max, min float64) {
	if r.size == 0 {
		return 0, 0, 0
	}

	min = r.buf[0]
	for i := 0; i < r.size; i++ {
		v := r.buf[i]
		mean += v
		if v > max {
			max = v
		}
		if v < min {
			min = v
		}
	}
	mean /= float64(r.size)
	return mean, max, min
}

// mean returns just the window average.
func (r *ring) mean() float64 {
	m, _, _ := r.summarize()
	return m
}
