package strategy

// Streaming indicators over daily closes. Each keeps just enough state to be
// updated one value at a time, so strategies stay single-pass over the bar
// sequence.

// SMAState is a streaming simple moving average.
type SMAState struct {
	period int
	window []float64
	sum    float64
}

func NewSMA(period int) *SMAState {
	return &SMAState{
		period: period,
		window: make([]float64, 0, period),
	}
}

func (s *SMAState) Update(x float64) {
	s.window = append(s.window, x)
	s.sum += x
	if len(s.window) > s.period {
		s.sum -= s.window[0]
		s.window = s.window[1:]
	}
}

func (s *SMAState) Ready() bool {
	return len(s.window) >= s.period
}

func (s *SMAState) Value() float64 {
	if !s.Ready() {
		return 0
	}
	return s.sum / float64(len(s.window))
}

// EMAState is a streaming exponential moving average. The first value seeds
// the average; Ready flips once period values have been seen.
type EMAState struct {
	period int
	alpha  float64
	value  float64
	count  int
}

func NewEMA(period int) *EMAState {
	return &EMAState{
		period: period,
		alpha:  2.0 / (float64(period) + 1.0),
	}
}

func (e *EMAState) Update(x float64) {
	e.count++
	if e.count == 1 {
		e.value = x
		return
	}
	e.value = e.alpha*x + (1.0-e.alpha)*e.value
}

func (e *EMAState) Ready() bool {
	return e.count >= e.period
}

func (e *EMAState) Value() float64 { return e.value }

// ChannelState tracks the highest high and lowest low over a rolling window.
type ChannelState struct {
	period int
	highs  []float64
	lows   []float64
}

func NewChannel(period int) *ChannelState {
	return &ChannelState{period: period}
}

func (c *ChannelState) Update(high, low float64) {
	c.highs = append(c.highs, high)
	c.lows = append(c.lows, low)
	if len(c.highs) > c.period {
		c.highs = c.highs[1:]
		c.lows = c.lows[1:]
	}
}

func (c *ChannelState) Ready() bool {
	return len(c.highs) >= c.period
}

// High returns the highest high in the window.
func (c *ChannelState) High() float64 {
	max := c.highs[0]
	for _, v := range c.highs[1:] {
		if v > max {
			max = v
		}
	}
	return max
}

// Low returns the lowest low in the window.
func (c *ChannelState) Low() float64 {
	min := c.lows[0]
	for _, v := range c.lows[1:] {
		if v < min {
			min = v
		}
	}
	return min
}
