package indicators

// Cache memoizes computed indicator series within a single backtest run.
// Rules with identical kind and parameters share one computed series through
// their canonical key. The cache is owned by exactly one run; it must never
// be shared across runs, or parameter collisions between concurrent requests
// would leak series between them.
type Cache struct {
	series map[string][]float64
}

func NewCache() *Cache {
	return &Cache{series: make(map[string][]float64)}
}

// Get returns the series stored under key, computing and storing it on the
// first request.
func (c *Cache) Get(key string, compute func() []float64) []float64 {
	if s, ok := c.series[key]; ok {
		return s
	}
	s := compute()
	c.series[key] = s
	return s
}

// GetPair is Get for indicators that produce two lines at once (MACD and
// signal, %K and %D, upper and lower bands). Both lines are stored under
// their own keys on the first request.
func (c *Cache) GetPair(keyA, keyB string, compute func() ([]float64, []float64)) ([]float64, []float64) {
	a, okA := c.series[keyA]
	b, okB := c.series[keyB]
	if okA && okB {
		return a, b
	}
	a, b = compute()
	c.series[keyA] = a
	c.series[keyB] = b
	return a, b
}

// Len reports how many distinct series have been computed.
func (c *Cache) Len() int { return len(c.series) }
