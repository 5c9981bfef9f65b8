package formula

// CacheStats is a point-in-time snapshot of cache occupancy and
// configuration, as reported by Engine.GetCacheStats.
type CacheStats struct {
	FormulaCacheSize int
	ResultCacheSize  int
	MaxCacheSize     int
	CacheEnabled     bool
}

// resultCache holds the engine's two cache tiers: parsed trees keyed by
// formula text, and computed results keyed by formula text plus the
// active evaluation chain. Both tiers share one capacity. When a tier
// fills up, the older half of its entries (insertion order) is
// discarded; predictable and cheap beats LRU bookkeeping here.
type resultCache struct {
	enabled bool
	maxSize int

	formulas     map[string]ASTNode
	formulaOrder []string

	results     map[string]Value
	resultOrder []string
}

func newResultCache(enabled bool, maxSize int) *resultCache {
	return &resultCache{
		enabled:  enabled && maxSize > 0,
		maxSize:  maxSize,
		formulas: make(map[string]ASTNode),
		results:  make(map[string]Value),
	}
}

// resultKey builds the cache fingerprint for a result entry. The chain
// disambiguates nested re-entrant evaluations of the same literal text
// at different addresses.
func resultKey(formula, chain string) string {
	return formula + "|" + chain
}

func (c *resultCache) lookupFormula(formula string) (ASTNode, bool) {
	if !c.enabled {
		return nil, false
	}
	node, ok := c.formulas[formula]
	return node, ok
}

func (c *resultCache) storeFormula(formula string, node ASTNode) {
	if !c.enabled {
		return
	}
	if _, exists := c.formulas[formula]; exists {
		c.formulas[formula] = node
		return
	}
	if len(c.formulaOrder) >= c.maxSize {
		c.formulaOrder = evictOlderHalf(c.formulas, c.formulaOrder)
	}
	c.formulas[formula] = node
	c.formulaOrder = append(c.formulaOrder, formula)
}

func (c *resultCache) lookupResult(key string) (Value, bool) {
	if !c.enabled {
		return nil, false
	}
	value, ok := c.results[key]
	return value, ok
}

func (c *resultCache) storeResult(key string, value Value) {
	if !c.enabled {
		return
	}
	if _, exists := c.results[key]; exists {
		c.results[key] = value
		return
	}
	if len(c.resultOrder) >= c.maxSize {
		c.resultOrder = evictOlderHalf(c.results, c.resultOrder)
	}
	c.results[key] = value
	c.resultOrder = append(c.resultOrder, key)
}

// evictOlderHalf deletes the older half of the entries, rounding up so
// a capacity of one still frees a slot. Returns the surviving order.
func evictOlderHalf[V any](entries map[string]V, order []string) []string {
	cut := (len(order) + 1) / 2
	for _, key := range order[:cut] {
		delete(entries, key)
	}
	survivors := make([]string, len(order)-cut)
	copy(survivors, order[cut:])
	return survivors
}

// clear empties both tiers
func (c *resultCache) clear() {
	c.formulas = make(map[string]ASTNode)
	c.formulaOrder = nil
	c.results = make(map[string]Value)
	c.resultOrder = nil
}

func (c *resultCache) stats() CacheStats {
	return CacheStats{
		FormulaCacheSize: len(c.formulas),
		ResultCacheSize:  len(c.results),
		MaxCacheSize:     c.maxSize,
		CacheEnabled:     c.enabled,
	}
}
