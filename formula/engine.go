package formula

// CellResolver supplies the value behind a cell address. Hosts that
// store formulas in cells typically re-enter the engine from their
// resolver; circular chains are caught by the cycle guard and surface
// as a circular reference error.
type CellResolver func(address string) (Value, error)

// Config carries engine construction options
type Config struct {
	// CacheEnabled turns the formula and result caches on
	CacheEnabled bool
	// MaxCacheSize bounds each cache tier
	MaxCacheSize int
	// Clock supplies the time for NOW, TODAY, YEAR, MONTH, DAY.
	// nil means wall-clock time.
	Clock Clock
}

// DefaultConfig returns the default engine configuration: caching
// enabled with room for 1000 entries per tier, wall-clock time
func DefaultConfig() *Config {
	return &Config{
		CacheEnabled: true,
		MaxCacheSize: 1000,
		Clock:        &WallClock{},
	}
}

// Engine evaluates spreadsheet formulas: tokenize, parse, evaluate,
// with a per-instance function registry, bounded caching, and circular
// reference detection. Engines share nothing, so independent workers
// each get their own.
//
// An Engine is not safe for concurrent use: the cycle guard stack and
// the caches are mutated in place during Calculate. Use one engine per
// goroutine or serialize calls externally.
type Engine struct {
	registry  *Registry
	functions *builtins
	cache     *resultCache
	guard     cycleGuard
	resolver  CellResolver
}

// EngineInterface lists the operations hosts program against
type EngineInterface interface {
	Calculate(formula, address string) (Value, error)
	SetCellResolver(resolver CellResolver)
	AddFunction(name string, fn Function)
	ClearCache()
	GetCacheStats() CacheStats
	GetSupportedFunctions() []string
}

var _ EngineInterface = (*Engine)(nil)

// NewEngine creates an engine with all built-in functions seeded.
// A nil config means DefaultConfig().
func NewEngine(config *Config) *Engine {
	if config == nil {
		config = DefaultConfig()
	}
	clock := config.Clock
	if clock == nil {
		clock = &WallClock{}
	}

	registry := NewRegistry()
	functions := newBuiltins(clock)
	functions.install(registry)

	return &Engine{
		registry:  registry,
		functions: functions,
		cache:     newResultCache(config.CacheEnabled, config.MaxCacheSize),
	}
}

// Calculate evaluates a formula. address names the cell the formula
// lives at and may be empty for free-standing expressions; a non-empty
// address participates in circular reference detection. Failures are
// never cached, and the guard stack is restored on every exit path.
func (e *Engine) Calculate(formula, address string) (Value, error) {
	if address != "" {
		if err := e.guard.push(address); err != nil {
			return nil, err
		}
		defer e.guard.pop()
	}

	// the key carries the active chain, current address included, so
	// re-entrant evaluations of identical text at different addresses
	// stay distinct
	key := resultKey(formula, e.guard.fingerprint())
	if value, ok := e.cache.lookupResult(key); ok {
		return value, nil
	}

	node, err := e.parse(formula)
	if err != nil {
		return nil, err
	}

	value, err := e.eval(node)
	if err != nil {
		return nil, err
	}

	e.cache.storeResult(key, value)
	return value, nil
}

// parse returns the AST for the formula text, consulting the formula
// cache first
func (e *Engine) parse(formula string) (ASTNode, error) {
	if node, ok := e.cache.lookupFormula(formula); ok {
		return node, nil
	}

	tokens := NewLexer(formula).Tokenize()
	node, err := NewParser(tokens, e.registry).Parse()
	if err != nil {
		return nil, err
	}

	e.cache.storeFormula(formula, node)
	return node, nil
}

// eval evaluates a parsed tree. An empty formula evaluates to 0.
func (e *Engine) eval(node ASTNode) (Value, error) {
	if node == nil {
		return int64(0), nil
	}
	return node.Eval(e)
}

// resolveCell looks up a referenced cell through the host resolver.
// With no resolver installed every reference is 0.
func (e *Engine) resolveCell(address string) (Value, error) {
	if e.resolver == nil {
		return int64(0), nil
	}
	return e.resolver(address)
}

// SetCellResolver installs the host callback used for cell references
func (e *Engine) SetCellResolver(resolver CellResolver) {
	e.resolver = resolver
}

// AddFunction registers or overrides a function, case-insensitively by
// name. Cached results of formulas that already called the old
// registration are not invalidated; call ClearCache when re-registering
// a name with different semantics.
func (e *Engine) AddFunction(name string, fn Function) {
	e.registry.Register(name, fn)
}

// ClearCache empties the formula and result caches
func (e *Engine) ClearCache() {
	e.cache.clear()
}

// GetCacheStats reports cache occupancy and configuration
func (e *Engine) GetCacheStats() CacheStats {
	return e.cache.stats()
}

// GetSupportedFunctions returns the names of all callable functions,
// built-in and host-registered, sorted
func (e *Engine) GetSupportedFunctions() []string {
	return e.registry.Names()
}
