package hive

// Env is one scope of the environment chain. Each scope owns its bindings
// and holds a non-owning reference to the enclosing scope. Closures keep the
// scopes they were created in alive.
type Env struct {
	p *Env

	names []string
	n     map[string]*Value
}

// NewEnv creates a scope nested in parent. A nil parent creates a root
// scope.
func NewEnv(parent *Env) *Env {
	return &Env{
		p: parent,
		n: make(map[string]*Value),
	}
}

// NewGlobalEnvironment creates the root scope populated with every builtin
// of reg.
func NewGlobalEnvironment(reg *Registry) *Env {
	env := NewEnv(nil)
	for _, name := range reg.Names() {
		b, _ := reg.Lookup(name)
		env.Define(name, NewBuiltinValue(b))
	}
	return env
}

// Parent returns the enclosing scope.
func (e *Env) Parent() *Env {
	return e.p
}

// Define binds name in this scope, replacing any previous binding here.
func (e *Env) Define(name string, value *Value) {
	if _, ok := e.n[name]; !ok {
		e.names = append(e.names, name)
	}
	e.n[name] = value
}

// Get looks name up, walking the chain outwards.
func (e *Env) Get(name string) (*Value, bool) {
	for st := e; st != nil; st = st.p {
		if value, ok := st.n[name]; ok {
			return value, true
		}
	}
	return nil, false
}

// Local looks name up in this scope only.
func (e *Env) Local(name string) (*Value, bool) {
	value, ok := e.n[name]
	return value, ok
}

// Names returns the names bound in this scope, in definition order.
func (e *Env) Names() []string {
	names := make([]string, len(e.names))
	copy(names, e.names)
	return names
}

// Visible returns every name reachable from this scope.
func (e *Env) Visible() []string {
	seen := map[string]bool{}
	names := []string{}
	for st := e; st != nil; st = st.p {
		for _, name := range st.names {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	return names
}
