package rt

import (
	"slices"
	"sync"
)

// Method is a native method body. self is borrowed; the result is owned by the caller.
type Method func(self *Value, args ...*Value) *Value

type pkg struct {
	name    string
	parents []string
	methods map[string]Method
}

type lookupKey struct {
	pkg    string
	method string
}

type lookupHit struct {
	owner string
	fn    Method
}

// registry holds every package of the process. Lookups are memoized; the
// memo is dropped whenever a package gains a parent or a method.
type registry struct {
	mu      sync.RWMutex
	pkgs    map[string]*pkg
	order   []string
	memo    map[lookupKey]lookupHit
	gen     uint64
	current string
}

var classes = &registry{
	pkgs: make(map[string]*pkg),
	memo: make(map[lookupKey]lookupHit),
}

// ensure registers name if unseen. Caller holds mu for writing.
func (r *registry) ensure(name string) *pkg {
	if p, ok := r.pkgs[name]; ok {
		return p
	}
	p := &pkg{name: name, methods: make(map[string]Method)}
	r.pkgs[name] = p
	r.order = append(r.order, name)
	return p
}

// invalidate drops memoized lookups. Caller holds mu for writing.
func (r *registry) invalidate() {
	clear(r.memo)
	r.gen++
}

func (r *registry) register(name string) {
	r.mu.RLock()
	_, ok := r.pkgs[name]
	r.mu.RUnlock()
	if ok {
		return
	}
	r.mu.Lock()
	r.ensure(name)
	r.mu.Unlock()
}

// find is the depth-first, left-to-right search. Caller holds mu.
func (r *registry) find(name, method string, visited map[string]bool) (string, Method) {
	if visited[name] {
		return "", nil
	}
	visited[name] = true
	p := r.pkgs[name]
	if p == nil {
		return "", nil
	}
	if fn, ok := p.methods[method]; ok {
		return name, fn
	}
	for _, parent := range p.parents {
		if owner, fn := r.find(parent, method, visited); fn != nil {
			return owner, fn
		}
	}
	return "", nil
}

func (r *registry) lookup(name, method string) (string, Method) {
	key := lookupKey{pkg: name, method: method}
	r.mu.RLock()
	hit, ok := r.memo[key]
	gen := r.gen
	if !ok {
		hit.owner, hit.fn = r.find(name, method, make(map[string]bool))
	}
	r.mu.RUnlock()
	if !ok {
		r.mu.Lock()
		if r.gen == gen {
			r.memo[key] = hit
		}
		r.mu.Unlock()
	}
	return hit.owner, hit.fn
}

func (r *registry) isa(name, target string, visited map[string]bool) bool {
	if name == target {
		return true
	}
	if visited[name] {
		return false
	}
	visited[name] = true
	p := r.pkgs[name]
	if p == nil {
		return false
	}
	for _, parent := range p.parents {
		if r.isa(parent, target, visited) {
			return true
		}
	}
	return false
}

// SetPackage sets the package that package-scoped operations apply to.
func SetPackage(name string) {
	classes.mu.Lock()
	classes.ensure(name)
	classes.current = name
	classes.mu.Unlock()
}

// CurrentPackage returns the package set by SetPackage, or "".
func CurrentPackage() string {
	classes.mu.RLock()
	defer classes.mu.RUnlock()
	return classes.current
}

// Bless tags ref with pkg, replacing any prior tag.
func Bless(ref *Value, pkg string) error {
	if ref.Kind() != KindRef {
		return newError(CodeNotReference, "can't bless non-reference %s value into %q", ref.Kind(), pkg)
	}
	classes.register(pkg)
	ref.blessed = pkg
	traceBless(pkg)
	return nil
}

// Blessed returns the package of an object, or "" for anything unblessed.
func Blessed(v *Value) string {
	if v.Kind() != KindRef {
		return ""
	}
	return v.blessed
}

// Inherit appends parent to child's parent list. Adding an existing parent is a no-op.
func Inherit(child, parent string) {
	if child == parent {
		return
	}
	classes.mu.Lock()
	c := classes.ensure(child)
	classes.ensure(parent)
	added := !slices.Contains(c.parents, parent)
	if added {
		c.parents = append(c.parents, parent)
		classes.invalidate()
	}
	classes.mu.Unlock()
	if added {
		traceInherit(child, parent)
	}
}

// InheritFrom makes the current package inherit from parent.
func InheritFrom(parent string) error {
	cur := CurrentPackage()
	if cur == "" {
		return newError(CodeNoPackage, "inherit %q outside of a package", parent)
	}
	Inherit(cur, parent)
	return nil
}

// RegisterMethod defines or replaces pkg::name.
func RegisterMethod(pkg, name string, fn Method) {
	classes.mu.Lock()
	classes.ensure(pkg).methods[name] = fn
	classes.invalidate()
	classes.mu.Unlock()
	traceRegister(pkg, name)
}

// LookupMethod resolves method starting at pkg and reports the defining package.
func LookupMethod(pkg, method string) (Method, string, bool) {
	owner, fn := classes.lookup(pkg, method)
	return fn, owner, fn != nil
}

// Isa reports whether obj's package is pkg or inherits from it.
func Isa(obj *Value, pkg string) bool {
	name := Blessed(obj)
	if name == "" {
		return false
	}
	return PackageIsa(name, pkg)
}

// PackageIsa is Isa on a package name.
func PackageIsa(name, target string) bool {
	classes.mu.RLock()
	defer classes.mu.RUnlock()
	return classes.isa(name, target, make(map[string]bool))
}

// Can reports whether method resolves for obj.
func Can(obj *Value, method string) bool {
	name := Blessed(obj)
	if name == "" {
		return false
	}
	_, _, ok := LookupMethod(name, method)
	return ok
}

// Packages lists registered packages in registration order.
func Packages() []string {
	classes.mu.RLock()
	defer classes.mu.RUnlock()
	return slices.Clone(classes.order)
}

// Parents returns the direct parents of pkg in order.
func Parents(pkg string) []string {
	classes.mu.RLock()
	defer classes.mu.RUnlock()
	if p := classes.pkgs[pkg]; p != nil {
		return slices.Clone(p.parents)
	}
	return nil
}

// ParentPackage returns the first parent of pkg, or "".
func ParentPackage(pkg string) string {
	if parents := Parents(pkg); len(parents) > 0 {
		return parents[0]
	}
	return ""
}

// Methods lists the names defined directly on pkg, sorted.
func Methods(pkg string) []string {
	classes.mu.RLock()
	defer classes.mu.RUnlock()
	p := classes.pkgs[pkg]
	if p == nil {
		return nil
	}
	names := make([]string, 0, len(p.methods))
	for name := range p.methods {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
