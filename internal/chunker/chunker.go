package chunker

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dshills/chunklink/internal/graph"
	"github.com/dshills/chunklink/internal/options"
	"github.com/dshills/chunklink/pkg/types"
)

// Reporter receives recoverable anomalies
type Reporter interface {
	Warn(ev *types.Event) error
}

// Policy holds the allocation inputs taken from normalized options
type Policy struct {
	Entries                 []options.Entry
	Manual                  *options.ManualChunks
	InlineDynamicImports    bool
	PreserveModules         bool
	PreserveEntrySignatures options.EntrySignatures
	ModuleSideEffects       options.SideEffectsFunc
}

// Chunker partitions the included modules of a frozen graph into chunks
type Chunker struct {
	graph    *graph.Graph
	edges    *graph.Edges
	policy   Policy
	reporter Reporter

	// Traversal state, rebuilt by every Allocate call
	order          []string       // needed modules in discovery order
	position       map[string]int // discovery index
	dynamicTargets []string       // internal dynamic targets in discovery order
	included       map[string]bool
	exec           map[string]int // global execution index
	entryIndex     map[string]int // first input position of each entry module
}

// New creates a new Chunker for one build
func New(g *graph.Graph, edges *graph.Edges, policy Policy, reporter Reporter) *Chunker {
	if policy.PreserveEntrySignatures == "" {
		policy.PreserveEntrySignatures = options.SignaturesExportsOnly
	}
	return &Chunker{
		graph:    g,
		edges:    edges,
		policy:   policy,
		reporter: reporter,
	}
}

// group is a chunk under construction
type group struct {
	kind      types.ChunkKind
	candidate string           // name before deduplication
	seed      *graph.Component // root unit of entry and dynamic groups
	units     []*graph.Component
	entries   []options.Entry
	colors    rootSet
	firstPos  int // discovery position of the earliest member
	rootMoved bool
}

// chunkSpec is a chunk whose name is not final yet
type chunkSpec struct {
	kind      types.ChunkKind
	candidate string
	name      string
	entries   []options.Entry
	modules   []string
	facadeOf  *chunkSpec
	deps      []*chunkSpec
	base      int // position in base order
}

// Allocate computes the chunk set. Identical inputs give identical chunk
// names, module orders and chunk order.
func (c *Chunker) Allocate() (*types.ChunkSet, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}

	c.discover()
	c.computeInclusion()
	c.computeExecOrder()

	var groups []*group
	var err error
	if c.policy.PreserveModules {
		groups = c.preserveModuleGroups()
	} else {
		groups, err = c.automaticGroups()
		if err != nil {
			return nil, err
		}
	}

	specs, err := c.buildSpecs(groups)
	if err != nil {
		return nil, err
	}

	c.assignNames(specs)
	c.computeDependencies(specs)

	ordered, err := c.sortChunks(specs)
	if err != nil {
		return nil, err
	}

	return c.freeze(ordered)
}

// validate checks entries and manual assignments against the graph
func (c *Chunker) validate() error {
	if len(c.policy.Entries) == 0 {
		return types.ConfigError(types.CodeMissingEntry, "no entry modules were configured")
	}
	for _, e := range c.policy.Entries {
		if !c.graph.Has(e.ID) {
			return types.ConfigError(types.CodeMissingEntry, "could not resolve entry module %q", e.ID)
		}
	}
	for _, id := range c.policy.Manual.Declared() {
		if !c.graph.Has(id) {
			name, _ := c.policy.Manual.Lookup(id)
			return types.ConfigError(types.CodeMissingManualModule,
				"manual chunk %q names module %q which is not part of the module graph", name, id)
		}
	}
	return nil
}

// staticNext returns static internal targets in declaration order
func (c *Chunker) staticNext(id string) []string {
	edges := c.edges.Static(id)
	out := make([]string, 0, len(edges))
	for _, e := range edges {
		out = append(out, e.To)
	}
	return out
}

// allocNext is staticNext plus dynamic targets when dynamic imports are inlined
func (c *Chunker) allocNext(id string) []string {
	out := c.staticNext(id)
	if c.policy.InlineDynamicImports {
		for _, e := range c.edges.Dynamic(id) {
			out = append(out, e.To)
		}
	}
	return out
}

// discover walks from the entries, static imports first-import-first, then
// dynamic targets in the order they were seen, then manually declared modules
func (c *Chunker) discover() {
	c.order = nil
	c.position = make(map[string]int)
	c.dynamicTargets = nil
	seenDynamic := make(map[string]bool)

	var visit func(id string)
	visit = func(id string) {
		if _, ok := c.position[id]; ok {
			return
		}
		c.position[id] = len(c.order)
		c.order = append(c.order, id)

		for _, to := range c.allocNext(id) {
			visit(to)
		}
		for _, e := range c.edges.Dynamic(id) {
			if !seenDynamic[e.To] {
				seenDynamic[e.To] = true
				c.dynamicTargets = append(c.dynamicTargets, e.To)
			}
		}
	}

	for _, e := range c.policy.Entries {
		visit(e.ID)
	}
	// dynamicTargets grows while it is walked
	for i := 0; i < len(c.dynamicTargets); i++ {
		visit(c.dynamicTargets[i])
	}
	for _, id := range c.policy.Manual.Declared() {
		visit(id)
	}

	c.entryIndex = make(map[string]int)
	for i, e := range c.policy.Entries {
		if _, ok := c.entryIndex[e.ID]; !ok {
			c.entryIndex[e.ID] = i
		}
	}
}

// computeInclusion applies the inclusion rules to every needed module
func (c *Chunker) computeInclusion() {
	c.included = make(map[string]bool, len(c.order))
	dynamic := make(map[string]bool, len(c.dynamicTargets))
	for _, id := range c.dynamicTargets {
		dynamic[id] = true
	}

	for _, id := range c.order {
		mod, _ := c.graph.Module(id)
		_, isEntry := c.entryIndex[id]
		c.included[id] = isEntry || dynamic[id] || mod.HasIncludedExports() || c.hasSideEffects(mod)
	}
}

func (c *Chunker) hasSideEffects(mod *types.Module) bool {
	switch mod.SideEffects {
	case types.SideEffectsAlways:
		return true
	case types.SideEffectsNever:
		return false
	case types.SideEffectsOnExternal:
		for _, e := range c.edges.External(mod.ID) {
			if e.IsStatic() && c.externalHasSideEffects(e.To) {
				return true
			}
		}
		return false
	default:
		if c.policy.ModuleSideEffects == nil {
			return true
		}
		return c.policy.ModuleSideEffects(mod.ID, false)
	}
}

func (c *Chunker) externalHasSideEffects(id string) bool {
	if c.policy.ModuleSideEffects == nil {
		return true
	}
	return c.policy.ModuleSideEffects(id, true)
}

// computeExecOrder numbers modules by depth-first post-order over static
// imports. Entries come first, then dynamic targets, then manual modules.
func (c *Chunker) computeExecOrder() {
	c.exec = make(map[string]int, len(c.order))
	visited := make(map[string]bool, len(c.order))

	var visit func(id string)
	visit = func(id string) {
		if visited[id] {
			return
		}
		visited[id] = true
		for _, to := range c.staticNext(id) {
			visit(to)
		}
		c.exec[id] = len(c.exec)
	}

	for _, e := range c.policy.Entries {
		visit(e.ID)
	}
	for _, id := range c.dynamicTargets {
		visit(id)
	}
	// Anything left was reached only through manual declarations
	for _, id := range c.order {
		visit(id)
	}
}

// automaticGroups colors atomic units by the chunk roots reaching them and
// groups them, then applies manual assignments
func (c *Chunker) automaticGroups() ([]*group, error) {
	comps, unitOf := graph.Components(c.order, c.allocNext)

	unitPos := func(u *graph.Component) int {
		p := len(c.order)
		for _, m := range u.Members {
			if c.position[m] < p {
				p = c.position[m]
			}
		}
		return p
	}
	units := append([]*graph.Component(nil), comps...)
	sort.SliceStable(units, func(i, j int) bool { return unitPos(units[i]) < unitPos(units[j]) })

	// Roots: entries in input order, then dynamic targets in discovery order
	var roots []*group
	rootOf := make(map[*graph.Component]int)
	addRoot := func(id string, kind types.ChunkKind, name string) {
		u := unitOf[id]
		if _, ok := rootOf[u]; ok {
			return
		}
		rootOf[u] = len(roots)
		roots = append(roots, &group{kind: kind, candidate: name, seed: u, units: []*graph.Component{u}, firstPos: unitPos(u)})
	}
	for _, e := range c.policy.Entries {
		addRoot(e.ID, types.ChunkEntry, e.Name)
	}
	if !c.policy.InlineDynamicImports {
		for _, id := range c.dynamicTargets {
			addRoot(id, types.ChunkDynamic, options.EntryName(id))
		}
	}

	// Color every unit with the roots that statically reach it
	colors := make(map[*graph.Component]rootSet, len(units))
	unitNext := func(u *graph.Component) []*graph.Component {
		var out []*graph.Component
		seen := map[*graph.Component]bool{u: true}
		for _, m := range u.Members {
			for _, to := range c.allocNext(m) {
				if v := unitOf[to]; !seen[v] {
					seen[v] = true
					out = append(out, v)
				}
			}
		}
		return out
	}
	for i, r := range roots {
		visited := make(map[*graph.Component]bool)
		var color func(u *graph.Component)
		color = func(u *graph.Component) {
			if visited[u] {
				return
			}
			visited[u] = true
			colors[u] = colors[u].add(i)
			for _, v := range unitNext(u) {
				color(v)
			}
		}
		color(r.units[0])
	}
	for _, r := range roots {
		r.colors = colors[r.units[0]]
	}

	// Non-root units join the root chunk that every reaching root loads,
	// or a shared chunk keyed by their root set
	groupOf := make(map[*graph.Component]*group, len(units))
	var shared []*group
	sharedByKey := make(map[string]*group)
	rootByKey := make(map[string]*group)
	for _, r := range roots {
		if _, ok := rootByKey[r.colors.key()]; !ok {
			rootByKey[r.colors.key()] = r
		}
	}

	for _, u := range units {
		if i, ok := rootOf[u]; ok {
			groupOf[u] = roots[i]
			continue
		}

		set := colors[u]
		var g *group
		switch {
		case set.count() == 1:
			g = roots[set.members()[0]]
		case rootByKey[set.key()] != nil:
			g = rootByKey[set.key()]
		default:
			g = sharedByKey[set.key()]
			if g == nil {
				first := u.Members[0]
				for _, m := range u.Members {
					if c.position[m] < c.position[first] {
						first = m
					}
				}
				g = &group{kind: types.ChunkShared, candidate: options.EntryName(first), colors: set, firstPos: unitPos(u)}
				sharedByKey[set.key()] = g
				shared = append(shared, g)
			}
		}
		g.units = append(g.units, u)
		groupOf[u] = g
	}

	manual, err := c.applyManual(units, groupOf, colors, unitPos)
	if err != nil {
		return nil, err
	}

	// Entries are attached to whichever group now holds their module
	for _, e := range c.policy.Entries {
		g := groupOf[unitOf[e.ID]]
		g.entries = append(g.entries, e)
	}

	// Base order: roots, manual chunks, then shared chunks
	out := make([]*group, 0, len(roots)+len(manual)+len(shared))
	out = append(out, roots...)
	out = append(out, manual...)
	out = append(out, shared...)

	for _, g := range out {
		if g.rootMoved {
			g.kind = types.ChunkShared
			g.candidate = ""
		}
	}
	return out, nil
}

// applyManual moves manually assigned units out of their automatic groups
func (c *Chunker) applyManual(units []*graph.Component, groupOf map[*graph.Component]*group,
	colors map[*graph.Component]rootSet, unitPos func(*graph.Component) int) ([]*group, error) {

	if c.policy.Manual.Empty() {
		return nil, nil
	}

	var manual []*group
	byName := make(map[string]*group)
	autoOf := make(map[*group][]*group) // manual group -> distinct automatic groups it drew from

	for _, u := range units {
		name, ok, err := c.manualName(u)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}

		auto := groupOf[u]
		auto.units = removeUnit(auto.units, u)
		if auto.seed == u {
			auto.rootMoved = true
		}

		g := byName[name]
		if g == nil {
			g = &group{kind: types.ChunkManual, candidate: name, firstPos: unitPos(u)}
			byName[name] = g
			manual = append(manual, g)
		}
		g.units = append(g.units, u)
		g.colors = g.colors.union(colors[u])
		groupOf[u] = g

		if !containsGroup(autoOf[g], auto) {
			autoOf[g] = append(autoOf[g], auto)
		}
	}

	// One warning per manual chunk that merged separate automatic chunks
	for _, g := range manual {
		if len(autoOf[g]) < 2 || g.colors.count() < 2 {
			continue
		}
		widened := false
		for _, u := range g.units {
			if colors[u].key() != g.colors.key() {
				widened = true
				break
			}
		}
		if !widened {
			continue
		}

		ev := types.NewEvent(types.CodeManualChunkMerge, fmt.Sprintf(
			"manual chunk %q merges modules from %d separate automatic chunks; they are now loaded together by every chunk that needed any of them",
			g.candidate, len(autoOf[g])))
		ev.Names = g.memberIDs()
		if err := c.warn(ev); err != nil {
			return nil, err
		}
	}

	return manual, nil
}

// manualName returns the manual chunk of a unit. A cycle whose members
// name different chunks stays whole in the first member's chunk.
func (c *Chunker) manualName(u *graph.Component) (string, bool, error) {
	members := append([]string(nil), u.Members...)
	sort.SliceStable(members, func(i, j int) bool { return c.position[members[i]] < c.position[members[j]] })

	var chosen string
	var names []string
	for _, m := range members {
		name, ok := c.policy.Manual.Lookup(m)
		if !ok {
			continue
		}
		if chosen == "" {
			chosen = name
		}
		if !contains(names, name) {
			names = append(names, name)
		}
	}

	if len(names) > 1 {
		ev := types.NewEvent(types.CodeManualChunkCycleSplit, fmt.Sprintf(
			"modules of a static import cycle are assigned to different manual chunks (%s); the cycle is kept together in %q",
			strings.Join(names, ", "), chosen))
		ev.ID = members[0]
		ev.Names = members
		if err := c.warn(ev); err != nil {
			return "", false, err
		}
	}

	return chosen, chosen != "", nil
}

// preserveModuleGroups makes one group per included module
func (c *Chunker) preserveModuleGroups() []*group {
	dynamic := make(map[string]bool, len(c.dynamicTargets))
	for _, id := range c.dynamicTargets {
		dynamic[id] = true
	}

	byModule := make(map[string]*group)
	var out []*group
	for _, id := range c.order {
		if !c.included[id] {
			continue
		}
		kind := types.ChunkModule
		if dynamic[id] {
			kind = types.ChunkDynamic
		}
		g := &group{
			kind:      kind,
			candidate: strings.TrimSuffix(id, extOf(id)),
			units:     []*graph.Component{{Members: []string{id}}},
			firstPos:  c.position[id],
		}
		byModule[id] = g
		out = append(out, g)
	}

	for _, e := range c.policy.Entries {
		g := byModule[e.ID]
		if len(g.entries) == 0 {
			g.kind = types.ChunkEntry
			g.candidate = e.Name
		}
		g.entries = append(g.entries, e)
	}

	// Entry chunks first, in input order
	sort.SliceStable(out, func(i, j int) bool {
		return c.groupRank(out[i]) < c.groupRank(out[j])
	})
	return out
}

func (c *Chunker) groupRank(g *group) int {
	if len(g.entries) > 0 {
		return c.entryIndex[g.entries[0].ID]
	}
	return len(c.policy.Entries) + g.firstPos
}

// buildSpecs turns groups into chunk specs, dropping empty groups and
// adding facades for entry signatures
func (c *Chunker) buildSpecs(groups []*group) ([]*chunkSpec, error) {
	var specs []*chunkSpec

	for _, g := range groups {
		var modules []string
		for _, u := range g.units {
			for _, m := range u.Members {
				if c.included[m] {
					modules = append(modules, m)
				}
			}
		}
		if len(modules) == 0 {
			continue
		}
		sort.SliceStable(modules, func(i, j int) bool { return c.exec[modules[i]] < c.exec[modules[j]] })

		candidate := g.candidate
		if candidate == "" {
			candidate = options.EntryName(c.earliest(modules))
		}

		s := &chunkSpec{kind: g.kind, candidate: candidate, entries: g.entries, modules: modules}
		specs = append(specs, s)
	}

	return c.addFacades(specs)
}

// earliest returns the module discovered first
func (c *Chunker) earliest(ids []string) string {
	first := ids[0]
	for _, id := range ids[1:] {
		if c.position[id] < c.position[first] {
			first = id
		}
	}
	return first
}

// assignNames deduplicates names: chunks carrying an entry signature are
// named first in input order, then every other chunk in base order
func (c *Chunker) assignNames(specs []*chunkSpec) {
	used := make(map[string]bool, len(specs))
	assign := func(s *chunkSpec) {
		if s.name != "" {
			return
		}
		name := s.candidate
		for n := 2; used[strings.ToLower(name)]; n++ {
			name = s.candidate + fmt.Sprint(n)
		}
		used[strings.ToLower(name)] = true
		s.name = name
	}

	carriers := append([]*chunkSpec(nil), specs...)
	sort.SliceStable(carriers, func(i, j int) bool {
		return c.signatureRank(carriers[i]) < c.signatureRank(carriers[j])
	})
	for _, s := range carriers {
		if len(s.entries) > 0 {
			assign(s)
		}
	}
	for _, s := range specs {
		assign(s)
	}
}

func (c *Chunker) signatureRank(s *chunkSpec) int {
	if len(s.entries) == 0 {
		return len(c.policy.Entries)
	}
	return c.entryIndex[s.entries[0].ID]
}

// computeDependencies links each chunk to the chunks its modules statically
// import, looking through modules that were not included
func (c *Chunker) computeDependencies(specs []*chunkSpec) {
	chunkOf := make(map[string]*chunkSpec)
	for _, s := range specs {
		for _, m := range s.modules {
			chunkOf[m] = s
		}
	}

	for _, s := range specs {
		if s.facadeOf != nil {
			s.deps = []*chunkSpec{s.facadeOf}
			continue
		}

		seen := map[*chunkSpec]bool{s: true}
		visited := make(map[string]bool)
		var walk func(id string)
		walk = func(id string) {
			for _, to := range c.staticNext(id) {
				if visited[to] {
					continue
				}
				visited[to] = true
				if !c.included[to] {
					walk(to)
					continue
				}
				if dep := chunkOf[to]; dep != nil && !seen[dep] {
					seen[dep] = true
					s.deps = append(s.deps, dep)
				}
			}
		}
		for _, m := range s.modules {
			walk(m)
		}
	}
}

// sortChunks orders chunks dependencies-first, breaking ties by base order.
// A dependency cycle between chunks is reported and broken where found.
func (c *Chunker) sortChunks(specs []*chunkSpec) ([]*chunkSpec, error) {
	for i, s := range specs {
		s.base = i
	}

	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[*chunkSpec]int, len(specs))
	var stack []*chunkSpec
	var out []*chunkSpec
	var cycles [][]string
	reported := make(map[string]bool)

	var visit func(s *chunkSpec)
	visit = func(s *chunkSpec) {
		state[s] = visiting
		stack = append(stack, s)

		deps := append([]*chunkSpec(nil), s.deps...)
		sort.SliceStable(deps, func(i, j int) bool { return deps[i].base < deps[j].base })
		for _, d := range deps {
			switch state[d] {
			case unvisited:
				visit(d)
			case visiting:
				var names []string
				for i := len(stack) - 1; i >= 0; i-- {
					names = append([]string{stack[i].name}, names...)
					if stack[i] == d {
						break
					}
				}
				key := strings.Join(sortedCopy(names), "\x00")
				if !reported[key] {
					reported[key] = true
					cycles = append(cycles, names)
				}
			}
		}

		stack = stack[:len(stack)-1]
		state[s] = done
		out = append(out, s)
	}

	for _, s := range specs {
		if state[s] == unvisited {
			visit(s)
		}
	}

	for _, names := range cycles {
		ev := types.NewEvent(types.CodeCircularChunk, fmt.Sprintf(
			"circular chunk: %s -> %s. Please adjust the manual chunk logic for these chunks",
			strings.Join(names, " -> "), names[0]))
		ev.Names = names
		if err := c.warn(ev); err != nil {
			return nil, err
		}
	}

	return out, nil
}

// freeze converts specs into the frozen chunk set
func (c *Chunker) freeze(specs []*chunkSpec) (*types.ChunkSet, error) {
	set := &types.ChunkSet{
		Chunks:   make([]*types.Chunk, 0, len(specs)),
		ModuleTo: make(map[string]string),
	}

	for _, s := range specs {
		chunk := &types.Chunk{
			Name:    s.name,
			Kind:    s.kind,
			Modules: s.modules,
		}
		for _, e := range s.entries {
			chunk.Entries = append(chunk.Entries, e.ID)
		}
		if s.facadeOf != nil {
			chunk.FacadeOf = s.facadeOf.name
		}
		for _, d := range s.deps {
			chunk.Dependencies = append(chunk.Dependencies, d.name)
		}

		if err := chunk.Validate(); err != nil {
			return nil, types.InternalError(types.CodeDanglingBinding, "invalid chunk %q: %v", s.name, err)
		}
		for _, m := range s.modules {
			if prev, ok := set.ModuleTo[m]; ok {
				return nil, types.InternalError(types.CodeDanglingBinding,
					"module %q allocated to both %q and %q", m, prev, s.name)
			}
			set.ModuleTo[m] = s.name
		}
		set.Chunks = append(set.Chunks, chunk)
	}

	return set, nil
}

func (c *Chunker) warn(ev *types.Event) error {
	if c.reporter == nil {
		return nil
	}
	return c.reporter.Warn(ev)
}

func (g *group) memberIDs() []string {
	var out []string
	for _, u := range g.units {
		out = append(out, u.Members...)
	}
	return out
}

func removeUnit(units []*graph.Component, u *graph.Component) []*graph.Component {
	out := units[:0]
	for _, v := range units {
		if v != u {
			out = append(out, v)
		}
	}
	return out
}

func containsGroup(groups []*group, g *group) bool {
	for _, v := range groups {
		if v == g {
			return true
		}
	}
	return false
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func sortedCopy(in []string) []string {
	out := append([]string(nil), in...)
	sort.Strings(out)
	return out
}

func extOf(id string) string {
	slash := strings.LastIndex(id, "/")
	dot := strings.LastIndex(id, ".")
	if dot <= slash+1 {
		return ""
	}
	return id[dot:]
}
