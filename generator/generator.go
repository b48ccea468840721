// Package generator produces the synthetic AI-usage events the pipeline
// evaluates.
//
// Every event's draws come from a PCG stream seeded with (seed, id). The
// components written for an ID depend only on the seed and the ID, never on
// which worker generated it or in which batch.
package generator

import (
	"fmt"
	"math/rand/v2"

	"github.com/c360/complianceflow/ecs"
	"github.com/c360/complianceflow/errors"
)

// Weights are the relative draw weights of each closed enumeration.
// Departments are drawn uniformly.
type Weights struct {
	Services      []uint32 `json:"services" yaml:"services"`
	Vendors       []uint32 `json:"vendors" yaml:"vendors"`
	Sensitivities []uint32 `json:"sensitivities" yaml:"sensitivities"`
}

// DefaultWeights returns weights skewed toward the popular services and
// lower sensitivity levels.
func DefaultWeights() Weights {
	return Weights{
		Services:      []uint32{35, 25, 20, 15, 5},
		Vendors:       []uint32{35, 25, 20, 15, 5},
		Sensitivities: []uint32{55, 25, 15, 5},
	}
}

// Validate checks every table matches its enumeration and has a positive sum.
func (w Weights) Validate() error {
	if _, err := newTable("services", w.Services, ecs.NumServices); err != nil {
		return err
	}
	if _, err := newTable("vendors", w.Vendors, ecs.NumVendors); err != nil {
		return err
	}
	if _, err := newTable("sensitivities", w.Sensitivities, ecs.NumSensitivities); err != nil {
		return err
	}
	return nil
}

// Generator writes seeded synthetic events into a store.
// A Generator reuses one PCG source and is not safe for concurrent use.
type Generator struct {
	seed          uint64
	pcg           *rand.PCG
	rng           *rand.Rand
	services      table
	vendors       table
	departments   table
	sensitivities table
}

// New creates a generator for seed with the given draw weights.
func New(seed uint64, weights Weights) (*Generator, error) {
	services, err := newTable("services", weights.Services, ecs.NumServices)
	if err != nil {
		return nil, err
	}
	vendors, err := newTable("vendors", weights.Vendors, ecs.NumVendors)
	if err != nil {
		return nil, err
	}
	sensitivities, err := newTable("sensitivities", weights.Sensitivities, ecs.NumSensitivities)
	if err != nil {
		return nil, err
	}
	departments, err := newTable("departments", uniform(ecs.NumDepartments), ecs.NumDepartments)
	if err != nil {
		return nil, err
	}

	pcg := rand.NewPCG(seed, 0)
	return &Generator{
		seed:          seed,
		pcg:           pcg,
		rng:           rand.New(pcg),
		services:      services,
		vendors:       vendors,
		departments:   departments,
		sensitivities: sensitivities,
	}, nil
}

// Seed returns the generator seed.
func (g *Generator) Seed() uint64 {
	return g.seed
}

// Generate allocates the next batch of count events in store and writes
// their service and usage components.
func (g *Generator) Generate(store *ecs.Store, count int) ecs.IDRange {
	batch := store.AllocateBatch(count)
	for id := batch.First; id < batch.End; id++ {
		svc, usage := g.Draw(id)
		store.WriteService(id, svc.Service, svc.Vendor)
		store.WriteUsage(id, usage.Department, usage.Sensitivity)
	}
	return batch
}

// Draw returns the components of event id.
func (g *Generator) Draw(id ecs.ID) (ecs.AIService, ecs.Usage) {
	g.pcg.Seed(g.seed, splitmix64(uint64(id)))

	svc := ecs.AIService{
		Service: ecs.ServiceID(g.services.draw(g.rng)),
		Vendor:  ecs.VendorID(g.vendors.draw(g.rng)),
	}
	usage := ecs.Usage{
		Department:  ecs.DepartmentID(g.departments.draw(g.rng)),
		Sensitivity: ecs.Sensitivity(g.sensitivities.draw(g.rng)),
	}
	return svc, usage
}

// table is a cumulative weight table over a closed enumeration.
type table struct {
	name  string
	cum   []uint64
	total uint64
}

func newTable(name string, weights []uint32, size int) (table, error) {
	if len(weights) != size {
		return table{}, errors.WrapInvalid(
			fmt.Errorf("%w: %s weights need %d entries, got %d", errors.ErrInvalidConfig, name, size, len(weights)),
			"Generator", "New", "validate weights")
	}
	t := table{name: name, cum: make([]uint64, size)}
	for i, w := range weights {
		t.total += uint64(w)
		t.cum[i] = t.total
	}
	if t.total == 0 {
		return table{}, errors.WrapInvalid(
			fmt.Errorf("%w: %s weights sum to zero", errors.ErrInvalidConfig, name),
			"Generator", "New", "validate weights")
	}
	return t, nil
}

func (t table) draw(rng *rand.Rand) int {
	r := rng.Uint64N(t.total)
	for i, c := range t.cum {
		if r < c {
			return i
		}
	}
	panic(errors.Invariant("Generator", "Draw", "%s draw %d outside weight total %d", t.name, r, t.total))
}

func uniform(n int) []uint32 {
	w := make([]uint32, n)
	for i := range w {
		w[i] = 1
	}
	return w
}

// splitmix64 decorrelates consecutive IDs before they seed the PCG stream.
func splitmix64(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}
