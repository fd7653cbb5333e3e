// Package seir implements an age-resolved SECIR-style compartment model.
// The contact term is the baseline contact matrix scaled elementwise by
// 1 - D(t), where D is the combined intervention reduction supplied by the
// damping engine.
package seir

import (
	"fmt"

	"github.com/epiforge/epidamp/internal/damping"
	"github.com/epiforge/epidamp/internal/solver"
	"github.com/epiforge/epidamp/internal/timeseries"
)

// Compartments per age group, in state-vector order.
const (
	Susceptible = iota
	Exposed
	Carrier
	Infected
	Recovered
	NumCompartments
)

// Parameters holds the epidemiological constants of one simulation node.
type Parameters struct {
	Groups           int     // number of age groups
	LatentTime       float64 // days from exposure to infectiousness
	CarrierTime      float64 // days infectious before symptoms
	InfectiousTime   float64 // days symptomatic and infectious
	TransmissionRisk float64 // probability of transmission per contact
	// Baseline contact rates between age groups, Groups x Groups.
	BaselineContacts *damping.Matrix
}

// Validate reports the first malformed parameter.
func (p Parameters) Validate() error {
	if p.Groups <= 0 {
		return fmt.Errorf("groups must be positive, got %d", p.Groups)
	}
	if p.LatentTime <= 0 || p.CarrierTime <= 0 || p.InfectiousTime <= 0 {
		return fmt.Errorf("stage times must be positive")
	}
	if p.TransmissionRisk < 0 || p.TransmissionRisk > 1 {
		return fmt.Errorf("transmission risk %v outside [0, 1]", p.TransmissionRisk)
	}
	if p.BaselineContacts == nil {
		return fmt.Errorf("baseline contact matrix is required")
	}
	if p.BaselineContacts.Rows() != p.Groups || p.BaselineContacts.Cols() != p.Groups {
		return fmt.Errorf("baseline contact matrix is %dx%d, need %dx%d",
			p.BaselineContacts.Rows(), p.BaselineContacts.Cols(), p.Groups, p.Groups)
	}
	return nil
}

// Model couples parameters, per-group populations, and the intervention
// container of one node.
type Model struct {
	params   Parameters
	dampings *damping.Dampings
	pop      []float64 // total population per group, constant
}

// NewModel validates parameters and builds a model. The dampings container
// must be dimensioned Groups x Groups and must no longer be mutated while
// the model is simulated.
func NewModel(params Parameters, dampings *damping.Dampings, population []float64) (*Model, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if dampings.Rows() != params.Groups || dampings.Cols() != params.Groups {
		return nil, fmt.Errorf("dampings container is %dx%d, need %dx%d",
			dampings.Rows(), dampings.Cols(), params.Groups, params.Groups)
	}
	if len(population) != params.Groups {
		return nil, fmt.Errorf("population has %d groups, need %d", len(population), params.Groups)
	}
	for i, n := range population {
		if n <= 0 {
			return nil, fmt.Errorf("population of group %d must be positive, got %v", i, n)
		}
	}
	return &Model{
		params:   params,
		dampings: dampings,
		pop:      append([]float64(nil), population...),
	}, nil
}

// NumElements returns the state vector length.
func (m *Model) NumElements() int { return m.params.Groups * NumCompartments }

// Index returns the state-vector index of a compartment for a group.
func (m *Model) Index(group, compartment int) int {
	return group*NumCompartments + compartment
}

// InitialState builds a state vector where each group starts fully
// susceptible except for the given number of exposed individuals.
func (m *Model) InitialState(exposed []float64) ([]float64, error) {
	if len(exposed) != m.params.Groups {
		return nil, fmt.Errorf("exposed has %d groups, need %d", len(exposed), m.params.Groups)
	}
	y := make([]float64, m.NumElements())
	for g := 0; g < m.params.Groups; g++ {
		if exposed[g] < 0 || exposed[g] > m.pop[g] {
			return nil, fmt.Errorf("exposed count %v of group %d outside [0, %v]", exposed[g], g, m.pop[g])
		}
		y[m.Index(g, Susceptible)] = m.pop[g] - exposed[g]
		y[m.Index(g, Exposed)] = exposed[g]
	}
	return y, nil
}

// RHS returns the model derivative as a solver right-hand side. Each
// evaluation queries the damping container once, at the solver-chosen time.
func (m *Model) RHS() solver.RHS {
	g := m.params.Groups
	return func(t float64, y []float64, dydt []float64) {
		reduction := m.dampings.ValueAt(t)

		for i := 0; i < g; i++ {
			// force of infection on group i under damped contacts
			foi := 0.0
			for j := 0; j < g; j++ {
				contacts := m.params.BaselineContacts.At(i, j) * (1 - reduction.At(i, j))
				infectious := y[m.Index(j, Carrier)] + y[m.Index(j, Infected)]
				foi += contacts * m.params.TransmissionRisk * infectious / m.pop[j]
			}

			s := y[m.Index(i, Susceptible)]
			e := y[m.Index(i, Exposed)]
			c := y[m.Index(i, Carrier)]
			inf := y[m.Index(i, Infected)]

			dydt[m.Index(i, Susceptible)] = -s * foi
			dydt[m.Index(i, Exposed)] = s*foi - e/m.params.LatentTime
			dydt[m.Index(i, Carrier)] = e/m.params.LatentTime - c/m.params.CarrierTime
			dydt[m.Index(i, Infected)] = c/m.params.CarrierTime - inf/m.params.InfectiousTime
			dydt[m.Index(i, Recovered)] = inf / m.params.InfectiousTime
		}
	}
}

// Simulate integrates the model from t0 to tmax starting at y0.
func (m *Model) Simulate(y0 []float64, t0, tmax float64, cfg solver.Config) (*timeseries.TimeSeries, error) {
	if len(y0) != m.NumElements() {
		return nil, fmt.Errorf("state has %d elements, need %d", len(y0), m.NumElements())
	}
	return solver.Integrate(m.RHS(), y0, t0, tmax, cfg)
}
