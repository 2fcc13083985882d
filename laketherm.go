/*
Copyright © 2024 the LakeTherm authors.
This file is part of LakeTherm.

LakeTherm is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

LakeTherm is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with LakeTherm.  If not, see <http://www.gnu.org/licenses/>.
*/

// Package laketherm implements a per-column thermal and phase-change solver
// for stacked snow–open-water–sediment lake columns within a land-surface
// model. For each independent column and timestep it derives thermal
// properties and eddy diffusivities, distributes absorbed shortwave
// radiation, solves an implicit Crank–Nicolson heat-diffusion system over
// the assembled snow/lake/soil stack, applies an enthalpy-conserving
// freeze/thaw update, removes gravitationally unstable density profiles by
// conservative convective mixing, and closes the column energy budget to a
// numerical tolerance.
//
// Surface turbulent and radiative fluxes, shortwave transfer through canopy
// and snow, soil hydrology, snow layer creation and removal, and restart
// I/O are external collaborators: this package consumes their outputs as
// per-column forcing and hands updated state back for persistence.
package laketherm

import "fmt"

// DomainManipulator is a function that operates on the whole model domain,
// either during initialization or once per timestep.
type DomainManipulator func(m *Model) error

// ColumnManipulator is a function that updates the state of one column over
// timestep Δt [s]. Columns are independent, so ColumnManipulators may be run
// concurrently across columns; within one column they run strictly in order.
type ColumnManipulator func(c *Column, Δt float64)

// Model is the simulation driver. It holds the lake columns (the
// precomputed set of columns classified as lake for this run), the timestep,
// and the pipelines of functions that initialize and advance the domain.
type Model struct {
	// InitFuncs are run (in order) before the simulation starts.
	InitFuncs []DomainManipulator

	// RunFuncs are run (in order) once per timestep until Done is true.
	RunFuncs []DomainManipulator

	// Dt is the timestep [s]. It is fixed for the whole run.
	Dt float64

	// Done specifies whether the simulation is finished.
	Done bool

	columns []*Column
}

// NewModel creates a simulation driver for the given columns and timestep.
// The caller composes InitFuncs and RunFuncs afterward; Timestep returns the
// standard per-step pipeline.
func NewModel(dt float64, columns ...*Column) (*Model, error) {
	if dt <= 0 {
		return nil, fmt.Errorf("laketherm: non-positive timestep %g", dt)
	}
	return &Model{Dt: dt, columns: columns}, nil
}

// Columns returns the columns in the model domain.
func (m *Model) Columns() []*Column { return m.columns }

// Init initializes the model.
func (m *Model) Init() error {
	for _, f := range m.InitFuncs {
		if err := f(m); err != nil {
			return err
		}
	}
	return nil
}

// Run advances the model until a run function sets Done or returns an error.
// An energy-conservation fault reported by EnergyBalanceCheck aborts the run;
// the computation is deterministic, so retrying would reproduce the fault.
func (m *Model) Run() error {
	for !m.Done {
		for _, f := range m.RunFuncs {
			if err := f(m); err != nil {
				return err
			}
		}
	}
	return nil
}

// Timestep returns the standard per-column stage pipeline for one timestep:
// property derivation, diffusivity and radiation, the implicit heat solve,
// phase change, convective mixing, property re-derivation, and energy
// closure. The stages run concurrently across columns and sequentially
// within each column.
func Timestep() DomainManipulator {
	return Calculations(
		BeginStep(),
		Properties(),
		Diffusivity(),
		Radiation(),
		HeatSolve(),
		PhaseChange(),
		ConvectiveMix(),
		Properties(),
		EnergyClosure(),
	)
}
