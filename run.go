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

package laketherm

import (
	"math"
	"runtime"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
)

// Physical constants.
const (
	tfrz   = 273.15    // freezing temperature of fresh water [K]
	cpliq  = 4.188e3   // specific heat of liquid water [J/kg/K]
	cpice  = 2.11727e3 // specific heat of ice [J/kg/K]
	denh2o = 1000.     // density of liquid water [kg/m³]
	denice = 917.      // density of ice [kg/m³]
	hfus   = 3.337e5   // latent heat of fusion [J/kg]
	grav   = 9.80616   // gravitational acceleration [m/s²]

	tkwat = 0.6   // thermal conductivity of liquid water [W/m/K]
	tkice = 2.290 // thermal conductivity of ice [W/m/K]
	tkair = 0.023 // thermal conductivity of air [W/m/K]
)

// Numerical constants.
const (
	// cnfac is the Crank–Nicolson weighting between the old and new flux
	// estimates: 0 is fully implicit, 1 fully explicit, 0.5 classic
	// Crank–Nicolson.
	cnfac = 0.5

	// massEps is the threshold below which residual phase masses are
	// snapped to exactly zero to avoid accumulating rounding noise across
	// timesteps [kg/m²].
	massEps = 1e-12

	// energyErrMax is the largest energy-balance residual treated as
	// numerical noise and folded into the reported fluxes [W/m²]. Larger
	// residuals indicate a solver or bookkeeping defect and abort the run.
	energyErrMax = 0.10
)

// BeginStep returns a function that resets per-step diagnostics and records
// the column energy content against which the step is closed.
func BeginStep() ColumnManipulator {
	return func(c *Column, Δt float64) {
		c.QMelt = 0
		c.QFreeze = 0
		c.EnergyErr = 0
		c.phiSoil = 0
		c.mixSuppressed = false
		c.balanceFault = false
		c.energyBefore = c.Energy()
	}
}

// Calculations returns a function that concurrently runs a series of
// calculations on all of the columns in the domain. Each column's
// calculators run strictly in order; columns share no mutable state, so the
// only synchronization is the per-column lock held while its stages run.
func Calculations(calculators ...ColumnManipulator) DomainManipulator {

	nprocs := runtime.GOMAXPROCS(0)
	var wg sync.WaitGroup

	return func(m *Model) error {
		wg.Add(nprocs)
		for pp := 0; pp < nprocs; pp++ {
			go func(pp int) {
				for ii := pp; ii < len(m.columns); ii += nprocs {
					c := m.columns[ii]
					c.Lock()
					for _, f := range calculators {
						f(c, m.Dt)
					}
					c.Unlock()
				}
				wg.Done()
			}(pp)
		}
		wg.Wait()
		return nil
	}
}

// Steps returns a function that finishes the simulation after n timesteps.
func Steps(n int) DomainManipulator {
	iteration := 0
	return func(m *Model) error {
		iteration++
		if iteration >= n {
			m.Done = true
		}
		return nil
	}
}

// Diagnostics holds domain-aggregated values reduced over all columns after
// they complete a timestep. The reduction is diagnostic only; it never feeds
// back into the per-column computation.
type Diagnostics struct {
	TotalEnergy  float64 // summed column energy content [J/m²]
	TotalLakeIce float64 // summed integrated ice thickness [m]
	MaxEnergyErr float64 // worst per-column energy residual magnitude [W/m²]
}

// Diagnose reduces the current domain state into aggregate diagnostics.
func (m *Model) Diagnose() Diagnostics {
	energy := make([]float64, len(m.columns))
	ice := make([]float64, len(m.columns))
	var d Diagnostics
	for i, c := range m.columns {
		energy[i] = c.Energy()
		ice[i] = c.LakeIce
		d.MaxEnergyErr = math.Max(d.MaxEnergyErr, math.Abs(c.EnergyErr))
	}
	d.TotalEnergy = floats.Sum(energy)
	d.TotalLakeIce = floats.Sum(ice)
	return d
}

// Log returns a function that writes simulation status and aggregate energy
// diagnostics once per timestep.
func Log() DomainManipulator {
	startTime := time.Now()
	timeStepTime := time.Now()
	iteration := 0

	return func(m *Model) error {
		iteration++
		d := m.Diagnose()
		log.WithFields(log.Fields{
			"iteration":    iteration,
			"walltime":     time.Since(startTime).Round(time.Millisecond).String(),
			"Δwalltime":    time.Since(timeStepTime).Round(time.Millisecond).String(),
			"energy":       d.TotalEnergy,
			"lakeIce":      d.TotalLakeIce,
			"maxEnergyErr": d.MaxEnergyErr,
		}).Info("laketherm timestep")
		timeStepTime = time.Now()
		return nil
	}
}
