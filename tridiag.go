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

// buildStack assembles the column's active snow, lake, and soil layers into
// one contiguous depth-ordered stack with matched units, producing
// per-interface conductivities by flux-continuity combination across the
// snow–lake and lake–soil seams. The top soil nodal conductivity is kept
// separately because the solar residual term consumes it directly, not only
// at an interface.
func buildStack(c *Column) *stack {
	nsnow := c.Snl
	nlake := len(c.Lake)
	nsoil := len(c.Soil)
	n := nsnow + nlake + nsoil

	s := &stack{
		n:     n,
		nsnow: nsnow,
		nlake: nlake,
		z:     make([]float64, n),
		zi:    make([]float64, n+1),
		dz:    make([]float64, n),
		t:     make([]float64, n),
		cv:    make([]float64, n),
		tk:    make([]float64, n), // tk[n-1] unused (insulated bottom)
		phi:   make([]float64, n),
	}

	// Nodal values; tkNode holds the per-layer conductivity that the
	// interface combination consumes.
	tkNode := make([]float64, n)
	for i := 0; i < nsnow; i++ {
		sn := &c.Snow[i]
		slot := s.snowSlot(i)
		s.dz[slot] = sn.Dz
		s.t[slot] = sn.T
		s.cv[slot] = snowHeatCapacity(sn)
		s.phi[slot] = sn.Phi
		tkNode[slot] = snowConductivity(sn)
	}
	for j := 0; j < nlake; j++ {
		l := &c.Lake[j]
		slot := s.lakeSlot(j)
		s.dz[slot] = l.Dz
		s.t[slot] = l.T
		s.cv[slot] = c.lakeHeatCapacity(j)
		s.phi[slot] = l.Phi
		tkNode[slot] = l.Tk
	}
	for k := 0; k < nsoil; k++ {
		so := &c.Soil[k]
		slot := s.soilSlot(k)
		s.dz[slot] = so.Dz
		s.t[slot] = so.T
		s.cv[slot] = soilHeatCapacity(so)
		tkNode[slot] = so.tk
	}
	s.phi[s.soilSlot(0)] = c.phiSoil
	s.tkTopSoil = tkNode[s.soilSlot(0)]

	// Depth coordinates measured from the top of the stack.
	for i := 0; i < n; i++ {
		s.zi[i+1] = s.zi[i] + s.dz[i]
		s.z[i] = s.zi[i] + s.dz[i]/2
	}

	for i := 0; i < n-1; i++ {
		s.tk[i] = interfaceConductivity(tkNode[i], tkNode[i+1],
			s.z[i], s.zi[i+1], s.z[i+1])
	}
	return s
}

// HeatSolve returns a function that advances the column temperatures over
// one timestep by assembling and solving the implicit Crank–Nicolson
// heat-diffusion system over the full snow/lake/soil stack. The top
// boundary condition is the prescribed net flux plus the top layer's
// absorbed radiation; the bottom boundary is insulated (zero flux).
func HeatSolve() ColumnManipulator {
	return func(c *Column, Δt float64) {
		s := buildStack(c)
		s.checkDepths()
		c.tkTopSoil = s.tkTopSoil

		tNew := make([]float64, s.n)
		solveDiffusion(s, c.TopFlux, Δt, tNew)

		for i := 0; i < s.nsnow; i++ {
			c.Snow[i].T = tNew[s.snowSlot(i)]
		}
		for j := 0; j < s.nlake; j++ {
			c.Lake[j].T = tNew[s.lakeSlot(j)]
		}
		for k := range c.Soil {
			c.Soil[k].T = tNew[s.soilSlot(k)]
		}

		// Diagnosed heat flux into the sediment: conduction across the
		// lake–soil seam plus the solar residual absorbed there.
		is := s.soilSlot(0)
		c.GroundHeat = s.tk[is-1]*(tNew[is-1]-tNew[is])/(s.z[is]-s.z[is-1]) +
			c.phiSoil
		c.FluxOut = c.TopFlux
	}
}

// solveDiffusion builds the three diagonals and right-hand side for a
// Crank–Nicolson discretization of the stack's diffusion system, weighting
// the old and new flux estimates by cnfac, and solves it into tNew. The
// kernel is column-local: it is reusable for any single-column banded
// diffusion problem given matched interface conductivities.
func solveDiffusion(s *stack, fin, Δt float64, tNew []float64) {
	n := s.n
	a := make([]float64, n)
	b := make([]float64, n)
	cd := make([]float64, n)
	r := make([]float64, n)

	// Old-time interface fluxes; fn[i] is the flux from layer i+1 into
	// layer i. The bottom boundary is insulated, so fn[n-1] stays zero.
	fn := make([]float64, n)
	for i := 0; i < n-1; i++ {
		fn[i] = s.tk[i] * (s.t[i+1] - s.t[i]) / (s.z[i+1] - s.z[i])
	}

	for i := 0; i < n; i++ {
		fact := Δt / s.cv[i]
		switch {
		case n == 1:
			a[i] = 0
			b[i] = 1
			cd[i] = 0
			r[i] = s.t[i] + fact*(fin+s.phi[i])
		case i == 0:
			dzp := s.z[i+1] - s.z[i]
			a[i] = 0
			b[i] = 1 + (1-cnfac)*fact*s.tk[i]/dzp
			cd[i] = -(1 - cnfac) * fact * s.tk[i] / dzp
			r[i] = s.t[i] + fact*(fin+s.phi[i]+cnfac*fn[i])
		case i == n-1:
			dzm := s.z[i] - s.z[i-1]
			a[i] = -(1 - cnfac) * fact * s.tk[i-1] / dzm
			b[i] = 1 + (1-cnfac)*fact*s.tk[i-1]/dzm
			cd[i] = 0
			r[i] = s.t[i] + fact*(s.phi[i]-cnfac*fn[i-1])
		default:
			dzm := s.z[i] - s.z[i-1]
			dzp := s.z[i+1] - s.z[i]
			a[i] = -(1 - cnfac) * fact * s.tk[i-1] / dzm
			b[i] = 1 + (1-cnfac)*fact*(s.tk[i]/dzp+s.tk[i-1]/dzm)
			cd[i] = -(1 - cnfac) * fact * s.tk[i] / dzp
			r[i] = s.t[i] + fact*(s.phi[i]+cnfac*(fn[i]-fn[i-1]))
		}
	}

	solveTridiag(a, b, cd, r, tNew)
}

// solveTridiag solves the tridiagonal system with sub-diagonal a, diagonal
// b, super-diagonal c, and right-hand side r into x by Thomas-algorithm
// forward elimination and back substitution. The solve is inherently
// sequential along the depth dimension.
func solveTridiag(a, b, c, r, x []float64) {
	n := len(b)
	if n == 1 {
		x[0] = r[0] / b[0]
		return
	}
	gam := make([]float64, n)
	bet := b[0]
	x[0] = r[0] / bet
	for i := 1; i < n; i++ {
		gam[i] = c[i-1] / bet
		bet = b[i] - a[i]*gam[i]
		x[i] = (r[i] - a[i]*x[i-1]) / bet
	}
	for i := n - 2; i >= 0; i-- {
		x[i] -= gam[i+1] * x[i+1]
	}
}
