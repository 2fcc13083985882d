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

import "math"

// Snow conductivity fit coefficients (quadratic in bulk density).
const (
	snowTkA = 7.75e-5
	snowTkB = 1.105e-6
)

// Properties returns a function that derives per-layer thermal conductivity
// and refreshes density diagnostics from the current column composition.
// It is a pure function of the current state: it populates derived fields
// and has no other side effects. It runs once before the heat solve and
// again after phase change and mixing so that downstream consumers see
// properties consistent with the updated state.
func Properties() ColumnManipulator {
	return func(c *Column, Δt float64) {
		for k := range c.Soil {
			s := &c.Soil[k]
			s.tk = soilConductivity(s)
		}
		for j := range c.Lake {
			l := &c.Lake[j]
			l.Rho = waterDensity(l.T, l.IceFrac)
		}
		c.LakeIce = c.IceThickness()
	}
}

// snowBulkDensity returns the bulk density of a snow layer from its tracked
// phase masses and thickness [kg/m³], branching to zero for a degenerate
// (zero-thickness) layer.
func snowBulkDensity(sn *SnowLayer) float64 {
	if sn.Dz <= 0 {
		return 0
	}
	return (sn.Ice + sn.Liq) / sn.Dz
}

// snowConductivity returns the thermal conductivity of a snow layer
// [W/m/K]: the still-air value plus a quadratic function of bulk density
// (ice/liquid packing) scaled between air and ice (Jordan 1991).
func snowConductivity(sn *SnowLayer) float64 {
	ρ := snowBulkDensity(sn)
	return tkair + (snowTkA*ρ+snowTkB*ρ*ρ)*(tkice-tkair)
}

// soilConductivity returns the nodal thermal conductivity of a soil or
// bedrock layer [W/m/K]. Bedrock uses its constant saturated value. Soil
// blends dry and saturated conductivity with a Kersten number, switching
// between the unfrozen (logarithmic) and frozen (linear) branches at the
// freezing reference, and adds an ice-conductivity contribution weighted by
// the volume fraction of ice in excess of nominal porosity.
func soilConductivity(s *SoilLayer) float64 {
	if s.Bedrock {
		return s.TkSat
	}
	// Degree of saturation from the two phase volumes.
	satw := (s.Liq/denh2o + s.Ice/denice) / (s.Dz * s.Watsat)
	satw = math.Min(satw, 1.)
	var tk float64
	if satw <= 1e-7 {
		tk = s.TkDry
	} else {
		var ke float64
		if s.T >= tfrz { // unfrozen branch
			ke = math.Max(math.Log10(satw)+1., 0.)
		} else { // frozen branch
			ke = satw
		}
		tk = ke*s.TkSat + (1.-ke)*s.TkDry
	}
	// Excess ice beyond nominal porosity adds an ice-weighted contribution.
	vice := s.Ice / (denice * s.Dz)
	if vice > s.Watsat {
		fexc := (vice - s.Watsat) / vice
		tk = (1.-fexc)*tk + fexc*tkice
	}
	return tk
}

// soilHeatCapacity returns the areal heat capacity of a soil or bedrock
// layer [J/m²/K]: the mineral matrix term plus the linear mixture of the
// liquid and ice specific heats weighted by their masses.
func soilHeatCapacity(s *SoilLayer) float64 {
	if s.Bedrock {
		return s.CsSol * s.Dz
	}
	return s.CsSol*(1.-s.Watsat)*s.Dz + cpliq*s.Liq + cpice*s.Ice
}

// snowHeatCapacity returns the areal heat capacity of a snow layer
// [J/m²/K] from its phase masses.
func snowHeatCapacity(sn *SnowLayer) float64 {
	return cpliq*sn.Liq + cpice*sn.Ice
}

// lakeHeatCapacity returns the areal heat capacity of lake layer j
// [J/m²/K] from its ice mass fraction and density-implied mass.
func (c *Column) lakeHeatCapacity(j int) float64 {
	l := &c.Lake[j]
	m := c.WaterMass(j)
	return m * ((1.-l.IceFrac)*cpliq + l.IceFrac*cpice)
}

// interfaceConductivity returns the flux-weighted harmonic combination of
// two nodal conductivities across an interface at depth zi between nodes at
// depths z1 < zi < z2. It preserves continuity of heat flux across unequal
// half-thicknesses; it branches to zero if either side is non-conducting.
func interfaceConductivity(tk1, tk2, z1, zi, z2 float64) float64 {
	den := tk1*(z2-zi) + tk2*(zi-z1)
	if den <= 0 {
		return 0
	}
	return tk1 * tk2 * (z2 - z1) / den
}
