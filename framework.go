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
	"fmt"
	"math"
	"sync"
)

// SnowLayer holds the state of one snow layer. Layers are ordered from the
// surface downward; only the first Column.Snl entries are active. Structural
// changes (layer creation and removal) happen outside this solver, between
// timesteps.
type SnowLayer struct {
	T   float64 `desc:"Layer temperature" units:"K"`
	Liq float64 `desc:"Liquid water mass" units:"kg/m²"`
	Ice float64 `desc:"Ice mass" units:"kg/m²"`
	Dz  float64 `desc:"Layer thickness" units:"m"`

	Phi float64 `desc:"Absorbed shortwave radiation" units:"W/m²"`
}

// LakeLayer holds the state of one open-water layer. Thickness is fixed;
// freezing changes the ice mass fraction, not the layer volume.
type LakeLayer struct {
	T       float64 `desc:"Layer temperature" units:"K"`
	IceFrac float64 `desc:"Mass fraction of layer water that is frozen" units:"fraction"`
	Dz      float64 `desc:"Layer thickness" units:"m"`
	Z       float64 `desc:"Depth of layer center below the lake surface" units:"m"`

	Phi   float64 `desc:"Absorbed shortwave radiation" units:"W/m²"`
	Kappa float64 `desc:"Eddy + molecular diffusivity" units:"m²/s"`
	Tk    float64 `desc:"Effective thermal conductivity" units:"W/m/K"`
	Rho   float64 `desc:"Water density" units:"kg/m³"`
}

// SoilLayer holds the state of one soil or bedrock layer beneath the lake.
// Bedrock layers carry no water state and a constant conductivity.
type SoilLayer struct {
	T   float64 `desc:"Layer temperature" units:"K"`
	Liq float64 `desc:"Liquid water mass" units:"kg/m²"`
	Ice float64 `desc:"Ice mass" units:"kg/m²"`
	Dz  float64 `desc:"Layer thickness" units:"m"`

	Watsat float64 `desc:"Porosity (saturated volumetric water content)" units:"m³/m³"`
	TkSat  float64 `desc:"Saturated thermal conductivity" units:"W/m/K"`
	TkDry  float64 `desc:"Dry thermal conductivity" units:"W/m/K"`
	CsSol  float64 `desc:"Volumetric heat capacity of soil solids" units:"J/m³/K"`

	Bedrock bool `desc:"Whether this layer is bedrock"`

	tk float64 // nodal conductivity, set by Properties [W/m/K]
}

// Column holds the full state of one lake column: an ordered stack of snow,
// open-water, and soil/bedrock layers, the boundary forcing consumed from
// upstream collaborators, and the diagnostics handed back to them. Columns
// are fully independent of each other; each is owned by one grid cell.
type Column struct {
	sync.RWMutex

	Snow []SnowLayer // snow layer storage; Snow[:Snl] are active, top first
	Snl  int         `desc:"Number of active snow layers"`
	Lake []LakeLayer // fixed-count open-water layers, top first
	Soil []SoilLayer // fixed-count soil/bedrock layers, top first

	Depth float64 `desc:"Lake depth" units:"m"`

	// Boundary forcing, consumed per timestep.
	TopFlux     float64   `desc:"Net non-solar heat flux into the column top" units:"W/m²"`
	Sabg        float64   `desc:"Absorbed shortwave radiation" units:"W/m²"`
	SnowAbsFrac []float64 // per-active-snow-layer fraction of Sabg, from radiative transfer
	Beta        float64   `desc:"Fraction of shortwave absorbed at the surface rather than penetrating" units:"fraction"`
	Eta         float64   `desc:"Shortwave extinction coefficient; 0 means derive from depth" units:"1/m"`
	Ustar       float64   `desc:"Friction velocity for turbulent mixing" units:"m/s"`
	Ks          float64   `desc:"Extinction coefficient of turbulence with depth" units:"1/m"`
	Puddling    bool      `desc:"Whether accumulated ice suppresses convective mixing"`

	// Diagnostics, produced per timestep.
	LakeIce    float64 `desc:"Integrated lake ice thickness" units:"m"`
	QMelt      float64 `desc:"Melt rate" units:"kg/m²/s"`
	QFreeze    float64 `desc:"Freezing rate" units:"kg/m²/s"`
	GroundHeat float64 `desc:"Heat flux into the top soil layer, after closure correction" units:"W/m²"`
	FluxOut    float64 `desc:"Reported top flux, after closure correction" units:"W/m²"`
	EnergyErr  float64 `desc:"Energy balance residual" units:"W/m²"`

	// Per-step scratch state.
	energyBefore  float64 // column energy content at step start [J/m²]
	phiSoil       float64 // shortwave reaching below the deepest water layer [W/m²]
	tkTopSoil     float64 // top soil nodal conductivity from the assembler [W/m/K]
	mixSuppressed bool    // puddling tripped; skip mixing for the rest of the step
	balanceFault  bool    // unrecoverable energy imbalance
}

// ColumnSpec describes the static geometry and soil properties needed to
// construct a Column. Soil properties are uniform over the non-bedrock
// layers; datasets that vary them per layer can edit the returned column
// before the first step.
type ColumnSpec struct {
	Depth       float64 // lake depth [m]
	NLake       int     // number of open-water layers
	NSoil       int     // number of soil layers, including bedrock
	NBedrock    int     // number of bedrock layers at the bottom of the soil stack
	SnowCap     int     // snow layer capacity
	SoilDz      float64 // soil layer thickness [m]
	Watsat      float64 // soil porosity
	TkSat       float64 // saturated soil conductivity [W/m/K]
	TkDry       float64 // dry soil conductivity [W/m/K]
	CsSol       float64 // volumetric heat capacity of soil solids [J/m³/K]
	InitialTemp float64 // uniform initial temperature [K]
}

// NewColumn constructs a column from spec, with uniform lake layer thickness
// Depth/NLake and saturated, ice-free soil.
func NewColumn(spec ColumnSpec) (*Column, error) {
	if spec.NLake < 1 || spec.NSoil < 1 {
		return nil, fmt.Errorf("laketherm: column needs at least one lake and one soil layer (have %d, %d)", spec.NLake, spec.NSoil)
	}
	if spec.Depth <= 0 {
		return nil, fmt.Errorf("laketherm: non-positive lake depth %g", spec.Depth)
	}
	if spec.NBedrock > spec.NSoil {
		return nil, fmt.Errorf("laketherm: %d bedrock layers exceed %d soil layers", spec.NBedrock, spec.NSoil)
	}
	c := &Column{
		Snow:  make([]SnowLayer, spec.SnowCap),
		Lake:  make([]LakeLayer, spec.NLake),
		Soil:  make([]SoilLayer, spec.NSoil),
		Depth: spec.Depth,
	}
	dz := spec.Depth / float64(spec.NLake)
	z := 0.
	for j := range c.Lake {
		l := &c.Lake[j]
		l.Dz = dz
		l.Z = z + dz/2
		l.T = spec.InitialTemp
		z += dz
	}
	for k := range c.Soil {
		s := &c.Soil[k]
		s.Dz = spec.SoilDz
		s.T = spec.InitialTemp
		s.Watsat = spec.Watsat
		s.TkSat = spec.TkSat
		s.TkDry = spec.TkDry
		s.CsSol = spec.CsSol
		if k >= spec.NSoil-spec.NBedrock {
			s.Bedrock = true
			continue
		}
		// Soil under a lake is saturated.
		s.Liq = spec.Watsat * s.Dz * denh2o
	}
	return c, nil
}

// WaterMass returns the total water mass (both phases) of lake layer j
// [kg/m²]. Lake layer mass is implied by the reference water density and the
// fixed layer thickness, so it is invariant under freezing.
func (c *Column) WaterMass(j int) float64 {
	return denh2o * c.Lake[j].Dz
}

// Energy returns the column's total energy content relative to the freezing
// reference temperature, including the latent heat deficit of frozen water
// [J/m²]. It is the quantity the solver conserves.
func (c *Column) Energy() float64 {
	var e float64
	for i := 0; i < c.Snl; i++ {
		sn := &c.Snow[i]
		e += (cpliq*sn.Liq+cpice*sn.Ice)*(sn.T-tfrz) - hfus*sn.Ice
	}
	for j := range c.Lake {
		l := &c.Lake[j]
		m := c.WaterMass(j)
		cv := m * ((1-l.IceFrac)*cpliq + l.IceFrac*cpice)
		e += cv*(l.T-tfrz) - hfus*l.IceFrac*m
	}
	for k := range c.Soil {
		s := &c.Soil[k]
		if s.Bedrock {
			e += s.CsSol * s.Dz * (s.T - tfrz)
			continue
		}
		cv := s.CsSol*(1-s.Watsat)*s.Dz + cpliq*s.Liq + cpice*s.Ice
		e += cv*(s.T-tfrz) - hfus*s.Ice
	}
	return e
}

// IceThickness returns the integrated lake ice thickness [m].
func (c *Column) IceThickness() float64 {
	var h float64
	for j := range c.Lake {
		h += c.Lake[j].IceFrac * c.Lake[j].Dz
	}
	return h
}

// frozenAbove reports whether the column surface is capped: snow is present
// or the top lake layer carries ice.
func (c *Column) frozenAbove() bool {
	return c.Snl > 0 || c.Lake[0].IceFrac > 0
}

// stack is the contiguous depth-indexed assembly of a column's active snow,
// lake, and soil layers. It replaces signed-index layer arithmetic with an
// explicit slot translation: active snow occupies slots [0,nsnow), lake
// [nsnow,nsnow+nlake), and soil the remainder.
type stack struct {
	n            int
	nsnow, nlake int

	z   []float64 // node depth from the top of the stack [m]
	zi  []float64 // interface depth, len n+1 [m]
	dz  []float64 // layer thickness [m]
	t   []float64 // temperature [K]
	cv  []float64 // areal heat capacity [J/m²/K]
	tk  []float64 // interface conductivity; tk[i] couples layers i and i+1 [W/m/K]
	phi []float64 // absorbed shortwave [W/m²]

	tkTopSoil float64 // nodal conductivity of the top soil layer [W/m/K]
}

func (s *stack) snowSlot(i int) int { return i }
func (s *stack) lakeSlot(j int) int { return s.nsnow + j }
func (s *stack) soilSlot(k int) int { return s.nsnow + s.nlake + k }

// checkDepths panics if the assembled interface depths are not strictly
// increasing. That indicates corrupted layer geometry, not a physical state.
func (s *stack) checkDepths() {
	for i := 0; i < s.n; i++ {
		if !(s.zi[i+1] > s.zi[i]) || math.IsNaN(s.zi[i+1]) {
			panic(fmt.Errorf("laketherm: non-increasing interface depths at slot %d: %g, %g", i, s.zi[i], s.zi[i+1]))
		}
	}
}
