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

// puddleIceCrit is the integrated lake ice thickness beyond which a
// puddling-enabled column stops convective mixing for the rest of the step:
// an ice cap this thick decouples the water body from wind forcing [m].
const puddleIceCrit = 0.25

// ConvectiveMix returns a function that detects and removes gravitationally
// unstable density stratification in the open-water stack.
//
// Two passes scan the layer interfaces with the same instability rule
// (denser water above lighter, or ice directly over ice-free water). The
// top-down pass deepens mixed spans: each unstable interface mixes the span
// from the top of the current contiguous unstable run through the layer
// below the interface, so surface cooling deepens the surface mixed layer
// while an isolated deep instability mixes only locally. The bottom-up pass
// handles bottom-sourced instabilities without forcing a full-column
// overturn in one step: starting at the bottom interface, it mixes one
// layer pair at a time and climbs only while instability persists.
//
// The procedure is greedy and order-dependent, bounded by the layer count;
// for pathological multi-point instabilities a single step may leave a
// residual inversion, which later steps remove. Mixing conserves each
// layer's water mass, the span's total ice, and the span's total enthalpy.
func ConvectiveMix() ColumnManipulator {
	return func(c *Column, Δt float64) {
		n := len(c.Lake)
		for j := range c.Lake {
			l := &c.Lake[j]
			l.Rho = waterDensity(l.T, l.IceFrac)
		}
		if n < 2 {
			c.LakeIce = c.IceThickness()
			return
		}

		lo := 0
		for j := 0; j < n-1; j++ {
			if c.checkPuddling() {
				break
			}
			if c.unstableBelow(j) {
				c.mixSpan(lo, j+1)
			} else {
				lo = j + 1
			}
		}

		for j := n - 2; j >= 0; j-- {
			if c.checkPuddling() {
				break
			}
			if !c.unstableBelow(j) {
				break
			}
			c.mixSpan(j, j+1)
		}

		c.LakeIce = c.IceThickness()
	}
}

// checkPuddling updates the running ice-thickness sum and reports whether a
// puddling-enabled column has tripped the mixing suppression. Once tripped,
// it stays tripped for the remainder of the step.
func (c *Column) checkPuddling() bool {
	if c.mixSuppressed {
		return true
	}
	if c.Puddling && c.IceThickness() > puddleIceCrit {
		c.mixSuppressed = true
	}
	return c.mixSuppressed
}

// unstableBelow reports whether the interface between lake layers j and j+1
// is gravitationally unstable: the density profile decreases with depth, or
// ice directly overlies water that carries no ice.
func (c *Column) unstableBelow(j int) bool {
	a, b := &c.Lake[j], &c.Lake[j+1]
	if a.Rho > b.Rho {
		return true
	}
	return a.IceFrac > 0 && b.IceFrac == 0
}

// mixSpan conservatively homogenizes lake layers lo..hi (inclusive): the
// span's heat content and ice mass are pooled, all ice is moved to the top
// of the span, and an energy-preserving temperature is assigned separately
// to the frozen and unfrozen fractions so that no energy is manufactured or
// destroyed at the heat-capacity discontinuity.
func (c *Column) mixSpan(lo, hi int) {
	var totIce, enthalpy float64
	for j := lo; j <= hi; j++ {
		l := &c.Lake[j]
		m := c.WaterMass(j)
		ice := l.IceFrac * m
		cv := cpliq*(m-ice) + cpice*ice
		enthalpy += cv*(l.T-tfrz) - hfus*ice
		totIce += ice
	}

	// All ice moves to the top of the mixed span.
	rem := totIce
	for j := lo; j <= hi; j++ {
		l := &c.Lake[j]
		m := c.WaterMass(j)
		take := rem
		if take > m {
			take = m
		}
		l.IceFrac = take / m
		rem -= take
	}

	// Sensible heat remaining after accounting for the latent deficit of
	// the (conserved) total ice, distributed within one phase group.
	sensible := enthalpy + hfus*totIce
	var cvIcy, cvFree, cvAll float64
	for j := lo; j <= hi; j++ {
		l := &c.Lake[j]
		cv := c.lakeHeatCapacity(j)
		cvAll += cv
		if l.IceFrac > 0 {
			cvIcy += cv
		} else {
			cvFree += cv
		}
	}
	var tIcy, tFree float64 // offsets from the freezing reference
	switch {
	case sensible >= 0 && cvFree > 0:
		tFree = sensible / cvFree
	case sensible < 0 && cvIcy > 0:
		tIcy = sensible / cvIcy
	default:
		// Single-phase span: share uniformly.
		tIcy = sensible / cvAll
		tFree = tIcy
	}
	for j := lo; j <= hi; j++ {
		l := &c.Lake[j]
		if l.IceFrac > 0 {
			l.T = tfrz + tIcy
		} else {
			l.T = tfrz + tFree
		}
		l.Rho = waterDensity(l.T, l.IceFrac)
	}
}
