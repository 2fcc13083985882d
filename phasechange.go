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

// PhaseChange returns a function that performs the per-layer freeze/thaw
// enthalpy update after the implicit solve. A layer melts when its
// temperature exceeds the freezing reference with ice present, and freezes
// when below it with liquid present; there is no supercooling and no
// freezing-point depression. Lake layers move density-implied mass at fixed
// thickness; snow and soil layers move their tracked phase masses. Bedrock
// layers carry no water and are skipped.
func PhaseChange() ColumnManipulator {
	return func(c *Column, Δt float64) {
		for j := range c.Lake {
			l := &c.Lake[j]
			m := c.WaterMass(j)
			if m <= 0 {
				l.IceFrac = 0
				continue
			}
			ice := l.IceFrac * m
			liq := m - ice
			t, liq, ice, melt, frozen := freezeThaw(l.T, liq, ice, 0)
			l.T = t
			l.IceFrac = ice / m
			c.QMelt += melt / Δt
			c.QFreeze += frozen / Δt
		}
		for i := 0; i < c.Snl; i++ {
			sn := &c.Snow[i]
			t, liq, ice, melt, frozen := freezeThaw(sn.T, sn.Liq, sn.Ice, 0)
			sn.T, sn.Liq, sn.Ice = t, liq, ice
			c.QMelt += melt / Δt
			c.QFreeze += frozen / Δt
		}
		for k := range c.Soil {
			s := &c.Soil[k]
			if s.Bedrock {
				continue
			}
			// The mineral matrix stores sensible heat alongside the water
			// phases and must drive the transfer with them.
			cvSol := s.CsSol * (1. - s.Watsat) * s.Dz
			t, liq, ice, melt, frozen := freezeThaw(s.T, s.Liq, s.Ice, cvSol)
			s.T, s.Liq, s.Ice = t, liq, ice
			c.QMelt += melt / Δt
			c.QFreeze += frozen / Δt
		}
		c.LakeIce = c.IceThickness()
	}
}

// freezeThaw applies the enthalpy-conserving phase-change update to one
// layer's temperature and phase masses, returning the updated state and the
// melted and frozen masses [kg/m²]. cvSol is the areal heat capacity of the
// layer's non-water matrix [J/m²/K]: zero for lake and snow layers, the
// mineral-matrix term for soil. It stores sensible heat with the water
// phases, so it contributes to both the available heat and the temperature
// reset.
//
// The mass transferred is the available heat (or heat deficit) divided by
// the latent heat of fusion, clamped to the available ice or liquid.
// Residual heat after exhausting the available mass resets the temperature
// against the updated heat capacity, which reflects the shifted ice/liquid
// mix; using the pre-transfer capacity would manufacture energy at the
// capacity discontinuity. Residual masses below massEps are snapped to
// exactly zero.
func freezeThaw(t, liq, ice, cvSol float64) (tNew, liqNew, iceNew, melt, frozen float64) {
	cv := cvSol + cpliq*liq + cpice*ice
	if cv <= 0 {
		return t, liq, ice, 0, 0
	}
	heat := (t - tfrz) * cv
	switch {
	case t > tfrz && ice > 0:
		melt = heat / hfus
		if melt > ice {
			melt = ice
		}
		cv += melt * (cpliq - cpice)
		heat -= melt * hfus
		t = tfrz + heat/cv
		ice -= melt
		liq += melt
	case t < tfrz && liq > 0:
		frozen = -heat / hfus
		if frozen > liq {
			frozen = liq
		}
		cv -= frozen * (cpliq - cpice)
		heat += frozen * hfus
		t = tfrz + heat/cv
		liq -= frozen
		ice += frozen
	default:
		return t, liq, ice, 0, 0
	}
	if ice < massEps {
		liq += ice
		ice = 0
	}
	if liq < massEps {
		ice += liq
		liq = 0
	}
	return t, liq, ice, melt, frozen
}
