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

// Diffusivity model constants, after Henderson-Sellers (1985) and
// Fang and Stefan (1996).
const (
	kappaVonKarman = 0.4
	prandtl0       = 1.      // neutral turbulent Prandtl number
	kme            = 1.4e-7  // molecular thermal diffusivity of water [m²/s]
	n2min          = 7.5e-5  // lower bound on Brunt–Väisälä frequency² [1/s²]
	kbgCoef        = 1.04e-8 // background eddy diffusivity coefficient [m²/s]
	kbgPower       = -0.43   // background eddy diffusivity exponent

	// Deep lakes mix more vigorously than the boundary-layer scaling
	// predicts; diffusivity is enhanced by deepMixFactor below depthCrit.
	depthCrit     = 25. // [m]
	deepMixFactor = 10.

	cwat = cpliq * denh2o // volumetric heat capacity of liquid water [J/m³/K]
)

// Diffusivity returns a function that computes the eddy diffusivity and the
// effective thermal conductivity of each open-water layer. For an unfrozen
// column the diffusivity is molecular plus Richardson-damped turbulent plus
// a stratification-dependent background term, optionally enhanced for deep
// lakes. Once a layer is frozen (or the column is snow-covered), turbulent
// mixing is suppressed in that layer and every layer beneath it for the
// rest of the step, and the diffusivity falls back to a harmonic
// water–ice conductivity blend.
func Diffusivity() ColumnManipulator {
	return func(c *Column, Δt float64) {
		n := len(c.Lake)
		// A capped surface suppresses turbulence everywhere below.
		frozen := c.frozenAbove()

		ustar := math.Max(c.Ustar, 1e-3)
		ks := c.Ks
		if ks <= 0 {
			// Extinction of turbulence with depth from the friction
			// velocity (Henderson-Sellers 1985).
			ks = 6.6 * math.Pow(ustar, -1.84) * 1e-3
		}

		for j := 0; j < n; j++ {
			l := &c.Lake[j]
			if l.IceFrac > 0 {
				frozen = true // one-way: never un-suppressed within the step
			}
			if frozen {
				// Harmonic conductivity blend between water and ice,
				// no turbulent term.
				tkBlend := tkwat * tkice /
					((1.-l.IceFrac)*tkice + l.IceFrac*tkwat)
				l.Kappa = tkBlend / cwat
				l.Tk = tkBlend
				continue
			}
			l.Kappa = kme + eddyDiffusivity(c, j, ustar, ks)
			if c.Depth > depthCrit {
				l.Kappa *= deepMixFactor
			}
			l.Tk = l.Kappa * cwat
		}
	}
}

// eddyDiffusivity returns the turbulent plus background eddy diffusivity at
// the lower interface of lake layer j [m²/s], damping the turbulent term by
// a Richardson-number factor computed from the local density gradient.
func eddyDiffusivity(c *Column, j int, ustar, ks float64) float64 {
	n := len(c.Lake)
	z := c.Lake[j].Z

	// Brunt–Väisälä frequency² from the density gradient across the
	// interface below (or above, for the bottom layer).
	jb := j + 1
	ja := j
	if jb >= n {
		jb = j
		ja = j - 1
		if ja < 0 { // single-layer lake: no interior gradient
			ja = j
		}
	}
	var n2 float64
	if jb != ja {
		ρa := waterDensity(c.Lake[ja].T, c.Lake[ja].IceFrac)
		ρb := waterDensity(c.Lake[jb].T, c.Lake[jb].IceFrac)
		dz := c.Lake[jb].Z - c.Lake[ja].Z
		if dz > 0 && ρa > 0 {
			n2 = grav / ρa * (ρb - ρa) / dz
		}
	}
	n2 = math.Max(n2, n2min)

	// Richardson-number damping of the turbulent term.
	q := ustar * math.Exp(-ks*z)
	num := 40. * n2 * (kappaVonKarman * z) * (kappaVonKarman * z)
	den := math.Max(q*q, 1e-10)
	ri := (-1. + math.Sqrt(1.+num/den)) / 20.

	ked := kappaVonKarman * ustar * z / prandtl0 *
		math.Exp(-ks*z) / (1. + 37.*ri*ri)

	// Background eddy diffusivity increases as stratification weakens.
	kbg := kbgCoef * math.Pow(n2, kbgPower)

	return ked + kbg
}
