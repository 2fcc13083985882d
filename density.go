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

// Temperature of maximum liquid water density [K] and the coefficients of
// the density fit of Hostetler and Bartlein (1990).
const (
	tdmax    = 277.
	rhoCoef  = 1.9549e-5
	rhoPower = 1.68
)

// liquidWaterDensity returns the density of ice-free water at temperature t
// [kg/m³]. The fit peaks at tdmax and falls off as a power law of the
// temperature offset on both sides.
func liquidWaterDensity(t float64) float64 {
	return denh2o * (1. - rhoCoef*math.Pow(math.Abs(t-tdmax), rhoPower))
}

// waterDensity returns the bulk density of a partially frozen water layer
// [kg/m³]: the ice-fraction-weighted mix of the liquid density fit and the
// constant ice density. It is used only for stability comparisons and mixing
// weights; lake layer thickness never responds to density.
func waterDensity(t, icefrac float64) float64 {
	return (1.-icefrac)*liquidWaterDensity(t) + icefrac*denice
}
