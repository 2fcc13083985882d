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

// Empirical extinction coefficient fit to lake depth, used when no
// prescribed value is supplied.
const (
	etaCoef  = 1.1925
	etaPower = -0.424
)

// Radiation returns a function that distributes the absorbed shortwave
// radiation over the column.
//
// With no snow present, a Beta fraction is absorbed in the top water layer
// and the rest penetrates with exponential extinction: layer j absorbs
// Sabg·(1-Beta)·(exp(-η·z_top) - exp(-η·z_bottom)). Energy reaching below
// the deepest water layer flows into the top soil layer as a residual term.
//
// With snow present, absorption is instead distributed among the active
// snow layers by the externally supplied per-layer absorbed fractions, and
// any remainder is absorbed in the top water layer.
func Radiation() ColumnManipulator {
	return func(c *Column, Δt float64) {
		for i := range c.Snow {
			c.Snow[i].Phi = 0
		}
		for j := range c.Lake {
			c.Lake[j].Phi = 0
		}
		c.phiSoil = 0
		if c.Sabg == 0 {
			return
		}

		if c.Snl > 0 {
			var absorbed float64
			for i := 0; i < c.Snl && i < len(c.SnowAbsFrac); i++ {
				c.Snow[i].Phi = c.Sabg * c.SnowAbsFrac[i]
				absorbed += c.Snow[i].Phi
			}
			c.Lake[0].Phi = c.Sabg - absorbed
			return
		}

		eta := c.Eta
		if eta <= 0 {
			eta = etaCoef * math.Pow(c.Depth, etaPower)
		}

		penetrating := c.Sabg * (1. - c.Beta)
		c.Lake[0].Phi = c.Sabg * c.Beta
		zTop := 0.
		for j := range c.Lake {
			l := &c.Lake[j]
			zBot := zTop + l.Dz
			l.Phi += penetrating * (math.Exp(-eta*zTop) - math.Exp(-eta*zBot))
			zTop = zBot
		}
		// Whatever reaches below the deepest water layer heats the top
		// soil layer.
		c.phiSoil = penetrating * math.Exp(-eta*zTop)
	}
}
