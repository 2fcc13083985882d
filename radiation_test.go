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
	"testing"
)

// Every watt of absorbed shortwave must land somewhere in the column: the
// per-layer deposition plus the residual into the soil sums to Sabg.
func TestRadiationBudget(t *testing.T) {
	const tolerance = 1.e-12

	c := testColumn(t, 10., 10, 275.)
	c.Sabg = 180.
	c.Beta = 0.4

	Radiation()(c, 1800.)

	total := c.phiSoil
	for j := range c.Lake {
		if c.Lake[j].Phi < 0 {
			t.Errorf("layer %d: negative absorption %g", j, c.Lake[j].Phi)
		}
		total += c.Lake[j].Phi
	}
	if different(total, c.Sabg, tolerance) {
		t.Errorf("deposited %g W/m², want %g", total, c.Sabg)
	}
	// Extinction is monotone: deeper layers of equal thickness absorb less
	// of the penetrating fraction.
	for j := 2; j < len(c.Lake); j++ {
		if c.Lake[j].Phi > c.Lake[j-1].Phi {
			t.Errorf("absorption grows with depth at layer %d", j)
		}
	}
}

// The surface fraction goes to the top layer in full, on top of its share
// of the penetrating beam.
func TestRadiationSurfaceFraction(t *testing.T) {
	const tolerance = 1.e-12

	c := testColumn(t, 10., 10, 275.)
	c.Sabg = 100.
	c.Beta = 0.6
	c.Eta = 0.5

	Radiation()(c, 1800.)

	dz := c.Lake[0].Dz
	want := 100.*0.6 + 100.*0.4*(1.-math.Exp(-0.5*dz))
	if different(c.Lake[0].Phi, want, tolerance) {
		t.Errorf("top layer Phi = %g, want %g", c.Lake[0].Phi, want)
	}
	if different(c.phiSoil, 100.*0.4*math.Exp(-0.5*10.), tolerance) {
		t.Errorf("soil residual = %g", c.phiSoil)
	}
}

// Without a prescribed extinction coefficient the depth fit applies: a
// deeper (clearer) lake passes more of the beam through to depth.
func TestRadiationDerivedExtinction(t *testing.T) {
	shallow := testColumn(t, 5., 5, 275.)
	deep := testColumn(t, 50., 5, 275.)
	for _, c := range []*Column{shallow, deep} {
		c.Sabg = 100.
		c.Beta = 0.4
		c.Eta = 0 // derive from depth
		Radiation()(c, 1800.)
	}
	etaShallow := etaCoef * math.Pow(5., etaPower)
	etaDeep := etaCoef * math.Pow(50., etaPower)
	if etaDeep >= etaShallow {
		t.Fatal("extinction fit should decrease with depth")
	}
	// Fraction of the penetrating beam reaching the bottom, normalized by
	// total depth, is larger for the weaker extinction.
	const tolerance = 1.e-12
	fShallow := shallow.phiSoil / (100. * 0.6)
	fDeep := deep.phiSoil / (100. * 0.6)
	if different(fShallow, math.Exp(-etaShallow*5.), tolerance) {
		t.Errorf("shallow residual fraction = %g, want %g",
			fShallow, math.Exp(-etaShallow*5.))
	}
	if different(fDeep, math.Exp(-etaDeep*50.), tolerance) {
		t.Errorf("deep residual fraction = %g, want %g",
			fDeep, math.Exp(-etaDeep*50.))
	}
}

// With snow present the beam never reaches the water interior: the supplied
// per-layer fractions take their share and the top water layer absorbs the
// remainder.
func TestRadiationSnowCovered(t *testing.T) {
	const tolerance = 1.e-12

	c := testColumn(t, 10., 10, 270.)
	c.Snl = 2
	c.Snow[0] = SnowLayer{T: 268., Ice: 20., Dz: 0.1}
	c.Snow[1] = SnowLayer{T: 270., Ice: 30., Dz: 0.15}
	c.Sabg = 120.
	c.SnowAbsFrac = []float64{0.6, 0.3}
	c.Beta = 0.4 // ignored under snow
	c.Eta = 0.5

	Radiation()(c, 1800.)

	if different(c.Snow[0].Phi, 72., tolerance) ||
		different(c.Snow[1].Phi, 36., tolerance) {
		t.Errorf("snow absorption = %g, %g, want 72, 36",
			c.Snow[0].Phi, c.Snow[1].Phi)
	}
	if different(c.Lake[0].Phi, 12., tolerance) {
		t.Errorf("remainder into top water = %g, want 12", c.Lake[0].Phi)
	}
	for j := 1; j < len(c.Lake); j++ {
		if c.Lake[j].Phi != 0 {
			t.Errorf("layer %d should absorb nothing under snow", j)
		}
	}
	if c.phiSoil != 0 {
		t.Errorf("soil residual under snow = %g, want 0", c.phiSoil)
	}
}

// A dark step deposits nothing and clears any stale deposition.
func TestRadiationDark(t *testing.T) {
	c := testColumn(t, 5., 5, 275.)
	c.Sabg = 200.
	c.Beta = 0.4
	Radiation()(c, 1800.)
	c.Sabg = 0
	Radiation()(c, 1800.)
	for j := range c.Lake {
		if c.Lake[j].Phi != 0 {
			t.Errorf("stale deposition in layer %d: %g", j, c.Lake[j].Phi)
		}
	}
	if c.phiSoil != 0 {
		t.Errorf("stale soil residual: %g", c.phiSoil)
	}
}
