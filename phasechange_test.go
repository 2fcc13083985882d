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

// layerEnthalpy is the conserved quantity of the freeze/thaw update.
func layerEnthalpy(t, liq, ice, cvSol float64) float64 {
	return (cvSol+cpliq*liq+cpice*ice)*(t-tfrz) - hfus*ice
}

// The freeze/thaw update must conserve total mass and enthalpy for every
// branch of the state machine, with and without a non-water matrix
// capacity.
func TestFreezeThawConservation(t *testing.T) {
	const tolerance = 1.e-9

	cases := []struct {
		name               string
		t, liq, ice, cvSol float64
	}{
		{"melt partial", 275., 100., 500., 0},
		{"melt exhausts ice", 280., 500., 0.5, 0},
		{"freeze partial", 271., 500., 100., 0},
		{"freeze exhausts liquid", 260., 0.5, 500., 0},
		{"no change warm", 280., 500., 0., 0},
		{"no change cold", 260., 0., 500., 0},
		{"at reference", tfrz, 300., 300., 0},
		{"soil freeze partial", 272., 200., 0., 6.e5},
		{"soil freeze exhausts liquid", 250., 5., 100., 6.e5},
		{"soil melt partial", 274., 50., 150., 6.e5},
		{"dry matrix", 270., 0., 0., 6.e5},
	}
	for _, tc := range cases {
		before := layerEnthalpy(tc.t, tc.liq, tc.ice, tc.cvSol)
		massBefore := tc.liq + tc.ice
		tNew, liq, ice, melt, frozen := freezeThaw(tc.t, tc.liq, tc.ice, tc.cvSol)

		if different(liq+ice, massBefore, tolerance) {
			t.Errorf("%s: mass changed %g -> %g", tc.name, massBefore, liq+ice)
		}
		if different(layerEnthalpy(tNew, liq, ice, tc.cvSol), before, tolerance) {
			t.Errorf("%s: enthalpy changed %g -> %g",
				tc.name, before, layerEnthalpy(tNew, liq, ice, tc.cvSol))
		}
		if liq < 0 || ice < 0 {
			t.Errorf("%s: negative phase mass liq=%g ice=%g", tc.name, liq, ice)
		}
		if melt < 0 || frozen < 0 {
			t.Errorf("%s: negative transfer melt=%g frozen=%g", tc.name, melt, frozen)
		}
		if melt > 0 && frozen > 0 {
			t.Errorf("%s: melted and froze in the same update", tc.name)
		}
	}
}

// When the phase transfer exhausts the available mass, the residual heat
// must reset the temperature against the updated heat capacity, leaving the
// layer away from the freezing reference.
func TestFreezeThawResidualHeat(t *testing.T) {
	const tolerance = 1.e-9

	// 0.5 kg of ice in warm water: all of it melts and the layer stays warm.
	tNew, liq, ice, melt, _ := freezeThaw(280., 500., 0.5, 0)
	if ice != 0 {
		t.Errorf("ice should be exhausted: %g", ice)
	}
	if melt != 0.5 {
		t.Errorf("melt = %g, want 0.5", melt)
	}
	if tNew <= tfrz {
		t.Errorf("residual heat lost: T = %g", tNew)
	}
	// The updated capacity must reflect the all-liquid mix.
	want := tfrz + ((280.-tfrz)*(cpliq*500.+cpice*0.5)-0.5*hfus)/(cpliq*500.5)
	if absDifferent(tNew, want, tolerance) {
		t.Errorf("T = %.12g, want %.12g", tNew, want)
	}
	if liq != 500.5 {
		t.Errorf("liq = %g, want 500.5", liq)
	}
}

// The non-water matrix capacity scales the transferred mass: the same
// temperature deficit freezes more water when the matrix stores heat too.
func TestFreezeThawMatrixCapacity(t *testing.T) {
	const tolerance = 1.e-9

	_, _, iceBare, _, frozenBare := freezeThaw(272., 500., 0., 0)
	tNew, _, iceSoil, _, frozenSoil := freezeThaw(272., 500., 0., 6.e5)
	if frozenSoil <= frozenBare {
		t.Errorf("matrix capacity should increase the frozen mass: %g <= %g",
			frozenSoil, frozenBare)
	}
	wantFrozen := (tfrz - 272.) * (6.e5 + cpliq*500.) / hfus
	if different(frozenSoil, wantFrozen, tolerance) {
		t.Errorf("frozen = %.12g, want %.12g", frozenSoil, wantFrozen)
	}
	if absDifferent(tNew, tfrz, tolerance) {
		t.Errorf("partial freeze should end at the reference: %.12g", tNew)
	}
	if iceSoil <= iceBare {
		t.Error("ice masses inconsistent with the transfers")
	}
}

// Sub-threshold residual masses snap to exactly zero.
func TestFreezeThawSnap(t *testing.T) {
	// Leave slightly less than massEps of ice behind.
	heat := (1. - 1e-13) * hfus // melts all but 1e-13 kg of 1 kg of ice
	temp := tfrz + heat/(cpliq*1000.+cpice*1.)
	_, _, ice, _, _ := freezeThaw(temp, 1000., 1., 0)
	if ice != 0 {
		t.Errorf("residual ice %g should snap to exactly zero", ice)
	}
}

// A massless (inert) layer passes through unchanged.
func TestFreezeThawInert(t *testing.T) {
	tNew, liq, ice, melt, frozen := freezeThaw(270., 0., 0., 0)
	if tNew != 270. || liq != 0 || ice != 0 || melt != 0 || frozen != 0 {
		t.Error("inert layer was modified")
	}
}

// Lake-layer phase change preserves the density-implied layer mass and
// keeps the ice fraction in bounds.
func TestPhaseChangeLake(t *testing.T) {
	const tolerance = 1.e-9

	c := testColumn(t, 4., 4, 275.)
	c.Lake[0].T = 270.
	c.Lake[0].IceFrac = 0.2
	c.Lake[1].T = 276.
	c.Lake[1].IceFrac = 0.3
	c.Lake[2].T = 240. // large deficit, still below the full latent heat
	c.Lake[3].T = 275.

	PhaseChange()(c, 1800.)

	for j := range c.Lake {
		l := &c.Lake[j]
		if l.IceFrac < 0 || l.IceFrac > 1 {
			t.Errorf("layer %d icefrac out of bounds: %g", j, l.IceFrac)
		}
	}
	if c.Lake[0].IceFrac <= 0.2 {
		t.Error("cold layer should have frozen further")
	}
	if c.Lake[1].IceFrac >= 0.3 {
		t.Error("warm layer should have melted")
	}
	// Layer 2's deficit freezes part of the layer and leaves it exactly at
	// the freezing reference.
	wantIce := (tfrz - 240.) * cpliq / hfus
	if different(c.Lake[2].IceFrac, wantIce, tolerance) {
		t.Errorf("deeply cold layer icefrac = %.12g, want %.12g",
			c.Lake[2].IceFrac, wantIce)
	}
	if absDifferent(c.Lake[2].T, tfrz, tolerance) {
		t.Errorf("partially frozen layer should sit at freezing: %.12g",
			c.Lake[2].T)
	}
	if c.Lake[3].IceFrac != 0 || c.Lake[3].T != 275. {
		t.Error("ice-free above-freezing layer should be untouched")
	}
	if math.Abs(c.LakeIce-c.IceThickness()) > tolerance {
		t.Error("integrated ice diagnostic not refreshed")
	}
}

// Soil-layer phase change must conserve each layer's water mass and the
// column energy content: the mineral matrix stores sensible heat, so
// ignoring it would manufacture energy at the transfer.
func TestPhaseChangeSoil(t *testing.T) {
	const tolerance = 1.e-9

	c := testColumn(t, 4., 4, 272.)
	soilMass := make([]float64, len(c.Soil))
	for k := range c.Soil {
		soilMass[k] = c.Soil[k].Liq + c.Soil[k].Ice
	}
	energyBefore := c.Energy()

	PhaseChange()(c, 1800.)

	if different(c.Energy(), energyBefore, tolerance) {
		t.Errorf("phase change moved column energy: %g -> %g",
			energyBefore, c.Energy())
	}
	for k := range c.Soil {
		s := &c.Soil[k]
		if different(s.Liq+s.Ice, soilMass[k], tolerance) {
			t.Errorf("soil layer %d mass changed: %g -> %g",
				k, soilMass[k], s.Liq+s.Ice)
		}
		if s.Bedrock {
			if s.Ice != 0 || s.T != 272. {
				t.Errorf("bedrock layer %d should be untouched", k)
			}
			continue
		}
		if s.Ice <= 0 {
			t.Errorf("cold saturated soil layer %d formed no ice", k)
		}
		if absDifferent(s.T, tfrz, tolerance) {
			t.Errorf("partially frozen soil layer %d at %.12g, want the freezing reference",
				k, s.T)
		}
		wantIce := (tfrz - 272.) * soilFreezeCapacity(s) / hfus
		if different(s.Ice, wantIce, tolerance) {
			t.Errorf("soil layer %d ice = %.12g, want %.12g", k, s.Ice, wantIce)
		}
	}
}

// soilFreezeCapacity is the pre-transfer capacity driving a saturated
// unfrozen soil layer's freeze: matrix plus liquid terms.
func soilFreezeCapacity(s *SoilLayer) float64 {
	return s.CsSol*(1.-s.Watsat)*s.Dz + cpliq*(s.Liq+s.Ice)
}

// A full pipeline step over a column whose saturated soil starts below
// freezing must close the energy budget rather than abort.
func TestColdSoilStep(t *testing.T) {
	const tolerance = 1.e-9

	c := testColumn(t, 4., 4, 272.)
	soilMass := make([]float64, len(c.Soil))
	for k := range c.Soil {
		soilMass[k] = c.Soil[k].Liq + c.Soil[k].Ice
	}

	m := newTestModel(t, 1800., c)
	runSteps(t, m, 3)

	if math.Abs(c.EnergyErr) >= energyErrMax {
		t.Errorf("energy residual %g outside the noise band", c.EnergyErr)
	}
	for k := range c.Soil {
		s := &c.Soil[k]
		if different(s.Liq+s.Ice, soilMass[k], tolerance) {
			t.Errorf("soil layer %d mass changed: %g -> %g",
				k, soilMass[k], s.Liq+s.Ice)
		}
		if s.Liq < 0 || s.Ice < 0 {
			t.Errorf("soil layer %d negative phase mass: liq=%g ice=%g",
				k, s.Liq, s.Ice)
		}
	}
}
