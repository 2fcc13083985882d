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
)

// EnergyClosure returns a function that closes the column energy budget for
// the step: the change in total energy content (sensible plus latent) per
// unit time must equal the net boundary flux plus the absorbed shortwave.
// Residuals below energyErrMax are numerical noise and are folded into the
// reported surface and ground heat fluxes; larger residuals indicate a
// solver or bookkeeping defect and are flagged for the domain-level balance
// check to abort on.
func EnergyClosure() ColumnManipulator {
	return func(c *Column, Δt float64) {
		after := c.Energy()
		influx := c.TopFlux + c.Sabg
		c.EnergyErr = (after-c.energyBefore)/Δt - influx
		if math.Abs(c.EnergyErr) < energyErrMax {
			c.FluxOut = c.TopFlux - c.EnergyErr
			c.GroundHeat += c.EnergyErr
			return
		}
		c.balanceFault = true
	}
}

// EnergyBalanceCheck returns a function that surfaces unrecoverable
// per-column energy imbalances as a run-aborting error. The computation is
// deterministic, so the fault reproduces on retry; it is a defect signal,
// not a transient.
func EnergyBalanceCheck() DomainManipulator {
	return func(m *Model) error {
		for i, c := range m.columns {
			if c.balanceFault {
				return fmt.Errorf("laketherm: column %d energy conservation fault: residual %g W/m² exceeds %g W/m²",
					i, c.EnergyErr, energyErrMax)
			}
		}
		return nil
	}
}
