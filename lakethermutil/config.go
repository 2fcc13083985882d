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

package lakethermutil

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/lakemodel/laketherm"
)

// Config is the TOML scenario configuration.
type Config struct {
	// Dt is the timestep [s].
	Dt float64

	// Steps is the number of timesteps to run.
	Steps int

	// Output is the results file path; empty writes to standard output.
	Output string

	// Column describes the lake columns in the scenario.
	Column []ColumnConfig
}

// ColumnConfig describes one lake column and its (constant) forcing.
type ColumnConfig struct {
	Depth       float64 // lake depth [m]
	NLake       int     // number of open-water layers
	NSoil       int     // number of soil layers
	NBedrock    int     // number of bedrock layers at the bottom
	SnowCap     int     // snow layer capacity
	SoilDz      float64 // soil layer thickness [m]
	Watsat      float64 // soil porosity
	TkSat       float64 // saturated soil conductivity [W/m/K]
	TkDry       float64 // dry soil conductivity [W/m/K]
	CsSol       float64 // volumetric heat capacity of soil solids [J/m³/K]
	InitialTemp float64 // initial temperature [K]

	TopFlux  float64 // net non-solar surface flux [W/m²]
	Sabg     float64 // absorbed shortwave [W/m²]
	Beta     float64 // surface-absorbed shortwave fraction
	Eta      float64 // extinction coefficient; 0 derives from depth [1/m]
	Ustar    float64 // friction velocity [m/s]
	Puddling bool    // suppress mixing under thick ice
}

// ReadConfig reads and validates a scenario configuration file.
func ReadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("lakethermutil: reading configuration: %w", err)
	}
	cfg := &Config{
		Dt:    1800,
		Steps: 48,
	}
	if err := toml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("lakethermutil: parsing configuration %s: %w", path, err)
	}
	if len(cfg.Column) == 0 {
		return nil, fmt.Errorf("lakethermutil: configuration %s defines no columns", path)
	}
	if cfg.Steps < 1 {
		return nil, fmt.Errorf("lakethermutil: configuration %s: Steps must be positive", path)
	}
	return cfg, nil
}

// Columns builds the column domain described by the configuration.
func (cfg *Config) Columns() ([]*laketherm.Column, error) {
	columns := make([]*laketherm.Column, len(cfg.Column))
	for i, cc := range cfg.Column {
		c, err := laketherm.NewColumn(laketherm.ColumnSpec{
			Depth:       cc.Depth,
			NLake:       cc.NLake,
			NSoil:       cc.NSoil,
			NBedrock:    cc.NBedrock,
			SnowCap:     cc.SnowCap,
			SoilDz:      cc.SoilDz,
			Watsat:      cc.Watsat,
			TkSat:       cc.TkSat,
			TkDry:       cc.TkDry,
			CsSol:       cc.CsSol,
			InitialTemp: cc.InitialTemp,
		})
		if err != nil {
			return nil, fmt.Errorf("lakethermutil: column %d: %w", i, err)
		}
		c.TopFlux = cc.TopFlux
		c.Sabg = cc.Sabg
		c.Beta = cc.Beta
		c.Eta = cc.Eta
		c.Ustar = cc.Ustar
		c.Puddling = cc.Puddling
		columns[i] = c
	}
	return columns, nil
}
