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
	"io"
	"reflect"
	"strings"
)

// OutputOptions returns the names, descriptions, and units of the scalar
// column variables available for output, taken from the Column struct tags.
func OutputOptions() (names, descriptions, units []string) {
	t := reflect.TypeOf(Column{})
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		desc := f.Tag.Get("desc")
		if desc == "" || f.Type.Kind() != reflect.Float64 {
			continue
		}
		names = append(names, f.Name)
		descriptions = append(descriptions, desc)
		units = append(units, f.Tag.Get("units"))
	}
	return
}

// Value returns the value of the named scalar column variable, or an error
// for an invalid name.
func (c *Column) Value(name string) (float64, error) {
	v := reflect.ValueOf(c).Elem().FieldByName(name)
	if !v.IsValid() || v.Kind() != reflect.Float64 {
		return 0, fmt.Errorf("laketherm: invalid output variable %q", name)
	}
	return v.Float(), nil
}

// WriteResults writes a tab-separated table of the named scalar variables,
// one row per column, plus the per-layer lake temperatures and ice
// fractions.
func WriteResults(w io.Writer, columns []*Column, names ...string) error {
	header := append([]string{"column"}, names...)
	if len(columns) > 0 {
		for j := range columns[0].Lake {
			header = append(header, fmt.Sprintf("T_lake%d", j),
				fmt.Sprintf("icefrac%d", j))
		}
	}
	if _, err := fmt.Fprintln(w, strings.Join(header, "\t")); err != nil {
		return err
	}
	for i, c := range columns {
		row := []string{fmt.Sprintf("%d", i)}
		for _, name := range names {
			v, err := c.Value(name)
			if err != nil {
				return err
			}
			row = append(row, fmt.Sprintf("%g", v))
		}
		for j := range c.Lake {
			row = append(row, fmt.Sprintf("%.6f", c.Lake[j].T),
				fmt.Sprintf("%.6g", c.Lake[j].IceFrac))
		}
		if _, err := fmt.Fprintln(w, strings.Join(row, "\t")); err != nil {
			return err
		}
	}
	return nil
}
