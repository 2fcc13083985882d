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

// Command laketherm runs a batch of lake thermal columns from a TOML
// scenario file.
package main

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/lakemodel/laketherm/lakethermutil"
)

func main() {
	if err := lakethermutil.Root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		log.Exit(1)
	}
}
