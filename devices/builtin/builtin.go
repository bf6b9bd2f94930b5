// Package builtin registers the device packages shipped with regmapgen.
package builtin

import (
	_ "github.com/timzifer/regmapgen/devices/cellwatch"
	_ "github.com/timzifer/regmapgen/devices/kelman"
	_ "github.com/timzifer/regmapgen/devices/pqube"
)
