// Package imports pulls in every tool package so their init functions can
// register with the catalog. main imports this package for side effects only.
package imports

import (
	_ "github.com/dptools869/dp-tools-server/internal/tools/calculator"
	_ "github.com/dptools869/dp-tools-server/internal/tools/conversion"
)
