// uamp-sim replays pre-recorded device traces through simulation modules.
// All CLI handling lives in cmd.
package main

import (
	"github.com/uamp-sim/uamp-sim/cmd"
)

func main() {
	cmd.Execute()
}
