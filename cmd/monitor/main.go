// Command pumpfun-monitor scores new pump.fun tokens and streams them,
// together with live trades, to WebSocket viewers.
package main

import "pumpfun-monitor/internal/cli"

func main() {
	cli.Execute()
}
