// Command heightsml runs the height-based sex prediction analysis.
//
//	heightsml report --out report
//	heightsml sweep --metric f1
//	heightsml curve roc --positive Male
package main

import (
	"context"
	"os"
	"os/signal"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
