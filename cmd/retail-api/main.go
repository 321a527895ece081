package main

import (
	"context"
	"errors"
	"fmt"
	"os"
)

func main() {
	app := mustBootstrapRetailAPI()
	err := app.Run()
	app.Close()

	if err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "retail-api: %v\n", err)
		os.Exit(1)
	}
}
