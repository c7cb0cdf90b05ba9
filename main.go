package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spiffcs/gitgazer/cmd"
)

func main() {
	if err := cmd.New().Execute(); err != nil {
		if !errors.Is(err, cmd.ErrReported) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
