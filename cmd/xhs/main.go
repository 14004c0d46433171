package main

import (
	"fmt"
	"os"

	_ "github.com/mtibben/androiddnsfix"
	"github.com/pkg/errors"
	httpie "github.com/sthagen/ducaale-xh"
)

func main() {
	if err := httpie.Main(&httpie.Options{DefaultScheme: "https"}); err != nil {
		var statusErr *httpie.StatusError
		if errors.As(err, &statusErr) {
			fmt.Fprintf(os.Stderr, "xh: warning: %v\n", err)
			os.Exit(statusErr.ExitCode())
		}
		fmt.Fprintf(os.Stderr, "xh: error: %v\n", err)
		os.Exit(1)
	}
}
