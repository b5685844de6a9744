package main

import (
	"errors"
	"fmt"
	"io"

	multierror "github.com/hashicorp/go-multierror"

	"github.com/steelcutops/usergate/usergate/failure"
	"github.com/steelcutops/usergate/usergate/hostgroup"
)

// reportError prints err to w. Domain failures are printed in full, one
// report per host.
func reportError(w io.Writer, err error) {
	if merr, ok := err.(*multierror.Error); ok {
		for _, e := range merr.Errors {
			reportError(w, e)
		}
		return
	}

	var herr *hostgroup.HostError
	if errors.As(err, &herr) {
		fmt.Fprintf(w, "%s:\n", herr.Hostname)
		err = herr.Err
	}

	var ferr *failure.Error
	if errors.As(err, &ferr) {
		_ = failure.Format(w, ferr)
		return
	}

	fmt.Fprintf(w, "error: %v\n", err)
}
