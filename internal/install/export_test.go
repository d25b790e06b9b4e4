package install

import "golang.org/x/time/rate"

// newAlways returns a limiter that lets every call through.
func newAlways() *rate.Sometimes { return &rate.Sometimes{Every: 1} }
