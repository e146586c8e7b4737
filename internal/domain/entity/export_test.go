package entity

import "net"

// SetLookupIP swaps the resolver used by ValidateURL and returns a restore func.
func SetLookupIP(fn func(host string) ([]net.IP, error)) func() {
	prev := lookupIP
	lookupIP = fn
	return func() { lookupIP = prev }
}
