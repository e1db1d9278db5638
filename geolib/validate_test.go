package geolib_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/whereami-sh/whereami/geolib"
)

func TestValidAddress(t *testing.T) {
	testTable := map[string]bool{
		"8.8.8.8":              true,
		"23.22.13.113":         true,
		"2606:4700:4700::1111": true,
		"81.2.69.142":          true,
		"":                     false,
		"unknown":              false,
		"Unknown":              false,
		"localhost":            false,
		"LOCALHOST":            false,
		"nonsense":             false,
		"999.1.2.3":            false,
		"10.0.0.1":             false,
		"10.255.255.254":       false,
		"172.16.0.1":           false,
		"172.31.255.1":         false,
		"192.168.1.5":          false,
		"127.0.0.1":            false,
		"127.1.2.3":            false,
		"0.0.0.0":              false,
		"::1":                  false,
		"::":                   false,
		"fe80::1":              false,
		"fc00::1":              false,
		"fd12:3456:789a::1":    false,
	}

	for addr, expected := range testTable {
		addr := addr
		expected := expected

		t.Run(addr, func(t *testing.T) {
			assert.Equal(t, expected, geolib.ValidAddress(addr))
		})
	}
}

func TestValidAddressTrimsSpace(t *testing.T) {
	assert.True(t, geolib.ValidAddress("  8.8.8.8 "))
	assert.False(t, geolib.ValidAddress("   "))
}
