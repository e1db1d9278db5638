// Whereami is a service which answers one question: where is this IP
// address, roughly. It asks several public geolocation providers at
// once, takes the first one which succeeds and keeps the answer in an
// in-memory cache.
//
// Tool is organized into 3 logical parts:
//
// Geolib
//
// geolib is the core package: the Engine with its provider race,
// fallback policy, inflight deduplication and result cache. It knows
// nothing about HTTP serving or configs.
//
// Providers
//
// A set of upstream adapters. Each one talks to a single public
// geolocation API and converts its proprietary schema into the
// normalized result geolib understands.
//
// Main package
//
// The main package wires both together: hjson config, zerolog logging
// and a chi HTTP server. Resulting binary starts an http server and
// you can use it in your infrastructure as is.
package main
