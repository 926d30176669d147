// Package httpserver exposes the broker's queue and job operations over a
// REST-ish HTTP surface. Routes use Go 1.22 method+path patterns; errors map
// to statuses by kind and carry a reason in the X-Status-Reason header.
package httpserver
