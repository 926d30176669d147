// Package config loads broker configuration from file, environment, and
// flags, in that order of precedence (later wins).
package config
