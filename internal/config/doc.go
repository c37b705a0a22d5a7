// SPDX-License-Identifier: MIT

// Package config loads vidserve configuration with the precedence
// ENV > YAML file > defaults.
package config
