// Package otp implements the HOTP/TOTP engine used for second-factor checks.
//
// The engine is a pure function of its inputs: callers pass the raw secret,
// the code parameters and the unix time to evaluate at. Nothing is read from
// the wall clock here, which keeps generation and verification deterministic.
//
// Code generation delegates the RFC 4226 HMAC and dynamic truncation to
// github.com/pquerna/otp/hotp. This package adds the time-step sliding window,
// parameter validation and otpauth:// provisioning URIs.
package otp
