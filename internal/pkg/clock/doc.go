// Package clock hides time.Now behind a small interface.
//
// Code that derives a TOTP counter reads the current time through Clocker so
// tests can freeze or step the clock instead of sleeping.
package clock
