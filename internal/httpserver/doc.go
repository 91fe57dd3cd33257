// Package httpserver runs the long-lived probe server used instead of
// socket activation.
package httpserver
