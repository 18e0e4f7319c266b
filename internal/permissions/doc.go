// Package permissions checks the macOS privacy permissions screen capture
// depends on.
package permissions
