// Package shape is a development diagnostic: it compares a live form value
// against a fully populated frame of the same form and reports keys the
// frame does not know about. Validate is a no-op unless the module is built
// with the formfieldsdev tag; Check always runs.
package shape
