//go:build !formfieldsdev

package shape

// DevMode enables shape validation. Build with -tags formfieldsdev.
const DevMode = false
