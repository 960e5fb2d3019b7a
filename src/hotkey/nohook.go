//go:build !cgo || !(windows || linux || darwin)

package hotkey

// NewSystemHook reports that this build carries no global hook.
func NewSystemHook() (Hook, error) {
	return nil, ErrUnavailable
}
