//go:build !unix && !windows

package priority

func lower() error {
	return ErrUnsupported
}
